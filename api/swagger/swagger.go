package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Bus API",
        "description": "Administrative backend for school bus tracking",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Authentication", "description": "Login and current user"},
        {"name": "Users", "description": "Admins, parents and drivers"},
        {"name": "Students", "description": "Student roster"},
        {"name": "Buses", "description": "Fleet management"},
        {"name": "Rounds", "description": "Bus rounds and their start/stop workflow"},
        {"name": "Tracking", "description": "GPS fixes"},
        {"name": "Notifications", "description": "Messages to parents and staff"},
        {"name": "Absences", "description": "Reported student absences"},
        {"name": "Activity Logs", "description": "Audit trail"},
        {"name": "Dashboard", "description": "Aggregate statistics"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "security": [],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get current user",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [{"name": "role", "in": "query", "type": "string", "enum": ["admin", "parent", "driver"]}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NewUser"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate username", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "get": {"tags": ["Users"], "summary": "Get user", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {
                "tags": ["Users"],
                "summary": "Update user",
                "parameters": [{"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/NewUser"}}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "delete": {"tags": ["Users"], "summary": "Delete user", "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}}
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [{"name": "parentId", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create student",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NewStudent"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate student code"}, "422": {"description": "Unknown parent"}}
            }
        },
        "/students/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "get": {"tags": ["Students"], "summary": "Get student", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "parameters": [{"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/NewStudent"}}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "delete": {"tags": ["Students"], "summary": "Delete student", "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}}
        },
        "/buses": {
            "get": {"tags": ["Buses"], "summary": "List buses", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {
                "tags": ["Buses"],
                "summary": "Create bus",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NewBus"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate bus number"}}
            }
        },
        "/buses/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "get": {"tags": ["Buses"], "summary": "Get bus", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {
                "tags": ["Buses"],
                "summary": "Update bus",
                "parameters": [{"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/NewBus"}}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "delete": {"tags": ["Buses"], "summary": "Delete bus", "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}}
        },
        "/buses/{id}/locations": {
            "get": {
                "tags": ["Tracking"],
                "summary": "Latest bus location",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "No location recorded"}}
            }
        },
        "/bus-rounds": {
            "get": {
                "tags": ["Rounds"],
                "summary": "List bus rounds",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["pending", "in_progress", "completed"]},
                    {"name": "busId", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Rounds"],
                "summary": "Create bus round",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NewBusRound"}}],
                "responses": {"201": {"description": "Created"}, "422": {"description": "Unknown bus"}}
            }
        },
        "/bus-rounds/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "get": {"tags": ["Rounds"], "summary": "Get bus round", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {
                "tags": ["Rounds"],
                "summary": "Update bus round",
                "parameters": [{"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/NewBusRound"}}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "delete": {"tags": ["Rounds"], "summary": "Delete bus round", "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}}
        },
        "/bus-rounds/{id}/start": {
            "post": {
                "tags": ["Rounds"],
                "summary": "Start bus round",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}, "409": {"description": "Invalid transition"}}
            }
        },
        "/bus-rounds/{id}/stop": {
            "post": {
                "tags": ["Rounds"],
                "summary": "Stop bus round",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}, "409": {"description": "Invalid transition"}}
            }
        },
        "/bus-rounds/{id}/students": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "get": {"tags": ["Rounds"], "summary": "List round assignments", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "post": {
                "tags": ["Rounds"],
                "summary": "Assign student to round",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NewRoundStudent"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Already assigned"}, "422": {"description": "Unknown student"}}
            }
        },
        "/bus-rounds/{id}/students/{studentId}": {
            "delete": {
                "tags": ["Rounds"],
                "summary": "Remove student from round",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "studentId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {"204": {"description": "Removed"}, "404": {"description": "Not assigned"}}
            }
        },
        "/locations": {
            "post": {
                "tags": ["Tracking"],
                "summary": "Record bus location",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NewLocation"}}],
                "responses": {"201": {"description": "Created"}, "422": {"description": "Unknown bus"}}
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List notifications",
                "parameters": [
                    {"name": "recipientId", "in": "query", "type": "integer"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Notifications"],
                "summary": "Send notification",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NewNotification"}}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/absences": {
            "get": {
                "tags": ["Absences"],
                "summary": "List absences",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "integer"},
                    {"name": "date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Absences"],
                "summary": "Record absence",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NewAbsence"}}],
                "responses": {"201": {"description": "Created"}, "422": {"description": "Unknown student"}}
            }
        },
        "/activity-logs": {
            "get": {
                "tags": ["Activity Logs"],
                "summary": "List activity logs",
                "parameters": [
                    {"name": "userId", "in": "query", "type": "integer"},
                    {"name": "action", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/activity-logs/export": {
            "get": {
                "tags": ["Activity Logs"],
                "summary": "Export activity logs",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}],
                "responses": {"200": {"description": "File", "schema": {"type": "file"}}}
            }
        },
        "/dashboard/stats": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Dashboard statistics",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "NewUser": {
            "type": "object",
            "required": ["username", "password", "email", "fullName"],
            "properties": {
                "username": {"type": "string", "maxLength": 50},
                "password": {"type": "string", "minLength": 6},
                "email": {"type": "string", "format": "email"},
                "fullName": {"type": "string", "maxLength": 100},
                "phone": {"type": "string", "maxLength": 20},
                "role": {"type": "string", "enum": ["admin", "parent", "driver"]}
            }
        },
        "NewStudent": {
            "type": "object",
            "required": ["firstName", "lastName", "grade", "studentId"],
            "properties": {
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "grade": {"type": "string"},
                "studentId": {"type": "string"},
                "parentId": {"type": "integer"}
            }
        },
        "NewBus": {
            "type": "object",
            "required": ["busNumber", "licenseNumber", "capacity"],
            "properties": {
                "busNumber": {"type": "string", "maxLength": 20},
                "licenseNumber": {"type": "string", "maxLength": 20},
                "capacity": {"type": "integer", "minimum": 1},
                "driverId": {"type": "integer"}
            }
        },
        "NewBusRound": {
            "type": "object",
            "required": ["name", "type", "startTime", "endTime"],
            "properties": {
                "name": {"type": "string"},
                "type": {"type": "string", "enum": ["morning", "afternoon"]},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "busId": {"type": "integer"},
                "status": {"type": "string", "enum": ["pending", "in_progress", "completed"]}
            }
        },
        "NewRoundStudent": {
            "type": "object",
            "required": ["studentId", "order"],
            "properties": {
                "studentId": {"type": "integer"},
                "order": {"type": "integer", "minimum": 0}
            }
        },
        "NewLocation": {
            "type": "object",
            "required": ["busId", "latitude", "longitude"],
            "properties": {
                "busId": {"type": "integer"},
                "latitude": {"type": "string"},
                "longitude": {"type": "string"}
            }
        },
        "NewNotification": {
            "type": "object",
            "required": ["type", "message"],
            "properties": {
                "type": {"type": "string"},
                "message": {"type": "string"},
                "roundId": {"type": "integer"},
                "busId": {"type": "integer"},
                "studentId": {"type": "integer"},
                "senderId": {"type": "integer"},
                "recipientId": {"type": "integer"}
            }
        },
        "NewAbsence": {
            "type": "object",
            "required": ["studentId", "date"],
            "properties": {
                "studentId": {"type": "integer"},
                "date": {"type": "string", "format": "date"},
                "reason": {"type": "string"},
                "reportedBy": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {"type": "array", "items": {"type": "object"}}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
