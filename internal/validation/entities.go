package validation

import (
	"strings"

	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/schoolbus-api/internal/models"
)

// NewUser validates and normalises a user insert. Role defaults to admin.
func NewUser(in models.NewUser) (models.NewUser, error) {
	in.Username = trim(in.Username)
	in.Email = strings.ToLower(trim(in.Email))
	in.FullName = trim(in.FullName)
	in.Phone = blankToNil(in.Phone)
	if trim(string(in.Role)) == "" {
		in.Role = models.RoleAdmin
	}
	var c checker
	c.structRules(in)
	return in, c.err()
}

// UserPatch validates a partial user update.
func UserPatch(in models.UserPatch) (models.UserPatch, error) {
	in.Username = trimPtr(in.Username)
	in.FullName = trimPtr(in.FullName)
	in.Phone = trimPtr(in.Phone)
	if in.Email != nil {
		email := strings.ToLower(trim(*in.Email))
		in.Email = &email
	}
	var c checker
	c.structRules(in)
	c.nonBlank("username", in.Username)
	c.nonBlank("fullName", in.FullName)
	return in, c.err()
}

// NewStudent validates a student insert.
func NewStudent(in models.NewStudent) (models.NewStudent, error) {
	in.StudentID = trim(in.StudentID)
	in.FirstName = trim(in.FirstName)
	in.LastName = trim(in.LastName)
	in.Grade = trim(in.Grade)
	var c checker
	c.structRules(in)
	c.optionalID("parentId", in.ParentID)
	return in, c.err()
}

// StudentPatch validates a partial student update.
func StudentPatch(in models.StudentPatch) (models.StudentPatch, error) {
	in.StudentID = trimPtr(in.StudentID)
	in.FirstName = trimPtr(in.FirstName)
	in.LastName = trimPtr(in.LastName)
	in.Grade = trimPtr(in.Grade)
	var c checker
	c.structRules(in)
	c.nonBlank("studentId", in.StudentID)
	c.nonBlank("firstName", in.FirstName)
	c.nonBlank("lastName", in.LastName)
	c.nonBlank("grade", in.Grade)
	c.optionalID("parentId", in.ParentID)
	return in, c.err()
}

// NewBus validates a bus insert.
func NewBus(in models.NewBus) (models.NewBus, error) {
	in.BusNumber = trim(in.BusNumber)
	in.LicenseNumber = trim(in.LicenseNumber)
	var c checker
	c.structRules(in)
	c.optionalID("driverId", in.DriverID)
	return in, c.err()
}

// BusPatch validates a partial bus update.
func BusPatch(in models.BusPatch) (models.BusPatch, error) {
	in.BusNumber = trimPtr(in.BusNumber)
	in.LicenseNumber = trimPtr(in.LicenseNumber)
	var c checker
	c.structRules(in)
	c.nonBlank("busNumber", in.BusNumber)
	c.nonBlank("licenseNumber", in.LicenseNumber)
	c.optionalID("driverId", in.DriverID)
	return in, c.err()
}

// NewBusRound validates a round insert. Status defaults to pending.
func NewBusRound(in models.NewBusRound) (models.NewBusRound, error) {
	in.Name = trim(in.Name)
	in.StartTime = trim(in.StartTime)
	in.EndTime = trim(in.EndTime)
	if trim(string(in.Status)) == "" {
		in.Status = models.RoundPending
	}
	var c checker
	c.structRules(in)
	c.optionalID("busId", in.BusID)
	return in, c.err()
}

// BusRoundPatch validates a partial round update.
func BusRoundPatch(in models.BusRoundPatch) (models.BusRoundPatch, error) {
	in.Name = trimPtr(in.Name)
	in.StartTime = trimPtr(in.StartTime)
	in.EndTime = trimPtr(in.EndTime)
	var c checker
	c.structRules(in)
	c.nonBlank("name", in.Name)
	c.nonBlank("startTime", in.StartTime)
	c.nonBlank("endTime", in.EndTime)
	c.optionalID("busId", in.BusID)
	return in, c.err()
}

// NewRoundStudent validates a round assignment.
func NewRoundStudent(in models.NewRoundStudent) (models.NewRoundStudent, error) {
	var c checker
	c.structRules(in)
	return in, c.err()
}

// NewLocation validates a location fix.
func NewLocation(in models.NewLocation) (models.NewLocation, error) {
	in.Latitude = trim(in.Latitude)
	in.Longitude = trim(in.Longitude)
	var c checker
	c.structRules(in)
	return in, c.err()
}

// NewNotification validates a notification. Type defaults to general.
func NewNotification(in models.NewNotification) (models.NewNotification, error) {
	in.Message = trim(in.Message)
	if trim(string(in.Type)) == "" {
		in.Type = models.NotificationGeneral
	}
	var c checker
	c.structRules(in)
	c.optionalID("roundId", in.RoundID)
	c.optionalID("busId", in.BusID)
	c.optionalID("studentId", in.StudentID)
	c.optionalID("senderId", in.SenderID)
	c.optionalID("recipientId", in.RecipientID)
	return in, c.err()
}

// NewAbsence validates an absence report.
func NewAbsence(in models.NewAbsence) (models.NewAbsence, error) {
	in.Date = trim(in.Date)
	in.Reason = blankToNil(in.Reason)
	var c checker
	c.structRules(in)
	c.optionalID("reportedBy", in.ReportedBy)
	return in, c.err()
}

// NewActivityLog validates an activity log entry. Missing actions and
// details are filled with neutral defaults since the log is written
// server-side only.
func NewActivityLog(in models.NewActivityLog) (models.NewActivityLog, error) {
	in.Action = trim(in.Action)
	if in.Action == "" {
		in.Action = models.ActionUnknown
	}
	if len(in.Details) == 0 {
		in.Details = types.JSONText("{}")
	}
	var c checker
	c.structRules(in)
	if !validJSON(in.Details) {
		c.add("details", "json", "")
	}
	return in, c.err()
}

func validJSON(raw types.JSONText) bool {
	var v interface{}
	return raw.Unmarshal(&v) == nil
}

// Login validates credentials. The password is kept verbatim.
func Login(in models.LoginRequest) (models.LoginRequest, error) {
	in.Username = trim(in.Username)
	var c checker
	c.structRules(in)
	return in, c.err()
}
