package handler

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schoolbus-api/internal/middleware"
	appErrors "github.com/noah-isme/schoolbus-api/pkg/errors"
	"github.com/noah-isme/schoolbus-api/pkg/response"
)

// actorID returns the authenticated user id, or 0 outside JWT routes.
func actorID(c *gin.Context) int64 {
	if claims := middleware.CurrentUser(c); claims != nil {
		return claims.UserID
	}
	return 0
}

// pathID parses a positive decimal path parameter, answering 400 otherwise.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.WithFields(appErrors.ErrValidation, "invalid "+name,
			[]appErrors.FieldError{{Field: name, Reason: "numeric"}}))
		return 0, false
	}
	return id, true
}

// queryID parses an optional positive integer query parameter.
func queryID(c *gin.Context, name string) (*int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.WithFields(appErrors.ErrValidation, "invalid "+name,
			[]appErrors.FieldError{{Field: name, Reason: "numeric"}}))
		return nil, false
	}
	return &id, true
}

// queryLimit reads the optional limit query parameter; 0 means no limit.
func queryLimit(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		response.Error(c, appErrors.WithFields(appErrors.ErrValidation, "limit must be a non-negative integer",
			[]appErrors.FieldError{{Field: "limit", Reason: "gte", Param: "0"}}))
		return 0, false
	}
	return limit, true
}

// queryEnum reads an optional query parameter restricted to allowed values.
func queryEnum(c *gin.Context, name string, allowed ...string) (string, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return "", true
	}
	for _, a := range allowed {
		if raw == a {
			return raw, true
		}
	}
	response.Error(c, appErrors.WithFields(appErrors.ErrValidation, "invalid "+name,
		[]appErrors.FieldError{{Field: name, Reason: "oneof", Param: strings.Join(allowed, " ")}}))
	return "", false
}

// bindJSON decodes the request body into dst. An empty body decodes as {}.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid JSON payload"))
		return false
	}
	return true
}

// nonNil keeps empty collections serialised as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
