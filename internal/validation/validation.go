// Package validation holds the schema rules for every insertable and patch
// shape. All functions are pure: they normalise a copy of the input and
// either return it or a *Error listing every rejected field.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/schoolbus-api/internal/models"
	appErrors "github.com/noah-isme/schoolbus-api/pkg/errors"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Error is returned when a payload violates the schema.
type Error struct {
	Fields []appErrors.FieldError
}

// Error implements the error interface.
func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// AsAppError converts the validation failure into the HTTP error type.
func (e *Error) AsAppError(message string) *appErrors.Error {
	return appErrors.WithFields(appErrors.ErrValidation, message, e.Fields)
}

// Fields extracts field errors from err when it is a validation failure.
func Fields(err error) []appErrors.FieldError {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}

type checker struct {
	fields []appErrors.FieldError
}

func (c *checker) structRules(value interface{}) {
	err := validate.Struct(value)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.add("", err.Error(), "")
		return
	}
	for _, fe := range verrs {
		c.add(fe.Field(), fe.Tag(), fe.Param())
	}
}

func (c *checker) optionalID(field string, id models.OptionalID) {
	if id.Valid && id.Value <= 0 {
		c.add(field, "gt", "0")
	}
}

// nonBlank rejects a present but empty patch value.
func (c *checker) nonBlank(field string, s *string) {
	if s != nil && *s == "" {
		c.add(field, "required", "")
	}
}

func (c *checker) add(field, reason, param string) {
	c.fields = append(c.fields, appErrors.FieldError{Field: field, Reason: reason, Param: param})
}

func (c *checker) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &Error{Fields: c.fields}
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// blankToNil turns an empty optional string into an absent one.
func blankToNil(s *string) *string {
	s = trimPtr(s)
	if s == nil || *s == "" {
		return nil
	}
	return s
}
