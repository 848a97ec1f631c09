package service

import (
	"errors"
	"fmt"

	"github.com/noah-isme/schoolbus-api/internal/repository"
	"github.com/noah-isme/schoolbus-api/internal/validation"
	appErrors "github.com/noah-isme/schoolbus-api/pkg/errors"
)

// storageError translates storage sentinels into API errors. entity names the
// record for not-found messages and action completes "failed to ...".
func storageError(err error, entity, action string) error {
	if err == nil {
		return nil
	}
	var constraint *repository.ConstraintError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	case errors.As(err, &constraint) && errors.Is(err, repository.ErrConflict):
		return appErrors.WithFields(appErrors.ErrConflict, fmt.Sprintf("%s already exists", constraint.Field),
			[]appErrors.FieldError{{Field: constraint.Field, Reason: "unique"}})
	case errors.As(err, &constraint) && errors.Is(err, repository.ErrInvalidReference):
		return appErrors.WithFields(appErrors.ErrInvalidReference, fmt.Sprintf("%s references a missing record", constraint.Field),
			[]appErrors.FieldError{{Field: constraint.Field, Reason: "exists"}})
	case errors.Is(err, repository.ErrInvalidTransition):
		return appErrors.Clone(appErrors.ErrInvalidTransition, "")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+action)
}

// validationError converts a validation failure into the API error shape.
func validationError(err error, message string) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr.AsAppError(message)
	}
	return appErrors.Clone(appErrors.ErrValidation, message)
}
