package service

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/internal/validation"
	appErrors "github.com/noah-isme/schoolbus-api/pkg/errors"
)

type userRepository interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	CreateUser(ctx context.Context, in models.NewUser) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// UserService handles user management workflows.
type UserService struct {
	repo     userRepository
	activity activityRecorder
	logger   *zap.Logger
	cost     int
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, activity activityRecorder, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if activity == nil {
		activity = noopRecorder{}
	}
	return &UserService{repo: repo, activity: activity, logger: logger, cost: bcrypt.DefaultCost}
}

// List returns users, optionally restricted to one role.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	users, err := s.repo.ListUsers(ctx, filter)
	if err != nil {
		return nil, storageError(err, "user", "list users")
	}
	return users, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, storageError(err, "user", "load user")
	}
	return user, nil
}

// Create validates the payload, hashes the password and stores the user.
func (s *UserService) Create(ctx context.Context, in models.NewUser, actorID int64) (*models.User, error) {
	in, err := validation.NewUser(in)
	if err != nil {
		return nil, validationError(err, "invalid create user payload")
	}

	hash, err := HashPassword(in.Password, s.cost)
	if err != nil {
		return nil, err
	}
	in.Password = hash

	user, err := s.repo.CreateUser(ctx, in)
	if err != nil {
		return nil, storageError(err, "user", "create user")
	}

	s.activity.Record(actorID, models.ActionCreateUser, map[string]interface{}{
		"userId":   user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
	return user, nil
}

// Update applies a partial update. A supplied password is re-hashed.
func (s *UserService) Update(ctx context.Context, id int64, patch models.UserPatch, actorID int64) (*models.User, error) {
	patch, err := validation.UserPatch(patch)
	if err != nil {
		return nil, validationError(err, "invalid update user payload")
	}

	if patch.Password != nil {
		hash, err := HashPassword(*patch.Password, s.cost)
		if err != nil {
			return nil, err
		}
		patch.Password = &hash
	}

	user, err := s.repo.UpdateUser(ctx, id, patch)
	if err != nil {
		return nil, storageError(err, "user", "update user")
	}

	s.activity.Record(actorID, models.ActionUpdateUser, map[string]interface{}{
		"userId": user.ID,
		"fields": patchFields(patch),
	})
	return user, nil
}

// Delete removes a user after confirming it exists.
func (s *UserService) Delete(ctx context.Context, id int64, actorID int64) error {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return storageError(err, "user", "load user")
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return storageError(err, "user", "delete user")
	}

	s.activity.Record(actorID, models.ActionDeleteUser, map[string]interface{}{
		"userId":   user.ID,
		"username": user.Username,
	})
	return nil
}

// HashPassword bcrypt-hashes a plain password.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", appErrors.WithFields(appErrors.ErrValidation, "password is too long",
				[]appErrors.FieldError{{Field: "password", Reason: "max", Param: "72"}})
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	return string(hash), nil
}

var optionalIDType = reflect.TypeOf(models.OptionalID{})

// patchFields lists the JSON names of the fields a patch supplies.
func patchFields(patch interface{}) []string {
	v := reflect.ValueOf(patch)
	t := v.Type()
	fields := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := v.Field(i)
		supplied := false
		switch {
		case f.Type() == optionalIDType:
			supplied = f.Interface().(models.OptionalID).Set
		case f.Kind() == reflect.Ptr:
			supplied = !f.IsNil()
		}
		if supplied {
			fields = append(fields, strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0])
		}
	}
	return fields
}
