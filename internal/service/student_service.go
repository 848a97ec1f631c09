package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/internal/validation"
)

type studentRepository interface {
	GetStudent(ctx context.Context, id int64) (*models.Student, error)
	ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	CreateStudent(ctx context.Context, in models.NewStudent) (*models.Student, error)
	UpdateStudent(ctx context.Context, id int64, patch models.StudentPatch) (*models.Student, error)
	DeleteStudent(ctx context.Context, id int64) error
}

// StudentService coordinates student records.
type StudentService struct {
	repo     studentRepository
	activity activityRecorder
	logger   *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, activity activityRecorder, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if activity == nil {
		activity = noopRecorder{}
	}
	return &StudentService{repo: repo, activity: activity, logger: logger}
}

// List returns students, optionally for one parent.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	students, err := s.repo.ListStudents(ctx, filter)
	if err != nil {
		return nil, storageError(err, "student", "list students")
	}
	return students, nil
}

// Get returns a student by ID.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.GetStudent(ctx, id)
	if err != nil {
		return nil, storageError(err, "student", "load student")
	}
	return student, nil
}

// Create stores a new student.
func (s *StudentService) Create(ctx context.Context, in models.NewStudent, actorID int64) (*models.Student, error) {
	in, err := validation.NewStudent(in)
	if err != nil {
		return nil, validationError(err, "invalid create student payload")
	}
	student, err := s.repo.CreateStudent(ctx, in)
	if err != nil {
		return nil, storageError(err, "student", "create student")
	}

	s.activity.Record(actorID, models.ActionCreateStudent, map[string]interface{}{
		"studentId":   student.ID,
		"studentCode": student.StudentID,
		"parentId":    student.ParentID,
	})
	return student, nil
}

// Update applies a partial student update.
func (s *StudentService) Update(ctx context.Context, id int64, patch models.StudentPatch, actorID int64) (*models.Student, error) {
	patch, err := validation.StudentPatch(patch)
	if err != nil {
		return nil, validationError(err, "invalid update student payload")
	}
	student, err := s.repo.UpdateStudent(ctx, id, patch)
	if err != nil {
		return nil, storageError(err, "student", "update student")
	}

	s.activity.Record(actorID, models.ActionUpdateStudent, map[string]interface{}{
		"studentId": student.ID,
		"fields":    patchFields(patch),
	})
	return student, nil
}

// Delete removes a student together with its assignments and absences.
func (s *StudentService) Delete(ctx context.Context, id int64, actorID int64) error {
	student, err := s.repo.GetStudent(ctx, id)
	if err != nil {
		return storageError(err, "student", "load student")
	}
	if err := s.repo.DeleteStudent(ctx, id); err != nil {
		return storageError(err, "student", "delete student")
	}

	s.activity.Record(actorID, models.ActionDeleteStudent, map[string]interface{}{
		"studentId":   student.ID,
		"studentCode": student.StudentID,
	})
	return nil
}
