package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/internal/validation"
)

type absenceRepository interface {
	RecordAbsence(ctx context.Context, in models.NewAbsence) (*models.Absence, error)
	ListAbsences(ctx context.Context, filter models.AbsenceFilter) ([]models.Absence, error)
}

// AbsenceService records student absences. Repeated reports for the same
// student and day are kept as separate records.
type AbsenceService struct {
	repo     absenceRepository
	activity activityRecorder
	logger   *zap.Logger
}

// NewAbsenceService constructs an AbsenceService.
func NewAbsenceService(repo absenceRepository, activity activityRecorder, logger *zap.Logger) *AbsenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if activity == nil {
		activity = noopRecorder{}
	}
	return &AbsenceService{repo: repo, activity: activity, logger: logger}
}

// List returns absences filtered by student and date.
func (s *AbsenceService) List(ctx context.Context, filter models.AbsenceFilter) ([]models.Absence, error) {
	absences, err := s.repo.ListAbsences(ctx, filter)
	if err != nil {
		return nil, storageError(err, "absence", "list absences")
	}
	return absences, nil
}

// Record stores an absence, attributing it to the acting user unless the
// payload names a reporter.
func (s *AbsenceService) Record(ctx context.Context, in models.NewAbsence, actorID int64) (*models.Absence, error) {
	if !in.ReportedBy.Set {
		in.ReportedBy = actorRef(actorID)
	}
	in, err := validation.NewAbsence(in)
	if err != nil {
		return nil, validationError(err, "invalid absence payload")
	}
	absence, err := s.repo.RecordAbsence(ctx, in)
	if err != nil {
		return nil, storageError(err, "absence", "record absence")
	}

	s.activity.Record(actorID, models.ActionRecordAbsence, map[string]interface{}{
		"absenceId": absence.ID,
		"studentId": absence.StudentID,
		"date":      absence.Date,
	})
	return absence, nil
}
