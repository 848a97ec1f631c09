package models

import "time"

// RoundType distinguishes morning pick-ups from afternoon drop-offs.
type RoundType string

const (
	RoundMorning   RoundType = "morning"
	RoundAfternoon RoundType = "afternoon"
)

// RoundStatus is the lifecycle state of a bus round.
type RoundStatus string

const (
	RoundPending    RoundStatus = "pending"
	RoundInProgress RoundStatus = "in_progress"
	RoundCompleted  RoundStatus = "completed"
)

// BusRound is a scheduled bus trip with an ordered list of students.
type BusRound struct {
	ID        int64       `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	Type      RoundType   `db:"type" json:"type"`
	StartTime string      `db:"start_time" json:"startTime"`
	EndTime   string      `db:"end_time" json:"endTime"`
	BusID     *int64      `db:"bus_id" json:"busId"`
	Status    RoundStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
}

// NewBusRound is the insertable shape of a bus round.
type NewBusRound struct {
	Name      string      `json:"name" validate:"required,max=100"`
	Type      RoundType   `json:"type" validate:"required,oneof=morning afternoon"`
	StartTime string      `json:"startTime" validate:"required"`
	EndTime   string      `json:"endTime" validate:"required"`
	BusID     OptionalID  `json:"busId"`
	Status    RoundStatus `json:"status" validate:"required,oneof=pending in_progress completed"`
}

// BusRoundPatch carries a partial round update.
type BusRoundPatch struct {
	Name      *string      `json:"name" validate:"omitempty,max=100"`
	Type      *RoundType   `json:"type" validate:"omitempty,oneof=morning afternoon"`
	StartTime *string      `json:"startTime"`
	EndTime   *string      `json:"endTime"`
	BusID     OptionalID   `json:"busId"`
	Status    *RoundStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
}

// IsEmpty reports whether the patch changes nothing.
func (p BusRoundPatch) IsEmpty() bool {
	return p.Name == nil && p.Type == nil && p.StartTime == nil && p.EndTime == nil &&
		!p.BusID.Set && p.Status == nil
}

// BusRoundFilter restricts round listings.
type BusRoundFilter struct {
	Status *RoundStatus
	BusID  *int64
}

// RoundStudent assigns a student to a round at a given position.
type RoundStudent struct {
	ID        int64     `db:"id" json:"id"`
	RoundID   *int64    `db:"round_id" json:"roundId"`
	StudentID *int64    `db:"student_id" json:"studentId"`
	Order     int       `db:"order" json:"order"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewRoundStudent is the insertable shape of a round assignment.
type NewRoundStudent struct {
	RoundID   int64 `json:"roundId" validate:"required,gt=0"`
	StudentID int64 `json:"studentId" validate:"required,gt=0"`
	Order     *int  `json:"order" validate:"required,gte=0"`
}
