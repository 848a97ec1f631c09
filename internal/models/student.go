package models

import "time"

// Student represents a learner who rides the school buses.
type Student struct {
	ID        int64     `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"studentId"`
	FirstName string    `db:"first_name" json:"firstName"`
	LastName  string    `db:"last_name" json:"lastName"`
	Grade     string    `db:"grade" json:"grade"`
	ParentID  *int64    `db:"parent_id" json:"parentId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStudent is the insertable shape of a student.
type NewStudent struct {
	StudentID string     `json:"studentId" validate:"required,max=50"`
	FirstName string     `json:"firstName" validate:"required,max=50"`
	LastName  string     `json:"lastName" validate:"required,max=50"`
	Grade     string     `json:"grade" validate:"required,max=20"`
	ParentID  OptionalID `json:"parentId"`
}

// StudentPatch carries a partial student update.
type StudentPatch struct {
	StudentID *string    `json:"studentId" validate:"omitempty,max=50"`
	FirstName *string    `json:"firstName" validate:"omitempty,max=50"`
	LastName  *string    `json:"lastName" validate:"omitempty,max=50"`
	Grade     *string    `json:"grade" validate:"omitempty,max=20"`
	ParentID  OptionalID `json:"parentId"`
}

// IsEmpty reports whether the patch changes nothing.
func (p StudentPatch) IsEmpty() bool {
	return p.StudentID == nil && p.FirstName == nil && p.LastName == nil &&
		p.Grade == nil && !p.ParentID.Set
}

// StudentFilter restricts student listings.
type StudentFilter struct {
	ParentID *int64
}
