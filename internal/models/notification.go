package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// NotificationType enumerates the message kinds shown to parents and staff.
type NotificationType string

const (
	NotificationArrival        NotificationType = "arrival"
	NotificationWillArrive     NotificationType = "will_arrive"
	NotificationDelay          NotificationType = "delay"
	NotificationRoundStarted   NotificationType = "round_started"
	NotificationRoundCompleted NotificationType = "round_completed"
	NotificationAbsent         NotificationType = "absent"
	NotificationStudentOnBus   NotificationType = "student_on_bus"
	NotificationStudentOffBus  NotificationType = "student_off_bus"
	NotificationGeneral        NotificationType = "general"
)

// Notification is a message optionally tied to a round, bus, student and users.
type Notification struct {
	ID          int64            `db:"id" json:"id"`
	Type        NotificationType `db:"type" json:"type"`
	Message     string           `db:"message" json:"message"`
	RoundID     *int64           `db:"round_id" json:"roundId"`
	BusID       *int64           `db:"bus_id" json:"busId"`
	StudentID   *int64           `db:"student_id" json:"studentId"`
	SenderID    *int64           `db:"sender_id" json:"senderId"`
	RecipientID *int64           `db:"recipient_id" json:"recipientId"`
	Timestamp   time.Time        `db:"timestamp" json:"timestamp"`
}

// NewNotification is the insertable shape of a notification.
type NewNotification struct {
	Type        NotificationType `json:"type" validate:"required,oneof=arrival will_arrive delay round_started round_completed absent student_on_bus student_off_bus general"`
	Message     string           `json:"message" validate:"required"`
	RoundID     OptionalID       `json:"roundId"`
	BusID       OptionalID       `json:"busId"`
	StudentID   OptionalID       `json:"studentId"`
	SenderID    OptionalID       `json:"senderId"`
	RecipientID OptionalID       `json:"recipientId"`
}

// NotificationFilter restricts notification listings.
type NotificationFilter struct {
	RecipientID *int64
	Type        *NotificationType
	Limit       int
}

// Absence is a reported absence of a student on a given day.
type Absence struct {
	ID         int64     `db:"id" json:"id"`
	StudentID  *int64    `db:"student_id" json:"studentId"`
	Date       string    `db:"date" json:"date"`
	Reason     *string   `db:"reason" json:"reason"`
	ReportedBy *int64    `db:"reported_by" json:"reportedBy"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// NewAbsence is the insertable shape of an absence.
type NewAbsence struct {
	StudentID  int64      `json:"studentId" validate:"required,gt=0"`
	Date       string     `json:"date" validate:"required,datetime=2006-01-02"`
	Reason     *string    `json:"reason"`
	ReportedBy OptionalID `json:"reportedBy"`
}

// AbsenceFilter restricts absence listings.
type AbsenceFilter struct {
	StudentID *int64
	Date      string
}

// Activity log action constants.
const (
	ActionLogin            = "LOGIN"
	ActionCreateUser       = "CREATE_USER"
	ActionUpdateUser       = "UPDATE_USER"
	ActionDeleteUser       = "DELETE_USER"
	ActionCreateStudent    = "CREATE_STUDENT"
	ActionUpdateStudent    = "UPDATE_STUDENT"
	ActionDeleteStudent    = "DELETE_STUDENT"
	ActionCreateBus        = "CREATE_BUS"
	ActionUpdateBus        = "UPDATE_BUS"
	ActionDeleteBus        = "DELETE_BUS"
	ActionCreateBusRound   = "CREATE_BUS_ROUND"
	ActionUpdateBusRound   = "UPDATE_BUS_ROUND"
	ActionDeleteBusRound   = "DELETE_BUS_ROUND"
	ActionStartBusRound    = "START_BUS_ROUND"
	ActionStopBusRound     = "STOP_BUS_ROUND"
	ActionAssignStudent    = "ASSIGN_STUDENT_TO_ROUND"
	ActionRemoveStudent    = "REMOVE_STUDENT_FROM_ROUND"
	ActionRecordLocation   = "RECORD_LOCATION"
	ActionSendNotification = "SEND_NOTIFICATION"
	ActionRecordAbsence    = "RECORD_ABSENCE"
	ActionUnknown          = "UNKNOWN_ACTION"
)

// ActivityLog is an append-only audit trail entry.
type ActivityLog struct {
	ID        int64          `db:"id" json:"id"`
	Action    string         `db:"action" json:"action"`
	Details   types.JSONText `db:"details" json:"details"`
	UserID    *int64         `db:"user_id" json:"userId"`
	Timestamp time.Time      `db:"timestamp" json:"timestamp"`
}

// NewActivityLog is the insertable shape of an activity log entry.
type NewActivityLog struct {
	Action  string         `json:"action" validate:"required"`
	Details types.JSONText `json:"details"`
	UserID  *int64         `json:"userId"`
}

// ActivityLogFilter restricts activity log listings.
type ActivityLogFilter struct {
	UserID *int64
	Action string
	Limit  int
}

// DashboardStats aggregates the headline counters of the admin dashboard.
type DashboardStats struct {
	TotalStudents       int            `json:"totalStudents"`
	TotalParents        int            `json:"totalParents"`
	TotalDrivers        int            `json:"totalDrivers"`
	TotalBuses          int            `json:"totalBuses"`
	ActiveRounds        int            `json:"activeRounds"`
	RecentNotifications []Notification `json:"recentNotifications"`
}
