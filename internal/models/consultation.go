package models

import "time"

// ConsultationStatus tracks the mentoring request lifecycle.
type ConsultationStatus string

const (
	ConsultationPending   ConsultationStatus = "pending"
	ConsultationAccepted  ConsultationStatus = "accepted"
	ConsultationRejected  ConsultationStatus = "rejected"
	ConsultationCompleted ConsultationStatus = "completed"
)

// Valid returns true when the status is a supported value.
func (s ConsultationStatus) Valid() bool {
	switch s {
	case ConsultationPending, ConsultationAccepted, ConsultationRejected, ConsultationCompleted:
		return true
	default:
		return false
	}
}

// ConsultationType distinguishes online and in-person sessions.
type ConsultationType string

const (
	ConsultationOnline  ConsultationType = "online"
	ConsultationOffline ConsultationType = "offline"
)

// Points credited to the mentor when a consultation completes.
const ConsultationCompletionPoints = 5

// Consultation is a mentoring session between two teachers. TeacherID is the
// mentor receiving the request; StudentID is the requesting teacher.
type Consultation struct {
	ID          string             `db:"id" json:"id"`
	Title       string             `db:"title" json:"title"`
	Description string             `db:"description" json:"description"`
	TeacherID   string             `db:"teacher_id" json:"teacher_id"`
	StudentID   string             `db:"student_id" json:"student_id"`
	ScheduledAt time.Time          `db:"scheduled_at" json:"scheduled_at"`
	Duration    int                `db:"duration" json:"duration"`
	Type        ConsultationType   `db:"consultation_type" json:"consultation_type"`
	Location    string             `db:"location" json:"location"`
	MeetingURL  string             `db:"meeting_url" json:"meeting_url"`
	Status      ConsultationStatus `db:"status" json:"status"`
	Notes       string             `db:"notes" json:"notes"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
}

// ConsultationFilter captures filtering criteria for listing consultations.
type ConsultationFilter struct {
	ParticipantID string
	Status        ConsultationStatus
	Page          int
	PageSize      int
}
