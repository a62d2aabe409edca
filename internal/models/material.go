package models

import "time"

// Points credited to the owning teacher when a submission is approved.
const (
	MaterialApprovalPoints = 10
	VideoApprovalPoints    = 15
)

// Material is a lesson material uploaded by a teacher, pending moderation.
type Material struct {
	ID          string    `db:"id" json:"id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Subject     Subject   `db:"subject" json:"subject"`
	Grade       *int      `db:"grade" json:"grade,omitempty"`
	FilePath    string    `db:"file_path" json:"file_path"`
	IsApproved  bool      `db:"is_approved" json:"is_approved"`
	Views       int       `db:"views" json:"views"`
	Downloads   int       `db:"downloads" json:"downloads"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// MaterialFilter captures filtering criteria for listing materials.
type MaterialFilter struct {
	TeacherID     string
	SchoolID      string
	Subject       Subject
	Grade         *int
	IsApproved    *bool
	Search        string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string

	// Visibility scoping resolved from the caller's role.
	DirectorUserID  string
	OwnOrApprovedBy string
}
