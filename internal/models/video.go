package models

import "time"

// Video is a recorded lesson uploaded by a teacher, pending moderation.
type Video struct {
	ID          string    `db:"id" json:"id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Subject     Subject   `db:"subject" json:"subject"`
	Grade       *int      `db:"grade" json:"grade,omitempty"`
	VideoURL    *string   `db:"video_url" json:"video_url,omitempty"`
	FilePath    *string   `db:"file_path" json:"file_path,omitempty"`
	Thumbnail   *string   `db:"thumbnail" json:"thumbnail,omitempty"`
	Duration    int       `db:"duration" json:"duration"`
	IsApproved  bool      `db:"is_approved" json:"is_approved"`
	Views       int       `db:"views" json:"views"`
	Likes       int       `db:"likes" json:"likes"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// VideoFilter captures filtering criteria for listing videos.
type VideoFilter struct {
	TeacherID  string
	Subject    Subject
	Grade      *int
	IsApproved *bool
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string

	DirectorUserID  string
	OwnOrApprovedBy string
}
