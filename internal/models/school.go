package models

import "time"

// School groups teachers under a director who moderates their submissions.
type School struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Address        string    `db:"address" json:"address"`
	Region         string    `db:"region" json:"region"`
	District       string    `db:"district" json:"district"`
	DirectorUserID *string   `db:"director_user_id" json:"director_user_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// SchoolFilter captures filtering criteria for listing schools.
type SchoolFilter struct {
	Region   string
	Search   string
	Page     int
	PageSize int
}
