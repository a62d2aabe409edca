package models

import "time"

// TeacherRating is a monthly leaderboard snapshot for one teacher.
type TeacherRating struct {
	ID          string    `db:"id" json:"id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	Month       time.Time `db:"month" json:"month"`
	TotalPoints int       `db:"total_points" json:"total_points"`
	Rank        int       `db:"rank" json:"rank"`
}

// TeacherLeaderboardEntry is one live leaderboard row.
type TeacherLeaderboardEntry struct {
	TeacherID     string       `db:"teacher_id" json:"teacher_id"`
	FullName      string       `db:"full_name" json:"full_name"`
	SchoolName    string       `db:"school_name" json:"school_name"`
	Subject       Subject      `db:"subject" json:"subject"`
	Level         TeacherLevel `db:"level" json:"level"`
	TotalPoints   int          `db:"total_points" json:"total_points"`
	MonthlyPoints int          `db:"monthly_points" json:"monthly_points"`
	Rank          int          `db:"rank" json:"rank"`
}

// SchoolLeaderboardEntry is one live school leaderboard row.
type SchoolLeaderboardEntry struct {
	SchoolID      string `db:"school_id" json:"school_id"`
	Name          string `db:"name" json:"name"`
	Region        string `db:"region" json:"region"`
	TotalPoints   int    `db:"total_points" json:"total_points"`
	TeachersCount int    `db:"teachers_count" json:"teachers_count"`
	Rank          int    `db:"rank" json:"rank"`
}

// SchoolRating is a monthly leaderboard snapshot for one school.
type SchoolRating struct {
	ID            string    `db:"id" json:"id"`
	SchoolID      string    `db:"school_id" json:"school_id"`
	Month         time.Time `db:"month" json:"month"`
	TotalPoints   int       `db:"total_points" json:"total_points"`
	Rank          int       `db:"rank" json:"rank"`
	TeachersCount int       `db:"teachers_count" json:"teachers_count"`
}
