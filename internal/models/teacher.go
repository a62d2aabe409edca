package models

import "time"

// TeacherLevel is the derived tier computed purely from lifetime points.
type TeacherLevel string

const (
	LevelTeacher   TeacherLevel = "teacher"
	LevelAssistant TeacherLevel = "assistant"
	LevelExpert    TeacherLevel = "expert"
)

// Level thresholds on total lifetime points.
const (
	AssistantThreshold = 500
	ExpertThreshold    = 1000
)

// LevelForPoints maps a lifetime point total to its threshold bucket. This is
// the only place a teacher level is ever derived; levels are never assigned
// independently.
func LevelForPoints(totalPoints int) TeacherLevel {
	switch {
	case totalPoints >= ExpertThreshold:
		return LevelExpert
	case totalPoints >= AssistantThreshold:
		return LevelAssistant
	default:
		return LevelTeacher
	}
}

// Subject identifies the discipline a teacher or artifact belongs to.
type Subject string

const (
	SubjectMath       Subject = "math"
	SubjectPhysics    Subject = "physics"
	SubjectChemistry  Subject = "chemistry"
	SubjectBiology    Subject = "biology"
	SubjectHistory    Subject = "history"
	SubjectLiterature Subject = "literature"
	SubjectEnglish    Subject = "english"
	SubjectRussian    Subject = "russian"
	SubjectIT         Subject = "it"
	SubjectOther      Subject = "other"
)

// Valid returns true when the subject is a supported value.
func (s Subject) Valid() bool {
	switch s {
	case SubjectMath, SubjectPhysics, SubjectChemistry, SubjectBiology,
		SubjectHistory, SubjectLiterature, SubjectEnglish, SubjectRussian,
		SubjectIT, SubjectOther:
		return true
	default:
		return false
	}
}

// Teacher is a profile record wrapping a user identity with accumulated
// points and a derived level.
type Teacher struct {
	ID            string       `db:"id" json:"id"`
	UserID        string       `db:"user_id" json:"user_id"`
	SchoolID      string       `db:"school_id" json:"school_id"`
	Subject       Subject      `db:"subject" json:"subject"`
	Level         TeacherLevel `db:"level" json:"level"`
	TotalPoints   int          `db:"total_points" json:"total_points"`
	MonthlyPoints int          `db:"monthly_points" json:"monthly_points"`
	Bio           string       `db:"bio" json:"bio"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering criteria for listing teachers.
type TeacherFilter struct {
	SchoolID  string
	Subject   Subject
	Level     TeacherLevel
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ActivityType categorises teacher activity log entries.
type ActivityType string

const (
	ActivityMaterial     ActivityType = "material"
	ActivityVideo        ActivityType = "video"
	ActivityConsultation ActivityType = "consultation"
	ActivityAnalysis     ActivityType = "analysis"
	ActivityOther        ActivityType = "other"
)

// TeacherActivity is an append-only log of a teacher's contributions and the
// points each one earned.
type TeacherActivity struct {
	ID           string       `db:"id" json:"id"`
	TeacherID    string       `db:"teacher_id" json:"teacher_id"`
	ActivityType ActivityType `db:"activity_type" json:"activity_type"`
	Title        string       `db:"title" json:"title"`
	Description  string       `db:"description" json:"description"`
	Points       int          `db:"points" json:"points"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}
