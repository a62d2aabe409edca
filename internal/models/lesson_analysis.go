package models

import "time"

// AnalysisStatus tracks the peer-review lifecycle of a lesson analysis.
type AnalysisStatus string

const (
	AnalysisDraft    AnalysisStatus = "draft"
	AnalysisPending  AnalysisStatus = "pending"
	AnalysisApproved AnalysisStatus = "approved"
	AnalysisRejected AnalysisStatus = "rejected"
)

// Valid returns true when the status is a supported value.
func (s AnalysisStatus) Valid() bool {
	switch s {
	case AnalysisDraft, AnalysisPending, AnalysisApproved, AnalysisRejected:
		return true
	default:
		return false
	}
}

// LessonType categorises the observed lesson.
type LessonType string

const (
	LessonNew      LessonType = "new"
	LessonPractice LessonType = "practice"
	LessonReview   LessonType = "review"
	LessonExam     LessonType = "exam"
)

// Points credited when an analysis is approved.
const (
	AnalysisSubjectTeacherPoints = 5
	AnalysisAnalyzerPoints       = 10
)

// LessonAnalysis is a structured peer review of one teacher's lesson written
// by another. AnalyzerID authored the analysis; TeacherID taught the lesson.
// OverallRating is frozen at creation and never recomputed afterwards, even
// when the five sub-ratings change.
type LessonAnalysis struct {
	ID         string     `db:"id" json:"id"`
	AnalyzerID string     `db:"analyzer_id" json:"analyzer_id"`
	TeacherID  string     `db:"teacher_id" json:"teacher_id"`
	LessonDate time.Time  `db:"lesson_date" json:"lesson_date"`
	Subject    string     `db:"subject" json:"subject"`
	Grade      int        `db:"grade" json:"grade"`
	Topic      string     `db:"topic" json:"topic"`
	LessonType LessonType `db:"lesson_type" json:"lesson_type"`

	MethodologyRating int `db:"methodology_rating" json:"methodology_rating"`
	MaterialMastery   int `db:"material_mastery" json:"material_mastery"`
	StudentEngagement int `db:"student_engagement" json:"student_engagement"`
	TimeManagement    int `db:"time_management" json:"time_management"`
	TechnologyUse     int `db:"technology_use" json:"technology_use"`

	Achievements    string `db:"achievements" json:"achievements"`
	Weaknesses      string `db:"weaknesses" json:"weaknesses"`
	Recommendations string `db:"recommendations" json:"recommendations"`

	OverallRating   float64        `db:"overall_rating" json:"overall_rating"`
	Status          AnalysisStatus `db:"status" json:"status"`
	ApprovedAt      *time.Time     `db:"approved_at" json:"approved_at,omitempty"`
	RejectionReason string         `db:"rejection_reason" json:"rejection_reason"`
	Notes           string         `db:"notes" json:"notes"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ComputeOverallRating returns the unweighted mean of the five sub-ratings.
func (a *LessonAnalysis) ComputeOverallRating() float64 {
	total := a.MethodologyRating + a.MaterialMastery + a.StudentEngagement + a.TimeManagement + a.TechnologyUse
	return float64(total) / 5
}

// AnalysisComment is an append-only note attached to an analysis.
type AnalysisComment struct {
	ID         string    `db:"id" json:"id"`
	AnalysisID string    `db:"analysis_id" json:"analysis_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Comment    string    `db:"comment" json:"comment"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AnalysisFilter captures filtering criteria for listing analyses.
type AnalysisFilter struct {
	AnalyzerID    string
	TeacherID     string
	ParticipantID string
	Status        AnalysisStatus
	Page          int
	PageSize      int
}

// AnalysisStats aggregates analysis activity for a teacher or globally.
type AnalysisStats struct {
	TotalAnalyses    int     `db:"total_analyses" json:"total_analyses"`
	PendingAnalyses  int     `db:"pending_analyses" json:"pending_analyses"`
	ApprovedAnalyses int     `db:"approved_analyses" json:"approved_analyses"`
	AverageRating    float64 `db:"average_rating" json:"average_rating"`
	TotalGiven       int     `db:"total_given" json:"total_given"`
	TotalReceived    int     `db:"total_received" json:"total_received"`
}
