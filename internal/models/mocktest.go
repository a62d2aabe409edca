package models

import "time"

// TestDifficulty grades mock tests.
type TestDifficulty string

const (
	DifficultyEasy   TestDifficulty = "easy"
	DifficultyMedium TestDifficulty = "medium"
	DifficultyHard   TestDifficulty = "hard"
)

// Valid returns true when the difficulty is a supported value.
func (d TestDifficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// MockTest is a timed multiple-choice assessment for teachers.
type MockTest struct {
	ID             string         `db:"id" json:"id"`
	Title          string         `db:"title" json:"title"`
	Subject        Subject        `db:"subject" json:"subject"`
	Difficulty     TestDifficulty `db:"difficulty" json:"difficulty"`
	Duration       int            `db:"duration" json:"duration"`
	PassingScore   int            `db:"passing_score" json:"passing_score"`
	QuestionsCount int            `db:"questions_count" json:"questions_count"`
	Description    string         `db:"description" json:"description"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// Question is one ordered multiple-choice item of a mock test.
type Question struct {
	ID            string `db:"id" json:"id"`
	TestID        string `db:"test_id" json:"test_id"`
	QuestionText  string `db:"question_text" json:"question_text"`
	OptionA       string `db:"option_a" json:"option_a"`
	OptionB       string `db:"option_b" json:"option_b"`
	OptionC       string `db:"option_c" json:"option_c"`
	OptionD       string `db:"option_d" json:"option_d"`
	CorrectAnswer string `db:"correct_answer" json:"-"`
	Explanation   string `db:"explanation" json:"explanation,omitempty"`
	Order         int    `db:"question_order" json:"order"`
}

// AnswerKey exposes the correct answer; used only in post-submission review
// and admin exports.
type AnswerKey struct {
	QuestionID    string `json:"question_id"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation,omitempty"`
}

// TestAttempt records one immutable submission of a mock test.
type TestAttempt struct {
	ID             string            `db:"id" json:"id"`
	UserID         string            `db:"user_id" json:"user_id"`
	TestID         string            `db:"test_id" json:"test_id"`
	Score          int               `db:"score" json:"score"`
	CorrectAnswers int               `db:"correct_answers" json:"correct_answers"`
	WrongAnswers   int               `db:"wrong_answers" json:"wrong_answers"`
	TotalQuestions int               `db:"total_questions" json:"total_questions"`
	TimeSpent      int               `db:"time_spent" json:"time_spent"`
	Passed         bool              `db:"passed" json:"passed"`
	Answers        map[string]string `db:"-" json:"answers"`
	RawAnswers     []byte            `db:"answers" json:"-"`
	StartedAt      time.Time         `db:"started_at" json:"started_at"`
	CompletedAt    time.Time         `db:"completed_at" json:"completed_at"`
}

// MockTestFilter captures filtering criteria for listing tests.
type MockTestFilter struct {
	Subject    Subject
	Difficulty TestDifficulty
	Page       int
	PageSize   int
}
