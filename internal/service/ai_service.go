package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edu-monitoring/api/internal/models"
	appErrors "github.com/edu-monitoring/api/pkg/errors"
)

type textGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

const assistantSystemPrompt = "You are a teaching assistant for school teachers. " +
	"Answer in the language of the request. Be concrete and practical; " +
	"structure lesson plans with objectives, timing, activities and assessment."

// LessonPlanRequest describes a lesson-plan generation request.
type LessonPlanRequest struct {
	Subject  models.Subject `json:"subject" validate:"required"`
	Grade    int            `json:"grade" validate:"required,min=1,max=11"`
	Topic    string         `json:"topic" validate:"required"`
	Duration int            `json:"duration" validate:"omitempty,min=15,max=180"`
	Notes    string         `json:"notes"`
}

// QuizRequest describes a quiz generation request.
type QuizRequest struct {
	Subject       models.Subject `json:"subject" validate:"required"`
	Grade         int            `json:"grade" validate:"required,min=1,max=11"`
	Topic         string         `json:"topic" validate:"required"`
	QuestionCount int            `json:"question_count" validate:"required,min=3,max=30"`
}

// AssistantReply wraps generated text.
type AssistantReply struct {
	Content string `json:"content"`
}

// AIService proxies teacher requests to the generative-text collaborator.
// Failures after the client has exhausted its model fallback chain surface
// as upstream errors with the underlying message attached.
type AIService struct {
	generator textGenerator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAIService constructs AIService.
func NewAIService(generator textGenerator, validate *validator.Validate, logger *zap.Logger) *AIService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AIService{generator: generator, validator: validate, logger: logger}
}

// GenerateLessonPlan produces a structured lesson plan for the given topic.
func (s *AIService) GenerateLessonPlan(ctx context.Context, req LessonPlanRequest) (*AssistantReply, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson plan payload")
	}
	duration := req.Duration
	if duration == 0 {
		duration = 45
	}
	prompt := fmt.Sprintf("Write a %d-minute lesson plan for grade %d on the topic %q (subject: %s).", duration, req.Grade, req.Topic, req.Subject)
	if req.Notes != "" {
		prompt += " Additional requirements: " + req.Notes
	}
	return s.generate(ctx, prompt)
}

// GenerateQuiz produces a multiple-choice quiz with an answer key.
func (s *AIService) GenerateQuiz(ctx context.Context, req QuizRequest) (*AssistantReply, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quiz payload")
	}
	prompt := fmt.Sprintf("Create a quiz of %d multiple-choice questions (options A-D, one correct) for grade %d on the topic %q (subject: %s). End with an answer key.",
		req.QuestionCount, req.Grade, req.Topic, req.Subject)
	return s.generate(ctx, prompt)
}

// Ask forwards a free-form teaching question.
func (s *AIService) Ask(ctx context.Context, question string) (*AssistantReply, error) {
	if question == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "question is required")
	}
	return s.generate(ctx, question)
}

func (s *AIService) generate(ctx context.Context, prompt string) (*AssistantReply, error) {
	content, err := s.generator.Generate(ctx, assistantSystemPrompt, prompt)
	if err != nil {
		s.logger.Error("assistant generation failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("assistant unavailable: %v", err))
	}
	return &AssistantReply{Content: content}, nil
}
