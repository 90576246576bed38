package service

import (
	"context"
	"errors"
	"fmt"

	"manara/internal/model"
	"manara/internal/quiz"
	"manara/internal/repository"
)

var (
	// ErrForbidden is returned when the caller's role does not allow the operation
	ErrForbidden = errors.New("operation not allowed for this role")
	// ErrQuestionNotFound is returned when the question id does not exist
	ErrQuestionNotFound = errors.New("question not found")
)

// QuestionService manages the question bank. Mutations are restricted
// to admin and owner roles; students only ever see questions through
// their session, with the correct answer stripped.
type QuestionService struct {
	repo repository.QuestionRepo
}

// NewQuestionService creates a new question service
func NewQuestionService(repo repository.QuestionRepo) *QuestionService {
	return &QuestionService{repo: repo}
}

// List returns the full bank, answers included, for the admin editor
func (s *QuestionService) List(ctx context.Context, role model.Role) ([]model.Question, error) {
	if !role.CanEditQuestions() {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx)
}

// Create validates and stores a new question
func (s *QuestionService) Create(ctx context.Context, role model.Role, input *model.QuestionInput) (*model.Question, error) {
	if !role.CanEditQuestions() {
		return nil, ErrForbidden
	}
	if err := quiz.ValidateInput(input); err != nil {
		return nil, err
	}

	id, err := s.repo.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate question id: %w", err)
	}
	q := &model.Question{
		ID:            id,
		Prompt:        input.Prompt,
		Options:       input.Options,
		CorrectAnswer: input.CorrectAnswer,
		Code:          input.Code,
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return q, nil
}

// Update validates and replaces an existing question
func (s *QuestionService) Update(ctx context.Context, role model.Role, id int, input *model.QuestionInput) (*model.Question, error) {
	if !role.CanEditQuestions() {
		return nil, ErrForbidden
	}
	if err := quiz.ValidateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	if existing == nil {
		return nil, ErrQuestionNotFound
	}

	q := &model.Question{
		ID:            id,
		Prompt:        input.Prompt,
		Options:       input.Options,
		CorrectAnswer: input.CorrectAnswer,
		Code:          input.Code,
	}
	if err := s.repo.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	return q, nil
}

// Delete removes a question from the bank
func (s *QuestionService) Delete(ctx context.Context, role model.Role, id int) error {
	if !role.CanEditQuestions() {
		return ErrForbidden
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load question: %w", err)
	}
	if existing == nil {
		return ErrQuestionNotFound
	}
	return s.repo.Delete(ctx, id)
}

// Count returns the bank size for the dashboard
func (s *QuestionService) Count(ctx context.Context) (int, error) {
	bank, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(bank), nil
}
