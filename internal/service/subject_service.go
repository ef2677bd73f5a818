package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/biletnik/biletnik-backend/internal/model"
	"github.com/rs/zerolog"
)

// Domain Errors
var (
	ErrSubjectExists    = errors.New("subject with this name already exists")
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrQuestionNotFound = errors.New("question not found")
)

// Store is the document access the admin and reviewer services need. The
// subjects and examWorks documents are read and written wholesale;
// concurrent edits are last-writer-wins.
type Store interface {
	Subjects(ctx context.Context) []model.Subject
	SaveSubjects(ctx context.Context, subjects []model.Subject) error
	Works(ctx context.Context) []model.ExamAttempt
	SaveWorks(ctx context.Context, works []model.ExamAttempt) error
}

// SubjectService handles the admin subject and question pool CRUD. Entries
// are addressed by index into the shared document, matching how existing
// renderers reference them.
type SubjectService struct {
	store Store
	log   zerolog.Logger
}

// NewSubjectService creates a new SubjectService.
func NewSubjectService(store Store, log zerolog.Logger) *SubjectService {
	return &SubjectService{
		store: store,
		log:   log.With().Str("component", "subject_service").Logger(),
	}
}

// List returns all subjects.
func (s *SubjectService) List(ctx context.Context) []model.Subject {
	return s.store.Subjects(ctx)
}

// Create appends a new subject with an empty question pool. Duplicate names
// are rejected case-insensitively.
func (s *SubjectService) Create(ctx context.Context, name string) (*model.Subject, error) {
	name = strings.TrimSpace(name)
	subjects := s.store.Subjects(ctx)
	for _, existing := range subjects {
		if strings.EqualFold(existing.Name, name) {
			return nil, ErrSubjectExists
		}
	}

	subject := model.Subject{Name: name, Questions: []string{}}
	subjects = append(subjects, subject)
	if err := s.store.SaveSubjects(ctx, subjects); err != nil {
		return nil, fmt.Errorf("save subjects: %w", err)
	}

	s.log.Info().Str("subject", name).Msg("Subject created")
	return &subject, nil
}

// AddQuestion appends a question to the subject at the given index.
func (s *SubjectService) AddQuestion(ctx context.Context, subjectIndex int, text string) error {
	subjects := s.store.Subjects(ctx)
	if subjectIndex < 0 || subjectIndex >= len(subjects) {
		return ErrSubjectNotFound
	}

	subjects[subjectIndex].Questions = append(subjects[subjectIndex].Questions, strings.TrimSpace(text))
	if err := s.store.SaveSubjects(ctx, subjects); err != nil {
		return fmt.Errorf("save subjects: %w", err)
	}
	return nil
}

// Delete removes the subject at the given index together with its questions.
func (s *SubjectService) Delete(ctx context.Context, subjectIndex int) error {
	subjects := s.store.Subjects(ctx)
	if subjectIndex < 0 || subjectIndex >= len(subjects) {
		return ErrSubjectNotFound
	}

	subjects = append(subjects[:subjectIndex], subjects[subjectIndex+1:]...)
	if err := s.store.SaveSubjects(ctx, subjects); err != nil {
		return fmt.Errorf("save subjects: %w", err)
	}

	s.log.Info().Int("index", subjectIndex).Msg("Subject deleted")
	return nil
}

// DeleteQuestion removes one question from a subject's pool.
func (s *SubjectService) DeleteQuestion(ctx context.Context, subjectIndex, questionIndex int) error {
	subjects := s.store.Subjects(ctx)
	if subjectIndex < 0 || subjectIndex >= len(subjects) {
		return ErrSubjectNotFound
	}
	questions := subjects[subjectIndex].Questions
	if questionIndex < 0 || questionIndex >= len(questions) {
		return ErrQuestionNotFound
	}

	subjects[subjectIndex].Questions = append(questions[:questionIndex], questions[questionIndex+1:]...)
	if err := s.store.SaveSubjects(ctx, subjects); err != nil {
		return fmt.Errorf("save subjects: %w", err)
	}
	return nil
}
