package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/biletnik/biletnik-backend/internal/model"
	"github.com/rs/zerolog"
)

type fakeStore struct {
	mu       sync.Mutex
	subjects []model.Subject
	works    []model.ExamAttempt
	saveErr  error
}

func (f *fakeStore) Subjects(ctx context.Context) []model.Subject {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Subject, len(f.subjects))
	for i, s := range f.subjects {
		out[i] = model.Subject{Name: s.Name, Questions: append([]string(nil), s.Questions...)}
	}
	return out
}

func (f *fakeStore) SaveSubjects(ctx context.Context, subjects []model.Subject) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.subjects = subjects
	return nil
}

func (f *fakeStore) Works(ctx context.Context) []model.ExamAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ExamAttempt(nil), f.works...)
}

func (f *fakeStore) SaveWorks(ctx context.Context, works []model.ExamAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.works = works
	return nil
}

func TestCreateSubject(t *testing.T) {
	store := &fakeStore{}
	svc := NewSubjectService(store, zerolog.Nop())

	subject, err := svc.Create(context.Background(), "Math")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if subject.Name != "Math" || len(subject.Questions) != 0 {
		t.Errorf("subject = %+v", subject)
	}
	if len(store.subjects) != 1 {
		t.Fatalf("subjects = %d, want 1", len(store.subjects))
	}
}

func TestCreateSubjectRejectsDuplicateCaseInsensitive(t *testing.T) {
	store := &fakeStore{subjects: []model.Subject{{Name: "math", Questions: []string{}}}}
	svc := NewSubjectService(store, zerolog.Nop())

	if _, err := svc.Create(context.Background(), "Math"); !errors.Is(err, ErrSubjectExists) {
		t.Fatalf("err = %v, want ErrSubjectExists", err)
	}
	if len(store.subjects) != 1 {
		t.Errorf("duplicate was saved")
	}
}

func TestAddQuestion(t *testing.T) {
	store := &fakeStore{subjects: []model.Subject{{Name: "Math", Questions: []string{"Q1"}}}}
	svc := NewSubjectService(store, zerolog.Nop())

	if err := svc.AddQuestion(context.Background(), 0, "Q2"); err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if got := store.subjects[0].Questions; len(got) != 2 || got[1] != "Q2" {
		t.Errorf("questions = %#v", got)
	}

	if err := svc.AddQuestion(context.Background(), 3, "Q"); !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("stale index err = %v, want ErrSubjectNotFound", err)
	}
}

func TestDeleteSubject(t *testing.T) {
	store := &fakeStore{subjects: []model.Subject{
		{Name: "Math", Questions: []string{"Q1"}},
		{Name: "Physics", Questions: []string{"P1"}},
	}}
	svc := NewSubjectService(store, zerolog.Nop())

	if err := svc.Delete(context.Background(), 0); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.subjects) != 1 || store.subjects[0].Name != "Physics" {
		t.Errorf("subjects = %+v", store.subjects)
	}

	if err := svc.Delete(context.Background(), 5); !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("stale index err = %v", err)
	}
}

func TestDeleteQuestion(t *testing.T) {
	store := &fakeStore{subjects: []model.Subject{{Name: "Math", Questions: []string{"Q1", "Q2", "Q3"}}}}
	svc := NewSubjectService(store, zerolog.Nop())

	if err := svc.DeleteQuestion(context.Background(), 0, 1); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	if got := store.subjects[0].Questions; len(got) != 2 || got[0] != "Q1" || got[1] != "Q3" {
		t.Errorf("questions = %#v", got)
	}

	if err := svc.DeleteQuestion(context.Background(), 0, 9); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("stale question err = %v", err)
	}
}
