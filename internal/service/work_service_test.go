package service

import (
	"context"
	"errors"
	"testing"

	"github.com/biletnik/biletnik-backend/internal/model"
	"github.com/rs/zerolog"
)

func sampleWorks() []model.ExamAttempt {
	return []model.ExamAttempt{
		{ID: "1-1", FIO: "Иванов", Group: "ИС-21", Institute: "ИКТ", Discipline: "Математика", Submitted: true},
		{ID: "2-2", FIO: "Петров", Group: "ЭК-11", Institute: "Экономика", Discipline: "Статистика", Submitted: true, Grade: "8"},
		{ID: "3-3", FIO: "Сидоров", Group: "ИС-22", Institute: "ИКТ", Discipline: "Физика", Submitted: false},
	}
}

func TestListFiltersByInstitute(t *testing.T) {
	store := &fakeStore{works: sampleWorks()}
	svc := NewWorkService(store, zerolog.Nop())

	all := svc.List(context.Background(), "")
	if len(all) != 3 {
		t.Fatalf("unfiltered = %d, want 3", len(all))
	}

	ikt := svc.List(context.Background(), "ИКТ")
	if len(ikt) != 2 {
		t.Fatalf("filtered = %d, want 2", len(ikt))
	}
	for _, w := range ikt {
		if w.Institute != "ИКТ" {
			t.Errorf("institute = %q", w.Institute)
		}
	}
}

func TestForReviewHidesNamesAndKeepsIndices(t *testing.T) {
	store := &fakeStore{works: sampleWorks()}
	svc := NewWorkService(store, zerolog.Nop())

	review := svc.ForReview(context.Background(), "ИКТ")
	if len(review) != 2 {
		t.Fatalf("review = %d, want 2", len(review))
	}
	for _, w := range review {
		if w.FIO != "" {
			t.Errorf("fio leaked to reviewer: %q", w.FIO)
		}
	}
	// Indices must point into the unfiltered document.
	if review[0].Index != 0 || review[1].Index != 2 {
		t.Errorf("indices = %d, %d", review[0].Index, review[1].Index)
	}
}

func TestSaveGrade(t *testing.T) {
	store := &fakeStore{works: sampleWorks()}
	svc := NewWorkService(store, zerolog.Nop())

	if err := svc.SaveGrade(context.Background(), 0, "9", "хорошо"); err != nil {
		t.Fatalf("SaveGrade: %v", err)
	}
	if store.works[0].Grade != "9" || store.works[0].Comment != "хорошо" {
		t.Errorf("work = %+v", store.works[0])
	}
	// Other fields stay untouched.
	if store.works[0].FIO != "Иванов" || !store.works[0].Submitted {
		t.Errorf("grading mutated unrelated fields: %+v", store.works[0])
	}
}

func TestSaveGradeEmptyClearsToNull(t *testing.T) {
	store := &fakeStore{works: sampleWorks()}
	svc := NewWorkService(store, zerolog.Nop())

	if err := svc.SaveGrade(context.Background(), 1, "", ""); err != nil {
		t.Fatalf("SaveGrade: %v", err)
	}
	if store.works[1].Grade != nil {
		t.Errorf("grade = %v, want nil", store.works[1].Grade)
	}
}

func TestSaveGradeStaleIndex(t *testing.T) {
	store := &fakeStore{works: sampleWorks()}
	svc := NewWorkService(store, zerolog.Nop())

	if err := svc.SaveGrade(context.Background(), 10, "5", ""); !errors.Is(err, ErrWorkNotFound) {
		t.Fatalf("err = %v, want ErrWorkNotFound", err)
	}
}

func TestDeleteMany(t *testing.T) {
	store := &fakeStore{works: sampleWorks()}
	svc := NewWorkService(store, zerolog.Nop())

	// Ascending input must still delete the right records.
	deleted, err := svc.DeleteMany(context.Background(), []int{0, 2})
	if err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	if len(store.works) != 1 || store.works[0].ID != "2-2" {
		t.Errorf("remaining = %+v", store.works)
	}
}

func TestDeleteManyEmptySelection(t *testing.T) {
	store := &fakeStore{works: sampleWorks()}
	svc := NewWorkService(store, zerolog.Nop())

	if _, err := svc.DeleteMany(context.Background(), nil); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}
	if len(store.works) != 3 {
		t.Errorf("works mutated on empty selection")
	}
}

func TestDeleteManyIgnoresDuplicatesAndStaleIndices(t *testing.T) {
	store := &fakeStore{works: sampleWorks()}
	svc := NewWorkService(store, zerolog.Nop())

	deleted, err := svc.DeleteMany(context.Background(), []int{1, 1, 99})
	if err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if len(store.works) != 2 {
		t.Errorf("remaining = %d, want 2", len(store.works))
	}
}
