package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/biletnik/biletnik-backend/internal/model"
	"github.com/rs/zerolog"
)

var (
	ErrWorkNotFound = errors.New("work not found")
	ErrNoSelection  = errors.New("no works selected")
)

// ReviewWork is an exam work prepared for anonymous grading: the student
// name is blanked, and Index carries the work's position in the full
// examWorks document so a grade lands on the right record even when the
// reviewer's list is filtered.
type ReviewWork struct {
	Index int `json:"index"`
	model.ExamAttempt
}

// WorkService handles the admin table and the reviewer grading queue over
// the examWorks document.
type WorkService struct {
	store Store
	log   zerolog.Logger
}

// NewWorkService creates a new WorkService.
func NewWorkService(store Store, log zerolog.Logger) *WorkService {
	return &WorkService{
		store: store,
		log:   log.With().Str("component", "work_service").Logger(),
	}
}

// List returns all works, optionally filtered by institute.
func (s *WorkService) List(ctx context.Context, institute string) []model.ExamAttempt {
	works := s.store.Works(ctx)
	if institute == "" {
		return works
	}

	filtered := make([]model.ExamAttempt, 0, len(works))
	for _, w := range works {
		if w.Institute == institute {
			filtered = append(filtered, w)
		}
	}
	return filtered
}

// ForReview returns works for anonymous grading, optionally filtered by
// institute, with student names hidden.
func (s *WorkService) ForReview(ctx context.Context, institute string) []ReviewWork {
	works := s.store.Works(ctx)
	review := make([]ReviewWork, 0, len(works))
	for i, w := range works {
		if institute != "" && w.Institute != institute {
			continue
		}
		w.FIO = ""
		review = append(review, ReviewWork{Index: i, ExamAttempt: w})
	}
	return review
}

// SaveGrade sets the grade and comment of the work at the given index. An
// empty grade clears it back to null, as the source data encodes ungraded.
// Everything else on the record stays untouched.
func (s *WorkService) SaveGrade(ctx context.Context, index int, grade, comment string) error {
	works := s.store.Works(ctx)
	if index < 0 || index >= len(works) {
		return ErrWorkNotFound
	}

	if grade == "" {
		works[index].Grade = nil
	} else {
		works[index].Grade = grade
	}
	works[index].Comment = comment

	if err := s.store.SaveWorks(ctx, works); err != nil {
		return fmt.Errorf("save works: %w", err)
	}

	s.log.Info().Int("index", index).Str("grade", grade).Msg("Grade saved")
	return nil
}

// DeleteMany removes the works at the given indices and reports how many
// were deleted. Indices are deduplicated and applied highest-first so
// earlier removals do not shift later ones. An empty selection is an error.
func (s *WorkService) DeleteMany(ctx context.Context, indices []int) (int, error) {
	if len(indices) == 0 {
		return 0, ErrNoSelection
	}

	works := s.store.Works(ctx)

	seen := make(map[int]struct{}, len(indices))
	unique := make([]int, 0, len(indices))
	for _, i := range indices {
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		unique = append(unique, i)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(unique)))

	deleted := 0
	for _, i := range unique {
		if i < 0 || i >= len(works) {
			continue
		}
		works = append(works[:i], works[i+1:]...)
		deleted++
	}
	if deleted == 0 {
		return 0, ErrWorkNotFound
	}

	if err := s.store.SaveWorks(ctx, works); err != nil {
		return 0, fmt.Errorf("save works: %w", err)
	}

	s.log.Info().Int("deleted", deleted).Msg("Works deleted")
	return deleted, nil
}
