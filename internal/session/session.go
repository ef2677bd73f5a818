package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/biletnik/biletnik-backend/internal/model"
	"github.com/rs/zerolog"
)

// State enumerates the lifecycle states of one exam session.
type State string

const (
	StateIdle       State = "IDLE"
	StateDrawing    State = "DRAWING"
	StateInProgress State = "IN_PROGRESS"
	StateSubmitting State = "SUBMITTING"
	StateTerminated State = "TERMINATED"
)

// Reason enumerates why a session reached its terminal transition.
type Reason string

const (
	ReasonManual      Reason = "MANUAL"
	ReasonTimeExpired Reason = "TIME_EXPIRED"
	ReasonViolation   Reason = "VIOLATION"
)

// Terminal messages and the violation markers, kept byte-for-byte as the
// store documents already contain them.
const (
	MsgSubmitted   = "Ответы отправлены. Спасибо!"
	MsgTimeExpired = "Время вышло. Ответы автоматически отправлены."
	MsgViolation   = "Вы нарушили правила! Экзамен завершён и помечен как нарушенный."

	ViolationMarker  = "--- Нарушение (вкладка скрыта) ---"
	ViolationComment = "Авто: нарушение (вкладка скрыта)"
)

// Domain errors.
var (
	ErrAttemptActive      = errors.New("an attempt is already active for this session")
	ErrNoActiveAttempt    = errors.New("no active attempt")
	ErrAlreadySubmitted   = errors.New("attempt already submitted")
	ErrSubjectNotFound    = errors.New("subject not found")
	ErrNotEnoughQuestions = errors.New("subject has fewer questions than one draw needs")
	ErrAnswerOutOfRange   = errors.New("answer index out of range")
)

// DocumentStore is the slice of the store the lifecycle needs: the subject
// pool at draw time and the terminal append.
type DocumentStore interface {
	Subjects(ctx context.Context) []model.Subject
	AppendWork(ctx context.Context, attempt model.ExamAttempt) error
}

// AttemptStorage persists the in-progress attempt so a reload can restore it.
type AttemptStorage interface {
	Get(ctx context.Context, sessionID string) (*model.ExamAttempt, error)
	Set(ctx context.Context, sessionID string, attempt model.ExamAttempt) error
	Remove(ctx context.Context, sessionID string) error
}

// Session owns one student's attempt from draw to terminal submission. All
// three submission triggers (manual, countdown, violation) serialize on the
// session mutex; whichever runs first clears the active attempt before the
// store append, so a later trigger observes no active attempt and becomes a
// no-op. Exactly one record per attempt reaches the store.
//
// The countdown is an instance field, never shared between sessions.
type Session struct {
	ID string

	store   DocumentStore
	storage AttemptStorage
	budget  time.Duration
	perDraw int
	log     zerolog.Logger
	now     func() time.Time

	mu        sync.Mutex
	state     State
	attempt   *model.ExamAttempt
	reason    Reason
	message   string
	timerStop chan struct{}
}

// Snapshot is the session view handed to renderers.
type Snapshot struct {
	SessionID        string             `json:"session_id"`
	State            State              `json:"state"`
	Attempt          *model.ExamAttempt `json:"attempt,omitempty"`
	RemainingSeconds int64              `json:"remaining_seconds"`
	Reason           Reason             `json:"reason,omitempty"`
	Message          string             `json:"message,omitempty"`
}

func newSession(id string, store DocumentStore, storage AttemptStorage, budget time.Duration, perDraw int, log zerolog.Logger) *Session {
	return &Session{
		ID:      id,
		store:   store,
		storage: storage,
		budget:  budget,
		perDraw: perDraw,
		log:     log.With().Str("component", "session").Str("session_id", id).Logger(),
		now:     time.Now,
		state:   StateIdle,
	}
}

// Draw validates the chosen subject, selects the question pair and starts
// the countdown. On any failure the session stays Idle and no partial
// attempt is created.
func (s *Session) Draw(ctx context.Context, req model.DrawExamRequest) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return nil, ErrAttemptActive
	}
	s.state = StateDrawing

	subjects := s.store.Subjects(ctx)
	idx := *req.SubjectIndex
	if idx < 0 || idx >= len(subjects) {
		s.state = StateIdle
		return nil, ErrSubjectNotFound
	}
	subject := subjects[idx]
	if len(subject.Questions) < s.perDraw {
		s.state = StateIdle
		return nil, ErrNotEnoughQuestions
	}

	questions := make([]string, s.perDraw)
	for i, qi := range drawIndices(len(subject.Questions), s.perDraw) {
		questions[i] = subject.Questions[qi]
	}

	now := s.now()
	attempt := &model.ExamAttempt{
		ID:         model.NewAttemptID(now),
		FIO:        req.FIO,
		Group:      req.Group,
		Institute:  req.Institute,
		Discipline: subject.Name,
		Questions:  questions,
		Answers:    make([]string, s.perDraw),
		StartedAt:  now.UnixMilli(),
		Submitted:  false,
		Grade:      nil,
		Comment:    "",
	}

	// Persist before anything is rendered, so a reload can restore the
	// attempt with its original startedAt.
	if err := s.storage.Set(ctx, s.ID, *attempt); err != nil {
		s.state = StateIdle
		return nil, fmt.Errorf("persist attempt: %w", err)
	}

	s.attempt = attempt
	s.state = StateInProgress
	s.startCountdownLocked()

	s.log.Info().
		Str("attempt_id", attempt.ID).
		Str("discipline", attempt.Discipline).
		Msg("Exam drawn")

	return s.snapshotLocked(), nil
}

// SaveAnswer records the current text of one answer field. The autosaved
// text is what a timeout collects as the final answer.
func (s *Session) SaveAnswer(ctx context.Context, index int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress || s.attempt == nil {
		return ErrNoActiveAttempt
	}
	if index < 0 || index >= len(s.attempt.Answers) {
		return ErrAnswerOutOfRange
	}
	s.attempt.Answers[index] = text
	if err := s.storage.Set(ctx, s.ID, *s.attempt); err != nil {
		return fmt.Errorf("persist answer: %w", err)
	}
	return nil
}

// SubmitAnswers is the student-initiated terminal transition. Provided
// answers are copied positionally; missing slots become empty strings. The
// session terminates even if the store append then fails: the error is
// returned so the caller can surface it, but there is no retry and no
// rollback to an active attempt.
func (s *Session) SubmitAnswers(ctx context.Context, answers []string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminated {
		return s.snapshotLocked(), ErrAlreadySubmitted
	}
	if s.state != StateInProgress || s.attempt == nil {
		return nil, ErrNoActiveAttempt
	}

	for i := range s.attempt.Answers {
		if i < len(answers) {
			s.attempt.Answers[i] = answers[i]
		}
	}

	err := s.finalizeLocked(ctx, ReasonManual)
	return s.snapshotLocked(), err
}

// ReportHidden is the anti-cheat hook: the renderer calls it when the exam
// tab loses visibility. It acts only while an unsubmitted attempt is active,
// so a signal arriving after termination is a no-op. The monitor stays
// registered for the connection's lifetime; this guard, not unregistration,
// prevents a second record.
func (s *Session) ReportHidden(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress || s.attempt == nil {
		return s.snapshotLocked(), nil
	}

	for i := range s.attempt.Answers {
		s.attempt.Answers[i] = ViolationMarker
	}
	s.attempt.Grade = 0
	s.attempt.Comment = ViolationComment

	s.log.Warn().Str("attempt_id", s.attempt.ID).Msg("Visibility violation, terminating attempt")

	err := s.finalizeLocked(ctx, ReasonViolation)
	return s.snapshotLocked(), err
}

// Snapshot returns the current state for rendering.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// resume installs a restored attempt and restarts the countdown from the
// recomputed remaining time. An attempt already past its budget is
// auto-submitted immediately.
func (s *Session) resume(ctx context.Context, attempt *model.ExamAttempt) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempt = attempt
	s.state = StateInProgress
	if s.remainingLocked() <= 0 {
		if err := s.finalizeLocked(ctx, ReasonTimeExpired); err != nil {
			s.log.Error().Err(err).Msg("Auto-submit on resume failed")
		}
		return
	}
	s.startCountdownLocked()
}

// finalizeLocked performs the single terminal transition: stop the
// countdown, stamp the record, clear the active attempt (synchronously,
// before the store write is issued) and append to the examWorks document.
// Callers must hold s.mu.
func (s *Session) finalizeLocked(ctx context.Context, reason Reason) error {
	s.state = StateSubmitting
	s.stopCountdownLocked()

	record := *s.attempt
	record.Submitted = true
	record.SubmittedAt = s.now().UnixMilli()

	// Clear first: a concurrent trigger blocked on the mutex must observe
	// "no active attempt" even if the append below is still in flight.
	s.attempt = nil
	if err := s.storage.Remove(ctx, s.ID); err != nil {
		s.log.Error().Err(err).Msg("Attempt storage cleanup failed")
	}

	s.reason = reason
	switch reason {
	case ReasonTimeExpired:
		s.message = MsgTimeExpired
	case ReasonViolation:
		s.message = MsgViolation
	default:
		s.message = MsgSubmitted
	}
	s.state = StateTerminated

	if err := s.store.AppendWork(ctx, record); err != nil {
		// No retry, no rollback: the session stays terminated.
		s.log.Error().Err(err).Str("attempt_id", record.ID).Msg("Store append failed, record dropped from document")
		return err
	}

	s.log.Info().
		Str("attempt_id", record.ID).
		Str("reason", string(reason)).
		Msg("Attempt submitted")
	return nil
}

func (s *Session) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		SessionID: s.ID,
		State:     s.state,
		Reason:    s.reason,
		Message:   s.message,
	}
	if s.attempt != nil {
		// Deep copy: the snapshot is read after the mutex is released, so
		// it must not alias the live attempt's answer slices.
		attempt := s.attempt.Clone()
		snap.Attempt = &attempt
		snap.RemainingSeconds = int64(s.remainingLocked().Seconds())
	}
	return snap
}

// remainingLocked recomputes the remaining budget from startedAt. The
// countdown is never restored from a saved value.
func (s *Session) remainingLocked() time.Duration {
	if s.attempt == nil {
		return 0
	}
	started := time.UnixMilli(s.attempt.StartedAt)
	remaining := s.budget - s.now().Sub(started)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *Session) startCountdownLocked() {
	stop := make(chan struct{})
	s.timerStop = stop
	go s.runCountdown(stop)
}

func (s *Session) stopCountdownLocked() {
	if s.timerStop != nil {
		close(s.timerStop)
		s.timerStop = nil
	}
}

// runCountdown drives the 1-second tick until the budget runs out or the
// session terminates. The stop channel is closed the instant any terminal
// transition begins, so a stray tick cannot fire after a manual submission.
func (s *Session) runCountdown(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if s.tick() {
				return
			}
		}
	}
}

// tick checks the remaining budget and triggers the timeout auto-submit at
// zero. It reports whether the countdown is finished.
func (s *Session) tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress || s.attempt == nil {
		return true
	}
	if s.remainingLocked() > 0 {
		return false
	}

	if err := s.finalizeLocked(context.Background(), ReasonTimeExpired); err != nil {
		s.log.Error().Err(err).Msg("Timeout auto-submit failed")
	}
	return true
}

// drawIndices selects count distinct indices in [0, n) by uniform rejection
// sampling. The pool is tiny relative to the sample, so collisions are rare.
func drawIndices(n, count int) []int {
	picked := make(map[int]struct{}, count)
	out := make([]int, 0, count)
	for len(out) < count {
		i := rand.IntN(n)
		if _, ok := picked[i]; ok {
			continue
		}
		picked[i] = struct{}{}
		out = append(out, i)
	}
	return out
}
