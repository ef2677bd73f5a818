package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/biletnik/biletnik-backend/internal/model"
	"github.com/biletnik/biletnik-backend/internal/response"
	"github.com/biletnik/biletnik-backend/internal/session"
	"github.com/biletnik/biletnik-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func (f *fakeStore) AppendWork(ctx context.Context, attempt model.ExamAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.works = append(f.works, attempt)
	return nil
}

type fakeAttemptStorage struct {
	attempts map[string]model.ExamAttempt
}

func newFakeAttemptStorage() *fakeAttemptStorage {
	return &fakeAttemptStorage{attempts: make(map[string]model.ExamAttempt)}
}

func (f *fakeAttemptStorage) Get(ctx context.Context, sessionID string) (*model.ExamAttempt, error) {
	attempt, ok := f.attempts[sessionID]
	if !ok {
		return nil, nil
	}
	return &attempt, nil
}

func (f *fakeAttemptStorage) Set(ctx context.Context, sessionID string, attempt model.ExamAttempt) error {
	f.attempts[sessionID] = attempt
	return nil
}

func (f *fakeAttemptStorage) Remove(ctx context.Context, sessionID string) error {
	delete(f.attempts, sessionID)
	return nil
}

func newStudentRouter(store *fakeStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator.Setup()

	manager := session.NewManager(store, newFakeAttemptStorage(), time.Hour, 2, zerolog.Nop())
	h := NewStudentHandler(manager)

	r := gin.New()
	r.POST("/student/exams", h.Draw)
	r.GET("/student/exams/:session_id", h.GetState)
	r.POST("/student/exams/:session_id/submit", h.Submit)
	return r
}

func drawBody(subjectIndex int) model.DrawExamRequest {
	return model.DrawExamRequest{
		FIO:          "Иванов Иван",
		Group:        "ИС-21",
		Institute:    "ИКТ",
		SubjectIndex: &subjectIndex,
	}
}

func decodeSnapshot(t *testing.T, env response.Response) session.Snapshot {
	t.Helper()

	data, err := json.Marshal(env.Data)
	if err != nil {
		t.Fatalf("re-marshal data: %v", err)
	}
	var payload struct {
		Session session.Snapshot `json:"session"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return payload.Session
}

func TestStudentDrawAndSubmitFlow(t *testing.T) {
	store := &fakeStore{subjects: []model.Subject{
		{Name: "Математика", Questions: []string{"Q1", "Q2", "Q3"}},
	}}
	r := newStudentRouter(store)

	w, env := doJSON(t, r, http.MethodPost, "/student/exams", drawBody(0))
	if w.Code != http.StatusCreated {
		t.Fatalf("draw: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	snap := decodeSnapshot(t, env)
	if snap.State != session.StateInProgress || len(snap.Attempt.Questions) != 2 {
		t.Fatalf("unexpected draw snapshot: %+v", snap)
	}

	submitPath := "/student/exams/" + snap.SessionID + "/submit"
	w, env = doJSON(t, r, http.MethodPost, submitPath, model.SubmitAnswersRequest{Answers: []string{"a1", "a2"}})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if snap = decodeSnapshot(t, env); snap.State != session.StateTerminated {
		t.Fatalf("state = %s after submit", snap.State)
	}

	w, env = doJSON(t, r, http.MethodPost, submitPath, model.SubmitAnswersRequest{Answers: []string{"b1", "b2"}})
	if w.Code != http.StatusConflict {
		t.Fatalf("second submit: expected 409, got %d", w.Code)
	}
	if env.Error == nil || env.Error.Code != response.ErrAlreadySubmitted {
		t.Fatalf("expected %s error code, got %+v", response.ErrAlreadySubmitted, env.Error)
	}
	if len(store.works) != 1 {
		t.Fatalf("works = %d, want exactly 1", len(store.works))
	}
}

func TestStudentDrawFailures(t *testing.T) {
	store := &fakeStore{subjects: []model.Subject{
		{Name: "Физика", Questions: []string{"only one"}},
	}}
	r := newStudentRouter(store)

	w, env := doJSON(t, r, http.MethodPost, "/student/exams", drawBody(5))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing subject, got %d", w.Code)
	}
	if env.Error == nil || env.Error.Code != response.ErrNotFound {
		t.Fatalf("expected %s error code, got %+v", response.ErrNotFound, env.Error)
	}

	w, env = doJSON(t, r, http.MethodPost, "/student/exams", drawBody(0))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a one-question subject, got %d", w.Code)
	}
	if env.Error == nil || env.Error.Code != response.ErrNotEnoughQuestions {
		t.Fatalf("expected %s error code, got %+v", response.ErrNotEnoughQuestions, env.Error)
	}
}

func TestStudentSubmitUnknownSession(t *testing.T) {
	r := newStudentRouter(&fakeStore{})

	w, env := doJSON(t, r, http.MethodPost, "/student/exams/nope/submit", model.SubmitAnswersRequest{})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if env.Error == nil || env.Error.Code != response.ErrSessionNotFound {
		t.Fatalf("expected %s error code, got %+v", response.ErrSessionNotFound, env.Error)
	}
}

func TestFailureMappingsDistinguishConflicts(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name     string
		respond  func(*gin.Context)
		wantCode int
		wantErr  response.ErrCode
	}{
		{"already submitted", func(c *gin.Context) { submitFailure(c, session.ErrAlreadySubmitted) }, http.StatusConflict, response.ErrAlreadySubmitted},
		{"no active attempt", func(c *gin.Context) { submitFailure(c, session.ErrNoActiveAttempt) }, http.StatusConflict, response.ErrNoActiveAttempt},
		{"attempt active", func(c *gin.Context) { drawFailure(c, session.ErrAttemptActive) }, http.StatusConflict, response.ErrAttemptActive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tc.respond(c)

			if w.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantCode)
			}
			var env response.Response
			if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if env.Error == nil || env.Error.Code != tc.wantErr {
				t.Fatalf("error = %+v, want code %s", env.Error, tc.wantErr)
			}
		})
	}
}
