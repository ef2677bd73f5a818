//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/joho/godotenv"
)

const (
	defaultBaseURL = "http://localhost:8060/api/v1"

	subjectName = "E2E Дисциплина"
)

var (
	baseURL      string
	sessionID    string
	subjectIndex int
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	os.Exit(m.Run())
}

// ─── HTTP helpers ───────────────────────────────────────────────────

type envelope struct {
	Data  map[string]json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func request(t *testing.T, method, path string, body interface{}) (int, *envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return resp.StatusCode, &env
}

// ─── Flow ───────────────────────────────────────────────────────────

func TestE2E_AdminPreparesSubject(t *testing.T) {
	status, _ := request(t, http.MethodPost, "/admin/subjects", map[string]string{"name": subjectName})
	if status != http.StatusCreated && status != http.StatusConflict {
		t.Fatalf("create subject: unexpected status %d", status)
	}

	// Find the subject index to feed questions into.
	status, env := request(t, http.MethodGet, "/admin/subjects", nil)
	if status != http.StatusOK {
		t.Fatalf("list subjects: status %d", status)
	}
	var subjects []struct {
		Name      string   `json:"name"`
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal(env.Data["subjects"], &subjects); err != nil {
		t.Fatalf("decode subjects: %v", err)
	}
	index := -1
	for i, s := range subjects {
		if s.Name == subjectName {
			index = i
			break
		}
	}
	if index < 0 {
		t.Fatal("seeded subject not found in list")
	}

	for i := 1; i <= 3; i++ {
		question := fmt.Sprintf("Вопрос №%d", i)
		status, _ := request(t, http.MethodPost, fmt.Sprintf("/admin/subjects/%d/questions", index), map[string]string{"text": question})
		if status != http.StatusCreated {
			t.Fatalf("add question %d: status %d", i, status)
		}
	}

	subjectIndex = index
}

func TestE2E_StudentDrawsAndSubmits(t *testing.T) {
	status, env := request(t, http.MethodPost, "/student/exams", map[string]interface{}{
		"fio":           "Иванов Иван Иванович",
		"group":         "ИВТ-21",
		"institute":     "ИКИТ",
		"subject_index": subjectIndex,
	})
	if status != http.StatusCreated {
		t.Fatalf("draw: status %d", status)
	}

	var session struct {
		SessionID        string `json:"session_id"`
		State            string `json:"state"`
		RemainingSeconds int64  `json:"remaining_seconds"`
		Attempt          struct {
			Questions []string `json:"questions"`
		} `json:"attempt"`
	}
	if err := json.Unmarshal(env.Data["session"], &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.State != "IN_PROGRESS" {
		t.Fatalf("expected IN_PROGRESS, got %s", session.State)
	}
	if len(session.Attempt.Questions) != 2 {
		t.Fatalf("expected 2 drawn questions, got %d", len(session.Attempt.Questions))
	}
	if session.RemainingSeconds <= 0 {
		t.Fatalf("expected a running countdown, got %d", session.RemainingSeconds)
	}
	sessionID = session.SessionID

	// A reload restores the same attempt.
	status, env = request(t, http.MethodGet, "/student/exams/"+sessionID, nil)
	if status != http.StatusOK {
		t.Fatalf("get state: status %d", status)
	}

	status, env = request(t, http.MethodPost, "/student/exams/"+sessionID+"/submit", map[string]interface{}{
		"answers": []string{"Ответ первый", "Ответ второй"},
	})
	if status != http.StatusOK {
		t.Fatalf("submit: status %d", status)
	}
	if err := json.Unmarshal(env.Data["session"], &session); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	if session.State != "TERMINATED" {
		t.Fatalf("expected TERMINATED after submit, got %s", session.State)
	}

	// A second submit must be rejected, not appended twice.
	status, _ = request(t, http.MethodPost, "/student/exams/"+sessionID+"/submit", map[string]interface{}{
		"answers": []string{"x", "y"},
	})
	if status != http.StatusConflict {
		t.Fatalf("second submit: expected 409, got %d", status)
	}
}

func TestE2E_ReviewerGradesAnonymously(t *testing.T) {
	status, env := request(t, http.MethodGet, "/reviewer/works", nil)
	if status != http.StatusOK {
		t.Fatalf("reviewer list: status %d", status)
	}

	var works []struct {
		Index int    `json:"index"`
		FIO   string `json:"fio"`
	}
	if err := json.Unmarshal(env.Data["works"], &works); err != nil {
		t.Fatalf("decode works: %v", err)
	}
	if len(works) == 0 {
		t.Fatal("expected at least one submitted work")
	}
	last := works[len(works)-1]
	if last.FIO != "" {
		t.Fatalf("reviewer must not see the student name, got %q", last.FIO)
	}

	status, _ = request(t, http.MethodPut, fmt.Sprintf("/reviewer/works/%d/grade", last.Index), map[string]string{
		"grade":   "отлично",
		"comment": "Полный ответ",
	})
	if status != http.StatusOK {
		t.Fatalf("save grade: status %d", status)
	}
}

func TestE2E_AdminSeesGradeAndReport(t *testing.T) {
	status, env := request(t, http.MethodGet, "/admin/works", nil)
	if status != http.StatusOK {
		t.Fatalf("admin works: status %d", status)
	}

	var works []struct {
		FIO   string      `json:"fio"`
		Grade interface{} `json:"grade"`
	}
	if err := json.Unmarshal(env.Data["works"], &works); err != nil {
		t.Fatalf("decode works: %v", err)
	}
	if len(works) == 0 {
		t.Fatal("expected at least one work")
	}
	last := works[len(works)-1]
	if last.FIO == "" {
		t.Fatal("admin view must include the student name")
	}
	if last.Grade != "отлично" {
		t.Fatalf("expected saved grade, got %v", last.Grade)
	}

	resp, err := http.Get(baseURL + "/admin/works/report")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("report: unexpected content type %q", ct)
	}
}
