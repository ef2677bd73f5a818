package model

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// ExamAttempt is one student's exam-taking session, from draw to terminal
// submission. The JSON shape is the interchange format with the examWorks
// store document and must be preserved field-for-field for compatibility
// with existing data (camelCase names, millisecond timestamps).
type ExamAttempt struct {
	ID         string   `json:"id"`
	FIO        string   `json:"fio"`
	Group      string   `json:"group"`
	Institute  string   `json:"institute"`
	Discipline string   `json:"discipline"`
	Questions  []string `json:"questions"`
	Answers    []string `json:"answers"`
	// StartedAt and SubmittedAt are milliseconds since epoch.
	StartedAt   int64 `json:"startedAt"`
	SubmittedAt int64 `json:"submittedAt,omitempty"`
	Submitted   bool  `json:"submitted"`
	// Grade is set only by a reviewer: a string from the grading form,
	// the number 0 on a violation, or null while ungraded.
	Grade   any    `json:"grade"`
	Comment string `json:"comment"`
}

// Clone returns a copy whose Questions and Answers slices share no backing
// array with the receiver, so it stays stable while the original is mutated.
func (a ExamAttempt) Clone() ExamAttempt {
	a.Questions = append([]string(nil), a.Questions...)
	a.Answers = append([]string(nil), a.Answers...)
	return a
}

// NewAttemptID generates a best-effort unique attempt id in the format
// existing store documents use: unix millis plus a random suffix.
func NewAttemptID(now time.Time) string {
	return fmt.Sprintf("%d-%d", now.UnixMilli(), rand.IntN(10000))
}

// DrawExamRequest is the payload for a student drawing an exam.
type DrawExamRequest struct {
	FIO          string `json:"fio" binding:"required,min=1,max=200"`
	Group        string `json:"group" binding:"required,min=1,max=50"`
	Institute    string `json:"institute" binding:"required,min=1,max=200"`
	SubjectIndex *int   `json:"subject_index" binding:"required,min=0"`
}

// SubmitAnswersRequest is the payload for a student submitting answers.
// Missing answer slots are filled with empty strings, so none are required.
type SubmitAnswersRequest struct {
	Answers []string `json:"answers"`
}

// SaveGradeRequest is the payload for a reviewer grading a work.
type SaveGradeRequest struct {
	Grade   string `json:"grade" binding:"omitempty,max=10"`
	Comment string `json:"comment" binding:"max=2000"`
}

// DeleteWorksRequest is the payload for the admin batch delete.
type DeleteWorksRequest struct {
	Indices []int `json:"indices" binding:"required"`
}
