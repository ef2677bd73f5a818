package handler

import (
	"errors"
	"net/http"

	"github.com/biletnik/biletnik-backend/internal/model"
	"github.com/biletnik/biletnik-backend/internal/response"
	"github.com/biletnik/biletnik-backend/internal/session"
	"github.com/biletnik/biletnik-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// StudentHandler handles the student-facing exam lifecycle endpoints.
type StudentHandler struct {
	manager *session.Manager
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(manager *session.Manager) *StudentHandler {
	return &StudentHandler{manager: manager}
}

// Draw godoc
// POST /api/v1/student/exams
// Registers the student, draws the question pair and starts the countdown.
func (h *StudentHandler) Draw(c *gin.Context) {
	var req model.DrawExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.manager.Draw(c.Request.Context(), req)
	if err != nil {
		drawFailure(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": snap})
}

// drawFailure maps a draw error to its API response.
func drawFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSubjectNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, session.ErrNotEnoughQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNotEnoughQuestions)
	case errors.Is(err, session.ErrAttemptActive):
		response.Fail(c, http.StatusConflict, response.ErrAttemptActive)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// GetState godoc
// GET /api/v1/student/exams/:session_id
// Returns the current session snapshot; restores it after a reload.
func (h *StudentHandler) GetState(c *gin.Context) {
	sess, err := h.manager.Get(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": sess.Snapshot()})
}

// Submit godoc
// POST /api/v1/student/exams/:session_id/submit
// Manually submits all answers and terminates the session.
func (h *StudentHandler) Submit(c *gin.Context) {
	sess, err := h.manager.Get(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}

	var req model.SubmitAnswersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := sess.SubmitAnswers(c.Request.Context(), req.Answers)
	if err != nil {
		submitFailure(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// submitFailure maps a submission error to its API response. A repeated
// submit and a submit against a session with no attempt are distinct
// conflicts; the renderer shows different hints for them.
func submitFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, session.ErrNoActiveAttempt):
		response.Fail(c, http.StatusConflict, response.ErrNoActiveAttempt)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrStoreWriteFailed)
	}
}
