package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/biletnik/biletnik-backend/internal/model"
	"github.com/biletnik/biletnik-backend/internal/response"
	"github.com/biletnik/biletnik-backend/internal/service"
	"github.com/biletnik/biletnik-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// SubjectHandler handles the admin subject and question pool endpoints.
// Subjects are addressed by their position in the shared document.
type SubjectHandler struct {
	subjectService *service.SubjectService
}

// NewSubjectHandler creates a new SubjectHandler.
func NewSubjectHandler(subjectService *service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjectService: subjectService}
}

// GetAll godoc
// GET /api/v1/admin/subjects
func (h *SubjectHandler) GetAll(c *gin.Context) {
	subjects := h.subjectService.List(c.Request.Context())
	if subjects == nil {
		subjects = []model.Subject{}
	}

	response.Success(c, http.StatusOK, gin.H{"subjects": subjects})
}

// Create godoc
// POST /api/v1/admin/subjects
func (h *SubjectHandler) Create(c *gin.Context) {
	var req model.CreateSubjectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sub, err := h.subjectService.Create(c.Request.Context(), req.Name)
	if err != nil {
		if errors.Is(err, service.ErrSubjectExists) {
			response.Fail(c, http.StatusConflict, response.ErrSubjectExists)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrStoreWriteFailed)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"subject": sub})
}

// Delete godoc
// DELETE /api/v1/admin/subjects/:index
func (h *SubjectHandler) Delete(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.subjectService.Delete(c.Request.Context(), index); err != nil {
		if errors.Is(err, service.ErrSubjectNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrStoreWriteFailed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "subject deleted"})
}

// AddQuestion godoc
// POST /api/v1/admin/subjects/:index/questions
func (h *SubjectHandler) AddQuestion(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.subjectService.AddQuestion(c.Request.Context(), index, req.Text); err != nil {
		if errors.Is(err, service.ErrSubjectNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrStoreWriteFailed)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"message": "question added"})
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/subjects/:index/questions/:question_index
func (h *SubjectHandler) DeleteQuestion(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	questionIndex, err := strconv.Atoi(c.Param("question_index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.subjectService.DeleteQuestion(c.Request.Context(), index, questionIndex); err != nil {
		if errors.Is(err, service.ErrSubjectNotFound) || errors.Is(err, service.ErrQuestionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrStoreWriteFailed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "question deleted"})
}
