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

// ReviewHandler handles the anonymous grading endpoints. Works are served
// with identity fields blanked; the index always addresses the unfiltered
// document so grading a filtered list never hits the wrong work.
type ReviewHandler struct {
	workService *service.WorkService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(workService *service.WorkService) *ReviewHandler {
	return &ReviewHandler{workService: workService}
}

// GetAll godoc
// GET /api/v1/reviewer/works?institute=...
func (h *ReviewHandler) GetAll(c *gin.Context) {
	works := h.workService.ForReview(c.Request.Context(), c.Query("institute"))
	if works == nil {
		works = []service.ReviewWork{}
	}

	response.Success(c, http.StatusOK, gin.H{"works": works})
}

// SaveGrade godoc
// PUT /api/v1/reviewer/works/:index/grade
// An empty grade clears the stored value.
func (h *ReviewHandler) SaveGrade(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveGradeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.workService.SaveGrade(c.Request.Context(), index, req.Grade, req.Comment); err != nil {
		if errors.Is(err, service.ErrWorkNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrStoreWriteFailed)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "grade saved"})
}
