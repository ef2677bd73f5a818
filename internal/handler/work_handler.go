package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/biletnik/biletnik-backend/internal/model"
	"github.com/biletnik/biletnik-backend/internal/repository"
	"github.com/biletnik/biletnik-backend/internal/response"
	"github.com/biletnik/biletnik-backend/internal/service"
	"github.com/biletnik/biletnik-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WorkHandler handles the admin endpoints over submitted works.
type WorkHandler struct {
	workService   *service.WorkService
	reportService *service.ReportService
	archiveRepo   *repository.WorkArchiveRepository
	log           zerolog.Logger
}

// NewWorkHandler creates a new WorkHandler.
func NewWorkHandler(
	workService *service.WorkService,
	reportService *service.ReportService,
	archiveRepo *repository.WorkArchiveRepository,
	log zerolog.Logger,
) *WorkHandler {
	return &WorkHandler{
		workService:   workService,
		reportService: reportService,
		archiveRepo:   archiveRepo,
		log:           log.With().Str("component", "work_handler").Logger(),
	}
}

// GetAll godoc
// GET /api/v1/admin/works?institute=...
func (h *WorkHandler) GetAll(c *gin.Context) {
	works := h.workService.List(c.Request.Context(), c.Query("institute"))
	if works == nil {
		works = []model.ExamAttempt{}
	}

	response.Success(c, http.StatusOK, gin.H{"works": works})
}

// DeleteMany godoc
// POST /api/v1/admin/works/delete
// Removes the selected works from the shared document in one write.
func (h *WorkHandler) DeleteMany(c *gin.Context) {
	var req model.DeleteWorksRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	deleted, err := h.workService.DeleteMany(c.Request.Context(), req.Indices)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSelection):
			response.Fail(c, http.StatusBadRequest, response.ErrNoSelection)
		case errors.Is(err, service.ErrWorkNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrStoreWriteFailed)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": deleted})
}

// Report godoc
// GET /api/v1/admin/works/report
// Streams the grading summary as an XLSX attachment.
func (h *WorkHandler) Report(c *gin.Context) {
	file, err := h.reportService.BuildAdminReport(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoReportData) {
			response.Fail(c, http.StatusNotFound, response.ErrNoReportData)
			return
		}
		h.log.Error().Err(err).Msg("Report build failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer file.Close()

	filename := fmt.Sprintf("works-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if _, err := file.WriteTo(c.Writer); err != nil {
		h.log.Error().Err(err).Msg("Report write failed")
	}
}

// ArchiveStats godoc
// GET /api/v1/admin/works/archive/stats
// Returns per-institute counts from the durable PostgreSQL archive.
func (h *WorkHandler) ArchiveStats(c *gin.Context) {
	counts, err := h.archiveRepo.CountByInstitute(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Archive stats query failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"institutes": counts})
}
