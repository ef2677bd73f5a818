package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ErrNoReportData is returned when there are no works to report on.
var ErrNoReportData = errors.New("no data for report")

const reportSheet = "Отчёт"

var reportHeaders = []any{"ФИО", "Группа", "Институт", "Дисциплина", "Статус", "Оценка"}

// ReportService builds the admin XLSX report over the examWorks document.
type ReportService struct {
	store Store
	log   zerolog.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(store Store, log zerolog.Logger) *ReportService {
	return &ReportService{
		store: store,
		log:   log.With().Str("component", "report_service").Logger(),
	}
}

// BuildAdminReport renders all works into a spreadsheet. The status column
// follows the admin table: a graded work shows its grade, a submitted but
// ungraded one "Сдано", an in-progress one "В работе".
func (s *ReportService) BuildAdminReport(ctx context.Context) (*excelize.File, error) {
	works := s.store.Works(ctx)
	if len(works) == 0 {
		return nil, ErrNoReportData
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(reportSheet, "A1", &reportHeaders); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, w := range works {
		grade := gradeLabel(w.Grade)
		status := "В работе"
		if w.Submitted {
			status = "Сдано"
			if grade != "" {
				status = grade
			}
		}

		row := []any{w.FIO, w.Group, w.Institute, w.Discipline, status, grade}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}

	s.log.Debug().Int("rows", len(works)).Msg("Report built")
	return f, nil
}

// gradeLabel renders a grade value for display. Existing documents carry
// grades as strings from the grading form, the number 0 on violations, or
// null while ungraded.
func gradeLabel(grade any) string {
	if grade == nil {
		return ""
	}
	if s, ok := grade.(string); ok {
		return s
	}
	if n, ok := grade.(float64); ok && n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprint(grade)
}
