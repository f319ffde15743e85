package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/export"
)

type statementStudents interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Student, error)
}

type statementLines interface {
	ListCourses(ctx context.Context, studentID int64, period string, activeOnly bool) ([]models.EnrollmentLineDetail, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

var statementHeaders = []string{"course_id", "title", "program", "status", "added_at"}

// ExportService renders enrollment statements.
type ExportService struct {
	students statementStudents
	lines    statementLines
	rules    AcademicRules
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the pkg/export defaults.
func NewExportService(students statementStudents, lines statementLines, rules AcademicRules, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		students: students,
		lines:    lines,
		rules:    rules.withDefaults(),
		csv:      csv,
		pdf:      pdf,
		logger:   logger,
		now:      time.Now,
	}
}

// EnrollmentStatement renders every line of the student's enrollment for period.
func (s *ExportService) EnrollmentStatement(ctx context.Context, studentID int64, period string, format models.ExportFormat) (*models.Statement, error) {
	format = models.ExportFormat(strings.ToLower(strings.TrimSpace(string(format))))
	if format == "" {
		format = models.ExportFormatCSV
	}
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", format))
	}
	period = s.rules.period(period)

	student, err := s.students.FindByID(ctx, nil, studentID)
	if err != nil {
		return nil, appErrors.NotFoundOr(err, "student not found", "failed to load student")
	}
	lines, err := s.lines.ListCourses(ctx, studentID, period, false)
	if err != nil {
		return nil, err
	}

	dataset := buildStatementDataset(lines)
	var body []byte
	contentType := "text/csv"
	switch format {
	case models.ExportFormatCSV:
		body, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		contentType = "application/pdf"
		body, err = s.pdf.Render(export.Document{
			Title: "Enrollment statement",
			Meta: []string{
				fmt.Sprintf("Student: %s (%d)", student.Name, student.ID),
				fmt.Sprintf("Program: %s", student.Program),
				fmt.Sprintf("Period: %s", period),
				fmt.Sprintf("Generated: %s", s.now().UTC().Format(time.RFC3339)),
			},
			Data: dataset,
		})
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statement")
	}

	s.logger.Info("enrollment statement rendered",
		zap.Int64("student_id", studentID),
		zap.String("period", period),
		zap.String("format", string(format)),
		zap.Int("lines", len(lines)),
	)
	return &models.Statement{
		Filename:    fmt.Sprintf("enrollment_%d_%s.%s", studentID, sanitizeFilename(period), format),
		ContentType: contentType,
		Format:      format,
		Body:        body,
	}, nil
}

func buildStatementDataset(lines []models.EnrollmentLineDetail) export.Dataset {
	rows := make([]map[string]string, 0, len(lines))
	for _, line := range lines {
		status := "active"
		if !line.Active {
			status = "dropped"
		}
		rows = append(rows, map[string]string{
			"course_id": strconv.FormatInt(line.CourseID, 10),
			"title":     line.CourseTitle,
			"program":   line.CourseProgram,
			"status":    status,
			"added_at":  line.CreatedAt.UTC().Format("2006-01-02"),
		})
	}
	return export.Dataset{Headers: statementHeaders, Rows: rows}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
