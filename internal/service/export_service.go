package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edu-monitoring/api/internal/models"
	appErrors "github.com/edu-monitoring/api/pkg/errors"
	"github.com/edu-monitoring/api/pkg/export"
)

type exportSigner interface {
	Generate(resourceID, relPath string) (string, time.Time, error)
	Parse(token string) (resourceID, relPath string, expiresAt time.Time, err error)
}

type exportStore interface {
	Save(filename string, data []byte) (string, error)
	Path(filename string) string
}

type leaderboardReader interface {
	TopTeachers(ctx context.Context, limit int) ([]models.TeacherLeaderboardEntry, error)
	TopSchools(ctx context.Context, limit int) ([]models.SchoolLeaderboardEntry, error)
}

// ExportFormat selects the output renderer.
type ExportFormat string

const (
	FormatCSV   ExportFormat = "csv"
	FormatPDF   ExportFormat = "pdf"
	FormatExcel ExportFormat = "xlsx"
)

// ExportResult points at a rendered report and its signed download token.
type ExportResult struct {
	FileName  string    `json:"file_name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportService renders leaderboard reports to CSV, PDF or XLSX and hands
// out signed, expiring download tokens.
type ExportService struct {
	boards leaderboardReader
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	excel  *export.ExcelExporter
	store  exportStore
	signer exportSigner
	logger *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(boards leaderboardReader, store exportStore, signer exportSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		boards: boards,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		excel:  export.NewExcelExporter(),
		store:  store,
		signer: signer,
		logger: logger,
	}
}

// ExportTeacherLeaderboard renders the current teacher standings.
func (s *ExportService) ExportTeacherLeaderboard(ctx context.Context, format ExportFormat, limit int) (*ExportResult, error) {
	entries, err := s.boards.TopTeachers(ctx, limit)
	if err != nil {
		return nil, err
	}
	headers := []string{"Rank", "Teacher", "School", "Subject", "Level", "Total Points", "Monthly Points"}
	rows := make([]map[string]string, len(entries))
	grid := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = map[string]string{
			"Rank":           strconv.Itoa(e.Rank),
			"Teacher":        e.FullName,
			"School":         e.SchoolName,
			"Subject":        string(e.Subject),
			"Level":          string(e.Level),
			"Total Points":   strconv.Itoa(e.TotalPoints),
			"Monthly Points": strconv.Itoa(e.MonthlyPoints),
		}
		grid[i] = []string{
			strconv.Itoa(e.Rank), e.FullName, e.SchoolName, string(e.Subject),
			string(e.Level), strconv.Itoa(e.TotalPoints), strconv.Itoa(e.MonthlyPoints),
		}
	}
	return s.render(format, "teacher_leaderboard", "Teacher Leaderboard", headers, rows, grid)
}

// ExportSchoolLeaderboard renders the current school standings.
func (s *ExportService) ExportSchoolLeaderboard(ctx context.Context, format ExportFormat, limit int) (*ExportResult, error) {
	entries, err := s.boards.TopSchools(ctx, limit)
	if err != nil {
		return nil, err
	}
	headers := []string{"Rank", "School", "Region", "Teachers", "Total Points"}
	rows := make([]map[string]string, len(entries))
	grid := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = map[string]string{
			"Rank":         strconv.Itoa(e.Rank),
			"School":       e.Name,
			"Region":       e.Region,
			"Teachers":     strconv.Itoa(e.TeachersCount),
			"Total Points": strconv.Itoa(e.TotalPoints),
		}
		grid[i] = []string{
			strconv.Itoa(e.Rank), e.Name, e.Region,
			strconv.Itoa(e.TeachersCount), strconv.Itoa(e.TotalPoints),
		}
	}
	return s.render(format, "school_leaderboard", "School Leaderboard", headers, rows, grid)
}

// ResolveDownload validates a signed token and returns the stored file path.
func (s *ExportService) ResolveDownload(token string) (string, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
	}
	return s.store.Path(relPath), nil
}

func (s *ExportService) render(format ExportFormat, slug, title string, headers []string, rows []map[string]string, grid [][]string) (*ExportResult, error) {
	var (
		data []byte
		err  error
		ext  string
	)
	switch format {
	case FormatCSV:
		data, err = s.csv.Render(export.Dataset{Headers: headers, Rows: rows})
		ext = "csv"
	case FormatPDF:
		data, err = s.pdf.Render(export.Dataset{Headers: headers, Rows: rows}, title)
		ext = "pdf"
	case FormatExcel:
		data, err = s.excel.Render([]export.Sheet{{Title: title, Headers: headers, Rows: grid}})
		ext = "xlsx"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	id := uuid.NewString()
	name := fmt.Sprintf("%s_%s.%s", slug, time.Now().UTC().Format("20060102_150405"), ext)
	if _, err := s.store.Save(name, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expires, err := s.signer.Generate(id, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	s.logger.Info("export rendered", zap.String("file", name), zap.String("format", string(format)))
	return &ExportResult{FileName: name, Token: token, ExpiresAt: expires}, nil
}
