package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pathshala-plus/pathshala-api/internal/models"
	appErrors "github.com/pathshala-plus/pathshala-api/pkg/errors"
	"github.com/pathshala-plus/pathshala-api/pkg/export"
)

// ExportFormat names a supported register output format.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes plus the metadata handlers need to
// build the download response.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders the admission register as CSV or PDF.
type ExportService struct {
	repo    studentRepository
	maxRows int
	logger  *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(repo studentRepository, maxRows int, logger *zap.Logger) *ExportService {
	if maxRows <= 0 {
		maxRows = 5000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{repo: repo, maxRows: maxRows, logger: logger}
}

// AdmissionRegister renders the register for the given class filter.
func (s *ExportService) AdmissionRegister(ctx context.Context, filter models.StudentFilter, format ExportFormat) (*ExportResult, error) {
	students, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load register")
	}
	if len(students) > s.maxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("register exceeds export limit of %d rows", s.maxRows))
	}

	reg := export.Register{
		Headers: []string{"SR No", "Name", "Class", "Mobile", "Father", "Mother", "Category", "Aadhar"},
	}
	for _, st := range students {
		reg.Rows = append(reg.Rows, []string{
			st.SrNo, st.Name, st.Class, st.Mobile, st.FatherName, st.MotherName, string(st.Category), st.AadharNo,
		})
	}

	switch format {
	case ExportCSV:
		content, err := export.RenderCSV(reg)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{Content: content, ContentType: "text/csv", Filename: "admission-register.csv"}, nil
	case ExportPDF:
		content, err := export.RenderPDF(reg, "Admission Register")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{Content: content, ContentType: "application/pdf", Filename: "admission-register.pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
