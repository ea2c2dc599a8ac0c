package service

import (
	"time"

	"github.com/scsvmv/vms-api/internal/models"
	appErrors "github.com/scsvmv/vms-api/pkg/errors"
	"github.com/scsvmv/vms-api/pkg/export"
)

// ExportService renders visitor data into downloadable formats. Authorization
// happens upstream; this layer is pure formatting.
type ExportService struct {
	csv  *export.CSVExporter
	pass *export.PassRenderer
}

// NewExportService creates an instance of ExportService.
func NewExportService() *ExportService {
	return &ExportService{
		csv:  export.NewCSVExporter(),
		pass: export.NewPassRenderer(),
	}
}

var logColumns = []string{
	"UID", "Name", "Designation", "Organization", "Phone", "Email",
	"Purpose", "Department", "Status", "Check In", "Check Out", "Registered",
}

// LogsCSV renders the visitor log feed as CSV.
func (s *ExportService) LogsCSV(visitors []models.VisitorRequest) ([]byte, error) {
	rows := make([]map[string]string, 0, len(visitors))
	for _, v := range visitors {
		rows = append(rows, map[string]string{
			"UID":          deref(v.VisitorUID),
			"Name":         v.Name,
			"Designation":  v.Designation,
			"Organization": v.Organization,
			"Phone":        v.Phone,
			"Email":        v.Email,
			"Purpose":      v.Purpose,
			"Department":   string(v.Department),
			"Status":       string(v.Status),
			"Check In":     stamp(v.CheckInTime),
			"Check Out":    stamp(v.CheckOutTime),
			"Registered":   v.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	out, err := s.csv.Render(export.Dataset{Headers: logColumns, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render log export")
	}
	return out, nil
}

// PassPDF renders a printable gate pass for an approved visitor.
func (s *ExportService) PassPDF(v *models.VisitorRequest) ([]byte, error) {
	if v.VisitorUID == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "visitor is not approved yet")
	}
	out, err := s.pass.Render(export.VisitorPass{
		UID:          *v.VisitorUID,
		Name:         v.Name,
		Designation:  v.Designation,
		Organization: v.Organization,
		Department:   string(v.Department),
		IssuedOn:     v.CreatedAt.UTC().Format("02 Jan 2006"),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render visitor pass")
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func stamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
