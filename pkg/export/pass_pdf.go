package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// VisitorPass holds the fields printed onto a gate pass.
type VisitorPass struct {
	UID          string
	Name         string
	Designation  string
	Organization string
	Department   string
	IssuedOn     string
}

// PassRenderer renders a printable A5 visitor pass.
type PassRenderer struct{}

// NewPassRenderer constructs a pass renderer.
func NewPassRenderer() *PassRenderer {
	return &PassRenderer{}
}

// Render produces the PDF bytes for one visitor pass.
func (r *PassRenderer) Render(pass VisitorPass) ([]byte, error) {
	if pass.UID == "" {
		return nil, fmt.Errorf("pass requires a visitor uid")
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 14, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 15)
	pdf.CellFormat(0, 9, "SCSVMV VISITOR PASS", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, "Present this pass at the security gate", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Courier", "B", 22)
	pdf.CellFormat(0, 14, pass.UID, "1", 1, "C", false, 0, "")
	pdf.Ln(6)

	rows := [][2]string{
		{"Name", pass.Name},
		{"Designation", pass.Designation},
		{"Organization", pass.Organization},
		{"Department", pass.Department},
		{"Issued On", pass.IssuedOn},
	}
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 8, row[0], "B", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 8, row[1], "B", 1, "", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 5, "Valid for a single visit. Check-in and check-out are recorded at the gate.", "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pass pdf: %w", err)
	}
	return buf.Bytes(), nil
}
