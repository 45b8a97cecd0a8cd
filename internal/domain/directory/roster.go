package directory

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

var rosterColumns = []struct {
	title string
	width float64
}{
	{"Name", 45},
	{"Phone", 32},
	{"Email", 58},
	{"Reports To", 55},
}

// ExportRoster writes every employee as a PDF table to w.
func (s *Service) ExportRoster(ctx context.Context, w io.Writer) error {
	employees, err := s.GetAllEmployees(ctx)
	if err != nil {
		return err
	}
	return RenderRosterPDF(w, employees, time.Now().UTC())
}

func RenderRosterPDF(w io.Writer, employees []EmployeeView, generatedAt time.Time) error {
	names := make(map[string]string, len(employees))
	for _, emp := range employees {
		names[emp.ID] = emp.EmployeeName
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Employee Roster", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Employee Roster")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s  Employees: %d", generatedAt.Format(time.RFC3339), len(employees)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	for _, col := range rosterColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, emp := range employees {
		manager := emp.ReportsTo
		if name, ok := names[manager]; ok && name != "" {
			manager = name
		}
		cells := []string{emp.EmployeeName, emp.PhoneNumber, emp.Email, manager}
		for i, col := range rosterColumns {
			pdf.CellFormat(col.width, 6, tr(cells[i]), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}
