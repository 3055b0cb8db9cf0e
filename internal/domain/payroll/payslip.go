package payroll

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Renderer turns one pay record into an immutable document. Implementations
// must be deterministic: the same data renders to byte-identical output.
type Renderer interface {
	Render(data PayslipData, number string) ([]byte, error)
	Extension() string
}

// PayslipNumber derives the document number from the record itself, so two
// renders of the same week always agree.
func PayslipNumber(orgCode string, employeeID int64, weekStart time.Time) string {
	year, week := weekStart.ISOWeek()
	return fmt.Sprintf("%s-%d-%04d-W%02d", orgCode, year, employeeID, week)
}

type PDFRenderer struct{}

// renderStamp pins the PDF creation date so identical inputs produce
// identical bytes.
var renderStamp = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func (PDFRenderer) Extension() string { return ".pdf" }

func (PDFRenderer) Render(data PayslipData, number string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(renderStamp)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Payslip "+number)
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s (#%d, %s)", data.EmployeeName, data.Week.EmployeeID, data.EmployeeRole))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Pay period: %s to %s",
		data.Week.WeekStart.Format("2006-01-02"), data.Week.WeekEnd.Format("2006-01-02")))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Earnings")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(120, 7, fmt.Sprintf("Base pay (%.2f hours)", data.Week.Hours))
	pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", data.Week.BaseAmount), "", 0, "R", false, 0, "")
	pdf.Ln(7)
	if data.Week.StreakBonus != 0 {
		pdf.Cell(120, 7, "Streak bonus")
		pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", data.Week.StreakBonus), "", 0, "R", false, 0, "")
		pdf.Ln(7)
	}
	pdf.Ln(4)

	if len(data.Penalties) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Deductions")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 11)
		for _, p := range data.Penalties {
			pdf.Cell(120, 7, p.Reason)
			pdf.CellFormat(40, 7, fmt.Sprintf("-%.2f", p.Amount), "", 0, "R", false, 0, "")
			pdf.Ln(7)
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(120, 8, "Net pay")
	pdf.CellFormat(40, 8, fmt.Sprintf("%.2f", data.Week.FinalAmount), "T", 0, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
