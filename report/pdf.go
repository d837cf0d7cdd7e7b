package report

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"

	"riceguard/models"
)

// GeneratePDF renders a persisted detection as a PDF report: a detail
// block, the original and annotated images when present on disk, and
// the three guidance sections as bullet lists. originalPath and
// resultPath are filesystem paths; missing files skip their section.
func GeneratePDF(det *models.DetectionResult, originalPath, resultPath string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("RiceGuard AI - Disease Detection Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 12, "RiceGuard AI - Disease Detection Report", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	heading(pdf, "Detection Details")
	detail(pdf, "Disease", det.Disease)
	detail(pdf, "Confidence", fmt.Sprintf("%.2f%%", det.Confidence))
	detail(pdf, "Severity", det.Severity)
	detail(pdf, "Lesion count", fmt.Sprintf("%d", det.LesionCount))
	detail(pdf, "Description", det.Description)
	detail(pdf, "Date", det.Timestamp)

	addImage(pdf, "Original Image", originalPath)
	addImage(pdf, "Detection Result", resultPath)

	bulletSection(pdf, "Symptoms Identified", det.Symptoms)
	bulletSection(pdf, "Recommended Treatment", det.Treatment)
	bulletSection(pdf, "Prevention Measures", det.Prevention)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func heading(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func detail(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(32, 6, label+":", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, value, "", "L", false)
}

func bulletSection(pdf *gofpdf.Fpdf, title string, items []string) {
	if len(items) == 0 {
		return
	}
	heading(pdf, title)
	for _, item := range items {
		pdf.CellFormat(6, 6, "-", "", 0, "R", false, 0, "")
		pdf.MultiCell(0, 6, item, "", "L", false)
	}
}

// addImage embeds an image if the file exists; a missing file just
// skips the section, matching the report's best-effort nature.
func addImage(pdf *gofpdf.Fpdf, title, path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	heading(pdf, title)
	opts := gofpdf.ImageOptions{ImageType: "", ReadDpi: true}
	pdf.ImageOptions(path, pdf.GetX()+10, pdf.GetY(), 100, 0, true, opts, 0, "")
	pdf.Ln(4)
}
