package utils

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/agrisage-labs/agrisage-go/models"
)

// ReportGenerator renders an analysis result into the downloadable PDF
// report.
type ReportGenerator struct{}

func NewReportGenerator() *ReportGenerator {
	return &ReportGenerator{}
}

// Generate builds the report document and returns its bytes.
func (g *ReportGenerator) Generate(res *models.AnalysisResult) ([]byte, error) {
	now := time.Now()

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(25, 25, 25)
	pdf.AddPage()

	// Title
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(102, 126, 234)
	pdf.CellFormat(0, 12, "AgriSage - Crop Disease Analysis Report", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	// Report metadata
	pdf.SetTextColor(51, 51, 51)
	g.infoRow(pdf, "Report Date:", now.Format("January 2, 2006 at 3:04 PM"))
	g.infoRow(pdf, "Analysis Method:", "AI-Powered Detection")
	g.infoRow(pdf, "Report ID:", "AGS-"+now.Format("20060102_150405"))
	pdf.Ln(10)

	// Detection results
	g.heading(pdf, "Disease Detection Results")
	disease := res.Disease
	if disease == "" {
		disease = "Unknown"
	}
	g.infoRow(pdf, "Disease Detected:", disease)
	g.infoRow(pdf, "Confidence Level:", fmt.Sprintf("%.0f%%", res.Confidence))
	g.infoRow(pdf, "Risk Level:", riskLevel(res.Confidence))
	pdf.Ln(10)

	// Treatment sections, capped at five items each
	if res.Treatment != nil {
		g.heading(pdf, "Treatment Recommendations")
		g.bulletSection(pdf, "Organic Treatment Options:", res.Treatment.Organic)
		g.bulletSection(pdf, "Chemical Treatment Options:", res.Treatment.Chemical)
		g.bulletSection(pdf, "Prevention Methods:", res.Treatment.Prevention)
	}

	g.heading(pdf, "General Recommendations")
	for _, rec := range []string{
		"Regularly monitor your crops for any changes in symptoms",
		"Maintain proper field sanitation and remove infected plant debris",
		"Ensure adequate spacing between plants for air circulation",
		"Follow integrated pest management (IPM) practices",
		"Keep records of treatments applied and their effectiveness",
		"Consult with local agricultural experts for severe cases",
	} {
		g.bullet(pdf, rec)
	}

	// Footer
	pdf.Ln(14)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(136, 136, 136)
	pdf.MultiCell(0, 5, "This report is generated by the AgriSage AI system. For best results, combine these recommendations with local agricultural expertise.", "", "C", false)
	pdf.CellFormat(0, 5, fmt.Sprintf("(c) %d AgriSage - Empowering Farmers with AI", now.Year()), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *ReportGenerator) heading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 15)
	pdf.SetTextColor(51, 51, 51)
	pdf.CellFormat(0, 9, text, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func (g *ReportGenerator) infoRow(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(50, 8, label, "1", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 8, value, "1", 1, "L", false, 0, "")
}

func (g *ReportGenerator) bulletSection(pdf *fpdf.Fpdf, title string, items []string) {
	if len(items) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(85, 85, 85)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	if len(items) > 5 {
		items = items[:5]
	}
	for _, item := range items {
		g.bullet(pdf, item)
	}
	pdf.Ln(4)
}

func (g *ReportGenerator) bullet(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(85, 85, 85)
	pdf.MultiCell(0, 6, "- "+text, "", "L", false)
}

func riskLevel(confidence float64) string {
	switch {
	case confidence >= 80:
		return "High Risk - Immediate Action Required"
	case confidence >= 60:
		return "Medium Risk - Monitor Closely"
	case confidence >= 40:
		return "Low Risk - Preventive Measures Advised"
	default:
		return "Uncertain - Further Inspection Needed"
	}
}
