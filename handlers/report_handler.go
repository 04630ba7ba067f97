package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/agrisage-labs/agrisage-go/models"
	"go.uber.org/zap"
)

type ReportRenderer interface {
	Generate(res *models.AnalysisResult) ([]byte, error)
}

// ReportHandler implements POST /generate_report: the full analysis result
// in, a PDF attachment out.
type ReportHandler struct {
	Reports ReportRenderer
	Logger  *zap.Logger
}

const reportFilename = "agrisage_report.pdf"

func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var result models.AnalysisResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if result.Disease == "" {
		result.Disease = "Unknown"
	}

	pdfBytes, err := h.Reports.Generate(&result)
	if err != nil {
		h.Logger.Error("Report generation failed", zap.String("disease", result.Disease), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Report generation failed")
		return
	}

	h.Logger.Info("Report generated", zap.String("disease", result.Disease), zap.Int("bytes", len(pdfBytes)))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+reportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}
