package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// ReportFilename is the suggested name for downloaded reports.
const ReportFilename = "agrisage_report.pdf"

// DownloadReport fetches the PDF report for the current result and hands it
// to save, typically a callback that writes the file to disk. The reporting
// flag is cleared on every exit path.
func (a *App) DownloadReport(ctx context.Context, save func(filename string, data []byte) error) error {
	a.mu.Lock()
	if a.result == nil {
		a.mu.Unlock()
		return fmt.Errorf("no analysis result to report")
	}
	if a.reporting {
		a.mu.Unlock()
		return fmt.Errorf("report download already in progress")
	}
	a.reporting = true
	result := a.result
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.reporting = false
		a.mu.Unlock()
	}()

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/generate_report", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpc.Do(req)
	if err != nil {
		a.logger.Error("Report request failed", zap.Error(err))
		return fmt.Errorf("failed to reach report service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := serverError(resp, "report generation failed")
		a.logger.Error("Report request failed", zap.Error(err))
		return err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}

	a.logger.Info("Report downloaded", zap.String("disease", result.Disease), zap.Int("bytes", len(data)))
	return save(ReportFilename, data)
}

// Reporting reports whether a report download is in flight.
func (a *App) Reporting() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reporting
}
