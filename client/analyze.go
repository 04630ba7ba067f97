package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/agrisage-labs/agrisage-go/models"
	"go.uber.org/zap"
)

// Analyze submits the staged image to the server and stores the analysis
// result. Only one analysis runs at a time; a second call while one is in
// flight returns an error immediately. The analyzing flag is cleared on
// every exit path so the action never sticks disabled.
func (a *App) Analyze(ctx context.Context) (*models.AnalysisResult, error) {
	a.mu.Lock()
	if a.selected == nil {
		a.mu.Unlock()
		return nil, ErrNoImageSelected
	}
	if a.analyzing {
		a.mu.Unlock()
		return nil, fmt.Errorf("analysis already in progress")
	}
	a.analyzing = true
	img := a.selected
	language := a.language
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.analyzing = false
		a.mu.Unlock()
	}()

	a.logger.Info("Submitting image for analysis",
		zap.String("filename", img.Name),
		zap.Int("bytes", len(img.Data)),
		zap.String("language", language))

	result, err := a.postAnalyze(ctx, img, language)
	if err != nil {
		a.logger.Error("Analysis failed", zap.Error(err))
		return nil, err
	}

	a.mu.Lock()
	a.result = result
	a.audioURL = ""
	a.mu.Unlock()

	return result, nil
}

// Analyzing reports whether an analysis request is in flight.
func (a *App) Analyzing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.analyzing
}

func (a *App) postAnalyze(ctx context.Context, img *SelectedImage, language string) (*models.AnalysisResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", img.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.WriteField("language", language); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/analyze", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach analysis service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, serverError(resp, "analysis failed")
	}

	var result models.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", err)
	}
	return &result, nil
}

// serverError prefers the server's error message when one is present in the
// {"error": "..."} envelope, falling back to the given summary.
func serverError(resp *http.Response, fallback string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("%s", payload.Error)
	}
	return fmt.Errorf("%s: status %d", fallback, resp.StatusCode)
}
