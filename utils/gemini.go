package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/agrisage-labs/agrisage-go/models"
	"go.uber.org/zap"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

type GeminiClient struct {
	APIKey   string
	Model    string
	Endpoint string
	Client   *http.Client
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func NewGeminiClient() *GeminiClient {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		zap.L().Warn("GEMINI_API_KEY environment variable not set, Gemini detection disabled")
	}

	return &GeminiClient{
		APIKey:   apiKey,
		Model:    "gemini-1.5-flash",
		Endpoint: geminiEndpoint,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *GeminiClient) Configured() bool {
	return c != nil && c.APIKey != ""
}

const detectionPrompt = `You are an expert plant pathologist. Analyze this plant image and provide:

1. Plant/Crop Type (if identifiable)
2. Disease Name (or "Healthy" if no disease)
3. Confidence Level (0-100)
4. Pathogen Name (if diseased)
5. Key Symptoms observed
6. Severity (Low/Medium/High)

Please respond in this exact format:
CROP: [crop name]
DISEASE: [disease name or Healthy]
CONFIDENCE: [number]
PATHOGEN: [pathogen name or None]
SYMPTOMS: [comma-separated symptoms]
SEVERITY: [Low/Medium/High/None]

Be specific and accurate. If you cannot identify a disease, state "Healthy" or "Unknown".`

// DetectDisease sends the image to Gemini with the structured detection
// prompt and parses the line-oriented reply.
func (c *GeminiClient) DetectDisease(ctx context.Context, imageData []byte, mimeType string) (*models.Detection, error) {
	text, err := c.generate(ctx, []geminiPart{
		{Text: detectionPrompt},
		{InlineData: &geminiInlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(imageData),
		}},
	})
	if err != nil {
		return nil, err
	}

	result := ParseDetection(text)
	result.Provider = "Gemini AI"
	return result, nil
}

// GenerateText runs a plain text prompt.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, []geminiPart{{Text: prompt}})
}

// GenerateWithImage runs a prompt alongside an inline image.
func (c *GeminiClient) GenerateWithImage(ctx context.Context, prompt string, imageData []byte, mimeType string) (string, error) {
	return c.generate(ctx, []geminiPart{
		{Text: prompt},
		{InlineData: &geminiInlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(imageData),
		}},
	})
}

func (c *GeminiClient) generate(ctx context.Context, parts []geminiPart) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("gemini client not configured")
	}

	requestBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": parts},
		},
	}

	requestBodyBytes, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.Endpoint, c.Model, c.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var response geminiResponse
	if err := json.Unmarshal(bodyBytes, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal response JSON: %w", err)
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in Gemini API response")
	}

	text := response.Candidates[0].Content.Parts[0].Text
	zap.L().Debug("Gemini response content", zap.String("content", text))
	return text, nil
}

var confidencePattern = regexp.MustCompile(`\d+`)

// ParseDetection parses the CROP/DISEASE/CONFIDENCE/... line format the
// detection prompt asks for. Missing fields keep their defaults, and a
// "healthy"/"no disease"/"none" verdict is normalized to "Healthy Plant".
func ParseDetection(text string) *models.Detection {
	result := &models.Detection{
		Disease:    "Unknown",
		Confidence: 75,
		Severity:   "Unknown",
	}

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		switch {
		case strings.Contains(line, "DISEASE:"):
			if v := afterTag(line, "DISEASE:"); v != "" {
				result.Disease = v
			}
		case strings.Contains(line, "CONFIDENCE:"):
			if m := confidencePattern.FindString(line); m != "" {
				n, _ := strconv.Atoi(m)
				if n < 0 {
					n = 0
				}
				if n > 100 {
					n = 100
				}
				result.Confidence = float64(n)
			}
		case strings.Contains(line, "PATHOGEN:"):
			if v := afterTag(line, "PATHOGEN:"); v != "" && !strings.EqualFold(v, "none") {
				result.Pathogen = v
			}
		case strings.Contains(line, "SYMPTOMS:"):
			for _, s := range strings.Split(afterTag(line, "SYMPTOMS:"), ",") {
				if s = strings.TrimSpace(s); s != "" {
					result.Symptoms = append(result.Symptoms, s)
				}
			}
		case strings.Contains(line, "SEVERITY:"):
			if v := afterTag(line, "SEVERITY:"); v != "" {
				result.Severity = v
			}
		case strings.Contains(line, "CROP:"):
			result.Crop = afterTag(line, "CROP:")
		}
	}

	switch strings.ToLower(result.Disease) {
	case "healthy", "no disease", "none":
		result.Disease = "Healthy Plant"
		result.Confidence = 95
		result.Severity = "None"
	}

	return result
}

func afterTag(line, tag string) string {
	parts := strings.SplitN(line, tag, 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
