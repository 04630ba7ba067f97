package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/agrisage-labs/agrisage-go/models"
	"go.uber.org/zap"
)

const hfModelEndpoint = "https://api-inference.huggingface.co/models/linkanjarad/mobilenet_v2_1.0_224-plant-disease-identification"

// HuggingFaceClient calls the hosted plant-disease classifier. It is the
// secondary detection provider behind Gemini.
type HuggingFaceClient struct {
	Token    string
	Endpoint string
	Client   *http.Client
}

func NewHuggingFaceClient() *HuggingFaceClient {
	token := os.Getenv("HF_TOKEN")
	if token == "" {
		zap.L().Warn("HF_TOKEN environment variable not set, classifier fallback disabled")
	}

	return &HuggingFaceClient{
		Token:    token,
		Endpoint: hfModelEndpoint,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HuggingFaceClient) Configured() bool {
	return c != nil && c.Token != ""
}

// ClassifyImage posts the raw image bytes to the inference endpoint and maps
// the top label to a Detection.
func (c *HuggingFaceClient) ClassifyImage(ctx context.Context, imageData []byte) (*models.Detection, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("huggingface client not configured")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.Endpoint, bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HuggingFace API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var results []struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal(bodyBytes, &results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response JSON: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("empty classification result")
	}

	top := results[0]
	return &models.Detection{
		Disease:    FormatDiseaseLabel(top.Label),
		Confidence: float64(int(top.Score*10000)) / 100, // two decimals
		Severity:   "Unknown",
		Provider:   "HuggingFace",
	}, nil
}

// FormatDiseaseLabel turns dataset labels like "Tomato___Early_Blight" into
// a readable "Tomato - Early Blight".
func FormatDiseaseLabel(label string) string {
	if strings.Contains(label, "___") {
		parts := strings.SplitN(label, "___", 2)
		plant := titleWords(strings.ReplaceAll(parts[0], "_", " "))
		disease := titleWords(strings.ReplaceAll(parts[1], "_", " "))
		return plant + " - " + disease
	}
	return titleWords(strings.ReplaceAll(label, "_", " "))
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
