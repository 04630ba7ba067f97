package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/agrisage-labs/agrisage-go/models"
	"go.uber.org/zap"
)

// narrationLabels are the spoken field labels per language. The treatment
// text itself arrives already translated from the analysis step.
var narrationLabels = map[string]struct {
	disease    string
	confidence string
	organic    string
	chemical   string
	prevention string
	percent    string
}{
	"en": {"Disease detected:", "Confidence level:", "Organic treatment:", "Chemical treatment:", "Prevention:", "percent"},
	"te": {"గుర్తించిన వ్యాధి:", "నమ్మకం స్థాయి:", "సేంద్రీయ చికిత్స:", "రసాయన చికిత్స:", "నివారణ:", "శాతం"},
	"hi": {"पहचानी गई बीमारी:", "विश्वास स्तर:", "जैविक उपचार:", "रासायनिक उपचार:", "रोकथाम:", "प्रतिशत"},
}

// Narration builds the spoken summary of a result: disease, confidence and
// the first item of each treatment category that has one. Decorative
// symbols are stripped so the synthesizer does not read emoji aloud.
func Narration(res *models.AnalysisResult, language string) string {
	if res == nil {
		return ""
	}
	labels, ok := narrationLabels[language]
	if !ok {
		labels = narrationLabels["en"]
	}

	parts := []string{
		fmt.Sprintf("%s %s", labels.disease, res.Disease),
		fmt.Sprintf("%s %.0f %s", labels.confidence, res.Confidence, labels.percent),
	}
	if res.Treatment != nil {
		if len(res.Treatment.Organic) > 0 {
			parts = append(parts, fmt.Sprintf("%s %s", labels.organic, res.Treatment.Organic[0]))
		}
		if len(res.Treatment.Chemical) > 0 {
			parts = append(parts, fmt.Sprintf("%s %s", labels.chemical, res.Treatment.Chemical[0]))
		}
		if len(res.Treatment.Prevention) > 0 {
			parts = append(parts, fmt.Sprintf("%s %s", labels.prevention, res.Treatment.Prevention[0]))
		}
	}

	return stripDecorations(strings.Join(parts, ". "))
}

// stripDecorations removes emoji and other pictographic symbols while
// keeping letters, digits, combining marks (Telugu and Hindi matras) and
// basic punctuation.
func stripDecorations(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= 0x1F000, r == 0xFE0F, r == 0x200D:
			// Emoji blocks, variation selector, zero-width joiner.
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), unicode.IsSpace(r):
			b.WriteRune(r)
		case strings.ContainsRune(".,:;%()-'", r):
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Speak narrates the current result through the server's speech endpoint
// and stores the returned audio URL. The previous audio URL survives a
// failed request; the speaking flag never does.
func (a *App) Speak(ctx context.Context) (string, error) {
	a.mu.Lock()
	if a.result == nil {
		a.mu.Unlock()
		return "", fmt.Errorf("no analysis result to narrate")
	}
	if a.speaking {
		a.mu.Unlock()
		return "", fmt.Errorf("speech request already in progress")
	}
	a.speaking = true
	text := Narration(a.result, a.language)
	language := a.language
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.speaking = false
		a.mu.Unlock()
	}()

	url, err := a.postSpeech(ctx, text, language)
	if err != nil {
		a.logger.Error("Speech request failed", zap.Error(err))
		return "", err
	}

	a.mu.Lock()
	a.audioURL = url
	a.mu.Unlock()

	a.logger.Info("Narration ready", zap.String("audio_url", url), zap.String("language", language))
	return url, nil
}

// Speaking reports whether a narration request is in flight.
func (a *App) Speaking() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.speaking
}

// AudioURL returns the most recently generated narration URL, or empty.
func (a *App) AudioURL() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.audioURL
}

func (a *App) postSpeech(ctx context.Context, text, language string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"text":     text,
		"language": language,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/generate_audio", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach speech service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", serverError(resp, "speech generation failed")
	}

	var result struct {
		AudioURL string `json:"audio_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode speech response: %w", err)
	}
	if result.AudioURL == "" {
		return "", fmt.Errorf("speech service returned no audio URL")
	}
	return result.AudioURL, nil
}
