package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/agrisage-labs/agrisage-go/models"
	"go.uber.org/zap"
)

const translateEndpoint = "https://translate.googleapis.com/translate_a/single"

// Translator converts English result text into the user's language using the
// public Google Translate endpoint, with an agricultural-term dictionary
// applied first so domain words survive the round trip.
type Translator struct {
	Endpoint string
	Client   *http.Client

	mu    sync.Mutex
	cache map[string]string
}

// Common agricultural terms keyed by target language. Applied before the
// remote call, same order as defined.
var agriTerms = map[string]map[string]string{
	"te": {
		"disease":    "వ్యాధి",
		"healthy":    "ఆరోగ్యకరమైన",
		"plant":      "మొక్క",
		"crop":       "పంట",
		"treatment":  "చికిత్స",
		"organic":    "సేంద్రీయ",
		"chemical":   "రసాయన",
		"prevention": "నివారణ",
		"blight":     "కాటుక",
		"mildew":     "బూజు",
		"rust":       "తుప్పు",
		"fungal":     "శిలీంధ్ర",
		"pest":       "పురుగు",
		"fertilizer": "ఎరువు",
		"irrigation": "నీటిపారుదల",
	},
	"hi": {
		"disease":    "रोग",
		"healthy":    "स्वस्थ",
		"plant":      "पौधा",
		"crop":       "फसल",
		"treatment":  "उपचार",
		"organic":    "जैविक",
		"chemical":   "रासायनिक",
		"prevention": "रोकथाम",
		"blight":     "झुलसा",
		"mildew":     "फफूंदी",
		"rust":       "जंग",
		"fungal":     "कवक",
		"pest":       "कीट",
		"fertilizer": "उर्वरक",
		"irrigation": "सिंचाई",
	},
}

func NewTranslator() *Translator {
	return &Translator{
		Endpoint: translateEndpoint,
		Client:   &http.Client{Timeout: 15 * time.Second},
		cache:    make(map[string]string),
	}
}

// Translate returns text in targetLang. Translation failures are logged and
// the English input is returned unchanged; a missing translation never fails
// an analysis.
func (t *Translator) Translate(ctx context.Context, text, targetLang string) string {
	if text == "" || targetLang == "" || targetLang == "en" {
		return text
	}

	cacheKey := text + "_" + targetLang
	t.mu.Lock()
	if cached, ok := t.cache[cacheKey]; ok {
		t.mu.Unlock()
		return cached
	}
	t.mu.Unlock()

	prepared := applyAgriTerms(text, targetLang)

	translated, err := t.remoteTranslate(ctx, prepared, targetLang)
	if err != nil {
		zap.L().Error("Translation failed", zap.String("lang", targetLang), zap.Error(err))
		return text
	}

	t.mu.Lock()
	t.cache[cacheKey] = translated
	t.mu.Unlock()

	return translated
}

// TranslateResult localizes the disease name and every treatment list in
// place.
func (t *Translator) TranslateResult(ctx context.Context, res *models.AnalysisResult, targetLang string) {
	if res == nil || targetLang == "" || targetLang == "en" {
		return
	}

	res.Disease = t.Translate(ctx, res.Disease, targetLang)
	if res.Treatment == nil {
		return
	}
	for _, items := range [][]string{res.Treatment.Organic, res.Treatment.Chemical, res.Treatment.Prevention} {
		for i, item := range items {
			items[i] = t.Translate(ctx, item, targetLang)
		}
	}
}

func applyAgriTerms(text, targetLang string) string {
	terms, ok := agriTerms[targetLang]
	if !ok {
		return text
	}
	for eng, local := range terms {
		if strings.Contains(strings.ToLower(text), eng) {
			text = strings.ReplaceAll(text, eng, local)
			text = strings.ReplaceAll(text, strings.Title(eng), local)
		}
	}
	return text
}

func (t *Translator) remoteTranslate(ctx context.Context, text, targetLang string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "en")
	params.Set("tl", targetLang)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, "GET", t.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate endpoint returned status %d", resp.StatusCode)
	}

	return parseTranslatePayload(bodyBytes)
}

// parseTranslatePayload unwraps the nested-array payload of the gtx endpoint:
// [[["translated","source",...],...],...]
func parseTranslatePayload(body []byte) (string, error) {
	var payload []interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to unmarshal translate payload: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("empty translate payload")
	}

	segments, ok := payload[0].([]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected translate payload shape")
	}

	var sb strings.Builder
	for _, seg := range segments {
		pair, ok := seg.([]interface{})
		if !ok || len(pair) == 0 {
			continue
		}
		if s, ok := pair[0].(string); ok {
			sb.WriteString(s)
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("no translated segments in payload")
	}
	return sb.String(), nil
}
