package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type SpeechProvider interface {
	Synthesize(ctx context.Context, text, language string) (string, error)
}

// AudioHandler implements POST /generate_audio: narration text plus a
// language code in, a playable audio URL out.
type AudioHandler struct {
	Synth  SpeechProvider
	Logger *zap.Logger
}

type audioRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (h *AudioHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req audioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "No text provided")
		return
	}
	if req.Language == "" {
		req.Language = "en"
	}

	audioURL, err := h.Synth.Synthesize(r.Context(), req.Text, req.Language)
	if err != nil {
		h.Logger.Error("Speech synthesis failed", zap.String("language", req.Language), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Audio generation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"audio_url": audioURL})
}
