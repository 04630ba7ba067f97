package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type fakeSynth struct {
	url string
	err error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, language string) (string, error) {
	return f.url, f.err
}

func TestAudioHandler(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		synth      *fakeSynth
		wantStatus int
		wantError  string
	}{
		{
			name:       "rejects GET",
			method:     http.MethodGet,
			body:       `{"text":"hi"}`,
			synth:      &fakeSynth{url: "/static/audio/a.mp3"},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "empty text",
			method:     http.MethodPost,
			body:       `{"text":"   "}`,
			synth:      &fakeSynth{url: "/static/audio/a.mp3"},
			wantStatus: http.StatusBadRequest,
			wantError:  "No text provided",
		},
		{
			name:       "malformed body",
			method:     http.MethodPost,
			body:       `{`,
			synth:      &fakeSynth{},
			wantStatus: http.StatusBadRequest,
			wantError:  "Malformed request body",
		},
		{
			name:       "synthesis failure",
			method:     http.MethodPost,
			body:       `{"text":"Disease detected"}`,
			synth:      &fakeSynth{err: fmt.Errorf("deepgram unavailable")},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Audio generation failed",
		},
		{
			name:       "success",
			method:     http.MethodPost,
			body:       `{"text":"Disease detected","language":"te"}`,
			synth:      &fakeSynth{url: "/static/audio/a.mp3"},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &AudioHandler{Synth: tt.synth, Logger: zap.NewNop()}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/generate_audio", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantError != "" {
				var resp map[string]string
				json.NewDecoder(rec.Body).Decode(&resp)
				if resp["error"] != tt.wantError {
					t.Errorf("error = %q, want %q", resp["error"], tt.wantError)
				}
			}
			if tt.wantStatus == http.StatusOK {
				var resp map[string]string
				json.NewDecoder(rec.Body).Decode(&resp)
				if resp["audio_url"] != "/static/audio/a.mp3" {
					t.Errorf("audio_url = %q", resp["audio_url"])
				}
			}
		})
	}
}
