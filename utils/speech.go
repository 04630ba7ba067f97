package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	speakapi "github.com/deepgram/deepgram-go-sdk/pkg/api/speak/v1/rest"
	dginterfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces"
	speakclient "github.com/deepgram/deepgram-go-sdk/pkg/client/speak"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const googleTTSEndpoint = "https://translate.google.com/translate_tts"

// SpeechSynthesizer renders narration text to MP3 files under a static
// directory and returns the URL path clients load into an audio element.
// English goes through Deepgram's Aura voices; the Aura models are
// English-only, so Telugu and Hindi use the Google TTS endpoint instead.
type SpeechSynthesizer struct {
	dir    string
	client *http.Client
	logger *zap.Logger
}

func NewSpeechSynthesizer(dir string) (*SpeechSynthesizer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}

	return &SpeechSynthesizer{
		dir:    dir,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: zap.L().With(zap.String("component", "speech")),
	}, nil
}

// Synthesize writes an MP3 for the text and returns its /static/audio URL.
func (s *SpeechSynthesizer) Synthesize(ctx context.Context, text, language string) (string, error) {
	name := uuid.New().String() + ".mp3"
	path := filepath.Join(s.dir, name)

	var err error
	if language == "en" || language == "" {
		err = s.synthesizeDeepgram(ctx, text, path)
	} else {
		err = s.synthesizeGoogle(ctx, text, language, path)
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}

	s.logger.Info("Audio generated", zap.String("file", name), zap.String("language", language))
	return "/static/audio/" + name, nil
}

func (s *SpeechSynthesizer) synthesizeDeepgram(ctx context.Context, text, path string) error {
	options := &dginterfaces.SpeakOptions{
		Model: "aura-asteria-en",
	}

	dg := speakapi.New(speakclient.NewRESTWithDefaults())
	if _, err := dg.ToSave(ctx, path, text, options); err != nil {
		return fmt.Errorf("deepgram synthesis failed: %w", err)
	}
	return nil
}

func (s *SpeechSynthesizer) synthesizeGoogle(ctx context.Context, text, language, path string) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", language)
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, "GET", googleTTSEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts endpoint returned status %d", resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	return nil
}
