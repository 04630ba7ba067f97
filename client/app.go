// Package client implements the AgriSage page flow as a Go SDK: image
// selection and analysis, result rendering, narration, report download, the
// auxiliary widgets and the chat session. All shared page state lives on the
// App object; components never touch package-level variables.
package client

import (
	"net/http"
	"sync"
	"time"

	"github.com/agrisage-labs/agrisage-go/models"
	"go.uber.org/zap"
)

// HTTPDoer is the transport seam; tests swap in recorded responses.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// App holds the application state a page load would own: the selected
// image, the current analysis result, the language selection and the busy
// flags that gate each action button. Widget and chat state hang off it.
type App struct {
	baseURL string
	httpc   HTTPDoer
	logger  *zap.Logger

	mu        sync.Mutex
	language  string
	selected  *SelectedImage
	result    *models.AnalysisResult
	analyzing bool
	speaking  bool
	reporting bool
	audioURL  string

	Widgets *WidgetManager
	Chat    *ChatSession
}

// NewApp builds an App against the given server base URL, for example
// "http://localhost:8080".
func NewApp(baseURL string) *App {
	httpc := &http.Client{Timeout: 60 * time.Second}
	logger := zap.L().With(zap.String("component", "client"))

	app := &App{
		baseURL:  baseURL,
		httpc:    httpc,
		logger:   logger,
		language: "en",
	}
	app.Widgets = newWidgetManager(app)
	app.Chat = newChatSession(app)
	return app
}

// SetHTTPClient replaces the transport for every component.
func (a *App) SetHTTPClient(httpc HTTPDoer) {
	a.httpc = httpc
}

// SetGeolocator installs the location source the weather widget consults.
func (a *App) SetGeolocator(geo Geolocator) {
	a.Widgets.geo = geo
}

// SetLanguage switches the language code ("en", "te" or "hi") used for
// analysis, narration and chat.
func (a *App) SetLanguage(code string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.language = code
}

func (a *App) Language() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.language
}

// Result returns the current analysis result, or nil before the first
// successful analysis. Each new analysis overwrites it; no history is kept.
func (a *App) Result() *models.AnalysisResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}
