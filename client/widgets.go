package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/agrisage-labs/agrisage-go/models"
	"go.uber.org/zap"
)

// Widget identifies one of the auxiliary panels. At most one is open.
type Widget string

const (
	WidgetNone      Widget = ""
	WidgetWeather   Widget = "weather"
	WidgetCommunity Widget = "community"
	WidgetMarket    Widget = "market"
	WidgetTips      Widget = "tips"
)

// LoadState tracks a widget panel's fetch lifecycle.
type LoadState int

const (
	LoadIdle LoadState = iota
	LoadLoading
	LoadReady
	LoadFailed
)

// Geolocator supplies the device position for the weather widget.
type Geolocator interface {
	Position(ctx context.Context) (lat, lon float64, err error)
}

// WidgetManager owns the open/closed state of the auxiliary panels and the
// data each one fetched. Opening a panel closes whichever was open before,
// so a single field is enough to hold the whole arrangement.
type WidgetManager struct {
	app *App
	geo Geolocator

	mu     sync.Mutex
	open   Widget
	states map[Widget]LoadState
	errs   map[Widget]error

	weather *models.WeatherReport
	posts   []models.CommunityPost
	market  *models.MarketPrices
	tips    *models.FarmingTips
}

func newWidgetManager(app *App) *WidgetManager {
	return &WidgetManager{
		app:    app,
		states: make(map[Widget]LoadState),
		errs:   make(map[Widget]error),
	}
}

// Show opens the given widget, closing any other first. Opening the one
// already open is a no-op, so re-clicking a navigation item never flickers
// the panel. A panel whose data has not loaded yet kicks off the fetch.
func (m *WidgetManager) Show(ctx context.Context, w Widget) {
	m.mu.Lock()
	m.open = w
	needsLoad := m.states[w] == LoadIdle || m.states[w] == LoadFailed
	m.mu.Unlock()

	if needsLoad {
		m.load(ctx, w)
	}
}

// CloseAll closes whichever widget is open. Fetched data is kept.
func (m *WidgetManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = WidgetNone
}

// Open returns the currently open widget, WidgetNone when all are closed.
func (m *WidgetManager) Open() Widget {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// ActiveNav names the highlighted navigation entry: the open widget, or
// "home" when every panel is closed.
func (m *WidgetManager) ActiveNav() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open == WidgetNone {
		return "home"
	}
	return string(m.open)
}

// State returns the fetch state of the given widget.
func (m *WidgetManager) State(w Widget) LoadState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[w]
}

// Err returns the error from the widget's last failed fetch, nil otherwise.
func (m *WidgetManager) Err(w Widget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errs[w]
}

// Reload re-fetches the given widget's data regardless of its state, for
// retry buttons on failed panels.
func (m *WidgetManager) Reload(ctx context.Context, w Widget) {
	m.load(ctx, w)
}

func (m *WidgetManager) load(ctx context.Context, w Widget) {
	m.mu.Lock()
	m.states[w] = LoadLoading
	m.errs[w] = nil
	m.mu.Unlock()

	var err error
	switch w {
	case WidgetWeather:
		err = m.loadWeather(ctx)
	case WidgetCommunity:
		err = m.loadCommunity(ctx)
	case WidgetMarket:
		err = m.loadMarket(ctx)
	case WidgetTips:
		err = m.loadTips(ctx)
	default:
		err = fmt.Errorf("unknown widget %q", w)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.states[w] = LoadFailed
		m.errs[w] = err
		m.app.logger.Error("Widget load failed", zap.String("widget", string(w)), zap.Error(err))
		return
	}
	m.states[w] = LoadReady
}

// Weather returns the fetched weather report, nil before the first load.
func (m *WidgetManager) Weather() *models.WeatherReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.weather
}

func (m *WidgetManager) CommunityPosts() []models.CommunityPost {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.posts
}

func (m *WidgetManager) MarketPrices() *models.MarketPrices {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.market
}

func (m *WidgetManager) FarmingTips() *models.FarmingTips {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tips
}

func (m *WidgetManager) loadWeather(ctx context.Context) error {
	if m.geo == nil {
		return fmt.Errorf("no geolocator configured")
	}
	lat, lon, err := m.geo.Position(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve position: %w", err)
	}

	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	var report models.WeatherReport
	if err := m.getJSON(ctx, "/weather?"+query.Encode(), &report); err != nil {
		return err
	}
	m.mu.Lock()
	m.weather = &report
	m.mu.Unlock()
	return nil
}

func (m *WidgetManager) loadCommunity(ctx context.Context) error {
	var posts []models.CommunityPost
	if err := m.getJSON(ctx, "/community_posts", &posts); err != nil {
		return err
	}
	m.mu.Lock()
	m.posts = posts
	m.mu.Unlock()
	return nil
}

func (m *WidgetManager) loadMarket(ctx context.Context) error {
	var market models.MarketPrices
	if err := m.getJSON(ctx, "/market_prices", &market); err != nil {
		return err
	}
	m.mu.Lock()
	m.market = &market
	m.mu.Unlock()
	return nil
}

func (m *WidgetManager) loadTips(ctx context.Context) error {
	var tips models.FarmingTips
	if err := m.getJSON(ctx, "/farming_tips", &tips); err != nil {
		return err
	}
	m.mu.Lock()
	m.tips = &tips
	m.mu.Unlock()
	return nil
}

func (m *WidgetManager) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.app.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.app.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return serverError(resp, "widget fetch failed")
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
