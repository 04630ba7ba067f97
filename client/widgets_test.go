package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/agrisage-labs/agrisage-go/models"
)

type fixedGeolocator struct {
	lat, lon float64
	err      error
}

func (g fixedGeolocator) Position(ctx context.Context) (float64, float64, error) {
	return g.lat, g.lon, g.err
}

func widgetServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/weather", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lat") == "" || r.URL.Query().Get("lon") == "" {
			t.Error("weather request missing coordinates")
		}
		json.NewEncoder(w).Encode(models.WeatherReport{Location: "Guntur", Country: "IN"})
	})
	mux.HandleFunc("/community_posts", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.CommunityPost{{Author: "Ravi", Content: "Yellow leaves on my chilli crop"}})
	})
	mux.HandleFunc("/market_prices", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.MarketPrices{Market: "Guntur Agricultural Market"})
	})
	mux.HandleFunc("/farming_tips", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.FarmingTips{TipOfDay: models.Tip{Tip: "Mulch around young plants"}})
	})
	return httptest.NewServer(mux)
}

func TestShowIsIdempotent(t *testing.T) {
	server := widgetServer(t)
	defer server.Close()

	app := NewApp(server.URL)
	m := app.Widgets

	if m.Open() != WidgetNone {
		t.Fatal("all widgets should start closed")
	}

	m.Show(context.Background(), WidgetMarket)
	if m.Open() != WidgetMarket {
		t.Errorf("open = %q, want market", m.Open())
	}

	// Opening the open widget again keeps it visible.
	m.Show(context.Background(), WidgetMarket)
	if m.Open() != WidgetMarket {
		t.Errorf("open = %q, want market still open", m.Open())
	}
}

func TestShowIsExclusive(t *testing.T) {
	server := widgetServer(t)
	defer server.Close()

	app := NewApp(server.URL)
	m := app.Widgets

	m.Show(context.Background(), WidgetWeather)
	m.Show(context.Background(), WidgetMarket)

	if m.Open() != WidgetMarket {
		t.Errorf("open = %q, want market", m.Open())
	}
	if m.ActiveNav() != "market" {
		t.Errorf("active nav = %q, want market", m.ActiveNav())
	}
}

func TestCloseAllKeepsData(t *testing.T) {
	server := widgetServer(t)
	defer server.Close()

	app := NewApp(server.URL)
	m := app.Widgets

	m.Show(context.Background(), WidgetTips)
	if m.FarmingTips() == nil {
		t.Fatal("tips should be loaded after opening")
	}

	m.CloseAll()
	if m.Open() != WidgetNone {
		t.Error("close all should close the open widget")
	}
	if m.ActiveNav() != "home" {
		t.Errorf("active nav = %q, want home", m.ActiveNav())
	}
	if m.FarmingTips() == nil {
		t.Error("fetched data should survive closing")
	}
}

func TestWeatherWidgetUsesGeolocator(t *testing.T) {
	server := widgetServer(t)
	defer server.Close()

	app := NewApp(server.URL)
	app.SetGeolocator(fixedGeolocator{lat: 16.3, lon: 80.4})

	app.Widgets.Show(context.Background(), WidgetWeather)

	if app.Widgets.State(WidgetWeather) != LoadReady {
		t.Fatalf("state = %v, err = %v", app.Widgets.State(WidgetWeather), app.Widgets.Err(WidgetWeather))
	}
	if got := app.Widgets.Weather(); got == nil || got.Location != "Guntur" {
		t.Errorf("weather = %+v", got)
	}
}

func TestWeatherWidgetGeolocationFailure(t *testing.T) {
	server := widgetServer(t)
	defer server.Close()

	app := NewApp(server.URL)
	app.SetGeolocator(fixedGeolocator{err: fmt.Errorf("permission denied")})

	app.Widgets.Show(context.Background(), WidgetWeather)

	if app.Widgets.State(WidgetWeather) != LoadFailed {
		t.Errorf("state = %v, want failed", app.Widgets.State(WidgetWeather))
	}
	if app.Widgets.Err(WidgetWeather) == nil {
		t.Error("error should be recorded")
	}
}

func TestReloadRecoversFromFailure(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(models.MarketPrices{Market: "Guntur Agricultural Market"})
	}))
	defer server.Close()

	app := NewApp(server.URL)
	m := app.Widgets

	m.Show(context.Background(), WidgetMarket)
	if m.State(WidgetMarket) != LoadFailed {
		t.Fatalf("state = %v, want failed", m.State(WidgetMarket))
	}

	fail.Store(false)
	m.Reload(context.Background(), WidgetMarket)

	if m.State(WidgetMarket) != LoadReady {
		t.Fatalf("state = %v, err = %v", m.State(WidgetMarket), m.Err(WidgetMarket))
	}
	if m.Err(WidgetMarket) != nil {
		t.Error("error should be cleared after a successful reload")
	}
	if got := m.MarketPrices(); got == nil || got.Market != "Guntur Agricultural Market" {
		t.Errorf("market = %+v", got)
	}
}

func TestReopenDoesNotRefetch(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(models.FarmingTips{TipOfDay: models.Tip{Tip: "Mulch around young plants"}})
	}))
	defer server.Close()

	app := NewApp(server.URL)
	m := app.Widgets

	m.Show(context.Background(), WidgetTips)
	m.CloseAll()
	m.Show(context.Background(), WidgetTips)

	if got := calls.Load(); got != 1 {
		t.Errorf("fetch count = %d, want 1", got)
	}
}
