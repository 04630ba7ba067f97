package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/agrisage-labs/agrisage-go/models"
	"go.uber.org/zap"
)

type WeatherProvider interface {
	Report(ctx context.Context, lat, lon float64) (*models.WeatherReport, error)
}

// WeatherHandler implements GET /weather?lat=&lon=.
type WeatherHandler struct {
	Weather WeatherProvider
	Logger  *zap.Logger
}

func (h *WeatherHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		writeError(w, http.StatusBadRequest, "Valid lat and lon query parameters are required")
		return
	}

	report, err := h.Weather.Report(r.Context(), lat, lon)
	if err != nil {
		h.Logger.Error("Weather fetch failed", zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		writeError(w, http.StatusBadGateway, "Weather data is currently unavailable")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

type WidgetContent interface {
	CommunityPosts(ctx context.Context) []models.CommunityPost
	MarketPrices(ctx context.Context) models.MarketPrices
	FarmingTips(ctx context.Context) models.FarmingTips
}

// ContentHandler serves the community feed, market prices and farming tips
// endpoints from the content store.
type ContentHandler struct {
	Content WidgetContent
}

func (h *ContentHandler) Community(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Content.CommunityPosts(r.Context()))
}

func (h *ContentHandler) Market(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Content.MarketPrices(r.Context()))
}

func (h *ContentHandler) Tips(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Content.FarmingTips(r.Context()))
}

// HealthCheckHandler reports liveness.
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
