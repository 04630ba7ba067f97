package utils

import (
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

const openWeatherEndpoint = "https://api.openweathermap.org/data/2.5"

// WeatherClient maps OpenWeatherMap current conditions and the 3-hourly
// forecast into the report shape the weather widget renders, with farming
// advice derived from the conditions.
type WeatherClient struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

func NewWeatherClient() *WeatherClient {
	apiKey := os.Getenv("OPENWEATHER_API_KEY")
	if apiKey == "" {
		zap.L().Warn("OPENWEATHER_API_KEY environment variable not set, weather widget disabled")
	}

	return &WeatherClient{
		APIKey:   apiKey,
		Endpoint: openWeatherEndpoint,
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type owCurrent struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

type owForecast struct {
	List []struct {
		DtTxt string `json:"dt_txt"`
		Main  struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
}

// Report fetches current weather and forecast for the coordinates.
func (c *WeatherClient) Report(ctx context.Context, lat, lon float64) (*models.WeatherReport, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("weather client not configured")
	}

	var current owCurrent
	currentURL := fmt.Sprintf("%s/weather?lat=%f&lon=%f&units=metric&appid=%s", c.Endpoint, lat, lon, c.APIKey)
	if err := c.fetch(ctx, currentURL, &current); err != nil {
		return nil, fmt.Errorf("current weather fetch failed: %w", err)
	}

	var forecast owForecast
	forecastURL := fmt.Sprintf("%s/forecast?lat=%f&lon=%f&units=metric&appid=%s", c.Endpoint, lat, lon, c.APIKey)
	if err := c.fetch(ctx, forecastURL, &forecast); err != nil {
		return nil, fmt.Errorf("forecast fetch failed: %w", err)
	}

	report := &models.WeatherReport{
		Location: current.Name,
		Country:  current.Sys.Country,
		Current: models.CurrentWeather{
			Temp:      current.Main.Temp,
			FeelsLike: current.Main.FeelsLike,
			Humidity:  current.Main.Humidity,
			WindSpeed: current.Wind.Speed,
			Pressure:  current.Main.Pressure,
		},
	}
	if len(current.Weather) > 0 {
		report.Current.Description = current.Weather[0].Description
	}

	// The forecast list comes in 3-hour steps; keep the midday entry of each
	// day as its representative.
	for _, entry := range forecast.List {
		if !strings.Contains(entry.DtTxt, "12:00:00") {
			continue
		}
		day := models.ForecastDay{
			Date:     strings.SplitN(entry.DtTxt, " ", 2)[0],
			Temp:     entry.Main.Temp,
			Humidity: entry.Main.Humidity,
		}
		if len(entry.Weather) > 0 {
			day.Description = entry.Weather[0].Description
		}
		report.Forecast = append(report.Forecast, day)
		if len(report.Forecast) == 5 {
			break
		}
	}

	report.FarmingAdvice = FarmingAdvice(report.Current)
	return report, nil
}

func (c *WeatherClient) fetch(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weather API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to unmarshal response JSON: %w", err)
	}
	return nil
}

// FarmingAdvice turns current conditions into actionable field guidance.
func FarmingAdvice(current models.CurrentWeather) []string {
	var advice []string

	switch {
	case current.Temp >= 35:
		advice = append(advice, "High heat: irrigate in the early morning or evening and mulch to retain moisture")
	case current.Temp <= 5:
		advice = append(advice, "Cold conditions: protect sensitive crops with row covers and delay transplanting")
	default:
		advice = append(advice, "Temperatures are favorable for most field operations")
	}

	if current.Humidity >= 80 {
		advice = append(advice, "High humidity raises fungal disease risk: inspect foliage and avoid overhead watering")
	}

	if current.WindSpeed >= 10 {
		advice = append(advice, "Strong wind: postpone pesticide and foliar spraying to avoid drift")
	}

	if strings.Contains(strings.ToLower(current.Description), "rain") {
		advice = append(advice, "Rain expected: hold off on fertilizer application and check field drainage")
	}

	return advice
}
