package models

// CurrentWeather mirrors the current-conditions block of the weather
// endpoint contract.
type CurrentWeather struct {
	Temp        float64 `json:"temp"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Pressure    int     `json:"pressure"`
	Description string  `json:"description"`
}

type ForecastDay struct {
	Date        string  `json:"date"`
	Temp        float64 `json:"temp"`
	Humidity    int     `json:"humidity"`
	Description string  `json:"description"`
}

type WeatherReport struct {
	Location      string         `json:"location"`
	Country       string         `json:"country"`
	Current       CurrentWeather `json:"current"`
	Forecast      []ForecastDay  `json:"forecast"`
	FarmingAdvice []string       `json:"farming_advice"`
}

type CommunityPost struct {
	ID        int      `json:"id"`
	Author    string   `json:"author"`
	Location  string   `json:"location"`
	Timestamp string   `json:"timestamp"`
	Content   string   `json:"content"`
	Image     string   `json:"image,omitempty"`
	Tags      []string `json:"tags"`
	Likes     int      `json:"likes"`
	Comments  int      `json:"comments"`
}

type CropPrice struct {
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Unit   string  `json:"unit"`
	Trend  string  `json:"trend"` // "up", "down" or "stable"
	Change float64 `json:"change"`
}

type MarketPrices struct {
	Market  string      `json:"market"`
	Updated string      `json:"updated"`
	Crops   []CropPrice `json:"crops"`
}

type Tip struct {
	Icon     string `json:"icon"`
	Category string `json:"category"`
	Tip      string `json:"tip"`
}

type FarmingTips struct {
	TipOfDay Tip   `json:"tip_of_day"`
	AllTips  []Tip `json:"all_tips"`
}
