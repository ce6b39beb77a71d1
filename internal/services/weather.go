package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5"
	defaultWeatherCountry = "IN"
)

// WeatherOptions configures WeatherService
type WeatherOptions struct {
	BaseURL string
	APIKey  string
	Country string
	Timeout time.Duration
}

// WeatherReport holds the provider's current conditions and forecast untouched
type WeatherReport struct {
	Current  json.RawMessage `json:"current"`
	Forecast json.RawMessage `json:"forecast"`
}

// ForecastSlot is one 3-hour entry of the provider forecast
type ForecastSlot struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
}

// Forecast is the decoded 5-day forecast
type Forecast struct {
	List []ForecastSlot `json:"list"`
}

// WeatherService proxies the weather provider
type WeatherService struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	country    string
}

// NewWeatherService creates a new weather service
func NewWeatherService(opts WeatherOptions) *WeatherService {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultWeatherBaseURL
	}
	country := opts.Country
	if country == "" {
		country = defaultWeatherCountry
	}
	return &WeatherService{
		httpClient: newHTTPClient(opts.Timeout),
		baseURL:    baseURL,
		apiKey:     opts.APIKey,
		country:    country,
	}
}

// GetWeather fetches current weather and the 5-day forecast. Coordinates win over the location name.
func (s *WeatherService) GetWeather(ctx context.Context, location, lat, lon string) (*WeatherReport, error) {
	if location == "" && (lat == "" || lon == "") {
		return nil, validationError("Location or coordinates are required")
	}
	params := s.query(location, lat, lon)

	report := &WeatherReport{}
	if err := doJSON(ctx, s.httpClient, http.MethodGet, s.baseURL+"/weather?"+params, nil, nil, &report.Current); err != nil {
		return nil, fmt.Errorf("failed to fetch current weather: %w", err)
	}
	if err := doJSON(ctx, s.httpClient, http.MethodGet, s.baseURL+"/forecast?"+params, nil, nil, &report.Forecast); err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	return report, nil
}

// GetForecast fetches and decodes the 5-day forecast for a named location
func (s *WeatherService) GetForecast(ctx context.Context, location string) (*Forecast, error) {
	if strings.TrimSpace(location) == "" {
		return nil, validationError("Destination is required")
	}

	var forecast Forecast
	if err := doJSON(ctx, s.httpClient, http.MethodGet, s.baseURL+"/forecast?"+s.query(location, "", ""), nil, nil, &forecast); err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	if len(forecast.List) == 0 {
		return nil, fmt.Errorf("forecast for %s is empty", location)
	}
	return &forecast, nil
}

func (s *WeatherService) query(location, lat, lon string) string {
	params := url.Values{}
	if lat != "" && lon != "" {
		params.Set("lat", lat)
		params.Set("lon", lon)
	} else {
		params.Set("q", location+","+s.country)
	}
	params.Set("appid", s.apiKey)
	params.Set("units", "metric")
	return params.Encode()
}
