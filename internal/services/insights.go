package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Comfort tiers by average forecast temperature
const (
	ComfortPleasant = "Pleasant"
	ComfortWarm     = "Warm"
	ComfortHot      = "Hot"
)

// Visit recommendations by temperature and rain
const (
	VisitExcellent = "Excellent"
	VisitGood      = "Good"
	VisitFair      = "Fair"
)

// forecastSlotsPerDay is the number of 3-hour slots in one forecast day
const forecastSlotsPerDay = 8

// InsightService answers destination questions from the weather forecast, a time-of-day
// crowd heuristic, the guide catalog and the LLM.
type InsightService struct {
	weather *WeatherService
	llm     ChatCompleter
	guides  *GuideCatalog
	now     func() time.Time
}

// NewInsightService creates a new insight service. llm may be nil.
func NewInsightService(weather *WeatherService, llm ChatCompleter, guides *GuideCatalog) *InsightService {
	return &InsightService{
		weather: weather,
		llm:     llm,
		guides:  guides,
		now:     time.Now,
	}
}

// RecommendationRequest describes a destination analysis
type RecommendationRequest struct {
	Destination string
	Dates       string
	Interests   []string
}

// WeatherSummary condenses the forecast for travellers
type WeatherSummary struct {
	AvgTemperature float64 `json:"avgTemperature"`
	AvgHumidity    int     `json:"avgHumidity"`
	RainDays       int     `json:"rainDays"`
	ForecastDays   float64 `json:"forecastDays"`
	Comfort        string  `json:"comfort"`
	Recommendation string  `json:"recommendation"`
}

// ClimateTrends is the short-term climate outlook
type ClimateTrends struct {
	CurrentTemp     float64 `json:"currentTemp"`
	Humidity        int     `json:"humidity"`
	RainProbability int     `json:"rainProbability"`
	Comfort         string  `json:"comfort"`
	Recommendation  string  `json:"recommendation"`
}

// Recommendation is the weather-aware analysis of a destination.
// CrowdAnalysis and TransportRecommendations are null when no LLM is configured.
type Recommendation struct {
	Destination              string          `json:"destination"`
	WeatherForecast          WeatherSummary  `json:"weatherForecast"`
	CrowdAnalysis            json.RawMessage `json:"crowdAnalysis"`
	TransportRecommendations json.RawMessage `json:"transportRecommendations"`
	ClimateTrends            ClimateTrends   `json:"climateTrends"`
	BestVisitScore           int             `json:"bestVisitScore"`
	GeneratedAt              time.Time       `json:"generatedAt"`
}

// forecastStats are the unrounded averages of a forecast
type forecastStats struct {
	avgTemp     float64
	avgHumidity float64
	rainSlots   int
	slots       int
}

func analyzeForecast(forecast *Forecast) forecastStats {
	stats := forecastStats{slots: len(forecast.List)}
	if stats.slots == 0 {
		return stats
	}
	var temp, humidity float64
	for _, slot := range forecast.List {
		temp += slot.Main.Temp
		humidity += slot.Main.Humidity
		if len(slot.Weather) > 0 && strings.Contains(slot.Weather[0].Main, "Rain") {
			stats.rainSlots++
		}
	}
	stats.avgTemp = temp / float64(stats.slots)
	stats.avgHumidity = humidity / float64(stats.slots)
	return stats
}

// ComfortLevel maps an average temperature to a comfort tier
func ComfortLevel(avgTemp float64) string {
	switch {
	case avgTemp < 25:
		return ComfortPleasant
	case avgTemp < 35:
		return ComfortWarm
	default:
		return ComfortHot
	}
}

// VisitRecommendation grades a destination by temperature and rainy forecast slots
func VisitRecommendation(avgTemp float64, rainDays int) string {
	switch {
	case avgTemp < 25 && rainDays < 3:
		return VisitExcellent
	case avgTemp < 30 && rainDays < 5:
		return VisitGood
	default:
		return VisitFair
	}
}

// VisitScore rates travel conditions from 0 to 100
func VisitScore(temp, humidity float64, rainDays int) int {
	score := 100

	if temp < 15 || temp > 35 {
		score -= 30
	} else if temp < 20 || temp > 32 {
		score -= 15
	}

	if humidity < 30 || humidity > 80 {
		score -= 20
	} else if humidity < 40 || humidity > 75 {
		score -= 10
	}

	score -= rainDays * 5

	return min(max(score, 0), 100)
}

// SummarizeForecast builds the traveller summary and climate outlook of a forecast
func SummarizeForecast(forecast *Forecast) (WeatherSummary, ClimateTrends, int) {
	stats := analyzeForecast(forecast)
	comfort := ComfortLevel(stats.avgTemp)
	grade := VisitRecommendation(stats.avgTemp, stats.rainSlots)

	rainProbability := 0
	if stats.slots > 0 {
		rainProbability = int(math.Round(float64(stats.rainSlots) / float64(stats.slots) * 100))
	}

	summary := WeatherSummary{
		AvgTemperature: round1(stats.avgTemp),
		AvgHumidity:    int(math.Round(stats.avgHumidity)),
		RainDays:       stats.rainSlots,
		ForecastDays:   float64(stats.slots) / forecastSlotsPerDay,
		Comfort:        comfort,
		Recommendation: grade,
	}
	trends := ClimateTrends{
		CurrentTemp:     summary.AvgTemperature,
		Humidity:        summary.AvgHumidity,
		RainProbability: rainProbability,
		Comfort:         comfort,
		Recommendation:  grade,
	}
	return summary, trends, VisitScore(stats.avgTemp, stats.avgHumidity, stats.rainSlots)
}

// Recommend analyzes a destination's forecast and asks the LLM for crowd and transport advice
func (s *InsightService) Recommend(ctx context.Context, req RecommendationRequest) (*Recommendation, error) {
	destination := strings.TrimSpace(req.Destination)
	if destination == "" {
		return nil, validationError("Destination is required")
	}

	forecast, err := s.weather.GetForecast(ctx, destination)
	if err != nil {
		return nil, err
	}
	summary, trends, score := SummarizeForecast(forecast)

	rec := &Recommendation{
		Destination:     destination,
		WeatherForecast: summary,
		ClimateTrends:   trends,
		BestVisitScore:  score,
		GeneratedAt:     s.now(),
	}

	if s.llm == nil {
		log.Debug().Str("destination", destination).Msg("No LLM configured, skipping crowd and transport analysis")
		return rec, nil
	}

	interests := "general sightseeing"
	if len(req.Interests) > 0 {
		interests = strings.Join(req.Interests, ", ")
	}

	conditions := "clear"
	if summary.RainDays > 5 {
		conditions = "rainy"
	}

	crowdPrompt := fmt.Sprintf("Analyze crowd density and best visiting times for %s, India.\n"+
		"Travel dates: %s. Interests: %s.\n"+
		"Weather: average %.1f°C, humidity %d%%.\n"+
		"Reply with a JSON object with keys bestTime, crowdLevel (Low/Medium/High), peakHours, offPeakTimes, reasoning.",
		destination, orDefault(req.Dates, "flexible"), interests, summary.AvgTemperature, summary.AvgHumidity)
	rec.CrowdAnalysis, err = completeJSON(ctx, s.llm,
		"You are a travel data analyst expert in Indian tourism patterns and crowd management.", crowdPrompt, 500)
	if err != nil {
		return nil, fmt.Errorf("crowd analysis failed: %w", err)
	}

	transportPrompt := fmt.Sprintf("Suggest optimal public transport routes for %s, India.\n"+
		"Weather: %.1f°C, %s conditions. Interests: %s.\n"+
		"Cover the best transport modes (metro/bus/auto/taxi), routes between attractions, "+
		"travel time and cost estimates, and weather-appropriate suggestions. Reply with one JSON object.",
		destination, summary.AvgTemperature, conditions, interests)
	rec.TransportRecommendations, err = completeJSON(ctx, s.llm,
		"You are a local transport expert with knowledge of Indian public transport systems.", transportPrompt, 600)
	if err != nil {
		return nil, fmt.Errorf("transport analysis failed: %w", err)
	}

	return rec, nil
}

// completeJSON asks the LLM for a single JSON object and checks that the reply parses
func completeJSON(ctx context.Context, llm ChatCompleter, system, prompt string, maxTokens int) (json.RawMessage, error) {
	content, err := llm.Complete(ctx, CompletionRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   maxTokens,
		JSONOutput:  true,
	})
	if err != nil {
		return nil, err
	}

	content = stripCodeFence(content)
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("reply is not valid JSON")
	}
	return json.RawMessage(content), nil
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if match := codeFence.FindStringSubmatch(content); match != nil {
		content = strings.TrimSpace(match[1])
	}
	return content
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
