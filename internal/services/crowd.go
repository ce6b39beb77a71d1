package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Crowd levels
const (
	CrowdVeryLow = "Very Low"
	CrowdLow     = "Low"
	CrowdMedium  = "Medium"
	CrowdHigh    = "High"
)

// indiaTime is the zone the crowd heuristic reads hours and weekdays in
var indiaTime = time.FixedZone("IST", 5*60*60+30*60)

var (
	crowdPeakHours = []string{"10:00-12:00", "16:00-19:00"}
	crowdBestTimes = []string{"06:00-09:00", "14:00-16:00"}
)

// CrowdLevel is the estimated crowd at a point in time
type CrowdLevel struct {
	Level      string    `json:"level"`
	Percentage int       `json:"percentage"`
	Timestamp  time.Time `json:"timestamp"`
}

// CrowdRequest names the place to estimate
type CrowdRequest struct {
	PlaceID  string
	Location string
	Name     string
}

// CrowdReport is the crowd estimate for a place with visiting advice
type CrowdReport struct {
	PlaceName    string     `json:"placeName"`
	CurrentCrowd CrowdLevel `json:"currentCrowd"`
	Analysis     string     `json:"analysis"`
	PeakHours    []string   `json:"peakHours"`
	BestTimes    []string   `json:"bestTimes"`
}

// EstimateCrowd applies the time-of-day heuristic in Indian time: weekends are busy all day,
// weekday late mornings and evenings peak, early mornings and nights are quiet.
func EstimateCrowd(at time.Time) CrowdLevel {
	local := at.In(indiaTime)
	hour := local.Hour()

	level := CrowdLevel{Level: CrowdMedium, Percentage: 50, Timestamp: at.UTC()}
	switch {
	case local.Weekday() == time.Saturday || local.Weekday() == time.Sunday:
		level.Level, level.Percentage = CrowdHigh, 70
	case (hour >= 10 && hour <= 12) || (hour >= 16 && hour <= 19):
		level.Level, level.Percentage = CrowdHigh, 75
	case hour >= 6 && hour <= 9:
		level.Level, level.Percentage = CrowdLow, 30
	case hour >= 20 || hour <= 5:
		level.Level, level.Percentage = CrowdVeryLow, 20
	}
	return level
}

// CrowdDensity estimates the current crowd at a place. The LLM adds a short analysis;
// without it, or when it fails, the analysis is a fixed summary of the estimate.
func (s *InsightService) CrowdDensity(ctx context.Context, req CrowdRequest) (*CrowdReport, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimSpace(req.Location)
	}
	if name == "" {
		return nil, validationError("Place name or location is required")
	}

	now := s.now()
	crowd := EstimateCrowd(now)
	report := &CrowdReport{
		PlaceName:    name,
		CurrentCrowd: crowd,
		Analysis:     basicCrowdAnalysis(name, crowd),
		PeakHours:    crowdPeakHours,
		BestTimes:    crowdBestTimes,
	}

	if s.llm == nil {
		return report, nil
	}

	local := now.In(indiaTime)
	prompt := fmt.Sprintf("Analyze current crowd density for %s in India.\n"+
		"Current time: %s, %s. Estimated crowd: %s (%d%%).\n"+
		"Give a short crowd analysis, the best times to visit today and tips to avoid crowds in 3-4 sentences.",
		name, local.Format("15:04"), local.Weekday(), crowd.Level, crowd.Percentage)

	analysis, err := s.llm.Complete(ctx, CompletionRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: "You are a crowd management expert analyzing tourist site congestion."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   200,
	})
	if err != nil {
		log.Warn().Err(err).Str("place", name).Msg("Crowd analysis failed, using basic summary")
		return report, nil
	}
	if analysis = strings.TrimSpace(analysis); analysis != "" {
		report.Analysis = analysis
	}
	return report, nil
}

func basicCrowdAnalysis(name string, crowd CrowdLevel) string {
	return fmt.Sprintf("%s is expected to be at a %s crowd level right now (about %d%% of capacity). "+
		"Weekday mornings between 06:00 and 09:00 and early afternoons are usually the quietest.",
		name, strings.ToLower(crowd.Level), crowd.Percentage)
}
