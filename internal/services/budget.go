package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const maxItineraryPromptBytes = 2000

var (
	transportAmount  = amountPattern("Transport")
	stayAmount       = amountPattern("Stay|Accommodation")
	foodAmount       = amountPattern("Food")
	activitiesAmount = amountPattern("Activities")
	totalAmount      = amountPattern("Total")
	perPersonAmount  = amountPattern("Per Person")
)

func amountPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:` + label + `)[:\s]*₹?\s*([\d,]+)`)
}

// BudgetRequest describes a trip to price
type BudgetRequest struct {
	Itinerary      json.RawMessage
	NumberOfPeople int
	SplitEqually   bool
}

// BudgetCategories are per-category totals in INR
type BudgetCategories struct {
	Transport  int64 `json:"transport"`
	Stay       int64 `json:"stay"`
	Food       int64 `json:"food"`
	Activities int64 `json:"activities"`
}

// BudgetBreakdown is the priced trip in INR
type BudgetBreakdown struct {
	Breakdown BudgetCategories `json:"breakdown"`
	Total     int64            `json:"total"`
	PerPerson int64            `json:"perPerson"`
}

// BudgetEstimate is the result of EstimateBudget
type BudgetEstimate struct {
	BudgetBreakdown BudgetBreakdown `json:"budgetBreakdown"`
	NumberOfPeople  int             `json:"numberOfPeople"`
	GeneratedAt     time.Time       `json:"generatedAt"`
}

// EstimateBudget asks the LLM to price a trip and extracts the amounts from its reply
func (s *InsightService) EstimateBudget(ctx context.Context, req BudgetRequest) (*BudgetEstimate, error) {
	people := req.NumberOfPeople
	if people <= 0 {
		people = 1
	}
	if s.llm == nil {
		return nil, fmt.Errorf("budget calculator is not configured")
	}

	split := "individual"
	if req.SplitEqually {
		split = "equal split"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Calculate the budget for this trip (%d people, %s).\n", people, split)
	if itinerary := strings.TrimSpace(string(req.Itinerary)); itinerary != "" && itinerary != "null" {
		if len(itinerary) > maxItineraryPromptBytes {
			itinerary = itinerary[:maxItineraryPromptBytes]
		}
		fmt.Fprintf(&b, "Itinerary: %s\n", itinerary)
	}
	b.WriteString("Provide estimates in INR, one per line:\n" +
		"Transport: ₹X\nStay: ₹Y\nFood: ₹Z\nActivities: ₹A\nTotal: ₹Total\nPer Person: ₹PerPerson\n" +
		"Keep it simple with realistic Indian prices.")

	content, err := s.llm.Complete(ctx, CompletionRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: "You are a budget travel expert helping travelers optimize costs in India."},
			{Role: "user", Content: b.String()},
		},
		Temperature: 0.7,
		MaxTokens:   800,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate budget: %w", err)
	}

	return &BudgetEstimate{
		BudgetBreakdown: ParseBudget(content, people),
		NumberOfPeople:  people,
		GeneratedAt:     s.now(),
	}, nil
}

// ParseBudget extracts the labelled INR amounts from a budget reply. Missing amounts are 0;
// a missing per-person amount is derived from the total.
func ParseBudget(content string, people int) BudgetBreakdown {
	breakdown := BudgetBreakdown{
		Breakdown: BudgetCategories{
			Transport:  extractAmount(transportAmount, content),
			Stay:       extractAmount(stayAmount, content),
			Food:       extractAmount(foodAmount, content),
			Activities: extractAmount(activitiesAmount, content),
		},
		Total:     extractAmount(totalAmount, content),
		PerPerson: extractAmount(perPersonAmount, content),
	}
	if breakdown.PerPerson == 0 && breakdown.Total > 0 && people > 0 {
		breakdown.PerPerson = breakdown.Total / int64(people)
	}
	return breakdown
}

func extractAmount(pattern *regexp.Regexp, content string) int64 {
	match := pattern.FindStringSubmatch(content)
	if match == nil {
		return 0
	}
	amount, err := strconv.ParseInt(strings.ReplaceAll(match[1], ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return amount
}
