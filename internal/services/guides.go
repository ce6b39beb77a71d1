package services

import (
	_ "embed"
	"fmt"
	"strings"

	"travel-partner-backend/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed guides.yaml
var guidesYAML []byte

// GuideCatalog lists tourist guides by destination slug
type GuideCatalog struct {
	Default   []models.TouristGuide            `yaml:"default"`
	Locations map[string][]models.TouristGuide `yaml:"locations"`
}

// LoadGuideCatalog parses a YAML guide catalog
func LoadGuideCatalog(data []byte) (*GuideCatalog, error) {
	var catalog GuideCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse guide catalog: %w", err)
	}
	if len(catalog.Default) == 0 {
		return nil, fmt.Errorf("guide catalog has no default guides")
	}
	return &catalog, nil
}

// DefaultGuideCatalog returns the built-in catalog
func DefaultGuideCatalog() *GuideCatalog {
	catalog, err := LoadGuideCatalog(guidesYAML)
	if err != nil {
		panic(err)
	}
	return catalog
}

// Guides returns the guides for a location slug such as "golden-temple", or the default guides
func (c *GuideCatalog) Guides(location string) []models.TouristGuide {
	slug := strings.ToLower(strings.Join(strings.Fields(location), "-"))
	if guides, ok := c.Locations[slug]; ok {
		return guides
	}
	return c.Default
}

// TouristGuides lists guides for a location
func (s *InsightService) TouristGuides(location string) []models.TouristGuide {
	return s.guides.Guides(location)
}
