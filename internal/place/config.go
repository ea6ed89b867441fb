package place

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadConfig reads a place configuration from a JSON file.
func LoadConfig(path string) (PlaceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PlaceConfig{}, fmt.Errorf("read place config %s: %w", path, err)
	}
	var cfg PlaceConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return PlaceConfig{}, fmt.Errorf("parse place config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return PlaceConfig{}, fmt.Errorf("validate place config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the structural invariants of a place configuration.
func (c PlaceConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(c.URLs) == 0 {
		return fmt.Errorf("at least one url is required")
	}
	if _, _, err := c.Coordinates(); err != nil {
		return err
	}
	return nil
}

// Coordinates splits the "lat, lon" location string into two floats. The
// string must contain exactly two comma-separated numeric parts.
func (c PlaceConfig) Coordinates() (latitude, longitude float64, err error) {
	parts := strings.Split(c.Location, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("location %q must have exactly two comma-separated parts", c.Location)
	}
	latitude, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse latitude from %q: %w", c.Location, err)
	}
	longitude, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse longitude from %q: %w", c.Location, err)
	}
	return latitude, longitude, nil
}
