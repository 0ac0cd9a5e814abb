package location

import (
	"fmt"
	"os"

	"github.com/aretw0/carepath/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Ring is one band of the outdoor geofence: positions farther than Distance (in degrees)
// from the venue centre resolve to Area.
type Ring struct {
	Distance float64     `yaml:"distance"`
	Area     domain.Area `yaml:"area"`
}

// Venue describes how raw positions map to areas of one hospital.
type Venue struct {
	Name      string                 `yaml:"name"`
	Latitude  float64                `yaml:"latitude"`
	Longitude float64                `yaml:"longitude"`
	Rings     []Ring                 `yaml:"rings"`
	Beacons   map[string]domain.Area `yaml:"beacons"`
}

// DefaultVenue is the built-in map used when no venue file is configured.
func DefaultVenue() Venue {
	return Venue{
		Name:      "default",
		Latitude:  40.7128,
		Longitude: -74.0060,
		Rings: []Ring{
			{Distance: 0.001, Area: domain.AreaOutside},
			{Distance: 0.0005, Area: domain.AreaParking},
			{Distance: 0.0002, Area: domain.AreaEntrance},
		},
		Beacons: map[string]domain.Area{
			"beacon_entrance":     domain.AreaEntrance,
			"beacon_registration": domain.AreaRegistration,
			"beacon_waiting_2a":   domain.AreaWaitingRoom,
			"beacon_exam_201":     domain.AreaExamRoom,
			"beacon_lab":          domain.AreaLab,
			"beacon_pharmacy":     domain.AreaPharmacy,
			"beacon_exit":         domain.AreaExit,
		},
	}
}

// LoadVenue reads a YAML venue file.
func LoadVenue(path string) (Venue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Venue{}, fmt.Errorf("failed to read venue file: %w", err)
	}
	return ParseVenue(data)
}

// ParseVenue decodes a YAML venue definition and checks it.
func ParseVenue(data []byte) (Venue, error) {
	var v Venue
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Venue{}, fmt.Errorf("failed to parse venue: %w", err)
	}
	if err := v.Validate(); err != nil {
		return Venue{}, err
	}
	return v, nil
}

// Validate checks that rings are ordered from the outermost inwards.
func (v Venue) Validate() error {
	for i := 1; i < len(v.Rings); i++ {
		if v.Rings[i].Distance >= v.Rings[i-1].Distance {
			return fmt.Errorf("venue %q: rings must be ordered by decreasing distance", v.Name)
		}
	}
	for id, area := range v.Beacons {
		if area == "" {
			return fmt.Errorf("venue %q: beacon %q has no area", v.Name, id)
		}
	}
	return nil
}
