package handlers

import (
	"context"
	"fmt"

	"github.com/aretw0/carepath/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

type navigateArgs struct {
	Destination string `mapstructure:"destination"`
}

type locationArgs struct {
	Area      string  `mapstructure:"area"`
	BeaconID  string  `mapstructure:"beacon_id"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
	Floor     string  `mapstructure:"floor"`
	Room      string  `mapstructure:"room"`
}

// outsideAreas do not count as being at the hospital.
var outsideAreas = map[domain.Area]bool{
	domain.AreaOutside: true,
	domain.AreaParking: true,
	domain.AreaUnknown: true,
	"":                 true,
}

func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}

func (h *Handlers) navigate(ctx context.Context, s *domain.JourneyState, args map[string]any) (*domain.JourneyState, error) {
	var a navigateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, fmt.Errorf("invalid navigate arguments: %w", err)
	}
	if a.Destination == "" {
		return nil, fmt.Errorf("navigate: destination is required")
	}
	s.Destination = domain.Area(a.Destination)
	h.notify(s, domain.StepNavigate, domain.NotificationInfo, domain.PriorityMedium, "Directions", "Head to "+a.Destination)
	return s, nil
}

func (h *Handlers) updateLocation(ctx context.Context, s *domain.JourneyState, args map[string]any) (*domain.JourneyState, error) {
	var a locationArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, fmt.Errorf("invalid location arguments: %w", err)
	}
	s.CurrentLocation = &domain.Location{
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
		Floor:     a.Floor,
		Room:      a.Room,
		BeaconID:  a.BeaconID,
	}
	area := domain.Area(a.Area)
	if area != "" {
		s.DetectedArea = area
	}
	if !outsideAreas[area] {
		s.Arrived = true
	}
	if s.Destination != "" && s.Destination == area {
		s.Destination = ""
	}
	return s, nil
}
