package handlers

import (
	"context"

	"github.com/aretw0/carepath/pkg/domain"
)

func (h *Handlers) initiateDeparture(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
	if err := advance(s, domain.StageDeparture); err != nil {
		return nil, err
	}
	s.DepartureStarted = true
	h.leaveQueue(ctx, s)
	h.notify(s, domain.StepInitiateDeparture, domain.NotificationInfo, domain.PriorityMedium, "Thank you for visiting", "")
	return s, nil
}

func (h *Handlers) completeJourney(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
	if err := advance(s, domain.StageCompleted); err != nil {
		return nil, err
	}
	h.notify(s, domain.StepCompleteJourney, domain.NotificationSuccess, domain.PriorityLow, "Journey complete", "")
	return s, nil
}
