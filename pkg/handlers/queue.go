package handlers

import (
	"context"
	"fmt"

	"github.com/aretw0/carepath/pkg/domain"
)

func (h *Handlers) updateQueue(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
	pos, err := h.waitList.Join(ctx, queueKey(s), s.SessionID)
	if err != nil {
		return nil, fmt.Errorf("join wait list: %w", err)
	}
	if err := advance(s, domain.StageWaiting); err != nil {
		return nil, err
	}
	s.QueuePosition = pos
	s.EstimatedWaitMinutes = h.estimate(pos)
	s.LastWaitUpdate = h.now()
	h.notify(s, domain.StepUpdateQueue, domain.NotificationInfo, domain.PriorityMedium,
		fmt.Sprintf("You are number %d in line", pos), "")
	return s, nil
}

func (h *Handlers) updateWaitTime(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
	if s.VisitStarted {
		return s, nil
	}
	pos, err := h.waitList.Position(ctx, queueKey(s), s.SessionID)
	if err != nil {
		return nil, fmt.Errorf("read wait list: %w", err)
	}
	if pos == 0 {
		return s, nil
	}

	changed := pos != s.QueuePosition
	s.QueuePosition = pos
	s.EstimatedWaitMinutes = h.estimate(pos)
	s.LastWaitUpdate = h.now()
	if changed {
		h.notify(s, domain.StepUpdateWaitTime, domain.NotificationInfo, domain.PriorityLow,
			fmt.Sprintf("Estimated wait: %d minutes", s.EstimatedWaitMinutes), "")
	}
	if s.EstimatedWaitMinutes > activityThresholdMinutes && !s.HasPending(domain.StepSuggestActivities) {
		s.Enqueue(domain.Named(domain.StepSuggestActivities))
	}
	return s, nil
}

func (h *Handlers) suggestActivities(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
	h.notify(s, domain.StepSuggestActivities, domain.NotificationInfo, domain.PriorityLow,
		"While you wait", "The cafeteria and quiet areas are nearby. We will notify you when it is your turn.")
	return s, nil
}

func (h *Handlers) notifyNextInQueue(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
	h.notify(s, domain.StepNotifyNextInQueue, domain.NotificationInfo, domain.PriorityHigh,
		"You're next", "Please stay close to the waiting area.")
	return s, nil
}
