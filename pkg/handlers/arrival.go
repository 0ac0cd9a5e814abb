package handlers

import (
	"context"
	"fmt"

	"github.com/aretw0/carepath/pkg/domain"
)

func (h *Handlers) handleArrival(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
	s.Arrived = true
	h.notify(s, domain.StepHandleArrival, domain.NotificationInfo, domain.PriorityMedium,
		"Welcome", "Please head to registration to check in.")
	return s, nil
}

func (h *Handlers) initiateCheckIn(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
	verified := true
	if h.insurance != nil {
		ok, err := h.insurance.Verify(ctx, s.Patient)
		if err != nil {
			return nil, fmt.Errorf("insurance verification: %w", err)
		}
		verified = ok
	}

	if err := advance(s, domain.StageCheckIn); err != nil {
		return nil, err
	}
	s.Arrived = true
	s.CheckInStarted = true
	s.InsuranceVerified = verified

	s.AddTask(domain.Task{ID: domain.TaskVerifyInsurance, Title: "Verify insurance", Category: "check_in", Priority: domain.PriorityHigh})
	s.AddTask(domain.Task{ID: domain.TaskCompleteForms, Title: "Complete intake forms", Category: "check_in", Priority: domain.PriorityHigh})
	s.AddTask(domain.Task{ID: domain.TaskPayCopay, Title: "Pay copay", Category: "check_in", Priority: domain.PriorityMedium})
	if verified {
		s.CompleteTask(domain.TaskVerifyInsurance)
		h.notify(s, domain.StepInitiateCheckIn, domain.NotificationInfo, domain.PriorityMedium, "Check-in started", "")
		return s, nil
	}

	h.notify(s, domain.StepInitiateCheckIn, domain.NotificationWarning, domain.PriorityHigh,
		"Insurance needs attention", "Please see the registration desk.")
	return s, nil
}

func (h *Handlers) completeCheckIn(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
	if err := advance(s, domain.StagePreVisit); err != nil {
		return nil, err
	}
	s.CheckInCompleted = true
	s.FormsCompleted = true
	s.CopayPaid = true
	s.CompleteTask(domain.TaskCompleteForms)
	s.CompleteTask(domain.TaskPayCopay)
	h.notify(s, domain.StepCompleteCheckIn, domain.NotificationSuccess, domain.PriorityMedium, "Check-in complete", "")
	return s, nil
}
