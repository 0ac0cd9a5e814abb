package handlers

import (
	"context"

	"github.com/aretw0/carepath/pkg/domain"
)

func (h *Handlers) startVisit(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
	if err := advance(s, domain.StageInVisit); err != nil {
		return nil, err
	}
	s.VisitStarted = true
	s.QueuePosition = 0
	s.EstimatedWaitMinutes = 0
	h.leaveQueue(ctx, s)
	h.notify(s, domain.StepStartVisit, domain.NotificationInfo, domain.PriorityMedium, "Your visit has started", "")
	return s, nil
}

func (h *Handlers) generateQuestions(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
	s.CompleteTask(domain.TaskVisitQuestions)
	h.notify(s, domain.StepGenerateQuestions, domain.NotificationInfo, domain.PriorityLow,
		"Questions for your doctor", "Your question checklist is ready.")
	return s, nil
}

func (h *Handlers) endVisit(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
	if err := advance(s, domain.StagePostVisit); err != nil {
		return nil, err
	}
	s.VisitEnded = true
	if !s.HasPending(domain.StepCreatePostVisitTasks) && !s.IsTaskComplete(domain.TaskPostVisitSetup) {
		s.Enqueue(domain.Named(domain.StepCreatePostVisitTasks))
	}
	h.notify(s, domain.StepEndVisit, domain.NotificationSuccess, domain.PriorityMedium, "Visit complete", "")
	return s, nil
}

func (h *Handlers) createPostVisitTasks(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
	if s.IsTaskComplete(domain.TaskPostVisitSetup) {
		return s, nil
	}
	if s.Patient.HasPrescriptions {
		s.AddTask(domain.Task{ID: domain.TaskPickUpPrescription, Title: "Pick up prescription", Category: "post_visit", Priority: domain.PriorityHigh})
	}
	if s.Patient.HasLabOrders {
		s.AddTask(domain.Task{ID: domain.TaskLabWork, Title: "Complete lab work", Category: "post_visit", Priority: domain.PriorityHigh})
	}
	if !s.CopayPaid {
		s.AddTask(domain.Task{ID: domain.TaskSettleBill, Title: "Settle bill", Category: "post_visit", Priority: domain.PriorityMedium})
	}
	s.AddTask(domain.Task{ID: domain.TaskScheduleFollowUp, Title: "Schedule follow-up", Category: "post_visit", Priority: domain.PriorityLow})
	s.CompleteTask(domain.TaskPostVisitSetup)
	h.notify(s, domain.StepCreatePostVisitTasks, domain.NotificationInfo, domain.PriorityMedium, "Next steps", "Your after-visit checklist is ready.")
	return s, nil
}

func (h *Handlers) generateDischarge(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
	s.DischargeReady = true
	h.notify(s, domain.StepGenerateDischarge, domain.NotificationInfo, domain.PriorityMedium, "Discharge summary ready", "")
	return s, nil
}

func (h *Handlers) notifyPrescription(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
	s.AddTask(domain.Task{ID: domain.TaskPickUpPrescription, Title: "Pick up prescription", Category: "post_visit", Priority: domain.PriorityHigh})
	h.notify(s, domain.StepNotifyPrescription, domain.NotificationInfo, domain.PriorityHigh,
		"Prescription ready", "Your prescription is ready at the pharmacy.")
	return s, nil
}

func (h *Handlers) leaveQueue(ctx context.Context, s *domain.JourneyState) {
	if err := h.waitList.Leave(ctx, queueKey(s), s.SessionID); err != nil {
		h.logger.Warn("failed to leave wait list", "session_id", s.SessionID, "err", err)
	}
}
