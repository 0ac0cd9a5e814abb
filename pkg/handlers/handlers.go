package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/carepath/internal/logging"
	"github.com/aretw0/carepath/pkg/domain"
	"github.com/aretw0/carepath/pkg/ports"
	"github.com/aretw0/carepath/pkg/registry"
	"github.com/aretw0/carepath/pkg/waitlist"
)

// DefaultMinutesPerPatient is the wait estimate per patient ahead in the queue.
const DefaultMinutesPerPatient = 15

// Suggestions are offered once the estimated wait exceeds this many minutes.
const activityThresholdMinutes = 20

// Handlers holds the collaborators used by the default step handlers.
type Handlers struct {
	waitList          ports.WaitList
	insurance         ports.InsuranceVerifier
	minutesPerPatient int
	now               func() time.Time
	logger            *slog.Logger
}

// Option configures Handlers.
type Option func(*Handlers)

// WithWaitList sets the department queue. Defaults to an in-memory queue.
func WithWaitList(wl ports.WaitList) Option {
	return func(h *Handlers) {
		if wl != nil {
			h.waitList = wl
		}
	}
}

// WithInsuranceVerifier sets the coverage check run at check-in.
// Without one, insurance is treated as verified.
func WithInsuranceVerifier(v ports.InsuranceVerifier) Option {
	return func(h *Handlers) {
		h.insurance = v
	}
}

// WithMinutesPerPatient tunes the wait estimate.
func WithMinutesPerPatient(n int) Option {
	return func(h *Handlers) {
		if n > 0 {
			h.minutesPerPatient = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handlers) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(h *Handlers) {
		if now != nil {
			h.now = now
		}
	}
}

// New creates the default handler set.
func New(opts ...Option) *Handlers {
	h := &Handlers{
		waitList:          waitlist.NewMemory(),
		minutesPerPatient: DefaultMinutesPerPatient,
		now:               time.Now,
		logger:            logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register installs every default handler into reg.
func (h *Handlers) Register(reg *registry.Registry) {
	named := map[string]ports.NodeHandler{
		domain.StepHandleArrival:        h.handleArrival,
		domain.StepInitiateCheckIn:      h.initiateCheckIn,
		domain.StepCompleteCheckIn:      h.completeCheckIn,
		domain.StepUpdateQueue:          h.updateQueue,
		domain.StepUpdateWaitTime:       h.updateWaitTime,
		domain.StepSuggestActivities:    h.suggestActivities,
		domain.StepNotifyNextInQueue:    h.notifyNextInQueue,
		domain.StepStartVisit:           h.startVisit,
		domain.StepGenerateQuestions:    h.generateQuestions,
		domain.StepEndVisit:             h.endVisit,
		domain.StepCreatePostVisitTasks: h.createPostVisitTasks,
		domain.StepGenerateDischarge:    h.generateDischarge,
		domain.StepInitiateDeparture:    h.initiateDeparture,
		domain.StepCompleteJourney:      h.completeJourney,
		domain.StepSendReminder:         h.notice(domain.StepSendReminder, domain.NotificationInfo, domain.PriorityHigh, "Appointment reminder", "Your appointment is coming up soon."),
		domain.StepRemindCheckIn:        h.notice(domain.StepRemindCheckIn, domain.NotificationInfo, domain.PriorityHigh, "Please check in", "Registration is ready for you."),
		domain.StepNotifyLabResults:     h.notice(domain.StepNotifyLabResults, domain.NotificationInfo, domain.PriorityMedium, "Lab results available", ""),
		domain.StepFindAmenities:        h.notice(domain.StepFindAmenities, domain.NotificationInfo, domain.PriorityLow, "Nearby amenities", "Restrooms and the cafeteria are signposted on every floor."),
		domain.StepProvideSupport:       h.notice(domain.StepProvideSupport, domain.NotificationInfo, domain.PriorityMedium, "We're here for you", "A member of staff is available if you need anything."),
		domain.StepAcknowledge:          h.notice(domain.StepAcknowledge, domain.NotificationInfo, domain.PriorityLow, "Message received", ""),
		domain.StepConsultHuman:         h.notice(domain.StepConsultHuman, domain.NotificationWarning, domain.PriorityHigh, "A staff member will follow up", "If this is urgent, tell the nearest staff member."),
		domain.StepNotifyPrescription:   h.notifyPrescription,
	}
	for name, fn := range named {
		reg.Register(name, fn)
	}
	reg.RegisterParam(domain.StepNavigate, h.navigate)
	reg.RegisterParam(domain.StepUpdateLocation, h.updateLocation)
}

// notice builds a handler that only records a notification.
func (h *Handlers) notice(step string, kind domain.NotificationType, prio domain.Priority, title, msg string) ports.NodeHandler {
	return func(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
		h.notify(s, step, kind, prio, title, msg)
		return s, nil
	}
}

func (h *Handlers) notify(s *domain.JourneyState, step string, kind domain.NotificationType, prio domain.Priority, title, msg string) {
	s.Notify(domain.Notification{
		Type:      kind,
		Priority:  prio,
		Title:     title,
		Message:   msg,
		Step:      step,
		Timestamp: h.now(),
	})
}

// queueKey picks the wait list a patient joins.
func queueKey(s *domain.JourneyState) string {
	switch {
	case s.Patient.DoctorID != "":
		return "doctor:" + s.Patient.DoctorID
	case s.Patient.Department != "":
		return "department:" + s.Patient.Department
	}
	return "general"
}

func (h *Handlers) estimate(position int) int {
	if position <= 1 {
		return 0
	}
	return (position - 1) * h.minutesPerPatient
}

func advance(s *domain.JourneyState, stage domain.Stage) error {
	if !s.Stage.Before(stage) {
		return nil
	}
	if err := s.AdvanceTo(stage); err != nil {
		return fmt.Errorf("advance to %s: %w", stage, err)
	}
	return nil
}
