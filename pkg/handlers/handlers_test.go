package handlers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/carepath/pkg/domain"
	"github.com/aretw0/carepath/pkg/handlers"
	"github.com/aretw0/carepath/pkg/registry"
	"github.com/aretw0/carepath/pkg/waitlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	ok  bool
	err error
}

func (v stubVerifier) Verify(ctx context.Context, p domain.PatientInfo) (bool, error) {
	return v.ok, v.err
}

func setup(t *testing.T, opts ...handlers.Option) *registry.Registry {
	t.Helper()
	reg := registry.NewRegistry()
	handlers.New(opts...).Register(reg)
	return reg
}

func run(t *testing.T, reg *registry.Registry, name string, s *domain.JourneyState) *domain.JourneyState {
	t.Helper()
	h, ok := reg.Handler(name)
	require.True(t, ok, "handler %s not registered", name)
	out, err := h(context.Background(), s)
	require.NoError(t, err)
	return out
}

func TestCheckIn(t *testing.T) {
	reg := setup(t)
	s := domain.NewJourneyState("s1", domain.PatientInfo{PatientID: "p1"})

	s = run(t, reg, domain.StepInitiateCheckIn, s)
	assert.Equal(t, domain.StageCheckIn, s.Stage)
	assert.True(t, s.CheckInStarted)
	assert.True(t, s.InsuranceVerified, "no verifier means verified")
	assert.True(t, s.IsTaskComplete(domain.TaskVerifyInsurance))

	s = run(t, reg, domain.StepCompleteCheckIn, s)
	assert.Equal(t, domain.StagePreVisit, s.Stage)
	assert.True(t, s.CheckInCompleted)
	assert.Empty(t, s.PendingTasks)
}

func TestCheckIn_InsuranceRejected(t *testing.T) {
	reg := setup(t, handlers.WithInsuranceVerifier(stubVerifier{ok: false}))
	s := run(t, reg, domain.StepInitiateCheckIn, domain.NewJourneyState("s1", domain.PatientInfo{}))

	assert.True(t, s.CheckInStarted)
	assert.False(t, s.InsuranceVerified)
	require.NotEmpty(t, s.Notifications)
	assert.Equal(t, domain.NotificationWarning, s.Notifications[len(s.Notifications)-1].Type)
}

func TestCheckIn_VerifierError(t *testing.T) {
	reg := setup(t, handlers.WithInsuranceVerifier(stubVerifier{err: errors.New("payer offline")}))
	h, _ := reg.Handler(domain.StepInitiateCheckIn)
	_, err := h(context.Background(), domain.NewJourneyState("s1", domain.PatientInfo{}))
	assert.Error(t, err)
}

func TestQueue(t *testing.T) {
	wl := waitlist.NewMemory()
	_, _ = wl.Join(context.Background(), "department:cardiology", "someone-else")
	reg := setup(t, handlers.WithWaitList(wl), handlers.WithMinutesPerPatient(25))

	s := domain.NewJourneyState("s1", domain.PatientInfo{Department: "cardiology"})
	s.Stage = domain.StagePreVisit
	s = run(t, reg, domain.StepUpdateQueue, s)

	assert.Equal(t, domain.StageWaiting, s.Stage)
	assert.Equal(t, 2, s.QueuePosition)
	assert.Equal(t, 25, s.EstimatedWaitMinutes)

	s = run(t, reg, domain.StepUpdateWaitTime, s)
	assert.True(t, s.HasPending(domain.StepSuggestActivities), "long waits queue a suggestion")

	require.NoError(t, wl.Leave(context.Background(), "department:cardiology", "someone-else"))
	s = run(t, reg, domain.StepUpdateWaitTime, s)
	assert.Equal(t, 1, s.QueuePosition)
	assert.Zero(t, s.EstimatedWaitMinutes)

	s = run(t, reg, domain.StepStartVisit, s)
	assert.Equal(t, domain.StageInVisit, s.Stage)
	pos, _ := wl.Position(context.Background(), "department:cardiology", "s1")
	assert.Zero(t, pos, "starting the visit leaves the queue")
}

func TestEndVisit_EnqueuesPostVisitTasks(t *testing.T) {
	reg := setup(t)
	s := domain.NewJourneyState("s1", domain.PatientInfo{HasPrescriptions: true})
	s.Stage = domain.StageInVisit
	s.VisitStarted = true

	s = run(t, reg, domain.StepEndVisit, s)
	assert.Equal(t, domain.StagePostVisit, s.Stage)
	assert.True(t, s.VisitEnded)
	require.Len(t, s.PendingSteps, 1)
	assert.Equal(t, domain.StepCreatePostVisitTasks, s.PendingSteps[0].Name)

	s.PendingSteps = nil
	s = run(t, reg, domain.StepCreatePostVisitTasks, s)
	assert.True(t, s.IsTaskComplete(domain.TaskPostVisitSetup))
	ids := make([]string, 0, len(s.PendingTasks))
	for _, task := range s.PendingTasks {
		ids = append(ids, task.ID)
	}
	assert.Contains(t, ids, domain.TaskPickUpPrescription)
	assert.Contains(t, ids, domain.TaskSettleBill)

	before := len(s.PendingTasks)
	s = run(t, reg, domain.StepCreatePostVisitTasks, s)
	assert.Len(t, s.PendingTasks, before, "task creation is idempotent")
}

func TestEndVisit_DoesNotDuplicateQueuedStep(t *testing.T) {
	reg := setup(t)
	s := domain.NewJourneyState("s1", domain.PatientInfo{})
	s.Stage = domain.StageInVisit
	s.VisitStarted = true
	s.Enqueue(domain.Named(domain.StepCreatePostVisitTasks))

	s = run(t, reg, domain.StepEndVisit, s)
	assert.Len(t, s.PendingSteps, 1)
}

func TestParameterizedHandlers(t *testing.T) {
	reg := setup(t)
	ctx := context.Background()

	nav, ok := reg.ParamHandler(domain.StepNavigate)
	require.True(t, ok)
	s, err := nav(ctx, domain.NewJourneyState("s1", domain.PatientInfo{}), map[string]any{"destination": "registration"})
	require.NoError(t, err)
	assert.Equal(t, domain.AreaRegistration, s.Destination)

	_, err = nav(ctx, domain.NewJourneyState("s1", domain.PatientInfo{}), map[string]any{})
	assert.Error(t, err)

	loc, ok := reg.ParamHandler(domain.StepUpdateLocation)
	require.True(t, ok)
	s, err = loc(ctx, s, map[string]any{"area": "registration", "latitude": "40.7128", "room": "A1"})
	require.NoError(t, err)
	assert.True(t, s.Arrived)
	assert.Equal(t, 40.7128, s.CurrentLocation.Latitude)
	assert.Empty(t, s.Destination, "reaching the destination clears it")

	s2, err := loc(ctx, domain.NewJourneyState("s2", domain.PatientInfo{}), map[string]any{"area": "parking"})
	require.NoError(t, err)
	assert.False(t, s2.Arrived)
}

func TestDeparture(t *testing.T) {
	reg := setup(t)
	s := domain.NewJourneyState("s1", domain.PatientInfo{})
	s.Stage = domain.StagePostVisit
	s.VisitEnded = true

	s = run(t, reg, domain.StepInitiateDeparture, s)
	assert.Equal(t, domain.StageDeparture, s.Stage)
	s = run(t, reg, domain.StepCompleteJourney, s)
	assert.Equal(t, domain.StageCompleted, s.Stage)
}
