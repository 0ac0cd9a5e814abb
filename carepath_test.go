package carepath_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/carepath"
	"github.com/aretw0/carepath/pkg/adapters/memory"
	"github.com/aretw0/carepath/pkg/domain"
	"github.com/aretw0/carepath/pkg/guardrail"
	"github.com/aretw0/carepath/pkg/notify"
	"github.com/aretw0/carepath/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newSession(t *testing.T, eng *carepath.Engine, patient domain.PatientInfo) string {
	t.Helper()
	id, err := eng.InitializeSession(context.Background(), patient)
	require.NoError(t, err)
	return id
}

func TestEngine_InitializeSession(t *testing.T) {
	ctx := context.Background()
	eng := carepath.New(carepath.WithIDGenerator(func() string { return "s-1" }))

	id := newSession(t, eng, domain.PatientInfo{PatientID: "p-1", Department: "cardiology"})
	assert.Equal(t, "s-1", id)

	state, err := eng.GetState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StageArrival, state.Stage)
	assert.Empty(t, state.PendingSteps)

	_, err = eng.InitializeSession(ctx, domain.PatientInfo{PatientID: "p-2"})
	assert.Error(t, err, "duplicate session id is rejected")
}

func TestEngine_InitialAreaIsProcessed(t *testing.T) {
	eng := carepath.New()
	id := newSession(t, eng, domain.PatientInfo{PatientID: "p-1", InitialArea: domain.AreaEntrance})

	state, err := eng.GetState(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, state.Arrived)
	assert.Equal(t, domain.AreaEntrance, state.DetectedArea)
	require.Len(t, state.EventHistory, 1)
	assert.Equal(t, domain.EventLocationUpdate, state.EventHistory[0].Kind)
}

func TestEngine_WaitingRoomCatchesUpCheckIn(t *testing.T) {
	ctx := context.Background()
	eng := carepath.New()
	id := newSession(t, eng, domain.PatientInfo{PatientID: "p-1", Department: "cardiology"})

	state, err := eng.HandleEvent(ctx, id, domain.NewLocationUpdate(domain.LocationSignal{Area: domain.AreaWaitingRoom}))
	require.NoError(t, err)

	assert.Equal(t, domain.StageWaiting, state.Stage)
	assert.True(t, state.CheckInCompleted)
	assert.Equal(t, 1, state.QueuePosition)
	assert.Empty(t, state.PendingSteps)
	require.Len(t, state.EventHistory, 1)
	assert.Equal(t, []string{
		domain.StepUpdateLocation,
		domain.StepInitiateCheckIn,
		domain.StepCompleteCheckIn,
		domain.StepUpdateQueue,
	}, state.EventHistory[0].Steps)

	again, err := eng.HandleEvent(ctx, id, domain.NewLocationUpdate(domain.LocationSignal{Area: domain.AreaWaitingRoom}))
	require.NoError(t, err)
	assert.Equal(t, domain.StageWaiting, again.Stage)
	assert.Equal(t, 1, again.QueuePosition, "repeating the update does not queue the patient twice")
}

func TestEngine_EmergencySuspendsJourneyUntilResolved(t *testing.T) {
	ctx := context.Background()
	eng := carepath.New()
	id := newSession(t, eng, domain.PatientInfo{PatientID: "p-1"})

	_, err := eng.HandleEvent(ctx, id, domain.NewLocationUpdate(domain.LocationSignal{Area: domain.AreaWaitingRoom}))
	require.NoError(t, err)

	state, err := eng.HandleEvent(ctx, id, domain.NewUserMessage("I can't breathe"))
	require.NoError(t, err)
	assert.True(t, state.Emergency.Active)
	assert.Equal(t, domain.StageWaiting, state.Emergency.PreEmergencyStage)
	last := state.EventHistory[len(state.EventHistory)-1]
	assert.Equal(t, []string{domain.StepHandleEmergency}, last.Steps)

	state, err = eng.HandleEvent(ctx, id, domain.NewSystemSignal(domain.SignalVisitStarted, nil))
	require.NoError(t, err)
	assert.Equal(t, domain.StageWaiting, state.Stage, "journey steps are suppressed during an emergency")
	assert.True(t, state.Emergency.Active)

	state, err = eng.HandleEvent(ctx, id, domain.NewSystemSignal(domain.SignalEmergencyResolved, nil))
	require.NoError(t, err)
	assert.False(t, state.Emergency.Active)
	assert.Equal(t, domain.StageWaiting, state.Stage)

	state, err = eng.HandleEvent(ctx, id, domain.NewSystemSignal(domain.SignalVisitStarted, nil))
	require.NoError(t, err)
	assert.Equal(t, domain.StageInVisit, state.Stage)
}

func TestEngine_EmergencyRunsAheadOfQueuedSteps(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	eng := carepath.New(carepath.WithStore(store))
	id := newSession(t, eng, domain.PatientInfo{PatientID: "p-1"})

	// A drain cut short by a cancelled request leaves its steps behind.
	stale, err := store.Load(ctx, id)
	require.NoError(t, err)
	stale.Enqueue(domain.Named(domain.StepInitiateCheckIn))
	require.NoError(t, store.Save(ctx, id, stale))

	state, err := eng.HandleEvent(ctx, id, domain.NewUserMessage("I can't breathe"))
	require.NoError(t, err)

	assert.True(t, state.Emergency.Active)
	assert.Equal(t, domain.StageArrival, state.Stage)
	assert.Equal(t, domain.StageArrival, state.Emergency.PreEmergencyStage)
	assert.False(t, state.CheckInStarted, "queued journey steps are suppressed once the emergency is active")
	assert.Empty(t, state.PendingSteps)
}

type rejectingVerifier struct{}

func (rejectingVerifier) Verify(ctx context.Context, patient domain.PatientInfo) (bool, error) {
	return false, nil
}

func TestEngine_RejectedInsuranceKeepsPatientOutOfQueue(t *testing.T) {
	ctx := context.Background()
	eng := carepath.New(carepath.WithInsuranceVerifier(rejectingVerifier{}))
	id := newSession(t, eng, domain.PatientInfo{PatientID: "p-1", Department: "cardiology"})

	state, err := eng.HandleEvent(ctx, id, domain.NewLocationUpdate(domain.LocationSignal{Area: domain.AreaWaitingRoom}))
	require.NoError(t, err)

	assert.Equal(t, domain.StageCheckIn, state.Stage)
	assert.True(t, state.CheckInStarted)
	assert.False(t, state.InsuranceVerified)
	assert.False(t, state.CheckInCompleted)
	assert.Zero(t, state.QueuePosition)
	assert.Equal(t, domain.AreaWaitingRoom, state.DetectedArea)
}

func TestEngine_WithGuard(t *testing.T) {
	ctx := context.Background()
	var discarded []string
	eng := carepath.New(
		carepath.WithGuard(domain.StepStartVisit, func(s *domain.JourneyState) bool {
			return s.CheckInCompleted && s.Patient.DoctorID != ""
		}),
		carepath.WithLifecycleHooks(domain.LifecycleHooks{
			OnStepDiscarded: func(ctx context.Context, e *domain.StepEvent) { discarded = append(discarded, e.Step) },
		}),
	)
	id := newSession(t, eng, domain.PatientInfo{PatientID: "p-1"})

	state, err := eng.HandleEvent(ctx, id, domain.NewSystemSignal(domain.SignalVisitStarted, nil))
	require.NoError(t, err)
	assert.Equal(t, domain.StageWaiting, state.Stage)
	assert.False(t, state.VisitStarted)
	assert.Equal(t, []string{domain.StepStartVisit}, discarded)

	withDoctor := newSession(t, eng, domain.PatientInfo{PatientID: "p-2", DoctorID: "dr-lima"})
	state, err = eng.HandleEvent(ctx, withDoctor, domain.NewSystemSignal(domain.SignalVisitStarted, nil))
	require.NoError(t, err)
	assert.Equal(t, domain.StageInVisit, state.Stage)
}

func TestEngine_WithGuardrailsReplacesTable(t *testing.T) {
	ctx := context.Background()
	eng := carepath.New(
		carepath.WithGuardrails(guardrail.New()),
		carepath.WithClassifier(fixedClassifier{steps: []domain.Step{domain.Named(domain.StepGenerateDischarge)}}),
	)
	id := newSession(t, eng, domain.PatientInfo{PatientID: "p-1"})

	state, err := eng.HandleEvent(ctx, id, domain.NewUserMessage("please discharge me"))
	require.NoError(t, err)
	assert.True(t, state.DischargeReady, "an empty table allows every step")
}

type fixedClassifier struct {
	steps []domain.Step
}

func (c fixedClassifier) Classify(ctx context.Context, text string, history []domain.AuditEntry) (ports.Classification, error) {
	return ports.Classification{Intent: "test", Steps: c.steps}, nil
}

func TestEngine_DischargeBeforeVisitEndIsDiscarded(t *testing.T) {
	ctx := context.Background()
	var discarded []string
	eng := carepath.New(
		carepath.WithClassifier(fixedClassifier{steps: []domain.Step{domain.Named(domain.StepGenerateDischarge)}}),
		carepath.WithLifecycleHooks(domain.LifecycleHooks{
			OnStepDiscarded: func(ctx context.Context, e *domain.StepEvent) { discarded = append(discarded, e.Step) },
		}),
	)
	id := newSession(t, eng, domain.PatientInfo{PatientID: "p-1"})
	before, err := eng.HandleEvent(ctx, id, domain.NewLocationUpdate(domain.LocationSignal{Area: domain.AreaWaitingRoom}))
	require.NoError(t, err)
	discarded = nil

	state, err := eng.HandleEvent(ctx, id, domain.NewUserMessage("please discharge me"))
	require.NoError(t, err)

	assert.Equal(t, []string{domain.StepGenerateDischarge}, discarded)
	assert.False(t, state.DischargeReady)
	assert.Equal(t, before.Stage, state.Stage)
	assert.Len(t, state.Notifications, len(before.Notifications))
}

func TestEngine_VisitEndCreatesPostVisitTasks(t *testing.T) {
	ctx := context.Background()
	eng := carepath.New()
	id := newSession(t, eng, domain.PatientInfo{PatientID: "p-1", HasPrescriptions: true})

	_, err := eng.HandleEvent(ctx, id, domain.NewSystemSignal(domain.SignalVisitStarted, nil))
	require.NoError(t, err)
	state, err := eng.HandleEvent(ctx, id, domain.NewSystemSignal(domain.SignalVisitEnded, nil))
	require.NoError(t, err)

	assert.Equal(t, domain.StagePostVisit, state.Stage)
	assert.True(t, state.VisitEnded)
	assert.True(t, state.IsTaskComplete(domain.TaskPostVisitSetup))
	var ids []string
	for _, task := range state.PendingTasks {
		ids = append(ids, task.ID)
	}
	assert.Contains(t, ids, domain.TaskPickUpPrescription)
}

func TestEngine_UnknownSession(t *testing.T) {
	ctx := context.Background()
	eng := carepath.New()

	_, err := eng.GetState(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))

	_, err = eng.HandleEvent(ctx, "missing", domain.NewUserMessage("hello"))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.ErrorIs(t, eng.EndSession(ctx, "missing"), domain.ErrSessionNotFound)
}

func TestEngine_InvalidEventIsRecordedWithoutSteps(t *testing.T) {
	ctx := context.Background()
	eng := carepath.New()
	id := newSession(t, eng, domain.PatientInfo{})

	state, err := eng.HandleEvent(ctx, id, domain.Event{Kind: domain.EventUserMessage})
	require.NoError(t, err)
	require.Len(t, state.EventHistory, 1)
	assert.Empty(t, state.EventHistory[0].Steps)
	assert.Equal(t, domain.StageArrival, state.Stage)
}

func TestEngine_EndSessionArchivesAndDeletes(t *testing.T) {
	ctx := context.Background()
	archive := memory.NewStore()
	eng := carepath.New(carepath.WithArchive(archive))
	id := newSession(t, eng, domain.PatientInfo{PatientID: "p-1"})

	_, err := eng.HandleEvent(ctx, id, domain.NewLocationUpdate(domain.LocationSignal{Area: domain.AreaWaitingRoom}))
	require.NoError(t, err)
	require.NoError(t, eng.EndSession(ctx, id))

	_, err = eng.GetState(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.Equal(t, 1, archive.Len())
	final, err := archive.Load(ctx, id)
	require.NoError(t, err)
	assert.False(t, final.Stage.Before(domain.StageWaiting))
	last := final.EventHistory[len(final.EventHistory)-1]
	assert.Equal(t, "area="+string(domain.AreaExit), last.Detail, "a departure is synthesized")
}

func TestEngine_ListSessions(t *testing.T) {
	ctx := context.Background()
	eng := carepath.New()
	a := newSession(t, eng, domain.PatientInfo{PatientID: "p-a"})
	b := newSession(t, eng, domain.PatientInfo{PatientID: "p-b"})

	list, err := eng.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byID := map[string]domain.SessionSummary{}
	for _, s := range list {
		byID[s.SessionID] = s
	}
	assert.Equal(t, "p-a", byID[a].PatientID)
	assert.Equal(t, "p-b", byID[b].PatientID)
}

func TestEngine_TriggerEmergency(t *testing.T) {
	ctx := context.Background()
	eng := carepath.New()
	id := newSession(t, eng, domain.PatientInfo{})

	state, err := eng.TriggerEmergency(ctx, id, "I have chest pain")
	require.NoError(t, err)
	assert.True(t, state.Emergency.Active)
	assert.Equal(t, "cardiac", state.Emergency.Type)

	id2 := newSession(t, eng, domain.PatientInfo{})
	state, err = eng.TriggerEmergency(ctx, id2, "")
	require.NoError(t, err)
	assert.Equal(t, "general", state.Emergency.Type)
}

type failingNotifier struct{}

func (failingNotifier) Notify(ctx context.Context, sessionID string, n domain.Notification) error {
	return errors.New("gateway down")
}

func TestEngine_DeliversOnlyNewNotifications(t *testing.T) {
	ctx := context.Background()
	rec := notify.NewRecorder()
	eng := carepath.New(carepath.WithNotifier(notify.Fanout{rec, failingNotifier{}}))
	id := newSession(t, eng, domain.PatientInfo{})

	state, err := eng.HandleEvent(ctx, id, domain.NewLocationUpdate(domain.LocationSignal{Area: domain.AreaWaitingRoom}))
	require.NoError(t, err, "notifier failures do not fail the event")
	first := len(rec.Sent(id))
	assert.Equal(t, len(state.Notifications), first)

	state, err = eng.HandleEvent(ctx, id, domain.NewUserMessage("how long is the wait?"))
	require.NoError(t, err)
	assert.Equal(t, len(state.Notifications), len(rec.Sent(id)))
	assert.Greater(t, len(rec.Sent(id)), first)
}

func TestEngine_StateListener(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	var diffs []*domain.StateDiff
	eng := carepath.New(carepath.WithStateListener(func(d *domain.StateDiff) {
		mu.Lock()
		defer mu.Unlock()
		diffs = append(diffs, d)
	}))
	id := newSession(t, eng, domain.PatientInfo{})

	_, err := eng.HandleEvent(ctx, id, domain.NewLocationUpdate(domain.LocationSignal{Area: domain.AreaWaitingRoom}))
	require.NoError(t, err)

	require.Len(t, diffs, 2)
	require.NotNil(t, diffs[1].Stage)
	assert.Equal(t, domain.StageWaiting, *diffs[1].Stage)
	assert.Equal(t, id, diffs[1].SessionID)
}

func TestEngine_EventsForOneSessionAreSerialized(t *testing.T) {
	ctx := context.Background()
	eng := carepath.New()
	id := newSession(t, eng, domain.PatientInfo{})

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := eng.HandleEvent(ctx, id, domain.NewSystemSignal(domain.SignalLabResultsReady, nil))
			return err
		})
	}
	require.NoError(t, g.Wait())

	state, err := eng.GetState(ctx, id)
	require.NoError(t, err)
	assert.Len(t, state.EventHistory, 10, "no event is lost")
}
