package runtime

import "github.com/aretw0/carepath/pkg/domain"

// requirement is a step a stage needs, skipped once done reports true.
type requirement struct {
	step string
	done func(*domain.JourneyState) bool
}

var stageRequirements = map[domain.Stage][]requirement{
	domain.StageArrival: {
		{domain.StepHandleArrival, func(s *domain.JourneyState) bool { return s.Arrived }},
	},
	domain.StageCheckIn: {
		{domain.StepInitiateCheckIn, func(s *domain.JourneyState) bool { return s.CheckInStarted || s.CheckInCompleted }},
	},
	domain.StagePreVisit: {
		{domain.StepCompleteCheckIn, func(s *domain.JourneyState) bool { return s.CheckInCompleted }},
	},
	domain.StageWaiting: {
		{domain.StepUpdateQueue, func(s *domain.JourneyState) bool { return s.QueuePosition > 0 || s.VisitStarted }},
	},
	domain.StageInVisit: {
		{domain.StepStartVisit, func(s *domain.JourneyState) bool { return s.VisitStarted }},
		{domain.StepGenerateQuestions, func(s *domain.JourneyState) bool { return s.IsTaskComplete(domain.TaskVisitQuestions) }},
	},
	domain.StagePostVisit: {
		{domain.StepEndVisit, func(s *domain.JourneyState) bool { return s.VisitEnded }},
		{domain.StepCreatePostVisitTasks, func(s *domain.JourneyState) bool { return s.IsTaskComplete(domain.TaskPostVisitSetup) }},
		{domain.StepGenerateDischarge, func(s *domain.JourneyState) bool { return s.DischargeReady }},
	},
	domain.StageDeparture: {
		{domain.StepInitiateDeparture, func(s *domain.JourneyState) bool { return s.DepartureStarted }},
	},
	domain.StageCompleted: {
		{domain.StepCompleteJourney, func(s *domain.JourneyState) bool { return s.Stage == domain.StageCompleted }},
	},
}

// Planner computes the steps that bring a journey up to a later stage.
type Planner struct{}

// NewPlanner creates a Planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// CatchUp returns, in progression order, the unsatisfied requirements of every stage
// after current up to and including target. It returns nothing when target is not ahead.
func (p *Planner) CatchUp(current, target domain.Stage, state *domain.JourneyState) []domain.Step {
	from, to := current.Index(), target.Index()
	if from < 0 || to < 0 || to <= from {
		return nil
	}

	var steps []domain.Step
	for _, stage := range domain.Progression[from+1 : to+1] {
		for _, req := range stageRequirements[stage] {
			if req.done(state) {
				continue
			}
			steps = append(steps, domain.Named(req.step))
		}
	}
	return steps
}
