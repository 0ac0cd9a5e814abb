package domain

// StepKind distinguishes plain steps from steps that carry arguments.
type StepKind string

const (
	StepKindNamed         StepKind = "named"
	StepKindParameterized StepKind = "parameterized"
)

// Step names understood by the default handler set.
const (
	StepHandleArrival        = "handle_arrival"
	StepInitiateCheckIn      = "initiate_check_in"
	StepCompleteCheckIn      = "complete_check_in"
	StepUpdateQueue          = "update_queue"
	StepUpdateWaitTime       = "update_wait_time"
	StepSuggestActivities    = "suggest_activities"
	StepNotifyNextInQueue    = "notify_next_in_queue"
	StepStartVisit           = "start_visit"
	StepGenerateQuestions    = "generate_questions"
	StepEndVisit             = "end_visit"
	StepCreatePostVisitTasks = "create_post_visit_tasks"
	StepGenerateDischarge    = "generate_discharge"
	StepInitiateDeparture    = "initiate_departure"
	StepCompleteJourney      = "complete_journey"
	StepSendReminder         = "send_reminder"
	StepRemindCheckIn        = "remind_check_in"
	StepNotifyPrescription   = "notify_prescription_ready"
	StepNotifyLabResults     = "notify_lab_results"
	StepFindAmenities        = "find_amenities"
	StepProvideSupport       = "provide_support"
	StepAcknowledge          = "acknowledge"
	StepConsultHuman         = "consult_human"
	StepResolveEmergency     = "resolve_emergency"
	StepHandleEmergency      = "handle_emergency"
	StepNavigate             = "navigate"
	StepUpdateLocation       = "update_location"
)

// Step is a unit of work queued on a session.
type Step struct {
	Kind StepKind       `json:"kind"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Named builds a step without arguments.
func Named(name string) Step {
	return Step{Kind: StepKindNamed, Name: name}
}

// Parameterized builds a step that is dispatched with its arguments.
func Parameterized(name string, args map[string]any) Step {
	if args == nil {
		args = map[string]any{}
	}
	return Step{Kind: StepKindParameterized, Name: name, Args: args}
}

// IsParameterized reports whether the step carries arguments for a parameterized collaborator.
func (s Step) IsParameterized() bool {
	return s.Kind == StepKindParameterized
}

// IsEmergency reports whether the step belongs to emergency bookkeeping.
// Only these steps run while an emergency is active.
func (s Step) IsEmergency() bool {
	return s.Name == StepHandleEmergency || s.Name == StepResolveEmergency
}

func (s Step) String() string {
	return s.Name
}

func (s Step) clone() Step {
	out := s
	if s.Args != nil {
		out.Args = make(map[string]any, len(s.Args))
		for k, v := range s.Args {
			out.Args[k] = v
		}
	}
	return out
}

// StepNames returns the names of the steps in order.
func StepNames(steps []Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}
