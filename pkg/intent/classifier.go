package intent

import (
	"context"
	"strings"

	"github.com/aretw0/carepath/pkg/domain"
	"github.com/aretw0/carepath/pkg/ports"
)

// Intents reported by the classifier.
const (
	IntentNavigate  = "navigate"
	IntentAmenities = "find_amenities"
	IntentWaitTime  = "wait_time"
	IntentArrival   = "arrival"
	IntentCheckIn   = "check_in"
	IntentNextSteps = "next_steps"
	IntentLeaving   = "leaving"
	IntentSupport   = "support"
	IntentUnknown   = "unknown"
)

// places maps words patients use to the areas they refer to.
var places = []struct {
	words []string
	area  domain.Area
}{
	{[]string{"pharmacy", "prescription counter"}, domain.AreaPharmacy},
	{[]string{"lab", "blood test", "blood draw"}, domain.AreaLab},
	{[]string{"cafeteria", "canteen", "coffee"}, domain.AreaCafeteria},
	{[]string{"restroom", "bathroom", "toilet"}, domain.AreaRestroom},
	{[]string{"registration", "register", "reception", "front desk"}, domain.AreaRegistration},
	{[]string{"waiting room", "waiting area"}, domain.AreaWaitingRoom},
	{[]string{"exam room", "room 2", "doctor's office"}, domain.AreaExamRoom},
	{[]string{"parking", "car park", "garage"}, domain.AreaParking},
	{[]string{"exit", "way out"}, domain.AreaExit},
}

var (
	directionPhrases = []string{"where is", "where's", "where do i", "how do i get to", "take me to", "directions to", "way to the", "show me the"}
	amenityPhrases   = []string{"restroom", "bathroom", "toilet", "food", "eat", "drink", "coffee", "atm", "vending", "wifi", "charge my phone"}
	waitPhrases      = []string{"how long", "wait", "queue", "my turn", "when will i be called", "when will i be seen", "position"}
	arrivalPhrases   = []string{"just got here", "just arrived", "i arrived", "i'm at the entrance", "i am at the entrance", "i'm here for my appointment"}
	checkInPhrases   = []string{"check in", "check-in", "checkin", "register"}
	nextStepPhrases  = []string{"what do i do now", "what's next", "what is next", "next steps", "do i need lab", "after my appointment"}
	leavingPhrases   = []string{"leaving", "going home", "head home", "how do i exit", "way out", "i'm done", "i am done"}
	supportPhrases   = []string{"nervous", "anxious", "scared", "worried", "afraid", "can you help", "i have a question", "lonely", "overwhelmed"}
)

// KeywordClassifier implements ports.IntentClassifier with phrase matching.
type KeywordClassifier struct{}

var _ ports.IntentClassifier = (*KeywordClassifier)(nil)

// NewKeywordClassifier creates the default classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify maps text to an intent and the steps that serve it. The first matching
// rule wins; directions to a known place take precedence over amenity lookups.
func (c *KeywordClassifier) Classify(ctx context.Context, text string, history []domain.AuditEntry) (ports.Classification, error) {
	t := normalize(text)
	if t == "" {
		return ports.Classification{Intent: IntentUnknown}, nil
	}

	if containsAny(t, directionPhrases) {
		if area, ok := place(t); ok {
			return ports.Classification{
				Intent: IntentNavigate,
				Steps:  []domain.Step{domain.Parameterized(domain.StepNavigate, map[string]any{"destination": string(area)})},
			}, nil
		}
	}

	switch {
	case containsAny(t, leavingPhrases):
		return ports.Classification{
			Intent: IntentLeaving,
			Steps: []domain.Step{
				domain.Named(domain.StepInitiateDeparture),
				domain.Parameterized(domain.StepNavigate, map[string]any{"destination": string(domain.AreaExit)}),
			},
		}, nil
	case containsAny(t, arrivalPhrases):
		return ports.Classification{Intent: IntentArrival, Steps: []domain.Step{domain.Named(domain.StepHandleArrival)}}, nil
	case containsAny(t, checkInPhrases):
		target := domain.StageCheckIn
		return ports.Classification{Intent: IntentCheckIn, TargetStage: &target}, nil
	case containsAny(t, nextStepPhrases):
		return ports.Classification{Intent: IntentNextSteps, Steps: []domain.Step{domain.Named(domain.StepCreatePostVisitTasks)}}, nil
	case containsAny(t, waitPhrases):
		return ports.Classification{Intent: IntentWaitTime, Steps: []domain.Step{domain.Named(domain.StepUpdateWaitTime)}}, nil
	case containsAny(t, amenityPhrases):
		return ports.Classification{Intent: IntentAmenities, Steps: []domain.Step{domain.Named(domain.StepFindAmenities)}}, nil
	case containsAny(t, supportPhrases):
		return ports.Classification{Intent: IntentSupport, Steps: []domain.Step{domain.Named(domain.StepProvideSupport)}}, nil
	}

	return ports.Classification{Intent: IntentUnknown}, nil
}

func place(t string) (domain.Area, bool) {
	for _, p := range places {
		if containsAny(t, p.words) {
			return p.area, true
		}
	}
	return "", false
}

// containsAny matches phrases at word starts so "eat" does not fire on "weather".
func containsAny(t string, phrases []string) bool {
	t = " " + t
	for _, p := range phrases {
		if strings.Contains(t, " "+p) {
			return true
		}
	}
	return false
}

func normalize(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.NewReplacer("’", "'", "‘", "'").Replace(t)
	return strings.Join(strings.Fields(t), " ")
}
