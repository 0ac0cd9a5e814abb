// Package intent provides the default keyword-based IntentClassifier.
//
// It recognises the everyday requests a patient makes from inside the hospital
// (directions, amenities, waiting time, check-in, leaving, reassurance) and maps
// them to journey steps. Anything it cannot place is returned with IntentUnknown
// and no steps, leaving the fallback decision to the router.
package intent
