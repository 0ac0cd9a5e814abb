/*
Package carepath orchestrates a patient's journey through a hospital visit.

Each session holds a JourneyState that moves forward through a fixed progression of
stages (arrival, check-in, pre-visit, waiting, in-visit, post-visit, departure,
completed). Inbound events (location updates, patient messages and hospital system
signals) are routed to ordered steps; the executor drains those steps through
registered handlers, subject to guardrails. An emergency suspends all other work until
it is resolved and then restores the stage the patient was in.

# Usage

	eng := carepath.New(
		carepath.WithLogger(logger),
		carepath.WithNotifier(notify.NewLog(logger)),
	)

	id, err := eng.InitializeSession(ctx, domain.PatientInfo{PatientID: "p-1", Department: "cardiology"})
	if err != nil {
		log.Fatal(err)
	}

	state, err := eng.HandleEvent(ctx, id, domain.NewLocationUpdate(domain.LocationSignal{Area: domain.AreaWaitingRoom}))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(state.Stage) // waiting

Events for one session are processed one at a time; different sessions run in
parallel. Sessions are kept in memory unless another ports.SessionStore is supplied
(see pkg/adapters/redis and the file store used by the CLI).
*/
package carepath
