package carepath_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/carepath"
	"github.com/aretw0/carepath/pkg/domain"
)

// ExampleNew shows a patient walking into the waiting room and then raising an emergency.
func ExampleNew() {
	eng := carepath.New(carepath.WithIDGenerator(func() string { return "visit-1" }))
	ctx := context.Background()

	id, err := eng.InitializeSession(ctx, domain.PatientInfo{PatientID: "p-42", Department: "cardiology"})
	if err != nil {
		log.Fatal(err)
	}

	state, err := eng.HandleEvent(ctx, id, domain.NewLocationUpdate(domain.LocationSignal{Area: domain.AreaWaitingRoom}))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(id, state.Stage, state.QueuePosition)

	state, err = eng.TriggerEmergency(ctx, id, "I have chest pain")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(state.Stage, state.Emergency.Active, state.Emergency.Type)

	// Output:
	// visit-1 waiting 1
	// waiting true cardiac
}
