/*
Package domain contains the core model of a patient journey.

It defines the stage progression a patient walks through during a hospital visit,
the per-session JourneyState, the Steps the engine executes and the Events that
feed it. The package is kept free of I/O and persistence concerns.

# Key Entities

  - Stage: closed, ordered enumeration of journey stages (see Progression).
  - JourneyState: snapshot of one session (stage, flags, queues, notifications, audit trail).
  - Step: a unit of work, either Named or Parameterized.
  - Event: a location update, a user message or a system signal.
  - Notification: a structured record destined for the patient or staff.
*/
package domain
