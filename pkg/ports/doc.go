/*
Package ports defines the driven ports (interfaces) of the carepath engine.

These interfaces decouple the orchestration core from its collaborators, allowing
the engine to run against different storage backends, classifiers, location
sources and notification channels.

# Key Interfaces

  - SessionStore: persists and loads JourneyState per session.
  - DistributedLocker: coordinates session access across replicas.
  - NodeHandler / ParamHandler: the work behind named and parameterized steps.
  - IntentClassifier, LocationResolver, Notifier, WaitList, InsuranceVerifier: external collaborators.
*/
package ports
