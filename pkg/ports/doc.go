/*
Package ports defines the driven ports (interfaces) of the clocktower engine.

These interfaces decouple the game core from external implementations, allowing
the engine to work with various decision makers and storage backends.

# Key Interfaces

  - DecisionProvider: Answers the engine's decision requests on behalf of participants.
  - EventStore: Persists and loads the append-only event log of a game.
  - DistributedLocker: Provides distributed locking for games shared across instances.
*/
package ports
