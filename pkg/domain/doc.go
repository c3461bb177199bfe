/*
Package domain contains the core domain models of the Clocktower engine.

It defines the closed character enumeration, the participant-facing projections of the
game state, the event record that drives every mutation, and the decision schema
exchanged with external agents. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Character / Kind / Alignment: the Trouble Brewing roster and its team derivation.
  - Event: the immutable, sequenced record of every state change or communication.
  - KnowledgeItem: a single piece of information delivered to exactly one participant.
  - View: what one participant is allowed to see.
  - ActionSchema / Decision: the contract with the external decision provider.
*/
package domain
