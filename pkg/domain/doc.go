/*
Package domain contains the core domain models for the workflow engine.

It defines the fundamental entities of the development-process state machine:
WorkflowDefinition (the finite state machine of phases), State, Transition,
and ConversationState (the per-conversation runtime snapshot). This package
is kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - WorkflowDefinition: A named FSM of development phases, immutable after load.
  - State: A single phase with entrance criteria, instructions and outgoing transitions.
  - Transition: A trigger-named, optionally role-scoped edge between two states.
  - ConversationState: The persisted snapshot of one conversation's position.
*/
package domain
