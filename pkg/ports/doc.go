/*
Package ports defines the driven ports (interfaces) for the workflow engine.

These interfaces decouple the core logic from external implementations,
allowing the engine to work with various definition sources, state stores,
plan-document backends and lock providers.

# Key Interfaces

  - WorkflowSource: Loads parsed workflow definitions by name.
  - StateStore: Persists per-conversation workflow position.
  - PlanStore: Persists per-conversation development-plan documents.
  - DistributedLocker: Cross-instance serialization of conversation advances.
*/
package ports
