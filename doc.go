/*
Package vibe drives an AI coding agent through a configurable multi-phase
development process (e.g. explore, plan, code, commit).

The engine tracks a finite-state workflow per conversation, computes which
transition is legal next, and emits phase-specific instructions. Auxiliary
systems (issue trackers, commit automation, metrics) observe and influence
the lifecycle through the plugin hook registry without the core ever knowing
they exist.

The root Engine type wires the pieces together for embedding hosts; the
adapters under pkg/adapters expose the same engine over MCP, HTTP, and the
CLI.
*/
package vibe
