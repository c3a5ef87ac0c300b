/*
Package session orchestrates conversation advances.

The Manager serializes all work for a single conversation behind a
refcounted per-conversation mutex (plus an optional distributed lock for
multi-replica deployments), so two concurrent Advance calls can never read
the same "from" state and both succeed into divergent "to" states.
Unrelated conversations stay fully independent.

One Advance call runs the whole pipeline: load state, run the blocking
beforePhaseTransition validation hook, resolve the transition, render
instructions, persist the new state, then fire the advisory session-start
hooks when applicable.
*/
package session
