/*
Package ports defines the driven ports (interfaces) of the automation engine.

These interfaces decouple the state machine from the platform that renders the menu
session, from the storage backend that keeps the automation cursor, and from the
clock that drives delays and timeouts.

# Key Interfaces

  - SessionStore: persists the single SessionState (Load/Save/Clear).
  - SessionAdapter: opens the interactive session, reads snapshots and dispatches input.
  - Scheduler: arms and cancels named one-shot timers.
  - PolicySource: read-only allow-list and auth configuration.
  - DistributedLocker: cross-process coordination of store access.
*/
package ports
