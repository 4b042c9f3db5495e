/*
Package domain contains the core types of the guided session automation engine.

It defines what a transaction request is, what the durable automation cursor looks like,
how an externally rendered menu is represented, and what a step of the automation means.
The package is kept pure: no I/O, no timers, no persistence.

# Key Entities

  - TransactionRequest: the typed, immutable request produced from a trigger message.
  - SessionState: the persisted cursor (pending flag, current step, retry counter, request copy).
  - ScreenNode / Snapshot: a read-only element tree captured from the interactive session.
  - StepDefinition: one row of the declarative per-mode step table.
*/
package domain
