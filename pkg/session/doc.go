/*
Package session serialises access to the persisted automation cursor.

The trigger receiver and the automation loop may run in different processes that
share one store; the Manager holds an in-process mutex and, when configured, a
distributed lock around every read-modify-write.
*/
package session
