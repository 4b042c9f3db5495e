/*
Package trigger turns compact inbound messages into transaction requests.

A trigger message is pipe-delimited with a case-insensitive tag:

	SM|amount                  send money to the sender
	SM|phone|amount            send money
	BG|till|amount             buy goods (till)
	PB|business|amount|account paybill
	WA|agent|amount|store      withdraw at an agent

Messages are only honoured when the feature is enabled, the sender is on the
allow-list and an auth code is configured. Anything else is ignored without error
to the sender: Interpret returns a *RejectError describing why, for logs and metrics.
*/
package trigger
