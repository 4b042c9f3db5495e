/*
Package ussdpilot drives a mobile-money USSD menu on behalf of a remote operator.

An authorized SMS such as "SM|0712345678|500" is interpreted into a transaction
request; the engine then opens the menu session, watches the rendered element
tree and answers each screen in turn (menu digits, recipient, amount, PIN and an
optional confirmation), closing the dialog once the result is shown.

# Architecture

The menu itself lives behind ports.SessionAdapter, so the same engine runs
against a device accessibility bridge or the in-memory simulator. State is one
persisted cursor (ports.SessionStore), timers are delivered through a single
event loop, and every side effect is reported through domain.LifecycleHooks.

# Usage

	sim := simulator.New()
	pilot, err := ussdpilot.New(sim,
		ussdpilot.WithPolicy(ussdpilot.StaticPolicy{
			Enabled:        true,
			AllowedSenders: []string{"0712000000"},
			AuthCode:       "1234",
		}),
	)
	if err != nil {
		log.Fatal(err)
	}

	go pilot.Run(ctx)

	req, err := pilot.SubmitMessage(ctx, trigger.Message{
		Sender: "+254712000000",
		Body:   "BG|55555|200",
	})
	if err != nil {
		log.Fatal(err)
	}
	if req == nil {
		log.Println("message ignored")
	}
*/
package ussdpilot
