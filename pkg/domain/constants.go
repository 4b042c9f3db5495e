package domain

import "time"

// Default timings, expressed in wall-clock units.
const (
	DefaultInitialDelay     = 1200 * time.Millisecond
	DefaultStepDelay        = 650 * time.Millisecond
	DefaultConfirmDelay     = 1500 * time.Millisecond
	DefaultResultCloseDelay = 2 * time.Second
	DefaultDeadman          = 60 * time.Second
	DefaultRecoveryDelay    = 500 * time.Millisecond

	// DefaultMaxConfirmRetries bounds failed attempts at the confirmation step.
	DefaultMaxConfirmRetries = 8

	// DefaultAccessCode is dialed to surface the menu session.
	DefaultAccessCode = "*334#"

	// DefaultOwnerID identifies the automation's own surface.
	DefaultOwnerID = "ussdpilot"
)

// DefaultMarkers is the vocabulary that identifies an interactive menu context.
var DefaultMarkers = []string{"SEND", "CANCEL", "Send Money", "Withdraw Cash", "Yes", "No", "To continue"}

// DefaultAuthPrompts are phrases shown while the authentication field is on screen.
var DefaultAuthPrompts = []string{"Enter M-PESA PIN", "Enter M-Pesa PIN", "Enter PIN"}

// DefaultActionLabels are tried in order when looking for the submit button.
var DefaultActionLabels = []string{"Send", "OK", "Submit", "Confirm", "SEND", "Ok"}

// Timing groups the delays used by the step executor and the timeout governor.
type Timing struct {
	InitialDelay     time.Duration `json:"initial_delay" yaml:"initial_delay" mapstructure:"initial_delay"`
	StepDelay        time.Duration `json:"step_delay" yaml:"step_delay" mapstructure:"step_delay"`
	ConfirmDelay     time.Duration `json:"confirm_delay" yaml:"confirm_delay" mapstructure:"confirm_delay"`
	ResultCloseDelay time.Duration `json:"result_close_delay" yaml:"result_close_delay" mapstructure:"result_close_delay"`
	Deadman          time.Duration `json:"deadman" yaml:"deadman" mapstructure:"deadman"`
	RecoveryDelay    time.Duration `json:"recovery_delay" yaml:"recovery_delay" mapstructure:"recovery_delay"`
}

// DefaultTiming returns the production delays.
func DefaultTiming() Timing {
	return Timing{
		InitialDelay:     DefaultInitialDelay,
		StepDelay:        DefaultStepDelay,
		ConfirmDelay:     DefaultConfirmDelay,
		ResultCloseDelay: DefaultResultCloseDelay,
		Deadman:          DefaultDeadman,
		RecoveryDelay:    DefaultRecoveryDelay,
	}
}
