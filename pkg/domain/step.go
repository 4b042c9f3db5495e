package domain

// StepAction tags what a step does against the interactive session.
type StepAction string

const (
	ActionSendDigit      StepAction = "SEND_DIGIT"
	ActionFillField      StepAction = "FILL_FIELD"
	ActionFinishWithAuth StepAction = "FINISH_WITH_AUTH"
	ActionConfirm        StepAction = "CONFIRM"
)

// StepDefinition is one row of the step table.
// Exactly one of Digit or Field is set, depending on Action.
type StepDefinition struct {
	ID       StepID     `json:"id" yaml:"id"`
	Action   StepAction `json:"action" yaml:"action"`
	Digit    string     `json:"digit,omitempty" yaml:"digit,omitempty"`
	Field    Field      `json:"field,omitempty" yaml:"field,omitempty"`
	Keywords []string   `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Next     StepID     `json:"next,omitempty" yaml:"next,omitempty"`
}
