package domain

import "time"

// StepID names a position in a mode's step chain.
type StepID string

const (
	// StepNone is the cursor value between a trigger and the first session callback.
	StepNone StepID = ""

	StepSendMenu     StepID = "SM_1"
	StepSendSubmenu  StepID = "SM_2"
	StepSendPhone    StepID = "SM_PHONE"
	StepSendAmount   StepID = "SM_AMOUNT"
	StepSendAuth     StepID = "SM_PIN"
	StepTillMenu     StepID = "TILL_6"
	StepTillSubmenu  StepID = "TILL_2"
	StepTillNumber   StepID = "TILL_NUM"
	StepTillAmount   StepID = "TILL_AMOUNT"
	StepTillAuth     StepID = "TILL_PIN"
	StepPayMenu      StepID = "PB_6"
	StepPaySubmenu   StepID = "PB_1"
	StepPayBusiness  StepID = "PB_BUSINESS"
	StepPayAccount   StepID = "PB_ACCOUNT"
	StepPayAmount    StepID = "PB_AMOUNT"
	StepPayAuth      StepID = "PB_PIN"
	StepDrawMenu     StepID = "WD_2"
	StepDrawSubmenu  StepID = "WD_1"
	StepDrawAgent    StepID = "WD_AGENT"
	StepDrawStore    StepID = "WD_STORE"
	StepDrawAmount   StepID = "WD_AMOUNT"
	StepDrawAuth     StepID = "WD_PIN"
	StepConfirm      StepID = "CONFIRM_1"
	StepDone         StepID = "DONE"
)

// SessionState is the durable automation cursor.
//
// A non-terminal Step implies Pending. Step is StepNone only between a trigger and
// the first callback, and Pending is false only once Step is StepDone.
type SessionState struct {
	ID                string    `json:"id" mapstructure:"id"`
	Pending           bool      `json:"pending" mapstructure:"pending"`
	Step              StepID    `json:"state" mapstructure:"state"`
	ConfirmRetryCount int       `json:"confirmRetryCount" mapstructure:"confirmRetryCount"`
	Closing           bool      `json:"closing" mapstructure:"closing"`
	UpdatedAt         time.Time `json:"updatedAt" mapstructure:"-"`

	Mode             Mode   `json:"mode" mapstructure:"mode"`
	Amount           string `json:"amount" mapstructure:"amount"`
	Phone            string `json:"phone" mapstructure:"phone"`
	Till             string `json:"till" mapstructure:"till"`
	Business         string `json:"business" mapstructure:"business"`
	Account          string `json:"account" mapstructure:"account"`
	Agent            string `json:"agent" mapstructure:"agent"`
	Store            string `json:"store" mapstructure:"store"`
	AuthCode         string `json:"authCode" mapstructure:"authCode"`
	ConfirmAfterAuth bool   `json:"confirmAfterAuth" mapstructure:"confirmAfterAuth"`
}

// NewSessionState creates the pending cursor for a freshly triggered request.
func NewSessionState(id string, req TransactionRequest) *SessionState {
	return &SessionState{
		ID:               id,
		Pending:          true,
		Step:             StepNone,
		Mode:             req.Mode,
		Amount:           req.Amount,
		Phone:            req.Phone,
		Till:             req.Till,
		Business:         req.Business,
		Account:          req.Account,
		Agent:            req.Agent,
		Store:            req.Store,
		AuthCode:         req.AuthCode,
		ConfirmAfterAuth: req.ConfirmAfterAuth,
	}
}

// Request rebuilds the transaction request copied into the state.
func (s *SessionState) Request() TransactionRequest {
	return TransactionRequest{
		Mode:             s.Mode,
		Amount:           s.Amount,
		Phone:            s.Phone,
		Till:             s.Till,
		Business:         s.Business,
		Account:          s.Account,
		Agent:            s.Agent,
		Store:            s.Store,
		AuthCode:         s.AuthCode,
		ConfirmAfterAuth: s.ConfirmAfterAuth,
	}
}

// Active reports whether the automation still has work to do.
func (s *SessionState) Active() bool {
	return s != nil && s.Pending && s.Step != StepDone
}

// Finish moves the cursor to the terminal state.
func (s *SessionState) Finish() {
	s.Pending = false
	s.Step = StepDone
	s.Closing = false
}

// Clone returns an independent copy.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Redacted returns a copy with the auth code masked.
func (s *SessionState) Redacted() *SessionState {
	c := s.Clone()
	if c != nil && c.AuthCode != "" {
		c.AuthCode = RedactedValue
	}
	return c
}

// FinishReason explains how a session reached StepDone.
type FinishReason string

const (
	FinishCompleted  FinishReason = "completed"
	FinishTimeout    FinishReason = "timeout"
	FinishOpenFailed FinishReason = "open_failed"
	FinishSuperseded FinishReason = "superseded"
)
