package trigger

import (
	"fmt"
	"strings"

	"github.com/aretw0/ussdpilot/pkg/domain"
)

// Message is an inbound trigger as delivered by the transport.
// Multi-part deliveries list each segment in Parts; they are concatenated in order.
type Message struct {
	Sender string   `json:"sender"`
	Body   string   `json:"body,omitempty"`
	Parts  []string `json:"parts,omitempty"`
}

// Text returns the full body of the message.
func (m Message) Text() string {
	if len(m.Parts) == 0 {
		return m.Body
	}
	return strings.Join(m.Parts, "")
}

// Reason classifies why a message was not turned into a request.
type Reason string

const (
	ReasonDisabled     Reason = "disabled"
	ReasonNoAllowList  Reason = "no_allow_list"
	ReasonNoAuthCode   Reason = "no_auth_code"
	ReasonUnauthorized Reason = "unauthorized_sender"
	ReasonEmptyBody    Reason = "empty_body"
	ReasonUnknownTag   Reason = "unknown_tag"
	ReasonBlankField   Reason = "blank_field"
	ReasonMalformed    Reason = "malformed_body"
)

// RejectError reports an ignored message. It is never shown to the sender.
type RejectError struct {
	Reason Reason
	Detail string
}

func (e *RejectError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("trigger rejected: %s", e.Reason)
	}
	return fmt.Sprintf("trigger rejected: %s (%s)", e.Reason, e.Detail)
}

func reject(reason Reason, detail string) error {
	return &RejectError{Reason: reason, Detail: detail}
}

// Tags understood by Interpret.
const (
	TagSendMoney = "SM"
	TagTill      = "BG"
	TagPaybill   = "PB"
	TagWithdraw  = "WA"
)

// Interpreter parses trigger messages against an allow-list policy.
type Interpreter struct {
	// CountryCode is rewritten to the local trunk prefix when normalising phones.
	CountryCode string
	// MaxBodySize bounds the message body. Zero means DefaultMaxBodySize.
	MaxBodySize int
}

// New returns an Interpreter using DefaultCountryCode.
func New() *Interpreter {
	return &Interpreter{CountryCode: DefaultCountryCode}
}

// Interpret is New().Interpret.
func Interpret(policy domain.Policy, msg Message) (domain.TransactionRequest, error) {
	return New().Interpret(policy, msg)
}

// Interpret authorises the sender and parses the body into a request.
// Every failure is a *RejectError.
func (in *Interpreter) Interpret(policy domain.Policy, msg Message) (domain.TransactionRequest, error) {
	var zero domain.TransactionRequest

	if !policy.Enabled {
		return zero, reject(ReasonDisabled, "")
	}

	allowed := make(map[string]struct{}, len(policy.AllowedSenders))
	for _, s := range policy.AllowedSenders {
		if n := in.normalize(s); n != "" {
			allowed[n] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return zero, reject(ReasonNoAllowList, "")
	}

	authCode := strings.TrimSpace(policy.AuthCode)
	if authCode == "" {
		return zero, reject(ReasonNoAuthCode, "")
	}

	sender := in.normalize(msg.Sender)
	if _, ok := allowed[sender]; !ok || sender == "" {
		return zero, reject(ReasonUnauthorized, sender)
	}

	body, err := Sanitize(msg.Text(), in.MaxBodySize)
	if err != nil {
		return zero, reject(ReasonMalformed, err.Error())
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return zero, reject(ReasonEmptyBody, "")
	}

	req, err := parseBody(body, sender)
	if err != nil {
		return zero, err
	}
	req.AuthCode = authCode
	req.ConfirmAfterAuth = policy.ConfirmAfterAuth
	return req, nil
}

func (in *Interpreter) normalize(s string) string {
	return normalizePhone(s, in.CountryCode)
}

func parseBody(body, sender string) (domain.TransactionRequest, error) {
	parts := strings.Split(body, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	tag := parts[0]

	var req domain.TransactionRequest
	switch {
	case strings.EqualFold(tag, TagSendMoney) && len(parts) >= 2:
		req.Mode = domain.ModeSendMoney
		if len(parts) >= 3 {
			req.Phone, req.Amount = parts[1], parts[2]
		} else {
			req.Phone, req.Amount = sender, parts[1]
		}
	case strings.EqualFold(tag, TagTill) && len(parts) >= 3:
		req.Mode = domain.ModeTill
		req.Till, req.Amount = parts[1], parts[2]
	case strings.EqualFold(tag, TagPaybill) && len(parts) >= 4:
		req.Mode = domain.ModePaybill
		req.Business, req.Amount, req.Account = parts[1], parts[2], parts[3]
	case strings.EqualFold(tag, TagWithdraw) && len(parts) >= 4:
		req.Mode = domain.ModeWithdraw
		req.Agent, req.Amount, req.Store = parts[1], parts[2], parts[3]
	default:
		return req, reject(ReasonUnknownTag, tag)
	}

	for _, f := range req.Mode.RequiredFields() {
		if req.Value(f) == "" {
			return domain.TransactionRequest{}, reject(ReasonBlankField, string(f))
		}
	}
	return req, nil
}
