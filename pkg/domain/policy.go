package domain

// Policy is the allow-list and auth configuration consumed by the trigger interpreter.
type Policy struct {
	Enabled          bool     `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	AllowedSenders   []string `json:"allowed_senders" yaml:"allowed_senders" mapstructure:"allowed_senders"`
	AuthCode         string   `json:"-" yaml:"auth_code" mapstructure:"auth_code"`
	ConfirmAfterAuth bool     `json:"confirm_after_auth" yaml:"confirm_after_auth" mapstructure:"confirm_after_auth"`
}
