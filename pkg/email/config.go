package email

// Config holds email service configuration.
// Without Postmark tokens, New falls back to the DevSender writing to DevDir.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"noreply@dpbiotech.com"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@dpbiotech.com"`
	MessageStream        string `env:"POSTMARK_MESSAGE_STREAM" envDefault:"outbound"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

// New returns the Postmark sender when both tokens are configured, otherwise
// a DevSender.
func New(cfg Config) (EmailSender, error) {
	if cfg.PostmarkServerToken == "" && cfg.PostmarkAccountToken == "" {
		return NewDevSender(cfg.DevDir), nil
	}
	sender, err := NewPostmarkClient(cfg)
	if err != nil {
		return nil, err
	}
	return sender, nil
}
