package email

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"strings"
)

//go:embed templates/activation.html
var templateFS embed.FS

var activationTemplate = template.Must(template.ParseFS(templateFS, "templates/activation.html"))

// ActivationTag tags license activation mail in Postmark.
const ActivationTag = "license-activation"

// ActivationData fills the activation e-mail.
type ActivationData struct {
	Serial         string
	ActivationDate string
	Expires        string
	Features       []string
	SupportEmail   string
}

// ActivationEmail renders the license activation message for recipient.
func ActivationEmail(recipient string, data ActivationData) (SendEmailParams, error) {
	var buf bytes.Buffer
	if err := activationTemplate.Execute(&buf, data); err != nil {
		return SendEmailParams{}, errors.Join(ErrFailedToRender, err)
	}

	return SendEmailParams{
		SendTo:   recipient,
		Subject:  "License " + data.Serial + " activated",
		BodyHTML: buf.String(),
		BodyText: activationText(data),
		Tag:      ActivationTag,
		Metadata: map[string]string{"serial": data.Serial},
	}, nil
}

func activationText(data ActivationData) string {
	var b strings.Builder
	b.WriteString("Your license " + data.Serial + " is active.\n\n")
	b.WriteString("Activated: " + data.ActivationDate + "\n")
	b.WriteString("Valid until: " + data.Expires + "\n")
	if len(data.Features) > 0 {
		b.WriteString("Features: " + strings.Join(data.Features, ", ") + "\n")
	}
	if data.SupportEmail != "" {
		b.WriteString("\nQuestions? Reply to this message or write to " + data.SupportEmail + ".\n")
	}
	return b.String()
}
