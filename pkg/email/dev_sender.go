package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DevSender drops messages into a directory instead of sending them. Each
// message becomes <stamp>_<name>.html, an optional .txt with the plain body and
// a .json envelope with recipient, subject, tag and metadata.
type DevSender struct {
	dir string
	now func() time.Time
}

// NewDevSender returns a DevSender writing to dir. The directory is created on
// first send.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir, now: time.Now}
}

type devEnvelope struct {
	SentAt   string            `json:"sent_at"`
	SendTo   string            `json:"send_to"`
	Subject  string            `json:"subject"`
	Tag      string            `json:"tag,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SendEmail implements EmailSender.
func (d *DevSender) SendEmail(_ context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrFailedToSendEmail, d.dir, err)
	}

	now := d.now().UTC()
	name := params.Tag
	if name == "" {
		name = params.Subject
	}
	prefix := filepath.Join(d.dir, now.Format("20060102T150405.000000")+"_"+fileSafe(name))

	envelope, err := json.MarshalIndent(devEnvelope{
		SentAt:   now.Format(time.RFC3339),
		SendTo:   params.SendTo,
		Subject:  params.Subject,
		Tag:      params.Tag,
		Metadata: params.Metadata,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode envelope: %v", ErrFailedToSendEmail, err)
	}

	files := map[string][]byte{
		".html": []byte(params.BodyHTML),
		".json": envelope,
	}
	if params.BodyText != "" {
		files[".txt"] = []byte(params.BodyText)
	}
	for ext, data := range files {
		if err := os.WriteFile(prefix+ext, data, 0o644); err != nil {
			return fmt.Errorf("%w: write %s: %v", ErrFailedToSendEmail, ext, err)
		}
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// fileSafe lowercases s, turns whitespace into underscores and strips anything
// else that does not belong in a file name.
func fileSafe(s string) string {
	s = strings.Join(strings.Fields(strings.ToLower(s)), "_")
	s = unsafeChars.ReplaceAllString(s, "")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		return "email"
	}
	return s
}
