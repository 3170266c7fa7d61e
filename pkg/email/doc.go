// Package email sends transactional e-mail through Postmark, or writes it to
// disk in development.
//
// EmailSender is the only abstraction. New picks the implementation from
// Config: with both Postmark tokens set it returns the Postmark client,
// otherwise a DevSender that saves each message as an HTML file plus JSON
// metadata under Config.DevDir.
//
//	sender, err := email.New(cfg)
//	if err != nil {
//		return err
//	}
//
//	msg, err := email.ActivationEmail("lab@example.com", email.ActivationData{
//		Serial:         "AB-12",
//		ActivationDate: "2025-03-01",
//		Expires:        "2026-03-01",
//		Features:       []string{"parallax"},
//		SupportEmail:   cfg.SupportEmail,
//	})
//	if err != nil {
//		return err
//	}
//	err = sender.SendEmail(ctx, msg)
//
// Every sender validates SendEmailParams first; invalid parameters wrap
// ErrInvalidParams and delivery failures wrap ErrFailedToSendEmail.
package email
