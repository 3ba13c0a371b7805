package mailer

import (
	"github.com/lodgeline/booking-engine/pkg/logger"
)

// DevMailer logs mail instead of sending it. Used when EMAIL_DEV_MODE is on or
// no MailerSend key is configured.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("DEV MAIL",
		"to", toEmail,
		"name", toName,
		"subject", subject,
		"text", text,
	)
	return "dev-mail", nil
}

func (d *DevMailer) SendConfirmation(email, guestName, confirmationID, checkIn, checkOut string) error {
	logger.Info("DEV MAIL: reservation confirmation",
		"to", email,
		"guest", guestName,
		"confirmation_id", confirmationID,
		"check_in", checkIn,
		"check_out", checkOut,
	)
	return nil
}

var _ Service = (*DevMailer)(nil)
var _ Service = (*Mailer)(nil)
