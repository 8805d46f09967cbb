package mail

import (
	"errors"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/jobtrackr/jobtrackr/internal/pkg/env"
)

// SendMail delivers a single HTML notice over SMTP. Mail is a best-effort
// boundary; callers log delivery failures instead of propagating them.
func SendMail(to, subject, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	if host == "" {
		return errors.New("mail: SMTP_HOST is not configured")
	}
	port := env.GetEnv("SMTP_PORT", "587")
	sender := env.GetEnv("SMTP_SENDER", "no-reply@jobtrackr.app")

	var auth smtp.Auth
	if user, pass := env.GetEnv("SMTP_USERNAME", ""), env.GetEnv("SMTP_PASSWORD", ""); user != "" && pass != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", sender)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(body)

	addr := host + ":" + port
	if err := smtp.SendMail(addr, auth, sender, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("mail: send to %s via %s: %w", to, addr, err)
	}
	log.Printf("mail: sent %q to %s", subject, to)
	return nil
}
