package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// email request payload for ZeptoMail API
type emailRequest struct {
	From     emailAddress  `json:"from"`
	To       []toRecipient `json:"to"`
	Subject  string        `json:"subject"`
	HtmlBody string        `json:"htmlbody"`
}

type emailAddress struct {
	Address string `json:"address"`
}

type toRecipient struct {
	Email emailWithName `json:"email_address"`
}

type emailWithName struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// Mailer sends HTML email through the ZeptoMail HTTP API.
type Mailer struct {
	APIURL string // e.g. https://api.zeptomail.com/v1.1/email
	APIKey string // e.g. Zoho-enczapikey xxxxx
	From   string // e.g. noreply@example.com
	Client *http.Client
}

// Enabled reports whether enough settings are present to send mail.
func (m *Mailer) Enabled() bool {
	return m != nil && m.APIURL != "" && m.APIKey != "" && m.From != ""
}

func (m *Mailer) SendEmail(ctx context.Context, to, toName, subject, body string) error {
	if !m.Enabled() {
		return fmt.Errorf("missing required email config")
	}

	payload := emailRequest{
		From: emailAddress{Address: m.From},
		To: []toRecipient{
			{Email: emailWithName{Address: to, Name: toName}},
		},
		Subject:  subject,
		HtmlBody: body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.APIURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", m.APIKey)

	client := m.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zeptomail API error: %s", resp.Status)
	}

	log.WithField("to", to).Info("email sent")
	return nil
}

// RegistrationEmail renders the confirmation sent after a successful registration.
func RegistrationEmail(name, eventName, venue string, date time.Time, clock string) (subject, body string) {
	subject = "You're registered: " + eventName
	body = fmt.Sprintf(
		"<p>Hi %s,</p><p>You are registered for <strong>%s</strong>.</p><p>%s, %s at %s</p>",
		html.EscapeString(name),
		html.EscapeString(eventName),
		html.EscapeString(venue),
		date.Format("Mon, 02 Jan 2006"),
		html.EscapeString(clock),
	)
	return subject, body
}
