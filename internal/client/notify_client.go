package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Notifier posts SMS/email requests to the configured provider webhooks.
// Both calls report boolean success; delivery itself is the provider's
// problem. With no webhook configured the message is logged and treated as
// sent, which keeps development environments quiet.
type Notifier struct {
	smsURL   string
	emailURL string
	token    string
	httpc    *http.Client
	log      zerolog.Logger
}

func NewNotifier(smsURL, emailURL, token string, log zerolog.Logger) *Notifier {
	return &Notifier{
		smsURL:   smsURL,
		emailURL: emailURL,
		token:    token,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

func (n *Notifier) SendSMS(ctx context.Context, to, message string) bool {
	if n.smsURL == "" {
		n.log.Info().Str("to", to).Str("message", message).Msg("sms (no provider configured)")
		return true
	}
	return n.post(ctx, n.smsURL, map[string]string{
		"to":      to,
		"message": message,
	})
}

func (n *Notifier) SendEmail(ctx context.Context, to, subject, body string) bool {
	if n.emailURL == "" {
		n.log.Info().Str("to", to).Str("subject", subject).Msg("email (no provider configured)")
		return true
	}
	return n.post(ctx, n.emailURL, map[string]string{
		"to":      to,
		"subject": subject,
		"body":    body,
	})
}

func (n *Notifier) post(ctx context.Context, url string, payload map[string]string) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}
	resp, err := n.httpc.Do(req)
	if err != nil {
		n.log.Warn().Err(err).Str("url", url).Msg("notify provider unreachable")
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.log.Warn().Int("status", resp.StatusCode).Str("url", url).Msg("notify provider rejected request")
		return false
	}
	return true
}
