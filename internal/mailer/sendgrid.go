package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/startup-vidyapith/apiserver/config"
	"github.com/startup-vidyapith/apiserver/internal/logger"
)

const defaultSendGridBaseURL = "https://api.sendgrid.com"

// SendGrid delivers email through the SendGrid v3 mail send API.
type SendGrid struct {
	log        *logger.Logger
	cfg        config.SendGridConfig
	httpClient *http.Client
}

func NewSendGrid(log *logger.Logger, cfg config.SendGridConfig) *SendGrid {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultSendGridBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SendGrid{
		log:        log.With("client", "SendGridClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// HTTPError is a non-2xx answer from SendGrid.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, e.Message)
}

func (s *SendGrid) Send(ctx context.Context, email Email) error {
	if err := email.validate(); err != nil {
		return err
	}

	wire := mailSendRequest{
		Personalizations: []personalization{{
			To: []emailAddress{{Email: strings.TrimSpace(email.To), Name: strings.TrimSpace(email.ToName)}},
		}},
		From:    emailAddress{Email: s.cfg.FromEmail, Name: s.cfg.FromName},
		Subject: strings.TrimSpace(email.Subject),
		Content: []mailContent{{Type: "text/plain", Value: email.Text}},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(wire); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/v3/mail/send", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil && len(er.Errors) > 0 && er.Errors[0].Message != "" {
			he.Message = er.Errors[0].Message
		}
		return he
	}

	s.log.Debug("email sent",
		"to", email.To,
		"message_id", resp.Header.Get("X-Message-Id"),
	)
	return nil
}
