package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/startup-vidyapith/apiserver/config"
	"github.com/startup-vidyapith/apiserver/internal/logger"
)

func TestSendGridSend(t *testing.T) {
	t.Parallel()

	var got mailSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mail/send" {
			t.Errorf("path = %s, want /v3/mail/send", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key" {
			t.Errorf("Authorization = %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewSendGrid(logger.Nop(), config.SendGridConfig{
		APIKey:    "key",
		BaseURL:   srv.URL,
		FromEmail: "no-reply@example.com",
		FromName:  "Vidyapith",
	})
	err := m.Send(context.Background(), Email{To: "a@example.com", Subject: "Hello", Text: "Body"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(got.Personalizations) != 1 || got.Personalizations[0].To[0].Email != "a@example.com" {
		t.Fatalf("personalizations = %+v", got.Personalizations)
	}
	if got.From.Email != "no-reply@example.com" || got.Subject != "Hello" {
		t.Fatalf("request = %+v", got)
	}
}

func TestSendGridSendError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad from"}]}`))
	}))
	defer srv.Close()

	m := NewSendGrid(logger.Nop(), config.SendGridConfig{APIKey: "key", BaseURL: srv.URL})
	err := m.Send(context.Background(), Email{To: "a@example.com", Subject: "Hello", Text: "Body"})
	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("Send error = %v, want *HTTPError", err)
	}
	if he.StatusCode != http.StatusBadRequest || he.Message != "bad from" {
		t.Fatalf("HTTPError = %+v", he)
	}
}

func TestLogMailerValidates(t *testing.T) {
	t.Parallel()

	m := NewLogMailer(logger.Nop())
	if err := m.Send(context.Background(), Email{Subject: "x", Text: "y"}); err == nil {
		t.Fatalf("Send without recipient error = nil, want error")
	}
	if err := m.Send(context.Background(), Email{To: "a@example.com", Subject: "x", Text: "y"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
}
