//go:build e2e

package e2e

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Field   string          `json:"field"`
	Data    json.RawMessage `json:"data"`
}

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID int `json:"id"`
	} `json:"user"`
}

type applicationResponse struct {
	ID               int     `json:"id"`
	Status           string  `json:"status"`
	PreviousStatus   *string `json:"previousStatus"`
	DecisionReversed bool    `json:"decisionReversed"`
	Resume           string  `json:"resume"`
}

func TestApplicationLifecycle(t *testing.T) {
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	founder := registerUser(t, map[string]any{
		"name": "Founder " + suffix, "institutionalId": "F" + suffix, "email": "founder" + suffix + "@example.edu",
		"password": "testpass123!", "role": "founder", "startupName": "Lab " + suffix,
	})
	student := registerUser(t, map[string]any{
		"name": "Student " + suffix, "institutionalId": "S" + suffix, "email": "student" + suffix + "@example.edu",
		"password": "testpass123!", "role": "student", "branch": "CSE", "year": 3,
	})

	resume := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 resume"))
	submitBody := map[string]any{"founderId": founder.User.ID, "role": "Backend Intern", "message": "I would like to join", "resume": resume}

	status, env := call(t, http.MethodPost, "/applications", student.Token, submitBody)
	if status != http.StatusCreated {
		t.Fatalf("submit status = %d (%s)", status, env.Message)
	}
	var app applicationResponse
	mustDecode(t, env, &app)
	if app.Status != "pending" || app.Resume == "" {
		t.Fatalf("submitted application = %+v", app)
	}

	if status, _ := call(t, http.MethodPost, "/applications", student.Token, submitBody); status != http.StatusConflict {
		t.Fatalf("duplicate submit status = %d, want 409", status)
	}

	resp, err := http.Get(baseURL + app.Resume)
	if err != nil {
		t.Fatalf("fetch resume: %v", err)
	}
	resumeBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(resumeBody, []byte("%PDF")) {
		t.Fatalf("resume fetch status = %d body = %q", resp.StatusCode, resumeBody)
	}

	statusPath := fmt.Sprintf("/applications/%d/status", app.ID)
	status, env = call(t, http.MethodPut, statusPath, founder.Token, map[string]any{"status": "accepted"})
	if status != http.StatusOK {
		t.Fatalf("accept status = %d (%s)", status, env.Message)
	}
	mustDecode(t, env, &app)
	if app.PreviousStatus == nil || *app.PreviousStatus != "pending" {
		t.Fatalf("previousStatus = %v, want pending", app.PreviousStatus)
	}

	status, env = call(t, http.MethodPut, statusPath, founder.Token, map[string]any{"status": "pending"})
	if status != http.StatusOK {
		t.Fatalf("revert status = %d (%s)", status, env.Message)
	}
	mustDecode(t, env, &app)
	if !app.DecisionReversed || app.PreviousStatus != nil {
		t.Fatalf("reverted application = %+v", app)
	}

	status, env = call(t, http.MethodPut, fmt.Sprintf("/applications/%d/withdraw", app.ID), student.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("withdraw status = %d (%s)", status, env.Message)
	}

	status, env = call(t, http.MethodPut, statusPath, founder.Token, map[string]any{"status": "accepted"})
	if status != http.StatusBadRequest || !strings.Contains(env.Message, "withdrawn") {
		t.Fatalf("withdrawn -> accepted status = %d (%s)", status, env.Message)
	}

	status, env = call(t, http.MethodPost, "/applications", student.Token, submitBody)
	if status != http.StatusCreated {
		t.Fatalf("resubmit after withdraw status = %d (%s)", status, env.Message)
	}

	status, env = call(t, http.MethodGet, "/applications/notifications", student.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("notifications status = %d (%s)", status, env.Message)
	}
	var inbox struct {
		Notifications []struct {
			ID int `json:"id"`
		} `json:"notifications"`
		Unread int `json:"unread"`
	}
	mustDecode(t, env, &inbox)
	if len(inbox.Notifications) < 2 || inbox.Unread < 2 {
		t.Fatalf("student inbox = %+v", inbox)
	}
}

func TestDeactivatedUserCannotLogin(t *testing.T) {
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	adminEmail := "admin" + suffix + "@example.edu"
	registerUser(t, map[string]any{
		"name": "Admin " + suffix, "institutionalId": "A" + suffix, "email": adminEmail,
		"password": "testpass123!", "role": "student", "branch": "ECE", "year": 4,
	})
	if err := promoteUserToAdmin(adminEmail); err != nil {
		t.Fatalf("promote user: %v", err)
	}
	admin := login(t, adminEmail, "testpass123!")

	studentEmail := "inactive" + suffix + "@example.edu"
	student := registerUser(t, map[string]any{
		"name": "Inactive " + suffix, "institutionalId": "I" + suffix, "email": studentEmail,
		"password": "testpass123!", "role": "student", "branch": "ME", "year": 1,
	})

	path := fmt.Sprintf("/users/%d/active", student.User.ID)
	if status, env := call(t, http.MethodPut, path, admin.Token, map[string]any{"active": false}); status != http.StatusOK {
		t.Fatalf("deactivate status = %d (%s)", status, env.Message)
	}

	status, _ := call(t, http.MethodPost, "/auth/login", "", map[string]any{"identifier": studentEmail, "password": "testpass123!"})
	if status != http.StatusForbidden {
		t.Fatalf("login of deactivated user status = %d, want 403", status)
	}
	if status, _ := call(t, http.MethodGet, "/auth/me", student.Token, nil); status != http.StatusForbidden {
		t.Fatalf("me with deactivated user token status = %d, want 403", status)
	}
}

func registerUser(t *testing.T, payload map[string]any) authResponse {
	t.Helper()

	status, env := call(t, http.MethodPost, "/auth/register", "", payload)
	if status != http.StatusCreated {
		t.Fatalf("register status %d: %s", status, env.Message)
	}
	var parsed authResponse
	mustDecode(t, env, &parsed)
	if parsed.Token == "" {
		t.Fatalf("missing token in register response")
	}
	return parsed
}

func login(t *testing.T, identifier, password string) authResponse {
	t.Helper()

	status, env := call(t, http.MethodPost, "/auth/login", "", map[string]any{"identifier": identifier, "password": password})
	if status != http.StatusOK {
		t.Fatalf("login status %d: %s", status, env.Message)
	}
	var parsed authResponse
	mustDecode(t, env, &parsed)
	return parsed
}

func call(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode, env
}

func mustDecode(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}
