package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Najnomics/lockedin-api/internal/repository"
	"github.com/Najnomics/lockedin-api/internal/scheduler"
	"github.com/Najnomics/lockedin-api/internal/usecase"
	"github.com/Najnomics/lockedin-api/internal/validation"
)

type stubMailer struct{ err error }

func (m *stubMailer) SendWelcome(_, _ string, _, _ []string, _ string) error { return m.err }

type stubSender struct{ err error }

func (s *stubSender) Send(_ context.Context, _, _ string) error { return s.err }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()

	sched := scheduler.New(&stubSender{}, &logger)
	sched.Start(context.Background())
	t.Cleanup(sched.Stop)

	uc := usecase.NewUserUsecase(
		repository.NewUserMemoryRepository(),
		&stubMailer{},
		&stubSender{},
		sched,
		&logger,
	)

	v, err := validation.New()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	srv := httptest.NewServer(NewUserHandler(uc, v, &logger).Router())
	t.Cleanup(srv.Close)
	return srv
}

const signupBody = `{
	"name": "Ada",
	"email": "ada@example.com",
	"phone": "+12345678901",
	"goals": ["Exercise", "Read"],
	"reminder_times": ["09:00", "20:00"]
}`

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestSignUpEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/users/signup", signupBody)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var got struct {
		User struct {
			ID    string `json:"id"`
			Phone string `json:"phone"`
		} `json:"user"`
		WelcomeEmailSent bool `json:"welcome_email_sent"`
		JobsScheduled    int  `json:"jobs_scheduled"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.User.ID == "" || got.User.Phone != "+12345678901" {
		t.Fatalf("unexpected user in response: %+v", got.User)
	}
	if !got.WelcomeEmailSent || got.JobsScheduled != 2 {
		t.Fatalf("unexpected sub-step report: %+v", got)
	}
}

func TestSignUpValidation(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/users/signup", `{"name":"Ada","email":"not-an-email","phone":"12345","goals":[],"reminder_times":[]}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var got struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, field := range []string{"Email", "Phone", "Goals"} {
		if got.Fields[field] == "" {
			t.Fatalf("expected validation message for %s, got %v", field, got.Fields)
		}
	}
}

func TestSignUpDuplicatePhone(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/users/signup", signupBody)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/users/signup", signupBody)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate signup, got %d", resp.StatusCode)
	}
}

func TestGetUserEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/users/signup", signupBody)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/users/+12345678901")
	if err != nil {
		t.Fatalf("GET user: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/users/+10000000000")
	if err != nil {
		t.Fatalf("GET unknown user: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", resp.StatusCode)
	}
}

func TestUpdateReminderTimesEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/users/signup", signupBody)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/users/reminder-times",
		strings.NewReader(`{"phone":"+12345678901","reminder_times":["08:00","19:00"]}`))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT reminder-times: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got struct {
		Status        string `json:"status"`
		JobsScheduled int    `json:"jobs_scheduled"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != "success" || got.JobsScheduled != 2 {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestListJobsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/users/signup", signupBody)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/scheduler/jobs")
	if err != nil {
		t.Fatalf("GET jobs: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Count != 2 {
		t.Fatalf("expected 2 scheduled jobs, got %d", got.Count)
	}
}
