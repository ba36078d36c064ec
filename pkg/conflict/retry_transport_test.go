package conflict

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRetryReason(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header http.Header
		want   string
	}{
		{name: "ok", status: http.StatusOK, want: ""},
		{name: "created", status: http.StatusCreated, want: ""},
		{name: "not found", status: http.StatusNotFound, want: ""},
		{name: "plain forbidden", status: http.StatusForbidden, want: ""},
		{
			name:   "rate limited forbidden",
			status: http.StatusForbidden,
			header: http.Header{"X-Ratelimit-Remaining": []string{"0"}},
			want:   "rate limit exceeded",
		},
		{
			name:   "forbidden with budget left",
			status: http.StatusForbidden,
			header: http.Header{"X-Ratelimit-Remaining": []string{"37"}},
			want:   "",
		},
		{name: "too many requests", status: http.StatusTooManyRequests, want: "secondary rate limit"},
		{name: "internal error", status: http.StatusInternalServerError, want: "server error"},
		{name: "bad gateway", status: http.StatusBadGateway, want: "server error"},
		{name: "unavailable", status: http.StatusServiceUnavailable, want: "server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := tt.header
			if header == nil {
				header = http.Header{}
			}
			resp := &http.Response{StatusCode: tt.status, Header: header}
			if got := retryReason(resp); got != tt.want {
				t.Errorf("retryReason(%d) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestRetryableErrorMessage(t *testing.T) {
	err := &retryableError{StatusCode: http.StatusTooManyRequests}
	if got := err.Error(); got != "Too Many Requests" {
		t.Errorf("Error() = %q, want Too Many Requests", got)
	}
}

func TestRoundTripSuccessPassesThrough(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if _, err := io.WriteString(w, "payload"); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}))
	defer srv.Close()

	client := &http.Client{Transport: &RetryTransport{}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if string(body) != "payload" {
		t.Errorf("body = %q, want payload", body)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1", requests)
	}
}

func TestRoundTripDoesNotRetryClientErrors(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		http.Error(w, "no such repo", http.StatusNotFound)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &RetryTransport{}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1", requests)
	}
}

func TestRoundTripRetriesAndReplaysBody(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading request body: %v", err)
		}
		bodies = append(bodies, string(data))
		if len(bodies) == 1 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &RetryTransport{}}
	resp, err := client.Post(srv.URL, "application/json", strings.NewReader(`{"body":"hello"}`))
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
	want := []string{`{"body":"hello"}`, `{"body":"hello"}`}
	if len(bodies) != 2 || bodies[0] != want[0] || bodies[1] != want[1] {
		t.Errorf("bodies = %q, want %q", bodies, want)
	}
}

func TestRoundTripReturnsFinalResponseWhenExhausted(t *testing.T) {
	// Every attempt hits a retryable status, so the full backoff schedule
	// runs and the last response comes back with no error, its body intact.
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "upstream says no, attempt %d", attempts)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &RetryTransport{}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	if attempts != retryAttempts {
		t.Errorf("attempts = %d, want %d", attempts, retryAttempts)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if want := fmt.Sprintf("upstream says no, attempt %d", retryAttempts); string(body) != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}
