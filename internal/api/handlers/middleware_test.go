package handlers

import (
	"codecalm/internal/config"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		wantToken   string
		wantPresent bool
		wantErr     bool
	}{
		{name: "missing", header: ""},
		{name: "valid", header: "Bearer abc123", wantToken: "abc123", wantPresent: true},
		{name: "extra spaces", header: "Bearer   abc123 ", wantToken: "abc123", wantPresent: true},
		{name: "wrong scheme", header: "Basic abc123", wantPresent: true, wantErr: true},
		{name: "no token", header: "Bearer ", wantPresent: true, wantErr: true},
		{name: "scheme only", header: "Bearer", wantPresent: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			token, present, err := bearerToken(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("bearerToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if token != tt.wantToken || present != tt.wantPresent {
				t.Errorf("bearerToken() = (%q, %v), want (%q, %v)", token, present, tt.wantToken, tt.wantPresent)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "192.0.2.10:5555", want: "192.0.2.10"},
		{name: "remote without port", remote: "192.0.2.10", want: "192.0.2.10"},
		{name: "forwarded for first hop", headers: map[string]string{"X-Forwarded-For": " 203.0.113.5 , 10.0.0.1"}, remote: "10.0.0.1:80", want: "203.0.113.5"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "198.51.100.7"}, remote: "10.0.0.1:80", want: "198.51.100.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter_PerClientBuckets(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{RequestsPerMinute: 20, MaxClients: 10, ClientTTL: time.Minute})

	// burst is RequestsPerMinute/10
	for i := 0; i < 2; i++ {
		if !limiter.Allow("a") {
			t.Fatalf("Allow(a) #%d = false, want true", i+1)
		}
	}
	if limiter.Allow("a") {
		t.Error("Allow(a) after burst = true, want false")
	}
	if !limiter.Allow("b") {
		t.Error("Allow(b) = false, want true")
	}
}

func TestSendError_HidesServerErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	sendError(rec, http.StatusInternalServerError, "Something failed", errors.New("pq: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := rec.Body.String()
	if want := http.StatusText(http.StatusInternalServerError); !strings.Contains(body, want) {
		t.Errorf("body = %s, want it to contain %q", body, want)
	}
	if strings.Contains(body, "connection refused") {
		t.Errorf("body leaks internal error: %s", body)
	}
}
