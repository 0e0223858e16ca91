package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	cases := []struct {
		name   string
		apiKey string
		path   string
		header string
		want   int
	}{
		{"no key configured", "", "/v1/metrics/DFF/latest", "", http.StatusOK},
		{"health bypass", "secret123", "/health", "", http.StatusOK},
		{"metrics bypass", "secret123", "/metrics", "", http.StatusOK},
		{"missing header", "secret123", "/api/btc/dashboard", "", http.StatusUnauthorized},
		{"wrong key", "secret123", "/api/btc/dashboard", "Bearer wrong_key", http.StatusUnauthorized},
		{"correct key", "secret123", "/api/btc/dashboard", "Bearer secret123", http.StatusOK},
		{"non-bearer scheme", "secret123", "/api/btc/dashboard", "Basic secret123", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Server{apiKey: tc.apiKey}
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			s.authMiddleware(okHandler()).ServeHTTP(rr, req)

			if rr.Code != tc.want {
				t.Fatalf("%s %s: got %d, want %d", tc.path, tc.header, rr.Code, tc.want)
			}
		})
	}
}

func TestValidateDate(t *testing.T) {
	for _, d := range []string{"2024-01-15", "2025-12-31", "2020-02-29"} {
		if !validateDate(d) {
			t.Errorf("expected %q to be valid", d)
		}
	}

	for _, d := range []string{
		"", "2024", "01-15-2024", "2024/01/15", "2023-02-29",
		"abcd-ef-gh", "2024-13-01", "2024-01-32", "2024-1-5", "20240115",
	} {
		if validateDate(d) {
			t.Errorf("expected %q to be invalid", d)
		}
	}
}

func TestParseLimit(t *testing.T) {
	cases := []struct {
		query string
		deflt int
		want  int
	}{
		{"", 30, 30},
		{"?limit=50", 30, 50},
		{"?limit=0", 30, 30},
		{"?limit=-5", 30, 30},
		{"?limit=abc", 30, 30},
		{"?limit=5000", 30, maxQueryLimit},
		{"?limit=1000", 30, 1000},
		{"?limit=1", 365, 1},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/v1/metrics/DFF/latest"+tc.query, nil)
		if got := parseLimit(req, tc.deflt); got != tc.want {
			t.Errorf("parseLimit(%q, %d) = %d, want %d", tc.query, tc.deflt, got, tc.want)
		}
	}
}

func TestCorsMiddleware(t *testing.T) {
	t.Run("custom origin", func(t *testing.T) {
		rr := httptest.NewRecorder()
		corsMiddleware(okHandler(), "https://pulse.example.com").
			ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/btc/dashboard", nil))

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://pulse.example.com" {
			t.Fatalf("expected custom origin, got %q", got)
		}
		if rr.Header().Get("Access-Control-Allow-Headers") == "" {
			t.Fatal("expected Allow-Headers to be set")
		}
	})

	t.Run("default origin", func(t *testing.T) {
		rr := httptest.NewRecorder()
		corsMiddleware(okHandler(), "").
			ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("expected wildcard origin, got %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("inner handler should not be called for OPTIONS")
		})
		rr := httptest.NewRecorder()
		corsMiddleware(inner, "*").
			ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/v1/metrics/DFF/range", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200 for preflight, got %d", rr.Code)
		}
	})
}
