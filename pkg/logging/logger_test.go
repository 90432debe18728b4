package logging

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "INFO", false},
		{"debug", "DEBUG", false},
		{" WARN ", "WARN", false},
		{"warning", "WARN", false},
		{"error", "ERROR", false},
		{"loud", "", true},
	}
	for _, tt := range tests {
		lvl, err := ParseLevel(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownLevel) {
				t.Errorf("ParseLevel(%q) error = %v, want ErrUnknownLevel", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tt.in, err)
		}
		if lvl.String() != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, lvl, tt.want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", true, &buf)
	if err != nil {
		t.Fatal(err)
	}

	logger.Debug("hidden")
	logger.With(String("page", "contact")).Info("selected", Int("n", 2))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["msg"] != "selected" || entry["page"] != "contact" || entry["n"] != float64(2) {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("verbose", false, &bytes.Buffer{}); !errors.Is(err, ErrUnknownLevel) {
		t.Errorf("error = %v, want ErrUnknownLevel", err)
	}
}

func TestLFallsBackToDefault(t *testing.T) {
	if L(context.Background()) != DefaultLogger {
		t.Error("L without a logger should return DefaultLogger")
	}
	nop := NopLogger{}
	if L(ContextWithLogger(context.Background(), nop)) != Logger(nop) {
		t.Error("L should return the context logger")
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("debug", false, &buf)
	if err != nil {
		t.Fatal(err)
	}

	var seen string
	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		if LoggerFromContext(r.Context()) == nil {
			t.Error("no request logger in context")
		}
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/pages/home", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "abc123" {
		t.Errorf("request id = %q, want abc123", seen)
	}
	out := buf.String()
	for _, want := range []string{"request_id=abc123", "path=/pages/home", "status=418", "bytes=15"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestRequestLoggerGeneratesID(t *testing.T) {
	var seen string
	h := RequestLogger(NopLogger{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 36 {
		t.Errorf("generated id %q is not a uuid", seen)
	}
}
