package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWritesStructuredJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := New(Options{ServiceName: "storefront-api", Level: ParseLevel("debug"), Output: buf})

	logg.Info(context.Background(), "server listening")

	out := buf.String()
	if !strings.Contains(out, `"service":"storefront-api"`) {
		t.Fatalf("expected service field in output: %s", out)
	}
	if !strings.Contains(out, `"message":"server listening"`) {
		t.Fatalf("expected message in output: %s", out)
	}
}

func TestWithRequestIDPropagatesThroughContext(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := New(Options{ServiceName: "test", Output: buf})

	ctx := logg.WithRequestID(context.Background(), "req-42")
	ctx = logg.WithUserID(ctx, "user-7")
	logg.Info(ctx, "handled")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-42"`) {
		t.Fatalf("expected request_id in output: %s", out)
	}
	if !strings.Contains(out, `"user_id":"user-7"`) {
		t.Fatalf("expected user_id in output: %s", out)
	}
}

func TestLevelFiltersLowerEvents(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := New(Options{ServiceName: "test", Level: zerolog.WarnLevel, Output: buf})

	logg.Info(context.Background(), "quiet")
	if buf.Len() != 0 {
		t.Fatalf("info should be suppressed at warn level, got %s", buf.String())
	}

	logg.Warn(context.Background(), "loud")
	if !strings.Contains(buf.String(), `"loud"`) {
		t.Fatalf("expected warn output, got %s", buf.String())
	}
}

func TestErrorIncludesErrAndStack(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := New(Options{ServiceName: "test", Output: buf})

	logg.Error(context.Background(), "publish failed", errors.New("broker unreachable"))

	out := buf.String()
	if !strings.Contains(out, `"error":"broker unreachable"`) {
		t.Fatalf("expected error field in output: %s", out)
	}
	if !strings.Contains(out, `"stack"`) {
		t.Fatalf("expected stack field in output: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		" warn ":  zerolog.WarnLevel,
		"":        zerolog.InfoLevel,
		"invalid": zerolog.InfoLevel,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
