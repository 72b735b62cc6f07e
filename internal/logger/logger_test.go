package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev", "docker"} {
		if _, err := NewLogger(env); err != nil {
			t.Errorf("NewLogger(%q) failed: %v", env, err)
		}
	}
	if _, err := NewLogger("staging"); err == nil {
		t.Error("unknown environment must fail")
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("prod", "warn")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled when level is warn")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled")
	}
	if _, err := NewLogger("prod", "loud"); err == nil {
		t.Error("invalid level must fail")
	}
}

func TestContextRoundTrip(t *testing.T) {
	l := zap.NewNop()
	ctx := ContextWithLogger(context.Background(), l)
	if got := FromContext(ctx); got != l {
		t.Error("FromContext did not return the stored logger")
	}
	if got := FromContext(context.Background()); got == nil {
		t.Error("FromContext without a stored logger must fall back to a nop logger")
	}
}
