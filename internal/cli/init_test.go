package cli

import (
	"testing"

	"registros/internal/config"
	applog "registros/internal/log"
)

func TestSessionSecret(t *testing.T) {
	cfg := &config.Config{SessionSecret: "0123456789abcdef"}
	if got := SessionSecret(cfg, applog.Discard()); got != cfg.SessionSecret {
		t.Fatalf("got %q, want configured secret", got)
	}

	cfg.SessionSecret = ""
	a := SessionSecret(cfg, applog.Discard())
	b := SessionSecret(cfg, applog.Discard())
	if len(a) != 64 || a == b {
		t.Fatalf("expected distinct random secrets, got %q and %q", a, b)
	}
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, applog.ComponentWorker)
	if logger.Component() != applog.ComponentWorker {
		t.Fatalf("component = %q", logger.Component())
	}
}
