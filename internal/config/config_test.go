package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.HTTPAddr)
	}
	if cfg.Env != "dev" {
		t.Errorf("expected default env dev, got %q", cfg.Env)
	}
	if cfg.CorrelationWindow != 10*time.Second {
		t.Errorf("expected 10s window, got %s", cfg.CorrelationWindow)
	}
	if cfg.AntiTailgating != 3*time.Second {
		t.Errorf("expected 3s anti-tailgating delay, got %s", cfg.AntiTailgating)
	}
	// TTL and lookback derive from the window when unset.
	if cfg.PresenceTTL != cfg.CorrelationWindow {
		t.Errorf("expected ttl=window, got %s", cfg.PresenceTTL)
	}
	if cfg.SweepLookback != 2*cfg.CorrelationWindow {
		t.Errorf("expected lookback=2*window, got %s", cfg.SweepLookback)
	}
	if cfg.PresenceBackend != "memory" {
		t.Errorf("expected memory backend, got %q", cfg.PresenceBackend)
	}
	if cfg.MQTTTopicPrefix != "zias" {
		t.Errorf("expected topic prefix zias, got %q", cfg.MQTTTopicPrefix)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ZIAS_ENV", "PROD")
	t.Setenv("ZIAS_CORRELATION_WINDOW_SECONDS", "20")
	t.Setenv("ZIAS_PRESENCE_TTL_SECONDS", "45")
	t.Setenv("ZIAS_PRESENCE_BACKEND", "redis")
	t.Setenv("ZIAS_RETENTION_DAYS", "7")

	cfg := FromEnv()

	if cfg.Env != "prod" {
		t.Errorf("expected env prod, got %q", cfg.Env)
	}
	if cfg.CorrelationWindow != 20*time.Second {
		t.Errorf("expected 20s window, got %s", cfg.CorrelationWindow)
	}
	if cfg.PresenceTTL != 45*time.Second {
		t.Errorf("expected explicit ttl to win, got %s", cfg.PresenceTTL)
	}
	if cfg.PresenceBackend != "redis" {
		t.Errorf("expected redis backend, got %q", cfg.PresenceBackend)
	}
	if cfg.RetentionDays != 7 {
		t.Errorf("expected retention=7, got %d", cfg.RetentionDays)
	}
}

func TestFromEnvFailSoft(t *testing.T) {
	t.Setenv("ZIAS_ENV", "staging")
	t.Setenv("ZIAS_PRESENCE_BACKEND", "etcd")
	t.Setenv("ZIAS_MQTT_PORT", "not-a-port")
	t.Setenv("ZIAS_RETENTION_DAYS", "-4")

	cfg := FromEnv()

	if cfg.Env != "dev" {
		t.Errorf("unknown env must fall back to dev, got %q", cfg.Env)
	}
	if cfg.PresenceBackend != "memory" {
		t.Errorf("unknown backend must fall back to memory, got %q", cfg.PresenceBackend)
	}
	if cfg.MQTTPort != 1883 {
		t.Errorf("bad port must fall back to 1883, got %d", cfg.MQTTPort)
	}
	if cfg.RetentionDays != 30 {
		t.Errorf("negative retention must fall back to default, got %d", cfg.RetentionDays)
	}
}
