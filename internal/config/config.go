package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/zias.db"

	// Device role registry seed
	RolesFile string

	// MQTT ingestion
	MQTTBroker      string
	MQTTPort        int
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string
	IngestWorkers   int

	// Correlation timing. All wall-clock; the engine receives these
	// explicitly and hardcodes none of them.
	CorrelationWindow time.Duration
	AntiTailgating    time.Duration
	PresenceTTL       time.Duration
	SweepInterval     time.Duration
	SweepLookback     time.Duration

	// Presence backend: "memory" or "redis"
	PresenceBackend string
	RedisAddr       string

	// Raw signal retention
	RetentionDays      int // 0 = keep forever
	PruneIntervalHours int // how often the pruner runs (default 6)
}

func FromEnv() Config {
	addr := getenvDefault("ZIAS_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("ZIAS_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	window := getenvSeconds("ZIAS_CORRELATION_WINDOW_SECONDS", 10)
	ttl := getenvSeconds("ZIAS_PRESENCE_TTL_SECONDS", 0)
	if ttl <= 0 {
		ttl = window
	}
	lookback := getenvSeconds("ZIAS_SWEEP_LOOKBACK_SECONDS", 0)
	if lookback <= 0 {
		lookback = 2 * window
	}

	backend := strings.ToLower(getenvDefault("ZIAS_PRESENCE_BACKEND", "memory"))
	if backend != "memory" && backend != "redis" {
		backend = "memory"
	}

	return Config{
		HTTPAddr: addr,
		Env:      env,
		DBPath:   getenvDefault("ZIAS_DB_PATH", "./data/zias.db"),

		RolesFile: getenvDefault("ZIAS_ROLES_FILE", ""),

		MQTTBroker:      getenvDefault("ZIAS_MQTT_BROKER", "localhost"),
		MQTTPort:        getenvInt("ZIAS_MQTT_PORT", 1883),
		MQTTUsername:    os.Getenv("ZIAS_MQTT_USERNAME"),
		MQTTPassword:    os.Getenv("ZIAS_MQTT_PASSWORD"),
		MQTTTopicPrefix: getenvDefault("ZIAS_MQTT_TOPIC_PREFIX", "zias"),
		IngestWorkers:   getenvInt("ZIAS_INGEST_WORKERS", 8),

		CorrelationWindow: window,
		AntiTailgating:    getenvSeconds("ZIAS_ANTI_TAILGATING_SECONDS", 3),
		PresenceTTL:       ttl,
		SweepInterval:     getenvSeconds("ZIAS_SWEEP_INTERVAL_SECONDS", 60),
		SweepLookback:     lookback,

		PresenceBackend: backend,
		RedisAddr:       getenvDefault("ZIAS_REDIS_ADDR", "localhost:6379"),

		RetentionDays:      getenvInt("ZIAS_RETENTION_DAYS", 30),
		PruneIntervalHours: getenvInt("ZIAS_PRUNE_INTERVAL_HOURS", 6),
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvSeconds(key string, def int) time.Duration {
	return time.Duration(getenvInt(key, def)) * time.Second
}
