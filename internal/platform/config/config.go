package config

import (
	"os"
	"strings"
	"time"
)

// ServiceType fixes the capability profile of a process for its lifetime.
// It is read once at startup and carried on the config struct; nothing else
// reads the environment afterwards.
type ServiceType string

const (
	ServiceTypeDefault ServiceType = "default"
	ServiceTypeReader  ServiceType = "reader"
	ServiceTypeWriter  ServiceType = "writer"
)

// Server captures the school service configuration.
type Server struct {
	Addr        string
	MetricsAddr string
	ServiceType ServiceType

	// WriteDSN backs the command store. ReadDSN backs the query store and
	// may point at a replica; when empty it falls back to WriteDSN.
	WriteDSN string
	ReadDSN  string

	// RedisURL enables the reader-side query cache when set.
	RedisURL string
	CacheTTL time.Duration

	// KafkaBrokers enables the outbox relay when set.
	KafkaBrokers []string
	ChangeTopic  string

	// WriteSigningKey enables the bearer gate on write verbs when set.
	WriteSigningKey string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("SCHOOL_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	metricsAddr := os.Getenv("SCHOOL_METRICS_ADDR")
	if metricsAddr == "" {
		metricsAddr = ":9090"
	}

	writeDSN := os.Getenv("SCHOOL_DB_DSN")
	readDSN := os.Getenv("SCHOOL_READ_DB_DSN")
	if readDSN == "" {
		readDSN = writeDSN
	}

	cacheTTL := 30 * time.Second
	if raw := os.Getenv("SCHOOL_CACHE_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			cacheTTL = d
		}
	}

	var brokers []string
	if raw := os.Getenv("SCHOOL_KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	topic := os.Getenv("SCHOOL_CHANGE_TOPIC")
	if topic == "" {
		topic = "school.changes"
	}

	return Server{
		Addr:            addr,
		MetricsAddr:     metricsAddr,
		ServiceType:     ParseServiceType(os.Getenv("SERVICE_TYPE")),
		WriteDSN:        writeDSN,
		ReadDSN:         readDSN,
		RedisURL:        os.Getenv("SCHOOL_REDIS_URL"),
		CacheTTL:        cacheTTL,
		KafkaBrokers:    brokers,
		ChangeTopic:     topic,
		WriteSigningKey: os.Getenv("SCHOOL_WRITE_SIGNING_KEY"),
	}
}

// ParseServiceType normalizes the SERVICE_TYPE value; anything unrecognized
// falls back to the unrestricted default profile.
func ParseServiceType(raw string) ServiceType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ServiceTypeReader):
		return ServiceTypeReader
	case string(ServiceTypeWriter):
		return ServiceTypeWriter
	default:
		return ServiceTypeDefault
	}
}
