package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseServiceType(t *testing.T) {
	tests := []struct {
		raw  string
		want ServiceType
	}{
		{"reader", ServiceTypeReader},
		{"READER", ServiceTypeReader},
		{"  writer ", ServiceTypeWriter},
		{"default", ServiceTypeDefault},
		{"", ServiceTypeDefault},
		{"bogus", ServiceTypeDefault},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseServiceType(tt.raw), "raw=%q", tt.raw)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"SCHOOL_ADDR", "SCHOOL_METRICS_ADDR", "SERVICE_TYPE", "SCHOOL_CHANGE_TOPIC", "SCHOOL_CACHE_TTL"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, ServiceTypeDefault, cfg.ServiceType)
	assert.Equal(t, "school.changes", cfg.ChangeTopic)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SERVICE_TYPE", "reader")
	t.Setenv("SCHOOL_ADDR", ":9999")
	t.Setenv("SCHOOL_DB_DSN", "postgres://write")
	t.Setenv("SCHOOL_KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("SCHOOL_CACHE_TTL", "2m")

	cfg := FromEnv()

	assert.Equal(t, ServiceTypeReader, cfg.ServiceType)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "postgres://write", cfg.WriteDSN)
	assert.Equal(t, "postgres://write", cfg.ReadDSN, "read DSN falls back to the write DSN")
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
}
