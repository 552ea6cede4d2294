// Package gateway is the routing front for the school service fleet. It
// forwards /api/reader and /api/writer traffic to the matching restricted
// pools and everything else under /api to the unrestricted default pool.
package gateway

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the gateway configuration, loaded from YAML with environment
// overrides.
type Config struct {
	Addr        string `yaml:"addr" env:"GATEWAY_ADDR" env-default:":8000"`
	MetricsAddr string `yaml:"metrics_addr" env:"GATEWAY_METRICS_ADDR" env-default:":9091"`

	Pools PoolsConfig `yaml:"pools"`
}

// PoolsConfig lists the upstream replica URLs per capability pool.
type PoolsConfig struct {
	Default []string `yaml:"default" env:"GATEWAY_DEFAULT_URLS" env-separator:","`
	Reader  []string `yaml:"reader" env:"GATEWAY_READER_URLS" env-separator:","`
	Writer  []string `yaml:"writer" env:"GATEWAY_WRITER_URLS" env-separator:","`
}

// Load reads the gateway config. An empty path loads from the environment
// only, which keeps local runs to a single GATEWAY_DEFAULT_URLS variable.
func Load(path string) (Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load gateway config: %w", err)
	}
	if len(cfg.Pools.Default) == 0 {
		return Config{}, fmt.Errorf("load gateway config: default pool has no upstreams")
	}
	return cfg, nil
}
