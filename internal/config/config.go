package config

import (
	"os"
	"time"

	"flashpack-service/internal/domain"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Study struct {
		// Curriculum is the ordered list of tier sets per round; empty means
		// the built-in seven-round cycle.
		Curriculum      [][]int `yaml:"curriculum"`
		IntervalMin     string  `yaml:"interval_min"`
		IntervalMax     string  `yaml:"interval_max"`
		IntervalDefault string  `yaml:"interval_default"`
		ReminderPeriod  string  `yaml:"reminder_period"`
		PackTTL         string  `yaml:"pack_ttl"`
	} `yaml:"study"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or
// malformed.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Curriculum converts the configured tier sets, falling back to the default
// cycle when unset or invalid.
func (c Config) Curriculum() domain.Curriculum {
	if len(c.Study.Curriculum) == 0 {
		return domain.DefaultCurriculum()
	}
	out := make(domain.Curriculum, len(c.Study.Curriculum))
	for i, tiers := range c.Study.Curriculum {
		out[i] = domain.TierSet(tiers)
	}
	if err := out.Validate(); err != nil {
		return domain.DefaultCurriculum()
	}
	return out
}
