package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Words struct {
		File string `yaml:"file"`
		TTL  string `yaml:"ttl"`
	} `yaml:"words"`
	Round struct {
		Duration       string `yaml:"duration"`
		Warning        string `yaml:"warning"`
		AttemptCeiling int    `yaml:"attempt_ceiling"`
	} `yaml:"round"`
	Violations struct {
		SimilarityThreshold float64 `yaml:"similarity_threshold"`
		BanTrigger          int     `yaml:"ban_trigger"`
		BanRounds           int     `yaml:"ban_rounds"`
	} `yaml:"violations"`
	Scoring struct {
		LevelScale float64 `yaml:"level_scale"`
	} `yaml:"scoring"`
	Reset struct {
		Window  string   `yaml:"window"`
		Request []string `yaml:"request"`
		Confirm []string `yaml:"confirm"`
		Cancel  []string `yaml:"cancel"`
	} `yaml:"reset"`
}

// Load reads YAML config from path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg, os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides connection settings from the environment.
// DATABASE_URL wins over the individual PG* variables, which are only used when all are present.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if url := getenv("DATABASE_URL"); url != "" {
		cfg.Postgres.URL = url
	} else if url := postgresURLFromParts(getenv); url != "" {
		cfg.Postgres.URL = url
	}
	if addr := getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if lvl := getenv("LOG_LEVEL"); lvl != "" {
		cfg.Log.Level = lvl
	}
}

func postgresURLFromParts(getenv func(string) string) string {
	host, db, user, pass := getenv("PGHOST"), getenv("PGDATABASE"), getenv("PGUSER"), getenv("PGPASSWORD")
	if host == "" || db == "" || user == "" || pass == "" {
		return ""
	}
	port := getenv("PGPORT")
	if port == "" {
		port = "5432"
	}
	if _, err := strconv.Atoi(port); err != nil {
		return ""
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s", user, pass, host, port, db)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
