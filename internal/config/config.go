package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port      string `yaml:"port"`
		PublicURL string `yaml:"publicUrl"`
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
	Match struct {
		DefaultCode      string `yaml:"defaultCode"`
		DefaultPin       string `yaml:"defaultPin"`
		BaseCorrect      int    `yaml:"baseCorrect"`
		SpeedMax         int    `yaml:"speedMax"`
		FirstCorrect     int    `yaml:"firstCorrect"`
		TimePerQuestion  int    `yaml:"timePerQuestion"`
		ShuffleQuestions *bool  `yaml:"shuffleQuestions"`
		ShuffleAnswers   *bool  `yaml:"shuffleAnswers"`
	} `yaml:"match"`
	Tx struct {
		MaxAttempts    int    `yaml:"maxAttempts"`
		InitialBackoff string `yaml:"initialBackoff"`
		MaxBackoff     string `yaml:"maxBackoff"`
	} `yaml:"tx"`
	Questions struct {
		Dir  string     `yaml:"dir"`
		TTL  string     `yaml:"ttl"`
		Sets []SetEntry `yaml:"sets"`
	} `yaml:"questions"`
	Solo struct {
		OwnerPasscode string `yaml:"ownerPasscode"`
		RetentionDays int    `yaml:"retentionDays"`
	} `yaml:"solo"`
}

// SetEntry lists one question set file.
type SetEntry struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
	Path     string `yaml:"path"`
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

// IntOr returns v, or fallback when v is zero.
func IntOr(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

// BoolOr returns *v, or fallback when unset.
func BoolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
