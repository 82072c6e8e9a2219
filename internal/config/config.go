package config

import (
	"errors"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env          string        `yaml:"env"`
	LogLevel     string        `yaml:"log_level"`
	Addr         string        `yaml:"addr"`
	DBType       string        `yaml:"storage_backend"`
	DBDSN        string        `yaml:"postgres_dsn"`
	SQLitePath   string        `yaml:"sqlite_path"`
	DocumentFile string        `yaml:"document_file"`
	SyncEnabled  bool          `yaml:"sync_enabled"`
	SyncURL      string        `yaml:"sync_url"`
	SyncToken    string        `yaml:"sync_token"`
	SyncPoll     time.Duration `yaml:"sync_poll"`
}

var (
	cfg  *Config
	once sync.Once
)

// Load builds the process config once: optional YAML file first, then
// environment variables override. yamlPath may be empty.
func Load(yamlPath string) *Config {
	once.Do(func() {
		_ = loadDotEnv()
		cfg = &Config{
			Env:          "development",
			LogLevel:     "info",
			Addr:         ":8088",
			DBType:       "file",
			DocumentFile: "data/document.json",
			SQLitePath:   "data/ruetrack.db",
			SyncPoll:     30 * time.Second,
		}
		if yamlPath != "" {
			if err := cfg.applyYAML(yamlPath); err != nil {
				panic("Invalid config file: " + err.Error())
			}
		}
		cfg.applyEnv()
		if err := cfg.Validate(); err != nil {
			panic("Invalid config: " + err.Error())
		}
	})
	return cfg
}

func (c *Config) applyYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnv() {
	c.Env = getEnv("APP_ENV", c.Env)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Addr = getEnv("LISTEN_ADDR", c.Addr)
	c.DBType = getEnv("STORAGE_BACKEND", c.DBType)
	c.DBDSN = getEnv("POSTGRES_DSN", c.DBDSN)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.DocumentFile = getEnv("DOCUMENT_FILE", c.DocumentFile)
	if v := os.Getenv("SYNC_URL"); v != "" {
		c.SyncURL = v
		c.SyncEnabled = true
	}
	c.SyncToken = getEnv("SYNC_TOKEN", c.SyncToken)
	if v := os.Getenv("SYNC_POLL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SyncPoll = d
		}
	}
}

func (c *Config) Validate() error {
	switch c.DBType {
	case "postgres":
		if c.DBDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORAGE_BACKEND=sqlite")
		}
	case "file":
		if c.DocumentFile == "" {
			return errors.New("DOCUMENT_FILE is required when STORAGE_BACKEND=file")
		}
	default:
		return errors.New("STORAGE_BACKEND must be one of: file, sqlite, postgres")
	}
	if c.SyncEnabled && c.SyncURL == "" {
		return errors.New("SYNC_URL is required when sync is enabled")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		f, err := os.Open(".env")
		if err != nil {
			return err
		}
		defer f.Close()
		var lines []string
		buf := make([]byte, 4096)
		for {
			n, err := f.Read(buf)
			if n > 0 {
				lines = append(lines, string(buf[:n]))
			}
			if err != nil {
				break
			}
		}
		for _, line := range lines {
			for _, l := range splitLines(line) {
				if len(l) == 0 || l[0] == '#' {
					continue
				}
				kv := splitKV(l)
				if len(kv) == 2 {
					os.Setenv(kv[0], kv[1])
				}
			}
		}
	}
	return nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, c := range s {
		if c == '\n' || c == '\r' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func splitKV(s string) []string {
	for i, c := range s {
		if c == '=' {
			return []string{s[:i], s[i+1:]}
		}
	}
	return nil
}
