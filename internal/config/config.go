package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	defaultInterval         = 300
	defaultRecordType       = "A"
	defaultLogLevel         = "info"
	defaultLogEnv           = "prod"
	defaultHistoryRetention = 30 * 24 * time.Hour
)

type Config struct {
	Log        Log         `yaml:"log"`
	Metrics    Metrics     `yaml:"metrics"`
	History    History     `yaml:"history"`
	Interfaces []Interface `yaml:"interfaces" validate:"dive"`
	Zones      []Zone      `yaml:"zones" validate:"dive"`
	Records    []Record    `yaml:"records" validate:"dive"`
}

type Log struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn error off"`
	Env   string `yaml:"env"`
	File  string `yaml:"file"`
}

type Metrics struct {
	Address string `yaml:"address" validate:"omitempty,hostname_port"`
}

type History struct {
	Path      string        `yaml:"path"`
	Retention time.Duration `yaml:"retention"`
}

type Interface struct {
	Name     string `yaml:"name" validate:"required"`
	Interval int    `yaml:"interval" validate:"gte=1"`
}

// Period is the time between two reconcile passes.
func (i Interface) Period() time.Duration {
	return time.Duration(i.Interval) * time.Second
}

type Zone struct {
	Name  string `yaml:"name" validate:"required,dnsname"`
	ID    string `yaml:"id"`
	Token string `yaml:"token" validate:"required"`
}

type Record struct {
	Name      string `yaml:"name" validate:"required,dnsname"`
	Zone      string `yaml:"zone" validate:"required"`
	Interface string `yaml:"interface" validate:"required"`
	Type      string `yaml:"type" validate:"oneof=A AAAA"`
	TTL       int    `yaml:"ttl" validate:"gte=0,lte=86400"`
	Proxied   bool   `yaml:"proxied"`
}

// Zone returns the declaration for name, or nil.
func (c *Config) Zone(name string) *Zone {
	for i := range c.Zones {
		if c.Zones[i].Name == name {
			return &c.Zones[i]
		}
	}
	return nil
}

// Load reads, defaults and validates the configuration at path.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config at %s: %w", path, err)
	}
	slog.Debug("Loaded config", "path", path, "interfaces", len(cfg.Interfaces), "zones", len(cfg.Zones), "records", len(cfg.Records))
	return cfg, nil
}

// Parse decodes YAML and applies defaults, environment overrides and
// validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	cfg.setDefaults()
	cfg.applyEnv()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Env == "" {
		c.Log.Env = defaultLogEnv
	}
	if c.History.Retention == 0 {
		c.History.Retention = defaultHistoryRetention
	}
	for i := range c.Interfaces {
		if c.Interfaces[i].Interval == 0 {
			c.Interfaces[i].Interval = defaultInterval
		}
	}
	for i := range c.Records {
		r := &c.Records[i]
		r.Type = strings.ToUpper(r.Type)
		if r.Type == "" {
			r.Type = defaultRecordType
		}
	}
	for i := range c.Zones {
		c.Zones[i].Token = os.ExpandEnv(c.Zones[i].Token)
	}
}

// Override from environment if set
func (c *Config) applyEnv() {
	if loglevel := os.Getenv("CFDNS_LOG_LEVEL"); loglevel != "" {
		c.Log.Level = loglevel
	}
	if logenv := os.Getenv("CFDNS_LOG_ENV"); logenv != "" {
		c.Log.Env = logenv
	}
	if logfile := os.Getenv("CFDNS_LOG_FILE"); logfile != "" {
		c.Log.File = logfile
	}
	if address := os.Getenv("CFDNS_METRICS_ADDRESS"); address != "" {
		c.Metrics.Address = address
	}
	if historyPath := os.Getenv("CFDNS_HISTORY_PATH"); historyPath != "" {
		c.History.Path = historyPath
	}
}
