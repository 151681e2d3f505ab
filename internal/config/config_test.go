package config

import (
	"context"
	"errors"
	"io/fs"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

const sampleConfig = `
log:
  level: debug
interfaces:
  - name: eth0
  - name: eth8
    interval: 60
zones:
  - name: example.com
    token: ${CFDNS_TEST_TOKEN}
  - name: example.net
    id: 023e105f4ecef8ad9ca31a8372d0c353
    token: plain-token
records:
  - name: home
    zone: example.com
    interface: eth0
  - name: home
    zone: example.com
    interface: eth0
    type: aaaa
    ttl: 120
    proxied: true
  - name: vpn.example.net
    zone: example.net
    interface: eth8
`

func writeConfig(t *testing.T, contents string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/etc/cfdns/config.yaml", []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestLoad(t *testing.T) {
	t.Setenv("CFDNS_TEST_TOKEN", "secret-token")
	fs := writeConfig(t, sampleConfig)

	cfg, err := Load(fs, "/etc/cfdns/config.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	wantInterfaces := []Interface{{Name: "eth0", Interval: 300}, {Name: "eth8", Interval: 60}}
	if !reflect.DeepEqual(cfg.Interfaces, wantInterfaces) {
		t.Errorf("interfaces = %+v, want %+v", cfg.Interfaces, wantInterfaces)
	}

	wantZones := []Zone{
		{Name: "example.com", Token: "secret-token"},
		{Name: "example.net", ID: "023e105f4ecef8ad9ca31a8372d0c353", Token: "plain-token"},
	}
	if !reflect.DeepEqual(cfg.Zones, wantZones) {
		t.Errorf("zones = %+v, want %+v", cfg.Zones, wantZones)
	}

	wantRecords := []Record{
		{Name: "home", Zone: "example.com", Interface: "eth0", Type: "A"},
		{Name: "home", Zone: "example.com", Interface: "eth0", Type: "AAAA", TTL: 120, Proxied: true},
		{Name: "vpn.example.net", Zone: "example.net", Interface: "eth8", Type: "A"},
	}
	if !reflect.DeepEqual(cfg.Records, wantRecords) {
		t.Errorf("records = %+v, want %+v", cfg.Records, wantRecords)
	}

	if cfg.Log.Level != "debug" || cfg.Log.Env != "prod" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.History.Retention != 720*time.Hour {
		t.Errorf("history retention = %s, want 720h", cfg.History.Retention)
	}
	if cfg.Interfaces[1].Period() != time.Minute {
		t.Errorf("period = %s, want 1m", cfg.Interfaces[1].Period())
	}
	if z := cfg.Zone("example.net"); z == nil || z.ID == "" {
		t.Errorf("Zone(example.net) = %+v", z)
	}
	if cfg.Zone("example.org") != nil {
		t.Error("Zone returned undeclared zone")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/nope/config.yaml")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("error = %v, want ErrNotExist", err)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""), "/etc/cfdns/config.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Interfaces) != 0 || cfg.Log.Level != "info" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadUnknownField(t *testing.T) {
	_, err := Load(writeConfig(t, "interfaces:\n  - name: eth0\n    intervall: 5\n"), "/etc/cfdns/config.yaml")
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParseRejectsQualifiedDuplicate(t *testing.T) {
	data := `
interfaces:
  - name: eth0
  - name: eth1
zones:
  - name: example.com
    token: t
records:
  - name: home
    zone: example.com
    interface: eth0
  - name: home.example.com
    zone: example.com
    interface: eth1
`
	_, err := Parse([]byte(data))
	if err == nil || !strings.Contains(err.Error(), "records[1]: duplicate A record 'home.example.com'") {
		t.Fatalf("error = %v, want duplicate binding", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CFDNS_LOG_LEVEL", "warn")
	t.Setenv("CFDNS_LOG_ENV", "dev")
	t.Setenv("CFDNS_LOG_FILE", "/var/log/cfdns.log")
	t.Setenv("CFDNS_METRICS_ADDRESS", ":9090")
	t.Setenv("CFDNS_HISTORY_PATH", "/var/lib/cfdns")

	cfg, err := Parse([]byte("log:\n  level: debug\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Log{Level: "warn", Env: "dev", File: "/var/log/cfdns.log"}
	if cfg.Log != want {
		t.Errorf("log = %+v, want %+v", cfg.Log, want)
	}
	if cfg.Metrics.Address != ":9090" || cfg.History.Path != "/var/lib/cfdns" {
		t.Errorf("metrics/history not overridden: %+v %+v", cfg.Metrics, cfg.History)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Log:        Log{Level: "info", Env: "prod"},
			Interfaces: []Interface{{Name: "eth0", Interval: 300}},
			Zones:      []Zone{{Name: "example.com", Token: "t"}},
			Records:    []Record{{Name: "home", Zone: "example.com", Interface: "eth0", Type: "A"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"apex record", func(c *Config) { c.Records[0].Name = "@" }, ""},
		{"empty interface name", func(c *Config) { c.Interfaces[0].Name = "" }, "interfaces[0].name is required"},
		{"zero interval", func(c *Config) { c.Interfaces[0].Interval = 0 }, "interfaces[0].interval must be at least 1"},
		{"duplicate interface", func(c *Config) { c.Interfaces = append(c.Interfaces, c.Interfaces[0]) }, "duplicate interface 'eth0'"},
		{"missing token", func(c *Config) { c.Zones[0].Token = "" }, "zones[0].token is required"},
		{"bad zone name", func(c *Config) { c.Zones[0].Name = "exa mple..com" }, "not a valid domain name"},
		{"duplicate zone", func(c *Config) { c.Zones = append(c.Zones, c.Zones[0]) }, "duplicate zone 'example.com'"},
		{"missing record zone", func(c *Config) { c.Records[0].Zone = "" }, "records[0].zone is required"},
		{"missing record interface", func(c *Config) { c.Records[0].Interface = "" }, "records[0].interface is required"},
		{"unknown interface", func(c *Config) { c.Records[0].Interface = "wan1" }, "undefined interface 'wan1'"},
		{"unsupported type", func(c *Config) { c.Records[0].Type = "CNAME" }, "records[0].type must be one of [A AAAA]"},
		{"negative ttl", func(c *Config) { c.Records[0].TTL = -5 }, "records[0].ttl must be at least 0"},
		{"duplicate binding", func(c *Config) {
			dup := c.Records[0]
			dup.Name = "HOME."
			c.Records = append(c.Records, dup)
		}, "duplicate A record"},
		{"duplicate binding relative and absolute", func(c *Config) {
			c.Interfaces = append(c.Interfaces, Interface{Name: "eth1", Interval: 300})
			c.Records = append(c.Records, Record{Name: "home.example.com", Zone: "example.com", Interface: "eth1", Type: "A"})
		}, "duplicate A record 'home.example.com'"},
		{"duplicate binding zone case", func(c *Config) {
			c.Records = append(c.Records, Record{Name: "home", Zone: "Example.com.", Interface: "eth0", Type: "A"})
		}, "duplicate A record"},
		{"duplicate apex binding", func(c *Config) {
			c.Records[0].Name = "@"
			c.Records = append(c.Records, Record{Name: "example.com", Zone: "example.com", Interface: "eth0", Type: "A"})
		}, "duplicate A record 'example.com'"},
		{"duplicate zone case", func(c *Config) { c.Zones = append(c.Zones, Zone{Name: "EXAMPLE.com", Token: "t"}) }, "duplicate zone 'EXAMPLE.com'"},
		{"ttl above maximum", func(c *Config) { c.Records[0].TTL = 4294967297 }, "records[0].ttl must be at most 86400"},
		{"maximum ttl", func(c *Config) { c.Records[0].TTL = 86400 }, ""},
		{"same name other type", func(c *Config) {
			c.Records = append(c.Records, Record{Name: "home", Zone: "example.com", Interface: "eth0", Type: "AAAA"})
		}, ""},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level must be one of"},
		{"bad metrics address", func(c *Config) { c.Metrics.Address = "9090" }, "metrics.address '9090' must be host:port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDetectPlatform(t *testing.T) {
	ctx := context.Background()

	p, err := DetectPlatform(ctx, afero.NewMemMapFs(), func(context.Context) (string, error) {
		t.Fatal("model read without device info binary")
		return "", nil
	})
	if err != nil || p != PlatformOther {
		t.Errorf("DetectPlatform = %v, %v; want other", p, err)
	}

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, deviceInfoPath, []byte("#!/bin/sh"), 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		model   string
		want    Platform
		wantDir string
	}{
		{"UDM\n", PlatformUDM, "/mnt/data/cfdns/etc"},
		{"UDM-Pro\n", PlatformUDMP, "/mnt/data/cfdns/etc"},
		{"UDM-SE\n", PlatformUDMSE, "/data/cfdns/etc"},
		{"UDR", PlatformUDR, "/data/cfdns/etc"},
		{"UXG-Lite", PlatformOther, ""},
	}
	for _, tt := range tests {
		model := tt.model
		p, err := DetectPlatform(ctx, fs, func(context.Context) (string, error) { return model, nil })
		if err != nil {
			t.Fatalf("DetectPlatform(%q): %v", tt.model, err)
		}
		if p != tt.want {
			t.Errorf("DetectPlatform(%q) = %v, want %v", tt.model, p, tt.want)
		}
		if tt.wantDir != "" && p.Dir() != tt.wantDir {
			t.Errorf("%v.Dir() = %q, want %q", p, p.Dir(), tt.wantDir)
		}
	}

	_, err = DetectPlatform(ctx, fs, func(context.Context) (string, error) { return "", errors.New("exit status 1") })
	if err == nil {
		t.Error("expected model read error")
	}
}

func TestDefaultPathFromEnv(t *testing.T) {
	t.Setenv("CFDNS_CONFIG", "/tmp/cfdns.yaml")
	path, err := DefaultPath(context.Background(), afero.NewMemMapFs())
	if err != nil || path != "/tmp/cfdns.yaml" {
		t.Errorf("DefaultPath = %q, %v", path, err)
	}
}
