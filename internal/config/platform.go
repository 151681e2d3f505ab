package config

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	deviceInfoPath = "/usr/bin/ubnt-device-info"
	configFileName = "config.yaml"
)

type Platform string

const (
	PlatformUDM   Platform = "UDM"
	PlatformUDMP  Platform = "UDM-Pro"
	PlatformUDMSE Platform = "UDM-SE"
	PlatformUDR   Platform = "UDR"
	PlatformOther Platform = "other"
)

// ModelReader returns the short model name of a UniFi console.
type ModelReader func(ctx context.Context) (string, error)

func readDeviceModel(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, deviceInfoPath, "model_short").Output()
	if err != nil {
		return "", fmt.Errorf("failed to execute ubnt-device-info: %w", err)
	}
	return string(out), nil
}

// DetectPlatform identifies UniFi consoles, whose persistent storage lives
// outside the usual config directories.
func DetectPlatform(ctx context.Context, fs afero.Fs, read ModelReader) (Platform, error) {
	exists, err := afero.Exists(fs, deviceInfoPath)
	if err != nil || !exists {
		return PlatformOther, nil
	}
	if read == nil {
		read = readDeviceModel
	}
	model, err := read(ctx)
	if err != nil {
		return PlatformOther, err
	}

	switch p := Platform(strings.TrimSpace(model)); p {
	case PlatformUDM, PlatformUDMP, PlatformUDMSE, PlatformUDR:
		return p, nil
	}
	return PlatformOther, nil
}

// Dir is the directory holding the config file on this platform.
func (p Platform) Dir() string {
	switch p {
	case PlatformUDM, PlatformUDMP:
		return "/mnt/data/cfdns/etc"
	case PlatformUDMSE, PlatformUDR:
		return "/data/cfdns/etc"
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "cfdns")
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// DefaultPath resolves the config file location: CFDNS_CONFIG if set,
// otherwise config.yaml in the platform directory.
func DefaultPath(ctx context.Context, fs afero.Fs) (string, error) {
	if path := os.Getenv("CFDNS_CONFIG"); path != "" {
		return path, nil
	}
	platform, err := DetectPlatform(ctx, fs, nil)
	if err != nil {
		return "", err
	}
	return filepath.Join(platform.Dir(), configFileName), nil
}
