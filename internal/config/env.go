package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read for environment overrides when present.
const DefaultEnvFile = ".env"

// Environment variables overriding file settings.
const (
	EnvDataDir           = "DACWEB_DATA_DIR"
	EnvLinkerURL         = "DACWEB_LINKER_URL"
	EnvNERURL            = "DACWEB_NER_URL"
	EnvProxy             = "DACWEB_PROXY"
	EnvTimeout           = "DACWEB_TIMEOUT"
	EnvListen            = "DACWEB_LISTEN"
	EnvConflictDetection = "DACWEB_CONFLICT_DETECTION"
)

// ApplyEnv overrides cfg from the environment. Values in envFile are used
// for variables not set in the process environment; a missing envFile is
// not an error.
func ApplyEnv(cfg *Config, envFile string) error {
	fileEnv := map[string]string{}
	if envFile != "" {
		env, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileEnv = env
		case errors.Is(err, os.ErrNotExist):
		default:
			return fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok && v != ""
	}

	if v, ok := lookup(EnvDataDir); ok {
		cfg.DataDir = v
	}
	if v, ok := lookup(EnvLinkerURL); ok {
		cfg.LinkerURL = v
	}
	if v, ok := lookup(EnvNERURL); ok {
		cfg.NERURL = v
	}
	if v, ok := lookup(EnvProxy); ok {
		cfg.ProxyAddress = v
	}
	if v, ok := lookup(EnvListen); ok {
		cfg.ListenAddress = v
	}
	if v, ok := lookup(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	if v, ok := lookup(EnvConflictDetection); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvConflictDetection, err)
		}
		cfg.ConflictDetection = b
	}
	return nil
}
