package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".dacweb"

// XDGConfigFile is the configuration file name inside XDGConfigDir.
const XDGConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .dacweb configuration file.
// Zero values leave the corresponding setting unchanged.
type File struct {
	DataDir     string           `yaml:"data_dir,omitempty"`
	Linker      ServiceFile      `yaml:"linker,omitempty"`
	NER         ServiceFile      `yaml:"ner,omitempty"`
	OCRSuffix   string           `yaml:"ocr_suffix,omitempty"`
	Proxy       string           `yaml:"proxy,omitempty"`
	Server      ServerFile       `yaml:"server,omitempty"`
	Exclusivity ExclusivityRules `yaml:"exclusivity,omitempty"`
	DBDir       string           `yaml:"db_dir,omitempty"`
}

// ServiceFile configures one collaborator service.
type ServiceFile struct {
	URL     string        `yaml:"url,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ServerFile configures the annotation server.
type ServerFile struct {
	Listen            string `yaml:"listen,omitempty"`
	LinkMaxDelta      int64  `yaml:"link_max_delta,omitempty"`
	EditMaxDelta      int64  `yaml:"edit_max_delta,omitempty"`
	ConflictDetection *bool  `yaml:"conflict_detection,omitempty"`
}

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply copies every setting present in the file onto cfg.
func (cf *File) Apply(cfg *Config) {
	if cf.DataDir != "" {
		cfg.DataDir = cf.DataDir
	}
	if cf.Linker.URL != "" {
		cfg.LinkerURL = cf.Linker.URL
	}
	if cf.Linker.Timeout > 0 {
		cfg.Timeout = cf.Linker.Timeout
	}
	if cf.NER.URL != "" {
		cfg.NERURL = cf.NER.URL
	}
	if cf.OCRSuffix != "" {
		cfg.OCRSuffix = cf.OCRSuffix
	}
	if cf.Proxy != "" {
		cfg.ProxyAddress = cf.Proxy
	}
	if cf.Server.Listen != "" {
		cfg.ListenAddress = cf.Server.Listen
	}
	if cf.Server.LinkMaxDelta != 0 {
		cfg.LinkMaxDelta = cf.Server.LinkMaxDelta
	}
	if cf.Server.EditMaxDelta != 0 {
		cfg.EditMaxDelta = cf.Server.EditMaxDelta
	}
	if cf.Server.ConflictDetection != nil {
		cfg.ConflictDetection = *cf.Server.ConflictDetection
	}
	if len(cf.Exclusivity) > 0 {
		cfg.Exclusivity = cf.Exclusivity
	}
	if cf.DBDir != "" {
		cfg.DBDir = cf.DBDir
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .dacweb in the current directory
// 3. Look for .dacweb in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}
	return firstExisting(configCandidates())
}

// configCandidates lists the default config file locations in lookup order.
func configCandidates() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return append(paths, filepath.Join(XDGConfigDir(), XDGConfigFile))
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
