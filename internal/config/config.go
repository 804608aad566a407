package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "dacweb"

	// DefaultDataDir holds one subdirectory per dataset.
	DefaultDataDir = "users"

	// DefaultLinkerURL is the entity linker endpoint.
	DefaultLinkerURL = "http://localhost:5002/link"

	// DefaultNERURL is the named-entity recognition endpoint.
	DefaultNERURL = "http://localhost:5003/analyze"

	// DefaultOCRSuffix is appended to an article url to fetch its OCR text.
	// Delpher resolver urls serve OCR under ":ocr".
	DefaultOCRSuffix = ":ocr"

	// DefaultTimeout applies to each request to the linker, NER and OCR
	// services. Linking a mention can take several seconds when candidates
	// are requested.
	DefaultTimeout = 60 * time.Second

	// DefaultListenAddress is where the annotation server listens.
	DefaultListenAddress = "localhost:5001"

	// DefaultLinkMaxDelta bounds the file size change of a link save in bytes.
	// A single link edit changes the file by a few hundred bytes at most.
	DefaultLinkMaxDelta = 15000

	// DefaultEditMaxDelta bounds the file size change of an add or delete.
	// Adding an article can add dozens of mentions.
	DefaultEditMaxDelta = 50000

	// DefaultResultsFile is the evaluation results file.
	DefaultResultsFile = "results.csv"

	// DefaultUserAgent identifies dacweb in requests to collaborators.
	DefaultUserAgent = "dacweb/1.0 (+https://github.com/jlonij/dac-web)"
)

// Config holds all configuration options for dacweb.
// It is populated from defaults, the config file, the environment and CLI
// flags, in that order, and passed through the application explicitly.
type Config struct {
	// DataDir is the directory holding one subdirectory per dataset.
	DataDir string

	// LinkerURL is the entity linker endpoint.
	LinkerURL string

	// NERURL is the named-entity recognition endpoint.
	NERURL string

	// OCRSuffix is appended to an article url to fetch its OCR text.
	OCRSuffix string

	// ProxyAddress routes collaborator requests through a SOCKS5 proxy when
	// set, in [user:password@]host:port form.
	ProxyAddress string

	// Timeout is the per-request timeout for collaborator requests.
	Timeout time.Duration

	// UserAgent is sent with collaborator requests.
	UserAgent string

	// ListenAddress is the address the annotation server binds to.
	ListenAddress string

	// LinkMaxDelta is the size bound in bytes for link saves.
	LinkMaxDelta int64

	// EditMaxDelta is the size bound in bytes for adds and deletes.
	EditMaxDelta int64

	// ConflictDetection makes the server reject saves made against a
	// dataset version that has since changed.
	ConflictDetection bool

	// Exclusivity lists which datasets must not share articles.
	Exclusivity ExclusivityRules

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches the server to JSON log output.
	LogJSON bool

	// ConfigFilePath is the explicit configuration file path, if any.
	ConfigFilePath string

	// ResultsFile is the tab-delimited evaluation results file.
	ResultsFile string

	// SummaryFile additionally writes the evaluation summary to this file.
	SummaryFile string

	// JSONReport prints the evaluation summary as JSON.
	JSONReport bool

	// MarkdownReport prints the evaluation summary as Markdown.
	MarkdownReport bool

	// ContinueOnError records linker failures instead of aborting evaluation.
	ContinueOnError bool

	// DBDir is the directory of the evaluation history database.
	// Defaults to the XDG data directory (~/.local/share/dacweb on Linux).
	DBDir string

	// SaveToDB stores evaluation runs in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		DataDir:       DefaultDataDir,
		LinkerURL:     DefaultLinkerURL,
		NERURL:        DefaultNERURL,
		OCRSuffix:     DefaultOCRSuffix,
		Timeout:       DefaultTimeout,
		UserAgent:     DefaultUserAgent,
		ListenAddress: DefaultListenAddress,
		LinkMaxDelta:  DefaultLinkMaxDelta,
		EditMaxDelta:  DefaultEditMaxDelta,
		Exclusivity:   DefaultExclusivityRules(),
		ResultsFile:   DefaultResultsFile,
		DBDir:         XDGDataDir(),
		SaveToDB:      true,
	}
}

// XDGDataDir returns the XDG data directory for dacweb.
// On Linux: ~/.local/share/dacweb
// On macOS: ~/Library/Application Support/dacweb
// On Windows: %LOCALAPPDATA%\dacweb
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for dacweb.
// On Linux: ~/.config/dacweb
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return ErrNoDataDir
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.LinkMaxDelta <= 0 || c.EditMaxDelta <= 0 {
		return ErrInvalidMaxDelta
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return c.Exclusivity.Validate()
}
