package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jlonij/dac-web/internal/model"
)

const (
	// DataFile is the file name of a persisted dataset.
	DataFile = "art.json"

	// TempFile is the scratch file written before replacing DataFile.
	TempFile = "temp.json"

	// SharedFileMode leaves replaced files group and world writable so that
	// annotators running under different accounts can keep editing them.
	SharedFileMode os.FileMode = 0o666
)

// Loader loads datasets by name.
type Loader interface {
	Load(name string) (*model.Dataset, error)
}

// Store reads and writes datasets below a data directory.
type Store struct {
	// dir is the root directory holding one subdirectory per dataset.
	dir string

	// logger records replacements and rejected writes.
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the path of the persisted file for the named dataset.
func (s *Store) Path(name string) (string, error) {
	return s.filePath(name, DataFile)
}

// filePath joins a dataset name and file name below the data directory.
// Names must be plain directory names so requests cannot escape dir.
func (s *Store) filePath(name, file string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: invalid dataset name %q", model.ErrNotFound, name)
	}
	return filepath.Join(s.dir, name, file), nil
}

// fileFormat mirrors model.Dataset but lets Load tell a missing
// "instances" key apart from an empty list.
type fileFormat struct {
	Instances *[]model.Instance `json:"instances"`
	NextID    int               `json:"next_id"`
}

// Load reads the named dataset.
// A missing or unparsable file is reported as model.ErrNotFound.
func (s *Store) Load(name string) (*model.Dataset, error) {
	ds, _, err := s.load(name)
	return ds, err
}

func (s *Store) load(name string) (*model.Dataset, []byte, error) {
	path, err := s.filePath(name, DataFile)
	if err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // Path is confined to the data directory
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: dataset %q", model.ErrNotFound, name)
		}
		return nil, nil, fmt.Errorf("failed to read dataset %q: %w", name, err)
	}

	ds, err := Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: dataset %q is malformed: %v", model.ErrNotFound, name, err)
	}
	return ds, data, nil
}

// Decode parses the persisted form of a dataset.
func Decode(data []byte) (*model.Dataset, error) {
	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Instances == nil {
		return nil, errors.New(`missing "instances" list`)
	}

	ds := &model.Dataset{Instances: *f.Instances, NextID: f.NextID}
	ds.Normalize()
	return ds, nil
}

// Encode renders a dataset in its persisted form: sorted instance keys,
// four-space indentation and unescaped non-ASCII text.
func Encode(ds *model.Dataset) ([]byte, error) {
	out := ds.Clone()
	out.Normalize()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("failed to encode dataset: %w", err)
	}
	return buf.Bytes(), nil
}

// AtomicReplace writes ds over the named dataset.
//
// The dataset is first written to the temp file. Replacement happens only
// when the temp file exists and its size differs from the persisted file by
// less than maxDelta bytes; otherwise the temp file is discarded, the
// persisted file is left untouched and model.ErrSave is returned.
func (s *Store) AtomicReplace(name string, ds *model.Dataset, maxDelta int64) error {
	origPath, err := s.filePath(name, DataFile)
	if err != nil {
		return err
	}
	tempPath, err := s.filePath(name, TempFile)
	if err != nil {
		return err
	}

	if _, err := os.Stat(origPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: dataset %q", model.ErrNotFound, name)
		}
		return fmt.Errorf("failed to stat dataset %q: %w", name, err)
	}

	data, err := Encode(ds)
	if err != nil {
		return err
	}

	if err := os.WriteFile(tempPath, data, SharedFileMode); err != nil {
		s.discardTemp(tempPath)
		return fmt.Errorf("%w: failed to write temporary file: %v", model.ErrSave, err)
	}

	if err := s.checkSize(origPath, tempPath, maxDelta); err != nil {
		s.discardTemp(tempPath)
		s.logger.Warn("dataset write rejected", "dataset", name, "error", err)
		return err
	}

	// Chmod after writing because WriteFile is subject to the umask.
	if err := os.Chmod(tempPath, SharedFileMode); err != nil {
		s.discardTemp(tempPath)
		return fmt.Errorf("%w: failed to set permissions: %v", model.ErrSave, err)
	}
	if err := os.Remove(origPath); err != nil {
		s.discardTemp(tempPath)
		return fmt.Errorf("%w: failed to remove original: %v", model.ErrSave, err)
	}
	// From here on the temp file is the only copy and must be kept.
	if err := os.Rename(tempPath, origPath); err != nil {
		return fmt.Errorf("%w: failed to move temporary file into place: %v", model.ErrSave, err)
	}

	s.logger.Debug("dataset replaced",
		"dataset", name,
		"instances", ds.Len(),
		"bytes", len(data),
	)
	return nil
}

// discardTemp removes a temp file left by a failed replace.
func (s *Store) discardTemp(tempPath string) {
	if err := os.Remove(tempPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to remove temporary file", "path", tempPath, "error", err)
	}
}

// checkSize verifies the temp file exists and is within maxDelta bytes of
// the original.
func (s *Store) checkSize(origPath, tempPath string, maxDelta int64) error {
	tempInfo, err := os.Stat(tempPath)
	if err != nil {
		return fmt.Errorf("%w: temporary file missing: %v", model.ErrSave, err)
	}
	origInfo, err := os.Stat(origPath)
	if err != nil {
		return fmt.Errorf("%w: original file missing: %v", model.ErrSave, err)
	}

	delta := tempInfo.Size() - origInfo.Size()
	if delta < 0 {
		delta = -delta
	}
	if delta >= maxDelta {
		return fmt.Errorf("%w: size changed by %d bytes (limit %d)", model.ErrSave, delta, maxDelta)
	}
	return nil
}

// Create writes a new dataset. It refuses to overwrite an existing one.
func (s *Store) Create(name string, ds *model.Dataset) error {
	path, err := s.filePath(name, DataFile)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: dataset %q", model.ErrDuplicate, name)
	}

	data, err := Encode(ds)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o775); err != nil { //nolint:gosec // Shared annotation directory
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}
	if err := os.WriteFile(path, data, SharedFileMode); err != nil {
		return fmt.Errorf("failed to write dataset %q: %w", name, err)
	}
	return os.Chmod(path, SharedFileMode)
}

// List returns the names of all datasets in the data directory.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.dir, e.Name(), DataFile)); err == nil {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
