package persistence

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrNotObject is returned when a dashboard file does not hold an object.
var ErrNotObject = errors.New("dashboard file does not contain an object")

// Format is a file encoding.
type Format uint8

const (
	FormatJSON Format = iota
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// FormatFor returns the format selected by the extension of path.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Marshal encodes v in format f. JSON output is indented.
func (f Format) Marshal(v any) ([]byte, error) {
	if f == FormatYAML {
		return yaml.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}

// Unmarshal decodes data in format f into v.
func (f Format) Unmarshal(data []byte, v any) error {
	if f == FormatYAML {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// DashboardStore reads and writes one dashboard document.
type DashboardStore struct {
	mu     sync.Mutex
	path   string
	format Format
}

// NewDashboardStore creates a store for path. The format follows the
// extension.
func NewDashboardStore(path string) *DashboardStore {
	return &DashboardStore{path: path, format: FormatFor(path)}
}

// Path returns the file path of the store.
func (s *DashboardStore) Path() string {
	return s.path
}

// Format returns the file format of the store.
func (s *DashboardStore) Format() Format {
	return s.format
}

// Load reads the dashboard document.
// Returns nil, nil if the file doesn't exist.
func (s *DashboardStore) Load() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc any
	if err := s.format.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}

// Save writes the dashboard document to disk.
func (s *DashboardStore) Save(doc map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.format.Marshal(doc)
	if err != nil {
		return err
	}
	return writeFile(s.path, data)
}

// SaveAs writes doc to path, encoded in the format path selects.
func SaveAs(path string, doc map[string]any) error {
	return NewDashboardStore(path).Save(doc)
}

// writeFile writes data to path through a temporary file in the same
// directory, creating the directory when needed.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
