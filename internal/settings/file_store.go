package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	keySettings = "verdant.settings"
	keyFlora    = "verdant.flora"
)

var errMissingPath = errors.New("settings: store path is required")

// FileStore is the local durable key-value cache: synchronous reads and
// writes, one key for the full settings object, a separate key for the
// chat-dock preferences.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore constructs a store backed by the given file path.
func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errMissingPath
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) read() (map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	values := map[string]json.RawMessage{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("settings: corrupt store: %w", err)
		}
	}
	return values, nil
}

func (s *FileStore) write(values map[string]json.RawMessage) error {
	encoded, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, encoded, 0o600)
}

// LoadSettings reads the cached record. The second return reports whether a
// cached record existed; absence yields the defaults.
func (s *FileStore) LoadSettings() (Settings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return Defaults(), false, err
	}
	raw, ok := values[keySettings]
	if !ok {
		return Defaults(), false, nil
	}
	var loaded Settings
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return Defaults(), false, fmt.Errorf("settings: corrupt record: %w", err)
	}
	return loaded, true, nil
}

// SaveSettings writes the record synchronously.
func (s *FileStore) SaveSettings(record Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return err
	}
	values[keySettings] = encoded
	return s.write(values)
}

// LoadFlora reads the chat-dock preferences; absence yields zero values.
func (s *FileStore) LoadFlora() (FloraPrefs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return FloraPrefs{}, err
	}
	raw, ok := values[keyFlora]
	if !ok {
		return FloraPrefs{}, nil
	}
	var prefs FloraPrefs
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return FloraPrefs{}, fmt.Errorf("settings: corrupt flora prefs: %w", err)
	}
	return prefs, nil
}

// SaveFlora writes the chat-dock preferences under their own key.
func (s *FileStore) SaveFlora(prefs FloraPrefs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	values[keyFlora] = encoded
	return s.write(values)
}
