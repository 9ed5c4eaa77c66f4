package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/ini.v1"

	"github.com/steelcutops/pkgbridge/pkgbridge/serializable"
)

const (
	updatesOptionsSection = "UpdatesOptions"
	installOptionsSection = "InstallOptions"
)

// Store persists user decisions and per-package options in an INI file.
// Options are stored as sparse JSON documents keyed by "<manager>/<package id>".
type Store struct {
	mu   sync.RWMutex
	path string
	file *ini.File
}

// DefaultPath is ~/.pkgbridge/settings.ini.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".pkgbridge", "settings.ini"), nil
}

// Open loads the store at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	file, err := ini.LoadSources(ini.LoadOptions{Loose: true, IgnoreInlineComment: true}, path)
	if err != nil {
		return nil, fmt.Errorf("loading settings %s: %w", path, err)
	}
	return &Store{path: path, file: file}, nil
}

// NewMemoryStore returns a store that is never written to disk.
func NewMemoryStore() *Store {
	return &Store{file: ini.Empty(ini.LoadOptions{IgnoreInlineComment: true})}
}

func (s *Store) Save() error {
	if s.path == "" {
		return errors.New("settings store has no backing file")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return s.file.SaveTo(s.path)
}

// DependencyDecision returns the stored decision for a dependency, or "".
func (s *Store) DependencyDecision(group, name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	section, err := s.file.GetSection(group)
	if err != nil {
		return ""
	}
	return section.Key(name).String()
}

// SetDependencyDecision records a decision. An empty decision removes it.
func (s *Store) SetDependencyDecision(group, name, decision string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setValue(group, name, decision)
}

// UpdatesOptions returns a fresh copy of the stored policy for a package.
func (s *Store) UpdatesOptions(manager, packageID string) *serializable.UpdatesOptions {
	return serializable.NewUpdatesOptions(s.document(updatesOptionsSection, manager, packageID))
}

func (s *Store) SetUpdatesOptions(manager, packageID string, opts *serializable.UpdatesOptions) error {
	return s.setDocument(updatesOptionsSection, manager, packageID, opts.Copy().AsDocument())
}

// InstallOptions returns a fresh copy of the stored overrides for a package.
func (s *Store) InstallOptions(manager, packageID string) *serializable.InstallOptions {
	return serializable.NewInstallOptions(s.document(installOptionsSection, manager, packageID))
}

func (s *Store) SetInstallOptions(manager, packageID string, opts *serializable.InstallOptions) error {
	return s.setDocument(installOptionsSection, manager, packageID, opts.Copy().AsDocument())
}

// document returns the stored document, or an empty one when the value is missing or
// not valid JSON.
func (s *Store) document(section, manager, packageID string) serializable.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, err := s.file.GetSection(section)
	if err != nil {
		return serializable.Document{}
	}

	doc, err := serializable.Unmarshal([]byte(sec.Key(packageKey(manager, packageID)).String()))
	if err != nil {
		return serializable.Document{}
	}
	return doc
}

func (s *Store) setDocument(section, manager, packageID string, doc serializable.Document) error {
	value := ""
	if len(doc) > 0 {
		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		value = string(data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.setValue(section, packageKey(manager, packageID), value)
	return nil
}

func (s *Store) setValue(section, key, value string) {
	if value == "" {
		if sec, err := s.file.GetSection(section); err == nil {
			sec.DeleteKey(key)
		}
		return
	}
	s.file.Section(section).Key(key).SetValue(value)
}

func packageKey(manager, packageID string) string {
	return manager + "/" + packageID
}
