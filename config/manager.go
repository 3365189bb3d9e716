package config

import (
	"fmt"
	"log/slog"
	"sync"
)

// Manager owns the live configuration document. Readers take snapshots;
// writers validate, persist and then swap under the write lock.
type Manager struct {
	path    string
	config  *Config
	mu      sync.RWMutex
	writeMu sync.Mutex
	logger  *slog.Logger
}

func NewManager(path string, config *Config, logger *slog.Logger) *Manager {
	return &Manager{
		path:   path,
		config: config.Clone(),
		logger: logger,
	}
}

// LoadManager reads and validates the document at path.
func LoadManager(path string, logger *slog.Logger) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return NewManager(path, cfg, logger), nil
}

// Path returns the file the document is persisted to.
func (m *Manager) Path() string {
	return m.path
}

// Get returns a deep copy of the current document.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.config.Clone()
}

// Update validates newConfig, saves it to disk and makes it current.
// Nothing changes when validation or saving fails.
func (m *Manager) Update(newConfig *Config) error {
	if err := Validate(newConfig); err != nil {
		return err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := Save(m.path, newConfig); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	m.swap(newConfig.Clone(), "api")
	return nil
}

// Reload re-reads the document from disk. An invalid file is rejected and the
// current document is kept.
func (m *Manager) Reload() (bool, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	cfg, err := Load(m.path)
	if err != nil {
		return false, err
	}
	if err := Validate(cfg); err != nil {
		return false, fmt.Errorf("config %s: %w", m.path, err)
	}

	m.mu.RLock()
	unchanged := m.config.Equal(cfg)
	m.mu.RUnlock()
	if unchanged {
		return false, nil
	}

	m.swap(cfg, "file")
	return true, nil
}

func (m *Manager) swap(cfg *Config, source string) {
	m.mu.Lock()
	old := m.config
	m.config = cfg
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("configuration updated",
			"source", source,
			"old_url_count", len(old.URLFilters),
			"new_url_count", len(cfg.URLFilters),
			"old_refresh_interval_minutes", old.RefreshIntervalMinutes,
			"new_refresh_interval_minutes", cfg.RefreshIntervalMinutes)
	}
}
