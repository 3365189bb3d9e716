package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"ad-monitor/domain"
)

// Load reads and decodes the document at path. It does not validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a JSON document, filling omitted fields with defaults.
// The filter tree is decoded separately because its keys are URLs, which
// viper would lower-case and split on dots.
func Parse(data []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	setDefaults(v)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	var doc struct {
		URLFilters domain.FilterConfig `json:"url_filters"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling url_filters: %w", err)
	}
	cfg.URLFilters = doc.URLFilters
	if cfg.URLFilters == nil {
		cfg.URLFilters = domain.FilterConfig{}
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server_ip", d.ServerIP)
	v.SetDefault("server_port", d.ServerPort)
	v.SetDefault("currency", d.Currency)
	v.SetDefault("refresh_interval_minutes", d.RefreshIntervalMinutes)
	v.SetDefault("log_filename", d.LogFilename)
	v.SetDefault("database_name", d.DatabaseName)
	v.SetDefault("retention_days", d.RetentionDays)
	v.SetDefault("recent_window_days", d.RecentWindowDays)
}

// Save writes the document as indented JSON, replacing path atomically.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp config: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing config %s: %w", path, err)
	}
	return nil
}
