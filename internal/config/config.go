// Package config loads the daemon's ~/.imsgd/config.toml.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"imsgd/internal/paths"
)

// Config holds the daemon settings.
type Config struct {
	// ChatDBPath is the Messages database to read. It is only ever
	// opened read-only.
	ChatDBPath string `toml:"chat_db_path"`
	// AttachmentRoot is the directory attachment paths resolve under.
	AttachmentRoot string `toml:"attachment_root"`
	// ListenAddr is the HTTP listen address.
	ListenAddr string `toml:"listen_addr"`
	// PollIntervalMS is how often the poller re-queries chat.db.
	PollIntervalMS int `toml:"poll_interval_ms"`
	// ContactsCache is an optional TOML file mapping handles to
	// display names. Empty disables contact resolution.
	ContactsCache string `toml:"contacts_cache"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		ChatDBPath:     paths.DefaultChatDBPath(),
		AttachmentRoot: paths.DefaultAttachmentRoot(),
		ListenAddr:     "127.0.0.1:8180",
		PollIntervalMS: 2000,
	}
}

// Load reads config from path, filling unset fields with defaults.
// A missing file is not an error; it yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if cfg.ChatDBPath == "" {
		cfg.ChatDBPath = paths.DefaultChatDBPath()
	}
	if cfg.AttachmentRoot == "" {
		cfg.AttachmentRoot = paths.DefaultAttachmentRoot()
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:8180"
	}
	if cfg.PollIntervalMS <= 0 {
		cfg.PollIntervalMS = 2000
	}
	return cfg, nil
}

// Save writes config to path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}
