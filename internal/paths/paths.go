// Package paths centralizes the daemon's filesystem layout: its own
// state under ~/.imsgd and the Messages app locations it reads from.
package paths

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.imsgd.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".imsgd")
}

// ConfigPath returns the config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// LogDir returns the log directory.
func LogDir() string {
	return filepath.Join(BaseDir(), "logs")
}

// LogPath returns the daemon log file path.
func LogPath() string {
	return filepath.Join(LogDir(), "imsgd.log")
}

// ContactsCachePath returns the default contacts cache location.
func ContactsCachePath() string {
	return filepath.Join(BaseDir(), "contacts.toml")
}

// DefaultChatDBPath returns the Messages app's database location.
func DefaultChatDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Messages", "chat.db")
}

// DefaultAttachmentRoot returns the Messages app's attachment
// directory.
func DefaultAttachmentRoot() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Messages", "Attachments")
}

// EnsureDirs creates the daemon state directories with private
// permissions.
func EnsureDirs() error {
	for _, d := range []string{BaseDir(), LogDir()} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
