package contacts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFormatHandle(t *testing.T) {
	tests := []struct {
		handle string
		want   string
	}{
		{"+15551234567", "+1 (555) 123-4567"},
		{"5551234567", "(555) 123-4567"},
		{"15551234567", "+1 (555) 123-4567"},
		{"(555) 123-4567", "(555) 123-4567"},
		{"alice@example.com", "alice@example.com"},
		{"+442071234567", "+442071234567"},
		{"911", "911"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.handle, func(t *testing.T) {
			if got := FormatHandle(tt.handle); got != tt.want {
				t.Errorf("FormatHandle(%q) = %q, want %q", tt.handle, got, tt.want)
			}
		})
	}
}

func TestLoadCacheAndResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.toml")
	content := "[names]\n\"+15551234567\" = \"Alice\"\n\"bob@example.com\" = \"Bob\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	r, err := LoadCache(path)
	if err != nil {
		t.Fatalf("LoadCache() error = %v", err)
	}
	if got := r.Resolve("+15551234567"); got != "Alice" {
		t.Errorf("Resolve = %q, want Alice", got)
	}
	if got := r.Resolve("unknown"); got != "" {
		t.Errorf("Resolve(unknown) = %q, want empty", got)
	}
}

func TestLoadCacheMissing(t *testing.T) {
	if _, err := LoadCache("/nonexistent/contacts.toml"); err == nil {
		t.Error("LoadCache() expected error for missing file")
	}
}

func TestNilResolverIsSafe(t *testing.T) {
	var r *CacheResolver
	if got := r.Resolve("+15551234567"); got != "" {
		t.Errorf("nil Resolve = %q, want empty", got)
	}
}
