// Package contacts resolves raw chat.db handles (phone numbers and
// email addresses) to display names. Resolution is optional: callers
// must tolerate a nil Resolver and fall back to formatted handles.
package contacts

import "github.com/BurntSushi/toml"

// Resolver supplies a display name for a raw handle. Implementations
// return "" when no name is known and must never fail the lookup.
type Resolver interface {
	Resolve(handle string) string
}

// CacheResolver resolves from a prebuilt name cache loaded once at
// startup. Safe to use before the cache is loaded.
type CacheResolver struct {
	names map[string]string
}

type cacheFile struct {
	Names map[string]string `toml:"names"`
}

// LoadCache reads a TOML cache file mapping handles to display names.
func LoadCache(path string) (*CacheResolver, error) {
	var file cacheFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, err
	}
	return &CacheResolver{names: file.Names}, nil
}

// Static builds a resolver from an in-memory map.
func Static(names map[string]string) *CacheResolver {
	return &CacheResolver{names: names}
}

// Resolve returns the cached display name for a handle, or "".
func (c *CacheResolver) Resolve(handle string) string {
	if c == nil || c.names == nil {
		return ""
	}
	return c.names[handle]
}
