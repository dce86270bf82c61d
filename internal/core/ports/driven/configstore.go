package driven

// ConfigStore reads and writes application configuration as flat
// dot-notation keys ("llm.provider", "chunk.target_size"). The file
// adapter backs it with a TOML file; the memory adapter backs tests.
// Typed getters return the zero value for a missing key or a type
// mismatch, so callers layer their own defaults on top.
type ConfigStore interface {
	// Get returns the raw value under key and whether the key exists.
	Get(key string) (any, bool)

	// GetString returns the string under key, or "".
	GetString(key string) string

	// GetInt returns the integer under key, or 0.
	GetInt(key string) int

	// GetBool returns the boolean under key, or false.
	GetBool(key string) bool

	// GetStringSlice returns the string list under key, or nil.
	GetStringSlice(key string) []string

	// Set stores a value under key. Implementations persist
	// immediately so partial wizard runs are not lost.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Load re-reads configuration from storage, replacing in-memory
	// state.
	Load() error

	// Path names the backing file, for display in settings output.
	Path() string
}
