// Package config defines the parser configuration surface. These types
// are pure data structures; the CLI loads them from YAML, and library
// callers fill them directly.
package config

// Config is the root configuration structure for the parser.
type Config struct {
	// AllowSchemes is the URL scheme set recognized for external and
	// plain links. Empty means the built-in default set.
	AllowSchemes []string `yaml:"allow_schemes"`

	// StripCommentsOnFirstLine treats an alone comment on the very
	// first line like any other alone comment. The default false
	// preserves the historical first-line exception.
	StripCommentsOnFirstLine bool `yaml:"strip_comments_on_first_line"`

	// Memoization toggles the packrat cache. The produced tree is
	// identical either way.
	Memoization *bool `yaml:"memoization"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{}
}

// Memoize resolves the memoization setting, defaulting to on.
func (c *Config) Memoize() bool {
	if c == nil || c.Memoization == nil {
		return true
	}
	return *c.Memoization
}
