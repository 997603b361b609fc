package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Sources []SourceConfig    `yaml:"sources"`
	Cache   CacheConfig       `yaml:"cache"`
	Index   IndexConfig       `yaml:"index"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("sources: at least one content source is required")
	}
	seen := make(map[string]struct{}, len(c.Sources))
	for i := range c.Sources {
		if err := c.Sources[i].Validate(); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
		if _, dup := seen[c.Sources[i].Name]; dup {
			return fmt.Errorf("sources: duplicate name %q", c.Sources[i].Name)
		}
		seen[c.Sources[i].Name] = struct{}{}
	}
	if err := c.Index.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SourceConfig describes one content root served by the API.
type SourceConfig struct {
	// Name is the URL segment for the source (blog, docs, links).
	Name string `yaml:"name"`

	// Path is the content root directory.
	Path string `yaml:"path"`

	// CategoryFromDir derives a missing category from the top-level
	// subdirectory (docs, links schema). Blog-style sources rely on the
	// frontmatter category alone.
	CategoryFromDir bool `yaml:"category_from_dir"`

	// BasePath is the public path prefix used in search result links.
	// Defaults to "/<name>".
	BasePath string `yaml:"base_path"`
}

// Validate validates a source configuration.
func (c *SourceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Path, validation.Required),
	)
}

// CacheConfig controls the server-side snapshot cache. TTL zero keeps
// the baseline behavior: every request re-resolves from disk.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// IndexConfig controls the optional SQLite search index.
type IndexConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	if c.Enabled && c.Path == "" {
		return fmt.Errorf("index: enabled but path is empty")
	}
	return nil
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values:
// the three content types of the reference site under ./content, no
// snapshot cache, no search index.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Sources: []SourceConfig{
			{Name: "blog", Path: "./content/blog"},
			{Name: "docs", Path: "./content/docs", CategoryFromDir: true},
			{Name: "links", Path: "./content/links", CategoryFromDir: true},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
