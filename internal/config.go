package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/curator/internal/content"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Database DatabaseConfig    `yaml:"database"`
	Auth     AuthConfig        `yaml:"auth"`
	Search   SearchConfig      `yaml:"search"`
	Media    MediaConfig       `yaml:"media"`
	Events   EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	if err := c.Media.Validate(); err != nil {
		return err
	}
	return c.Events.Validate()
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

// DatabaseConfig selects the content store backend.
type DatabaseConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = content.DriverSQLite
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(content.DriverSQLite, content.DriverPostgres)),
		validation.Field(&c.SQLitePath, validation.When(c.Driver == content.DriverSQLite, validation.Required)),
		validation.Field(&c.PostgresDSN, validation.When(c.Driver == content.DriverPostgres, validation.Required)),
	)
}

// DSN returns the connection string for the selected driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == content.DriverPostgres {
		return c.PostgresDSN
	}
	return c.SQLitePath
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

// SearchConfig tunes the console's searchable selects.
type SearchConfig struct {
	// Debounce is the quiet period after the last keystroke.
	Debounce time.Duration `yaml:"debounce"`
	// Timeout bounds each page request.
	Timeout  time.Duration `yaml:"timeout"`
	PageSize int           `yaml:"page_size"`
	// SessionTTL closes search sessions idle for longer.
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0)), validation.Max(10*time.Second)),
		validation.Field(&c.Timeout, validation.Required),
		validation.Field(&c.PageSize, validation.Required, validation.Min(1), validation.Max(200)),
		validation.Field(&c.SessionTTL, validation.Required, validation.Min(time.Second)),
	)
}

// MediaConfig holds the upload directory.
type MediaConfig struct {
	Path        string `yaml:"path"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// Validate validates the media configuration.
func (c *MediaConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.MaxUploadMB, validation.Min(0)),
	)
}

// MaxUploadBytes returns the upload limit; 0 means unlimited.
func (c *MediaConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// EventsConfig tunes the SSE broker.
type EventsConfig struct {
	// Throttle is the minimum interval between collections.updated events
	// for the same collection.
	Throttle time.Duration `yaml:"throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Throttle, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Database: DatabaseConfig{
			Driver:     content.DriverSQLite,
			SQLitePath: "./curator.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Search: SearchConfig{
			Debounce:   500 * time.Millisecond,
			Timeout:    10 * time.Second,
			PageSize:   20,
			SessionTTL: 10 * time.Minute,
		},
		Media: MediaConfig{
			Path:        "./media",
			MaxUploadMB: 50,
		},
		Events: EventsConfig{
			Throttle: 2 * time.Second,
		},
	}
}
