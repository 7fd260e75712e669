package internal

import (
	"log/slog"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/raido/internal/hooks"
	"github.com/starford/raido/internal/workspace"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Workspace WorkspaceConfig   `yaml:"workspace"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Hooks     HooksConfig       `yaml:"hooks"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Workspace.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Hooks.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// WorkspaceConfig holds the root directory under which sessions and
// the alias index live.
type WorkspaceConfig struct {
	Root string `yaml:"root"`
}

// Validate validates the workspace configuration.
func (c *WorkspaceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// HooksConfig holds hook tuning knobs.
type HooksConfig struct {
	CompactThreshold int `yaml:"compact_threshold"`
}

// Validate validates the hooks configuration.
func (c *HooksConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CompactThreshold, validation.Required, validation.Min(1)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
// The workspace root falls back to the current directory when the home
// directory cannot be resolved.
func NewDefaultConfig() *Config {
	root, err := workspace.DefaultRoot()
	if err != nil {
		root = "."
	}
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Workspace: WorkspaceConfig{
			Root: root,
		},
		SQLite: SQLiteConfig{
			Path: filepath.Join(root, "raido.db"),
		},
		Hooks: HooksConfig{
			CompactThreshold: hooks.DefaultCompactThreshold,
		},
	}
}
