// Package config loads settings from defaults, an optional YAML file and
// TUTORIALS_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/markdown"
	"github.com/gabrielmiguelok/autoimpute-tutorials/internal/nav"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/core"
	"github.com/gabrielmiguelok/autoimpute-tutorials/pkg/logging"
)

// EnvPrefix prefixes every environment override, e.g. TUTORIALS_SERVER_ADDRESS.
const EnvPrefix = "TUTORIALS"

// Configuration errors.
var (
	ErrNoAddress   = errors.New("server.address is empty")
	ErrBadBasePath = errors.New("server.base_path must start and end with /")
	ErrBadShutdown = errors.New("server.shutdown_timeout must be positive")
)

// Config holds application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Live    LiveConfig    `mapstructure:"live"`
	Content ContentConfig `mapstructure:"content"`
	Nav     NavConfig     `mapstructure:"nav"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	BasePath        string        `mapstructure:"base_path"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// LiveConfig holds websocket session settings.
type LiveConfig struct {
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	MaxSessions    int           `mapstructure:"max_sessions"`
	// Relaxed uses long development timeouts.
	Relaxed bool `mapstructure:"relaxed"`
}

// ContentConfig locates the pages.
type ContentConfig struct {
	// Dir replaces the embedded pages with an on-disk directory.
	Dir string `mapstructure:"dir"`
	// Watch reloads Dir on change.
	Watch bool `mapstructure:"watch"`
	// CodeStyle is the chroma style for code blocks; "none" disables
	// highlighting.
	CodeStyle string `mapstructure:"code_style"`
	// MarkdownExtensions names the goldmark extensions to enable. Empty
	// means GFM.
	MarkdownExtensions []string `mapstructure:"markdown_extensions"`
	HardWraps          bool     `mapstructure:"hard_wraps"`
}

// NavConfig is the menu layout.
type NavConfig struct {
	Brand   string      `mapstructure:"brand"`
	Default string      `mapstructure:"default"`
	Items   []nav.Entry `mapstructure:"items"`
	Groups  []nav.Group `mapstructure:"groups"`
}

func setDefaults(v *viper.Viper) {
	catalog := nav.DefaultCatalog()
	live := core.DefaultConfig()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.base_path", catalog.BasePath)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("live.session_ttl", live.Timeouts.SessionTTL)
	v.SetDefault("live.allowed_origins", []string{})
	v.SetDefault("live.max_message_size", live.MaxMessageSize)
	v.SetDefault("live.max_sessions", live.MaxSessions)
	v.SetDefault("live.relaxed", false)

	v.SetDefault("content.dir", "")
	v.SetDefault("content.watch", false)
	v.SetDefault("content.code_style", markdown.DefaultStyle)
	v.SetDefault("content.markdown_extensions", []string{})
	v.SetDefault("content.hard_wraps", false)

	v.SetDefault("nav.brand", catalog.Brand)
	v.SetDefault("nav.default", string(catalog.Default))
	v.SetDefault("nav.items", catalog.Items)
	v.SetDefault("nav.groups", catalog.Groups)
}

// Load reads configuration. path names a YAML file; when empty,
// TUTORIALS_CONFIG is used, then tutorials.yaml in the working directory or
// the user config directory if one exists.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tutorials")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "autoimpute-tutorials"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the settings that have no sensible fallback.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Address) == "" {
		return ErrNoAddress
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") || !strings.HasSuffix(c.Server.BasePath, "/") {
		return fmt.Errorf("%w: %q", ErrBadBasePath, c.Server.BasePath)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return ErrBadShutdown
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if err := markdown.CheckExtensions(c.Content.MarkdownExtensions); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if err := c.LiveConfig().Validate(); err != nil {
		return fmt.Errorf("live: %w", err)
	}
	if _, err := c.Catalog(); err != nil {
		return err
	}
	return nil
}

// Catalog builds the navigation layout.
func (c Config) Catalog() (nav.Catalog, error) {
	catalog := nav.Catalog{
		Brand:    c.Nav.Brand,
		BasePath: c.Server.BasePath,
		Default:  nav.Tag(c.Nav.Default),
		Items:    c.Nav.Items,
		Groups:   c.Nav.Groups,
	}
	if err := catalog.Validate(); err != nil {
		return nav.Catalog{}, fmt.Errorf("nav: %w", err)
	}
	return catalog, nil
}

// LiveConfig returns the router settings.
func (c Config) LiveConfig() core.Config {
	live := core.DefaultConfig()
	if c.Live.Relaxed {
		live.Timeouts = core.RelaxedTimeoutConfig()
	}
	if c.Live.SessionTTL != 0 {
		live.Timeouts.SessionTTL = c.Live.SessionTTL
	}
	live.AllowedOrigins = c.Live.AllowedOrigins
	live.MaxMessageSize = c.Live.MaxMessageSize
	live.MaxSessions = c.Live.MaxSessions
	return live
}

// Logger builds the logger described by Log.
func (c Config) Logger(w io.Writer) (*logging.SlogLogger, error) {
	return logging.New(c.Log.Level, c.Log.JSON, w)
}

// CodeRenderer returns the code block renderer for CodeStyle.
func (c Config) CodeRenderer() markdown.CodeRenderer {
	if c.Content.CodeStyle == "" || c.Content.CodeStyle == "none" {
		return markdown.PlainRenderer{}
	}
	return markdown.NewChromaRenderer(c.Content.CodeStyle)
}

// Markdown builds the page renderer described by Content.
func (c Config) Markdown() *markdown.Renderer {
	opts := []markdown.Option{markdown.WithCodeRenderer(c.CodeRenderer())}
	if len(c.Content.MarkdownExtensions) > 0 {
		opts = append(opts, markdown.WithExtensions(c.Content.MarkdownExtensions...))
	}
	if c.Content.HardWraps {
		opts = append(opts, markdown.WithHardWraps())
	}
	return markdown.New(opts...)
}
