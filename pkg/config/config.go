// Package config loads booth configuration.
//
// A configuration file is TOML (.toml) or YAML (.yaml, .yml). Every field is
// optional: [Config.SetDefaults] fills whatever the file leaves out, and
// [Config.Validate] rejects values the booth cannot run with. Environment
// variables prefixed FRAMEFUSION_ override the deployment-specific fields
// (see [Config.ApplyEnv]).
//
//	[theme]
//	background = "#1f2937"
//	primary = "#3b82f6"
//
//	[session]
//	auto_reset_seconds = 60
//
//	[export]
//	format = "jpeg"
//	quality = 98
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/uitmedia/framefusion/pkg/display"
	"github.com/uitmedia/framefusion/pkg/editor"
	"github.com/uitmedia/framefusion/pkg/errors"
	"github.com/uitmedia/framefusion/pkg/geom"
	"github.com/uitmedia/framefusion/pkg/layout"
	"github.com/uitmedia/framefusion/pkg/render"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	DefaultBackground = "#1f2937"
	DefaultPrimary    = "#3b82f6"

	DefaultAddr = ":8080"
	DefaultFPS  = render.DefaultFPS

	DefaultCacheTTL = 24 * time.Hour
)

// Config is the booth configuration.
type Config struct {
	Theme   ThemeConfig   `toml:"theme" yaml:"theme"`
	Editor  EditorConfig  `toml:"editor" yaml:"editor"`
	Layout  LayoutConfig  `toml:"layout" yaml:"layout"`
	Session SessionConfig `toml:"session" yaml:"session"`
	Export  ExportConfig  `toml:"export" yaml:"export"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Sync    SyncConfig    `toml:"sync" yaml:"sync"`
	Images  ImagesConfig  `toml:"images" yaml:"images"`
}

// ThemeConfig holds the operator canvas colors as hex strings.
type ThemeConfig struct {
	Background string `toml:"background" yaml:"background"`
	Primary    string `toml:"primary" yaml:"primary"`
}

// EditorConfig tunes the photo editor.
type EditorConfig struct {
	WheelSensitivity float64 `toml:"wheel_sensitivity" yaml:"wheel_sensitivity"`
	MinScale         float64 `toml:"min_scale" yaml:"min_scale"`
	RotateOffset     float64 `toml:"rotate_offset" yaml:"rotate_offset"`
	ButtonSize       float64 `toml:"button_size" yaml:"button_size"`
}

// LayoutConfig tunes the placeholder designer.
type LayoutConfig struct {
	HandleSize float64 `toml:"handle_size" yaml:"handle_size"`
	// File is a saved layout loaded into the designer at startup.
	File string `toml:"file" yaml:"file"`
}

// SessionConfig holds session behavior.
type SessionConfig struct {
	// AutoResetSeconds starts a new composition after this long without
	// interaction on the edit step. Zero disables it.
	AutoResetSeconds int `toml:"auto_reset_seconds" yaml:"auto_reset_seconds"`
	// Frame is loaded as the frame overlay at startup.
	Frame string `toml:"frame" yaml:"frame"`
}

// ExportConfig controls the final composite.
type ExportConfig struct {
	Format  string `toml:"format" yaml:"format"`
	Quality int    `toml:"quality" yaml:"quality"`
	// PreviewWidth is the width crop pans were made at. Zero uses the
	// session canvas.
	PreviewWidth float64 `toml:"preview_width" yaml:"preview_width"`
	// Resampling is the kernel photos and the frame are scaled with:
	// nearest, approx-bilinear, bilinear or catmull-rom.
	Resampling string `toml:"resampling" yaml:"resampling"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr           string   `toml:"addr" yaml:"addr"`
	FPS            int      `toml:"fps" yaml:"fps"`
	AllowedOrigins []string `toml:"allowed_origins" yaml:"allowed_origins"`
}

// SyncConfig controls guest screen fan-out beyond the built-in websocket.
type SyncConfig struct {
	RedisURL string `toml:"redis_url" yaml:"redis_url"`
	Channel  string `toml:"channel" yaml:"channel"`
}

// ImagesConfig controls remote image fetching.
type ImagesConfig struct {
	// CacheDir holds fetched http(s) sources. Empty uses the user cache
	// directory.
	CacheDir string `toml:"cache_dir" yaml:"cache_dir"`
	// CacheTTL is a Go duration string, e.g. "12h".
	CacheTTL string `toml:"cache_ttl" yaml:"cache_ttl"`
	// RedisCache stores fetched sources in the sync Redis instead of on disk.
	RedisCache bool  `toml:"redis_cache" yaml:"redis_cache"`
	MaxBytes   int64 `toml:"max_bytes" yaml:"max_bytes"`
}

// Default returns a complete configuration.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// Load reads a configuration file and applies defaults. It does not
// validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read config %s", path)
	}
	return Decode(data, filepath.Ext(path))
}

// Decode parses a configuration in the format named by ext (".toml",
// ".yaml", ".yml", with or without the dot) and applies defaults.
func Decode(data []byte, ext string) (*Config, error) {
	var c Config
	var err error
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "toml":
		_, err = toml.Decode(string(data), &c)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &c)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported config format %q", ext)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	c.SetDefaults()
	return &c, nil
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.Theme.Background == "" {
		c.Theme.Background = DefaultBackground
	}
	if c.Theme.Primary == "" {
		c.Theme.Primary = DefaultPrimary
	}

	chrome := geom.DefaultChrome()
	if c.Editor.WheelSensitivity == 0 {
		c.Editor.WheelSensitivity = editor.DefaultWheelSensitivity
	}
	if c.Editor.MinScale == 0 {
		c.Editor.MinScale = geom.MinCropScale
	}
	if c.Editor.RotateOffset == 0 {
		c.Editor.RotateOffset = chrome.RotateOffset
	}
	if c.Editor.ButtonSize == 0 {
		c.Editor.ButtonSize = chrome.ButtonSize
	}

	if c.Layout.HandleSize == 0 {
		c.Layout.HandleSize = layout.DefaultHandleSize
	}

	if c.Export.Format == "" {
		c.Export.Format = string(render.FormatJPEG)
	}
	if c.Export.Quality == 0 {
		c.Export.Quality = render.DefaultJPEGQuality
	}
	if c.Export.Resampling == "" {
		c.Export.Resampling = render.DefaultResampling
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.FPS == 0 {
		c.Server.FPS = DefaultFPS
	}

	if c.Sync.Channel == "" {
		c.Sync.Channel = display.DefaultChannel
	}

	if c.Images.CacheTTL == "" {
		c.Images.CacheTTL = DefaultCacheTTL.String()
	}
}

// Validate checks ranges and formats.
func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"theme.background": c.Theme.Background,
		"theme.primary":    c.Theme.Primary,
	} {
		if err := errors.ValidateHexColor(v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", name)
		}
	}
	if c.Editor.WheelSensitivity < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "editor.wheel_sensitivity must not be negative")
	}
	if c.Editor.MinScale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "editor.min_scale must not be negative")
	}
	if c.Layout.HandleSize < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "layout.handle_size must not be negative")
	}
	if c.Session.AutoResetSeconds < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "session.auto_reset_seconds must not be negative")
	}
	switch strings.ToLower(c.Export.Format) {
	case "jpeg", "jpg", "png":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "export.format must be jpeg or png, got %q", c.Export.Format)
	}
	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		return errors.New(errors.ErrCodeInvalidInput, "export.quality must be 1-100, got %d", c.Export.Quality)
	}
	if _, ok := render.ParseResampling(c.Export.Resampling); !ok {
		return errors.New(errors.ErrCodeInvalidInput, "export.resampling must be nearest, approx-bilinear, bilinear or catmull-rom, got %q", c.Export.Resampling)
	}
	if c.Server.FPS < 1 || c.Server.FPS > 120 {
		return errors.New(errors.ErrCodeInvalidInput, "server.fps must be 1-120, got %d", c.Server.FPS)
	}
	if u := c.Sync.RedisURL; u != "" && !strings.HasPrefix(u, "redis://") && !strings.HasPrefix(u, "rediss://") {
		return errors.New(errors.ErrCodeInvalidInput, "sync.redis_url must use redis or rediss scheme")
	}
	if c.Images.RedisCache && c.Sync.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidInput, "images.redis_cache needs sync.redis_url")
	}
	if _, err := time.ParseDuration(c.Images.CacheTTL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "images.cache_ttl")
	}
	return nil
}

// ApplyEnv overrides fields from FRAMEFUSION_ADDR, FRAMEFUSION_REDIS_URL,
// FRAMEFUSION_CACHE_DIR and FRAMEFUSION_AUTO_RESET (seconds). Malformed
// numbers are reported.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("FRAMEFUSION_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("FRAMEFUSION_REDIS_URL"); v != "" {
		c.Sync.RedisURL = v
	}
	if v := os.Getenv("FRAMEFUSION_CACHE_DIR"); v != "" {
		c.Images.CacheDir = v
	}
	if v := os.Getenv("FRAMEFUSION_AUTO_RESET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "FRAMEFUSION_AUTO_RESET")
		}
		c.Session.AutoResetSeconds = n
	}
	return nil
}

// =============================================================================
// Component options
// =============================================================================

// Style returns the render style for the theme.
func (c *Config) Style() render.Style {
	return render.StyleFromTheme(c.Theme.Background, c.Theme.Primary)
}

// Chrome returns the selection affordance sizes.
func (c *Config) Chrome() geom.Chrome {
	ch := geom.DefaultChrome()
	ch.RotateOffset = c.Editor.RotateOffset
	ch.ButtonSize = c.Editor.ButtonSize
	return ch
}

// RenderOptions returns the renderer options: chrome sizes and resampling.
func (c *Config) RenderOptions() []render.Option {
	opts := []render.Option{render.WithChrome(c.Chrome())}
	if interp, ok := render.ParseResampling(c.Export.Resampling); ok {
		opts = append(opts, render.WithInterpolator(interp))
	}
	return opts
}

// EditorOptions returns the photo editor options.
func (c *Config) EditorOptions() []editor.Option {
	return []editor.Option{
		editor.WithChrome(c.Chrome()),
		editor.WithWheelSensitivity(c.Editor.WheelSensitivity),
		editor.WithMinScale(c.Editor.MinScale),
	}
}

// LayoutOptions returns the designer options.
func (c *Config) LayoutOptions() []layout.Option {
	return []layout.Option{layout.WithHandleSize(c.Layout.HandleSize)}
}

// AutoReset returns the inactivity timeout.
func (c *Config) AutoReset() time.Duration {
	return time.Duration(c.Session.AutoResetSeconds) * time.Second
}

// ExportOptions returns the export settings.
func (c *Config) ExportOptions() render.ExportOptions {
	return render.ExportOptions{Format: render.ParseFormat(c.Export.Format), Quality: c.Export.Quality, PreviewWidth: c.Export.PreviewWidth}
}

// CacheTTL returns the parsed image cache TTL, or the default if it does
// not parse.
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Images.CacheTTL)
	if err != nil {
		return DefaultCacheTTL
	}
	return d
}

// AllowOrigin reports whether a websocket origin may connect. An empty list
// allows every origin.
func (c *Config) AllowOrigin(origin string) bool {
	if len(c.Server.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range c.Server.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}
