package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/uitmedia/framefusion/pkg/errors"
	"github.com/uitmedia/framefusion/pkg/render"
)

func TestDefault(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.Export.Quality != render.DefaultJPEGQuality {
		t.Errorf("quality = %d", c.Export.Quality)
	}
	if got := c.ExportOptions().Format; got != render.FormatJPEG {
		t.Errorf("format = %q", got)
	}
	if c.AutoReset() != 0 {
		t.Errorf("auto reset enabled by default: %v", c.AutoReset())
	}
	if c.CacheTTL() != DefaultCacheTTL {
		t.Errorf("cache ttl = %v", c.CacheTTL())
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		data string
	}{
		{"toml", ".toml", `
[theme]
primary = "#ff0000"

[session]
auto_reset_seconds = 45

[export]
format = "png"

[server]
allowed_origins = ["http://booth.local"]
`},
		{"yaml", "yml", `
theme:
  primary: "#ff0000"
session:
  auto_reset_seconds: 45
export:
  format: png
server:
  allowed_origins: ["http://booth.local"]
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Decode([]byte(tt.data), tt.ext)
			if err != nil {
				t.Fatal(err)
			}
			if err := c.Validate(); err != nil {
				t.Fatal(err)
			}
			if c.Theme.Primary != "#ff0000" || c.Theme.Background != DefaultBackground {
				t.Errorf("theme = %+v", c.Theme)
			}
			if c.AutoReset() != 45*time.Second {
				t.Errorf("auto reset = %v", c.AutoReset())
			}
			if c.ExportOptions().Format != render.FormatPNG {
				t.Errorf("format = %q", c.Export.Format)
			}
			if c.Server.Addr != DefaultAddr || c.Server.FPS != DefaultFPS {
				t.Errorf("server defaults not applied: %+v", c.Server)
			}
			if !c.AllowOrigin("http://booth.local") || c.AllowOrigin("http://evil.example") {
				t.Error("origin allow list not applied")
			}
		})
	}

	if _, err := Decode([]byte("x"), ".ini"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("ini err = %v", err)
	}
	if _, err := Decode([]byte("[theme"), ".toml"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("broken toml err = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad color", func(c *Config) { c.Theme.Primary = "blue" }},
		{"quality", func(c *Config) { c.Export.Quality = 101 }},
		{"format", func(c *Config) { c.Export.Format = "gif" }},
		{"fps", func(c *Config) { c.Server.FPS = -1 }},
		{"auto reset", func(c *Config) { c.Session.AutoResetSeconds = -5 }},
		{"redis scheme", func(c *Config) { c.Sync.RedisURL = "http://localhost:6379" }},
		{"redis cache without redis", func(c *Config) { c.Images.RedisCache = true }},
		{"ttl", func(c *Config) { c.Images.CacheTTL = "soon" }},
		{"resampling", func(c *Config) { c.Export.Resampling = "lanczos" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			if err := c.Validate(); err == nil {
				t.Error("Validate() accepted invalid config")
			}
		})
	}
}

func TestRenderOptions(t *testing.T) {
	c := Default()
	if c.Export.Resampling != render.DefaultResampling {
		t.Errorf("default resampling = %q", c.Export.Resampling)
	}
	if n := len(c.RenderOptions()); n != 2 {
		t.Errorf("RenderOptions() = %d options, want chrome and resampling", n)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "booth.toml")
	if err := os.WriteFile(path, []byte("[layout]\nhandle_size = 14\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Layout.HandleSize != 14 {
		t.Errorf("handle size = %v", c.Layout.HandleSize)
	}
	if len(c.LayoutOptions()) != 1 || len(c.EditorOptions()) != 3 {
		t.Error("component options missing")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("FRAMEFUSION_ADDR", ":9999")
	t.Setenv("FRAMEFUSION_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("FRAMEFUSION_AUTO_RESET", "30")

	c := Default()
	if err := c.ApplyEnv(); err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":9999" || c.Sync.RedisURL != "redis://localhost:6379/0" || c.Session.AutoResetSeconds != 30 {
		t.Errorf("env not applied: %+v %+v %+v", c.Server, c.Sync, c.Session)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() after env = %v", err)
	}

	t.Setenv("FRAMEFUSION_AUTO_RESET", "soon")
	if err := Default().ApplyEnv(); err == nil {
		t.Error("malformed FRAMEFUSION_AUTO_RESET accepted")
	}
}
