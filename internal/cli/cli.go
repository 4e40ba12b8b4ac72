// Package cli implements the framefusion command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/uitmedia/framefusion/pkg/buildinfo"
	"github.com/uitmedia/framefusion/pkg/cache"
	"github.com/uitmedia/framefusion/pkg/config"
	"github.com/uitmedia/framefusion/pkg/imagesource"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "framefusion"

	// imageCachePrefix namespaces fetched sources in a shared cache.
	imageCachePrefix = "framefusion:img:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "FrameFusion composes photo-booth prints",
		Long: `FrameFusion is a photo-booth composition engine. An operator uploads a
frame overlay, designs the photo slots on it, fills them with the guest's
photos, adjusts each photo and exports the finished print.

Run 'framefusion serve' for the operator API and guest screen, or
'framefusion compose' to produce a print from files without a UI.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is normal; a broken one is not.
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				c.Logger.Warn("ignoring .env", "err", err)
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.String() + "\n")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.composeCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.guestCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Setup
// =============================================================================

// loadConfig reads path, or the defaults when path is empty, then applies
// the environment and validates.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newRedis connects to url and checks the connection.
func newRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// newImageCache picks the cache for fetched sources: the shared Redis when
// asked for and available, else the configured or default directory.
func newImageCache(cfg *config.Config, rdb redis.UniversalClient, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if cfg.Images.RedisCache && rdb != nil {
		return cache.NewScoped(cache.NewRedisCacheFromClient(rdb), imageCachePrefix), nil
	}
	dir := cfg.Images.CacheDir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, fmt.Errorf("open image cache %s: %w", dir, err)
	}
	return fc, nil
}

// newImages creates the image loader for cfg.
func (c *CLI) newImages(cfg *config.Config, store cache.Cache) *imagesource.Loader {
	return imagesource.New(
		imagesource.WithCache(store),
		imagesource.WithCacheTTL(cfg.CacheTTL()),
		imagesource.WithMaxBytes(cfg.Images.MaxBytes),
		imagesource.WithLogger(c.Logger),
	)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/framefusion/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
