package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/uitmedia/framefusion/internal/server"
	"github.com/uitmedia/framefusion/pkg/booth"
	"github.com/uitmedia/framefusion/pkg/config"
	"github.com/uitmedia/framefusion/pkg/display"
	"github.com/uitmedia/framefusion/pkg/layout"
	"github.com/uitmedia/framefusion/pkg/observability"
	"github.com/uitmedia/framefusion/pkg/render"
)

// serveCommand creates the serve command, which runs the operator API and
// the guest screen feed.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the booth: operator API and guest screen",
		Long: `Run the booth: operator API and guest screen.

The operator UI talks to /api; guest monitors connect to /ws/guest. With
sync.redis_url set, guest snapshots are also published on a Redis channel so
other machines can follow with 'framefusion guest --redis'.

Settings come from the config file, then FRAMEFUSION_* environment
variables (a .env file in the working directory is read first), then flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), cfg, noCache)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (.toml or .yaml)")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config, "+config.DefaultAddr+")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the image cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg *config.Config, noCache bool) error {
	var rdb redis.UniversalClient
	if cfg.Sync.RedisURL != "" {
		client, err := newRedis(ctx, cfg.Sync.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		rdb = client
	}

	store, err := newImageCache(cfg, rdb, noCache)
	if err != nil {
		return err
	}
	defer store.Close()
	images := c.newImages(cfg, store)

	hub := display.NewHub(c.Logger, cfg.AllowOrigin)
	outputs := []display.Broadcaster{hub}
	if rdb != nil {
		outputs = append(outputs, display.NewRedisPublisher(rdb, cfg.Sync.Channel))
		c.Logger.Info("publishing guest screen", "channel", cfg.Sync.Channel)
	}
	screen := display.NewScreen(display.WithLogger(c.Logger), display.WithOutputs(outputs...))

	sess := booth.New(
		booth.WithImages(images),
		booth.WithSyncer(screen),
		booth.WithLogger(c.Logger),
		booth.WithAutoReset(cfg.AutoReset()),
		booth.WithEditorOptions(cfg.EditorOptions()...),
		booth.WithLayoutOptions(cfg.LayoutOptions()...),
	)
	defer sess.Close()

	if err := preload(ctx, sess, cfg); err != nil {
		return err
	}

	metrics := observability.NewCounters()
	observability.SetImageHooks(metrics)
	observability.SetExportHooks(metrics)

	srv, err := server.New(server.Options{
		Session:  sess,
		Images:   images,
		Renderer: render.New(images, cfg.Style(), cfg.RenderOptions()...),
		Screen:   screen,
		Hub:      hub,
		Metrics:  metrics,
		Export:   cfg.ExportOptions(),
		FPS:      cfg.Server.FPS,
		Logger:   c.Logger,
	})
	if err != nil {
		return err
	}

	printInfo("Booth at %s", StyleValue.Render("http://"+displayAddr(cfg.Server.Addr)))
	printDetail("guest screen: ws://%s/ws/guest", displayAddr(cfg.Server.Addr))
	return srv.Run(ctx, cfg.Server.Addr)
}

// preload applies the configured startup frame and layout. A layout is only
// loaded onto a frame; without session.frame it is ignored.
func preload(ctx context.Context, sess *booth.Session, cfg *config.Config) error {
	if cfg.Session.Frame == "" {
		return nil
	}
	if err := sess.SetFrame(ctx, cfg.Session.Frame); err != nil {
		return fmt.Errorf("load frame %s: %w", cfg.Session.Frame, err)
	}
	if cfg.Layout.File == "" {
		return nil
	}
	doc, err := layout.LoadDocument(cfg.Layout.File)
	if err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	return sess.LoadSlots(doc.Slots)
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
