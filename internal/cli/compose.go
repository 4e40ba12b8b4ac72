package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/uitmedia/framefusion/pkg/booth"
	"github.com/uitmedia/framefusion/pkg/config"
	"github.com/uitmedia/framefusion/pkg/errors"
	"github.com/uitmedia/framefusion/pkg/imagesource"
	"github.com/uitmedia/framefusion/pkg/layout"
	"github.com/uitmedia/framefusion/pkg/render"
)

// composeRequest describes one headless print.
type composeRequest struct {
	Frame   string
	Slots   []layout.Placeholder
	Photos  []string
	Opacity float64
	Scale   float64
	Export  render.ExportOptions
}

// composeCommand creates the compose command, which builds a print from
// files without the operator UI.
func (c *CLI) composeCommand() *cobra.Command {
	var (
		frame      string
		layoutFile string
		output     string
		format     string
		configPath string
		quality    int
		opacity    float64
		scale      float64
		timeout    time.Duration
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "compose [photos...]",
		Short: "Compose a print from a frame, a layout and photos",
		Long: `Compose a print from a frame, a layout and photos.

Photos fill the layout's slots in order, each one cropped to cover its slot.
Every slot must get a photo. Sources may be file paths, http(s) URLs or
data:image URLs; remote sources are cached.

The print is written at the frame's native resolution.`,
		Example: `  framefusion compose --frame frame.png --layout strip.toml a.jpg b.jpg c.jpg
  framefusion compose --layout strip.toml -o print.png https://example.com/a.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			doc, err := layout.LoadDocument(layoutFile)
			if err != nil {
				return err
			}
			if frame == "" {
				frame = doc.Frame
			}
			if frame == "" {
				return errors.New(errors.ErrCodeInvalidInput, "no frame given and %s names none", layoutFile)
			}
			if output == "" {
				output = strings.TrimSuffix(filepath.Base(frame), filepath.Ext(frame)) + ".print" + render.ParseFormat(format).Extension()
			}
			if format == "" {
				format = output
			}

			opts := cfg.ExportOptions()
			opts.Format = render.ParseFormat(format)
			if quality > 0 {
				opts.Quality = quality
			}
			req := composeRequest{
				Frame:   frame,
				Slots:   doc.Slots,
				Photos:  args,
				Opacity: opacity,
				Scale:   scale,
				Export:  opts,
			}
			return c.runCompose(cmd.Context(), cfg, req, output, timeout, noCache)
		},
	}

	cmd.Flags().StringVar(&frame, "frame", "", "frame overlay image (default: the layout's frame)")
	cmd.Flags().StringVarP(&layoutFile, "layout", "l", "", "layout file (.toml, .yaml or .json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <frame>.print.jpg)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: jpeg, png (default: from output name)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (.toml or .yaml)")
	cmd.Flags().IntVarP(&quality, "quality", "q", 0, "JPEG quality 1-100 (default from config)")
	cmd.Flags().Float64Var(&opacity, "opacity", 1, "frame overlay opacity 0-1")
	cmd.Flags().Float64Var(&scale, "scale", 1, "uniform scale applied to every photo")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "give up loading images after this long")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the image cache")
	_ = cmd.MarkFlagRequired("layout")

	return cmd
}

func (c *CLI) runCompose(ctx context.Context, cfg *config.Config, req composeRequest, output string, timeout time.Duration, noCache bool) error {
	store, err := newImageCache(cfg, nil, noCache)
	if err != nil {
		return err
	}
	defer store.Close()
	images := c.newImages(cfg, store)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Composing %d photos...", len(req.Photos)))
	spinner.Start()

	data, err := compose(ctx, images, render.New(images, cfg.Style(), cfg.RenderOptions()...), req, cfg)
	if err != nil {
		spinner.StopWithError("Compose failed")
		return err
	}
	spinner.Stop()

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	prog.done("print exported", "bytes", len(data))

	printSuccess("Print composed")
	printFile(output)
	printStats(fmt.Sprintf("%d slots", len(req.Slots)), fmt.Sprintf("%d photos", min(len(req.Photos), len(req.Slots))), string(req.Export.Format))
	if extra := len(req.Photos) - len(req.Slots); extra > 0 {
		printWarning("%d photos left over: the layout has %d slots", extra, len(req.Slots))
	}
	return nil
}

// compose drives a booth session through every step and returns the
// encoded print.
func compose(ctx context.Context, images *imagesource.Loader, r *render.Renderer, req composeRequest, cfg *config.Config) ([]byte, error) {
	sess := booth.New(
		booth.WithImages(images),
		booth.WithEditorOptions(cfg.EditorOptions()...),
		booth.WithLayoutOptions(cfg.LayoutOptions()...),
	)
	defer sess.Close()

	if err := sess.SetFrame(ctx, req.Frame); err != nil {
		return nil, err
	}
	if err := sess.LoadSlots(req.Slots); err != nil {
		return nil, err
	}
	if _, err := sess.ConfirmLayout(); err != nil {
		return nil, err
	}
	if err := sess.AddSources(req.Photos...); err != nil {
		return nil, err
	}
	for slot := range min(len(req.Photos), len(req.Slots)) {
		if err := sess.Place(0, slot); err != nil {
			return nil, err
		}
	}
	photos, err := sess.FinalizePhotos(ctx)
	if err != nil {
		return nil, err
	}
	if err := sess.SetFrameOpacity(req.Opacity); err != nil {
		return nil, err
	}
	if err := sess.SetGlobalScale(req.Scale); err != nil {
		return nil, err
	}

	frameSrc, _, _ := sess.Frame()
	frame, err := images.Wait(ctx, frameSrc)
	if err != nil {
		return nil, err
	}
	return r.Export(ctx, render.Scene{
		Frame:        frame,
		FrameOpacity: sess.FrameOpacity(),
		Photos:       photos,
		GlobalScale:  sess.GlobalScale(),
	}, req.Export)
}
