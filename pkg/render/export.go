package render

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/uitmedia/framefusion/pkg/errors"
	"github.com/uitmedia/framefusion/pkg/observability"
)

// Format is an export encoding.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// DefaultJPEGQuality is the export quality when none is set.
const DefaultJPEGQuality = 98

// ParseFormat accepts a format name or a file name and returns the format.
// Anything unrecognized is JPEG.
func ParseFormat(s string) Format {
	if ext := filepath.Ext(s); ext != "" {
		s = ext[1:]
	}
	if strings.EqualFold(s, "png") {
		return FormatPNG
	}
	return FormatJPEG
}

// Extension returns the file extension for f, with the dot.
func (f Format) Extension() string {
	if f == FormatPNG {
		return ".png"
	}
	return ".jpg"
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

// ExportOptions controls Export.
type ExportOptions struct {
	Format  Format
	Quality int // JPEG only, DefaultJPEGQuality when zero

	// PreviewWidth is the width, in device pixels, of the surface the crop
	// pans were made on. Pans are rescaled to the export width. Zero keeps
	// them as stored.
	PreviewWidth float64
}

// Export renders s at the frame's native resolution, without selection
// affordances, and encodes it. A scene without a frame is rendered at its
// own size.
func (r *Renderer) Export(ctx context.Context, s Scene, opts ExportOptions) ([]byte, error) {
	format := string(opts.Format)
	if format == "" {
		format = string(FormatJPEG)
	}
	hooks := observability.Export()
	hooks.OnExportStart(ctx, format, len(s.Photos))
	start := time.Now()
	data, err := r.export(ctx, s, opts)
	hooks.OnExportComplete(ctx, format, len(data), time.Since(start), err)
	return data, err
}

func (r *Renderer) export(ctx context.Context, s Scene, opts ExportOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExportFailed, err, "export cancelled")
	}

	if s.Frame != nil {
		fb := s.Frame.Bounds()
		s.Width, s.Height = fb.Dx(), fb.Dy()
	}
	if s.Width <= 0 || s.Height <= 0 {
		return nil, errors.New(errors.ErrCodeExportFailed, "nothing to export: no frame and no canvas size")
	}
	s.Selected = -1
	if opts.PreviewWidth > 0 {
		s.PanScale = float64(s.Width) / opts.PreviewWidth
	}

	img := r.Render(s)
	data, err := Encode(img, opts.Format, opts.Quality)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExportFailed, err, "failed to encode composition")
	}
	return data, nil
}

// Encode encodes img as f.
func Encode(img image.Image, f Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch f {
	case FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		if quality <= 0 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
