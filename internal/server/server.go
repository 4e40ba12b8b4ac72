// Package server exposes a booth session over HTTP.
//
// One [Server] drives a single in-memory session: the operator UI posts
// pointer, keyboard and step actions as JSON, reads the state back from
// /api/state and the rendered canvas from /api/preview, and downloads the
// final composite from /api/export. Guest screens connect to /ws/guest and
// receive a snapshot whenever committed content or the screen mode changes.
package server

import (
	"context"
	"image"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/uitmedia/framefusion/pkg/booth"
	"github.com/uitmedia/framefusion/pkg/display"
	"github.com/uitmedia/framefusion/pkg/errors"
	"github.com/uitmedia/framefusion/pkg/imagesource"
	"github.com/uitmedia/framefusion/pkg/observability"
	"github.com/uitmedia/framefusion/pkg/render"
)

// MaxUploadBytes caps raw image uploads.
const MaxUploadBytes = 64 << 20

// Options wires a Server.
type Options struct {
	Session  *booth.Session
	Images   *imagesource.Loader
	Renderer *render.Renderer
	Screen   *display.Screen
	Hub      *display.Hub            // optional; without it /ws/guest is not served
	Metrics  *observability.Counters // optional; without it /api/metrics is 404
	Export   render.ExportOptions
	FPS      int
	Logger   *log.Logger
}

// Server is the booth HTTP API.
type Server struct {
	session  *booth.Session
	images   *imagesource.Loader
	renderer *render.Renderer
	screen   *display.Screen
	hub      *display.Hub
	metrics  *observability.Counters
	export   render.ExportOptions
	fps      int
	logger   *log.Logger

	mu    sync.Mutex
	frame *image.RGBA // last frame drawn by the render loop
}

// New creates a server.
func New(opts Options) (*Server, error) {
	if opts.Session == nil || opts.Images == nil || opts.Renderer == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "server needs a session, an image loader and a renderer")
	}
	if opts.Screen == nil {
		opts.Screen = display.NewScreen()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Server{
		session:  opts.Session,
		images:   opts.Images,
		renderer: opts.Renderer,
		screen:   opts.Screen,
		hub:      opts.Hub,
		metrics:  opts.Metrics,
		export:   opts.Export,
		fps:      opts.FPS,
		logger:   opts.Logger,
	}, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/version", s.handleVersion)
		if s.metrics != nil {
			r.Get("/metrics", s.handleMetrics)
		}
		r.Get("/cursor", s.handleCursor)
		r.Post("/canvas", s.handleCanvas)
		r.Post("/keys", s.handleKey)
		r.Post("/undo", s.handleUndo)
		r.Post("/redo", s.handleRedo)
		r.Post("/reset", s.handleReset)
		r.Post("/new", s.handleCreateNew)

		r.Post("/frame", s.handleFrame)
		r.Put("/frame/opacity", s.handleOpacity)
		r.Put("/scale", s.handleScale)

		r.Route("/layout", func(r chi.Router) {
			r.Post("/slots", s.handleAddSlot)
			r.Put("/slots", s.handleLoadSlots)
			r.Delete("/slots/selected", s.handleRemoveSlot)
			r.Post("/select", s.handleSelectSlot)
			r.Put("/aspect", s.handleAspect)
			r.Post("/pointer/{phase}", s.handleLayoutPointer)
			r.Post("/confirm", s.handleConfirm)
		})

		r.Post("/sources", s.handleAddSources)
		r.Delete("/sources/{index}", s.handleRemoveSource)
		r.Post("/slots/click", s.handleClickSlot)
		r.Put("/slots/dragover", s.handleDragOver)
		r.Post("/slots/{slot}", s.handleFillSlot)
		r.Delete("/slots/{slot}", s.handleEmptySlot)
		r.Post("/photos/finalize", s.handleFinalize)

		r.Post("/editor/pointer/{phase}", s.handlePointer)
		r.Post("/editor/wheel", s.handleWheel)
		r.Post("/photos/select", s.handleSelectPhoto)
		r.Post("/photos/{index}/reorder", s.handleReorder)
		r.Put("/photos/{index}/rotation", s.handleRotation)
		r.Put("/photos/{index}/crop", s.handleCrop)
		r.Post("/photos/{index}/reset", s.handleResetPhoto)

		r.Get("/preview", s.handlePreview)
		r.Get("/export", s.handleExport)
		r.Post("/guest/mode", s.handleGuestMode)
		r.Get("/guest", s.handleGuestState)
	})
	if s.hub != nil {
		r.Handle("/ws/guest", s.hub)
	}
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		// Pointer moves arrive at display rate.
		if r.URL.Path == "/api/editor/pointer/move" || r.URL.Path == "/api/layout/pointer/move" || r.URL.Path == "/api/preview" {
			return
		}
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "took", time.Since(start), "id", middleware.GetReqID(r.Context()))
	})
}

// Run serves on addr and runs the render loop until ctx is done, then shuts
// the server down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	go func() {
		_ = render.NewLoop(s.renderer, s.fps, s.scene, s.present).Run(loopCtx)
	}()

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("booth listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Wrap(errors.ErrCodeNetwork, err, "serve %s", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.hub != nil {
		_ = s.hub.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "shutdown")
	}
	s.logger.Info("booth stopped")
	return nil
}

// present keeps a copy of the loop's frame for /api/preview.
func (s *Server) present(img *image.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil || s.frame.Bounds() != img.Bounds() {
		s.frame = image.NewRGBA(img.Bounds())
	}
	copy(s.frame.Pix, img.Pix)
}

func (s *Server) lastFrame() (*image.RGBA, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil, false
	}
	out := image.NewRGBA(s.frame.Bounds())
	copy(out.Pix, s.frame.Pix)
	return out, true
}
