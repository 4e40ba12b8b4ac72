// Package booth is the session controller: it owns one guest's composition
// from frame upload to export and routes operator input to the right
// editor for the current step.
//
// A [Session] is the only writer of the committed photo list, the slot
// assignments and their histories. Every exported method takes the session
// lock, so the render loop, the HTTP handlers and the auto-reset timer can
// share one session. After any call that changes committed state, the new
// [display.Content] is handed to the session's [Syncer] once the lock is
// released; transient drag state is never synced.
package booth

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/uitmedia/framefusion/pkg/display"
	"github.com/uitmedia/framefusion/pkg/editor"
	"github.com/uitmedia/framefusion/pkg/errors"
	"github.com/uitmedia/framefusion/pkg/history"
	"github.com/uitmedia/framefusion/pkg/layout"
	"github.com/uitmedia/framefusion/pkg/photo"
)

// Images resolves photo and frame sources. Load starts a background decode;
// Dimensions waits for one.
type Images interface {
	photo.Sizer
	Load(src string)
}

// forgetter is implemented by resolvers that keep decoded images around.
type forgetter interface {
	Forget(src string)
}

// Syncer receives committed content for the guest screen.
type Syncer interface {
	Sync(display.Content)
}

// Session is one booth session. It is safe for concurrent use.
type Session struct {
	id         string
	images     Images
	syncer     Syncer
	logger     *log.Logger
	autoReset  time.Duration
	editorOpts []editor.Option
	layoutOpts []layout.Option

	mu          sync.Mutex
	step        Step
	canvas      layout.Canvas
	canvasFixed bool // set by SetCanvas; otherwise the canvas follows the frame

	frameSrc       string
	frameW, frameH int
	opacity        float64
	globalScale    float64

	designer *layout.Editor
	slots    []layout.Placeholder // confirmed layout
	fill     *history.History[[]string]
	tray     []string
	dragOver int

	photos *history.History[[]photo.Photo]
	editor *editor.Editor

	timer  *time.Timer
	gen    uint64
	closed bool
	synced *display.Content
}

// Option configures a Session.
type Option func(*Session)

// WithImages sets the image resolver. Without one, frames and photos are
// accepted only with explicit dimensions.
func WithImages(img Images) Option {
	return func(s *Session) { s.images = img }
}

// WithSyncer sets the guest screen sink.
func WithSyncer(sy Syncer) Option {
	return func(s *Session) { s.syncer = sy }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAutoReset starts a new session for the next guest after d without
// interaction on the edit step. Zero disables it.
func WithAutoReset(d time.Duration) Option {
	return func(s *Session) { s.autoReset = d }
}

// WithEditorOptions passes options to the photo editor.
func WithEditorOptions(opts ...editor.Option) Option {
	return func(s *Session) { s.editorOpts = append(s.editorOpts, opts...) }
}

// WithLayoutOptions passes options to the placeholder designer.
func WithLayoutOptions(opts ...layout.Option) Option {
	return func(s *Session) { s.layoutOpts = append(s.layoutOpts, opts...) }
}

// New creates a session at the frame upload step.
func New(opts ...Option) *Session {
	s := &Session{
		id:     uuid.NewString(),
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.clear()
	return s
}

// clear puts every field back to a fresh session.
func (s *Session) clear() {
	s.step = StepFrameUpload
	s.frameSrc, s.frameW, s.frameH = "", 0, 0
	s.opacity = 1
	s.globalScale = 1
	s.designer = layout.NewEditor(s.canvas, nil, s.layoutOpts...)
	s.slots = nil
	s.fill = history.New([]string(nil), equalSlots)
	s.tray = nil
	s.dragOver = -1
	s.photos = history.New([]photo.Photo(nil), photo.Equal)
	s.editor = editor.New(nil, s.viewport(), s.editorOpts...)
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// =============================================================================
// Locking and sync
// =============================================================================

func (s *Session) lock() { s.mu.Lock() }

// unlock releases the lock and syncs committed content if it changed.
func (s *Session) unlock() {
	var out *display.Content
	if s.syncer != nil {
		c := s.content()
		if s.synced == nil || !sameContent(*s.synced, c) {
			s.synced = &c
			out = &c
		}
	}
	s.mu.Unlock()
	if out != nil {
		s.syncer.Sync(*out)
	}
}

func (s *Session) content() display.Content {
	return display.Content{
		Photos:       s.photos.Current(),
		FrameSrc:     s.frameSrc,
		FrameOpacity: s.opacity,
		Placeholders: s.slots,
	}
}

func sameContent(a, b display.Content) bool {
	return a.FrameSrc == b.FrameSrc &&
		a.FrameOpacity == b.FrameOpacity &&
		photo.Equal(a.Photos, b.Photos) &&
		slices.Equal(a.Placeholders, b.Placeholders)
}

// =============================================================================
// Canvas
// =============================================================================

func (s *Session) viewport() editor.Viewport {
	return editor.Viewport{
		Width:       s.canvas.Width,
		Height:      s.canvas.Height,
		DPR:         s.canvas.DPR,
		GlobalScale: s.globalScale,
	}
}

// SetCanvas sets the size of the surface pointer input arrives on, in
// device pixels, and its pixel ratio. Geometry is normalized, so nothing
// moves.
func (s *Session) SetCanvas(c layout.Canvas) error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "canvas must have a positive size, got %.0fx%.0f", c.Width, c.Height)
	}
	s.lock()
	defer s.unlock()
	s.canvas = c
	s.canvasFixed = true
	s.designer.SetCanvas(c)
	s.editor.SetViewport(s.viewport())
	return nil
}

// Canvas returns the input surface.
func (s *Session) Canvas() layout.Canvas {
	s.lock()
	defer s.unlock()
	return s.canvas
}

// =============================================================================
// Frame
// =============================================================================

// SetFrame sets the frame overlay and moves to the designer. The frame's
// pixel size decides the export resolution. Unless SetCanvas was called,
// the canvas takes the frame's size.
func (s *Session) SetFrame(ctx context.Context, src string) error {
	if err := errors.ValidateSourceRef(src); err != nil {
		return err
	}
	if s.images == nil {
		return errors.New(errors.ErrCodeUnsupported, "no image resolver configured")
	}
	w, h, err := s.images.Dimensions(ctx, src)
	if err != nil {
		return err
	}
	return s.SetFrameSized(src, w, h)
}

// SetFrameSized is SetFrame with known dimensions.
func (s *Session) SetFrameSized(src string, width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "frame must have a positive size, got %dx%d", width, height)
	}
	s.lock()
	defer s.unlock()
	if s.step > StepTemplateDesign {
		return wrongStep("set frame", StepFrameUpload, s.step)
	}
	s.frameSrc, s.frameW, s.frameH = src, width, height
	if !s.canvasFixed {
		s.canvas = layout.Canvas{Width: float64(width), Height: float64(height), DPR: 1}
		s.designer.SetCanvas(s.canvas)
		s.editor.SetViewport(s.viewport())
	}
	s.step = StepTemplateDesign
	s.logger.Info("frame set", "session", s.id, "width", width, "height", height)
	return nil
}

// Frame returns the frame source and its pixel size.
func (s *Session) Frame() (src string, width, height int) {
	s.lock()
	defer s.unlock()
	return s.frameSrc, s.frameW, s.frameH
}

// =============================================================================
// Whole-session transitions
// =============================================================================

// Reset discards everything and returns to frame upload.
func (s *Session) Reset() {
	s.lock()
	defer s.unlock()
	s.release("")
	s.clear()
	s.touch()
	s.logger.Info("session reset", "session", s.id)
}

// CreateNew keeps the frame and layout, drops the photos and returns to
// photo upload for the next guest.
func (s *Session) CreateNew() error {
	s.lock()
	defer s.unlock()
	return s.createNew()
}

func (s *Session) createNew() error {
	if len(s.slots) == 0 {
		return errors.New(errors.ErrCodeInvalidStep, "no confirmed layout to start a new composition from")
	}
	s.release(s.frameSrc)
	s.photos.Reset(nil)
	s.editor.Sync(nil, -1)
	s.fill.Reset(make([]string, len(s.slots)))
	s.tray = nil
	s.dragOver = -1
	s.step = StepPhotoUpload
	s.touch()
	s.logger.Info("new composition", "session", s.id, "slots", len(s.slots))
	return nil
}

// release lets the resolver drop every image the session uses except keep.
// The caller holds the lock.
func (s *Session) release(keep string) {
	f, ok := s.images.(forgetter)
	if !ok {
		return
	}
	seen := map[string]bool{"": true, keep: true}
	forget := func(src string) {
		if !seen[src] {
			seen[src] = true
			f.Forget(src)
		}
	}
	forget(s.frameSrc)
	for _, src := range s.tray {
		forget(src)
	}
	for _, src := range s.fill.Current() {
		forget(src)
	}
	for _, p := range s.photos.Current() {
		forget(p.Src)
	}
}

// Touch records operator activity, re-arming the auto-reset timer.
func (s *Session) Touch() {
	s.lock()
	defer s.unlock()
	s.touch()
}

// touch re-arms the auto-reset timer. The caller holds the lock.
func (s *Session) touch() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	if s.closed || s.autoReset <= 0 || s.step != StepEditAndExport {
		return
	}
	gen := s.gen
	s.timer = time.AfterFunc(s.autoReset, func() { s.expire(gen) })
}

func (s *Session) expire(gen uint64) {
	s.lock()
	defer s.unlock()
	if gen != s.gen || s.closed || s.step != StepEditAndExport {
		return
	}
	s.logger.Info("inactivity timeout, starting new composition", "session", s.id, "after", s.autoReset)
	if err := s.createNew(); err != nil {
		s.logger.Warn("auto reset failed", "session", s.id, "err", err)
	}
}

// Close stops the auto-reset timer.
func (s *Session) Close() error {
	s.lock()
	defer s.unlock()
	s.closed = true
	s.touch()
	return nil
}
