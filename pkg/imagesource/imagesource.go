// Package imagesource turns photo and frame references into decoded images.
//
// A reference is a local file path, an http(s) URL, a data:image URL, or a
// "mem:" reference returned by [Loader.AddBytes]. Loading is fire-and-forget:
// [Loader.Bitmap] starts a decode on first sight of a reference and reports
// false until it finishes, which is exactly what a renderer that redraws
// every tick needs. Callers that must have the result, such as the binder
// reading dimensions, block with [Loader.Wait].
//
// Remote bytes go through a [cache.Cache] and are fetched with retry on
// transient failures. Decoders for JPEG, PNG, GIF, WebP, BMP and TIFF are
// registered.
package imagesource

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/uitmedia/framefusion/pkg/cache"
	"github.com/uitmedia/framefusion/pkg/errors"
	"github.com/uitmedia/framefusion/pkg/observability"
)

// Default limits.
const (
	DefaultMaxBytes = 64 << 20
	DefaultCacheTTL = 24 * time.Hour
)

// entry is one reference's load. done is closed once img or err is set.
type entry struct {
	done chan struct{}
	img  image.Image
	err  error
}

// Loader decodes image references in the background and keeps the results.
// It is safe for concurrent use.
type Loader struct {
	cache    cache.Cache
	client   *http.Client
	backoff  cache.Backoff
	ttl      time.Duration
	maxBytes int64
	logger   *log.Logger

	mu      sync.RWMutex
	entries map[string]*entry
	blobs   map[string][]byte
}

// Option configures a Loader.
type Option func(*Loader)

// WithCache stores fetched remote bytes in c.
func WithCache(c cache.Cache) Option {
	return func(l *Loader) {
		if c != nil {
			l.cache = c
		}
	}
}

// WithHTTPClient replaces the client used for http(s) references.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		if c != nil {
			l.client = c
		}
	}
}

// WithBackoff sets the retry schedule for remote fetches.
func WithBackoff(b cache.Backoff) Option {
	return func(l *Loader) { l.backoff = b }
}

// WithCacheTTL sets how long fetched bytes stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(l *Loader) { l.ttl = ttl }
}

// WithMaxBytes bounds the size of any single source.
func WithMaxBytes(n int64) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		cache:    cache.NewNullCache(),
		client:   &http.Client{Timeout: 30 * time.Second},
		backoff:  cache.DefaultBackoff,
		ttl:      DefaultCacheTTL,
		maxBytes: DefaultMaxBytes,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
		entries:  make(map[string]*entry),
		blobs:    make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// =============================================================================
// Background loading
// =============================================================================

// Load starts decoding ref if it has not been started yet. It never blocks.
func (l *Loader) Load(ref string) {
	l.start(ref)
}

func (l *Loader) start(ref string) *entry {
	l.mu.RLock()
	e, ok := l.entries[ref]
	l.mu.RUnlock()
	if ok {
		return e
	}

	l.mu.Lock()
	if e, ok = l.entries[ref]; ok {
		l.mu.Unlock()
		return e
	}
	e = &entry{done: make(chan struct{})}
	l.entries[ref] = e
	l.mu.Unlock()

	go l.resolve(ref, e)
	return e
}

func (l *Loader) resolve(ref string, e *entry) {
	defer close(e.done)

	started := time.Now()
	data, err := l.Fetch(context.Background(), ref)
	if err != nil {
		e.err = err
		l.logger.Warn("image source unavailable", "ref", short(ref), "err", err)
		return
	}
	decodeStart := time.Now()
	img, format, err := image.Decode(bytes.NewReader(data))
	observability.Images().OnDecode(context.Background(), format, time.Since(decodeStart), err)
	if err != nil {
		e.err = errors.Wrap(errors.ErrCodeDecodeFailed, err, "cannot decode image %s", short(ref))
		l.logger.Warn("image decode failed", "ref", short(ref), "err", err)
		return
	}
	e.img = img
	b := img.Bounds()
	l.logger.Debug("image decoded", "ref", short(ref), "format", format,
		"width", b.Dx(), "height", b.Dy(), "took", time.Since(started).Round(time.Millisecond))
}

// Bitmap returns the decoded image for ref, starting a load if needed. It
// reports false while the load is pending or when it failed.
func (l *Loader) Bitmap(ref string) (image.Image, bool) {
	e := l.start(ref)
	select {
	case <-e.done:
		return e.img, e.err == nil
	default:
		return nil, false
	}
}

// Wait blocks until ref is decoded or ctx is done.
func (l *Loader) Wait(ctx context.Context, ref string) (image.Image, error) {
	e := l.start(ref)
	select {
	case <-e.done:
		return e.img, e.err
	case <-ctx.Done():
		return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "waiting for image %s", short(ref))
	}
}

// Dimensions returns the pixel size of ref, waiting for it to decode.
func (l *Loader) Dimensions(ctx context.Context, ref string) (int, int, error) {
	img, err := l.Wait(ctx, ref)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// Forget drops ref and its bytes. A later Bitmap call loads it again.
func (l *Loader) Forget(ref string) {
	l.mu.Lock()
	delete(l.entries, ref)
	delete(l.blobs, ref)
	l.mu.Unlock()
}

// Len returns the number of references seen.
func (l *Loader) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// short trims long references such as data URLs for logs and messages.
func short(ref string) string {
	const limit = 64
	if len(ref) <= limit {
		return ref
	}
	return ref[:limit] + "..."
}
