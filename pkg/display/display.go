// Package display keeps the guest-facing screen in step with the operator.
//
// The operator's session publishes [Content] (committed photos, frame and
// opacity, placeholders) whenever it changes. A [Screen] combines that with
// the mode the operator picked (attract loop, countdown, review, ...) into a
// [Snapshot] and fans it out to any number of [Broadcaster]s: a websocket
// [Hub] for browsers on the guest monitor, a [RedisPublisher] for other
// booths, or a [Recorder] in tests. Receiving screens do their own
// rendering.
package display

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/uitmedia/framefusion/pkg/errors"
	"github.com/uitmedia/framefusion/pkg/layout"
	"github.com/uitmedia/framefusion/pkg/photo"
)

// Mode is what the guest screen shows.
type Mode string

const (
	ModeAttract       Mode = "attract"
	ModeTetherPreview Mode = "tether-preview"
	ModeLivePreview   Mode = "live-preview"
	ModeCountdown     Mode = "countdown"
	ModeReview        Mode = "review"
	ModeDelivery      Mode = "delivery"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeAttract, ModeTetherPreview, ModeLivePreview, ModeCountdown, ModeReview, ModeDelivery}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !slices.Contains(Modes, m) {
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown guest screen mode %q", s)
	}
	return m, nil
}

// Content is the committed composition the operator is working on.
type Content struct {
	Photos       []photo.Photo        `json:"photos"`
	FrameSrc     string               `json:"frameSrc,omitempty"`
	FrameOpacity float64              `json:"frameOpacity"`
	Placeholders []layout.Placeholder `json:"placeholders,omitempty"`
}

// Snapshot is one guest screen state as sent over the wire.
type Snapshot struct {
	Seq   uint64    `json:"seq"`
	At    time.Time `json:"at"`
	Mode  Mode      `json:"mode"`
	Count int       `json:"count,omitempty"` // countdown only
	QR    string    `json:"qr,omitempty"`    // delivery only
	Content
}

// Encode returns the JSON form of s.
func (s Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot parses a snapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid guest snapshot")
	}
	return s, nil
}

// Summary is a one-line description for logs and terminals.
func (s Snapshot) Summary() string {
	switch s.Mode {
	case ModeCountdown:
		return fmt.Sprintf("countdown %d", s.Count)
	case ModeReview:
		return fmt.Sprintf("review: %d photos, frame opacity %.0f%%", len(s.Photos), s.FrameOpacity*100)
	case ModeDelivery:
		return "delivery: " + s.QR
	case ModeTetherPreview, ModeLivePreview:
		return fmt.Sprintf("%s: %d guides", s.Mode, len(s.Placeholders))
	}
	return string(s.Mode)
}

// Broadcaster delivers snapshots to a guest screen transport.
type Broadcaster interface {
	Broadcast(ctx context.Context, s Snapshot) error
}

// Screen is the guest screen state. It is safe for concurrent use.
type Screen struct {
	mu      sync.Mutex
	current Snapshot
	outputs []Broadcaster
	logger  *log.Logger
	now     func() time.Time
}

// ScreenOption configures a Screen.
type ScreenOption func(*Screen)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) ScreenOption {
	return func(s *Screen) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOutputs adds broadcasters.
func WithOutputs(b ...Broadcaster) ScreenOption {
	return func(s *Screen) { s.outputs = append(s.outputs, b...) }
}

// NewScreen creates a screen in attract mode.
func NewScreen(opts ...ScreenOption) *Screen {
	s := &Screen{
		current: Snapshot{Mode: ModeAttract, Content: Content{FrameOpacity: 1}},
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the latest snapshot.
func (s *Screen) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Sync replaces the content and broadcasts.
func (s *Screen) Sync(c Content) {
	s.update(func(snap *Snapshot) { snap.Content = c })
}

// SetMode switches the mode. count is used by countdown, qr by delivery.
func (s *Screen) SetMode(m Mode, count int, qr string) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}
	if m == ModeCountdown && count < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "countdown must not be negative")
	}
	if m == ModeDelivery && qr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "delivery mode needs a QR payload")
	}
	s.update(func(snap *Snapshot) {
		snap.Mode = m
		snap.Count, snap.QR = 0, ""
		switch m {
		case ModeCountdown:
			snap.Count = count
		case ModeDelivery:
			snap.QR = qr
		}
	})
	return nil
}

func (s *Screen) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.current)
	s.current.Seq++
	s.current.At = s.now()
	snap := s.current
	outputs := slices.Clone(s.outputs)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, out := range outputs {
		if err := out.Broadcast(ctx, snap); err != nil {
			s.logger.Warn("guest broadcast failed", "seq", snap.Seq, "err", err)
		}
	}
	s.logger.Debug("guest screen updated", "seq", snap.Seq, "mode", snap.Mode, "photos", len(snap.Photos))
}

// Recorder is a Broadcaster that keeps every snapshot it receives.
type Recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

// Broadcast records s.
func (r *Recorder) Broadcast(_ context.Context, s Snapshot) error {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
	return nil
}

// Snapshots returns everything recorded so far.
func (r *Recorder) Snapshots() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.snaps)
}

// Last returns the latest snapshot.
func (r *Recorder) Last() (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return Snapshot{}, false
	}
	return r.snaps[len(r.snaps)-1], true
}

var _ Broadcaster = (*Recorder)(nil)
