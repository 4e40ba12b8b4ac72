package render

import (
	"context"
	"image"
	"time"
)

// DefaultFPS is the render loop rate when none is configured.
const DefaultFPS = 30

// Loop redraws a scene at a fixed rate until its context is cancelled.
//
// Every tick draws, whether or not anything changed. The backing buffer is
// reallocated before drawing whenever the scene size differs from the last
// frame, so a resize or device pixel ratio change takes effect on the next
// tick.
type Loop struct {
	renderer *Renderer
	interval time.Duration
	scene    func() Scene
	present  func(*image.RGBA)
}

// NewLoop creates a loop. scene is called once per tick for the state to
// draw; present receives each finished frame and must not retain it past
// the call, since the buffer is reused.
func NewLoop(r *Renderer, fps int, scene func() Scene, present func(*image.RGBA)) *Loop {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Loop{
		renderer: r,
		interval: time.Second / time.Duration(fps),
		scene:    scene,
		present:  present,
	}
}

// Run draws until ctx is done and returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	var buf *image.RGBA
	for {
		buf = l.frame(buf)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Loop) frame(buf *image.RGBA) *image.RGBA {
	s := l.scene()
	w, h := max(s.Width, 1), max(s.Height, 1)
	if buf == nil || buf.Bounds().Dx() != w || buf.Bounds().Dy() != h {
		buf = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	l.renderer.Draw(buf, s)
	if l.present != nil {
		l.present(buf)
	}
	return buf
}
