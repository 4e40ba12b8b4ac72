package geom

// Chrome holds the sizes of the selection affordances drawn around the
// selected photo, in CSS pixels. Scale by the device pixel ratio before use.
type Chrome struct {
	RotateOffset float64 // distance from the top edge to the rotate knob
	RotateRadius float64 // knob radius
	ButtonSize   float64 // layer button diameter
	ButtonMargin float64 // inset of the layer buttons from the box corners
}

// DefaultChrome returns the stock affordance sizes.
func DefaultChrome() Chrome {
	return Chrome{
		RotateOffset: 25,
		RotateRadius: 8,
		ButtonSize:   24,
		ButtonMargin: 10,
	}
}

// Scaled returns c multiplied by the device pixel ratio.
func (c Chrome) Scaled(dpr float64) Chrome {
	if dpr <= 0 {
		dpr = 1
	}
	return Chrome{
		RotateOffset: c.RotateOffset * dpr,
		RotateRadius: c.RotateRadius * dpr,
		ButtonSize:   c.ButtonSize * dpr,
		ButtonMargin: c.ButtonMargin * dpr,
	}
}

// RotateKnob returns the knob center in the box's local frame.
func (c Chrome) RotateKnob(b Box) Point {
	return Pt(0, -b.H/2-c.RotateOffset)
}

// BackwardButton returns the send-backward button center in local frame,
// at the bottom-left corner.
func (c Chrome) BackwardButton(b Box) Point {
	return Pt(-b.W/2+c.ButtonMargin+c.ButtonSize/2, b.H/2-c.ButtonMargin-c.ButtonSize/2)
}

// ForwardButton returns the bring-forward button center in local frame,
// at the bottom-right corner.
func (c Chrome) ForwardButton(b Box) Point {
	return Pt(b.W/2-c.ButtonMargin-c.ButtonSize/2, b.H/2-c.ButtonMargin-c.ButtonSize/2)
}

// RotateHitRadius is the pick radius around the knob. It is larger than the
// drawn knob to make it easier to grab.
func (c Chrome) RotateHitRadius() float64 {
	return c.RotateRadius * 1.5
}

// ButtonHitRadius is the pick radius around a layer button.
func (c Chrome) ButtonHitRadius() float64 {
	return c.ButtonSize / 2 * 1.2
}

// Within reports whether p lies within r of center.
func Within(p, center Point, r float64) bool {
	dx, dy := p.X-center.X, p.Y-center.Y
	return dx*dx+dy*dy <= r*r
}
