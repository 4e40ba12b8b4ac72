package render

import (
	"image/color"

	"github.com/gogpu/gg"
)

// Style holds the resolved colors the compositor draws with. It is built by
// the caller from its theme; the renderer reads nothing else.
type Style struct {
	Background color.Color // canvas fill behind the photos
	Primary    color.Color // selection outline, rotate knob, layer buttons
	Stalk      color.Color // line from the top edge to the rotate knob
	Glyph      color.Color // chevrons and knob ring

	SlotFill   color.Color // placeholder tint in the designer
	SlotEmpty  color.Color // empty slot tint in the slot preview
	SlotStroke color.Color // placeholder outline
	Label      color.Color // "Slot N" text
	Handle     color.Color // designer resize handle fill
}

// DefaultStyle is the stock dark theme.
func DefaultStyle() Style {
	return Style{
		Background: gg.Hex("#1f2937"),
		Primary:    gg.Hex("#4f46e5"),
		Stalk:      gg.RGBA2(1, 1, 1, 0.8),
		Glyph:      gg.RGBA2(1, 1, 1, 1),
		SlotFill:   gg.RGBA2(79.0/255, 70.0/255, 229.0/255, 0.25),
		SlotEmpty:  gg.RGBA2(0, 0, 0, 0.35),
		SlotStroke: gg.RGBA2(1, 1, 1, 0.9),
		Label:      gg.RGBA2(1, 1, 1, 0.85),
		Handle:     gg.RGBA2(1, 1, 1, 1),
	}
}

// StyleFromTheme builds a Style from hex colors. Empty or unparsable
// entries keep their default.
func StyleFromTheme(background, primary string) Style {
	s := DefaultStyle()
	if c, err := gg.ParseHex(background); err == nil && background != "" {
		s.Background = c
	}
	if c, err := gg.ParseHex(primary); err == nil && primary != "" {
		s.Primary = c
		s.SlotFill = gg.RGBA2(c.R, c.G, c.B, 0.25)
	}
	return s
}

func rgba(c color.Color) gg.RGBA {
	return gg.FromColor(c)
}

func withAlpha(c color.Color, a float64) gg.RGBA {
	x := rgba(c)
	x.A *= a
	return x
}
