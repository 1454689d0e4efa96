package graph

import (
	"fmt"
	"strconv"
)

// Chain appends single-input filters to a stream
type Chain struct {
	b   *Builder
	ref Ref
}

// Chain starts a filter chain from ref
func (b *Builder) Chain(from Ref) *Chain {
	return &Chain{b: b, ref: from}
}

// Scale adds a scale filter
func (c *Chain) Scale(width, height string, params ...Param) *Chain {
	all := append([]Param{P("w", width), P("h", height)}, params...)
	return c.Custom("scale", all...)
}

// Fit scales into a box keeping the aspect ratio and pads the remainder
// with black, centred.
func (c *Chain) Fit(width, height int) *Chain {
	w, h := strconv.Itoa(width), strconv.Itoa(height)
	return c.Scale(w, h, P("force_original_aspect_ratio", "decrease")).
		Custom("pad", P("w", w), P("h", h), P("x", "(ow-iw)/2"), P("y", "(oh-ih)/2"), P("color", "black")).
		Custom("setsar", P("sar", "1"))
}

// FPS normalizes the frame rate
func (c *Chain) FPS(fps int) *Chain {
	return c.Custom("fps", P("fps", fps), P("round", "up"))
}

// Trim keeps [start, end) of the stream and resets timestamps
func (c *Chain) Trim(start, end float64) *Chain {
	if c.ref.Stream == Audio {
		return c.Custom("atrim", P("start", start), P("end", end)).
			CustomArgs("asetpts", "PTS-STARTPTS")
	}
	return c.Custom("trim", P("start", start), P("end", end)).
		CustomArgs("setpts", "PTS-STARTPTS")
}

// Fade adds a video fade in or out
func (c *Chain) Fade(direction string, start, duration float64) *Chain {
	return c.Custom("fade", P("t", direction), P("st", start), P("d", duration))
}

// Volume scales audio volume
func (c *Chain) Volume(v float64) *Chain {
	return c.Custom("volume", P("volume", v))
}

// Opacity multiplies the alpha channel; values >= 1 leave the stream as is
func (c *Chain) Opacity(alpha float64) *Chain {
	if alpha >= 1 || alpha <= 0 {
		return c
	}
	return c.Custom("format", P("pix_fmts", "rgba")).
		Custom("colorchannelmixer", P("aa", alpha))
}

// Delay shifts the stream so it starts at offset seconds
func (c *Chain) Delay(offset float64) *Chain {
	if offset <= 0 {
		return c.CustomArgs("setpts", "PTS-STARTPTS")
	}
	return c.CustomArgs("setpts", fmt.Sprintf("PTS-STARTPTS+%s/TB", num(offset)))
}

// Custom adds any single-input filter with keyword parameters
func (c *Chain) Custom(op string, params ...Param) *Chain {
	c.ref = c.b.Filter(c.ref.Stream, op, []Ref{c.ref}, params...)
	return c
}

// CustomArgs adds any single-input filter with positional arguments
func (c *Chain) CustomArgs(op string, args ...string) *Chain {
	c.ref = c.b.FilterArgs(c.ref.Stream, op, []Ref{c.ref}, args)
	return c
}

// Ref returns the current end of the chain
func (c *Chain) Ref() Ref {
	return c.ref
}
