// Package overlays plans the timed decorations composited onto a timeline.
package overlays

import (
	"github.com/keagan/reelforge/internal/graph"
)

// Kind is an overlay category
type Kind string

const (
	KindWatermark       Kind = "watermark"
	KindBGM             Kind = "bgm"
	KindGIF             Kind = "gif"
	KindSticker         Kind = "sticker"
	KindChromaMeme      Kind = "chromaMeme"
	KindSubtitleBurn    Kind = "subtitleBurn"
	KindColorLUT        Kind = "colorLUT"
	KindAestheticFrame  Kind = "aestheticFrame"
	KindCinematicEffect Kind = "cinematicEffect"
)

// Order is the category application order. Within a category events keep
// detection order.
var Order = []Kind{
	KindColorLUT,
	KindAestheticFrame,
	KindCinematicEffect,
	KindWatermark,
	KindGIF,
	KindSticker,
	KindChromaMeme,
	KindSubtitleBurn,
}

// Global reports whether the kind transforms the whole stream rather than
// compositing a second input
func (k Kind) Global() bool {
	return k == KindColorLUT || k == KindSubtitleBurn
}

// Event is one overlay decision
type Event struct {
	Kind      Kind
	AssetPath string
	Window    graph.Window
	Anchor    Placement
	Size      Size
	// Opacity is advisory; 1 means opaque.
	Opacity float64
	// Volume applies to audio events.
	Volume float64
	// MixDuration is the amix duration policy for BGM.
	MixDuration string
	Chroma      *Chroma
	// Emotion is the label that triggered the event, if any.
	Emotion string
	// Loop marks animated sources repeated over the window.
	Loop bool
	// Style is passed to subtitle burn as force_style.
	Style string
}

// Placement is a named anchor resolved to overlay coordinate expressions
type Placement struct {
	Name string
	X    string
	Y    string
}

// Size holds scale expressions already evaluated against the output size
type Size struct {
	Width  string
	Height string
}

// IsZero reports whether no scaling was requested
func (s Size) IsZero() bool {
	return s.Width == "" && s.Height == ""
}

// Chroma describes the key color removed from a meme
type Chroma struct {
	Color      string
	Similarity float64
	Blend      float64
}
