// Package timeline selects and times the clips that make up one video.
package timeline

import (
	"context"
	"errors"

	"github.com/keagan/reelforge/internal/assets"
	"github.com/keagan/reelforge/internal/config"
	"github.com/keagan/reelforge/internal/media"
)

// ErrInvalidPolicy is returned for a policy the builder cannot honor
var ErrInvalidPolicy = errors.New("invalid selection policy")

// epsilon absorbs floating point noise in duration bookkeeping
const epsilon = 1e-6

// Role is where a segment sits in the video
type Role string

const (
	RoleIntro Role = "intro"
	RoleMain  Role = "main"
	RoleOutro Role = "outro"
)

// Window is a [Start, End) range of a source file in seconds
type Window struct {
	Start float64
	End   float64
}

// Duration returns End - Start
func (w Window) Duration() float64 {
	return w.End - w.Start
}

// Segment is one timed unit of the timeline. For videos Duration always
// equals Trim.End - Trim.Start; images have no Trim.
type Segment struct {
	Asset         assets.Ref
	Role          Role
	Duration      float64
	Trim          *Window
	TransitionIn  string
	TransitionOut string
}

// IsImage reports whether the segment shows a still image
func (s Segment) IsImage() bool {
	return s.Trim == nil
}

// Timeline is an ordered list of segments
type Timeline struct {
	Segments []Segment
	// Target is the duration the builder aimed for.
	Target float64
	// Exhausted is set when the pools ran dry before Target was reached.
	Exhausted bool
}

// Duration returns the sum of segment durations
func (t *Timeline) Duration() float64 {
	var total float64
	for _, s := range t.Segments {
		total += s.Duration
	}
	return total
}

// Len returns the number of segments
func (t *Timeline) Len() int {
	return len(t.Segments)
}

// Rand is the random source used for every selection. *math/rand.Rand
// satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// Prober reports native media facts for a file
type Prober interface {
	Inspect(ctx context.Context, path string) media.Info
}

// Pools holds the candidate assets for the main section
type Pools struct {
	Video []assets.Ref
	Image []assets.Ref
}

// Transitions names the transitions attached to main segments
type Transitions struct {
	In  string
	Out string
}

// Policy controls selection
type Policy struct {
	// ImagePercentage is the per-slot probability, in percent, of picking an
	// image. In count mode it is a fixed quota instead.
	ImagePercentage int
	UniqueAssets    bool
	ImageDuration   float64
	// CountTarget selects count mode when no target duration is given and
	// caps the number of segments otherwise. Zero disables it.
	CountTarget       int
	Mode              Mode
	SubclipLength     float64
	TinySubclipLength float64
	// OverageTolerance is the shortest the last segment may become when
	// trimming off an overage.
	OverageTolerance float64
	Transitions      Transitions
}

// PolicyFromConfig derives a policy from the selection settings
func PolicyFromConfig(cfg *config.Config) Policy {
	p := Policy{
		ImagePercentage:   cfg.Selection.ImagePercentage,
		UniqueAssets:      cfg.Selection.UniqueAssets,
		ImageDuration:     cfg.Selection.ImageDuration,
		CountTarget:       cfg.Selection.CountTarget,
		Mode:              Mode(cfg.Selection.VideoMode),
		SubclipLength:     cfg.Selection.SubclipLength,
		TinySubclipLength: cfg.Selection.TinySubclipLength,
		OverageTolerance:  cfg.Selection.OverageTolerance,
	}
	if cfg.Features.Transitions {
		p.Transitions = Transitions{In: cfg.Transitions.In, Out: cfg.Transitions.Out}
	}
	return p
}

func (p Policy) validate() error {
	switch {
	case p.ImagePercentage < 0 || p.ImagePercentage > 100:
		return errors.Join(ErrInvalidPolicy, errors.New("image percentage outside 0-100"))
	case p.ImageDuration <= 0:
		return errors.Join(ErrInvalidPolicy, errors.New("image duration must be positive"))
	case p.OverageTolerance < 0:
		return errors.Join(ErrInvalidPolicy, errors.New("overage tolerance must not be negative"))
	}
	return nil
}
