package timeline

import (
	"fmt"
	"math"
)

// Mode names a video trim strategy
type Mode string

const (
	ModeFullClip      Mode = "full_clip"
	ModeStartRandom   Mode = "start_random"
	ModeSplitSubclips Mode = "split_subclips"
	ModeTinySubclips  Mode = "tiny_subclips"
)

// Strategy picks the part of a video to use. The returned window lies inside
// [0, native] and is never longer than remaining.
type Strategy interface {
	Window(native, remaining float64, rng Rand) Window
}

// StrategyFor returns the strategy selected by the policy
func StrategyFor(p Policy) (Strategy, error) {
	switch p.Mode {
	case ModeFullClip, "":
		return fullClip{}, nil
	case ModeStartRandom:
		return startRandom{}, nil
	case ModeSplitSubclips:
		return subclip{length: p.SubclipLength}, nil
	case ModeTinySubclips:
		return subclip{length: p.TinySubclipLength}, nil
	}
	return nil, fmt.Errorf("%w: unknown video mode %q", ErrInvalidPolicy, p.Mode)
}

type fullClip struct{}

func (fullClip) Window(native, remaining float64, _ Rand) Window {
	return Window{Start: 0, End: math.Min(native, remaining)}
}

// startRandom takes the same length as fullClip from a random offset
type startRandom struct{}

func (startRandom) Window(native, remaining float64, rng Rand) Window {
	use := math.Min(native, remaining)
	offset := rng.Float64() * (native - use)
	return Window{Start: offset, End: offset + use}
}

// subclip cuts the video into chunks of length and uses one at random
type subclip struct {
	length float64
}

func (s subclip) Window(native, remaining float64, rng Rand) Window {
	chunk := s.length
	if chunk <= 0 || chunk > native {
		chunk = native
	}

	chunks := int(native / chunk)
	if chunks < 1 {
		chunks = 1
	}

	start := float64(rng.Intn(chunks)) * chunk
	end := math.Min(start+chunk, native)
	if end-start > remaining {
		end = start + remaining
	}
	return Window{Start: start, End: end}
}
