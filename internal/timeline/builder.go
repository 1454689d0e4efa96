package timeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/keagan/reelforge/internal/assets"
)

// Builder assembles timelines. A Builder holds its own random source and is
// not safe for concurrent use; give every run its own.
type Builder struct {
	logger zerolog.Logger
	prober Prober
	rng    Rand
}

// NewBuilder creates a builder
func NewBuilder(logger zerolog.Logger, prober Prober, rng Rand) *Builder {
	return &Builder{
		logger: logger.With().Str("component", "timeline").Logger(),
		prober: prober,
		rng:    rng,
	}
}

// Build selects main segments filling target seconds. With target <= 0 and
// a CountTarget, it selects a fixed number of segments instead.
func (b *Builder) Build(ctx context.Context, target float64, pools Pools, policy Policy) (*Timeline, error) {
	if err := policy.validate(); err != nil {
		return nil, err
	}

	strategy, err := StrategyFor(policy)
	if err != nil {
		return nil, err
	}

	videos := append([]assets.Ref(nil), pools.Video...)
	images := append([]assets.Ref(nil), pools.Image...)
	b.shuffle(videos)
	b.shuffle(images)

	var tl *Timeline
	switch {
	case target > 0:
		tl = b.fillDuration(ctx, target, videos, images, policy, strategy)
	case policy.CountTarget > 0:
		tl = b.fillCount(ctx, videos, images, policy, strategy)
	default:
		return nil, fmt.Errorf("%w: need a positive target duration or count", ErrInvalidPolicy)
	}

	b.logger.Debug().
		Int("segments", tl.Len()).
		Float64("duration", tl.Duration()).
		Float64("target", target).
		Bool("exhausted", tl.Exhausted).
		Msg("timeline built")

	return tl, nil
}

func (b *Builder) fillDuration(ctx context.Context, target float64, videos, images []assets.Ref, policy Policy, strategy Strategy) *Timeline {
	tl := &Timeline{Target: target}
	var accumulated float64

	for target-accumulated > epsilon {
		if policy.CountTarget > 0 && tl.Len() >= policy.CountTarget {
			break
		}
		if len(videos) == 0 && len(images) == 0 {
			tl.Exhausted = true
			break
		}

		draw := b.rng.Intn(100) + 1
		useImage := (draw <= policy.ImagePercentage && len(images) > 0) || len(videos) == 0

		if useImage {
			var ref assets.Ref
			ref, images = b.pick(images, policy.UniqueAssets)
			seg := b.imageSegment(ref, policy)
			tl.Segments = append(tl.Segments, seg)
			accumulated += seg.Duration
			continue
		}

		idx := b.index(len(videos), policy.UniqueAssets)
		ref := videos[idx]
		info := b.prober.Inspect(ctx, ref.Path)
		if info.Duration <= 0 {
			// unusable for the rest of the run, whatever the uniqueness policy
			b.logger.Warn().Str("path", ref.Path).Msg("skipping video with unusable duration")
			videos = remove(videos, idx)
			continue
		}
		if policy.UniqueAssets {
			videos = remove(videos, idx)
		}

		ref.NativeDuration = info.Duration
		ref.HasAudio = info.HasAudio
		window := strategy.Window(info.Duration, target-accumulated, b.rng)
		if window.Duration() <= epsilon {
			continue
		}

		tl.Segments = append(tl.Segments, Segment{
			Asset:         ref,
			Role:          RoleMain,
			Duration:      window.Duration(),
			Trim:          &window,
			TransitionIn:  policy.Transitions.In,
			TransitionOut: policy.Transitions.Out,
		})
		accumulated += window.Duration()
	}

	b.correctOverage(tl, target, policy.OverageTolerance)
	return tl
}

// correctOverage shrinks the last segment so the total does not exceed
// target. The segment never drops below floor; what cannot be absorbed is
// left as a logged residual overage.
func (b *Builder) correctOverage(tl *Timeline, target, floor float64) {
	if tl.Len() == 0 {
		return
	}

	over := tl.Duration() - target
	if over <= epsilon {
		return
	}

	last := &tl.Segments[tl.Len()-1]
	shrink := over
	if last.Duration-shrink < floor {
		shrink = last.Duration - floor
		if shrink < 0 {
			shrink = 0
		}
		b.logger.Warn().
			Float64("overage", over).
			Float64("absorbed", shrink).
			Msg("last segment too short to absorb overage")
	}

	if last.Trim != nil {
		last.Trim.End -= shrink
		last.Duration = last.Trim.Duration()
	} else {
		last.Duration -= shrink
	}
}

func (b *Builder) fillCount(ctx context.Context, videos, images []assets.Ref, policy Policy, strategy Strategy) *Timeline {
	tl := &Timeline{}
	count := policy.CountTarget

	quota := count * policy.ImagePercentage / 100
	for i := 0; i < quota && len(images) > 0; i++ {
		var ref assets.Ref
		ref, images = b.pick(images, policy.UniqueAssets)
		tl.Segments = append(tl.Segments, b.imageSegment(ref, policy))
	}

	for tl.Len() < count && len(videos) > 0 {
		idx := b.index(len(videos), policy.UniqueAssets)
		ref := videos[idx]
		info := b.prober.Inspect(ctx, ref.Path)
		if info.Duration <= 0 {
			b.logger.Warn().Str("path", ref.Path).Msg("skipping video with unusable duration")
			videos = remove(videos, idx)
			continue
		}
		if policy.UniqueAssets {
			videos = remove(videos, idx)
		}

		ref.NativeDuration = info.Duration
		ref.HasAudio = info.HasAudio
		window := strategy.Window(info.Duration, info.Duration, b.rng)
		tl.Segments = append(tl.Segments, Segment{
			Asset:         ref,
			Role:          RoleMain,
			Duration:      window.Duration(),
			Trim:          &window,
			TransitionIn:  policy.Transitions.In,
			TransitionOut: policy.Transitions.Out,
		})
	}

	// top up with images when videos ran out
	for tl.Len() < count && len(images) > 0 {
		var ref assets.Ref
		ref, images = b.pick(images, policy.UniqueAssets)
		tl.Segments = append(tl.Segments, b.imageSegment(ref, policy))
	}

	tl.Exhausted = tl.Len() < count
	b.rng.Shuffle(tl.Len(), func(i, j int) {
		tl.Segments[i], tl.Segments[j] = tl.Segments[j], tl.Segments[i]
	})
	tl.Target = tl.Duration()
	return tl
}

func (b *Builder) imageSegment(ref assets.Ref, policy Policy) Segment {
	return Segment{
		Asset:         ref,
		Role:          RoleMain,
		Duration:      policy.ImageDuration,
		TransitionIn:  policy.Transitions.In,
		TransitionOut: policy.Transitions.Out,
	}
}

// pick takes the front candidate when unique, otherwise a random one with
// replacement. The possibly shortened pool is returned.
func (b *Builder) pick(pool []assets.Ref, unique bool) (assets.Ref, []assets.Ref) {
	idx := b.index(len(pool), unique)
	ref := pool[idx]
	if unique {
		pool = remove(pool, idx)
	}
	return ref, pool
}

func (b *Builder) index(n int, unique bool) int {
	if unique {
		return 0
	}
	return b.rng.Intn(n)
}

func (b *Builder) shuffle(refs []assets.Ref) {
	b.rng.Shuffle(len(refs), func(i, j int) {
		refs[i], refs[j] = refs[j], refs[i]
	})
}

func remove(refs []assets.Ref, idx int) []assets.Ref {
	out := make([]assets.Ref, 0, len(refs)-1)
	out = append(out, refs[:idx]...)
	return append(out, refs[idx+1:]...)
}
