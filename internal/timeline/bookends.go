package timeline

import (
	"context"
	"math"

	"github.com/keagan/reelforge/internal/assets"
)

// Intro picks one random usable candidate and plays it in full
func (b *Builder) Intro(ctx context.Context, pool []assets.Ref, imageDuration float64) *Segment {
	ref, native, ok := b.pickUsable(ctx, pool)
	if !ok {
		return nil
	}

	if ref.Kind == assets.KindImage {
		return &Segment{Asset: ref, Role: RoleIntro, Duration: imageDuration}
	}
	return &Segment{
		Asset:    ref,
		Role:     RoleIntro,
		Duration: native,
		Trim:     &Window{Start: 0, End: native},
	}
}

// Outro picks one random usable candidate and cuts it to trim, with the end
// clamped to the native duration. A zero trim end means the whole file.
func (b *Builder) Outro(ctx context.Context, pool []assets.Ref, trim Window, imageDuration float64, transitionIn string) *Segment {
	ref, native, ok := b.pickUsable(ctx, pool)
	if !ok {
		return nil
	}

	if ref.Kind == assets.KindImage {
		return &Segment{Asset: ref, Role: RoleOutro, Duration: imageDuration, TransitionIn: transitionIn}
	}

	end := native
	if trim.End > 0 {
		end = math.Min(trim.End, native)
	}
	window := Window{Start: math.Max(trim.Start, 0), End: end}
	if window.Duration() <= epsilon {
		b.logger.Warn().
			Str("path", ref.Path).
			Float64("native", native).
			Msg("outro trim leaves nothing to play")
		return nil
	}

	return &Segment{
		Asset:        ref,
		Role:         RoleOutro,
		Duration:     window.Duration(),
		Trim:         &window,
		TransitionIn: transitionIn,
	}
}

func (b *Builder) pickUsable(ctx context.Context, pool []assets.Ref) (assets.Ref, float64, bool) {
	candidates := append([]assets.Ref(nil), pool...)
	for len(candidates) > 0 {
		idx := b.rng.Intn(len(candidates))
		ref := candidates[idx]

		if ref.Kind == assets.KindImage {
			return ref, 0, true
		}

		info := b.prober.Inspect(ctx, ref.Path)
		if info.Duration > 0 {
			ref.NativeDuration = info.Duration
			ref.HasAudio = info.HasAudio
			return ref, info.Duration, true
		}

		b.logger.Warn().Str("path", ref.Path).Msg("skipping bookend with unusable duration")
		candidates = remove(candidates, idx)
	}
	return assets.Ref{}, 0, false
}

// Assemble places optional intro and outro around the core timeline
func Assemble(intro *Segment, core *Timeline, outro *Segment) *Timeline {
	out := &Timeline{Target: core.Target, Exhausted: core.Exhausted}
	if intro != nil {
		s := *intro
		s.Role = RoleIntro
		out.Segments = append(out.Segments, s)
	}
	out.Segments = append(out.Segments, core.Segments...)
	if outro != nil {
		s := *outro
		s.Role = RoleOutro
		out.Segments = append(out.Segments, s)
	}
	return out
}
