// Package compose turns a timeline and its overlay plan into a filter graph.
package compose

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/keagan/reelforge/internal/graph"
	"github.com/keagan/reelforge/internal/overlays"
	"github.com/keagan/reelforge/internal/timeline"
	"github.com/keagan/reelforge/pkg/util"
)

var (
	// ErrStreamParity means the per-segment video and audio streams do not
	// line up. It is never recoverable.
	ErrStreamParity  = errors.New("audio and video segment counts differ")
	ErrEmptyTimeline = errors.New("timeline has no segments")
)

const defaultSampleRate = 48000

// Emitter builds render graphs
type Emitter struct {
	logger zerolog.Logger
}

// NewEmitter creates an emitter
func NewEmitter(logger zerolog.Logger) *Emitter {
	return &Emitter{logger: logger.With().Str("component", "compose").Logger()}
}

// emission carries the builder state of one Emit call
type emission struct {
	b     *graph.Builder
	spec  OutputSpec
	total float64
	rate  int
}

// Emit builds the graph for tl with events applied in order
func (e *Emitter) Emit(tl *timeline.Timeline, events []overlays.Event, spec OutputSpec) (*graph.Graph, error) {
	if tl == nil || tl.Len() == 0 {
		return nil, ErrEmptyTimeline
	}

	em := &emission{
		b:     graph.NewBuilder(),
		spec:  spec,
		total: tl.Duration(),
		rate:  spec.SampleRate,
	}
	if em.rate <= 0 {
		em.rate = defaultSampleRate
	}

	videos := make([]graph.Ref, 0, tl.Len())
	audios := make([]graph.Ref, 0, tl.Len())
	for _, seg := range tl.Segments {
		v, a := em.segment(seg)
		videos = append(videos, v)
		audios = append(audios, a)
	}
	if err := checkParity(videos, audios); err != nil {
		return nil, err
	}

	video := em.b.Concat(videos, 1, 0)
	clipAudio := em.b.Concat(audios, 0, 1)

	var audio *graph.Ref
	switch {
	case spec.Voiceover != nil:
		vo := em.voiceover(*spec.Voiceover)
		audio = &vo
	case spec.ClipAudio:
		audio = &clipAudio
	}

	applied := 0
	for _, ev := range events {
		switch {
		case ev.Kind == overlays.KindBGM:
			audio = em.bgm(ev, audio)
		case ev.Kind.Global():
			video = em.global(video, ev)
		default:
			video = em.overlay(video, ev)
		}
		applied++
	}

	streams := []graph.Ref{video}
	if audio != nil {
		streams = append(streams, *audio)
	}
	em.b.Output(spec.Path, streams, em.outputParams(audio != nil)...)

	g, err := em.b.Build()
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Int("segments", tl.Len()).
		Int("overlays", applied).
		Bool("audio", audio != nil).
		Int("nodes", len(g.Nodes)).
		Msg("graph emitted")
	return g, nil
}

func checkParity(videos, audios []graph.Ref) error {
	if len(videos) != len(audios) {
		return fmt.Errorf("%w: %d video, %d audio", ErrStreamParity, len(videos), len(audios))
	}
	return nil
}

// segment emits one normalized video stream and one audio stream
func (em *emission) segment(seg timeline.Segment) (graph.Ref, graph.Ref) {
	spec := em.spec
	var chain *graph.Chain
	var audio graph.Ref

	if seg.IsImage() {
		src := em.b.Source(seg.Asset.Path,
			graph.P("loop", 1),
			graph.P("framerate", spec.FPS),
			graph.P("t", seg.Duration),
		)
		chain = em.b.Chain(graph.V(src))
		audio = em.silence(seg.Duration)
	} else {
		src := em.b.Source(seg.Asset.Path)
		chain = em.b.Chain(graph.V(src)).Trim(seg.Trim.Start, seg.Trim.End)
		if seg.Asset.HasAudio {
			audio = em.b.Chain(graph.A(src)).
				Trim(seg.Trim.Start, seg.Trim.End).
				Custom("aformat", em.audioFormat()...).
				Ref()
		} else {
			audio = em.silence(seg.Duration)
		}
	}

	chain.Fit(spec.Width, spec.Height).FPS(spec.FPS)

	fade := math.Min(spec.TransitionDuration, seg.Duration/2)
	if fade > 0 {
		if seg.TransitionIn == "fade" {
			chain.Fade("in", 0, fade)
		}
		if seg.TransitionOut == "fade" {
			chain.Fade("out", seg.Duration-fade, fade)
		}
	}

	return chain.Ref(), audio
}

// silence is a stereo track of seconds length
func (em *emission) silence(seconds float64) graph.Ref {
	expr := "anullsrc=channel_layout=stereo:sample_rate=" + strconv.Itoa(em.rate)
	return graph.A(em.b.Generator(expr, graph.P("t", seconds)))
}

func (em *emission) audioFormat() []graph.Param {
	return []graph.Param{
		graph.P("sample_rates", em.rate),
		graph.P("channel_layouts", "stereo"),
	}
}

func (em *emission) voiceover(vo Voiceover) graph.Ref {
	src := em.b.Source(vo.Path)
	chain := em.b.Chain(graph.A(src)).Custom("aformat", em.audioFormat()...)
	if vo.Volume > 0 && vo.Volume != 1 {
		chain.Volume(vo.Volume)
	}
	if vo.Start <= 0 {
		return chain.Ref()
	}
	return em.b.Concat([]graph.Ref{em.silence(vo.Start), chain.Ref()}, 0, 1)
}

// bgm loops the music over the whole output and mixes it under primary, or
// makes it the primary audio when there is none
func (em *emission) bgm(ev overlays.Event, primary *graph.Ref) *graph.Ref {
	src := em.b.Source(ev.AssetPath, graph.P("stream_loop", -1), graph.P("t", em.total))
	chain := em.b.Chain(graph.A(src)).Custom("aformat", em.audioFormat()...)
	if ev.Volume > 0 {
		chain.Volume(ev.Volume)
	}
	music := chain.Ref()

	if primary == nil {
		return &music
	}

	mode := ev.MixDuration
	if mode == "" {
		mode = "first"
	}
	mixed := em.b.Filter(graph.Audio, "amix", []graph.Ref{*primary, music},
		graph.P("inputs", 2),
		graph.P("duration", mode),
		graph.P("dropout_transition", 0),
	)
	return &mixed
}

// global applies whole-stream transforms
func (em *emission) global(base graph.Ref, ev overlays.Event) graph.Ref {
	switch ev.Kind {
	case overlays.KindColorLUT:
		return em.b.Chain(base).Custom("lut3d", graph.P("file", ev.AssetPath), graph.P("interp", "trilinear")).Ref()
	case overlays.KindSubtitleBurn:
		params := []graph.Param{graph.P("filename", ev.AssetPath)}
		if ev.Style != "" {
			params = append(params, graph.P("force_style", ev.Style))
		}
		return em.b.Chain(base).Custom("subtitles", params...).Ref()
	}
	return base
}

// overlay composites a second input onto base inside the event window
func (em *emission) overlay(base graph.Ref, ev overlays.Event) graph.Ref {
	length := ev.Window.Duration()

	var chain *graph.Chain
	eof := "repeat"
	if ev.Loop {
		opts := []graph.Param{graph.P("t", length)}
		if util.GetExtension(ev.AssetPath) == ".gif" {
			opts = append([]graph.Param{graph.P("ignore_loop", 0)}, opts...)
		} else {
			opts = append([]graph.Param{graph.P("stream_loop", -1)}, opts...)
		}
		src := em.b.Source(ev.AssetPath, opts...)
		chain = em.b.Chain(graph.V(src))
		eof = "pass"
	} else {
		chain = em.b.Chain(graph.V(em.b.Source(ev.AssetPath)))
	}

	if ev.Chroma != nil {
		chain.Custom("chromakey",
			graph.P("color", ev.Chroma.Color),
			graph.P("similarity", ev.Chroma.Similarity),
			graph.P("blend", ev.Chroma.Blend),
		)
	}
	if !ev.Size.IsZero() {
		w, h := ev.Size.Width, ev.Size.Height
		if w == "" {
			w = "-1"
		}
		if h == "" {
			h = "-1"
		}
		chain.Scale(w, h)
	}
	chain.Opacity(ev.Opacity)
	if ev.Loop {
		chain.Delay(ev.Window.Start)
	}

	x, y := ev.Anchor.X, ev.Anchor.Y
	if x == "" {
		x = "0"
	}
	if y == "" {
		y = "0"
	}
	return em.b.Filter(graph.Video, "overlay", []graph.Ref{base, chain.Ref()},
		graph.P("x", x),
		graph.P("y", y),
		graph.P("enable", ev.Window.Enable()),
		graph.P("eof_action", eof),
	)
}

// outputParams attaches encoder settings. Audio settings are only added when
// an audio stream is mapped.
func (em *emission) outputParams(hasAudio bool) []graph.Param {
	spec := em.spec
	enc := spec.Encoding

	params := []graph.Param{graph.P("c:v", enc.VideoCodec)}
	if enc.Preset != "" {
		params = append(params, graph.P("preset", enc.Preset))
	}
	if enc.Tune != "" {
		params = append(params, graph.P("tune", enc.Tune))
	}
	if key, value, ok := enc.RateControl(); ok {
		params = append(params, graph.P(key, value))
	}
	if spec.Width > 0 && spec.Height > 0 {
		params = append(params, graph.P("s", fmt.Sprintf("%dx%d", spec.Width, spec.Height)))
	}
	params = append(params, graph.P("r", spec.FPS))
	for _, f := range enc.ExtraFlags() {
		params = append(params, graph.P(f.Key, f.Value))
	}
	if spec.Threads > 0 {
		params = append(params, graph.P("threads", spec.Threads))
	}
	if spec.BufferSize != "" {
		params = append(params, graph.P("bufsize", spec.BufferSize))
	}

	if hasAudio {
		if spec.AudioCodec != "" {
			params = append(params, graph.P("c:a", spec.AudioCodec))
		}
		if spec.AudioBitrate != "" {
			params = append(params, graph.P("b:a", spec.AudioBitrate))
		}
		params = append(params, graph.P("ar", em.rate))
	}

	return append(params, graph.P("t", em.total))
}
