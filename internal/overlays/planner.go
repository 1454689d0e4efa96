package overlays

import (
	"math"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/keagan/reelforge/internal/assets"
	"github.com/keagan/reelforge/internal/config"
	"github.com/keagan/reelforge/internal/emotion"
	"github.com/keagan/reelforge/internal/graph"
	"github.com/keagan/reelforge/internal/subtitles"
	"github.com/keagan/reelforge/internal/timeline"
	"github.com/keagan/reelforge/pkg/util"
)

// Rand picks among candidates
type Rand interface {
	Intn(n int) int
}

// Track is the caption input of one run
type Track struct {
	// Spans drive emotion-triggered overlays.
	Spans []subtitles.Span
	// BurnFile is the caption file rendered onto the video, if any.
	BurnFile string
}

// Planner decides which overlays a run gets. Every missing asset or folder
// disables only its own feature.
type Planner struct {
	logger     zerolog.Logger
	cfg        *config.Config
	registry   *Registry
	classifier emotion.Classifier
	rng        Rand
}

// NewPlanner creates a planner over a resolved configuration
func NewPlanner(logger zerolog.Logger, cfg *config.Config, classifier emotion.Classifier, rng Rand) *Planner {
	if classifier == nil {
		classifier = emotion.NeutralClassifier{}
	}
	return &Planner{
		logger:     logger.With().Str("component", "overlays").Logger(),
		cfg:        cfg,
		registry:   NewRegistryFromConfig(cfg),
		classifier: classifier,
		rng:        rng,
	}
}

// LoadTrack finds the caption files matching a voiceover base name. Missing
// or unparseable files leave the matching part of the track empty.
func (p *Planner) LoadTrack(voiceoverName string) *Track {
	track := &Track{}
	f := p.cfg.Features
	ext := p.cfg.Subtitles.Extension

	if f.GIFs || f.Stickers || f.Memes {
		path := filepath.Join(p.cfg.Folders.FullSentenceSubtitles, voiceoverName+ext)
		if !util.FileExists(path) {
			p.logger.Warn().Str("path", path).Msg("no captions for emotion overlays")
		} else if spans, err := subtitles.Load(path); err != nil {
			p.logger.Warn().Err(err).Msg("skipping emotion overlays")
		} else {
			track.Spans = spans
		}
	}

	if f.SubtitleBurn {
		path := filepath.Join(p.cfg.Folders.Subtitles, voiceoverName+ext)
		if util.FileExists(path) {
			track.BurnFile = path
		} else {
			p.logger.Warn().Str("path", path).Msg("no captions to burn")
		}
	}

	return track
}

// Plan returns the overlay events for tl in application order, followed by
// the BGM event when there is one.
func (p *Planner) Plan(tl *timeline.Timeline, track *Track) []Event {
	if track == nil {
		track = &Track{}
	}
	duration := tl.Duration()
	if duration <= 0 {
		return nil
	}
	whole := graph.Window{Start: 0, End: duration}
	f := p.cfg.Features

	byKind := make(map[Kind][]Event)
	add := func(ev *Event) {
		if ev != nil {
			byKind[ev.Kind] = append(byKind[ev.Kind], *ev)
		}
	}

	if f.LUT {
		add(p.globalFile(KindColorLUT, p.cfg.Files.LUT, whole))
	}
	if f.AestheticFrame {
		add(p.aestheticFrame(whole))
	}
	if f.CinematicEffect {
		add(p.cinematicEffect(whole))
	}
	if f.Watermark {
		add(p.watermark(duration))
	}
	if f.GIFs {
		for _, ev := range p.emotional(KindGIF, p.cfg.Folders.GIFs, p.cfg.GIF, track.Spans, duration) {
			add(&ev)
		}
	}
	if f.Stickers {
		for _, ev := range p.emotional(KindSticker, p.cfg.Folders.Stickers, p.cfg.Sticker, track.Spans, duration) {
			add(&ev)
		}
	}
	if f.Memes {
		for _, ev := range p.emotional(KindChromaMeme, p.cfg.Folders.Memes, p.cfg.Meme.OverlayConfig, track.Spans, duration) {
			add(&ev)
		}
	}
	if f.SubtitleBurn && track.BurnFile != "" {
		if ev := p.globalFile(KindSubtitleBurn, track.BurnFile, whole); ev != nil {
			ev.Style = p.cfg.Subtitles.ForceStyle
			add(ev)
		}
	}

	var events []Event
	for _, kind := range Order {
		events = append(events, byKind[kind]...)
	}

	if f.BGM {
		if ev := p.bgm(whole); ev != nil {
			events = append(events, *ev)
		}
	}

	p.logger.Debug().Int("events", len(events)).Msg("overlay plan ready")
	return events
}

func (p *Planner) globalFile(kind Kind, path string, whole graph.Window) *Event {
	if !util.FileExists(path) {
		p.logger.Warn().Str("kind", string(kind)).Str("path", path).Msg("asset missing, feature skipped")
		return nil
	}
	return &Event{Kind: kind, AssetPath: path, Window: whole, Opacity: 1}
}

func (p *Planner) aestheticFrame(whole graph.Window) *Event {
	ev := p.globalFile(KindAestheticFrame, p.cfg.Files.AestheticFrame, whole)
	if ev == nil {
		return nil
	}
	ev.Anchor = Placement{Name: "origin", X: "0", Y: "0"}
	ev.Size = p.fullscreen()
	return ev
}

func (p *Planner) cinematicEffect(whole graph.Window) *Event {
	ev := p.globalFile(KindCinematicEffect, p.cfg.Files.CinematicEffect, whole)
	if ev == nil {
		return nil
	}
	ev.Anchor = p.anchor(p.cfg.Cinematic.Position, config.Margin{}, "center")
	ev.Size = p.fullscreen()
	ev.Opacity = p.cfg.Cinematic.Opacity
	ev.Loop = true
	return ev
}

func (p *Planner) watermark(duration float64) *Event {
	wm := p.cfg.Watermark
	window := graph.Window{Start: 0, End: duration}
	if wm.When.End > 0 {
		window = graph.Window{Start: wm.When.Start, End: math.Min(wm.When.End, duration)}
	}
	if window.Duration() <= 0 {
		p.logger.Warn().Msg("watermark window outside the video, skipped")
		return nil
	}

	ev := p.globalFile(KindWatermark, p.cfg.Files.Watermark, window)
	if ev == nil {
		return nil
	}
	ev.Anchor = p.anchor(wm.Position, wm.Margin, "top-left")
	ev.Size = Size{Width: p.registry.Expr(wm.Width), Height: "-1"}
	ev.Opacity = wm.Opacity
	return ev
}

func (p *Planner) bgm(whole graph.Window) *Event {
	pool := assets.ScanFolder(p.cfg.Folders.BGM, assets.AudioExtensions)
	if len(pool) == 0 {
		p.logger.Warn().Str("folder", p.cfg.Folders.BGM).Msg("no background music found")
		return nil
	}
	ref := pool[p.rng.Intn(len(pool))]
	return &Event{
		Kind:        KindBGM,
		AssetPath:   ref.Path,
		Window:      whole,
		Volume:      p.cfg.BGM.Volume,
		MixDuration: p.cfg.BGM.MixDuration,
		Loop:        true,
	}
}

// emotional plans one category of caption-triggered overlays in span order
func (p *Planner) emotional(kind Kind, root string, oc config.OverlayConfig, spans []subtitles.Span, duration float64) []Event {
	if len(spans) == 0 {
		return nil
	}
	if !util.DirExists(root) {
		p.logger.Warn().Str("kind", string(kind)).Str("folder", root).Msg("overlay folder missing, feature skipped")
		return nil
	}

	anchor := p.anchor(oc.Position, oc.Margin, "top-left")
	size, ok := p.registry.Size(oc.Size)
	if !ok && oc.Size != "" {
		p.logger.Warn().Str("preset", oc.Size).Msg("unknown size preset, keeping native size")
	}

	var events []Event
	for _, span := range spans {
		if span.WordCount() < p.cfg.Emotion.MinWords {
			continue
		}
		label := p.classifier.Classify(span.Text)
		if label == emotion.Neutral || label == "" {
			continue
		}

		candidates := assets.ScanFolder(filepath.Join(root, label), oc.Extensions)
		if len(candidates) == 0 {
			continue
		}

		window := p.spanWindow(span, duration)
		if window.Duration() <= 0 {
			continue
		}

		ev := Event{
			Kind:      kind,
			AssetPath: candidates[p.rng.Intn(len(candidates))].Path,
			Window:    window,
			Anchor:    anchor,
			Size:      size,
			Opacity:   1,
			Emotion:   label,
			Loop:      kind != KindSticker,
		}
		if kind == KindChromaMeme {
			ev.Size = Size{Width: p.registry.Expr(p.cfg.Meme.Width), Height: "-1"}
			ev.Chroma = &Chroma{
				Color:      p.cfg.Meme.ChromaColor,
				Similarity: p.cfg.Meme.Similarity,
				Blend:      p.cfg.Meme.Blend,
			}
		}
		events = append(events, ev)
	}

	p.logger.Debug().Str("kind", string(kind)).Int("events", len(events)).Msg("emotion overlays planned")
	return events
}

// spanWindow caps a caption span at the max display time and the video end
func (p *Planner) spanWindow(span subtitles.Span, duration float64) graph.Window {
	end := math.Min(span.End, duration)
	if limit := p.cfg.Emotion.MaxDisplay; limit > 0 {
		end = math.Min(end, span.Start+limit)
	}
	return graph.Window{Start: span.Start, End: end}
}

func (p *Planner) anchor(name string, margin config.Margin, fallback string) Placement {
	if a, ok := p.registry.Anchor(name, margin); ok {
		return a
	}
	p.logger.Warn().Str("anchor", name).Str("fallback", fallback).Msg("unknown anchor")
	if a, ok := p.registry.Anchor(fallback, margin); ok {
		return a
	}
	return Placement{Name: "origin", X: "0", Y: "0"}
}

func (p *Planner) fullscreen() Size {
	return Size{
		Width:  p.registry.Expr("W"),
		Height: p.registry.Expr("H"),
	}
}
