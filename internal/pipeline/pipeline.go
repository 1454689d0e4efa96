// Package pipeline runs voiceovers through selection, planning and encoding.
package pipeline

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keagan/reelforge/internal/assets"
	"github.com/keagan/reelforge/internal/compose"
	"github.com/keagan/reelforge/internal/config"
	"github.com/keagan/reelforge/internal/emotion"
	"github.com/keagan/reelforge/internal/ffmpeg"
	"github.com/keagan/reelforge/internal/logging"
	"github.com/keagan/reelforge/internal/media"
	"github.com/keagan/reelforge/internal/overlays"
	"github.com/keagan/reelforge/internal/timeline"
	"github.com/keagan/reelforge/pkg/util"
)

// Deps are the collaborators of a pipeline
type Deps struct {
	Renderer   Renderer
	Prober     timeline.Prober
	Classifier emotion.Classifier
}

// Pipeline orchestrates the entire video assembly workflow. It is safe for
// concurrent use; every run gets its own random source.
type Pipeline struct {
	logger  zerolog.Logger
	config  *config.Config
	deps    Deps
	emitter *compose.Emitter
}

// New creates a pipeline backed by the ffmpeg engine
func New(logger zerolog.Logger, cfg *config.Config) (*Pipeline, error) {
	exec, err := ffmpeg.New(logger, ffmpeg.Options{
		FFmpegPath:  cfg.FFmpeg.BinaryPath,
		FFprobePath: cfg.FFmpeg.ProbePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	return NewWithDeps(logger, cfg, Deps{
		Renderer:   exec,
		Prober:     media.New(logger, exec),
		Classifier: loadClassifier(logger, cfg.Resolve()),
	}), nil
}

// NewWithDeps creates a pipeline with explicit collaborators
func NewWithDeps(logger zerolog.Logger, cfg *config.Config, deps Deps) *Pipeline {
	if deps.Classifier == nil {
		deps.Classifier = emotion.NeutralClassifier{}
	}
	return &Pipeline{
		logger:  logger.With().Str("component", "pipeline").Logger(),
		config:  cfg.Resolve(),
		deps:    deps,
		emitter: compose.NewEmitter(logger),
	}
}

// WithConfig returns a pipeline sharing p's collaborators under another
// configuration
func (p *Pipeline) WithConfig(cfg *config.Config) *Pipeline {
	return &Pipeline{
		logger:  p.logger,
		config:  cfg.Resolve(),
		deps:    p.deps,
		emitter: p.emitter,
	}
}

// Config returns the resolved configuration
func (p *Pipeline) Config() *config.Config {
	return p.config
}

func loadClassifier(logger zerolog.Logger, cfg *config.Config) emotion.Classifier {
	path := cfg.Emotion.LexiconFile
	if path == "" || !util.FileExists(path) {
		return emotion.DefaultLexicon()
	}
	lex, err := emotion.LoadLexicon(path)
	if err != nil {
		logger.Warn().Err(err).Msg("using built-in emotion lexicon")
		return emotion.DefaultLexicon()
	}
	return lex
}

// Voiceovers lists the voiceovers this pipeline would process
func (p *Pipeline) Voiceovers() []string {
	if p.config.VoiceoverFile != "" {
		return []string{p.config.VoiceoverFile}
	}
	return assets.Paths(assets.ScanFolder(p.config.Folders.Voiceover, assets.AudioExtensions))
}

// OutputPath returns where the video for voPath is written
func (p *Pipeline) OutputPath(voPath string) string {
	return filepath.Join(p.config.OutputFolder, util.BaseName(voPath)+".mp4")
}

// Process renders one video for voPath. It never panics and never returns
// an error; the outcome is in the Result.
func (p *Pipeline) Process(ctx context.Context, voPath string) (res Result) {
	start := time.Now()
	res = Result{
		RunID:     uuid.New().String(),
		Voiceover: voPath,
		Output:    p.OutputPath(voPath),
	}
	logger := logging.WithRun(p.logger, res.RunID, util.BaseName(voPath))

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("run panicked")
			res.Success = false
			res.Reason = fmt.Sprintf("internal error: %v", r)
		}
		res.Elapsed = time.Since(start)
	}()

	if p.config.SkipExistingOutput && util.FileExists(res.Output) {
		logger.Info().Str("output", res.Output).Msg("output exists, skipping")
		res.Skipped = true
		res.Reason = "output exists"
		return res
	}

	if err := util.EnsureDir(p.config.OutputFolder); err != nil {
		res.Reason = err.Error()
		return res
	}

	// render next to the destination so the final rename stays on one
	// filesystem
	tmp := filepath.Join(p.config.OutputFolder, "."+util.BaseName(voPath)+"."+res.RunID[:8]+".mp4")

	plan, err := p.plan(ctx, logger, voPath, tmp)
	if err != nil {
		res.Reason = err.Error()
		logger.Error().Err(err).Msg("planning failed")
		return res
	}
	res.Segments = plan.Timeline.Len()
	res.Duration = plan.Timeline.Duration()

	logger.Info().
		Float64("voiceover", plan.VoiceoverSecs).
		Int("segments", res.Segments).
		Int("overlays", len(plan.Events)).
		Msg("rendering")

	if err := p.deps.Renderer.Render(ctx, plan.Graph, progressLogger(logger)); err != nil {
		util.CleanupFiles(tmp)
		res.Reason = err.Error()
		logger.Error().Err(err).Msg("render failed")
		return res
	}

	if err := os.Rename(tmp, res.Output); err != nil {
		util.CleanupFiles(tmp)
		res.Reason = fmt.Sprintf("failed to move output into place: %v", err)
		return res
	}

	res.Success = true
	logger.Info().
		Str("output", res.Output).
		Dur("elapsed", time.Since(start)).
		Msg("video complete")
	return res
}

// Plan decides everything for voPath without encoding
func (p *Pipeline) Plan(ctx context.Context, voPath string) (*Plan, error) {
	logger := logging.WithRun(p.logger, "plan", util.BaseName(voPath))
	return p.plan(ctx, logger, voPath, p.OutputPath(voPath))
}

func (p *Pipeline) plan(ctx context.Context, logger zerolog.Logger, voPath, outPath string) (*Plan, error) {
	cfg := p.config
	name := util.BaseName(voPath)
	rng := rand.New(rand.NewSource(seedFor(cfg.Seed, name)))

	voSecs := p.deps.Prober.Inspect(ctx, voPath).Duration
	if voSecs <= 0 {
		return nil, ErrVoiceoverDuration
	}
	target := voSecs + cfg.Voiceover.Start

	builder := timeline.NewBuilder(logger, p.deps.Prober, rng)
	pools := timeline.Pools{
		Video: assets.Scan(cfg.Folders.Videos, assets.VideoExtensions),
		Image: assets.Scan(cfg.Folders.Images, assets.ImageExtensions),
	}
	core, err := builder.Build(ctx, target, pools, timeline.PolicyFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	if core.Len() == 0 {
		return nil, ErrNoClips
	}
	if core.Exhausted {
		logger.Warn().
			Float64("target", target).
			Float64("built", core.Duration()).
			Msg("asset pools ran out before the voiceover ended")
	}

	tl := timeline.Assemble(p.bookends(ctx, builder, core))

	planner := overlays.NewPlanner(logger, cfg, p.deps.Classifier, rng)
	track := planner.LoadTrack(name)
	// captions are timed against the voiceover, which may start late
	for i := range track.Spans {
		track.Spans[i].Start += cfg.Voiceover.Start
		track.Spans[i].End += cfg.Voiceover.Start
	}
	events := planner.Plan(tl, track)

	spec, err := compose.OutputSpecFromConfig(cfg, outPath)
	if err != nil {
		return nil, err
	}
	spec.Voiceover = &compose.Voiceover{
		Path:   voPath,
		Volume: cfg.Voiceover.Volume,
		Start:  cfg.Voiceover.Start,
	}

	g, err := p.emitter.Emit(tl, events, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to build render graph: %w", err)
	}

	return &Plan{
		Voiceover:     voPath,
		VoiceoverSecs: voSecs,
		Target:        target,
		Timeline:      tl,
		Events:        events,
		Graph:         g,
	}, nil
}

func (p *Pipeline) bookends(ctx context.Context, b *timeline.Builder, core *timeline.Timeline) (*timeline.Segment, *timeline.Timeline, *timeline.Segment) {
	cfg := p.config
	exts := append(append([]string(nil), assets.VideoExtensions...), assets.ImageExtensions...)

	var intro, outro *timeline.Segment
	if cfg.Features.Intro {
		intro = b.Intro(ctx, assets.ScanFolder(cfg.Folders.Intro, exts), cfg.Selection.ImageDuration)
	}
	if cfg.Features.Outro {
		transition := ""
		if cfg.Features.Transitions {
			transition = "fade"
		}
		trim := timeline.Window{Start: cfg.Selection.OutroTrim.Start, End: cfg.Selection.OutroTrim.End}
		outro = b.Outro(ctx, assets.ScanFolder(cfg.Folders.Outro, exts), trim, cfg.Selection.ImageDuration, transition)
	}
	return intro, core, outro
}

// seedFor derives a per-voiceover seed so concurrent runs stay repeatable.
// A zero base seed means a fresh seed every run.
func seedFor(base int64, name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	if base == 0 {
		base = time.Now().UnixNano()
	}
	return base ^ int64(h.Sum64())
}

// progressLogger reports render progress in 10% steps
func progressLogger(logger zerolog.Logger) ffmpeg.ProgressFunc {
	next := 10.0
	return func(pr *ffmpeg.Progress) {
		if pr.Percentage < next {
			return
		}
		logger.Debug().
			Float64("percent", pr.Percentage).
			Str("speed", pr.Speed).
			Msg("render progress")
		for next <= pr.Percentage {
			next += 10
		}
	}
}
