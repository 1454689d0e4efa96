package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/keagan/reelforge/internal/ffmpeg"
	"github.com/keagan/reelforge/internal/graph"
	"github.com/keagan/reelforge/internal/overlays"
	"github.com/keagan/reelforge/internal/timeline"
)

// ReasonVODuration is the failure reason for an unusable voiceover
const ReasonVODuration = "VO duration error"

var (
	ErrVoiceoverDuration = errors.New(ReasonVODuration)
	ErrNoClips           = errors.New("no usable clips in the asset pools")
)

// Renderer executes a graph and writes its output file
type Renderer interface {
	Render(ctx context.Context, g *graph.Graph, progress ffmpeg.ProgressFunc) error
}

// Result is the outcome of one voiceover run. Every failure is reported
// here rather than returned.
type Result struct {
	RunID     string
	Voiceover string
	Output    string
	Success   bool
	Skipped   bool
	Reason    string
	// Duration is the length of the rendered video in seconds.
	Duration float64
	Segments int
	Elapsed  time.Duration
}

// Plan is everything decided for one run before encoding
type Plan struct {
	Voiceover     string
	VoiceoverSecs float64
	Target        float64
	Timeline      *timeline.Timeline
	Events        []overlays.Event
	Graph         *graph.Graph
}

// BatchOptions bounds a batch
type BatchOptions struct {
	// MaxVideos caps how many voiceovers are processed; 0 means all.
	MaxVideos int
	// Workers is the number of concurrent runs; 0 uses the configured
	// concurrency.
	Workers int
	// Basic disables every decoration, including for project configs that
	// enable them.
	Basic bool
}

// Summary aggregates the results of a batch
type Summary struct {
	Results   []Result
	Succeeded int
	Failed    int
	Skipped   int
	Elapsed   time.Duration
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	switch {
	case r.Skipped:
		s.Skipped++
	case r.Success:
		s.Succeeded++
	default:
		s.Failed++
	}
}

// Merge folds other into s
func (s *Summary) Merge(other *Summary) {
	for _, r := range other.Results {
		s.add(r)
	}
	s.Elapsed += other.Elapsed
}
