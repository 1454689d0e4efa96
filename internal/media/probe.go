// Package media answers "how long is this file" for the selection stages.
// Any failure yields a zero duration, which callers treat as unusable.
package media

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/go-audio/wav"
	"github.com/rs/zerolog"

	"github.com/keagan/reelforge/internal/assets"
	"github.com/keagan/reelforge/internal/ffmpeg"
	"github.com/keagan/reelforge/pkg/util"
)

// Info is what the timeline needs to know about one file
type Info struct {
	Duration float64
	HasVideo bool
	HasAudio bool
}

// Engine probes files with the external tool
type Engine interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
}

// Probe resolves durations, memoizing results per file version. It is safe
// for concurrent use.
type Probe struct {
	logger zerolog.Logger
	engine Engine

	mu    sync.Mutex
	cache map[string]Info
}

// New creates a probe. engine may be nil, in which case only images and WAV
// files resolve.
func New(logger zerolog.Logger, engine Engine) *Probe {
	return &Probe{
		logger: logger.With().Str("component", "probe").Logger(),
		engine: engine,
		cache:  make(map[string]Info),
	}
}

// Duration returns the playable duration of path in seconds, 0 for images
// and for anything that cannot be probed.
func (p *Probe) Duration(ctx context.Context, path string) float64 {
	return p.Inspect(ctx, path).Duration
}

// Inspect returns duration and stream presence for path
func (p *Probe) Inspect(ctx context.Context, path string) Info {
	if assets.IsImage(path) {
		return Info{HasVideo: true}
	}

	stat, err := os.Stat(path)
	if err != nil {
		p.logger.Warn().Str("path", path).Err(err).Msg("probe skipped, file unavailable")
		return Info{}
	}

	key := fmt.Sprintf("%s|%d|%d", path, stat.Size(), stat.ModTime().UnixNano())
	p.mu.Lock()
	if info, ok := p.cache[key]; ok {
		p.mu.Unlock()
		return info
	}
	p.mu.Unlock()

	info := p.inspect(ctx, path)

	p.mu.Lock()
	p.cache[key] = info
	p.mu.Unlock()

	return info
}

func (p *Probe) inspect(ctx context.Context, path string) Info {
	if util.GetExtension(path) == ".wav" {
		if secs, ok := wavDuration(path); ok {
			return Info{Duration: secs, HasAudio: true}
		}
	}

	if p.engine == nil {
		return Info{}
	}

	vi, err := p.engine.ProbeVideo(ctx, path)
	if err != nil {
		p.logger.Warn().Str("path", path).Err(err).Msg("probe failed, treating as zero duration")
		return Info{}
	}

	secs := vi.Seconds()
	if secs <= 0 {
		p.logger.Warn().Str("path", path).Msg("probe returned no duration")
		return Info{}
	}

	return Info{Duration: secs, HasVideo: vi.HasVideo, HasAudio: vi.HasAudio}
}

// wavDuration reads the duration from a RIFF/WAVE header without decoding
// samples.
func wavDuration(path string) (float64, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, false
	}

	dur, err := dec.Duration()
	if err != nil || dur <= 0 {
		return 0, false
	}
	return dur.Seconds(), true
}
