package compose

import (
	"github.com/keagan/reelforge/internal/config"
)

// Voiceover is the primary narration track
type Voiceover struct {
	Path   string
	Volume float64
	// Start pads the narration with this many seconds of silence.
	Start float64
}

// OutputSpec describes the file the graph writes
type OutputSpec struct {
	Path     string
	Width    int
	Height   int
	FPS      int
	Encoding config.EncodingProfile

	AudioCodec   string
	AudioBitrate string
	SampleRate   int
	Threads      int
	BufferSize   string

	// Voiceover replaces the clip audio when set.
	Voiceover *Voiceover
	// ClipAudio keeps the per-segment audio as primary audio when there is
	// no voiceover.
	ClipAudio bool
	// TransitionDuration is the fade length for segments with transitions.
	TransitionDuration float64
}

// OutputSpecFromConfig fills an OutputSpec from the output settings
func OutputSpecFromConfig(cfg *config.Config, path string) (OutputSpec, error) {
	enc, err := cfg.Encoding()
	if err != nil {
		return OutputSpec{}, err
	}
	return OutputSpec{
		Path:               path,
		Width:              cfg.Output.Width,
		Height:             cfg.Output.Height,
		FPS:                cfg.Output.FPS,
		Encoding:           enc,
		AudioCodec:         cfg.Output.AudioCodec,
		AudioBitrate:       cfg.Output.AudioBitrate,
		SampleRate:         cfg.Output.SampleRate,
		Threads:            cfg.Output.Threads,
		BufferSize:         cfg.Output.BufferSize,
		ClipAudio:          cfg.Features.ClipAudio,
		TransitionDuration: cfg.Transitions.Duration,
	}, nil
}
