package config

import (
	"errors"
	"fmt"

	"github.com/keagan/reelforge/pkg/util"
)

var validVideoModes = map[string]bool{
	"full_clip":      true,
	"start_random":   true,
	"split_subclips": true,
	"tiny_subclips":  true,
}

var validMixDurations = map[string]bool{
	"shortest": true,
	"first":    true,
	"longest":  true,
}

// Resolve returns a copy whose asset folders and files are joined onto
// AssetsBasePath. Resolving twice is a no-op.
func (c *Config) Resolve() *Config {
	out := *c
	if c.resolved {
		return &out
	}
	out.resolved = true
	base := c.AssetsBasePath
	r := func(p string) string { return util.ResolvePath(base, p) }

	out.Folders = Folders{
		Voiceover:             r(c.Folders.Voiceover),
		Intro:                 r(c.Folders.Intro),
		Outro:                 r(c.Folders.Outro),
		Videos:                make([]string, 0, len(c.Folders.Videos)),
		Images:                make([]string, 0, len(c.Folders.Images)),
		BGM:                   r(c.Folders.BGM),
		Subtitles:             r(c.Folders.Subtitles),
		FullSentenceSubtitles: r(c.Folders.FullSentenceSubtitles),
		GIFs:                  r(c.Folders.GIFs),
		Stickers:              r(c.Folders.Stickers),
		Memes:                 r(c.Folders.Memes),
	}
	for _, f := range c.Folders.Videos {
		out.Folders.Videos = append(out.Folders.Videos, r(f))
	}
	for _, f := range c.Folders.Images {
		out.Folders.Images = append(out.Folders.Images, r(f))
	}

	out.Files = Files{
		Watermark:       r(c.Files.Watermark),
		LUT:             r(c.Files.LUT),
		AestheticFrame:  r(c.Files.AestheticFrame),
		CinematicEffect: r(c.Files.CinematicEffect),
	}
	out.Emotion.LexiconFile = r(c.Emotion.LexiconFile)
	out.VoiceoverFile = r(c.VoiceoverFile)

	return &out
}

// Validate reports every invalid knob at once
func (c *Config) Validate() error {
	var errs []error

	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.Selection.ImagePercentage < 0 || c.Selection.ImagePercentage > 100 {
		errs = append(errs, fmt.Errorf("image_percentage must be within 0-100, got %d", c.Selection.ImagePercentage))
	}
	if c.Selection.ImageDuration <= 0 {
		errs = append(errs, fmt.Errorf("image_duration must be positive"))
	}
	if !validVideoModes[c.Selection.VideoMode] {
		errs = append(errs, fmt.Errorf("unknown video_mode %q", c.Selection.VideoMode))
	}
	if c.Output.Width <= 0 || c.Output.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid output resolution %dx%d", c.Output.Width, c.Output.Height))
	}
	if c.Output.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive"))
	}
	if !validMixDurations[c.BGM.MixDuration] {
		errs = append(errs, fmt.Errorf("unknown bgm mix_duration %q", c.BGM.MixDuration))
	}
	if _, err := c.Encoding(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
