package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration. A loaded Config is treated as
// read-only; runs receive resolved copies.
type Config struct {
	// Core settings
	AssetsBasePath     string `yaml:"assets_base_path"`
	OutputFolder       string `yaml:"output_folder"`
	Concurrency        int    `yaml:"concurrency"`
	MaxVideos          int    `yaml:"max_videos"`
	SkipExistingOutput bool   `yaml:"skip_existing_output"`
	Seed               int64  `yaml:"seed"`
	LogFile            string `yaml:"log_file"`

	// VoiceoverFile pins a project to one voiceover instead of the folder.
	VoiceoverFile string `yaml:"voiceover_file"`

	FFmpeg      FFmpegConfig     `yaml:"ffmpeg"`
	Features    Features         `yaml:"features"`
	Folders     Folders          `yaml:"folders"`
	Files       Files            `yaml:"files"`
	Selection   Selection        `yaml:"selection"`
	Transitions TransitionConfig `yaml:"transitions"`
	Voiceover   VoiceoverConfig  `yaml:"voiceover"`
	Watermark   WatermarkConfig  `yaml:"watermark"`
	BGM         BGMConfig        `yaml:"bgm"`
	GIF         OverlayConfig    `yaml:"gif"`
	Sticker     OverlayConfig    `yaml:"sticker"`
	Meme        MemeConfig       `yaml:"meme"`
	Cinematic   CinematicConfig  `yaml:"cinematic"`
	Subtitles   SubtitleConfig   `yaml:"subtitles"`
	Emotion     EmotionConfig    `yaml:"emotion"`
	Output      OutputConfig     `yaml:"output"`
	Watch       WatchConfig      `yaml:"watch"`

	// Named placement tables. Anchor expressions may reference {mx} and {my}.
	Anchors     map[string]Anchor     `yaml:"anchors"`
	SizePresets map[string]SizePreset `yaml:"size_presets"`

	resolved bool
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
}

// Features toggles every optional stage of a run
type Features struct {
	Intro           bool `yaml:"intro"`
	Outro           bool `yaml:"outro"`
	Watermark       bool `yaml:"watermark"`
	BGM             bool `yaml:"bgm"`
	SubtitleBurn    bool `yaml:"subtitle_burn"`
	GIFs            bool `yaml:"gifs"`
	Stickers        bool `yaml:"stickers"`
	Memes           bool `yaml:"memes"`
	LUT             bool `yaml:"lut"`
	AestheticFrame  bool `yaml:"aesthetic_frame"`
	CinematicEffect bool `yaml:"cinematic_effect"`
	Transitions     bool `yaml:"transitions"`
	ClipAudio       bool `yaml:"clip_audio"`
}

// Basic returns a copy with every decoration disabled
func (f Features) Basic() Features {
	return Features{ClipAudio: f.ClipAudio}
}

type Folders struct {
	Voiceover             string   `yaml:"voiceover"`
	Intro                 string   `yaml:"intro"`
	Outro                 string   `yaml:"outro"`
	Videos                []string `yaml:"videos"`
	Images                []string `yaml:"images"`
	BGM                   string   `yaml:"bgm"`
	Subtitles             string   `yaml:"subtitles"`
	FullSentenceSubtitles string   `yaml:"full_sentence_subtitles"`
	GIFs                  string   `yaml:"gifs"`
	Stickers              string   `yaml:"stickers"`
	Memes                 string   `yaml:"memes"`
}

type Files struct {
	Watermark       string `yaml:"watermark"`
	LUT             string `yaml:"lut"`
	AestheticFrame  string `yaml:"aesthetic_frame"`
	CinematicEffect string `yaml:"cinematic_effect"`
}

// Selection holds the timeline selection policy knobs
type Selection struct {
	ImagePercentage   int     `yaml:"image_percentage"`
	UniqueAssets      bool    `yaml:"unique_assets"`
	ImageDuration     float64 `yaml:"image_duration"`
	CountTarget       int     `yaml:"count_target"`
	VideoMode         string  `yaml:"video_mode"`
	SubclipLength     float64 `yaml:"subclip_length"`
	TinySubclipLength float64 `yaml:"tiny_subclip_length"`
	OverageTolerance  float64 `yaml:"overage_tolerance"`
	OutroTrim         Window  `yaml:"outro_trim"`
}

// Window is a [start, end) range in seconds. A zero End means open-ended.
type Window struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

type TransitionConfig struct {
	In       string  `yaml:"in"`
	Out      string  `yaml:"out"`
	Duration float64 `yaml:"duration"`
}

type VoiceoverConfig struct {
	Volume float64 `yaml:"volume"`
	Start  float64 `yaml:"start"`
}

// Margin holds horizontal and vertical margin expressions
type Margin struct {
	X string `yaml:"x"`
	Y string `yaml:"y"`
}

type Anchor struct {
	X string `yaml:"x"`
	Y string `yaml:"y"`
}

type SizePreset struct {
	Width  string `yaml:"width"`
	Height string `yaml:"height"`
}

type WatermarkConfig struct {
	Position string  `yaml:"position"`
	Margin   Margin  `yaml:"margin"`
	Width    string  `yaml:"width"`
	Opacity  float64 `yaml:"opacity"`
	When     Window  `yaml:"when"`
}

type BGMConfig struct {
	Volume float64 `yaml:"volume"`
	// MixDuration is the amix duration policy: shortest, first or longest.
	MixDuration string `yaml:"mix_duration"`
}

// OverlayConfig places emotion-triggered overlays of one category
type OverlayConfig struct {
	Position   string   `yaml:"position"`
	Margin     Margin   `yaml:"margin"`
	Size       string   `yaml:"size"`
	Extensions []string `yaml:"extensions"`
}

type MemeConfig struct {
	OverlayConfig `yaml:",inline"`
	Width         string  `yaml:"width"`
	ChromaColor   string  `yaml:"chroma_color"`
	Similarity    float64 `yaml:"similarity"`
	Blend         float64 `yaml:"blend"`
}

type CinematicConfig struct {
	Opacity  float64 `yaml:"opacity"`
	Position string  `yaml:"position"`
}

type SubtitleConfig struct {
	Extension  string `yaml:"extension"`
	ForceStyle string `yaml:"force_style"`
}

type EmotionConfig struct {
	MinWords    int     `yaml:"min_words"`
	MaxDisplay  float64 `yaml:"max_display"`
	LexiconFile string  `yaml:"lexicon_file"`
}

type OutputConfig struct {
	Width        int                        `yaml:"width"`
	Height       int                        `yaml:"height"`
	FPS          int                        `yaml:"fps"`
	Profile      string                     `yaml:"profile"`
	Quality      string                     `yaml:"quality"`
	Profiles     map[string]EncodingProfile `yaml:"profiles"`
	Qualities    map[string]QualityPreset   `yaml:"qualities"`
	AudioCodec   string                     `yaml:"audio_codec"`
	AudioBitrate string                     `yaml:"audio_bitrate"`
	SampleRate   int                        `yaml:"sample_rate"`
	Threads      int                        `yaml:"threads"`
	BufferSize   string                     `yaml:"buffer_size"`
}

type WatchConfig struct {
	Schedule string `yaml:"schedule"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	merged, err := Merge(cfg, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return merged, nil
}

// LoadProject merges a per-project file over an already loaded base
func LoadProject(base *Config, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}

	merged, err := Merge(base, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse project %s: %w", path, err)
	}

	return merged, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0644)
}

// WithConfig adds config to context
func (c *Config) WithConfig(ctx context.Context) context.Context {
	return context.WithValue(ctx, configKey, c)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}

func findConfigFile() string {
	candidates := []string{
		"./reelforge.yaml",
		"./reelforge.yml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".reelforge", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
