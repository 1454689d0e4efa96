package config

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		AssetsBasePath:     "./assets",
		OutputFolder:       "./output",
		Concurrency:        2,
		SkipExistingOutput: true,
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
		},
		Features: Features{
			Intro:        true,
			Outro:        true,
			Watermark:    true,
			BGM:          true,
			SubtitleBurn: true,
			GIFs:         true,
			Stickers:     true,
			Transitions:  true,
			ClipAudio:    true,
		},
		Folders: Folders{
			Voiceover:             "voiceovers",
			Intro:                 "intros",
			Outro:                 "outros",
			Videos:                []string{"videos"},
			Images:                []string{"images"},
			BGM:                   "bgm",
			Subtitles:             "subtitles/one_to_four_word",
			FullSentenceSubtitles: "subtitles/full_sentence",
			GIFs:                  "gifs",
			Stickers:              "stickers",
			Memes:                 "memes",
		},
		Files: Files{
			Watermark:       "watermark.png",
			LUT:             "luts/default.cube",
			AestheticFrame:  "frames/frame.png",
			CinematicEffect: "effects/grain.mp4",
		},
		Selection: Selection{
			ImagePercentage:   20,
			UniqueAssets:      true,
			ImageDuration:     5.0,
			VideoMode:         "full_clip",
			SubclipLength:     5.0,
			TinySubclipLength: 1.5,
			OverageTolerance:  0.1,
			OutroTrim:         Window{Start: 0, End: 10},
		},
		Transitions: TransitionConfig{
			Out:      "fade",
			Duration: 0.5,
		},
		Voiceover: VoiceoverConfig{
			Volume: 1.1,
		},
		Watermark: WatermarkConfig{
			Position: "top-left",
			Margin:   Margin{X: "W*0.02", Y: "H*0.02"},
			Width:    "W*0.08",
			Opacity:  1.0,
		},
		BGM: BGMConfig{
			Volume:      0.15,
			MixDuration: "first",
		},
		GIF: OverlayConfig{
			Position:   "bottom-left",
			Margin:     Margin{X: "W*0.03", Y: "H*0.03"},
			Size:       "small_meme",
			Extensions: []string{".gif"},
		},
		Sticker: OverlayConfig{
			Position:   "top-left",
			Margin:     Margin{X: "W*0.04", Y: "H*0.04"},
			Size:       "small_meme",
			Extensions: []string{".png", ".webp"},
		},
		Meme: MemeConfig{
			OverlayConfig: OverlayConfig{
				Position:   "top-right",
				Margin:     Margin{X: "W*0.04", Y: "H*0.04"},
				Extensions: []string{".mp4", ".mov", ".avi", ".webm"},
			},
			Width:       "min(iw, W*0.35)",
			ChromaColor: "0x00ff00",
			Similarity:  0.35,
			Blend:       0.15,
		},
		Cinematic: CinematicConfig{
			Opacity:  0.4,
			Position: "center",
		},
		Subtitles: SubtitleConfig{
			Extension: ".srt",
		},
		Emotion: EmotionConfig{
			MinWords:   3,
			MaxDisplay: 2.0,
		},
		Output: OutputConfig{
			Width:        1080,
			Height:       1920,
			FPS:          30,
			Profile:      "none",
			Quality:      "balanced",
			Profiles:     defaultProfiles(),
			Qualities:    defaultQualities(),
			AudioCodec:   "aac",
			AudioBitrate: "160k",
			SampleRate:   48000,
			Threads:      4,
			BufferSize:   "4000k",
		},
		Watch: WatchConfig{
			Schedule: "@every 15m",
		},
		Anchors: map[string]Anchor{
			"top-left":     {X: "0+{mx}", Y: "0+{my}"},
			"top-right":    {X: "W-w-{mx}", Y: "0+{my}"},
			"bottom-left":  {X: "0+{mx}", Y: "H-h-{my}"},
			"bottom-right": {X: "W-w-{mx}", Y: "H-h-{my}"},
			"center":       {X: "(W-w)/2", Y: "(H-h)/2"},
		},
		SizePresets: map[string]SizePreset{
			"small_meme":  {Width: "min(iw, W*0.3)", Height: "-1"},
			"medium_meme": {Width: "min(iw, W*0.4)", Height: "-1"},
			"large_meme":  {Width: "min(iw, W*0.5)", Height: "-1"},
			"fullscreen":  {Width: "W", Height: "H"},
		},
	}
}

func defaultProfiles() map[string]EncodingProfile {
	return map[string]EncodingProfile{
		"none": {
			VideoCodec: "libx264",
			Preset:     "medium",
			Tune:       "film",
			CRF:        intPtr(21),
			ExtraArgs: []string{
				"-x264-params keyint=60:min-keyint=60",
				"-movflags +faststart",
				"-pix_fmt yuv420p",
			},
		},
		"qsv": {
			VideoCodec: "h264_qsv",
			Preset:     "faster",
			VQuality:   intPtr(24),
			ExtraArgs: []string{
				"-look_ahead_depth 4",
				"-extbrc 1",
				"-low_power on",
				"-b_strategy 1",
				"-adaptive_i 1",
				"-profile:v high",
			},
		},
		"cuda": {
			VideoCodec: "h264_nvenc",
			Preset:     "p6",
			Tune:       "hq",
			CQ:         intPtr(23),
			ExtraArgs: []string{
				"-rc:v vbr",
				"-b_ref_mode middle",
				"-spatial_aq 1",
				"-temporal_aq 1",
				"-cqm flat",
			},
		},
	}
}

func defaultQualities() map[string]QualityPreset {
	return map[string]QualityPreset{
		"fast":     {CRF: 23, VQuality: 26, CQ: 25},
		"balanced": {CRF: 21, VQuality: 24, CQ: 23},
		"high":     {CRF: 18, VQuality: 22, CQ: 21},
	}
}

func intPtr(v int) *int { return &v }
