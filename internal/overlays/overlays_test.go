package overlays

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/keagan/reelforge/internal/config"
	"github.com/keagan/reelforge/internal/emotion"
	"github.com/keagan/reelforge/internal/graph"
	"github.com/keagan/reelforge/internal/subtitles"
	"github.com/keagan/reelforge/internal/timeline"
)

// fixedClassifier labels by exact text
type fixedClassifier map[string]string

func (f fixedClassifier) Classify(text string) string {
	if l, ok := f[text]; ok {
		return l
	}
	return emotion.Neutral
}

type firstRand struct{}

func (firstRand) Intn(int) int { return 0 }

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

// assetsConfig returns a resolved config rooted in a temp dir with every
// feature on and nothing on disk
func assetsConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.AssetsBasePath = root
	cfg.Features.LUT = true
	cfg.Features.AestheticFrame = true
	cfg.Features.CinematicEffect = true
	cfg.Features.Memes = true
	return cfg.Resolve(), root
}

func tenSeconds() *timeline.Timeline {
	return &timeline.Timeline{Segments: []timeline.Segment{{Duration: 10}}}
}

func kinds(events []Event) []Kind {
	out := make([]Kind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestMissingAssetsDegradeToNothing(t *testing.T) {
	cfg, _ := assetsConfig(t)
	p := NewPlanner(zerolog.Nop(), cfg, fixedClassifier{"so very happy now": "joy"}, firstRand{})

	track := &Track{Spans: []subtitles.Span{{Start: 1, End: 2, Text: "so very happy now"}}}
	if events := p.Plan(tenSeconds(), track); len(events) != 0 {
		t.Errorf("expected no events without assets, got %v", kinds(events))
	}
}

func TestMissingWatermarkOnlyDropsWatermark(t *testing.T) {
	cfg, root := assetsConfig(t)
	touch(t, filepath.Join(root, "bgm", "track.mp3"))

	p := NewPlanner(zerolog.Nop(), cfg, nil, firstRand{})
	events := p.Plan(tenSeconds(), nil)

	if len(events) != 1 || events[0].Kind != KindBGM {
		t.Fatalf("expected only bgm, got %v", kinds(events))
	}
	bgm := events[0]
	if bgm.Volume != 0.15 || bgm.MixDuration != "first" || !bgm.Loop {
		t.Errorf("unexpected bgm event %+v", bgm)
	}
	if bgm.Window != (graph.Window{Start: 0, End: 10}) {
		t.Errorf("bgm should cover the video, got %+v", bgm.Window)
	}
}

func TestPlanOrderAndPlacement(t *testing.T) {
	cfg, root := assetsConfig(t)
	touch(t, filepath.Join(root, "luts", "default.cube"))
	touch(t, filepath.Join(root, "frames", "frame.png"))
	touch(t, filepath.Join(root, "effects", "grain.mp4"))
	touch(t, filepath.Join(root, "watermark.png"))
	touch(t, filepath.Join(root, "gifs", "joy", "dance.gif"))
	touch(t, filepath.Join(root, "gifs", "fear", "run.gif"))
	touch(t, filepath.Join(root, "stickers", "joy", "star.png"))
	touch(t, filepath.Join(root, "memes", "fear", "scream.mp4"))
	touch(t, filepath.Join(root, "bgm", "track.mp3"))

	classifier := fixedClassifier{
		"this is so great": "joy",
		"that was too scary": "fear",
	}
	track := &Track{
		Spans: []subtitles.Span{
			{Start: 1, End: 5, Text: "this is so great"},
			{Start: 6, End: 6.5, Text: "that was too scary"},
			{Start: 7, End: 8, Text: "nothing happens here"},
		},
		BurnFile: filepath.Join(root, "subtitles", "vo.srt"),
	}
	touch(t, track.BurnFile)

	p := NewPlanner(zerolog.Nop(), cfg, classifier, firstRand{})
	events := p.Plan(tenSeconds(), track)

	want := []Kind{
		KindColorLUT, KindAestheticFrame, KindCinematicEffect, KindWatermark,
		KindGIF, KindGIF, KindSticker, KindChromaMeme, KindSubtitleBurn, KindBGM,
	}
	got := kinds(events)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	wm := events[3]
	if wm.Anchor.X != "0+W*0.02" || wm.Anchor.Y != "0+H*0.02" {
		t.Errorf("unexpected watermark anchor %+v", wm.Anchor)
	}
	if wm.Size.Width != "1080*0.08" || wm.Size.Height != "-1" {
		t.Errorf("unexpected watermark size %+v", wm.Size)
	}

	joy, fear := events[4], events[5]
	if filepath.Base(joy.AssetPath) != "dance.gif" || joy.Emotion != "joy" {
		t.Errorf("unexpected gif pick %+v", joy)
	}
	// capped at two seconds of display
	if joy.Window != (graph.Window{Start: 1, End: 3}) {
		t.Errorf("expected window [1,3), got %+v", joy.Window)
	}
	if fear.Window != (graph.Window{Start: 6, End: 6.5}) {
		t.Errorf("expected window [6,6.5), got %+v", fear.Window)
	}
	if joy.Anchor.Name != "bottom-left" || joy.Size.Width != "min(iw, 1080*0.3)" {
		t.Errorf("unexpected gif placement %+v %+v", joy.Anchor, joy.Size)
	}

	sticker := events[6]
	if sticker.Loop || sticker.Anchor.Name != "top-left" {
		t.Errorf("unexpected sticker %+v", sticker)
	}

	meme := events[7]
	if meme.Chroma == nil || meme.Chroma.Color != "0x00ff00" || meme.Chroma.Similarity != 0.35 {
		t.Errorf("unexpected meme chroma %+v", meme.Chroma)
	}
	if meme.Anchor.X != "W-w-W*0.04" || meme.Size.Width != "min(iw, 1080*0.35)" {
		t.Errorf("unexpected meme placement %+v %+v", meme.Anchor, meme.Size)
	}

	frame := events[1]
	if frame.Size.Width != "1080" || frame.Size.Height != "1920" {
		t.Errorf("frame should be fullscreen, got %+v", frame.Size)
	}
	cinematic := events[2]
	if !cinematic.Loop || cinematic.Opacity != 0.4 || cinematic.Anchor.Name != "center" {
		t.Errorf("unexpected cinematic effect %+v", cinematic)
	}
}

func TestNeutralSpansTriggerNothing(t *testing.T) {
	cfg, root := assetsConfig(t)
	touch(t, filepath.Join(root, "gifs", "neutral", "idle.gif"))
	touch(t, filepath.Join(root, "stickers", "neutral", "idle.png"))

	p := NewPlanner(zerolog.Nop(), cfg, emotion.NeutralClassifier{}, firstRand{})
	track := &Track{Spans: []subtitles.Span{{Start: 0, End: 1, Text: "a perfectly calm sentence"}}}

	for _, ev := range p.Plan(tenSeconds(), track) {
		if ev.Emotion != "" {
			t.Errorf("neutral span produced %s event", ev.Kind)
		}
	}
}

func TestShortSpansAndMissingLabelFolders(t *testing.T) {
	cfg, root := assetsConfig(t)
	touch(t, filepath.Join(root, "gifs", "joy", "dance.gif"))

	classifier := fixedClassifier{"yay": "joy", "very sad words here": "sadness"}
	track := &Track{Spans: []subtitles.Span{
		{Start: 0, End: 1, Text: "yay"},
		{Start: 2, End: 3, Text: "very sad words here"},
	}}

	p := NewPlanner(zerolog.Nop(), cfg, classifier, firstRand{})
	for _, ev := range p.Plan(tenSeconds(), track) {
		if ev.Kind == KindGIF {
			t.Errorf("unexpected gif event %+v", ev)
		}
	}
}

func TestWatermarkWindow(t *testing.T) {
	cfg, root := assetsConfig(t)
	touch(t, filepath.Join(root, "watermark.png"))
	cfg.Watermark.When = config.Window{Start: 2, End: 30}

	p := NewPlanner(zerolog.Nop(), cfg, nil, firstRand{})
	events := p.Plan(tenSeconds(), nil)
	if len(events) != 1 || events[0].Window != (graph.Window{Start: 2, End: 10}) {
		t.Fatalf("expected watermark clamped to [2,10), got %+v", events)
	}
}

func TestLoadTrack(t *testing.T) {
	cfg, root := assetsConfig(t)
	srt := "1\n00:00:01,000 --> 00:00:02,000\nhello there friend\n"
	full := filepath.Join(root, "subtitles", "full_sentence", "vo1.srt")
	touch(t, full)
	if err := os.WriteFile(full, []byte(srt), 0644); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(root, "subtitles", "one_to_four_word", "vo1.srt"))

	p := NewPlanner(zerolog.Nop(), cfg, nil, firstRand{})
	track := p.LoadTrack("vo1")
	if len(track.Spans) != 1 || track.BurnFile == "" {
		t.Errorf("unexpected track %+v", track)
	}

	// garbage captions disable the emotion overlays only
	if err := os.WriteFile(full, []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	track = p.LoadTrack("vo1")
	if len(track.Spans) != 0 || track.BurnFile == "" {
		t.Errorf("unexpected track %+v", track)
	}

	if track := p.LoadTrack("missing"); len(track.Spans) != 0 || track.BurnFile != "" {
		t.Errorf("expected empty track, got %+v", track)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(720, 1280)
	r.RegisterAnchor("corner", config.Anchor{X: "W-w-{mx}", Y: "{my}"})
	r.RegisterSize("half", config.SizePreset{Width: "W/2", Height: "-1"})

	a, ok := r.Anchor("corner", config.Margin{X: "10"})
	if !ok || a.X != "W-w-10" || a.Y != "0" {
		t.Errorf("unexpected anchor %+v", a)
	}
	s, ok := r.Size("half")
	if !ok || s.Width != "720/2" {
		t.Errorf("unexpected size %+v", s)
	}
	if _, ok := r.Anchor("nowhere", config.Margin{}); ok {
		t.Error("unknown anchor should not resolve")
	}
	if names := r.Anchors(); len(names) != 1 || names[0] != "corner" {
		t.Errorf("unexpected anchors %v", names)
	}
}
