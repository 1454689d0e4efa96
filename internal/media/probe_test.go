package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"

	"github.com/keagan/reelforge/internal/ffmpeg"
)

type fakeEngine struct {
	calls atomic.Int32
	info  *ffmpeg.VideoInfo
	err   error
}

func (f *fakeEngine) ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error) {
	f.calls.Add(1)
	return f.info, f.err
}

func writeFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImagesAreNeverProbed(t *testing.T) {
	engine := &fakeEngine{info: &ffmpeg.VideoInfo{Duration: time.Second}}
	p := New(zerolog.Nop(), engine)

	if d := p.Duration(context.Background(), "/nowhere/photo.JPG"); d != 0 {
		t.Errorf("image duration should be 0, got %v", d)
	}
	if engine.calls.Load() != 0 {
		t.Error("images must not reach the engine")
	}
}

func TestProbeFailureReturnsZero(t *testing.T) {
	path := writeFile(t, "broken.mp4")
	p := New(zerolog.Nop(), &fakeEngine{err: errors.New("moov atom not found")})

	if d := p.Duration(context.Background(), path); d != 0 {
		t.Errorf("expected 0 for failed probe, got %v", d)
	}
	if d := p.Duration(context.Background(), filepath.Join(t.TempDir(), "missing.mp4")); d != 0 {
		t.Errorf("expected 0 for missing file, got %v", d)
	}
}

func TestProbeCachesPerFile(t *testing.T) {
	path := writeFile(t, "clip.mp4")
	engine := &fakeEngine{info: &ffmpeg.VideoInfo{Duration: 5 * time.Second, HasVideo: true, HasAudio: true}}
	p := New(zerolog.Nop(), engine)

	for i := 0; i < 3; i++ {
		info := p.Inspect(context.Background(), path)
		if info.Duration != 5 || !info.HasAudio {
			t.Fatalf("unexpected info %+v", info)
		}
	}
	if engine.calls.Load() != 1 {
		t.Errorf("expected one engine call, got %d", engine.calls.Load())
	}
}

func TestWavFastPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vo.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           make([]int, 8000*2),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	f.Close()

	engine := &fakeEngine{err: errors.New("should not be called")}
	p := New(zerolog.Nop(), engine)

	d := p.Duration(context.Background(), path)
	if d < 1.99 || d > 2.01 {
		t.Errorf("expected ~2s, got %v", d)
	}
	if engine.calls.Load() != 0 {
		t.Error("valid WAV should not need the engine")
	}
}
