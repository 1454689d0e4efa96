package timeline

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/keagan/reelforge/internal/assets"
)

func TestOutroTrimClampsToNative(t *testing.T) {
	tests := []struct {
		name   string
		native float64
		trim   Window
		want   *Window
	}{
		{"clamp end", 6, Window{Start: 0, End: 10}, &Window{Start: 0, End: 6}},
		{"offset start", 6, Window{Start: 2, End: 10}, &Window{Start: 2, End: 6}},
		{"inside", 20, Window{Start: 0, End: 10}, &Window{Start: 0, End: 10}},
		{"open end", 8, Window{Start: 1}, &Window{Start: 1, End: 8}},
		{"start past end", 6, Window{Start: 8, End: 10}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(zerolog.Nop(), fakeProber{"outro.mp4": tt.native}, &scripted{})
			seg := b.Outro(context.Background(), videos("outro.mp4"), tt.trim, 5, "fade")

			if tt.want == nil {
				if seg != nil {
					t.Fatalf("expected no outro, got %+v", seg)
				}
				return
			}
			if seg == nil {
				t.Fatal("expected an outro")
			}
			if *seg.Trim != *tt.want {
				t.Errorf("expected trim %+v, got %+v", *tt.want, *seg.Trim)
			}
			if seg.Duration != seg.Trim.Duration() || seg.Role != RoleOutro || seg.TransitionIn != "fade" {
				t.Errorf("unexpected outro %+v", seg)
			}
		})
	}
}

func TestIntroSkipsUnusableCandidates(t *testing.T) {
	b := NewBuilder(zerolog.Nop(), fakeProber{"ok.mp4": 3}, &scripted{ints: []int{0, 0}})
	seg := b.Intro(context.Background(), videos("broken.mp4", "ok.mp4"), 5)
	if seg == nil || seg.Asset.Path != "ok.mp4" || seg.Duration != 3 {
		t.Fatalf("expected ok.mp4 intro, got %+v", seg)
	}

	if b.Intro(context.Background(), nil, 5) != nil {
		t.Error("empty pool should give no intro")
	}
}

func TestIntroImageUsesImageDuration(t *testing.T) {
	b := NewBuilder(zerolog.Nop(), fakeProber{}, &scripted{})
	seg := b.Intro(context.Background(), []assets.Ref{{Path: "logo.png", Kind: assets.KindImage}}, 2.5)
	if seg == nil || !seg.IsImage() || seg.Duration != 2.5 {
		t.Fatalf("unexpected intro %+v", seg)
	}
}

func TestAssembleOrdersRoles(t *testing.T) {
	core := &Timeline{Target: 10, Segments: []Segment{{Role: RoleMain, Duration: 10}}}
	intro := &Segment{Duration: 2}
	outro := &Segment{Duration: 3}

	tl := Assemble(intro, core, outro)
	roles := []Role{RoleIntro, RoleMain, RoleOutro}
	if tl.Len() != 3 {
		t.Fatalf("expected 3 segments, got %d", tl.Len())
	}
	for i, r := range roles {
		if tl.Segments[i].Role != r {
			t.Errorf("segment %d: expected %s, got %s", i, r, tl.Segments[i].Role)
		}
	}
	if tl.Duration() != 15 || tl.Target != 10 {
		t.Errorf("unexpected totals %v / %v", tl.Duration(), tl.Target)
	}

	if Assemble(nil, core, nil).Len() != 1 {
		t.Error("missing bookends should leave the core alone")
	}
}
