package overlays

import (
	"sort"
	"strconv"
	"strings"

	"github.com/keagan/reelforge/internal/config"
)

// Registry resolves named anchors and size presets
type Registry struct {
	anchors map[string]config.Anchor
	sizes   map[string]config.SizePreset
	width   int
	height  int
}

// NewRegistry creates a registry for an output of width x height
func NewRegistry(width, height int) *Registry {
	return &Registry{
		anchors: make(map[string]config.Anchor),
		sizes:   make(map[string]config.SizePreset),
		width:   width,
		height:  height,
	}
}

// NewRegistryFromConfig loads the configured tables
func NewRegistryFromConfig(cfg *config.Config) *Registry {
	r := NewRegistry(cfg.Output.Width, cfg.Output.Height)
	for name, a := range cfg.Anchors {
		r.RegisterAnchor(name, a)
	}
	for name, s := range cfg.SizePresets {
		r.RegisterSize(name, s)
	}
	return r
}

// RegisterAnchor adds or replaces a named position
func (r *Registry) RegisterAnchor(name string, a config.Anchor) {
	r.anchors[name] = a
}

// RegisterSize adds or replaces a named size preset
func (r *Registry) RegisterSize(name string, s config.SizePreset) {
	r.sizes[name] = s
}

// Anchor resolves a named position with the margin substituted
func (r *Registry) Anchor(name string, margin config.Margin) (Placement, bool) {
	a, ok := r.anchors[name]
	if !ok {
		return Placement{}, false
	}
	mx, my := margin.X, margin.Y
	if mx == "" {
		mx = "0"
	}
	if my == "" {
		my = "0"
	}
	return Placement{
		Name: name,
		X:    strings.ReplaceAll(a.X, "{mx}", mx),
		Y:    strings.ReplaceAll(a.Y, "{my}", my),
	}, true
}

// Size resolves a named preset. Output dimensions are substituted because
// the scale filter cannot see the main stream.
func (r *Registry) Size(name string) (Size, bool) {
	s, ok := r.sizes[name]
	if !ok {
		return Size{}, false
	}
	return Size{Width: r.Expr(s.Width), Height: r.Expr(s.Height)}, true
}

// Expr replaces W and H with the output dimensions
func (r *Registry) Expr(expr string) string {
	return strings.NewReplacer(
		"W", strconv.Itoa(r.width),
		"H", strconv.Itoa(r.height),
	).Replace(expr)
}

// Anchors lists the registered position names
func (r *Registry) Anchors() []string {
	names := make([]string, 0, len(r.anchors))
	for name := range r.anchors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sizes lists the registered preset names
func (r *Registry) Sizes() []string {
	names := make([]string, 0, len(r.sizes))
	for name := range r.sizes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
