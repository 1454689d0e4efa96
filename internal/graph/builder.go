package graph

import (
	"fmt"
	"strconv"
)

// Builder assembles a Graph. Node ids are generated from the operation name
// and a per-operation counter, so building the same sequence twice yields
// identical graphs.
type Builder struct {
	nodes  []Node
	counts map[string]int
	output *Output
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{counts: make(map[string]int)}
}

func (b *Builder) nextID(prefix string) string {
	id := prefix + strconv.Itoa(b.counts[prefix])
	b.counts[prefix]++
	return id
}

// Source adds a file input and returns its node id
func (b *Builder) Source(path string, opts ...Param) string {
	id := b.nextID("in")
	b.nodes = append(b.nodes, Node{ID: id, Op: OpSource, Path: path, Params: opts})
	return id
}

// Generator adds a lavfi generator input such as anullsrc
func (b *Builder) Generator(expr string, opts ...Param) string {
	params := append([]Param{P("f", "lavfi")}, opts...)
	id := b.nextID("gen")
	b.nodes = append(b.nodes, Node{ID: id, Op: OpSource, Path: expr, Params: params})
	return id
}

// Filter adds a filter node producing one stream of kind
func (b *Builder) Filter(kind Kind, op string, inputs []Ref, params ...Param) Ref {
	return b.FilterArgs(kind, op, inputs, nil, params...)
}

// FilterArgs is Filter with positional arguments
func (b *Builder) FilterArgs(kind Kind, op string, inputs []Ref, args []string, params ...Param) Ref {
	id := b.nextID(op)
	b.nodes = append(b.nodes, Node{
		ID:     id,
		Op:     op,
		Kind:   kind,
		Inputs: append([]Ref(nil), inputs...),
		Args:   args,
		Params: params,
	})
	return Ref{Node: id, Stream: kind}
}

// Concat joins segments in order. Inputs are laid out segment by segment,
// video streams first.
func (b *Builder) Concat(inputs []Ref, v, a int) Ref {
	kind := Video
	if v == 0 {
		kind = Audio
	}
	segments := 0
	if v+a > 0 {
		segments = len(inputs) / (v + a)
	}
	return b.Filter(kind, "concat", inputs, P("n", segments), P("v", v), P("a", a))
}

// Output sets the terminal mapping
func (b *Builder) Output(path string, streams []Ref, params ...Param) {
	b.output = &Output{Path: path, Streams: streams, Params: params}
}

// Build validates and returns the graph with unused nodes pruned
func (b *Builder) Build() (*Graph, error) {
	if b.output == nil {
		return nil, ErrNoOutput
	}

	g := &Graph{
		Nodes:  append([]Node(nil), b.nodes...),
		Output: *b.output,
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	g.Prune()
	return g, nil
}

// V returns the video stream of a source node
func V(id string) Ref { return Ref{Node: id, Stream: Video} }

// A returns the audio stream of a source node
func A(id string) Ref { return Ref{Node: id, Stream: Audio} }
