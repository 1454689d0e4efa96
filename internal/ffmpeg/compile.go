package ffmpeg

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	ffgo "github.com/u2takey/ffmpeg-go"

	"github.com/keagan/reelforge/internal/graph"
)

// ErrCompile wraps failures raised while translating a graph
var ErrCompile = errors.New("graph compilation failed")

// compiled is one distinct node of the description as an ffmpeg-go value.
// ffmpeg-go folds structurally identical nodes together, so nodes are keyed
// by structure and a filter consumed more than once is routed through split.
type compiled struct {
	input  *ffgo.Stream
	stream *ffgo.Stream
	kind   graph.Kind
	uses   int
	split  *ffgo.Node
	next   int
}

func (c *compiled) take(r graph.Ref) *ffgo.Stream {
	if c.input != nil {
		if r.Stream == graph.Audio {
			return c.input.Audio()
		}
		return c.input.Video()
	}

	if c.uses <= 1 {
		return c.stream
	}

	if c.split == nil {
		op := "split"
		if c.kind == graph.Audio {
			op = "asplit"
		}
		c.split = ffgo.FilterMultiOutput([]*ffgo.Stream{c.stream}, op, ffgo.Args{strconv.Itoa(c.uses)})
	}
	s := c.split.Get(strconv.Itoa(c.next))
	c.next++
	return s
}

// Compile translates g into an ffmpeg-go output stream
func Compile(g *graph.Graph) (out *ffgo.Stream, err error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrCompile, r)
		}
	}()

	keys := structuralKeys(g)
	kinds := make(map[string]graph.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		kinds[n.ID] = n
	}

	uses := make(map[string]int)
	countUse := func(r graph.Ref) {
		if kinds[r.Node].Op != graph.OpSource {
			uses[keys[r.Node]]++
		}
	}
	counted := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		// a duplicate consumer folds into the first one
		if counted[keys[n.ID]] {
			continue
		}
		counted[keys[n.ID]] = true
		for _, r := range n.Inputs {
			countUse(r)
		}
	}
	for _, r := range g.Output.Streams {
		countUse(r)
	}

	byKey := make(map[string]*compiled, len(g.Nodes))
	for _, n := range g.Nodes {
		key := keys[n.ID]
		if _, done := byKey[key]; done {
			continue
		}

		c := &compiled{kind: n.Kind, uses: uses[key]}
		if n.Op == graph.OpSource {
			c.input = ffgo.Input(n.Path, kwargs(n.Params))
		} else {
			inputs := make([]*ffgo.Stream, len(n.Inputs))
			for i, r := range n.Inputs {
				inputs[i] = byKey[keys[r.Node]].take(r)
			}
			c.stream, err = apply(n, inputs)
			if err != nil {
				return nil, err
			}
		}
		byKey[key] = c
	}

	streams := make([]*ffgo.Stream, len(g.Output.Streams))
	for i, r := range g.Output.Streams {
		streams[i] = byKey[keys[r.Node]].take(r)
	}

	return ffgo.Output(streams, g.Output.Path, kwargs(g.Output.Params)), nil
}

// Args returns the ffmpeg argument vector for g, without the binary name
func Args(g *graph.Graph) ([]string, error) {
	out, err := Compile(g)
	if err != nil {
		return nil, err
	}
	return out.GetArgs(), nil
}

func apply(n graph.Node, inputs []*ffgo.Stream) (*ffgo.Stream, error) {
	if n.Op != "concat" {
		return ffgo.Filter(inputs, n.Op, ffgo.Args(n.Args), kwargs(n.Params)), nil
	}

	v, errV := paramInt(n, "v")
	a, errA := paramInt(n, "a")
	if errV != nil || errA != nil {
		return nil, fmt.Errorf("%w: concat %s needs integer v and a", ErrCompile, n.ID)
	}
	return ffgo.Concat(inputs, ffgo.KwArgs{"v": v, "a": a}), nil
}

func paramInt(n graph.Node, key string) (int, error) {
	v, _ := n.Param(key)
	return strconv.Atoi(v)
}

func kwargs(params []graph.Param) ffgo.KwArgs {
	out := ffgo.KwArgs{}
	for _, p := range params {
		out[p.Key] = p.Value
	}
	return out
}

// structuralKeys gives every node a key that is equal for nodes computing
// the same stream.
func structuralKeys(g *graph.Graph) map[string]string {
	keys := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		parts := []string{n.Op, n.Path, strings.Join(n.Args, "\x1f")}

		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			params[i] = p.Key + "=" + p.Value
		}
		sort.Strings(params)
		parts = append(parts, params...)

		for _, r := range n.Inputs {
			parts = append(parts, "<"+keys[r.Node]+":"+string(r.Stream)+">")
		}

		h := fnv.New64a()
		h.Write([]byte(strings.Join(parts, "\x1e")))
		keys[n.ID] = strconv.FormatUint(h.Sum64(), 16)
	}
	return keys
}
