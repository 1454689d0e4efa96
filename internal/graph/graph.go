// Package graph is an engine-agnostic description of a media filter graph:
// named nodes with ordered inputs and typed parameters, plus one terminal
// output mapping. Serialization to an engine's textual form happens outside
// this package.
package graph

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownRef     = errors.New("reference to unknown node")
	ErrDuplicateNode  = errors.New("duplicate node id")
	ErrNoOutput       = errors.New("graph has no output")
	ErrKindMismatch   = errors.New("stream kind mismatch")
	ErrConcatMismatch = errors.New("concat input count mismatch")
)

// Kind is the media type carried by a stream
type Kind string

const (
	Video Kind = "v"
	Audio Kind = "a"
)

// OpSource marks a node that reads a file or a generator
const OpSource = "source"

// Param is one keyword parameter of a node
type Param struct {
	Key   string
	Value string
}

// P is shorthand for building a Param
func P(key string, value interface{}) Param {
	switch v := value.(type) {
	case string:
		return Param{Key: key, Value: v}
	case float64:
		return Param{Key: key, Value: num(v)}
	case int:
		return Param{Key: key, Value: strconv.Itoa(v)}
	default:
		return Param{Key: key, Value: fmt.Sprintf("%v", v)}
	}
}

// Ref points at one stream produced by a node
type Ref struct {
	Node   string
	Stream Kind
}

func (r Ref) String() string {
	return r.Node + ":" + string(r.Stream)
}

// Node is one operation in the graph. Source nodes carry a Path and input
// options in Params; filter nodes carry Inputs and produce one stream of Kind.
type Node struct {
	ID     string
	Op     string
	Kind   Kind
	Path   string
	Inputs []Ref
	Args   []string
	Params []Param
}

// Param returns the value of a keyword parameter
func (n Node) Param(key string) (string, bool) {
	for _, p := range n.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Output is the terminal mapping of streams to a file
type Output struct {
	Path    string
	Streams []Ref
	Params  []Param
}

// Param returns the value of an output parameter
func (o Output) Param(key string) (string, bool) {
	for _, p := range o.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// HasStream reports whether the output maps a stream of kind k
func (o Output) HasStream(k Kind) bool {
	for _, r := range o.Streams {
		if r.Stream == k {
			return true
		}
	}
	return false
}

// Graph is a complete description handed to an engine
type Graph struct {
	Nodes  []Node
	Output Output
}

// Node looks up a node by id
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodesByOp returns the nodes running op, in graph order
func (g *Graph) NodesByOp(op string) []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Op == op {
			out = append(out, n)
		}
	}
	return out
}

// Validate checks that every reference points at an earlier node of the
// right kind, that ids are unique, that concat nodes see exactly
// n*(v+a) inputs and that an output exists.
func (g *Graph) Validate() error {
	seen := make(map[string]Node, len(g.Nodes))

	checkRef := func(owner string, r Ref) error {
		src, ok := seen[r.Node]
		if !ok {
			return fmt.Errorf("%w: %s references %s", ErrUnknownRef, owner, r.Node)
		}
		if src.Op != OpSource && src.Kind != r.Stream {
			return fmt.Errorf("%w: %s wants %s from %s which produces %s",
				ErrKindMismatch, owner, r.Stream, r.Node, src.Kind)
		}
		return nil
	}

	for _, n := range g.Nodes {
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		for _, r := range n.Inputs {
			if err := checkRef(n.ID, r); err != nil {
				return err
			}
		}
		if n.Op == "concat" {
			if err := validateConcat(n); err != nil {
				return err
			}
		}
		seen[n.ID] = n
	}

	if g.Output.Path == "" || len(g.Output.Streams) == 0 {
		return ErrNoOutput
	}
	for _, r := range g.Output.Streams {
		if err := checkRef("output", r); err != nil {
			return err
		}
	}

	return nil
}

func validateConcat(n Node) error {
	count := func(key string) int {
		v, _ := n.Param(key)
		i, _ := strconv.Atoi(v)
		return i
	}

	segments, v, a := count("n"), count("v"), count("a")
	if segments*(v+a) != len(n.Inputs) || v+a == 0 {
		return fmt.Errorf("%w: %s has %d inputs for n=%d v=%d a=%d",
			ErrConcatMismatch, n.ID, len(n.Inputs), segments, v, a)
	}

	for i, r := range n.Inputs {
		want := Video
		if i%(v+a) >= v {
			want = Audio
		}
		if r.Stream != want {
			return fmt.Errorf("%w: %s input %d is %s, want %s", ErrKindMismatch, n.ID, i, r.Stream, want)
		}
	}
	return nil
}

// Prune drops nodes that do not contribute to the output
func (g *Graph) Prune() {
	live := make(map[string]bool)
	index := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		index[n.ID] = n
	}

	var mark func(id string)
	mark = func(id string) {
		if live[id] {
			return
		}
		live[id] = true
		for _, r := range index[id].Inputs {
			mark(r.Node)
		}
	}
	for _, r := range g.Output.Streams {
		mark(r.Node)
	}

	kept := g.Nodes[:0]
	for _, n := range g.Nodes {
		if live[n.ID] {
			kept = append(kept, n)
		}
	}
	g.Nodes = kept
}

// String renders a readable dump, one node per line
func (g *Graph) String() string {
	var sb strings.Builder
	for _, n := range g.Nodes {
		sb.WriteString(n.ID)
		sb.WriteString(" = ")
		if n.Op == OpSource {
			fmt.Fprintf(&sb, "source(%q)", n.Path)
		} else {
			refs := make([]string, len(n.Inputs))
			for i, r := range n.Inputs {
				refs[i] = r.String()
			}
			fmt.Fprintf(&sb, "%s(%s)", n.Op, strings.Join(refs, ", "))
		}
		for _, a := range n.Args {
			sb.WriteString(" ")
			sb.WriteString(a)
		}
		for _, p := range n.Params {
			fmt.Fprintf(&sb, " %s=%s", p.Key, p.Value)
		}
		sb.WriteString("\n")
	}

	refs := make([]string, len(g.Output.Streams))
	for i, r := range g.Output.Streams {
		refs[i] = r.String()
	}
	fmt.Fprintf(&sb, "output %q <- %s", g.Output.Path, strings.Join(refs, ", "))
	for _, p := range g.Output.Params {
		fmt.Fprintf(&sb, " %s=%s", p.Key, p.Value)
	}
	sb.WriteString("\n")
	return sb.String()
}
