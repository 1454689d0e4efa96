package graph

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"
)

func TestBuilderChainAndConcat(t *testing.T) {
	b := NewBuilder()
	in := b.Source("a.mp4")
	v := b.Chain(V(in)).Trim(0, 2.5).Fit(1080, 1920).FPS(30).Ref()
	a := b.Chain(A(in)).Trim(0, 2.5).Ref()
	cv := b.Concat([]Ref{v}, 1, 0)
	ca := b.Concat([]Ref{a}, 0, 1)
	b.Output("out.mp4", []Ref{cv, ca}, P("c:v", "libx264"))

	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if got := len(g.NodesByOp("concat")); got != 2 {
		t.Errorf("expected 2 concat nodes, got %d", got)
	}
	trims := g.NodesByOp("trim")
	if len(trims) != 1 {
		t.Fatalf("expected 1 trim, got %d", len(trims))
	}
	if end, _ := trims[0].Param("end"); end != "2.5" {
		t.Errorf("expected trim end 2.5, got %q", end)
	}
	if ca.Stream != Audio || cv.Stream != Video {
		t.Error("concat kinds not derived from v/a counts")
	}
	t.Logf("graph:\n%s", g)
}

func TestBuildIsDeterministic(t *testing.T) {
	build := func() string {
		b := NewBuilder()
		in := b.Source("a.mp4")
		v := b.Chain(V(in)).Scale("100", "-1").Ref()
		b.Output("o.mp4", []Ref{v})
		g, err := b.Build()
		if err != nil {
			t.Fatal(err)
		}
		return g.String()
	}
	if build() != build() {
		t.Error("identical build sequences produced different graphs")
	}
}

func TestValidateUnknownRef(t *testing.T) {
	b := NewBuilder()
	b.Filter(Video, "scale", []Ref{{Node: "ghost", Stream: Video}})
	b.Output("o.mp4", []Ref{{Node: "ghost", Stream: Video}})
	if _, err := b.Build(); !errors.Is(err, ErrUnknownRef) {
		t.Errorf("expected ErrUnknownRef, got %v", err)
	}
}

func TestValidateKindMismatch(t *testing.T) {
	b := NewBuilder()
	in := b.Source("a.mp4")
	v := b.Chain(V(in)).Scale("1", "1").Ref()
	bad := b.Filter(Audio, "volume", []Ref{{Node: v.Node, Stream: Audio}})
	b.Output("o.mp4", []Ref{bad})
	if _, err := b.Build(); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("expected ErrKindMismatch, got %v", err)
	}
}

func TestValidateConcatCounts(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			{ID: "in0", Op: OpSource, Path: "a.mp4"},
			{ID: "concat0", Op: "concat", Kind: Video, Inputs: []Ref{V("in0"), V("in0"), V("in0")},
				Params: []Param{P("n", 2), P("v", 1), P("a", 0)}},
		},
		Output: Output{Path: "o.mp4", Streams: []Ref{{Node: "concat0", Stream: Video}}},
	}
	if err := g.Validate(); !errors.Is(err, ErrConcatMismatch) {
		t.Errorf("expected ErrConcatMismatch, got %v", err)
	}
}

func TestValidateDuplicateAndNoOutput(t *testing.T) {
	g := &Graph{Nodes: []Node{{ID: "x", Op: OpSource}, {ID: "x", Op: OpSource}}}
	if err := g.Validate(); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("expected ErrDuplicateNode, got %v", err)
	}

	if _, err := NewBuilder().Build(); !errors.Is(err, ErrNoOutput) {
		t.Errorf("expected ErrNoOutput, got %v", err)
	}
}

func TestPruneDropsUnusedBranches(t *testing.T) {
	b := NewBuilder()
	in := b.Source("a.mp4")
	used := b.Chain(V(in)).Scale("10", "10").Ref()
	b.Chain(A(in)).Volume(0.5)
	b.Source("unused.mp4")
	b.Output("o.mp4", []Ref{used})

	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 2 {
		t.Errorf("expected source + scale after pruning, got %d nodes:\n%s", len(g.Nodes), g)
	}
	if len(g.NodesByOp("volume")) != 0 {
		t.Error("dangling volume node should be pruned")
	}
}

var enableExpr = regexp.MustCompile(`^gte\(t,([0-9.]+)\)\*lt\(t,([0-9.]+)\)$`)

// evalEnable evaluates the enable expression form emitted by Window.Enable
func evalEnable(t *testing.T, expr string, at float64) bool {
	t.Helper()
	m := enableExpr.FindStringSubmatch(expr)
	if m == nil {
		t.Fatalf("unexpected enable expression %q", expr)
	}
	s, _ := strconv.ParseFloat(m[1], 64)
	e, _ := strconv.ParseFloat(m[2], 64)
	return at >= s && at < e
}

func TestWindowEnableHalfOpen(t *testing.T) {
	w := Window{Start: 1.5, End: 3.25}
	expr := w.Enable()

	for _, at := range []float64{1.5, 2, 3, 3.2499} {
		if !evalEnable(t, expr, at) || !w.Contains(at) {
			t.Errorf("t=%v should be inside %s", at, expr)
		}
	}
	for _, at := range []float64{1.4999, 3.25, 4} {
		if evalEnable(t, expr, at) || w.Contains(at) {
			t.Errorf("t=%v should be outside %s", at, expr)
		}
	}
	if w.Duration() != 1.75 {
		t.Errorf("unexpected duration %v", w.Duration())
	}
}

func TestOpacityAndDelay(t *testing.T) {
	b := NewBuilder()
	in := b.Source("wm.png")
	same := b.Chain(V(in)).Opacity(1).Ref()
	if same != V(in) {
		t.Error("opacity 1 should not add nodes")
	}
	shifted := b.Chain(V(in)).Opacity(0.4).Delay(2).Ref()
	b.Output("o.mp4", []Ref{shifted})
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(g.String(), "PTS-STARTPTS+2/TB") {
		t.Errorf("missing delayed setpts:\n%s", g)
	}
	if len(g.NodesByOp("colorchannelmixer")) != 1 {
		t.Error("expected alpha mixer")
	}
}
