package store

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/errors"
	"github.com/skilltreelabs/skilltree/pkg/graph"
)

func seededStore(t *testing.T) *Memory {
	t.Helper()
	return NewMemory(MemoryOptions{Seed: true})
}

func nodeBySlug(t *testing.T, snap *graph.Snapshot, slug string) graph.AbstractNode {
	t.Helper()
	for _, n := range snap.AbstractNodes {
		if n.Slug == slug {
			return n
		}
	}
	t.Fatalf("node %q not in snapshot", slug)
	return graph.AbstractNode{}
}

func hasSlug(snap *graph.Snapshot, slug string) bool {
	for _, n := range snap.AbstractNodes {
		if n.Slug == slug {
			return true
		}
	}
	return false
}

// edgeBetween finds the aggregated edge between two visible nodes by slug.
func edgeBetween(t *testing.T, snap *graph.Snapshot, src, dst string, typ graph.EdgeType) (graph.Edge, bool) {
	t.Helper()
	owner := snap.ImplOwner()
	srcID := nodeBySlug(t, snap, src).ID
	dstID := nodeBySlug(t, snap, dst).ID
	for _, e := range snap.Edges {
		if owner[e.SrcImplID] == srcID && owner[e.DstImplID] == dstID && e.Type == typ {
			return e, true
		}
	}
	return graph.Edge{}, false
}

// =============================================================================
// Baseline scope
// =============================================================================

func TestBaselineHidesDomainsShowsHubs(t *testing.T) {
	m := seededStore(t)
	snap, err := m.BaselineScope(context.Background())
	if err != nil {
		t.Fatalf("BaselineScope: %v", err)
	}

	for _, hidden := range []string{"math", "physics", "dsp", "derivatives", "fft"} {
		if hasSlug(snap, hidden) {
			t.Errorf("%q visible in baseline, want hidden", hidden)
		}
	}
	hubs := []string{"algebra", "calculus", "linear-algebra", "mechanics", "electromagnetism", "sampling", "transforms"}
	for _, hub := range hubs {
		if !hasSlug(snap, hub) {
			t.Errorf("hub %q missing from baseline", hub)
		}
	}
	if len(snap.AbstractNodes) != len(hubs) {
		t.Errorf("baseline has %d nodes, want %d", len(snap.AbstractNodes), len(hubs))
	}
	if len(snap.BoundaryHints) != 0 {
		t.Errorf("baseline has %d boundary hints, want 0", len(snap.BoundaryHints))
	}
}

func TestBaselineLiftsBuriedEdges(t *testing.T) {
	m := seededStore(t)
	snap, err := m.BaselineScope(context.Background())
	if err != nil {
		t.Fatalf("BaselineScope: %v", err)
	}

	// derivatives -> kinematics lifts to calculus -> mechanics.
	if _, ok := edgeBetween(t, snap, "calculus", "mechanics", graph.EdgeRequires); !ok {
		t.Error("missing lifted calculus -> mechanics edge")
	}
	// Edges within one hub collapse and disappear.
	if _, ok := edgeBetween(t, snap, "calculus", "calculus", graph.EdgeRequires); ok {
		t.Error("intra-hub edge survived lifting")
	}
	// rings -> eigenvalues (recommended, rank 1) lifts with its rank.
	e, ok := edgeBetween(t, snap, "algebra", "linear-algebra", graph.EdgeRecommended)
	if !ok {
		t.Fatal("missing lifted algebra -> linear-algebra recommended edge")
	}
	if e.Rank == nil || *e.Rank != 1 {
		t.Errorf("lifted rank = %v, want 1", e.Rank)
	}
}

func TestBaselineLiftsRelatedEdges(t *testing.T) {
	m := seededStore(t)
	snap, _ := m.BaselineScope(context.Background())

	calc := nodeBySlug(t, snap, "calculus").ID
	trans := nodeBySlug(t, snap, "transforms").ID
	found := false
	for _, r := range snap.RelatedEdges {
		if (r.A == calc && r.B == trans) || (r.A == trans && r.B == calc) {
			found = true
		}
	}
	if !found {
		t.Error("fourier-series ~ integrals did not lift to transforms ~ calculus")
	}
}

func TestBaselineIsDeterministic(t *testing.T) {
	a, _ := seededStore(t).BaselineScope(context.Background())
	b, _ := seededStore(t).BaselineScope(context.Background())

	aj, err := graph.MarshalSnapshot(a)
	if err != nil {
		t.Fatal(err)
	}
	bj, err := graph.MarshalSnapshot(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(aj, bj) {
		t.Fatal("two seeded stores produced different baseline snapshots")
	}
}

// =============================================================================
// Focus scope
// =============================================================================

func TestFocusScopeShowsChildren(t *testing.T) {
	m := seededStore(t)
	snap, err := m.FocusScope(context.Background(), SeedID("transforms"))
	if err != nil {
		t.Fatalf("FocusScope: %v", err)
	}

	for _, want := range []string{"fourier-series", "fft", "z-transform"} {
		if !hasSlug(snap, want) {
			t.Errorf("child %q missing from focus scope", want)
		}
	}
	if len(snap.AbstractNodes) != 3 {
		t.Errorf("focus scope has %d nodes, want 3", len(snap.AbstractNodes))
	}

	if _, ok := edgeBetween(t, snap, "fourier-series", "fft", graph.EdgeRequires); !ok {
		t.Error("missing internal fourier-series -> fft edge")
	}
	if nodeBySlug(t, snap, "fft").HasVariants != true {
		t.Error("fft should report variants")
	}
}

func TestFocusScopeBoundaryHints(t *testing.T) {
	m := seededStore(t)
	snap, err := m.FocusScope(context.Background(), SeedID("transforms"))
	if err != nil {
		t.Fatalf("FocusScope: %v", err)
	}

	type key struct {
		slug string
		typ  graph.EdgeType
		dir  graph.Direction
	}
	got := make(map[key]int)
	byID := make(map[uuid.UUID]string)
	// Hints point at groups outside the snapshot; resolve via seed IDs.
	for _, slug := range []string{"math", "physics", "dsp", "sampling", "calculus", "linear-algebra"} {
		byID[SeedID(slug)] = slug
	}
	for _, h := range snap.BoundaryHints {
		got[key{byID[h.GroupID], h.Type, h.Direction}] = h.Count
	}

	want := map[key]int{
		// integrals -> fourier-series: climbs past calculus to math.
		{"math", graph.EdgeRequires, graph.DirDependsOn}: 1,
		// matrices -> fft (recommended).
		{"math", graph.EdgeRecommended, graph.DirDependsOn}: 1,
		// nyquist -> fft: sampling's parent dsp is on the focus chain.
		{"sampling", graph.EdgeRequires, graph.DirDependsOn}: 1,
		// fft -> maxwell-equations (recommended): scope is the prerequisite.
		{"physics", graph.EdgeRecommended, graph.DirUsedBy}: 1,
	}
	for k, count := range want {
		if got[k] != count {
			t.Errorf("hint %+v = %d, want %d", k, got[k], count)
		}
	}
	if len(got) != len(want) {
		t.Errorf("hints = %v, want exactly %d entries", got, len(want))
	}
}

func TestFocusScopeRejectsNonGroups(t *testing.T) {
	m := seededStore(t)
	_, err := m.FocusScope(context.Background(), SeedID("fft"))
	if !errors.Is(err, errors.ErrCodeScopeNotFound) {
		t.Fatalf("error = %v, want SCOPE_NOT_FOUND", err)
	}
	_, err = m.FocusScope(context.Background(), uuid.New())
	if !errors.Is(err, errors.ErrCodeScopeNotFound) {
		t.Fatalf("error = %v, want SCOPE_NOT_FOUND", err)
	}
}

// =============================================================================
// Default impl selection
// =============================================================================

func TestDefaultImplPrefersCore(t *testing.T) {
	m := seededStore(t)

	impl, ok := m.data.defaultImpl(SeedID("fft"))
	if !ok || impl.VariantKey != graph.VariantCore {
		t.Fatalf("default impl = %+v (ok=%v), want core variant", impl, ok)
	}
}

func TestDefaultImplFallsBackLexicographic(t *testing.T) {
	m := NewMemory(MemoryOptions{})
	id := uuid.New()
	m.data.nodes[id] = graph.AbstractNode{ID: id, Slug: "x", Kind: graph.KindConcept}
	for _, v := range []string{"zeta", "beta", "delta"} {
		impl := graph.ImplNode{ID: uuid.New(), AbstractID: id, VariantKey: v}
		m.data.impls[impl.ID] = impl
	}

	impl, ok := m.data.defaultImpl(id)
	if !ok || impl.VariantKey != "beta" {
		t.Fatalf("default impl variant = %q (ok=%v), want beta", impl.VariantKey, ok)
	}
}

// =============================================================================
// Mutation
// =============================================================================

func TestCreateNode(t *testing.T) {
	m := seededStore(t)
	ctx := context.Background()
	parent := SeedID("transforms")

	node, err := m.CreateNode(ctx, CreateNodeInput{
		Slug:     "wavelets",
		Title:    "Wavelet Transforms",
		Kind:     graph.KindConcept,
		ParentID: &parent,
		Requires: []uuid.UUID{SeedID("fourier-series")},
	})
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}

	snap, err := m.FocusScope(ctx, parent)
	if err != nil {
		t.Fatalf("FocusScope: %v", err)
	}
	if !hasSlug(snap, "wavelets") {
		t.Fatal("created node missing from parent's focus scope")
	}
	if _, ok := edgeBetween(t, snap, "fourier-series", "wavelets", graph.EdgeRequires); !ok {
		t.Error("prerequisite edge missing")
	}
	if node.ID == uuid.Nil {
		t.Error("node ID not assigned")
	}
}

func TestCreateNodeValidation(t *testing.T) {
	m := seededStore(t)
	ctx := context.Background()
	concept := SeedID("fft")

	tests := []struct {
		name string
		in   CreateNodeInput
		code errors.Code
	}{
		{"bad slug", CreateNodeInput{Slug: "Bad Slug", Title: "T", Kind: graph.KindConcept}, errors.ErrCodeInvalidSlug},
		{"empty title", CreateNodeInput{Slug: "ok", Title: "  ", Kind: graph.KindConcept}, errors.ErrCodeInvalidInput},
		{"bad kind", CreateNodeInput{Slug: "ok", Title: "T", Kind: "widget"}, errors.ErrCodeInvalidInput},
		{"duplicate slug", CreateNodeInput{Slug: "fft", Title: "T", Kind: graph.KindConcept}, errors.ErrCodeDuplicate},
		{"concept parent", CreateNodeInput{Slug: "ok", Title: "T", Kind: graph.KindConcept, ParentID: &concept}, errors.ErrCodeInvalidInput},
		{"unknown prerequisite", CreateNodeInput{Slug: "ok", Title: "T", Kind: graph.KindConcept, Requires: []uuid.UUID{uuid.New()}}, errors.ErrCodeNodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.CreateNode(ctx, tt.in)
			if !errors.Is(err, tt.code) {
				t.Fatalf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestAddRequiresRejectsCycles(t *testing.T) {
	m := seededStore(t)
	ctx := context.Background()

	// sets -> group-theory -> rings already exists; closing the loop must fail.
	err := m.AddRequires(ctx, SeedID("rings"), SeedID("sets"))
	if !errors.Is(err, errors.ErrCodeCycle) {
		t.Fatalf("error = %v, want CYCLE", err)
	}

	// Self-edges are cycles too.
	err = m.AddRequires(ctx, SeedID("sets"), SeedID("sets"))
	if !errors.Is(err, errors.ErrCodeCycle) {
		t.Fatalf("self edge error = %v, want CYCLE", err)
	}

	// A legitimate edge is accepted.
	if err := m.AddRequires(ctx, SeedID("sets"), SeedID("vectors")); err != nil {
		t.Fatalf("valid edge rejected: %v", err)
	}
}

func TestReseedRestoresDataset(t *testing.T) {
	m := seededStore(t)
	ctx := context.Background()

	if _, err := m.CreateNode(ctx, CreateNodeInput{Slug: "scratch", Title: "Scratch", Kind: graph.KindConcept}); err != nil {
		t.Fatal(err)
	}
	if err := m.Reseed(ctx); err != nil {
		t.Fatalf("Reseed: %v", err)
	}
	snap, _ := m.BaselineScope(ctx)
	if hasSlug(snap, "scratch") {
		t.Fatal("reseed kept a created node")
	}

	fresh, _ := seededStore(t).BaselineScope(ctx)
	aj, _ := graph.MarshalSnapshot(snap)
	bj, _ := graph.MarshalSnapshot(fresh)
	if !bytes.Equal(aj, bj) {
		t.Fatal("reseeded store differs from a fresh seeded store")
	}
}

func TestNodeBySlug(t *testing.T) {
	m := seededStore(t)
	n, ok := m.NodeBySlug("calculus")
	if !ok || n.ID != SeedID("calculus") {
		t.Fatalf("NodeBySlug = %+v (ok=%v)", n, ok)
	}
	if _, ok := m.NodeBySlug("nope"); ok {
		t.Fatal("found nonexistent slug")
	}
}
