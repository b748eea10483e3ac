package export

import (
	"context"
	"strings"
	"testing"

	"github.com/skilltreelabs/skilltree/pkg/graph"
	"github.com/skilltreelabs/skilltree/pkg/store"
)

func baselineSnapshot(t *testing.T) *graph.Snapshot {
	t.Helper()
	mem := store.NewMemory(store.MemoryOptions{Seed: true})
	snap, err := mem.BaselineScope(context.Background())
	if err != nil {
		t.Fatalf("BaselineScope: %v", err)
	}
	return snap
}

func TestToDOTBasics(t *testing.T) {
	dot := ToDOT(baselineSnapshot(t), Options{})

	if !strings.HasPrefix(dot, "digraph skilltree {") {
		t.Errorf("missing digraph header:\n%s", dot[:60])
	}
	if !strings.Contains(dot, "rankdir=TB") {
		t.Error("missing rankdir")
	}
	// Hubs from the seed appear with their display titles.
	for _, title := range []string{"Algebra", "Calculus", "Transforms"} {
		if !strings.Contains(dot, title) {
			t.Errorf("missing node label %q", title)
		}
	}
	// Layout rows become rank groups.
	if !strings.Contains(dot, "rank=same") {
		t.Error("missing rank groups")
	}
}

func TestToDOTEdgeVisibility(t *testing.T) {
	snap := baselineSnapshot(t)

	plain := ToDOT(snap, Options{})
	if strings.Contains(plain, "style=dashed") {
		t.Error("recommended edges rendered without ShowRecommended")
	}
	if strings.Contains(plain, "dir=none") {
		t.Error("related edges rendered without ShowRelated")
	}

	full := ToDOT(snap, Options{ShowRecommended: true, ShowRelated: true})
	if !strings.Contains(full, "style=dashed") {
		t.Error("recommended edges missing")
	}
	if !strings.Contains(full, "dir=none") {
		t.Error("related edges missing")
	}
}

func TestToDOTDetailedLabels(t *testing.T) {
	dot := ToDOT(baselineSnapshot(t), Options{Detailed: true})
	if !strings.Contains(dot, "algebra") {
		t.Error("detailed labels should include slugs")
	}
}

func TestToDOTFocusHints(t *testing.T) {
	mem := store.NewMemory(store.MemoryOptions{Seed: true})
	group, ok := mem.NodeBySlug("transforms")
	if !ok {
		t.Fatal("seed is missing transforms group")
	}
	snap, err := mem.FocusScope(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("FocusScope: %v", err)
	}
	if len(snap.BoundaryHints) == 0 {
		t.Fatal("expected boundary hints in the transforms scope")
	}

	dot := ToDOT(snap, Options{})
	if !strings.Contains(dot, "shape=note") {
		t.Error("boundary hints should render as notes")
	}
}

func TestToDOTEmptySnapshot(t *testing.T) {
	dot := ToDOT(&graph.Snapshot{}, Options{})
	if !strings.Contains(dot, "digraph skilltree") {
		t.Error("empty snapshot should still produce a valid digraph")
	}
}
