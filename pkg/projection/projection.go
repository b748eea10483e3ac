// Package projection converts a raw graph snapshot into the renderable
// element set used by the layout engine and the canvas layers.
//
// Projection is a pure function of the snapshot: low-level impl→impl edges
// are lifted to abstract-level endpoints and bundled per (source, target,
// type), self-loops produced by variant fan-in are dropped, and each node is
// tagged with presentational classes derived from its kind. Projecting the
// same snapshot twice yields identical bundle IDs and counts.
package projection

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/graph"
)

// Visual classes attached to projected nodes. Classes are purely
// presentational; no behavior is keyed off them.
const (
	ClassConcept  = "concept"
	ClassGroup    = "group"
	ClassVariants = "has-variants"
	ClassDrill    = "drillable"
)

// bundleNS is the uuid v5 namespace for deterministic bundle IDs.
var bundleNS = uuid.MustParse("00000000-0000-0000-0000-00000000b0d1")

// Node is one renderable abstract node. X and Y are written by the layout
// engine and animated by the canvas; they are not part of projection output
// proper and start at zero.
type Node struct {
	ID      uuid.UUID
	Node    graph.AbstractNode
	Classes []string

	X, Y float64
	W, H float64
}

// HasClass reports whether the node carries the given visual class.
func (n *Node) HasClass(class string) bool {
	for _, c := range n.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// Bundle is one abstract-level edge aggregating all underlying impl edges
// with the same (source, target, type). For recommended bundles Rank is the
// minimum non-nil rank across the bundle; nil when every member is unranked.
type Bundle struct {
	ID    uuid.UUID
	Src   uuid.UUID
	Dst   uuid.UUID
	Type  graph.EdgeType
	Count int
	Rank  *int

	// Bend is the perpendicular control-point distance assigned by the
	// edge-routing pass. Zero means a straight chord.
	Bend float64
}

// Related is a projected undirected related edge (already abstract-level).
type Related struct {
	A, B uuid.UUID
}

// Elements is the renderable element set for one snapshot.
type Elements struct {
	Nodes   []*Node
	Bundles []*Bundle
	Related []Related

	byID map[uuid.UUID]*Node
}

// Node returns the projected node with the given ID, or nil.
func (e *Elements) Node(id uuid.UUID) *Node {
	return e.byID[id]
}

// BundleID derives the deterministic ID for a (source, target, type) triple.
// Repeated projections of the same snapshot therefore produce stable IDs.
func BundleID(src, dst uuid.UUID, t graph.EdgeType) uuid.UUID {
	return uuid.NewSHA1(bundleNS, []byte(fmt.Sprintf("bundle:%s:%s:%s", t, src, dst)))
}

// Project converts a snapshot into its renderable element set. It performs
// no I/O and does not touch shared state.
func Project(snap *graph.Snapshot) *Elements {
	els := &Elements{byID: make(map[uuid.UUID]*Node, len(snap.AbstractNodes))}

	for _, a := range snap.AbstractNodes {
		n := &Node{ID: a.ID, Node: a, Classes: classesFor(a)}
		els.Nodes = append(els.Nodes, n)
		els.byID[a.ID] = n
	}

	owner := snap.ImplOwner()

	type key struct {
		src, dst uuid.UUID
		t        graph.EdgeType
	}
	bundles := make(map[key]*Bundle)

	for _, e := range snap.Edges {
		src, okS := owner[e.SrcImplID]
		dst, okD := owner[e.DstImplID]
		if !okS || !okD {
			continue
		}
		// Variant fan-in collapses to a self-loop at this zoom level.
		if src == dst {
			continue
		}
		if els.byID[src] == nil || els.byID[dst] == nil {
			continue
		}

		k := key{src, dst, e.Type}
		b, ok := bundles[k]
		if !ok {
			b = &Bundle{
				ID:   BundleID(src, dst, e.Type),
				Src:  src,
				Dst:  dst,
				Type: e.Type,
			}
			bundles[k] = b
		}
		b.Count++
		if e.Type == graph.EdgeRecommended && e.Rank != nil {
			if b.Rank == nil || *e.Rank < *b.Rank {
				r := *e.Rank
				b.Rank = &r
			}
		}
	}

	for _, b := range bundles {
		els.Bundles = append(els.Bundles, b)
	}
	sort.Slice(els.Bundles, func(i, j int) bool {
		return els.Bundles[i].ID.String() < els.Bundles[j].ID.String()
	})

	for _, r := range snap.RelatedEdges {
		if els.byID[r.A] == nil || els.byID[r.B] == nil {
			continue
		}
		els.Related = append(els.Related, Related{A: r.A, B: r.B})
	}

	return els
}

func classesFor(a graph.AbstractNode) []string {
	var classes []string
	switch a.Kind {
	case graph.KindGroup:
		classes = append(classes, ClassGroup)
	default:
		classes = append(classes, ClassConcept)
	}
	if a.HasVariants {
		classes = append(classes, ClassVariants)
	}
	if a.Expandable() {
		classes = append(classes, ClassDrill)
	}
	return classes
}
