package store

import (
	"sort"

	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/graph"
)

// virtualNS is the uuid v5 namespace for virtual impl IDs of groups.
var virtualNS = uuid.MustParse("00000000-0000-0000-0000-0000000071a1")

// dataset is the full graph held by a store backend. Scope builders read
// it; mutation goes through the backend's own locking.
type dataset struct {
	nodes   map[uuid.UUID]graph.AbstractNode
	impls   map[uuid.UUID]graph.ImplNode
	edges   []graph.Edge
	related []graph.RelatedEdge
}

func newDataset() *dataset {
	return &dataset{
		nodes: make(map[uuid.UUID]graph.AbstractNode),
		impls: make(map[uuid.UUID]graph.ImplNode),
	}
}

func (d *dataset) children(parent uuid.UUID) []graph.AbstractNode {
	var out []graph.AbstractNode
	for _, n := range d.nodes {
		if n.ParentID != nil && *n.ParentID == parent {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

func (d *dataset) topLevel() []graph.AbstractNode {
	var out []graph.AbstractNode
	for _, n := range d.nodes {
		if n.ParentID == nil {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

func (d *dataset) hasChildren(id uuid.UUID) bool {
	for _, n := range d.nodes {
		if n.ParentID != nil && *n.ParentID == id {
			return true
		}
	}
	return false
}

// implsOf returns a node's impls sorted by variant key.
func (d *dataset) implsOf(id uuid.UUID) []graph.ImplNode {
	var out []graph.ImplNode
	for _, i := range d.impls {
		if i.AbstractID == id {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VariantKey < out[j].VariantKey })
	return out
}

// defaultImpl picks a node's default implementation: the "core" variant
// when present, otherwise the lexicographically smallest variant key.
// Returns false for nodes with no impls.
func (d *dataset) defaultImpl(id uuid.UUID) (graph.ImplNode, bool) {
	impls := d.implsOf(id)
	if len(impls) == 0 {
		return graph.ImplNode{}, false
	}
	for _, i := range impls {
		if i.VariantKey == graph.VariantCore {
			return i, true
		}
	}
	return impls[0], true
}

// virtualImpl derives the deterministic stand-in impl for a group that has
// no impls of its own.
func virtualImpl(abstractID uuid.UUID) graph.ImplNode {
	return graph.ImplNode{
		ID:         uuid.NewSHA1(virtualNS, []byte("virtual:"+abstractID.String())),
		AbstractID: abstractID,
		VariantKey: graph.VariantCore,
	}
}

// repImpl returns the impl that represents a visible node in a scope: the
// default impl when one exists, a virtual impl otherwise.
func (d *dataset) repImpl(id uuid.UUID) graph.ImplNode {
	if impl, ok := d.defaultImpl(id); ok {
		return impl
	}
	return virtualImpl(id)
}

// owner maps an impl ID to its abstract owner; ok=false for unknown impls.
func (d *dataset) owner(implID uuid.UUID) (uuid.UUID, bool) {
	i, ok := d.impls[implID]
	if !ok {
		return uuid.Nil, false
	}
	return i.AbstractID, true
}

// ancestors returns the parent chain of a node, nearest first.
func (d *dataset) ancestors(id uuid.UUID) []uuid.UUID {
	var chain []uuid.UUID
	curr := id
	for {
		n, ok := d.nodes[curr]
		if !ok || n.ParentID == nil {
			return chain
		}
		chain = append(chain, *n.ParentID)
		curr = *n.ParentID
	}
}

// inSubtree reports whether node id lives in root's subtree (root included).
func (d *dataset) inSubtree(id, root uuid.UUID) bool {
	if id == root {
		return true
	}
	for _, a := range d.ancestors(id) {
		if a == root {
			return true
		}
	}
	return false
}

// requiresCycle reports whether adding a requires edge from prerequisite
// src to dependent dst (abstract IDs) would close a cycle: that is, whether
// src is already reachable from dst following requires edges downstream.
func (d *dataset) requiresCycle(src, dst uuid.UUID) bool {
	if src == dst {
		return true
	}
	next := make(map[uuid.UUID][]uuid.UUID)
	for _, e := range d.edges {
		if e.Type != graph.EdgeRequires {
			continue
		}
		a, okA := d.owner(e.SrcImplID)
		b, okB := d.owner(e.DstImplID)
		if !okA || !okB {
			continue
		}
		next[a] = append(next[a], b)
	}

	seen := map[uuid.UUID]bool{dst: true}
	queue := []uuid.UUID{dst}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, n := range next[curr] {
			if n == src {
				return true
			}
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return false
}
