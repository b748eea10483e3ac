package store

import (
	"sort"

	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/graph"
)

// aggNS is the uuid v5 namespace for aggregated edge IDs, so rebuilding a
// scope yields stable edges.
var aggNS = uuid.MustParse("00000000-0000-0000-0000-0000000a66e1")

type aggKey struct {
	src, dst uuid.UUID
	t        graph.EdgeType
}

type aggEdge struct {
	rank *int
}

// buildBaseline flattens the hierarchy for the root scope: top-level groups
// are hidden, their children (hubs) shown, and edges from buried
// descendants lifted to the visible ancestor with min-rank merging.
func buildBaseline(d *dataset) *graph.Snapshot {
	visible := make(map[uuid.UUID]bool)
	for _, top := range d.topLevel() {
		if top.Kind == graph.KindGroup && d.hasChildren(top.ID) {
			for _, c := range d.children(top.ID) {
				visible[c.ID] = true
			}
			continue
		}
		visible[top.ID] = true
	}

	// climb maps any node to the visible ancestor that represents it.
	climb := func(id uuid.UUID) (uuid.UUID, bool) {
		curr := id
		for {
			if visible[curr] {
				return curr, true
			}
			n, ok := d.nodes[curr]
			if !ok || n.ParentID == nil {
				return uuid.Nil, false
			}
			curr = *n.ParentID
		}
	}

	return buildScope(d, visible, climb, nil, nil)
}

// buildFocus builds the scope for a focused group: its immediate children
// are visible and edges leaving the subtree become boundary hints.
func buildFocus(d *dataset, groupID uuid.UUID) *graph.Snapshot {
	visible := make(map[uuid.UUID]bool)
	for _, c := range d.children(groupID) {
		visible[c.ID] = true
	}

	// climb maps subtree members to the visible child that contains them;
	// anything outside the subtree maps to nothing (boundary handling
	// picks those up).
	climb := func(id uuid.UUID) (uuid.UUID, bool) {
		curr := id
		for {
			if visible[curr] {
				return curr, true
			}
			n, ok := d.nodes[curr]
			if !ok || n.ParentID == nil {
				return uuid.Nil, false
			}
			curr = *n.ParentID
		}
	}

	// The focus ancestor chain stops the outward climb for hint grouping.
	focusChain := map[uuid.UUID]bool{groupID: true}
	for _, a := range d.ancestors(groupID) {
		focusChain[a] = true
	}

	return buildScope(d, visible, climb, &groupID, focusChain)
}

// buildScope assembles a snapshot from a visibility set. When focusID is
// non-nil, edges with exactly one endpoint in the focus subtree are
// summarized as boundary hints grouped by the topmost outside ancestor
// whose parent sits on the focus ancestor chain.
func buildScope(d *dataset, visible map[uuid.UUID]bool, climb func(uuid.UUID) (uuid.UUID, bool), focusID *uuid.UUID, focusChain map[uuid.UUID]bool) *graph.Snapshot {
	snap := &graph.Snapshot{
		AbstractNodes: []graph.AbstractNode{},
		ImplNodes:     []graph.ImplNode{},
		Edges:         []graph.Edge{},
		RelatedEdges:  []graph.RelatedEdge{},
		BoundaryHints: []graph.BoundaryHint{},
	}

	var ids []uuid.UUID
	for id := range visible {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return d.nodes[ids[i]].Slug < d.nodes[ids[j]].Slug })

	implSeen := make(map[uuid.UUID]bool)
	for _, id := range ids {
		n := d.nodes[id]
		own := d.implsOf(id)
		view := n
		view.HasChildren = d.hasChildren(id)
		view.HasVariants = len(own) > 1
		rep := d.repImpl(id)
		repID := rep.ID
		view.DefaultImplID = &repID
		snap.AbstractNodes = append(snap.AbstractNodes, view)

		for _, i := range own {
			if !implSeen[i.ID] {
				implSeen[i.ID] = true
				snap.ImplNodes = append(snap.ImplNodes, i)
			}
		}
		if !implSeen[rep.ID] {
			implSeen[rep.ID] = true
			snap.ImplNodes = append(snap.ImplNodes, rep)
		}
	}

	// Aggregate lifted edges, merging to the minimum rank.
	agg := make(map[aggKey]*aggEdge)
	hints := make(map[uuid.UUID]map[graph.EdgeType]map[graph.Direction]int)

	for _, e := range d.edges {
		srcA, okS := d.owner(e.SrcImplID)
		dstA, okD := d.owner(e.DstImplID)
		if !okS || !okD {
			continue
		}
		srcRep, srcIn := climb(srcA)
		dstRep, dstIn := climb(dstA)

		switch {
		case srcIn && dstIn:
			if srcRep == dstRep {
				continue
			}
			k := aggKey{srcRep, dstRep, e.Type}
			a, ok := agg[k]
			if !ok {
				a = &aggEdge{}
				agg[k] = a
			}
			if e.Rank != nil && (a.rank == nil || *e.Rank < *a.rank) {
				r := *e.Rank
				a.rank = &r
			}
		case focusID != nil && (srcIn || dstIn):
			outside := srcA
			dir := graph.DirDependsOn // the scope requires something outside
			if srcIn {
				outside = dstA
				dir = graph.DirUsedBy // something outside requires the scope
			}
			hintID := hintGroup(d, outside, focusChain)
			if _, ok := d.nodes[hintID]; !ok {
				continue
			}
			if hints[hintID] == nil {
				hints[hintID] = make(map[graph.EdgeType]map[graph.Direction]int)
			}
			if hints[hintID][e.Type] == nil {
				hints[hintID][e.Type] = make(map[graph.Direction]int)
			}
			hints[hintID][e.Type][dir]++
		}
	}

	var keys []aggKey
	for k := range agg {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].src != keys[j].src {
			return keys[i].src.String() < keys[j].src.String()
		}
		if keys[i].dst != keys[j].dst {
			return keys[i].dst.String() < keys[j].dst.String()
		}
		return keys[i].t < keys[j].t
	})
	for _, k := range keys {
		snap.Edges = append(snap.Edges, graph.Edge{
			ID:        uuid.NewSHA1(aggNS, []byte("agg:"+string(k.t)+":"+k.src.String()+":"+k.dst.String())),
			SrcImplID: d.repImpl(k.src).ID,
			DstImplID: d.repImpl(k.dst).ID,
			Type:      k.t,
			Rank:      agg[k].rank,
		})
	}

	// Related edges lift the same way; crossings are dropped (hints carry
	// a direction, which related edges do not have).
	relSeen := make(map[[2]uuid.UUID]bool)
	for _, r := range d.related {
		a, okA := climb(r.A)
		b, okB := climb(r.B)
		if !okA || !okB || a == b {
			continue
		}
		key := [2]uuid.UUID{a, b}
		if b.String() < a.String() {
			key = [2]uuid.UUID{b, a}
		}
		if relSeen[key] {
			continue
		}
		relSeen[key] = true
		snap.RelatedEdges = append(snap.RelatedEdges, graph.RelatedEdge{A: key[0], B: key[1]})
	}
	sort.Slice(snap.RelatedEdges, func(i, j int) bool {
		if snap.RelatedEdges[i].A != snap.RelatedEdges[j].A {
			return snap.RelatedEdges[i].A.String() < snap.RelatedEdges[j].A.String()
		}
		return snap.RelatedEdges[i].B.String() < snap.RelatedEdges[j].B.String()
	})

	var hintIDs []uuid.UUID
	for id := range hints {
		hintIDs = append(hintIDs, id)
	}
	sort.Slice(hintIDs, func(i, j int) bool { return d.nodes[hintIDs[i]].Slug < d.nodes[hintIDs[j]].Slug })
	for _, id := range hintIDs {
		n := d.nodes[id]
		for _, t := range []graph.EdgeType{graph.EdgeRequires, graph.EdgeRecommended} {
			for _, dir := range []graph.Direction{graph.DirDependsOn, graph.DirUsedBy} {
				if count := hints[id][t][dir]; count > 0 {
					snap.BoundaryHints = append(snap.BoundaryHints, graph.BoundaryHint{
						GroupID:    id,
						Title:      n.Title,
						ShortTitle: n.ShortTitle,
						Type:       t,
						Direction:  dir,
						Count:      count,
					})
				}
			}
		}
	}

	return snap
}

// hintGroup climbs from an outside node to the topmost ancestor whose
// parent is on the focus ancestor chain (or the top level). That ancestor
// is the navigable group a boundary hint points at.
func hintGroup(d *dataset, outside uuid.UUID, focusChain map[uuid.UUID]bool) uuid.UUID {
	curr := outside
	for {
		n, ok := d.nodes[curr]
		if !ok || n.ParentID == nil {
			return curr
		}
		if focusChain[*n.ParentID] {
			return curr
		}
		curr = *n.ParentID
	}
}
