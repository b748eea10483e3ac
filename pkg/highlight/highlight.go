// Package highlight implements the prerequisite-chain emphasis: selecting a
// node dims everything except the node itself and the chain of `requires`
// prerequisites leading into it. The traversal is capped so that a
// pathological graph cannot dim-and-scan thousands of nodes.
package highlight

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/anim"
	"github.com/skilltreelabs/skilltree/pkg/graph"
	"github.com/skilltreelabs/skilltree/pkg/projection"
)

// Traversal and presentation constants.
const (
	// MaxDepth bounds how many prerequisite hops the chain follows.
	MaxDepth = 3
	// MaxNodes bounds the total chain size, focus node included.
	MaxNodes = 200

	// DimOpacity is the resting opacity of nodes outside the chain.
	DimOpacity = 0.25

	FadeDuration = 200 * time.Millisecond
)

// Filter matches the layout package's bundle visibility filter.
type Filter func(*projection.Bundle) bool

// Partition is the three-way split produced by a chain traversal.
type Partition struct {
	// Focus is the selected node.
	Focus uuid.UUID
	// Depth maps every chain member to its hop distance from the focus;
	// the focus itself is at depth 0.
	Depth map[uuid.UUID]int
	// Edges holds the IDs of the bundles walked by the traversal.
	Edges map[uuid.UUID]bool
	// Rest lists every projected node outside the chain, sorted by ID.
	Rest []uuid.UUID
}

// OnChain reports whether a node belongs to the highlighted chain.
func (p *Partition) OnChain(id uuid.UUID) bool {
	_, ok := p.Depth[id]
	return ok
}

// Chain walks incoming visible `requires` bundles from focus, breadth
// first, stopping at MaxDepth hops or MaxNodes nodes. Returns false when
// the focus node is not in the element set.
func Chain(els *projection.Elements, focus uuid.UUID, visible Filter) (*Partition, bool) {
	if els.Node(focus) == nil {
		return nil, false
	}
	if visible == nil {
		visible = func(*projection.Bundle) bool { return true }
	}

	// Incoming requires adjacency: dependent -> prerequisite bundles.
	incoming := make(map[uuid.UUID][]*projection.Bundle)
	for _, b := range els.Bundles {
		if b.Type != graph.EdgeRequires || !visible(b) {
			continue
		}
		incoming[b.Dst] = append(incoming[b.Dst], b)
	}

	p := &Partition{
		Focus: focus,
		Depth: map[uuid.UUID]int{focus: 0},
		Edges: make(map[uuid.UUID]bool),
	}
	queue := []uuid.UUID{focus}

	for len(queue) > 0 && len(p.Depth) < MaxNodes {
		curr := queue[0]
		queue = queue[1:]
		depth := p.Depth[curr]
		if depth == MaxDepth {
			continue
		}
		for _, b := range incoming[curr] {
			// An edge joins the chain only once both endpoints are on it,
			// so a capped traversal never emphasizes an edge into a node
			// that stayed dimmed.
			if _, seen := p.Depth[b.Src]; seen {
				p.Edges[b.ID] = true
				continue
			}
			if len(p.Depth) == MaxNodes {
				break
			}
			p.Depth[b.Src] = depth + 1
			p.Edges[b.ID] = true
			queue = append(queue, b.Src)
		}
	}

	for _, n := range els.Nodes {
		if !p.OnChain(n.ID) {
			p.Rest = append(p.Rest, n.ID)
		}
	}
	sort.Slice(p.Rest, func(i, j int) bool { return p.Rest[i].String() < p.Rest[j].String() })
	return p, true
}

// =============================================================================
// Animated application
// =============================================================================

// Highlighter owns the animated opacity state for one canvas layer. Apply,
// Clear and Toggle are restartable: a call made mid-fade cancels the fade
// and animates from the current opacities.
type Highlighter struct {
	sched   *anim.Scheduler
	els     *projection.Elements
	visible Filter

	part    *Partition
	opacity map[uuid.UUID]float64
	fade    *anim.Animation
}

// New returns a highlighter over the given element set with everything at
// full opacity.
func New(sched *anim.Scheduler, els *projection.Elements, visible Filter) *Highlighter {
	h := &Highlighter{sched: sched, els: els, visible: visible,
		opacity: make(map[uuid.UUID]float64, len(els.Nodes))}
	for _, n := range els.Nodes {
		h.opacity[n.ID] = 1
	}
	return h
}

// Active returns the current partition, or nil when no highlight is shown.
func (h *Highlighter) Active() *Partition { return h.part }

// Opacity returns a node's current animated opacity.
func (h *Highlighter) Opacity(id uuid.UUID) float64 {
	if v, ok := h.opacity[id]; ok {
		return v
	}
	return 1
}

// EdgeEmphasized reports whether a bundle is part of the active chain.
func (h *Highlighter) EdgeEmphasized(id uuid.UUID) bool {
	return h.part != nil && h.part.Edges[id]
}

// Apply highlights the chain ending at focus, fading the rest down.
// Unknown focus IDs are ignored.
func (h *Highlighter) Apply(focus uuid.UUID) {
	part, ok := Chain(h.els, focus, h.visible)
	if !ok {
		return
	}
	h.part = part

	targets := make(map[uuid.UUID]float64, len(h.els.Nodes))
	for _, n := range h.els.Nodes {
		if part.OnChain(n.ID) {
			targets[n.ID] = 1
		} else {
			targets[n.ID] = DimOpacity
		}
	}
	h.fadeTo(targets)
}

// Clear removes the highlight, fading everything back to full opacity.
// Calling Clear with no highlight active is a no-op.
func (h *Highlighter) Clear() {
	if h.part == nil {
		return
	}
	h.part = nil
	targets := make(map[uuid.UUID]float64, len(h.els.Nodes))
	for _, n := range h.els.Nodes {
		targets[n.ID] = 1
	}
	h.fadeTo(targets)
}

// Toggle applies the highlight for selection, or clears an active one.
// With no active highlight and a nil selection it does nothing.
func (h *Highlighter) Toggle(selection *uuid.UUID) {
	switch {
	case h.part != nil:
		h.Clear()
	case selection != nil:
		h.Apply(*selection)
	}
}

func (h *Highlighter) fadeTo(targets map[uuid.UUID]float64) {
	if h.fade != nil {
		h.fade.Cancel()
	}
	from := make(map[uuid.UUID]float64, len(h.opacity))
	for id, v := range h.opacity {
		from[id] = v
	}
	h.fade = h.sched.Animate(anim.Spec{
		Duration: FadeDuration,
		Easing:   anim.EaseInOutCubic,
		OnFrame: func(p float64) {
			for id, target := range targets {
				f := from[id]
				h.opacity[id] = f + (target-f)*p
			}
		},
	})
}
