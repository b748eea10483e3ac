// Package layout assigns 2D coordinates to a projected element set using a
// layered (hierarchical) algorithm oriented by the `requires` edge
// direction.
//
// Orientation convention, applied uniformly: prerequisites sit in lower row
// indices (drawn at the top of the canvas) and dependents below them. A
// layout root is a node with zero incoming visible `requires` edges; roots
// are recomputed on every pass because edge visibility can change between
// passes.
//
// The algorithm is the classic layered pipeline: longest-path layering via
// Kahn's topological traversal, barycenter ordering within each row to
// reduce crossings, then coordinate assignment with uniform spacing. An
// optional routing pass bends edges whose straight chord would cross an
// unrelated node's box; see route.go.
//
// Layout mutates only the visual position fields of nodes and the bend field
// of bundles. It never alters the logical element set, so it can be re-run
// at any time.
package layout

import (
	"sort"

	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/graph"
	"github.com/skilltreelabs/skilltree/pkg/projection"
)

// Default geometry constants shared by every caller.
const (
	DefaultNodeWidth  = 120.0
	DefaultNodeHeight = 48.0
	DefaultHSpacing   = 60.0
	DefaultVSpacing   = 90.0
	DefaultPadding    = 40.0
)

// Filter decides which bundles participate in a layout pass. Hidden edges
// do not count for root detection or layering.
type Filter func(*projection.Bundle) bool

// VisibleAll admits every bundle.
func VisibleAll(*projection.Bundle) bool { return true }

// Options configures a layout pass. The zero value is not usable; use
// DefaultOptions.
type Options struct {
	NodeWidth  float64
	NodeHeight float64
	HSpacing   float64 // horizontal gap between adjacent nodes in a row
	VSpacing   float64 // vertical gap between rows
	Padding    float64 // outer margin around the drawing

	// Visible filters the bundles that participate. Nil means all.
	Visible Filter

	// Route enables the occlusion-avoiding edge routing pass.
	Route bool
}

// DefaultOptions returns the standard layout configuration.
func DefaultOptions() Options {
	return Options{
		NodeWidth:  DefaultNodeWidth,
		NodeHeight: DefaultNodeHeight,
		HSpacing:   DefaultHSpacing,
		VSpacing:   DefaultVSpacing,
		Padding:    DefaultPadding,
		Visible:    VisibleAll,
		Route:      true,
	}
}

// Roots returns the IDs of the current layout roots: nodes with zero
// incoming visible `requires` edges. The result is sorted for determinism.
func Roots(els *projection.Elements, visible Filter) []uuid.UUID {
	if visible == nil {
		visible = VisibleAll
	}
	hasIncoming := make(map[uuid.UUID]bool)
	for _, b := range els.Bundles {
		if b.Type != graph.EdgeRequires || !visible(b) {
			continue
		}
		hasIncoming[b.Dst] = true
	}

	var roots []uuid.UUID
	for _, n := range els.Nodes {
		if !hasIncoming[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].String() < roots[j].String() })
	return roots
}

// Run assigns coordinates to every node in els and, when opts.Route is set,
// bend offsets to occluded bundles. Returns the resulting row assignment
// keyed by node ID (useful for tests and debugging overlays).
func Run(els *projection.Elements, opts Options) map[uuid.UUID]int {
	if opts.Visible == nil {
		opts.Visible = VisibleAll
	}
	rows := assignRows(els, opts.Visible)
	order := orderRows(els, rows, opts.Visible)
	place(els, order, opts)
	if opts.Route {
		routeEdges(els, opts)
	}
	return rows
}

// assignRows computes longest-path layers over visible requires edges with
// Kahn's algorithm: every node lands one row below its deepest prerequisite.
// Nodes trapped in a cycle never reach zero in-degree and stay at row 0;
// the backend guards the requires subgraph against cycles, so this is a
// degenerate case rather than an expected input.
func assignRows(els *projection.Elements, visible Filter) map[uuid.UUID]int {
	inDegree := make(map[uuid.UUID]int, len(els.Nodes))
	children := make(map[uuid.UUID][]uuid.UUID)

	for _, n := range els.Nodes {
		inDegree[n.ID] = 0
	}
	for _, b := range els.Bundles {
		if b.Type != graph.EdgeRequires || !visible(b) {
			continue
		}
		inDegree[b.Dst]++
		children[b.Src] = append(children[b.Src], b.Dst)
	}

	rows := make(map[uuid.UUID]int, len(els.Nodes))
	var queue []uuid.UUID
	for _, n := range els.Nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	sort.Slice(queue, func(i, j int) bool { return queue[i].String() < queue[j].String() })

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range children[curr] {
			if row := rows[curr] + 1; row > rows[child] {
				rows[child] = row
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
	return rows
}

// orderRows sorts each row by the barycenter of parents in the row above,
// falling back to slug order so disconnected nodes keep a stable position.
func orderRows(els *projection.Elements, rows map[uuid.UUID]int, visible Filter) [][]*projection.Node {
	maxRow := 0
	for _, r := range rows {
		if r > maxRow {
			maxRow = r
		}
	}

	byRow := make([][]*projection.Node, maxRow+1)
	for _, n := range els.Nodes {
		r := rows[n.ID]
		byRow[r] = append(byRow[r], n)
	}

	parents := make(map[uuid.UUID][]uuid.UUID)
	for _, b := range els.Bundles {
		if b.Type != graph.EdgeRequires || !visible(b) {
			continue
		}
		parents[b.Dst] = append(parents[b.Dst], b.Src)
	}

	pos := make(map[uuid.UUID]int)
	for r, row := range byRow {
		sort.Slice(row, func(i, j int) bool { return row[i].Node.Slug < row[j].Node.Slug })
		if r > 0 {
			sort.SliceStable(row, func(i, j int) bool {
				return barycenter(row[i].ID, parents, pos) < barycenter(row[j].ID, parents, pos)
			})
		}
		for i, n := range row {
			pos[n.ID] = i
		}
	}
	return byRow
}

func barycenter(id uuid.UUID, parents map[uuid.UUID][]uuid.UUID, pos map[uuid.UUID]int) float64 {
	ps := parents[id]
	if len(ps) == 0 {
		return float64(pos[id])
	}
	sum := 0.0
	for _, p := range ps {
		sum += float64(pos[p])
	}
	return sum / float64(len(ps))
}

// place assigns concrete coordinates: rows stack downward, each row is
// centered horizontally around x=0 so the camera fit works from any scope.
func place(els *projection.Elements, byRow [][]*projection.Node, opts Options) {
	for r, row := range byRow {
		y := opts.Padding + float64(r)*(opts.NodeHeight+opts.VSpacing)
		total := float64(len(row))*opts.NodeWidth + float64(len(row)-1)*opts.HSpacing
		x := -total / 2
		for _, n := range row {
			n.X = x + opts.NodeWidth/2
			n.Y = y
			n.W = opts.NodeWidth
			n.H = opts.NodeHeight
			x += opts.NodeWidth + opts.HSpacing
		}
	}
}

// Bounds returns the axis-aligned bounding box of all placed nodes,
// expanded by the layout padding. Returns ok=false for an empty set.
func Bounds(els *projection.Elements, opts Options) (minX, minY, maxX, maxY float64, ok bool) {
	if len(els.Nodes) == 0 {
		return 0, 0, 0, 0, false
	}
	first := els.Nodes[0]
	minX, maxX = first.X, first.X
	minY, maxY = first.Y, first.Y
	for _, n := range els.Nodes {
		minX = min(minX, n.X-n.W/2)
		maxX = max(maxX, n.X+n.W/2)
		minY = min(minY, n.Y-n.H/2)
		maxY = max(maxY, n.Y+n.H/2)
	}
	return minX - opts.Padding, minY - opts.Padding, maxX + opts.Padding, maxY + opts.Padding, true
}
