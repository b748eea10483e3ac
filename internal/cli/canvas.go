package cli

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/focus"
	"github.com/skilltreelabs/skilltree/pkg/graph"
	"github.com/skilltreelabs/skilltree/pkg/projection"
)

// Screen pixels per terminal cell. The engine works in pixel coordinates;
// the canvas quantizes to the character grid at draw time.
const (
	cellW = 10.0
	cellH = 22.0
)

const maxLabelWidth = 16

// glyphClass selects the style a cell is rendered with.
type glyphClass uint8

const (
	glyphEmpty glyphClass = iota
	glyphEdge
	glyphEdgeEmphasized
	glyphDim
	glyphNode
	glyphGroup
	glyphSelected
)

// canvas is one frame's character grid.
type canvas struct {
	w, h  int
	runes []rune
	class []glyphClass
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, runes: make([]rune, w*h), class: make([]glyphClass, w*h)}
	for i := range c.runes {
		c.runes[i] = ' '
	}
	return c
}

func (c *canvas) put(col, row int, r rune, cls glyphClass) {
	if col < 0 || col >= c.w || row < 0 || row >= c.h {
		return
	}
	i := row*c.w + col
	// Node labels win over edge dots.
	if c.class[i] >= glyphDim && cls < glyphDim {
		return
	}
	c.runes[i] = r
	c.class[i] = cls
}

func (c *canvas) text(col, row int, s string, cls glyphClass) {
	for i, r := range s {
		c.put(col+i, row, r, cls)
	}
}

// drawLayer renders one layer's edges and nodes through its camera.
func (c *canvas) drawLayer(l *focus.Layer, vis *focus.EdgeVisibility, selection *uuid.UUID) {
	filter := vis.Filter()
	faded := l.Opacity() < 0.7

	for _, b := range l.Els.Bundles {
		if !filter(b) {
			continue
		}
		c.drawEdge(l, b, faded)
	}
	if vis.ShowRelated() {
		for _, r := range l.Els.Related {
			c.drawChord(l, r.A, r.B, '~', glyphEdge)
		}
	}

	for _, n := range l.Els.Nodes {
		c.drawNode(l, n, selection, faded)
	}
}

func (c *canvas) drawEdge(l *focus.Layer, b *projection.Bundle, faded bool) {
	cls := glyphEdge
	r := '·'
	if b.Type == graph.EdgeRecommended {
		r = '˙'
	}
	if !faded && l.Style.EdgeEmphasized(b.ID) {
		cls = glyphEdgeEmphasized
		r = '•'
	}
	c.drawChord(l, b.Src, b.Dst, r, cls)
}

// drawChord samples the straight chord between two nodes at cell
// granularity. Endpoints are skipped so the dots do not overwrite node
// labels.
func (c *canvas) drawChord(l *focus.Layer, a, b uuid.UUID, r rune, cls glyphClass) {
	src, dst := l.Els.Node(a), l.Els.Node(b)
	if src == nil || dst == nil {
		return
	}
	x0, y0 := l.Camera.WorldToScreen(src.X, src.Y)
	x1, y1 := l.Camera.WorldToScreen(dst.X, dst.Y)

	c0, r0 := int(x0/cellW), int(y0/cellH)
	c1, r1 := int(x1/cellW), int(y1/cellH)
	steps := max(abs(c1-c0), abs(r1-r0))
	for i := 1; i < steps; i++ {
		t := float64(i) / float64(steps)
		col := c0 + int(t*float64(c1-c0))
		row := r0 + int(t*float64(r1-r0))
		c.put(col, row, r, cls)
	}
}

func (c *canvas) drawNode(l *focus.Layer, n *projection.Node, selection *uuid.UUID, faded bool) {
	sx, sy := l.Camera.WorldToScreen(n.X, n.Y)
	col, row := int(sx/cellW), int(sy/cellH)

	label := truncateLabel(n.Node.DisplayTitle())
	if n.Node.Expandable() {
		label = "[" + label + "]"
	}

	cls := glyphNode
	switch {
	case selection != nil && *selection == n.ID:
		cls = glyphSelected
	case faded || l.Style.Opacity(n.ID) < 0.6:
		cls = glyphDim
	case n.Node.Expandable():
		cls = glyphGroup
	}

	c.text(col-len([]rune(label))/2, row, label, cls)
}

// render flattens the grid into styled terminal lines.
func (c *canvas) render() string {
	styles := map[glyphClass]lipgloss.Style{
		glyphEdge:           StyleDim,
		glyphEdgeEmphasized: StyleHighlight,
		glyphDim:            StyleDim,
		glyphNode:           StyleValue,
		glyphGroup:          StyleSuccess,
		glyphSelected:       styleSelected,
	}

	var b strings.Builder
	for row := 0; row < c.h; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		// Batch runs of the same class to keep the frame small.
		start := row * c.w
		i := start
		for i < start+c.w {
			j := i
			cls := c.class[i]
			for j < start+c.w && c.class[j] == cls {
				j++
			}
			seg := string(c.runes[i:j])
			if cls == glyphEmpty {
				b.WriteString(seg)
			} else {
				b.WriteString(styles[cls].Render(seg))
			}
			i = j
		}
	}
	return b.String()
}

// selectableNodes returns the layer's nodes in reading order, rows first.
func selectableNodes(l *focus.Layer) []*projection.Node {
	nodes := make([]*projection.Node, len(l.Els.Nodes))
	copy(nodes, l.Els.Nodes)
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Y != nodes[j].Y {
			return nodes[i].Y < nodes[j].Y
		}
		return nodes[i].X < nodes[j].X
	})
	return nodes
}

// hintLine summarizes boundary hints for the status bar.
func hintLine(snap *graph.Snapshot) string {
	if len(snap.BoundaryHints) == 0 {
		return ""
	}
	parts := make([]string, 0, len(snap.BoundaryHints))
	for _, h := range snap.BoundaryHints {
		title := h.Title
		if h.ShortTitle != "" {
			title = h.ShortTitle
		}
		arrow := "→"
		if h.Direction == graph.DirUsedBy {
			arrow = "←"
		}
		parts = append(parts, arrow+" "+title)
	}
	return strings.Join(parts, "  ")
}

// truncateLabel caps a node title at maxLabelWidth runes, never splitting
// a multi-byte rune.
func truncateLabel(s string) string {
	r := []rune(s)
	if len(r) <= maxLabelWidth {
		return s
	}
	return string(r[:maxLabelWidth-1]) + "…"
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
