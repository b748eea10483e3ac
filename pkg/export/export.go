// Package export renders scope snapshots to Graphviz DOT and SVG for
// sharing outside the interactive canvas.
package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/errors"
	"github.com/skilltreelabs/skilltree/pkg/graph"
	"github.com/skilltreelabs/skilltree/pkg/layout"
	"github.com/skilltreelabs/skilltree/pkg/projection"
)

// Options configures DOT generation.
type Options struct {
	// Detailed includes slugs and edge counts in labels. When false,
	// only display titles are shown.
	Detailed bool

	// ShowRecommended includes recommended edges.
	ShowRecommended bool

	// ShowRelated includes undirected related edges.
	ShowRelated bool
}

// ToDOT converts a snapshot to Graphviz DOT. Nodes are grouped into ranks
// matching the engine's layered layout so the exported picture reads the
// same way the canvas does: prerequisites on top, dependents below.
func ToDOT(snap *graph.Snapshot, opts Options) string {
	els := projection.Project(snap)
	rows := layout.Run(els, layout.DefaultOptions())

	var buf bytes.Buffer
	buf.WriteString("digraph skilltree {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, n := range els.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts.Detailed), ", "))
	}

	writeRankGroups(&buf, els, rows)

	buf.WriteString("\n")
	for _, b := range els.Bundles {
		attrs := bundleAttrs(b, opts)
		if attrs == nil {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", b.Src, b.Dst, strings.Join(attrs, ", "))
	}
	if opts.ShowRelated {
		for _, rel := range els.Related {
			fmt.Fprintf(&buf, "  %q -> %q [dir=none, style=dotted, color=grey50];\n", rel.A, rel.B)
		}
	}

	writeHints(&buf, snap, els, opts)

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n *projection.Node, detailed bool) []string {
	label := n.Node.DisplayTitle()
	if detailed {
		label += "\n" + n.Node.Slug
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.Node.Expandable() {
		attrs = append(attrs, "peripheries=2")
	}
	if n.Node.HasVariants {
		attrs = append(attrs, "fillcolor=lightyellow")
	}
	return attrs
}

// writeRankGroups pins each layout row to one DOT rank.
func writeRankGroups(buf *bytes.Buffer, els *projection.Elements, rows map[uuid.UUID]int) {
	byRow := make(map[int][]uuid.UUID)
	maxRow := 0
	for id, row := range rows {
		byRow[row] = append(byRow[row], id)
		if row > maxRow {
			maxRow = row
		}
	}
	for row := 0; row <= maxRow; row++ {
		ids := byRow[row]
		if len(ids) < 2 {
			continue
		}
		sort.Slice(ids, func(i, j int) bool {
			return els.Node(ids[i]).Node.Slug < els.Node(ids[j]).Node.Slug
		})
		buf.WriteString("  { rank=same;")
		for _, id := range ids {
			fmt.Fprintf(buf, " %q;", id)
		}
		buf.WriteString(" }\n")
	}
}

func bundleAttrs(b *projection.Bundle, opts Options) []string {
	switch b.Type {
	case graph.EdgeRequires:
		attrs := []string{}
		if b.Count > 1 && opts.Detailed {
			attrs = append(attrs, fmt.Sprintf("label=%q", fmt.Sprintf("x%d", b.Count)), "fontsize=10")
		}
		if len(attrs) == 0 {
			attrs = append(attrs, "color=black")
		}
		return attrs
	case graph.EdgeRecommended:
		if !opts.ShowRecommended {
			return nil
		}
		attrs := []string{"style=dashed", "color=grey35"}
		if b.Rank != nil && opts.Detailed {
			attrs = append(attrs, fmt.Sprintf("label=\"r%d\"", *b.Rank), "fontsize=10")
		}
		return attrs
	default:
		return nil
	}
}

// writeHints renders boundary hints as grey notes hanging off the scope.
func writeHints(buf *bytes.Buffer, snap *graph.Snapshot, els *projection.Elements, opts Options) {
	if len(snap.BoundaryHints) == 0 {
		return
	}
	buf.WriteString("\n")
	for i, h := range snap.BoundaryHints {
		id := fmt.Sprintf("hint%d", i)
		label := h.Title
		if h.ShortTitle != "" {
			label = h.ShortTitle
		}
		if opts.Detailed {
			label += fmt.Sprintf(" (%d)", h.Count)
		}
		fmt.Fprintf(buf, "  %q [label=%q, shape=note, style=filled, fillcolor=grey92, fontsize=10];\n", id, label)

		// Anchor the note to an arbitrary stable node so it lands near
		// the scope instead of floating.
		if len(els.Nodes) > 0 {
			anchor := els.Nodes[0].ID
			if h.Direction == graph.DirDependsOn {
				fmt.Fprintf(buf, "  %q -> %q [style=dotted, color=grey70, arrowsize=0.6];\n", id, anchor)
			} else {
				fmt.Fprintf(buf, "  %q -> %q [style=dotted, color=grey70, arrowsize=0.6];\n", anchor, id)
			}
		}
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the SVG root so the viewBox starts at the
// origin, which keeps downstream embedding simple.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
