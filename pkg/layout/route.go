package layout

import (
	"hash/fnv"
	"math"

	"github.com/skilltreelabs/skilltree/pkg/projection"
)

// Edge routing constants. Bends grow from the minimum magnitude until the
// chord clears every unrelated node box or the cap is reached.
const (
	MinBend     = 30.0
	MaxBend     = 120.0
	BendStep    = 30.0
	boxPadding  = 8.0
	routeJitter = 1e-9 // guards against degenerate zero-length chords
)

// routeEdges assigns a perpendicular bend to every bundle whose straight
// chord would pass through an unrelated node's padded bounding box. The bend
// side is a deterministic function of the bundle ID, so repeated layout
// passes route identically.
func routeEdges(els *projection.Elements, opts Options) {
	for _, b := range els.Bundles {
		src := els.Node(b.Src)
		dst := els.Node(b.Dst)
		if src == nil || dst == nil {
			b.Bend = 0
			continue
		}
		if !chordOccluded(els, b, src, dst) {
			b.Bend = 0
			continue
		}

		side := bendSide(b)
		bend := MinBend
		for bend < MaxBend && bentOccluded(els, b, src, dst, side*bend) {
			bend += BendStep
		}
		b.Bend = side * math.Min(bend, MaxBend)
	}
}

// bendSide returns +1 or -1 from the FNV-1a hash of the bundle ID.
func bendSide(b *projection.Bundle) float64 {
	h := fnv.New32a()
	h.Write(b.ID[:])
	if h.Sum32()&1 == 0 {
		return 1
	}
	return -1
}

// chordOccluded reports whether the straight src→dst segment crosses any
// node box other than the endpoints'.
func chordOccluded(els *projection.Elements, b *projection.Bundle, src, dst *projection.Node) bool {
	for _, n := range els.Nodes {
		if n.ID == b.Src || n.ID == b.Dst {
			continue
		}
		if segmentHitsBox(src.X, src.Y, dst.X, dst.Y, n) {
			return true
		}
	}
	return false
}

// bentOccluded approximates the bent curve by its two half-chords through
// the displaced control point and tests both against unrelated node boxes.
func bentOccluded(els *projection.Elements, b *projection.Bundle, src, dst *projection.Node, bend float64) bool {
	cx, cy := controlPoint(src.X, src.Y, dst.X, dst.Y, bend)
	for _, n := range els.Nodes {
		if n.ID == b.Src || n.ID == b.Dst {
			continue
		}
		if segmentHitsBox(src.X, src.Y, cx, cy, n) || segmentHitsBox(cx, cy, dst.X, dst.Y, n) {
			return true
		}
	}
	return false
}

// ControlPoint returns the quadratic control point for a bundle placed at
// the chord midpoint, displaced perpendicular to the chord by the bundle's
// bend. Renderers use it to draw the curve the router validated.
func ControlPoint(src, dst *projection.Node, bend float64) (x, y float64) {
	return controlPoint(src.X, src.Y, dst.X, dst.Y, bend)
}

func controlPoint(x1, y1, x2, y2, bend float64) (float64, float64) {
	mx, my := (x1+x2)/2, (y1+y2)/2
	dx, dy := x2-x1, y2-y1
	length := math.Hypot(dx, dy)
	if length < routeJitter {
		return mx, my
	}
	// Unit perpendicular, rotated counter-clockwise.
	px, py := -dy/length, dx/length
	return mx + px*bend, my + py*bend
}

// segmentHitsBox is a slab test of segment (x1,y1)-(x2,y2) against the
// node's padded axis-aligned box.
func segmentHitsBox(x1, y1, x2, y2 float64, n *projection.Node) bool {
	minX := n.X - n.W/2 - boxPadding
	maxX := n.X + n.W/2 + boxPadding
	minY := n.Y - n.H/2 - boxPadding
	maxY := n.Y + n.H/2 + boxPadding

	dx, dy := x2-x1, y2-y1
	tMin, tMax := 0.0, 1.0

	for _, axis := range [2][3]float64{{dx, x1, 0}, {dy, y1, 1}} {
		d, origin := axis[0], axis[1]
		lo, hi := minX, maxX
		if axis[2] == 1 {
			lo, hi = minY, maxY
		}
		if math.Abs(d) < routeJitter {
			if origin < lo || origin > hi {
				return false
			}
			continue
		}
		t1 := (lo - origin) / d
		t2 := (hi - origin) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}
	return true
}
