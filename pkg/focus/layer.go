package focus

import (
	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/anim"
	"github.com/skilltreelabs/skilltree/pkg/camera"
	"github.com/skilltreelabs/skilltree/pkg/graph"
	"github.com/skilltreelabs/skilltree/pkg/highlight"
	"github.com/skilltreelabs/skilltree/pkg/layout"
	"github.com/skilltreelabs/skilltree/pkg/projection"
)

// Layer is one stacked canvas: a scope snapshot, its projected and laid-out
// elements, a camera, and a highlighter. The base layer shows the root
// scope; each focus push adds a layer above it.
type Layer struct {
	// ScopeID is the focused group's ID; nil for the root scope.
	ScopeID *uuid.UUID

	Snapshot *graph.Snapshot
	Els      *projection.Elements
	Camera   *camera.Controller
	Style    *highlight.Highlighter

	Surface Surface

	opacity float64
	mirror  func() // unsubscribes the camera mirror, nil when not mirroring
}

// NewLayer projects and lays out a snapshot into a fresh layer. The layer
// starts fully opaque with no surface; the orchestrator mounts one.
func NewLayer(sched *anim.Scheduler, scopeID *uuid.UUID, snap *graph.Snapshot, visible layout.Filter, viewW, viewH float64) *Layer {
	els := projection.Project(snap)
	opts := layout.DefaultOptions()
	opts.Visible = visible
	layout.Run(els, opts)

	cam := camera.New(sched)
	cam.SetViewport(viewW, viewH)
	if minX, minY, maxX, maxY, ok := layout.Bounds(els, opts); ok {
		cam.Set(cam.FitBounds(minX, minY, maxX, maxY))
	}

	l := &Layer{
		ScopeID:  scopeID,
		Snapshot: snap,
		Els:      els,
		Camera:   cam,
		Style:    highlight.New(sched, els, highlight.Filter(visible)),
		opacity:  1,
	}
	cam.Subscribe(func(s camera.State) {
		if l.Surface != nil && l.Surface.Alive() {
			l.Surface.ApplyCamera(s)
		}
	})
	return l
}

// Relayout re-runs layout on the layer's elements, e.g. after an edge
// visibility change promoted new roots.
func (l *Layer) Relayout(visible layout.Filter) {
	opts := layout.DefaultOptions()
	opts.Visible = visible
	layout.Run(l.Els, opts)
}

// Opacity returns the layer's current whole-layer opacity.
func (l *Layer) Opacity() float64 { return l.opacity }

// SetOpacity updates the layer and forwards to its surface when mounted.
func (l *Layer) SetOpacity(v float64) {
	l.opacity = v
	if l.Surface != nil && l.Surface.Alive() {
		l.Surface.SetOpacity(v)
	}
}

// MirrorCamera makes this layer's camera follow src's until ReleaseCamera.
// Used during transitions so both layers glide as one.
func (l *Layer) MirrorCamera(src *Layer) {
	l.ReleaseCamera()
	l.mirror = l.Camera.Mirror(src.Camera)
}

// ReleaseCamera stops a running mirror, if any.
func (l *Layer) ReleaseCamera() {
	if l.mirror != nil {
		l.mirror()
		l.mirror = nil
	}
}

// Teardown releases the layer's surface and camera mirror.
func (l *Layer) Teardown() {
	l.ReleaseCamera()
	if l.Surface != nil {
		l.Surface.Teardown()
		l.Surface = nil
	}
}
