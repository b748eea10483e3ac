// Package camera implements the 2D pan/zoom controller shared by every
// canvas layer. One controller owns the authoritative state; additional
// layers mirror it so that stacked layers move in lockstep during
// transitions. All mutation happens on the host goroutine via the anim
// scheduler.
package camera

import (
	"math"
	"time"

	"github.com/skilltreelabs/skilltree/pkg/anim"
)

// Zoom and motion constants, shared by every host.
const (
	MinZoom = 0.25
	MaxZoom = 2.5

	// FocusZoomFactor is the extra zoom applied to a node about to be
	// entered, so the collapse-to-point effect reads as diving in.
	FocusZoomFactor = 1.4

	PanDuration  = 300 * time.Millisecond
	ZoomDuration = 250 * time.Millisecond
	FitDuration  = 450 * time.Millisecond
)

// State is a full camera pose. Screen mapping is
// screen = world*Zoom + Pan.
type State struct {
	PanX float64 `json:"pan_x"`
	PanY float64 `json:"pan_y"`
	Zoom float64 `json:"zoom"`
}

// Lerp interpolates linearly between two poses. Zoom interpolates in log
// space so combined pan+zoom glides look uniform.
func Lerp(from, to State, t float64) State {
	return State{
		PanX: from.PanX + (to.PanX-from.PanX)*t,
		PanY: from.PanY + (to.PanY-from.PanY)*t,
		Zoom: math.Exp(math.Log(from.Zoom) + (math.Log(to.Zoom)-math.Log(from.Zoom))*t),
	}
}

// Controller owns one layer's camera. Not safe for concurrent use; step the
// scheduler and call methods from the same goroutine.
type Controller struct {
	sched *anim.Scheduler
	state State

	viewW, viewH float64

	glide *anim.Animation
	subs  []*subscription
}

type subscription struct {
	fn       func(State)
	canceled bool
}

// New returns a controller at the identity pose, driven by sched.
func New(sched *anim.Scheduler) *Controller {
	return &Controller{
		sched: sched,
		state: State{Zoom: 1},
	}
}

// State returns the current pose.
func (c *Controller) State() State { return c.state }

// SetViewport records the host viewport size used by Fit and CenterOn.
func (c *Controller) SetViewport(w, h float64) {
	c.viewW, c.viewH = w, h
}

// Set applies a pose immediately, clamping zoom, and notifies mirrors. Any
// running glide keeps running; callers that want a hard cut should Stop
// first.
func (c *Controller) Set(s State) {
	s.Zoom = clampZoom(s.Zoom)
	c.state = s
	c.notify()
}

// Stop cancels a running glide, leaving the camera wherever it is.
func (c *Controller) Stop() {
	if c.glide != nil {
		c.glide.Cancel()
		c.glide = nil
	}
}

// Gliding reports whether an animated move is in flight.
func (c *Controller) Gliding() bool {
	return c.glide != nil && !c.glide.Done()
}

// Subscribe registers fn for every pose change and returns an unsubscribe
// function. fn is called synchronously from Set.
func (c *Controller) Subscribe(fn func(State)) func() {
	sub := &subscription{fn: fn}
	c.subs = append(c.subs, sub)
	return func() { sub.canceled = true }
}

// Mirror makes this controller follow another's pose changes. The outgoing
// layer of a transition mirrors the incoming layer's camera so both glide
// together. Returns the unsubscribe function.
func (c *Controller) Mirror(src *Controller) func() {
	c.Set(src.State())
	return src.Subscribe(func(s State) { c.Set(s) })
}

func (c *Controller) notify() {
	live := c.subs[:0]
	for _, sub := range c.subs {
		if sub.canceled {
			continue
		}
		live = append(live, sub)
		sub.fn(c.state)
	}
	c.subs = live
}

// =============================================================================
// Moves
// =============================================================================

// AnimateTo glides to the target pose. A glide already in flight is
// canceled first: the new glide starts from the current pose, so rapid
// successive calls stay smooth. onDone may be nil; it is skipped when the
// glide is superseded.
func (c *Controller) AnimateTo(target State, d time.Duration, onDone func()) {
	c.Stop()
	target.Zoom = clampZoom(target.Zoom)
	from := c.state

	c.glide = c.sched.Animate(anim.Spec{
		Duration: d,
		Easing:   anim.EaseOutCubic,
		OnFrame: func(p float64) {
			c.state = Lerp(from, target, p)
			c.notify()
		},
		OnComplete: func() {
			c.glide = nil
			if onDone != nil {
				onDone()
			}
		},
	})
}

// PanBy shifts the pose by a screen-space delta, immediately.
func (c *Controller) PanBy(dx, dy float64) {
	s := c.state
	s.PanX += dx
	s.PanY += dy
	c.Set(s)
}

// ZoomBy multiplies zoom by factor around the given screen anchor: the
// world point under the anchor stays put.
func (c *Controller) ZoomBy(factor, anchorX, anchorY float64) {
	old := c.state.Zoom
	next := clampZoom(old * factor)
	if next == old {
		return
	}
	wx := (anchorX - c.state.PanX) / old
	wy := (anchorY - c.state.PanY) / old
	c.Set(State{
		PanX: anchorX - wx*next,
		PanY: anchorY - wy*next,
		Zoom: next,
	})
}

// CenterOn returns the pose that puts the world point at the viewport
// center at the given zoom.
func (c *Controller) CenterOn(wx, wy, zoom float64) State {
	zoom = clampZoom(zoom)
	return State{
		PanX: c.viewW/2 - wx*zoom,
		PanY: c.viewH/2 - wy*zoom,
		Zoom: zoom,
	}
}

// FitBounds returns the pose that fits a world bounding box in the
// viewport, clamped to the zoom range. Degenerate boxes fit at max zoom.
func (c *Controller) FitBounds(minX, minY, maxX, maxY float64) State {
	w, h := maxX-minX, maxY-minY
	zoom := MaxZoom
	if w > 0 && h > 0 && c.viewW > 0 && c.viewH > 0 {
		zoom = math.Min(c.viewW/w, c.viewH/h)
	}
	return c.CenterOn(minX+w/2, minY+h/2, zoom)
}

// ScreenToWorld converts a screen point to world coordinates at the
// current pose.
func (c *Controller) ScreenToWorld(sx, sy float64) (float64, float64) {
	return (sx - c.state.PanX) / c.state.Zoom, (sy - c.state.PanY) / c.state.Zoom
}

// WorldToScreen converts a world point to screen coordinates at the
// current pose.
func (c *Controller) WorldToScreen(wx, wy float64) (float64, float64) {
	return wx*c.state.Zoom + c.state.PanX, wy*c.state.Zoom + c.state.PanY
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
