// Package focus implements the drill-in navigation core: the layer stack,
// the edge-visibility modes, and the orchestrator that runs enter and exit
// transitions as cooperative animations.
//
// The orchestrator is strictly single-threaded: every method and every
// callback runs on the goroutine that steps the shared anim scheduler. At
// most one transition is in flight at a time; inputs arriving mid-flight
// are rejected with TRANSITION_BUSY rather than queued.
package focus

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/anim"
	"github.com/skilltreelabs/skilltree/pkg/camera"
	"github.com/skilltreelabs/skilltree/pkg/errors"
	"github.com/skilltreelabs/skilltree/pkg/graph"
	"github.com/skilltreelabs/skilltree/pkg/observability"
)

// Transition timing defaults.
const (
	DefaultEnterDuration = 400 * time.Millisecond
	DefaultExitDuration  = 350 * time.Millisecond
	DefaultAttachTimeout = 2 * time.Second
	DefaultAttachPoll    = 16 * time.Millisecond
)

// Fetcher loads the snapshot for a scope. A nil scopeID means the root
// scope. Implementations: the HTTP client and the in-process store.
type Fetcher interface {
	FetchScope(ctx context.Context, scopeID *uuid.UUID) (*graph.Snapshot, error)
}

// Options configures an orchestrator.
type Options struct {
	ViewportW float64
	ViewportH float64

	EnterDuration time.Duration
	ExitDuration  time.Duration
	AttachTimeout time.Duration
	AttachPoll    time.Duration

	// OnExitHost is invoked when an exit is requested at depth 0, handing
	// control back to whatever embeds the canvas. May be nil.
	OnExitHost func()

	// Clock supplies current time for attach deadlines. Tests inject a
	// synthetic clock aligned with their scheduler steps.
	Clock func() time.Time
}

// ValidateAndSetDefaults checks required fields and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.ViewportW <= 0 || o.ViewportH <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "viewport must be positive, got %gx%g", o.ViewportW, o.ViewportH)
	}
	if o.EnterDuration <= 0 {
		o.EnterDuration = DefaultEnterDuration
	}
	if o.ExitDuration <= 0 {
		o.ExitDuration = DefaultExitDuration
	}
	if o.AttachTimeout <= 0 {
		o.AttachTimeout = DefaultAttachTimeout
	}
	if o.AttachPoll <= 0 {
		o.AttachPoll = DefaultAttachPoll
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return nil
}

// Phase is the orchestrator's coarse state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseEntering
	PhaseExiting
)

// Orchestrator owns the base layer, the focus stack, and transition
// execution. Construct with New, then Init to build the base layer.
type Orchestrator struct {
	sched *anim.Scheduler
	fetch Fetcher
	mount Mounter
	opts  Options

	vis   *EdgeVisibility
	base  *Layer
	stack Stack
	phase Phase
}

// New creates an orchestrator. Call Init before any transitions.
func New(sched *anim.Scheduler, fetch Fetcher, mount Mounter, opts Options) (*Orchestrator, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Orchestrator{
		sched: sched,
		fetch: fetch,
		mount: mount,
		opts:  opts,
		vis:   NewEdgeVisibility(),
	}, nil
}

// Init fetches the root scope and builds the base layer. The base surface
// is mounted immediately; no attach deadline applies to it.
func (o *Orchestrator) Init(ctx context.Context) error {
	snap, err := o.fetch.FetchScope(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "fetch root scope")
	}
	o.base = NewLayer(o.sched, nil, snap, o.vis.Filter(), o.opts.ViewportW, o.opts.ViewportH)
	o.base.Surface = o.mount(o.base)
	o.base.Surface.SetOpacity(1)
	o.base.Surface.ApplyCamera(o.base.Camera.State())
	return nil
}

// Phase returns the orchestrator's current phase.
func (o *Orchestrator) Phase() Phase { return o.phase }

// Busy reports whether a transition is in flight.
func (o *Orchestrator) Busy() bool { return o.phase != PhaseIdle }

// Depth returns the focus-stack depth; 0 is the root scope.
func (o *Orchestrator) Depth() int { return o.stack.Depth() }

// Path returns the focused node IDs, outermost first.
func (o *Orchestrator) Path() []uuid.UUID { return o.stack.Path() }

// Current returns the active (innermost) layer.
func (o *Orchestrator) Current() *Layer {
	if top := o.stack.Top(); top != nil {
		return top.Layer
	}
	return o.base
}

// Visibility exposes the shared edge-visibility state.
func (o *Orchestrator) Visibility() *EdgeVisibility { return o.vis }

// ApplyVisibility re-runs layout on the active layer with the current
// visibility filter. Call after a visibility toggle; hidden edges stop
// counting for roots and layering on this pass.
func (o *Orchestrator) ApplyVisibility() {
	o.Current().Relayout(o.vis.Filter())
}

// =============================================================================
// Enter
// =============================================================================

// Enter drills into a group node. Validation and the scope fetch happen
// synchronously; the visual transition then runs on the scheduler and
// onDone fires when it settles (or rolls back). onDone may be nil.
//
// The sequence: validate target, fetch the focus snapshot, build and push
// the new layer, mount its surface and await attach, then crossfade with a
// collapse-to-point camera move, switch edge visibility to focused mode,
// and settle. A surface that never attaches before the deadline rolls the
// push back and reports ATTACH_TIMEOUT.
func (o *Orchestrator) Enter(ctx context.Context, nodeID uuid.UUID, onDone func(error)) error {
	if o.Busy() {
		observability.Transition().OnTransitionRejected(ctx, "enter", nodeID.String())
		return errors.New(errors.ErrCodeTransitionBusy, "transition already in flight")
	}
	outer := o.Current()
	node, ok := outer.Snapshot.Node(nodeID)
	if !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "node %s not in current scope", nodeID)
	}
	if !node.Expandable() {
		return errors.New(errors.ErrCodeNotFocusable, "node %q is not an expandable group", node.Slug)
	}
	if o.stack.Contains(nodeID) {
		return errors.New(errors.ErrCodeInvalidInput, "node %q is already on the focus path", node.Slug)
	}

	snap, err := o.fetch.FetchScope(ctx, &nodeID)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "fetch scope %s", nodeID)
	}

	o.phase = PhaseEntering
	observability.Transition().OnTransitionStart(ctx, "enter", nodeID.String())
	started := o.opts.Clock()

	inner := NewLayer(o.sched, &nodeID, snap, o.vis.Filter(), o.opts.ViewportW, o.opts.ViewportH)
	fit := inner.Camera.State()
	inner.SetOpacity(0)
	inner.Surface = o.mount(inner)
	inner.Surface.SetOpacity(0)
	inner.Surface.ApplyCamera(fit)

	entry := &Entry{NodeID: nodeID, Anchor: outer.Camera.State(), Layer: inner}
	o.stack.Push(entry)

	o.awaitAttach(ctx, entry, outer, fit, started, onDone)
	return nil
}

// awaitAttach polls the surface's attach channel from scheduler steps until
// it closes or the deadline passes.
func (o *Orchestrator) awaitAttach(ctx context.Context, entry *Entry, outer *Layer, fit camera.State, started time.Time, onDone func(error)) {
	deadline := started.Add(o.opts.AttachTimeout)

	var poll func()
	poll = func() {
		select {
		case <-entry.Layer.Surface.Attached():
			o.runEnter(ctx, entry, outer, fit, started, onDone)
			return
		default:
		}
		now := o.opts.Clock()
		if now.After(deadline) {
			o.rollbackEnter(ctx, entry, outer, started, onDone)
			return
		}
		o.sched.After(now, o.opts.AttachPoll, poll)
	}
	o.sched.After(started, o.opts.AttachPoll, poll)
}

// runEnter performs the visual half of an enter: the visible outgoing layer
// drives a dive animation from its current pose, mirrored frame by frame
// onto the hidden incoming layer, under a crossfade. When the crossfade
// settles every layer except the new one is unmounted and the new layer
// glides onto its own fit pose.
func (o *Orchestrator) runEnter(ctx context.Context, entry *Entry, outer *Layer, fit camera.State, started time.Time, onDone func(error)) {
	inner := entry.Layer

	// Zoom in on the outgoing layer with pan retained. The dive starts at
	// the pose the user is looking at, so there is no visible jump.
	dive := outer.Camera.State()
	dive.Zoom *= camera.FocusZoomFactor
	inner.MirrorCamera(outer)
	outer.Camera.AnimateTo(dive, o.opts.EnterDuration, nil)

	o.sched.Animate(anim.Spec{
		Duration: o.opts.EnterDuration,
		Easing:   anim.EaseInOutCubic,
		OnFrame: func(p float64) {
			outer.SetOpacity(1 - p)
			inner.SetOpacity(p)
		},
		OnComplete: func() {
			inner.ReleaseCamera()
			outer.Teardown()
			// Settle from the mirrored dive pose onto the new scope's fit.
			inner.Camera.AnimateTo(fit, o.opts.EnterDuration, nil)
			o.vis.SetMode(ModeFocused)
			o.phase = PhaseIdle
			observability.Transition().OnTransitionComplete(ctx, "enter", entry.NodeID.String(), o.opts.Clock().Sub(started), nil)
			if onDone != nil {
				onDone(nil)
			}
		},
	})
}

// rollbackEnter undoes the push after an attach timeout: the new layer is
// torn down and the outgoing layer restored, leaving state exactly as
// before Enter.
func (o *Orchestrator) rollbackEnter(ctx context.Context, entry *Entry, outer *Layer, started time.Time, onDone func(error)) {
	waited := o.opts.Clock().Sub(started)
	o.stack.Pop()
	entry.Layer.Teardown()
	outer.SetOpacity(1)
	o.phase = PhaseIdle

	err := errors.New(errors.ErrCodeAttachTimeout, "layer for %s failed to attach within %s", entry.NodeID, o.opts.AttachTimeout)
	observability.Transition().OnAttachTimeout(ctx, entry.NodeID.String(), waited)
	observability.Transition().OnTransitionComplete(ctx, "enter", entry.NodeID.String(), waited, err)
	if onDone != nil {
		onDone(err)
	}
}

// =============================================================================
// Exit
// =============================================================================

// Exit pops one focus level: it refetches the parent scope, mounts a fresh
// parent layer beneath the active one, glides the camera back to the anchor
// pose captured at enter time, and crossfades. Refetching means mutations
// made while drilled in are visible after exiting. At depth 0 it invokes
// the host exit handler instead. onDone may be nil.
func (o *Orchestrator) Exit(ctx context.Context, onDone func(error)) error {
	if o.Busy() {
		observability.Transition().OnTransitionRejected(ctx, "exit", "")
		return errors.New(errors.ErrCodeTransitionBusy, "transition already in flight")
	}
	if o.stack.Depth() == 0 {
		if o.opts.OnExitHost != nil {
			o.opts.OnExitHost()
		}
		return nil
	}
	snap, err := o.fetch.FetchScope(ctx, o.parentScopeID())
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "fetch parent scope")
	}
	o.runExit(ctx, snap, nil, onDone)
	return nil
}

// ExitWith runs an exit from a caller-supplied parent snapshot, optionally
// overriding the restored camera pose. This is the host handle for
// externally driven back navigation; no fetch happens.
func (o *Orchestrator) ExitWith(ctx context.Context, parent *graph.Snapshot, target *camera.State, onDone func(error)) error {
	if o.Busy() {
		observability.Transition().OnTransitionRejected(ctx, "exit", "")
		return errors.New(errors.ErrCodeTransitionBusy, "transition already in flight")
	}
	if o.stack.Depth() == 0 {
		if o.opts.OnExitHost != nil {
			o.opts.OnExitHost()
		}
		return nil
	}
	if parent == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil parent snapshot")
	}
	o.runExit(ctx, parent, target, onDone)
	return nil
}

// parentScopeID returns the scope one level beneath the innermost focus;
// nil means the root scope.
func (o *Orchestrator) parentScopeID() *uuid.UUID {
	path := o.stack.Path()
	if len(path) < 2 {
		return nil
	}
	id := path[len(path)-2]
	return &id
}

func (o *Orchestrator) runExit(ctx context.Context, snap *graph.Snapshot, target *camera.State, onDone func(error)) {
	entry := o.stack.Top()
	child := entry.Layer
	o.phase = PhaseExiting
	observability.Transition().OnTransitionStart(ctx, "exit", entry.NodeID.String())
	started := o.opts.Clock()

	parent := NewLayer(o.sched, o.parentScopeID(), snap, o.vis.Filter(), o.opts.ViewportW, o.opts.ViewportH)
	parent.SetOpacity(0)
	parent.Surface = o.mount(parent)
	parent.Surface.SetOpacity(0)

	// The visible child stays authoritative: it glides from wherever the
	// user left it back to the anchor pose. The hidden parent is snapped to
	// the child's pose first and then mirrors every frame.
	anchor := entry.Anchor
	if target != nil {
		anchor = *target
	}
	parent.MirrorCamera(child)
	child.Camera.AnimateTo(anchor, o.opts.ExitDuration, nil)

	o.sched.Animate(anim.Spec{
		Duration: o.opts.ExitDuration,
		Easing:   anim.EaseInOutCubic,
		OnFrame: func(p float64) {
			child.SetOpacity(1 - p)
			parent.SetOpacity(p)
		},
		OnComplete: func() {
			parent.ReleaseCamera()
			parent.Camera.Set(anchor)
			child.Teardown()
			o.stack.Pop()
			if top := o.stack.Top(); top != nil {
				top.Layer.Teardown()
				top.Layer = parent
			} else {
				o.base.Teardown()
				o.base = parent
			}
			if o.stack.Depth() == 0 {
				o.vis.SetMode(ModeBaseline)
			}
			o.phase = PhaseIdle
			observability.Transition().OnTransitionComplete(ctx, "exit", entry.NodeID.String(), o.opts.Clock().Sub(started), nil)
			if onDone != nil {
				onDone(nil)
			}
		},
	})
}

// =============================================================================
// Rebuild
// =============================================================================

// Rebuild refetches the active scope and swaps the active layer in place,
// with no animation. Used after a mutation (node created, graph reseeded)
// invalidates the current snapshot.
func (o *Orchestrator) Rebuild(ctx context.Context) error {
	if o.Busy() {
		return errors.New(errors.ErrCodeTransitionBusy, "transition already in flight")
	}
	scopeID := o.Current().ScopeID
	label := ""
	if scopeID != nil {
		label = scopeID.String()
	}
	observability.Transition().OnTransitionStart(ctx, "rebuild", label)
	started := o.opts.Clock()

	snap, err := o.fetch.FetchScope(ctx, scopeID)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeNetwork, err, "refetch scope")
		observability.Transition().OnTransitionComplete(ctx, "rebuild", label, o.opts.Clock().Sub(started), err)
		return err
	}

	fresh := NewLayer(o.sched, scopeID, snap, o.vis.Filter(), o.opts.ViewportW, o.opts.ViewportH)
	fresh.Camera.Set(o.Current().Camera.State())
	fresh.Surface = o.mount(fresh)
	fresh.Surface.SetOpacity(1)
	fresh.Surface.ApplyCamera(fresh.Camera.State())

	if top := o.stack.Top(); top != nil {
		top.Layer.Teardown()
		top.Layer = fresh
	} else {
		o.base.Teardown()
		o.base = fresh
	}
	observability.Transition().OnTransitionComplete(ctx, "rebuild", label, o.opts.Clock().Sub(started), nil)
	return nil
}

// Snapshot returns the active layer's snapshot. Convenience for hosts.
func (o *Orchestrator) Snapshot() *graph.Snapshot {
	return o.Current().Snapshot
}
