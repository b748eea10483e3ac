// Package input translates host gestures into engine operations. The
// dispatcher owns the current selection, disambiguates single from double
// taps with a debounce timer, and routes everything else to the
// orchestrator, camera, and highlighter. Like the rest of the engine it is
// single-threaded: dispatch from the goroutine that steps the scheduler.
package input

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/anim"
	"github.com/skilltreelabs/skilltree/pkg/errors"
	"github.com/skilltreelabs/skilltree/pkg/focus"
	"github.com/skilltreelabs/skilltree/pkg/graph"
)

// DefaultDebounce is the tap-disambiguation window. It doubles as the
// suppression window for repeated navigation keys.
const DefaultDebounce = 150 * time.Millisecond

// Action is a semantic input action, already mapped from raw host events.
type Action int

const (
	// ActionTap is a raw pointer tap: on a node (NodeID set) or on the
	// background (NodeID nil). The dispatcher turns it into a selection
	// after the debounce window, or into a drill-in when a second tap on
	// the same node lands inside the window.
	ActionTap Action = iota
	// ActionSelect selects a node immediately, or clears the selection
	// with a nil node. Used by hosts with an explicit cursor.
	ActionSelect
	// ActionEnter drills into the selected (or given) group node.
	ActionEnter
	// ActionExit pops one focus level.
	ActionExit
	// ActionToggleHighlight toggles the prerequisite-chain highlight mode.
	ActionToggleHighlight
	// ActionToggleRecommended flips recommended-edge visibility.
	ActionToggleRecommended
	// ActionToggleRelated flips related-edge visibility.
	ActionToggleRelated
	// ActionPan pans the active camera by a screen delta.
	ActionPan
	// ActionZoom zooms the active camera around an anchor.
	ActionZoom
)

// Event is one dispatched action with its parameters. Unused fields are
// ignored per action.
type Event struct {
	Action Action
	NodeID *uuid.UUID

	DX, DY           float64 // ActionPan
	Factor           float64 // ActionZoom
	AnchorX, AnchorY float64 // ActionZoom
}

// Options configures a dispatcher.
type Options struct {
	// Debounce is the window within which a second tap on the same node
	// becomes a double tap; a single tap commits after it elapses.
	Debounce time.Duration

	// Clock supplies current time; defaults to time.Now.
	Clock func() time.Time

	// OnSelectionChanged notifies the host whenever the selection changes,
	// with the full node record, or nil when cleared. May be nil.
	OnSelectionChanged func(*graph.AbstractNode)

	// OnError receives errors from rejected or failed operations (busy
	// transitions, attach timeouts). May be nil.
	OnError func(error)
}

// ValidateAndSetDefaults fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return nil
}

// Dispatcher routes events into the engine. The pending-tap timer is its
// only gesture-local state; Teardown clears it.
type Dispatcher struct {
	orch  *focus.Orchestrator
	sched *anim.Scheduler
	opts  Options

	selection *uuid.UUID
	highlight bool

	pending     *anim.Timer
	pendingNode uuid.UUID

	lastNav map[Action]time.Time
}

// New creates a dispatcher bound to an orchestrator. The scheduler must be
// the one the host steps; tap timers run on it.
func New(orch *focus.Orchestrator, sched *anim.Scheduler, opts Options) (*Dispatcher, error) {
	if sched == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil scheduler")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Dispatcher{
		orch:    orch,
		sched:   sched,
		opts:    opts,
		lastNav: make(map[Action]time.Time),
	}, nil
}

// Selection returns the currently selected node, or nil.
func (d *Dispatcher) Selection() *uuid.UUID { return d.selection }

// HighlightEnabled reports whether prerequisite-highlight mode is on.
func (d *Dispatcher) HighlightEnabled() bool { return d.highlight }

// Teardown cancels the pending tap timer, if any.
func (d *Dispatcher) Teardown() {
	d.cancelPending()
}

// Dispatch routes one event. Navigation errors are reported through
// OnError rather than returned: from the host's point of view a rejected
// gesture is not a failure of the dispatch itself.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	switch ev.Action {
	case ActionTap:
		d.handleTap(ctx, ev)

	case ActionSelect:
		d.handleSelect(ev.NodeID)

	case ActionEnter:
		if d.debounced(ActionEnter) {
			return
		}
		target := ev.NodeID
		if target == nil {
			target = d.selection
		}
		if target == nil {
			return
		}
		d.report(d.orch.Enter(ctx, *target, d.navDone))

	case ActionExit:
		if d.debounced(ActionExit) {
			return
		}
		d.report(d.orch.Exit(ctx, d.navDone))

	case ActionToggleHighlight:
		d.highlight = !d.highlight
		if d.highlight && d.selection != nil {
			d.orch.Current().Style.Apply(*d.selection)
		} else {
			d.orch.Current().Style.Clear()
		}

	case ActionToggleRecommended:
		d.orch.Visibility().ToggleRecommended()
		d.orch.ApplyVisibility()

	case ActionToggleRelated:
		d.orch.Visibility().ToggleRelated()

	case ActionPan:
		d.orch.Current().Camera.PanBy(ev.DX, ev.DY)

	case ActionZoom:
		if ev.Factor > 0 {
			d.orch.Current().Camera.ZoomBy(ev.Factor, ev.AnchorX, ev.AnchorY)
		}
	}
}

// handleTap runs the tap state machine. A first tap on a node arms the
// debounce timer; the selection commits only when the window elapses. A
// second tap on the same node inside the window drops the pending
// single-tap intent and becomes a drill-in.
func (d *Dispatcher) handleTap(ctx context.Context, ev Event) {
	if ev.NodeID == nil {
		// Background tap clears pending intent, selection and highlight.
		d.cancelPending()
		d.setSelection(nil)
		d.orch.Current().Style.Clear()
		return
	}
	id := *ev.NodeID
	if d.orch.Current().Els.Node(id) == nil {
		// A stale tap on a node no longer in scope is a no-op.
		return
	}

	if d.pending != nil && d.pending.Pending() && d.pendingNode == id {
		d.cancelPending()
		if node, ok := d.orch.Current().Snapshot.Node(id); ok && node.Expandable() {
			d.report(d.orch.Enter(ctx, id, d.navDone))
			return
		}
		// Double tap on a non-expandable node degrades to a selection.
		d.commitTap(id)
		return
	}

	// Every new tap resets the timer.
	d.cancelPending()
	d.pendingNode = id
	d.pending = d.sched.After(d.opts.Clock(), d.opts.Debounce, func() {
		d.commitTap(id)
	})
}

// commitTap finalizes a single tap: select the node and, in highlight
// mode, light up its prerequisite chain.
func (d *Dispatcher) commitTap(id uuid.UUID) {
	d.pending = nil
	d.setSelection(&id)
	if d.highlight {
		d.orch.Current().Style.Apply(id)
	}
}

func (d *Dispatcher) cancelPending() {
	if d.pending != nil {
		d.pending.Cancel()
		d.pending = nil
	}
}

func (d *Dispatcher) handleSelect(id *uuid.UUID) {
	if id == nil {
		// Clearing the selection also clears the highlight.
		d.setSelection(nil)
		d.orch.Current().Style.Clear()
		return
	}
	if d.orch.Current().Els.Node(*id) == nil {
		d.report(errors.New(errors.ErrCodeNodeNotFound, "selected node %s not in scope", id))
		return
	}
	d.setSelection(id)
	if d.highlight {
		d.orch.Current().Style.Apply(*id)
	}
}

// setSelection updates the selection and notifies the host with the full
// node record (nil on clear).
func (d *Dispatcher) setSelection(id *uuid.UUID) {
	d.selection = id
	if d.opts.OnSelectionChanged == nil {
		return
	}
	if id == nil {
		d.opts.OnSelectionChanged(nil)
		return
	}
	if node, ok := d.orch.Current().Snapshot.Node(*id); ok {
		d.opts.OnSelectionChanged(&node)
	}
}

// debounced records a navigation trigger and reports whether it fell
// inside the suppression window of the previous one.
func (d *Dispatcher) debounced(a Action) bool {
	now := d.opts.Clock()
	if last, ok := d.lastNav[a]; ok && now.Sub(last) < d.opts.Debounce {
		return true
	}
	d.lastNav[a] = now
	return false
}

// navDone runs when an enter or exit settles. The selection belonged to
// the previous scope, so it is dropped on success.
func (d *Dispatcher) navDone(err error) {
	if err == nil {
		d.setSelection(nil)
	}
	d.report(err)
}

func (d *Dispatcher) report(err error) {
	if err != nil && d.opts.OnError != nil {
		d.opts.OnError(err)
	}
}
