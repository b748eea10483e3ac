package focus

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/anim"
	"github.com/skilltreelabs/skilltree/pkg/camera"
	"github.com/skilltreelabs/skilltree/pkg/errors"
	"github.com/skilltreelabs/skilltree/pkg/graph"
)

// =============================================================================
// Test doubles
// =============================================================================

type fakeSurface struct {
	attached chan struct{}
	alive    bool
	opacity  float64
	cam      camera.State
	torn     bool
}

func newFakeSurface(attach bool) *fakeSurface {
	s := &fakeSurface{attached: make(chan struct{}), alive: true}
	if attach {
		close(s.attached)
	}
	return s
}

func (s *fakeSurface) Attached() <-chan struct{}    { return s.attached }
func (s *fakeSurface) Alive() bool                  { return s.alive }
func (s *fakeSurface) SetOpacity(v float64)         { s.opacity = v }
func (s *fakeSurface) ApplyCamera(c camera.State)   { s.cam = c }
func (s *fakeSurface) Teardown()                    { s.alive = false; s.torn = true }

type fakeFetcher struct {
	scopes  map[uuid.UUID]*graph.Snapshot
	root    *graph.Snapshot
	fetches int
}

func (f *fakeFetcher) FetchScope(_ context.Context, scopeID *uuid.UUID) (*graph.Snapshot, error) {
	f.fetches++
	if scopeID == nil {
		return f.root, nil
	}
	if snap, ok := f.scopes[*scopeID]; ok {
		return snap, nil
	}
	return nil, errors.New(errors.ErrCodeScopeNotFound, "no scope %s", scopeID)
}

// harness wires an orchestrator to a synthetic clock, a scripted fetcher,
// and fake surfaces.
type harness struct {
	t        *testing.T
	sched    *anim.Scheduler
	now      time.Time
	orch     *Orchestrator
	fetcher  *fakeFetcher
	surfaces []*fakeSurface
	attach   bool // whether newly mounted surfaces attach immediately
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		sched:  anim.NewScheduler(),
		now:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		attach: true,
	}

	groupID := uuid.New()
	conceptID, conceptImpl := uuid.New(), uuid.New()
	root := &graph.Snapshot{
		AbstractNodes: []graph.AbstractNode{
			{ID: groupID, Slug: "algebra", Title: "Algebra", Kind: graph.KindGroup, HasChildren: true},
			{ID: conceptID, Slug: "sets", Title: "Sets", Kind: graph.KindConcept},
		},
		ImplNodes: []graph.ImplNode{{ID: conceptImpl, AbstractID: conceptID}},
	}

	aID, bID := uuid.New(), uuid.New()
	aImpl, bImpl := uuid.New(), uuid.New()
	inner := &graph.Snapshot{
		AbstractNodes: []graph.AbstractNode{
			{ID: aID, Slug: "groups", Title: "Groups", Kind: graph.KindConcept, ParentID: &groupID},
			{ID: bID, Slug: "rings", Title: "Rings", Kind: graph.KindConcept, ParentID: &groupID},
		},
		ImplNodes: []graph.ImplNode{
			{ID: aImpl, AbstractID: aID},
			{ID: bImpl, AbstractID: bID},
		},
		Edges: []graph.Edge{
			{ID: uuid.New(), SrcImplID: aImpl, DstImplID: bImpl, Type: graph.EdgeRequires},
		},
	}

	h.fetcher = &fakeFetcher{
		root:   root,
		scopes: map[uuid.UUID]*graph.Snapshot{groupID: inner},
	}

	mount := func(*Layer) Surface {
		s := newFakeSurface(h.attach)
		h.surfaces = append(h.surfaces, s)
		return s
	}

	orch, err := New(h.sched, h.fetcher, mount, Options{
		ViewportW:     800,
		ViewportH:     600,
		EnterDuration: 100 * time.Millisecond,
		ExitDuration:  100 * time.Millisecond,
		AttachTimeout: 100 * time.Millisecond,
		AttachPoll:    10 * time.Millisecond,
		Clock:         func() time.Time { return h.now },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := orch.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	h.orch = orch
	return h
}

func (h *harness) step(d time.Duration) {
	h.now = h.now.Add(d)
	h.sched.Step(h.now)
}

// settle steps until nothing is scheduled, bounded to avoid hangs.
func (h *harness) settle() {
	for i := 0; i < 100 && h.sched.Active() > 0; i++ {
		h.step(10 * time.Millisecond)
	}
	if h.sched.Active() > 0 {
		h.t.Fatalf("scheduler did not settle: %d live", h.sched.Active())
	}
}

// aliveSurfaces counts surfaces not yet torn down.
func (h *harness) aliveSurfaces() int {
	n := 0
	for _, s := range h.surfaces {
		if s.alive {
			n++
		}
	}
	return n
}

func (h *harness) groupID() uuid.UUID {
	for _, n := range h.fetcher.root.AbstractNodes {
		if n.Kind == graph.KindGroup {
			return n.ID
		}
	}
	h.t.Fatal("no group in root snapshot")
	return uuid.Nil
}

func (h *harness) conceptID() uuid.UUID {
	for _, n := range h.fetcher.root.AbstractNodes {
		if n.Kind == graph.KindConcept {
			return n.ID
		}
	}
	h.t.Fatal("no concept in root snapshot")
	return uuid.Nil
}

// =============================================================================
// Enter
// =============================================================================

func TestEnterHappyPath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var done error
	notified := false
	err := h.orch.Enter(ctx, h.groupID(), func(e error) { done = e; notified = true })
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if h.orch.Phase() != PhaseEntering {
		t.Fatalf("phase = %v, want entering", h.orch.Phase())
	}
	h.settle()

	if !notified || done != nil {
		t.Fatalf("onDone: notified=%v err=%v", notified, done)
	}
	if h.orch.Depth() != 1 {
		t.Fatalf("depth = %d, want 1", h.orch.Depth())
	}
	if h.orch.Phase() != PhaseIdle {
		t.Errorf("phase = %v, want idle", h.orch.Phase())
	}

	// Exactly one layer remains mounted afterward: the child.
	if got := h.orch.Current().Opacity(); got != 1 {
		t.Errorf("inner opacity = %v, want 1", got)
	}
	if n := h.aliveSurfaces(); n != 1 {
		t.Errorf("alive surfaces = %d, want 1", n)
	}
	if !h.surfaces[0].torn {
		t.Error("outgoing base surface not unmounted after enter")
	}
	if h.orch.Visibility().Mode() != ModeFocused {
		t.Errorf("visibility mode = %v, want focused", h.orch.Visibility().Mode())
	}
	if h.orch.Current().ScopeID == nil || *h.orch.Current().ScopeID != h.groupID() {
		t.Errorf("active scope = %v, want %s", h.orch.Current().ScopeID, h.groupID())
	}
}

func TestEnterRejectsWhileBusy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.orch.Enter(ctx, h.groupID(), nil); err != nil {
		t.Fatalf("first Enter: %v", err)
	}
	err := h.orch.Enter(ctx, h.groupID(), nil)
	if !errors.Is(err, errors.ErrCodeTransitionBusy) {
		t.Fatalf("second Enter error = %v, want TRANSITION_BUSY", err)
	}
	h.settle()
	if h.orch.Depth() != 1 {
		t.Fatalf("depth = %d, want 1: rejected input must not queue", h.orch.Depth())
	}
}

func TestEnterValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	t.Run("unknown node", func(t *testing.T) {
		err := h.orch.Enter(ctx, uuid.New(), nil)
		if !errors.Is(err, errors.ErrCodeNodeNotFound) {
			t.Fatalf("error = %v, want NODE_NOT_FOUND", err)
		}
	})

	t.Run("concept is not focusable", func(t *testing.T) {
		err := h.orch.Enter(ctx, h.conceptID(), nil)
		if !errors.Is(err, errors.ErrCodeNotFocusable) {
			t.Fatalf("error = %v, want NOT_FOCUSABLE", err)
		}
	})

	if h.orch.Depth() != 0 || h.orch.Busy() {
		t.Fatalf("failed validation mutated state: depth=%d busy=%v", h.orch.Depth(), h.orch.Busy())
	}
}

func TestEnterAttachTimeoutRollsBack(t *testing.T) {
	h := newHarness(t)
	h.attach = false // mounted surfaces never attach
	ctx := context.Background()

	var done error
	if err := h.orch.Enter(ctx, h.groupID(), func(e error) { done = e }); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	h.settle()

	if !errors.Is(done, errors.ErrCodeAttachTimeout) {
		t.Fatalf("onDone error = %v, want ATTACH_TIMEOUT", done)
	}
	if h.orch.Depth() != 0 {
		t.Errorf("depth = %d, want 0 after rollback", h.orch.Depth())
	}
	if h.orch.Phase() != PhaseIdle {
		t.Errorf("phase = %v, want idle", h.orch.Phase())
	}
	if got := h.orch.base.Opacity(); got != 1 {
		t.Errorf("base opacity = %v, want 1 after rollback", got)
	}
	// The failed layer's surface must be torn down.
	last := h.surfaces[len(h.surfaces)-1]
	if !last.torn {
		t.Error("failed layer's surface not torn down")
	}
	if h.orch.Visibility().Mode() != ModeBaseline {
		t.Errorf("visibility mode = %v, want baseline after rollback", h.orch.Visibility().Mode())
	}
}

// =============================================================================
// Exit
// =============================================================================

func TestExitRestoresAnchorAndTearsDown(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Nudge the base camera off its fit pose so the anchor is distinctive.
	h.orch.base.Camera.PanBy(33, -21)
	anchor := h.orch.base.Camera.State()

	if err := h.orch.Enter(ctx, h.groupID(), nil); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	h.settle()

	innerSurface := h.orch.Current().Surface.(*fakeSurface)
	var done error
	if err := h.orch.Exit(ctx, func(e error) { done = e }); err != nil {
		t.Fatalf("Exit: %v", err)
	}
	if h.orch.Phase() != PhaseExiting {
		t.Fatalf("phase = %v, want exiting", h.orch.Phase())
	}
	h.settle()

	if done != nil {
		t.Fatalf("onDone error = %v", done)
	}
	if h.orch.Depth() != 0 {
		t.Fatalf("depth = %d, want 0", h.orch.Depth())
	}
	if !innerSurface.torn {
		t.Error("popped layer's surface not torn down")
	}
	got := h.orch.base.Camera.State()
	if math.Abs(got.PanX-anchor.PanX) > 1e-6 ||
		math.Abs(got.PanY-anchor.PanY) > 1e-6 ||
		math.Abs(got.Zoom-anchor.Zoom) > 1e-6 {
		t.Errorf("camera = %+v, want anchor %+v", got, anchor)
	}
	if got := h.orch.base.Opacity(); got != 1 {
		t.Errorf("base opacity = %v, want 1", got)
	}
	if n := h.aliveSurfaces(); n != 1 {
		t.Errorf("alive surfaces = %d, want 1", n)
	}
	if h.orch.Visibility().Mode() != ModeBaseline {
		t.Errorf("visibility mode = %v, want baseline at depth 0", h.orch.Visibility().Mode())
	}
}

func TestExitRefetchesParentScope(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.orch.Enter(ctx, h.groupID(), nil); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	h.settle()

	// A node is created in the root scope while drilled in.
	extra, extraImpl := uuid.New(), uuid.New()
	h.fetcher.root.AbstractNodes = append(h.fetcher.root.AbstractNodes, graph.AbstractNode{
		ID: extra, Slug: "topology", Title: "Topology", Kind: graph.KindConcept,
	})
	h.fetcher.root.ImplNodes = append(h.fetcher.root.ImplNodes, graph.ImplNode{ID: extraImpl, AbstractID: extra})

	if err := h.orch.Exit(ctx, nil); err != nil {
		t.Fatalf("Exit: %v", err)
	}
	h.settle()

	if h.fetcher.fetches != 3 {
		t.Errorf("fetches = %d, want 3 (init, enter, exit)", h.fetcher.fetches)
	}
	if h.orch.Current().Els.Node(extra) == nil {
		t.Error("exited layer is missing the node created while focused")
	}
}

func TestExitWithUsesSuppliedSnapshot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.orch.Enter(ctx, h.groupID(), nil); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	h.settle()
	fetched := h.fetcher.fetches

	nid, impl := uuid.New(), uuid.New()
	supplied := &graph.Snapshot{
		AbstractNodes: []graph.AbstractNode{{ID: nid, Slug: "external", Title: "External", Kind: graph.KindConcept}},
		ImplNodes:     []graph.ImplNode{{ID: impl, AbstractID: nid}},
	}
	pose := camera.State{PanX: 12, PanY: -7, Zoom: 1.25}

	if err := h.orch.ExitWith(ctx, supplied, &pose, nil); err != nil {
		t.Fatalf("ExitWith: %v", err)
	}
	h.settle()

	if h.fetcher.fetches != fetched {
		t.Errorf("fetches = %d, want %d: ExitWith must not fetch", h.fetcher.fetches, fetched)
	}
	if h.orch.Current().Els.Node(nid) == nil {
		t.Error("supplied snapshot not active after ExitWith")
	}
	if got := h.orch.Current().Camera.State(); got != pose {
		t.Errorf("camera = %+v, want supplied target %+v", got, pose)
	}
}

// =============================================================================
// Camera motion
// =============================================================================

func TestEnterCameraDivesWithoutJump(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.orch.base.Camera.Set(camera.State{PanX: 40, PanY: 10, Zoom: 1})
	before := h.orch.base.Camera.State()
	baseSurface := h.surfaces[0]

	if err := h.orch.Enter(ctx, h.groupID(), nil); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	// Attach poll plus the first animation frame: no snap allowed.
	h.step(10 * time.Millisecond)
	h.step(time.Millisecond)
	mid := baseSurface.cam
	if math.Abs(mid.PanX-before.PanX) > 1e-9 || math.Abs(mid.Zoom-before.Zoom) > 0.05 {
		t.Fatalf("pose jumped to %+v from %+v in the first frames", mid, before)
	}
	h.settle()

	// The dive zooms in with pan retained.
	final := baseSurface.cam
	if math.Abs(final.PanX-before.PanX) > 1e-9 || math.Abs(final.PanY-before.PanY) > 1e-9 {
		t.Errorf("pan = (%v,%v), want retained (%v,%v)", final.PanX, final.PanY, before.PanX, before.PanY)
	}
	if final.Zoom <= before.Zoom {
		t.Errorf("zoom = %v, want > %v", final.Zoom, before.Zoom)
	}
}

func TestExitCameraStartsFromCurrentPose(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.orch.Enter(ctx, h.groupID(), nil); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	h.settle()

	// Wander while focused.
	wander := camera.State{PanX: 520, PanY: 134, Zoom: 1.8}
	child := h.orch.Current()
	child.Camera.Set(wander)
	childSurface := child.Surface.(*fakeSurface)

	if err := h.orch.Exit(ctx, nil); err != nil {
		t.Fatalf("Exit: %v", err)
	}
	// No frame has run yet: the visible pose must be untouched, and the
	// hidden parent must already match it.
	if childSurface.cam != wander {
		t.Fatalf("child pose moved on Exit() before any frame: %+v", childSurface.cam)
	}
	parentSurface := h.surfaces[len(h.surfaces)-1]
	if parentSurface.cam != wander {
		t.Fatalf("parent pose %+v not synced to the child's %+v", parentSurface.cam, wander)
	}
	h.settle()
}

func TestExitAtRootCallsHostHandler(t *testing.T) {
	h := newHarness(t)
	called := false
	h.orch.opts.OnExitHost = func() { called = true }

	if err := h.orch.Exit(context.Background(), nil); err != nil {
		t.Fatalf("Exit: %v", err)
	}
	if !called {
		t.Fatal("host exit handler not invoked at depth 0")
	}
	if h.orch.Busy() {
		t.Fatal("host exit left orchestrator busy")
	}
}

func TestExitRejectsWhileBusy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.orch.Enter(ctx, h.groupID(), nil); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	err := h.orch.Exit(ctx, nil)
	if !errors.Is(err, errors.ErrCodeTransitionBusy) {
		t.Fatalf("Exit error = %v, want TRANSITION_BUSY", err)
	}
	h.settle()
}

// =============================================================================
// Rebuild
// =============================================================================

func TestRebuildSwapsActiveLayer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	oldLayer := h.orch.Current()
	oldSurface := oldLayer.Surface.(*fakeSurface)
	pose := camera.State{PanX: 5, PanY: 6, Zoom: 1.5}
	oldLayer.Camera.Set(pose)

	// Simulate a mutation: a node appears in the root scope.
	extra, extraImpl := uuid.New(), uuid.New()
	h.fetcher.root.AbstractNodes = append(h.fetcher.root.AbstractNodes, graph.AbstractNode{
		ID: extra, Slug: "logic", Title: "Logic", Kind: graph.KindConcept,
	})
	h.fetcher.root.ImplNodes = append(h.fetcher.root.ImplNodes, graph.ImplNode{ID: extraImpl, AbstractID: extra})

	if err := h.orch.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if h.orch.Current() == oldLayer {
		t.Fatal("active layer not swapped")
	}
	if !oldSurface.torn {
		t.Error("replaced layer's surface not torn down")
	}
	if h.orch.Current().Els.Node(extra) == nil {
		t.Error("rebuilt layer missing the new node")
	}
	if got := h.orch.Current().Camera.State(); got != pose {
		t.Errorf("camera pose = %+v, want preserved %+v", got, pose)
	}
}

func TestEnterExitScenario(t *testing.T) {
	// Full drill-in/out cycle twice over, checking the stack is clean and
	// the second cycle behaves like the first.
	h := newHarness(t)
	ctx := context.Background()

	for cycle := 0; cycle < 2; cycle++ {
		if err := h.orch.Enter(ctx, h.groupID(), nil); err != nil {
			t.Fatalf("cycle %d Enter: %v", cycle, err)
		}
		h.settle()
		if h.orch.Depth() != 1 {
			t.Fatalf("cycle %d: depth = %d, want 1", cycle, h.orch.Depth())
		}
		if err := h.orch.Exit(ctx, nil); err != nil {
			t.Fatalf("cycle %d Exit: %v", cycle, err)
		}
		h.settle()
		if h.orch.Depth() != 0 {
			t.Fatalf("cycle %d: depth = %d, want 0", cycle, h.orch.Depth())
		}
	}

	// Root scope fetched at Init; each cycle fetches the focus scope on
	// enter and refetches the root scope on exit.
	if h.fetcher.fetches != 5 {
		t.Errorf("fetches = %d, want 5", h.fetcher.fetches)
	}
}
