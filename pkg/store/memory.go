package store

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/errors"
	"github.com/skilltreelabs/skilltree/pkg/graph"
)

// Memory is the in-process Store. Reads take a shared lock so the gateway
// can serve scope builds concurrently.
type Memory struct {
	mu     sync.RWMutex
	data   *dataset
	logger *log.Logger
}

// MemoryOptions configures a Memory store.
type MemoryOptions struct {
	// Seed fills the store with the built-in dataset.
	Seed bool

	// Logger receives mutation logs. Defaults to a discarding logger.
	Logger *log.Logger
}

// NewMemory creates an in-memory store.
func NewMemory(opts MemoryOptions) *Memory {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	m := &Memory{data: newDataset(), logger: opts.Logger}
	if opts.Seed {
		m.data = seedDataset()
	}
	return m
}

// BaselineScope implements Store.
func (m *Memory) BaselineScope(ctx context.Context) (*graph.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return buildBaseline(m.data), nil
}

// FocusScope implements Store.
func (m *Memory) FocusScope(ctx context.Context, groupID uuid.UUID) (*graph.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.data.nodes[groupID]
	if !ok {
		return nil, errors.New(errors.ErrCodeScopeNotFound, "no node %s", groupID)
	}
	if !n.Expandable() {
		return nil, errors.New(errors.ErrCodeScopeNotFound, "node %q is not a focusable group", n.Slug)
	}
	return buildFocus(m.data, groupID), nil
}

// CreateNode implements Store. Concepts receive one impl with the given
// (or "core") variant key; requested prerequisite edges are cycle-checked
// before anything is written.
func (m *Memory) CreateNode(ctx context.Context, in CreateNodeInput) (*graph.AbstractNode, error) {
	if err := errors.ValidateSlug(in.Slug); err != nil {
		return nil, err
	}
	if err := errors.ValidateTitle(in.Title); err != nil {
		return nil, err
	}
	if in.Kind != graph.KindConcept && in.Kind != graph.KindGroup {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown node kind %q", in.Kind)
	}
	variant := in.VariantKey
	if variant == "" {
		variant = graph.VariantCore
	}
	if err := errors.ValidateVariantKey(variant); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.data.nodes {
		if n.Slug == in.Slug {
			return nil, errors.New(errors.ErrCodeDuplicate, "slug %q already exists", in.Slug)
		}
	}
	if in.ParentID != nil {
		parent, ok := m.data.nodes[*in.ParentID]
		if !ok {
			return nil, errors.New(errors.ErrCodeNodeNotFound, "parent %s not found", in.ParentID)
		}
		if parent.Kind != graph.KindGroup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "parent %q is not a group", parent.Slug)
		}
	}
	for _, req := range in.Requires {
		if _, ok := m.data.nodes[req]; !ok {
			return nil, errors.New(errors.ErrCodeNodeNotFound, "prerequisite %s not found", req)
		}
	}

	node := graph.AbstractNode{
		ID:         uuid.New(),
		Slug:       in.Slug,
		Title:      in.Title,
		ShortTitle: in.ShortTitle,
		Summary:    in.Summary,
		Kind:       in.Kind,
		ParentID:   in.ParentID,
	}

	// The new node has no dependents yet, so a prerequisite edge into it
	// can only close a cycle through self-reference; check anyway so the
	// guard holds if inputs ever carry the node's own ID.
	for _, req := range in.Requires {
		if m.data.requiresCycle(req, node.ID) {
			return nil, errors.New(errors.ErrCodeCycle, "edge from %s would create a cycle", req)
		}
	}

	m.data.nodes[node.ID] = node

	var impl graph.ImplNode
	if in.Kind == graph.KindConcept {
		impl = graph.ImplNode{ID: uuid.New(), AbstractID: node.ID, VariantKey: variant}
	} else {
		impl = virtualImpl(node.ID)
	}
	m.data.impls[impl.ID] = impl

	for _, req := range in.Requires {
		m.data.edges = append(m.data.edges, graph.Edge{
			ID:        uuid.New(),
			SrcImplID: m.data.repImpl(req).ID,
			DstImplID: impl.ID,
			Type:      graph.EdgeRequires,
		})
	}

	m.logger.Info("node created", "slug", node.Slug, "kind", node.Kind, "requires", len(in.Requires))
	return &node, nil
}

// AddRequires wires a prerequisite edge between two existing nodes,
// rejecting edges that would close a cycle.
func (m *Memory) AddRequires(ctx context.Context, prereqID, dependentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range []uuid.UUID{prereqID, dependentID} {
		if _, ok := m.data.nodes[id]; !ok {
			return errors.New(errors.ErrCodeNodeNotFound, "node %s not found", id)
		}
	}
	if m.data.requiresCycle(prereqID, dependentID) {
		return errors.New(errors.ErrCodeCycle, "edge %s -> %s would create a cycle", prereqID, dependentID)
	}
	m.data.edges = append(m.data.edges, graph.Edge{
		ID:        uuid.New(),
		SrcImplID: m.data.repImpl(prereqID).ID,
		DstImplID: m.data.repImpl(dependentID).ID,
		Type:      graph.EdgeRequires,
	})
	m.logger.Info("requires edge added", "prereq", prereqID, "dependent", dependentID)
	return nil
}

// Reseed implements Store.
func (m *Memory) Reseed(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = seedDataset()
	m.logger.Info("dataset reseeded", "nodes", len(m.data.nodes), "edges", len(m.data.edges))
	return nil
}

// NodeBySlug looks a node up by slug. Used by the CLI.
func (m *Memory) NodeBySlug(slug string) (graph.AbstractNode, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range m.data.nodes {
		if n.Slug == slug {
			return n, true
		}
	}
	return graph.AbstractNode{}, false
}
