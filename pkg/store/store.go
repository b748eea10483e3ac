// Package store holds the knowledge-graph dataset and builds the scope
// snapshots the engine consumes. Two backends share the same scope-building
// logic: an in-memory store used by tests, the TUI's local mode and the
// gateway default, and a MongoDB-backed store for persistent deployments.
//
// Scope building is where the hierarchy is flattened for display:
//
//   - The baseline (root) scope hides top-level domain groups and shows
//     their children (the "hubs") plus any top-level concepts. Edges whose
//     endpoints are buried deeper are lifted to the visible ancestor and
//     merged, keeping the minimum rank.
//   - A focus scope shows the focused group's immediate children. Edges
//     crossing the focus boundary are not drawn; they are summarized as
//     boundary hints grouped by the topmost outside ancestor.
//
// Visible groups that carry no implementation of their own get a
// deterministic virtual impl so aggregated edges have endpoints.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/graph"
)

// Store is the backend contract used by the gateway and the engine's
// in-process fetcher.
type Store interface {
	// BaselineScope builds the root-scope snapshot.
	BaselineScope(ctx context.Context) (*graph.Snapshot, error)

	// FocusScope builds the snapshot for a focused group.
	FocusScope(ctx context.Context, groupID uuid.UUID) (*graph.Snapshot, error)

	// CreateNode adds a node (and for concepts, its first impl) to the
	// dataset, wiring any requested prerequisite edges.
	CreateNode(ctx context.Context, in CreateNodeInput) (*graph.AbstractNode, error)

	// Reseed replaces the dataset with the built-in seed.
	Reseed(ctx context.Context) error
}

// Fetcher adapts a Store to the engine's scope-fetcher contract, for
// in-process deployments that skip the gateway.
type Fetcher struct {
	Store Store
}

// FetchScope fetches the baseline scope for a nil scopeID, otherwise the
// focus scope for the group.
func (f Fetcher) FetchScope(ctx context.Context, scopeID *uuid.UUID) (*graph.Snapshot, error) {
	if scopeID == nil {
		return f.Store.BaselineScope(ctx)
	}
	return f.Store.FocusScope(ctx, *scopeID)
}

// CreateNodeInput describes a node to create.
type CreateNodeInput struct {
	Slug       string          `json:"slug"`
	Title      string          `json:"title"`
	ShortTitle string          `json:"short_title,omitempty"`
	Summary    string          `json:"summary,omitempty"`
	Kind       graph.NodeKind  `json:"kind"`
	ParentID   *uuid.UUID      `json:"parent_id,omitempty"`
	VariantKey string          `json:"variant_key,omitempty"`

	// Requires lists abstract node IDs the new node depends on. Each
	// produces a requires edge prerequisite -> new node, cycle-checked.
	Requires []uuid.UUID `json:"requires,omitempty"`
}
