package graph

import (
	"github.com/google/uuid"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// NodeKind distinguishes navigable grouping nodes from leaf concepts.
type NodeKind string

const (
	// KindConcept is a single learnable concept.
	KindConcept NodeKind = "concept"
	// KindGroup is a container of other abstract nodes. A group with
	// children is the only valid focus (drill-in) target.
	KindGroup NodeKind = "group"
)

// EdgeType classifies a dependency edge between implementations.
type EdgeType string

const (
	// EdgeRequires is a hard prerequisite: the source must be learned
	// before the target ("source is required by target").
	EdgeRequires EdgeType = "requires"
	// EdgeRecommended is a soft suggestion, optionally ranked.
	EdgeRecommended EdgeType = "recommended"
)

// Direction tells which way a boundary-crossing edge points relative to
// the current focus scope.
type Direction string

const (
	// DirDependsOn means the scope depends on the outside group.
	DirDependsOn Direction = "depends_on"
	// DirUsedBy means the outside group depends on the scope.
	DirUsedBy Direction = "used_by"
)

// VariantCore is the variant key that wins default-impl selection.
const VariantCore = "core"

// =============================================================================
// Node Types
// =============================================================================

// AbstractNode is a concept or group at the navigable granularity.
// Identity is immutable once created. ParentID forms a containment tree;
// a nil ParentID marks a top-level node.
type AbstractNode struct {
	ID         uuid.UUID  `json:"id" bson:"id"`
	Slug       string     `json:"slug" bson:"slug"`
	Title      string     `json:"title" bson:"title"`
	ShortTitle string     `json:"short_title" bson:"short_title"`
	Summary    string     `json:"summary,omitempty" bson:"summary,omitempty"`
	BodyMD     string     `json:"body_md,omitempty" bson:"body_md,omitempty"`
	Kind       NodeKind   `json:"kind" bson:"kind"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty" bson:"parent_id,omitempty"`

	HasChildren bool `json:"has_children" bson:"has_children"`
	HasVariants bool `json:"has_variants" bson:"has_variants"`

	DefaultImplID *uuid.UUID `json:"default_impl_id,omitempty" bson:"default_impl_id,omitempty"`
}

// Expandable reports whether the node is a valid focus (drill-in) target.
// Only groups that actually contain children qualify.
func (n AbstractNode) Expandable() bool {
	return n.Kind == KindGroup && n.HasChildren
}

// DisplayTitle returns the short title if set, otherwise the full title.
func (n AbstractNode) DisplayTitle() string {
	if n.ShortTitle != "" {
		return n.ShortTitle
	}
	return n.Title
}

// ImplNode is one implementation variant of an AbstractNode. Many impls may
// belong to one abstract node; an impl's lifetime is bound to its owner.
type ImplNode struct {
	ID         uuid.UUID `json:"id" bson:"id"`
	AbstractID uuid.UUID `json:"abstract_id" bson:"abstract_id"`
	VariantKey string    `json:"variant_key" bson:"variant_key"`
	ContractMD string    `json:"contract_md,omitempty" bson:"contract_md,omitempty"`
}

// =============================================================================
// Edge Types
// =============================================================================

// Edge is a low-level directed edge between two implementations. For
// EdgeRequires the source is the prerequisite ("required by" the target).
// Rank is only meaningful on recommended edges; lower is stronger.
type Edge struct {
	ID        uuid.UUID `json:"id" bson:"id"`
	SrcImplID uuid.UUID `json:"src_impl_id" bson:"src_impl_id"`
	DstImplID uuid.UUID `json:"dst_impl_id" bson:"dst_impl_id"`
	Type      EdgeType  `json:"type" bson:"type"`
	Rank      *int      `json:"rank,omitempty" bson:"rank,omitempty"`
}

// RelatedEdge is an undirected pairing of two abstract nodes. It carries no
// direction and no type; (A,B) and (B,A) are the same edge.
type RelatedEdge struct {
	A uuid.UUID `json:"a_id" bson:"a_id"`
	B uuid.UUID `json:"b_id" bson:"b_id"`
}

// BoundaryHint summarizes edges that cross the current focus boundary,
// grouped by the outside group they lead to. Hints are a navigation
// affordance only; they are not part of the graph topology.
type BoundaryHint struct {
	GroupID    uuid.UUID `json:"group_id" bson:"group_id"`
	Title      string    `json:"title" bson:"title"`
	ShortTitle string    `json:"short_title" bson:"short_title"`
	Type       EdgeType  `json:"type" bson:"type"`
	Direction  Direction `json:"direction" bson:"direction"`
	Count      int       `json:"count" bson:"count"`
}

// =============================================================================
// Snapshot
// =============================================================================

// Snapshot is the full graph payload for one focus scope (root scope or a
// group's sub-scope), as returned by the backend. A snapshot is immutable
// once received; navigating to a different scope fetches a new one.
type Snapshot struct {
	AbstractNodes []AbstractNode `json:"abstract_nodes" bson:"abstract_nodes"`
	ImplNodes     []ImplNode     `json:"impl_nodes" bson:"impl_nodes"`
	Edges         []Edge         `json:"edges" bson:"edges"`
	RelatedEdges  []RelatedEdge  `json:"related_edges" bson:"related_edges"`
	BoundaryHints []BoundaryHint `json:"boundary_hints" bson:"boundary_hints"`
}

// ImplOwner builds the impl→abstract ownership map used to project
// impl-level edges up to abstract-level endpoints.
func (s *Snapshot) ImplOwner() map[uuid.UUID]uuid.UUID {
	owner := make(map[uuid.UUID]uuid.UUID, len(s.ImplNodes))
	for _, i := range s.ImplNodes {
		owner[i.ID] = i.AbstractID
	}
	return owner
}

// AbstractByID builds a lookup map over the snapshot's abstract nodes.
func (s *Snapshot) AbstractByID() map[uuid.UUID]AbstractNode {
	m := make(map[uuid.UUID]AbstractNode, len(s.AbstractNodes))
	for _, n := range s.AbstractNodes {
		m[n.ID] = n
	}
	return m
}

// Node returns the abstract node with the given ID and true, or a zero
// node and false when the snapshot does not contain it.
func (s *Snapshot) Node(id uuid.UUID) (AbstractNode, bool) {
	for _, n := range s.AbstractNodes {
		if n.ID == id {
			return n, true
		}
	}
	return AbstractNode{}, false
}
