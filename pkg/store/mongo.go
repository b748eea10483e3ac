package store

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/skilltreelabs/skilltree/pkg/errors"
	"github.com/skilltreelabs/skilltree/pkg/graph"
)

// Collection names used by the Mongo store.
const (
	collNodes   = "nodes"
	collImpls   = "impls"
	collEdges   = "edges"
	collRelated = "related"
)

// Mongo is the MongoDB-backed Store. Scope builds load the dataset and run
// the same builders as the in-memory store; datasets are small enough that
// a full load per request is the simple and correct choice.
type Mongo struct {
	db     *mongo.Database
	logger *log.Logger
}

// NewMongo creates a store over an open database handle.
func NewMongo(db *mongo.Database, logger *log.Logger) *Mongo {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Mongo{db: db, logger: logger}
}

// NewMongoFromURI connects to MongoDB and returns a store over the named
// database. The connection is verified with a ping.
func NewMongoFromURI(uri, database string, logger *log.Logger) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}
	return NewMongo(client.Database(database), logger), nil
}

func (s *Mongo) load(ctx context.Context) (*dataset, error) {
	d := newDataset()

	var nodes []graph.AbstractNode
	if err := s.findAll(ctx, collNodes, &nodes); err != nil {
		return nil, err
	}
	for _, n := range nodes {
		d.nodes[n.ID] = n
	}

	var impls []graph.ImplNode
	if err := s.findAll(ctx, collImpls, &impls); err != nil {
		return nil, err
	}
	for _, i := range impls {
		d.impls[i.ID] = i
	}

	if err := s.findAll(ctx, collEdges, &d.edges); err != nil {
		return nil, err
	}
	if err := s.findAll(ctx, collRelated, &d.related); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Mongo) findAll(ctx context.Context, coll string, out any) error {
	cur, err := s.db.Collection(coll).Find(ctx, bson.D{})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "query %s", coll)
	}
	if err := cur.All(ctx, out); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "decode %s", coll)
	}
	return nil
}

// BaselineScope implements Store.
func (s *Mongo) BaselineScope(ctx context.Context) (*graph.Snapshot, error) {
	d, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return buildBaseline(d), nil
}

// FocusScope implements Store.
func (s *Mongo) FocusScope(ctx context.Context, groupID uuid.UUID) (*graph.Snapshot, error) {
	d, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	n, ok := d.nodes[groupID]
	if !ok {
		return nil, errors.New(errors.ErrCodeScopeNotFound, "no node %s", groupID)
	}
	if !n.Expandable() {
		return nil, errors.New(errors.ErrCodeScopeNotFound, "node %q is not a focusable group", n.Slug)
	}
	return buildFocus(d, groupID), nil
}

// CreateNode implements Store. Validation and the cycle check run against
// a freshly loaded dataset, then the documents are inserted.
func (s *Mongo) CreateNode(ctx context.Context, in CreateNodeInput) (*graph.AbstractNode, error) {
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

	d, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range d.nodes {
		if n.Slug == in.Slug {
			return nil, errors.New(errors.ErrCodeDuplicate, "slug %q already exists", in.Slug)
		}
	}
	if in.ParentID != nil {
		parent, ok := d.nodes[*in.ParentID]
		if !ok {
			return nil, errors.New(errors.ErrCodeNodeNotFound, "parent %s not found", in.ParentID)
		}
		if parent.Kind != graph.KindGroup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "parent %q is not a group", parent.Slug)
		}
	}
	for _, req := range in.Requires {
		if _, ok := d.nodes[req]; !ok {
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
	for _, req := range in.Requires {
		if d.requiresCycle(req, node.ID) {
			return nil, errors.New(errors.ErrCodeCycle, "edge from %s would create a cycle", req)
		}
	}

	var impl graph.ImplNode
	if in.Kind == graph.KindConcept {
		impl = graph.ImplNode{ID: uuid.New(), AbstractID: node.ID, VariantKey: variant}
	} else {
		impl = virtualImpl(node.ID)
	}

	if _, err := s.db.Collection(collNodes).InsertOne(ctx, node); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "insert node")
	}
	if _, err := s.db.Collection(collImpls).InsertOne(ctx, impl); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "insert impl")
	}
	for _, req := range in.Requires {
		edge := graph.Edge{
			ID:        uuid.New(),
			SrcImplID: d.repImpl(req).ID,
			DstImplID: impl.ID,
			Type:      graph.EdgeRequires,
		}
		if _, err := s.db.Collection(collEdges).InsertOne(ctx, edge); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "insert edge")
		}
	}

	s.logger.Info("node created", "slug", node.Slug, "kind", node.Kind, "requires", len(in.Requires))
	return &node, nil
}

// Reseed implements Store: drops the collections and writes the seed.
func (s *Mongo) Reseed(ctx context.Context) error {
	for _, coll := range []string{collNodes, collImpls, collEdges, collRelated} {
		if err := s.db.Collection(coll).Drop(ctx); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "drop %s", coll)
		}
	}

	d := seedDataset()

	nodes := make([]any, 0, len(d.nodes))
	for _, n := range d.nodes {
		nodes = append(nodes, n)
	}
	impls := make([]any, 0, len(d.impls))
	for _, i := range d.impls {
		impls = append(impls, i)
	}
	edges := make([]any, 0, len(d.edges))
	for _, e := range d.edges {
		edges = append(edges, e)
	}
	related := make([]any, 0, len(d.related))
	for _, r := range d.related {
		related = append(related, r)
	}

	for coll, docs := range map[string][]any{
		collNodes:   nodes,
		collImpls:   impls,
		collEdges:   edges,
		collRelated: related,
	} {
		if len(docs) == 0 {
			continue
		}
		if _, err := s.db.Collection(coll).InsertMany(ctx, docs); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "seed %s", coll)
		}
	}

	s.logger.Info("dataset reseeded", "nodes", len(nodes), "edges", len(edges))
	return nil
}
