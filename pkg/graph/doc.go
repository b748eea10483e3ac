// Package graph defines the knowledge-graph data model shared by the whole
// application: abstract nodes (concepts and groups), implementation variants,
// typed dependency edges, undirected related edges, and the boundary hints
// derived for a focus scope.
//
// The central type is [Snapshot], the full payload for one focus scope as
// returned by the backend. Snapshots are treated as immutable once received:
// entering or leaving a focus scope always fetches a brand-new snapshot
// rather than mutating the current one.
//
// The format is JSON for the wire and files, with BSON tags for document
// storage. See the projection package for the derived renderable view.
package graph
