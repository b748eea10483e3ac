// Package pkg provides the core libraries for Skilltree, an interactive
// knowledge-graph canvas with focus navigation.
//
// # Overview
//
// Skilltree renders a hierarchical graph of learnable concepts and lets the
// user drill into groups, with animated camera transitions between focus
// levels. The pkg directory is organized into four areas:
//
//  1. Graph data and scope building ([graph], [store])
//  2. The view pipeline ([projection], [layout], [highlight])
//  3. The navigation engine ([camera], [anim], [focus], [input])
//  4. Serving and tooling ([gateway], [client], [cache], [export])
//
// # Architecture
//
// The typical data flow for one focus scope:
//
//	store (baseline or focus snapshot)
//	         ↓
//	    [projection] package (bundle impl edges to abstract level)
//	         ↓
//	    [layout] package (layered rows, prerequisites on top)
//	         ↓
//	    [focus] package (layer stack + transitions)
//	         ↓
//	    rendered canvas (TUI or exported SVG)
//
// # Quick Start
//
// Build a scope snapshot and run the engine against it:
//
//	import (
//	    "github.com/skilltreelabs/skilltree/pkg/anim"
//	    "github.com/skilltreelabs/skilltree/pkg/focus"
//	    "github.com/skilltreelabs/skilltree/pkg/store"
//	)
//
//	mem := store.NewMemory(store.MemoryOptions{Seed: true})
//	sched := anim.NewScheduler()
//	orch, _ := focus.New(sched, store.Fetcher{Store: mem}, mount, focus.Options{
//	    ViewportW: 1200,
//	    ViewportH: 800,
//	})
//	_ = orch.Init(ctx)
//
// # Main Packages
//
// [graph] - Snapshot types: abstract nodes, impl variants, edges, related
// pairs, and boundary hints. The wire format shared by store, gateway, and
// client.
//
// [store] - Dataset backends (memory, MongoDB) and the scope builders that
// flatten the hierarchy into baseline and focus snapshots.
//
// [projection] - Aggregates impl-level edges into abstract-level bundles
// with deterministic IDs and visual classes.
//
// [layout] - Layered DAG layout over requires edges: longest-path row
// assignment, barycenter ordering, and occlusion-aware edge routing.
//
// [highlight] - Prerequisite-chain partitioning and the dim/restore
// animation around it.
//
// [camera] - Pan/zoom state, glide animations, and cross-layer mirroring.
//
// [anim] - The cooperative animation scheduler every moving part runs on.
// Stepped externally; no internal goroutines.
//
// [focus] - The transition orchestrator: the layer stack, enter/exit/rebuild
// flows, attach waiting, and per-mode edge visibility.
//
// [input] - Maps user actions (select, drill in, drill out, toggles) onto
// the engine with debouncing.
//
// [gateway] - The chi HTTP API serving snapshots with caching.
//
// [client] - The HTTP client used by remote viewers; implements the
// engine's fetcher contract.
//
// [cache] - Snapshot caching with file, Redis, and null backends.
//
// [export] - DOT and SVG export of scope snapshots via Graphviz.
//
// [config] - TOML configuration shared by the gateway and the viewer.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/focus/...      # Specific package
//
// [graph]: https://pkg.go.dev/github.com/skilltreelabs/skilltree/pkg/graph
// [store]: https://pkg.go.dev/github.com/skilltreelabs/skilltree/pkg/store
// [projection]: https://pkg.go.dev/github.com/skilltreelabs/skilltree/pkg/projection
// [layout]: https://pkg.go.dev/github.com/skilltreelabs/skilltree/pkg/layout
// [highlight]: https://pkg.go.dev/github.com/skilltreelabs/skilltree/pkg/highlight
// [camera]: https://pkg.go.dev/github.com/skilltreelabs/skilltree/pkg/camera
// [anim]: https://pkg.go.dev/github.com/skilltreelabs/skilltree/pkg/anim
// [focus]: https://pkg.go.dev/github.com/skilltreelabs/skilltree/pkg/focus
// [input]: https://pkg.go.dev/github.com/skilltreelabs/skilltree/pkg/input
// [gateway]: https://pkg.go.dev/github.com/skilltreelabs/skilltree/pkg/gateway
// [client]: https://pkg.go.dev/github.com/skilltreelabs/skilltree/pkg/client
// [cache]: https://pkg.go.dev/github.com/skilltreelabs/skilltree/pkg/cache
// [export]: https://pkg.go.dev/github.com/skilltreelabs/skilltree/pkg/export
// [config]: https://pkg.go.dev/github.com/skilltreelabs/skilltree/pkg/config
package pkg
