package store

import (
	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/graph"
)

// seedNamespace is the uuid v5 namespace for seed entities, so reseeding
// always produces the same IDs.
var seedNamespace = uuid.MustParse("c5f2d1a0-3b44-4e87-9a21-7d8e5f60b3c2")

// SeedID derives the deterministic ID of a seed node from its slug.
func SeedID(slug string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte("node:"+slug))
}

func seedImplID(slug, variant string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte("impl:"+slug+":"+variant))
}

func seedEdgeID(src, dst, typ string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte("edge:"+typ+":"+src+":"+dst))
}

type seedNode struct {
	slug, title, short, parent string
	kind                       graph.NodeKind
	variants                   []string
}

type seedEdge struct {
	src, dst string // slugs, prerequisite -> dependent
	typ      graph.EdgeType
	rank     int // 0 means unranked
}

var seedNodes = []seedNode{
	// Math domain
	{slug: "math", title: "Mathematics", short: "Math", kind: graph.KindGroup},
	{slug: "algebra", title: "Abstract Algebra", short: "Algebra", parent: "math", kind: graph.KindGroup},
	{slug: "sets", title: "Set Theory", parent: "algebra", kind: graph.KindConcept},
	{slug: "group-theory", title: "Group Theory", parent: "algebra", kind: graph.KindConcept},
	{slug: "rings", title: "Rings and Fields", short: "Rings", parent: "algebra", kind: graph.KindConcept},
	{slug: "calculus", title: "Calculus", parent: "math", kind: graph.KindGroup},
	{slug: "limits", title: "Limits and Continuity", short: "Limits", parent: "calculus", kind: graph.KindConcept},
	{slug: "derivatives", title: "Derivatives", parent: "calculus", kind: graph.KindConcept},
	{slug: "integrals", title: "Integrals", parent: "calculus", kind: graph.KindConcept},
	{slug: "linear-algebra", title: "Linear Algebra", short: "Lin. Alg.", parent: "math", kind: graph.KindGroup},
	{slug: "vectors", title: "Vector Spaces", short: "Vectors", parent: "linear-algebra", kind: graph.KindConcept},
	{slug: "matrices", title: "Matrices", parent: "linear-algebra", kind: graph.KindConcept},
	{slug: "eigenvalues", title: "Eigenvalues and Eigenvectors", short: "Eigen", parent: "linear-algebra", kind: graph.KindConcept},

	// Physics domain
	{slug: "physics", title: "Physics", kind: graph.KindGroup},
	{slug: "mechanics", title: "Classical Mechanics", short: "Mechanics", parent: "physics", kind: graph.KindGroup},
	{slug: "kinematics", title: "Kinematics", parent: "mechanics", kind: graph.KindConcept},
	{slug: "dynamics", title: "Dynamics", parent: "mechanics", kind: graph.KindConcept},
	{slug: "electromagnetism", title: "Electromagnetism", short: "E&M", parent: "physics", kind: graph.KindGroup},
	{slug: "electric-fields", title: "Electric Fields", parent: "electromagnetism", kind: graph.KindConcept},
	{slug: "maxwell-equations", title: "Maxwell's Equations", short: "Maxwell", parent: "electromagnetism", kind: graph.KindConcept},

	// DSP domain
	{slug: "dsp", title: "Digital Signal Processing", short: "DSP", kind: graph.KindGroup},
	{slug: "sampling", title: "Sampling", parent: "dsp", kind: graph.KindGroup},
	{slug: "nyquist", title: "Nyquist-Shannon Theorem", short: "Nyquist", parent: "sampling", kind: graph.KindConcept},
	{slug: "quantization", title: "Quantization", parent: "sampling", kind: graph.KindConcept},
	{slug: "transforms", title: "Transforms", parent: "dsp", kind: graph.KindGroup},
	{slug: "fourier-series", title: "Fourier Series", parent: "transforms", kind: graph.KindConcept},
	{slug: "fft", title: "Fast Fourier Transform", short: "FFT", parent: "transforms", kind: graph.KindConcept,
		variants: []string{graph.VariantCore, "iterative"}},
	{slug: "z-transform", title: "Z-Transform", parent: "transforms", kind: graph.KindConcept},
}

var seedEdges = []seedEdge{
	{src: "sets", dst: "group-theory", typ: graph.EdgeRequires},
	{src: "group-theory", dst: "rings", typ: graph.EdgeRequires},
	{src: "limits", dst: "derivatives", typ: graph.EdgeRequires},
	{src: "derivatives", dst: "integrals", typ: graph.EdgeRequires},
	{src: "vectors", dst: "matrices", typ: graph.EdgeRequires},
	{src: "matrices", dst: "eigenvalues", typ: graph.EdgeRequires},
	{src: "kinematics", dst: "dynamics", typ: graph.EdgeRequires},
	{src: "electric-fields", dst: "maxwell-equations", typ: graph.EdgeRequires},
	{src: "nyquist", dst: "quantization", typ: graph.EdgeRequires},
	{src: "fourier-series", dst: "fft", typ: graph.EdgeRequires},
	{src: "fourier-series", dst: "z-transform", typ: graph.EdgeRequires},

	// Cross-domain prerequisites; these surface as lifted hub edges in the
	// baseline and as boundary hints inside a focus scope.
	{src: "derivatives", dst: "kinematics", typ: graph.EdgeRequires},
	{src: "integrals", dst: "electric-fields", typ: graph.EdgeRequires},
	{src: "integrals", dst: "fourier-series", typ: graph.EdgeRequires},
	{src: "nyquist", dst: "fft", typ: graph.EdgeRequires},

	{src: "rings", dst: "eigenvalues", typ: graph.EdgeRecommended, rank: 1},
	{src: "matrices", dst: "fft", typ: graph.EdgeRecommended, rank: 2},
	{src: "fft", dst: "maxwell-equations", typ: graph.EdgeRecommended, rank: 3},
}

// relatedPairs are undirected see-also pairings.
var relatedPairs = [][2]string{
	{"fourier-series", "integrals"},
	{"eigenvalues", "z-transform"},
}

// seedDataset builds the built-in Math / Physics / DSP dataset. All IDs are
// deterministic, so reseeding is idempotent.
func seedDataset() *dataset {
	d := newDataset()

	for _, sn := range seedNodes {
		node := graph.AbstractNode{
			ID:         SeedID(sn.slug),
			Slug:       sn.slug,
			Title:      sn.title,
			ShortTitle: sn.short,
			Kind:       sn.kind,
		}
		if sn.parent != "" {
			pid := SeedID(sn.parent)
			node.ParentID = &pid
		}
		d.nodes[node.ID] = node

		variants := sn.variants
		if sn.kind == graph.KindConcept && len(variants) == 0 {
			variants = []string{graph.VariantCore}
		}
		for _, v := range variants {
			impl := graph.ImplNode{
				ID:         seedImplID(sn.slug, v),
				AbstractID: node.ID,
				VariantKey: v,
			}
			d.impls[impl.ID] = impl
		}
	}

	for _, se := range seedEdges {
		e := graph.Edge{
			ID:        seedEdgeID(se.src, se.dst, string(se.typ)),
			SrcImplID: d.repImpl(SeedID(se.src)).ID,
			DstImplID: d.repImpl(SeedID(se.dst)).ID,
			Type:      se.typ,
		}
		if se.rank > 0 {
			r := se.rank
			e.Rank = &r
		}
		d.edges = append(d.edges, e)
	}

	for _, pair := range relatedPairs {
		d.related = append(d.related, graph.RelatedEdge{
			A: SeedID(pair[0]),
			B: SeedID(pair[1]),
		})
	}

	return d
}
