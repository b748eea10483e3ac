package focus

import (
	"github.com/skilltreelabs/skilltree/pkg/graph"
	"github.com/skilltreelabs/skilltree/pkg/layout"
	"github.com/skilltreelabs/skilltree/pkg/projection"
)

// Mode is the edge-visibility mode tied to the focus depth.
type Mode int

const (
	// ModeNone is the pre-init sentinel; SetMode always applies defaults
	// when leaving it.
	ModeNone Mode = iota
	// ModeBaseline is the root-scope mode: soft edges hidden.
	ModeBaseline
	// ModeFocused is any drilled-in mode: soft edges shown.
	ModeFocused
)

// EdgeVisibility tracks which edge kinds are showing. Each mode has
// defaults (baseline hides recommended and related edges, focused shows
// them) that are applied exactly once per mode flip: toggles made by the
// user survive until the mode actually changes.
type EdgeVisibility struct {
	mode        Mode
	lastApplied Mode

	showRecommended bool
	showRelated     bool
}

// NewEdgeVisibility starts in baseline mode with its defaults applied.
func NewEdgeVisibility() *EdgeVisibility {
	v := &EdgeVisibility{}
	v.SetMode(ModeBaseline)
	return v
}

// Mode returns the current mode.
func (v *EdgeVisibility) Mode() Mode { return v.mode }

// SetMode switches modes. Defaults are applied only when the mode actually
// changes; re-asserting the current mode keeps user toggles intact.
func (v *EdgeVisibility) SetMode(m Mode) {
	v.mode = m
	if v.lastApplied == m {
		return
	}
	v.lastApplied = m
	switch m {
	case ModeFocused:
		v.showRecommended = true
		v.showRelated = true
	default:
		v.showRecommended = false
		v.showRelated = false
	}
}

// ShowRecommended reports whether recommended bundles are showing.
func (v *EdgeVisibility) ShowRecommended() bool { return v.showRecommended }

// ShowRelated reports whether related edges are showing.
func (v *EdgeVisibility) ShowRelated() bool { return v.showRelated }

// ToggleRecommended flips recommended-bundle visibility within the mode.
func (v *EdgeVisibility) ToggleRecommended() { v.showRecommended = !v.showRecommended }

// ToggleRelated flips related-edge visibility within the mode.
func (v *EdgeVisibility) ToggleRelated() { v.showRelated = !v.showRelated }

// Filter returns the bundle filter for the current settings. Requires
// bundles are always visible; they define the layout.
func (v *EdgeVisibility) Filter() layout.Filter {
	show := v.showRecommended
	return func(b *projection.Bundle) bool {
		if b.Type == graph.EdgeRecommended {
			return show
		}
		return true
	}
}
