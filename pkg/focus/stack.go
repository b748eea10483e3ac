package focus

import (
	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/camera"
)

// Entry records one level of drill-in: the focused node, the camera pose of
// the layer underneath at the moment of entry (restored on exit), and the
// layer built for the focus scope.
type Entry struct {
	NodeID uuid.UUID
	Anchor camera.State
	Layer  *Layer
}

// Stack is the focus stack. Depth 0 means the root scope is showing.
type Stack struct {
	entries []*Entry
}

// Depth returns the number of pushed focus levels.
func (s *Stack) Depth() int { return len(s.entries) }

// Top returns the innermost entry, or nil at depth 0.
func (s *Stack) Top() *Entry {
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[len(s.entries)-1]
}

// Push adds an entry.
func (s *Stack) Push(e *Entry) {
	s.entries = append(s.entries, e)
}

// Pop removes and returns the innermost entry, or nil at depth 0.
func (s *Stack) Pop() *Entry {
	if len(s.entries) == 0 {
		return nil
	}
	e := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return e
}

// Path returns the focused node IDs from outermost to innermost.
func (s *Stack) Path() []uuid.UUID {
	ids := make([]uuid.UUID, len(s.entries))
	for i, e := range s.entries {
		ids[i] = e.NodeID
	}
	return ids
}

// Contains reports whether a node is already focused somewhere on the stack.
func (s *Stack) Contains(id uuid.UUID) bool {
	for _, e := range s.entries {
		if e.NodeID == id {
			return true
		}
	}
	return false
}
