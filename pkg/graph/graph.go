package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Snapshot Serialization
// =============================================================================

// MarshalSnapshot serializes a snapshot to pretty-printed JSON bytes.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// UnmarshalSnapshot deserializes JSON bytes into a snapshot. Nil slices are
// normalized to empty so callers can range without nil checks.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	s.normalize()
	return &s, nil
}

// ReadSnapshot reads a JSON snapshot from r.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return UnmarshalSnapshot(data)
}

// WriteSnapshotFile writes a snapshot to a JSON file.
func WriteSnapshotFile(s *Snapshot, path string) error {
	data, err := MarshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadSnapshotFile reads a snapshot from a JSON file.
func ReadSnapshotFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalSnapshot(data)
}

func (s *Snapshot) normalize() {
	if s.AbstractNodes == nil {
		s.AbstractNodes = []AbstractNode{}
	}
	if s.ImplNodes == nil {
		s.ImplNodes = []ImplNode{}
	}
	if s.Edges == nil {
		s.Edges = []Edge{}
	}
	if s.RelatedEdges == nil {
		s.RelatedEdges = []RelatedEdge{}
	}
	if s.BoundaryHints == nil {
		s.BoundaryHints = []BoundaryHint{}
	}
}
