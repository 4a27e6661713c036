package graph

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyGraph       = errors.New("graph has no nodes")
	ErrEmptyNodeID      = errors.New("node id is empty")
	ErrDuplicateNode    = errors.New("duplicate node id")
	ErrDanglingEdge     = errors.New("edge endpoint references unknown node")
	ErrInvalidWeight    = errors.New("edge weight is not a finite number")
	ErrMetadataMismatch = errors.New("metadata counts do not match payload")
	ErrMalformed        = errors.New("malformed graph payload")
)

// Validate checks referential consistency of the payload.
func (p *Payload) Validate() error {
	if len(p.Nodes) == 0 {
		return ErrEmptyGraph
	}

	seen := make(map[string]struct{}, len(p.Nodes))
	for i, n := range p.Nodes {
		if n.ID == "" {
			return fmt.Errorf("nodes[%d]: %w", i, ErrEmptyNodeID)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("node %q: %w", n.ID, ErrDuplicateNode)
		}
		seen[n.ID] = struct{}{}
	}

	for i, e := range p.Edges {
		if _, ok := seen[e.From]; !ok {
			return fmt.Errorf("edges[%d] from %q: %w", i, e.From, ErrDanglingEdge)
		}
		if _, ok := seen[e.To]; !ok {
			return fmt.Errorf("edges[%d] to %q: %w", i, e.To, ErrDanglingEdge)
		}
		if !finite(e.WeightCost) || !finite(e.WeightNegLog) {
			return fmt.Errorf("edge %s: %w", e.ID(), ErrInvalidWeight)
		}
	}

	if p.Metadata.NodeCount != len(p.Nodes) || p.Metadata.EdgeCount != len(p.Edges) {
		return fmt.Errorf("%w: metadata says %d/%d, payload has %d/%d",
			ErrMetadataMismatch, p.Metadata.NodeCount, p.Metadata.EdgeCount, len(p.Nodes), len(p.Edges))
	}

	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsInvalid reports whether err comes from decoding or validating a payload.
func IsInvalid(err error) bool {
	for _, target := range []error{ErrEmptyGraph, ErrEmptyNodeID, ErrDuplicateNode, ErrDanglingEdge, ErrInvalidWeight, ErrMetadataMismatch, ErrMalformed} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
