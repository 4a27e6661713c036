package graph

import (
	"encoding/json"
	"fmt"
	"io"
)

// Decode reads a payload from JSON. Missing metadata is filled in from the
// node and edge lists; the result is validated.
func Decode(r io.Reader) (*Payload, error) {
	var p Payload
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if p.Metadata == (Metadata{}) {
		p.Recount()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Encode writes the payload as indented JSON.
func Encode(w io.Writer, p *Payload) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("failed to encode graph payload: %w", err)
	}
	return nil
}
