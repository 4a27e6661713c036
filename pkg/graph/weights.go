package graph

import (
	"fmt"
	"math"
)

// BasisPoints is the denominator of cost values (10000 bps = 100%).
const BasisPoints = 10000.0

// EffectiveRate applies a cost in basis points to a raw rate.
func EffectiveRate(raw, costBps float64) (float64, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("rate must be positive, got %v", raw)
	}
	if costBps < 0 || costBps >= BasisPoints {
		return 0, fmt.Errorf("cost must be in [0, %v) bps, got %v", BasisPoints, costBps)
	}
	return raw * (1 - costBps/BasisPoints), nil
}

// NegLogWeight returns -ln(effective rate). A cycle whose weights sum below
// zero multiplies back to more than it started with.
func NegLogWeight(raw, costBps float64) (float64, error) {
	rate, err := EffectiveRate(raw, costBps)
	if err != nil {
		return 0, err
	}
	return -math.Log(rate), nil
}

// CycleGain returns the product of effective rates around a cycle of node ids,
// closing from the last node back to the first. ok is false if an edge is missing.
func (p *Payload) CycleGain(cycle []string) (gain float64, ok bool) {
	if len(cycle) < 2 {
		return 0, false
	}
	sum := 0.0
	for i := range cycle {
		from, to := cycle[i], cycle[(i+1)%len(cycle)]
		e, found := p.Edge(from, to)
		if !found {
			return 0, false
		}
		sum += e.WeightNegLog
	}
	return math.Exp(-sum), true
}
