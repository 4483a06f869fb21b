package checkpoint

import (
	"fmt"
	"strings"

	"github.com/born-ml/born/internal/autodiff/graph"
)

// Strategy selects how operations declare their computing property.
type Strategy int

const (
	// NoCheckpointing retains every forward value the backward pass needs.
	NoCheckpointing Strategy = iota
	// BalancedCheckpointing recomputes memory-bound values on demand.
	BalancedCheckpointing
)

// ParseStrategy parses "none" or "balanced" (case-insensitive).
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "no", "off":
		return NoCheckpointing, nil
	case "balanced":
		return BalancedCheckpointing, nil
	default:
		return NoCheckpointing, fmt.Errorf("unknown checkpointing strategy %q (want none or balanced)", s)
	}
}

// String implements fmt.Stringer.
func (s Strategy) String() string {
	switch s {
	case NoCheckpointing:
		return "none"
	case BalancedCheckpointing:
		return "balanced"
	default:
		return "unknown"
	}
}

// Property returns the property a node gets when its op declares declared.
func (s Strategy) Property(declared graph.ComputingProperty) graph.ComputingProperty {
	if s == NoCheckpointing {
		return graph.ComputeBound
	}
	return declared
}

// Decision is the per-node outcome of the checkpointing policy.
type Decision int

const (
	// Retain keeps the forward value for the backward pass.
	Retain Decision = iota
	// Recompute drops the value and rebuilds it with a retro-forward.
	Recompute
)

// String implements fmt.Stringer.
func (d Decision) String() string {
	if d == Recompute {
		return "recompute"
	}
	return "retain"
}

// AmbiguousPolicy resolves nodes whose computing property is Ambiguous.
type AmbiguousPolicy interface {
	Decide(node *graph.Node) Decision
}

// AmbiguousPolicyFunc adapts a function to AmbiguousPolicy.
type AmbiguousPolicyFunc func(node *graph.Node) Decision

// Decide calls f(node).
func (f AmbiguousPolicyFunc) Decide(node *graph.Node) Decision {
	return f(node)
}

// Built-in ambiguous policies.
var (
	RetainAmbiguous    AmbiguousPolicy = AmbiguousPolicyFunc(func(*graph.Node) Decision { return Retain })
	RecomputeAmbiguous AmbiguousPolicy = AmbiguousPolicyFunc(func(*graph.Node) Decision { return Recompute })
)

// ParseAmbiguousPolicy parses "retain" or "recompute".
func ParseAmbiguousPolicy(s string) (AmbiguousPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "retain":
		return RetainAmbiguous, nil
	case "recompute":
		return RecomputeAmbiguous, nil
	default:
		return RetainAmbiguous, fmt.Errorf("unknown ambiguous policy %q (want retain or recompute)", s)
	}
}

// Decide returns the checkpointing decision for node.
// A nil policy retains ambiguous nodes.
func Decide(node *graph.Node, policy AmbiguousPolicy) Decision {
	switch node.Property {
	case graph.MemoryBound:
		return Recompute
	case graph.Ambiguous:
		if policy == nil {
			return Retain
		}
		return policy.Decide(node)
	default:
		return Retain
	}
}
