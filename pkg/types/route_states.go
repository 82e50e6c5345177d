package types

import "fmt"

// RouteStates is the ordered list of custody states a shipment passes
// through, from payment to delivery. Index 0 is the state a shipment enters
// when a route is assigned; the last index is the terminal delivered state.
type RouteStates []string

// MinRouteStates is the smallest sequence that still describes a
// progression: an initial state and a terminal one.
const MinRouteStates = 2

// Validate enforces the minimum length and rejects empty state names.
func (s RouteStates) Validate() error {
	if len(s) < MinRouteStates {
		return fmt.Errorf("route needs at least %d states, got %d", MinRouteStates, len(s))
	}
	for i, name := range s {
		if name == "" {
			return fmt.Errorf("route state at index %d is empty", i)
		}
	}
	return nil
}

// IndexOf returns the first occurrence of name, or -1. Duplicate state names
// are permitted in a route but only the first index is addressable.
func (s RouteStates) IndexOf(name string) int {
	for i, candidate := range s {
		if candidate == name {
			return i
		}
	}
	return -1
}

// LastIndex returns the terminal index of the sequence.
func (s RouteStates) LastIndex() int {
	return len(s) - 1
}

// IsTerminalIndex reports whether idx is the sequence's final index.
func (s RouteStates) IsTerminalIndex(idx int) bool {
	return len(s) > 0 && idx == len(s)-1
}
