// Package status defines the closed set of order fulfillment statuses,
// their display metadata, and the transition policy between them.
package status

import (
	"fmt"
	"strings"
)

// Status is a fulfillment state an order can be in.
type Status string

const (
	Pending   Status = "pending"
	Confirmed Status = "confirmed"
	Preparing Status = "preparing"
	Shipped   Status = "shipped"
	Delivered Status = "delivered"
	Cancelled Status = "cancelled"
	Rejected  Status = "rejected"
)

// All returns every known status in canonical order.
func All() []Status {
	return []Status{Pending, Confirmed, Preparing, Shipped, Delivered, Cancelled, Rejected}
}

// Parse converts a wire string into a Status. Decoding boundaries must
// go through Parse so the rest of the code only ever holds valid values.
func Parse(s string) (Status, error) {
	switch Status(s) {
	case Pending, Confirmed, Preparing, Shipped, Delivered, Cancelled, Rejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Terminal reports whether no further transition leaves s.
func (s Status) Terminal() bool {
	switch s {
	case Delivered, Cancelled, Rejected:
		return true
	}
	return false
}

// Meta carries display metadata and the completion-progress scalar.
type Meta struct {
	Label    string
	Color    string
	Progress int // percent, 0-100
}

// MetaFor returns the catalog entry for s. The switch is total over the
// status set.
func MetaFor(s Status) Meta {
	switch s {
	case Pending:
		return Meta{Label: "Pending", Color: "#f59e0b", Progress: 10}
	case Confirmed:
		return Meta{Label: "Confirmed", Color: "#3b82f6", Progress: 30}
	case Preparing:
		return Meta{Label: "Preparing", Color: "#8b5cf6", Progress: 50}
	case Shipped:
		return Meta{Label: "Shipped", Color: "#06b6d4", Progress: 75}
	case Delivered:
		return Meta{Label: "Delivered", Color: "#10b981", Progress: 100}
	case Cancelled:
		return Meta{Label: "Cancelled", Color: "#6b7280", Progress: 0}
	case Rejected:
		return Meta{Label: "Rejected", Color: "#ef4444", Progress: 0}
	}
	// Unreachable for values built through Parse or the constants.
	return Meta{Label: string(s)}
}

// Progress returns the completion percentage for s.
func Progress(s Status) int { return MetaFor(s).Progress }

// transitions is the legal-move table. Every status has an entry,
// terminal statuses map to an empty set, and no status transitions to
// itself.
var transitions = map[Status][]Status{
	Pending:   {Confirmed, Cancelled, Rejected},
	Confirmed: {Preparing, Cancelled},
	Preparing: {Shipped, Cancelled},
	Shipped:   {Delivered},
	Delivered: {},
	Cancelled: {},
	Rejected:  {},
}

// LegalNext returns the statuses an order in s may move to.
func LegalNext(s Status) []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// RecommendedNext returns the next status along the canonical forward
// sequence pending -> confirmed -> preparing -> shipped -> delivered.
// ok is false when s is terminal.
func RecommendedNext(s Status) (next Status, ok bool) {
	switch s {
	case Pending:
		return Confirmed, true
	case Confirmed:
		return Preparing, true
	case Preparing:
		return Shipped, true
	case Shipped:
		return Delivered, true
	}
	return "", false
}

// InvalidTransitionError reports an attempted move that is not in the
// transition table, including the legal alternatives so callers can
// show them.
type InvalidTransitionError struct {
	From  Status
	To    Status
	Legal []Status
}

func (e *InvalidTransitionError) Error() string {
	legal := make([]string, len(e.Legal))
	for i, s := range e.Legal {
		legal[i] = string(s)
	}
	allowed := "none"
	if len(legal) > 0 {
		allowed = strings.Join(legal, ", ")
	}
	return fmt.Sprintf("invalid transition %s -> %s (legal: %s)", e.From, e.To, allowed)
}

// ValidateTransition returns an InvalidTransitionError unless from -> to
// is legal. A request to stay in place is rejected like any other
// illegal move.
func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to, Legal: LegalNext(from)}
	}
	return nil
}
