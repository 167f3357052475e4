package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Type classifies what kind of change an event describes.
type Type string

const (
	TypeCreate Type = "CREATE"
	TypeUpdate Type = "UPDATE"
	TypeDelete Type = "DELETE"
	TypeList   Type = "LIST"
)

// Valid reports whether t is one of the known event types.
func (t Type) Valid() bool {
	switch t {
	case TypeCreate, TypeUpdate, TypeDelete, TypeList:
		return true
	}
	return false
}

// Priority orders events by urgency. Higher values are more urgent.
type Priority int

const (
	PriorityLow      Priority = 0
	PriorityNormal   Priority = 1
	PriorityHigh     Priority = 2
	PriorityCritical Priority = 3
)

var priorityNames = map[Priority]string{
	PriorityLow:      "LOW",
	PriorityNormal:   "NORMAL",
	PriorityHigh:     "HIGH",
	PriorityCritical: "CRITICAL",
}

// String returns the canonical upper-case name.
func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// ParsePriority maps a name ("high", "HIGH") or a numeric value (0-3)
// to a Priority. Anything unrecognized clamps to PriorityNormal —
// filter inputs degrade gracefully instead of failing the request.
func ParsePriority(v any) Priority {
	switch val := v.(type) {
	case string:
		switch strings.ToUpper(strings.TrimSpace(val)) {
		case "LOW":
			return PriorityLow
		case "NORMAL":
			return PriorityNormal
		case "HIGH":
			return PriorityHigh
		case "CRITICAL":
			return PriorityCritical
		}
	case float64:
		return clampPriority(Priority(int(val)))
	case int:
		return clampPriority(Priority(val))
	case Priority:
		return clampPriority(val)
	}
	return PriorityNormal
}

func clampPriority(p Priority) Priority {
	if p < PriorityLow || p > PriorityCritical {
		return PriorityNormal
	}
	return p
}

// MarshalJSON encodes the priority as its upper-case name.
func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts either a name or a bare number.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = ParsePriority(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("parsing priority: %w", err)
	}
	*p = clampPriority(Priority(n))
	return nil
}

// Event is a single entry in the event log. ID and Timestamp are
// assigned by the bus at append time; everything else comes from the
// producer's Draft.
type Event struct {
	ID        int64          `json:"id"`
	Type      Type           `json:"type"`
	Target    string         `json:"target"`
	Priority  Priority       `json:"priority"`
	Payload   map[string]any `json:"payload,omitempty"`
	UIHint    string         `json:"ui_hint,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Draft is the producer-supplied portion of an event. The bus
// completes it with an id and a timestamp on Emit.
type Draft struct {
	Type     Type
	Target   string
	Priority Priority
	Payload  map[string]any
	UIHint   string
}
