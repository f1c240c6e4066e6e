package analysis

import "strings"

// Direction says which side of the relationship a reference describes.
type Direction string

const (
	// To references point at the target from elsewhere.
	To Direction = "TO"
	// From references are made by the target.
	From Direction = "FROM"
	// Both runs the two passes.
	Both Direction = "BOTH"
)

// ParseDirection accepts TO, FROM or BOTH in any case; empty means BOTH.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToUpper(strings.TrimSpace(s))) {
	case "", Both:
		return Both, true
	case To:
		return To, true
	case From:
		return From, true
	}
	return "", false
}

func (d Direction) includes(pass Direction) bool {
	return d == Both || d == pass
}

// Reference is one analysis result. Two references are the same when all
// four fields are equal.
type Reference struct {
	Source        string    `json:"source"`
	QualifiedName string    `json:"fullyQualifiedName"`
	CodeContext   string    `json:"codeContext"`
	Direction     Direction `json:"referenceType"`
}

// ReferenceSet keeps unique references in insertion order.
type ReferenceSet struct {
	seen  map[Reference]struct{}
	items []Reference
}

func NewReferenceSet() *ReferenceSet {
	return &ReferenceSet{seen: make(map[Reference]struct{})}
}

// Add inserts r and reports whether it was new.
func (s *ReferenceSet) Add(r Reference) bool {
	if _, dup := s.seen[r]; dup {
		return false
	}
	s.seen[r] = struct{}{}
	s.items = append(s.items, r)
	return true
}

func (s *ReferenceSet) Len() int { return len(s.items) }

// Items returns the references in insertion order.
func (s *ReferenceSet) Items() []Reference {
	out := make([]Reference, len(s.items))
	copy(out, s.items)
	return out
}

// Count returns how many references have direction d.
func (s *ReferenceSet) Count(d Direction) int {
	n := 0
	for _, r := range s.items {
		if r.Direction == d {
			n++
		}
	}
	return n
}
