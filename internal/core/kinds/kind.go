// Package kinds holds the merge chain: an ordered catalog of entity kinds and
// the promotion order between them. A Table is immutable once built.
package kinds

import (
	"errors"
	"fmt"
)

var ErrInvalidTable = errors.New("invalid kind table")

// Kind is one rung of the merge chain.
type Kind struct {
	Rank  int     `json:"rank" yaml:"rank"`
	Name  string  `json:"name" yaml:"name"`
	Label string  `json:"label" yaml:"label"`
	Size  float64 `json:"size" yaml:"size"`
}

func (k Kind) String() string { return k.Name }

// Radius is half the visual size.
func (k Kind) Radius() float64 { return k.Size / 2 }

// Definition describes one kind before ranks are assigned.
type Definition struct {
	Name     string  `json:"name" yaml:"name"`
	Label    string  `json:"label" yaml:"label"`
	Size     float64 `json:"size" yaml:"size"`
	Color    string  `json:"color,omitempty" yaml:"color,omitempty"`
	TextSize float64 `json:"text_size,omitempty" yaml:"text_size,omitempty"`
}

// Table is the static catalog. Kinds are stored smallest first, so the index
// of a kind is its rank.
type Table struct {
	kinds          []Kind
	byName         map[string]int
	excludeLargest int
	spawnable      []Kind
}

// NewTable builds a table from definitions ordered smallest first. The
// largest excludeLargest kinds are never handed out by fresh spawns.
func NewTable(defs []Definition, excludeLargest int) (*Table, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: no kinds", ErrInvalidTable)
	}
	if excludeLargest < 0 || excludeLargest >= len(defs) {
		return nil, fmt.Errorf("%w: exclude_largest %d out of range [0, %d)", ErrInvalidTable, excludeLargest, len(defs))
	}

	t := &Table{
		kinds:          make([]Kind, len(defs)),
		byName:         make(map[string]int, len(defs)),
		excludeLargest: excludeLargest,
	}
	for i, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: kind %d has no name", ErrInvalidTable, i)
		}
		if d.Size <= 0 {
			return nil, fmt.Errorf("%w: kind %s has non-positive size %v", ErrInvalidTable, d.Name, d.Size)
		}
		if _, dup := t.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate kind %s", ErrInvalidTable, d.Name)
		}
		label := d.Label
		if label == "" {
			label = d.Name
		}
		t.kinds[i] = Kind{Rank: i, Name: d.Name, Label: label, Size: d.Size}
		t.byName[d.Name] = i
	}
	t.spawnable = t.kinds[:len(t.kinds)-excludeLargest]
	return t, nil
}

// MustTable is NewTable that panics, for package-level catalogs.
func MustTable(defs []Definition, excludeLargest int) *Table {
	t, err := NewTable(defs, excludeLargest)
	if err != nil {
		panic(err)
	}
	return t
}

// Ordered reports whether a ranks strictly below b.
func (t *Table) Ordered(a, b Kind) bool { return a.Rank < b.Rank }

// Next returns the promotion target of k. The terminal kind has none.
func (t *Table) Next(k Kind) (Kind, bool) {
	if k.Rank < 0 || k.Rank+1 >= len(t.kinds) {
		return Kind{}, false
	}
	return t.kinds[k.Rank+1], true
}

// IsTerminal reports whether k is the largest kind.
func (t *Table) IsTerminal(k Kind) bool { return k.Rank == len(t.kinds)-1 }

func (t *Table) Terminal() Kind { return t.kinds[len(t.kinds)-1] }

// Spawnable returns the kinds eligible for fresh spawns, smallest first.
func (t *Table) Spawnable() []Kind {
	out := make([]Kind, len(t.spawnable))
	copy(out, t.spawnable)
	return out
}

func (t *Table) IsSpawnable(k Kind) bool {
	return k.Rank >= 0 && k.Rank < len(t.spawnable)
}

func (t *Table) ExcludeLargest() int { return t.excludeLargest }

func (t *Table) Lookup(name string) (Kind, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Kind{}, false
	}
	return t.kinds[i], true
}

func (t *Table) ByRank(rank int) (Kind, bool) {
	if rank < 0 || rank >= len(t.kinds) {
		return Kind{}, false
	}
	return t.kinds[rank], true
}

// Kinds returns every kind, smallest first.
func (t *Table) Kinds() []Kind {
	out := make([]Kind, len(t.kinds))
	copy(out, t.kinds)
	return out
}

func (t *Table) Len() int { return len(t.kinds) }

// Points is the score awarded for producing k by a merge: the triangular
// number of its 1-based rank.
func Points(k Kind) int {
	n := k.Rank + 1
	return n * (n + 1) / 2
}
