// Package labels holds the ground-truth side of an accuracy benchmark: the
// inputs under test and the label set each one is expected to produce.
package labels

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownInput is returned when an expectation lookup misses.
var ErrUnknownInput = errors.New("labels: unknown input")

// Normalize lower-cases and trims an expected label.
func Normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Set is an ordered, duplicate-free collection of normalized labels.
type Set struct {
	order []string
	index map[string]struct{}
}

// NewSet normalizes the given labels and drops duplicates and blanks,
// keeping first-seen order.
func NewSet(values ...string) Set {
	s := Set{index: make(map[string]struct{}, len(values))}
	for _, v := range values {
		n := Normalize(v)
		if n == "" {
			continue
		}
		if _, ok := s.index[n]; ok {
			continue
		}
		s.index[n] = struct{}{}
		s.order = append(s.order, n)
	}
	return s
}

// Len returns the number of labels.
func (s Set) Len() int { return len(s.order) }

// Contains reports whether label (already normalized) is in the set.
func (s Set) Contains(label string) bool {
	_, ok := s.index[label]
	return ok
}

// Values returns a copy of the labels in insertion order.
func (s Set) Values() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s Set) String() string {
	return "[" + strings.Join(s.order, " ") + "]"
}

// Item is one input under test, usually an image URL.
type Item struct {
	ID       string
	Expected Set
}

// NewItem builds an Item from raw expected labels.
func NewItem(id string, expected ...string) Item {
	return Item{ID: id, Expected: NewSet(expected...)}
}

// Table maps input identifiers to their expected labels. It is built once
// and only read afterwards.
type Table struct {
	items []Item
	byID  map[string]int
}

// NewTable builds a table from items. Duplicate or empty IDs are rejected.
func NewTable(items ...Item) (*Table, error) {
	t := &Table{byID: make(map[string]int, len(items))}
	for _, it := range items {
		if it.ID == "" {
			return nil, errors.New("labels: input id is required")
		}
		if _, dup := t.byID[it.ID]; dup {
			return nil, fmt.Errorf("labels: duplicate input %q", it.ID)
		}
		t.byID[it.ID] = len(t.items)
		t.items = append(t.items, it)
	}
	return t, nil
}

// Expected returns the expected labels for id.
func (t *Table) Expected(id string) (Set, error) {
	i, ok := t.byID[id]
	if !ok {
		return Set{}, fmt.Errorf("%w: %s", ErrUnknownInput, id)
	}
	return t.items[i].Expected, nil
}

// Items returns the inputs in the order they were added.
func (t *Table) Items() []Item {
	out := make([]Item, len(t.items))
	copy(out, t.items)
	return out
}

// Len returns the number of inputs.
func (t *Table) Len() int { return len(t.items) }
