package workflow

import (
	"fmt"
	"time"
)

// Version is one successful generation recorded in a Ledger.
type Version[T any] struct {
	Index     int       `json:"index"`
	Value     T         `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// Ledger is an append-only history of generated artifacts of one kind plus a
// pointer to the currently selected entry. The zero value is an empty ledger.
//
// Whenever Len() > 0 the selected index satisfies 0 <= selected < Len().
// Ledger is not safe for concurrent use; Machine serializes access.
type Ledger[T any] struct {
	versions []Version[T]
	selected int
}

// BodyLedger holds markdown body versions.
type BodyLedger = Ledger[string]

// ImageLedger holds header image URL versions.
type ImageLedger = Ledger[string]

// Append records v at the end with index = Len() and selects it.
func (l *Ledger[T]) Append(v T, at time.Time) Version[T] {
	ver := Version[T]{Index: len(l.versions), Value: v, CreatedAt: at}
	l.versions = append(l.versions, ver)
	l.selected = ver.Index
	return ver
}

// Len returns the number of versions.
func (l *Ledger[T]) Len() int { return len(l.versions) }

// Selected returns the currently selected version, false when empty.
func (l *Ledger[T]) Selected() (Version[T], bool) {
	if len(l.versions) == 0 {
		return Version[T]{}, false
	}
	return l.versions[l.selected], true
}

// SelectedIndex returns the selected index, false when empty.
func (l *Ledger[T]) SelectedIndex() (int, bool) {
	if len(l.versions) == 0 {
		return 0, false
	}
	return l.selected, true
}

// Select points the ledger at an existing version.
func (l *Ledger[T]) Select(index int) error {
	if index < 0 || index >= len(l.versions) {
		return fmt.Errorf("%w: version %d out of range [0,%d)", ErrInvalidInput, index, len(l.versions))
	}
	l.selected = index
	return nil
}

// Cycle moves the selection circularly. With one or zero versions it does nothing.
func (l *Ledger[T]) Cycle(dir Direction) {
	n := len(l.versions)
	if n <= 1 {
		return
	}
	switch dir {
	case Prev:
		l.selected = (l.selected - 1 + n) % n
	case Next:
		l.selected = (l.selected + 1) % n
	}
}

// Versions returns a copy of the history in creation order.
func (l *Ledger[T]) Versions() []Version[T] {
	out := make([]Version[T], len(l.versions))
	copy(out, l.versions)
	return out
}

// Reset empties the ledger. Only a title change may call this.
func (l *Ledger[T]) Reset() {
	l.versions = nil
	l.selected = 0
}
