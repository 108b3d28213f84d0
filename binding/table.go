package binding

import (
	"fmt"
	"reflect"
	"sync"

	"anvil/key"
)

// ErrDuplicateKey is wrapped by Table.Add when a Key is already bound; the
// error collector (errors.Collector) is what actually aggregates these
// during sealing — Table itself only refuses the mutation.
type ErrDuplicateKey struct {
	Key key.Key
}

func (e *ErrDuplicateKey) Error() string {
	return fmt.Sprintf("binding: duplicate binding for key %s", e.Key)
}

// Table is the binding table from §4.2: built once during the
// configuration phase (via Add), then Sealed, after which it is read-only
// and safe to share across goroutines without synchronisation (§5 "Shared
// Resource Policy").
//
// A secondary index groups bindings by raw type in insertion order, used
// both by FindByRawType (the public listing operation, §4.11) and by the
// resolver's missing-binding diagnostic, which lists the other qualifiers
// bound for the same raw type (§4.3).
type Table struct {
	mu       sync.Mutex // guards the maps only until Seal; unused afterwards
	byKey    map[string]*Binding
	byRaw    map[reflect.Type][]*Binding
	sealed   bool
	ordering []key.Key // preserves overall insertion order for Iterate
}

// NewTable creates an empty, unsealed Table.
func NewTable() *Table {
	return &Table{
		byKey: make(map[string]*Binding),
		byRaw: make(map[reflect.Type][]*Binding),
	}
}

// keyID canonicalises a Key into a string suitable as a map key. Key
// itself is not safe to use directly as a Go map key: its TypeDescriptor
// holds an *TypeDescriptor for array/Provider-of-T shapes, and Go's native
// map equality compares that pointer by identity rather than by calling
// Key.Equal, so two structurally-equal Keys built from separate
// DescriptorOf calls would wrongly be treated as distinct entries. Key's
// String method already recurses through raw type names and qualifiers
// deterministically, which is exactly the canonical form this needs.
func keyID(k key.Key) string {
	return k.String()
}

// Add inserts b into the table, uniqueness-checked by Key (§3 invariant:
// "Every Key in the binding table is unique"). It fails with
// *ErrDuplicateKey if a binding for b.Key already exists, and panics if
// called after Seal — mutating a sealed table is a programming error, not
// a recoverable configuration error, since sealing is meant to be the
// one-way transition from configuration to use (§4.2 "Failure").
func (t *Table) Add(b Binding) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sealed {
		panic("binding: Add called on a sealed Table")
	}
	id := keyID(b.Key)
	if _, exists := t.byKey[id]; exists {
		return &ErrDuplicateKey{Key: b.Key}
	}

	bound := b
	t.byKey[id] = &bound
	raw := b.Key.RawType()
	t.byRaw[raw] = append(t.byRaw[raw], &bound)
	t.ordering = append(t.ordering, b.Key)
	return nil
}

// Seal freezes the table; subsequent calls to Add panic.
func (t *Table) Seal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sealed = true
}

// Sealed reports whether Seal has been called.
func (t *Table) Sealed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sealed
}

// Get returns the binding for key k, and whether one exists — the Option
// return from §4.2's `get(key) -> Option<Binding>`.
func (t *Table) Get(k key.Key) (Binding, bool) {
	b, ok := t.byKey[keyID(k)]
	if !ok {
		return Binding{}, false
	}
	return *b, true
}

// FindByRawType returns every binding whose raw type equals t, in
// configuration-insertion order — `find_by_raw_type` from §4.2, also
// backing Container.FindBindingsByType (§4.11).
func (t *Table) FindByRawType(rt reflect.Type) []Binding {
	entries := t.byRaw[rt]
	out := make([]Binding, len(entries))
	for i, b := range entries {
		out[i] = *b
	}
	return out
}

// IterateAll yields every binding in the table in overall insertion order
// — `iterate_all` from §4.2.
func (t *Table) IterateAll() []Binding {
	out := make([]Binding, 0, len(t.ordering))
	for _, k := range t.ordering {
		out = append(out, *t.byKey[keyID(k)])
	}
	return out
}

// QualifiersFor returns the String form of every qualifier under which a
// binding exists for raw type rt, used to build the "other qualifiers
// available" hint in the resolver's missing-binding diagnostic (§4.3).
func (t *Table) QualifiersFor(rt reflect.Type) []string {
	entries := t.byRaw[rt]
	out := make([]string, 0, len(entries))
	for _, b := range entries {
		if !b.Key.Qualifier.IsZero() {
			out = append(out, b.Key.Qualifier.String())
		}
	}
	return out
}
