// Package address implements the dependency engine's object identity
// model: the (classid, objid, objsubid) triple that names a catalog
// object or sub-object, and the deduplicating AddressSet used to
// accumulate and query sets of such triples.
package address

import (
	"fmt"
	"sort"
)

// ClassID is the opaque, storage-level identifier of a catalog class
// (the OID of the system catalog that rows of this class live in, in
// PostgreSQL terms). It is translated to and from the human-facing
// ObjectClass enum by classreg.Registry; this package never assumes
// anything about its numeric value beyond ordering for dedup.
type ClassID int64

// ObjectAddress is the immutable identity triple described in
// spec §3. The zero value (ClassID 0, ObjectID 0, SubID 0) is the
// sentinel used to encode a PIN edge's dependent endpoint.
type ObjectAddress struct {
	ClassID  ClassID
	ObjectID int64
	SubID    uint32
}

// IsZero reports whether a is the all-zero triple, the PIN sentinel.
func (a ObjectAddress) IsZero() bool {
	return a.ClassID == 0 && a.ObjectID == 0 && a.SubID == 0
}

// IsWholeObject reports whether a addresses an entire object rather
// than a sub-component (SubID == 0, per invariant 4).
func (a ObjectAddress) IsWholeObject() bool {
	return a.SubID == 0
}

// Super returns the whole-object address that a is a sub-object of.
// For a whole-object address it returns a unchanged.
func (a ObjectAddress) Super() ObjectAddress {
	a.SubID = 0
	return a
}

func (a ObjectAddress) String() string {
	if a.SubID == 0 {
		return fmt.Sprintf("(class=%d,id=%d)", a.ClassID, a.ObjectID)
	}
	return fmt.Sprintf("(class=%d,id=%d,sub=%d)", a.ClassID, a.ObjectID, a.SubID)
}

// less implements the ordering required by invariant 5: sort by
// (classId, objectId, subId-as-unsigned), so that a whole-object
// address always sorts before any of its sub-objects.
func less(a, b ObjectAddress) bool {
	if a.ClassID != b.ClassID {
		return a.ClassID < b.ClassID
	}
	if a.ObjectID != b.ObjectID {
		return a.ObjectID < b.ObjectID
	}
	return a.SubID < b.SubID
}

// ClassTranslator resolves an ObjectClass tag to its storage-level
// ClassID. AddressSet depends on this narrow interface rather than on
// classreg directly, so the two packages can be tested and evolved
// independently.
type ClassTranslator interface {
	ClassID(ObjectClass) (ClassID, bool)
}

// Set is an expandable, order-preserving (until Dedup) sequence of
// ObjectAddress values, corresponding to spec §4.1's AddressSet.
type Set struct {
	items []ObjectAddress
}

const initialCapacity = 32

// New returns an empty address set.
func New() *Set {
	return &Set{items: make([]ObjectAddress, 0, initialCapacity)}
}

// Len returns the number of entries currently held, including
// duplicates if Dedup has not been called.
func (s *Set) Len() int {
	return len(s.items)
}

// Items returns the set's backing slice. Callers must not retain it
// across a subsequent AppendExact/Dedup call, which may reallocate.
func (s *Set) Items() []ObjectAddress {
	return s.items
}

// AppendExact appends a without translation or deduplication,
// growing the backing array geometrically on overflow.
func (s *Set) AppendExact(a ObjectAddress) {
	s.items = append(s.items, a)
}

// AppendByClass translates cls to a ClassID via t and appends
// (cls, id, sub). It reports an error if cls is not known to t.
func (s *Set) AppendByClass(t ClassTranslator, cls ObjectClass, id int64, sub uint32) error {
	classID, ok := t.ClassID(cls)
	if !ok {
		return fmt.Errorf("address: unrecognized object class %v", cls)
	}
	s.AppendExact(ObjectAddress{ClassID: classID, ObjectID: id, SubID: sub})
	return nil
}

// AppendSet appends every entry of other to s, preserving order.
func (s *Set) AppendSet(other *Set) {
	s.items = append(s.items, other.items...)
}

// Present implements spec §3's present? predicate:
//
//	present(q, S) := ∃ a ∈ S. a.classId = q.classId ∧ a.objectId = q.objectId ∧
//	                 (a.subId = q.subId ∨ a.subId = 0)
//
// A whole-object entry already in the set subsumes a query for any of
// its sub-objects; the converse is not true.
func (s *Set) Present(q ObjectAddress) bool {
	for _, a := range s.items {
		if a.ClassID == q.ClassID && a.ObjectID == q.ObjectID &&
			(a.SubID == q.SubID || a.SubID == 0) {
			return true
		}
	}
	return false
}

// Dedup sorts the set by (classId, objectId, subId-as-unsigned) and
// folds duplicate runs for the same (classId, objectId, subId) into a
// single entry, per spec §3's AddressSet duplicate-elimination rule.
// A (c,o,0) whole-object entry is additionally dropped whenever any
// (c,o,k>0) entry is also present, since the whole-object reference
// is subsumed by the more specific one; distinct positive SubIds for
// the same object are never merged with each other.
func (s *Set) Dedup() {
	if len(s.items) < 2 {
		return
	}
	sort.Slice(s.items, func(i, j int) bool { return less(s.items[i], s.items[j]) })

	out := s.items[:0:0]
	for _, cur := range s.items {
		if len(out) > 0 {
			last := out[len(out)-1]
			if last == cur {
				continue // exact duplicate
			}
			if last.ClassID == cur.ClassID && last.ObjectID == cur.ObjectID && last.SubID == 0 {
				// cur is the first sub-object of the same object as a
				// preceding whole-object entry: drop the whole-object
				// entry, it is subsumed.
				out = out[:len(out)-1]
			}
		}
		out = append(out, cur)
	}
	s.items = out
}

// Free discards the set's contents. It exists to mirror spec §4.1's
// free() entry point for callers that pool AddressSets; the slice is
// left for garbage collection rather than returned to a pool, since
// this package does not implement pooling itself.
func (s *Set) Free() {
	s.items = nil
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	c := &Set{items: make([]ObjectAddress, len(s.items))}
	copy(c.items, s.items)
	return c
}
