package edge

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"

	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/address"
)

// key is the ordered (classid, objid, objsubid) composite used to
// index both the outgoing and incoming btrees.
type key struct {
	class address.ClassID
	obj   int64
	sub   uint32
}

func keyOf(a address.ObjectAddress) key {
	return key{class: a.ClassID, obj: a.ObjectID, sub: a.SubID}
}

func (k key) less(o key) bool {
	if k.class != o.class {
		return k.class < o.class
	}
	if k.obj != o.obj {
		return k.obj < o.obj
	}
	return k.sub < o.sub
}

// record is the btree payload: the composite key it is stored under
// plus the full edge, since outgoing and incoming entries are keyed
// on different halves of the same Edge.
type record struct {
	k key
	e Edge
}

type byOutgoing record
type byIncoming record

// Less orders first by the scanning endpoint's key (so AscendRange's
// bounds, which only ever set that half, still work), then falls back
// to the other endpoint and the DependencyType as tiebreakers. Without
// that fallback, two distinct edges sharing a dependent (or a
// referenced object) would compare equal and ReplaceOrInsert would
// silently drop all but one of them — the same reason KVStore's key
// always carries both halves (kvstore.go).
func (r *byOutgoing) Less(than btree.Item) bool {
	o := than.(*byOutgoing)
	if r.k != o.k {
		return r.k.less(o.k)
	}
	rOther, oOther := keyOf(r.e.Referenced), keyOf(o.e.Referenced)
	if rOther != oOther {
		return rOther.less(oOther)
	}
	return r.e.Type < o.e.Type
}

func (r *byIncoming) Less(than btree.Item) bool {
	o := than.(*byIncoming)
	if r.k != o.k {
		return r.k.less(o.k)
	}
	rOther, oOther := keyOf(r.e.Dependent), keyOf(o.e.Dependent)
	if rOther != oOther {
		return rOther.less(oOther)
	}
	return r.e.Type < o.e.Type
}

// MemStore is an in-process EdgeStore backed by two google/btree
// indices (outgoing-by-dependent, incoming-by-referenced), giving
// ScanOutgoing/ScanIncoming an ordered range scan instead of a linear
// walk over every edge. It is the reference Store implementation used
// by this repository's tests and by cmd/depgraph-lint; a real catalog
// backend would instead implement Store (or KVStore's narrower
// KVTxn) against its own storage.
type MemStore struct {
	mu  sync.Mutex
	out *btree.BTree
	in  *btree.BTree
	// locked tracks rows currently held by an open Cursor, keyed by
	// the scanned endpoint's key (the dependent for ScanOutgoing, the
	// referenced object for ScanIncoming), honoring the row-exclusive
	// scan requirement of spec §5.
	locked map[key]bool
}

const btreeDegree = 32

// NewMemStore returns an empty in-memory edge store.
func NewMemStore() *MemStore {
	return &MemStore{
		out:    btree.New(btreeDegree),
		in:     btree.New(btreeDegree),
		locked: make(map[key]bool),
	}
}

// InsertMany implements Store.
func (m *MemStore) InsertMany(_ context.Context, dependent address.ObjectAddress, refs []address.ObjectAddress, kind DependencyType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ref := range refs {
		e := Edge{Dependent: dependent, Referenced: ref, Type: kind}
		m.out.ReplaceOrInsert(&byOutgoing{k: keyOf(dependent), e: e})
		m.in.ReplaceOrInsert(&byIncoming{k: keyOf(ref), e: e})
	}
	return nil
}

// Publish implements Store. Every write above is immediately visible
// to subsequent scans under mu, so there is nothing to flush; this
// method exists to satisfy the interface and to give tests a
// deterministic point to simulate a slower backend by embedding
// MemStore and overriding Publish.
func (m *MemStore) Publish(_ context.Context) error {
	return nil
}

// whole-object wildcard range: [k, k with sub=maxUint32] when the
// query address has SubID == 0 (per spec's "any sub-object of a").
// Otherwise the range covers only the single exact key.
func scanRange(a address.ObjectAddress) (lo, hi key) {
	k := keyOf(a)
	lo = k
	if a.SubID == 0 {
		hi = key{class: k.class, obj: k.obj, sub: ^uint32(0)}
	} else {
		hi = k
	}
	return lo, hi
}

func (m *MemStore) ScanOutgoing(ctx context.Context, a address.ObjectAddress) (Cursor, error) {
	return m.scan(ctx, a, m.out, true)
}

func (m *MemStore) ScanIncoming(ctx context.Context, a address.ObjectAddress) (Cursor, error) {
	return m.scan(ctx, a, m.in, false)
}

func (m *MemStore) scan(_ context.Context, a address.ObjectAddress, t *btree.BTree, outgoing bool) (Cursor, error) {
	m.mu.Lock()
	lo, hi := scanRange(a)
	// exclusiveUpper is the smallest key strictly greater than every key
	// in [lo, hi]; hi.sub is ^uint32(0) for the whole-object wildcard
	// case, so incrementing it would wrap to 0 and invert the range.
	var exclusiveUpper key
	if hi.sub == ^uint32(0) {
		exclusiveUpper = key{class: hi.class, obj: hi.obj + 1, sub: 0}
	} else {
		exclusiveUpper = key{class: hi.class, obj: hi.obj, sub: hi.sub + 1}
	}
	var loItem, hiItem btree.Item
	if outgoing {
		loItem = &byOutgoing{k: lo}
		hiItem = &byOutgoing{k: exclusiveUpper}
	} else {
		loItem = &byIncoming{k: lo}
		hiItem = &byIncoming{k: exclusiveUpper}
	}
	var rows []record
	t.AscendRange(loItem, hiItem, func(item btree.Item) bool {
		switch v := item.(type) {
		case *byOutgoing:
			rows = append(rows, record(*v))
		case *byIncoming:
			rows = append(rows, record(*v))
		}
		return true
	})
	m.mu.Unlock()
	return newMemCursor(m, rows, outgoing), nil
}

// memCursor materializes a scan's result before returning, which is
// what makes DeleteCurrent-while-iterating safe per spec §9 option
// (a); it takes the row lock for each yielded edge on the way in and
// releases every lock it is still holding on Close.
type memCursor struct {
	store    *MemStore
	rows     []record
	outgoing bool
	idx      int
	held     int // rows[0:held] are locked by this cursor
	err      error
}

func newMemCursor(m *MemStore, rows []record, outgoing bool) *memCursor {
	return &memCursor{store: m, rows: rows, outgoing: outgoing, idx: -1}
}

func (c *memCursor) Next(context.Context) bool {
	if c.err != nil {
		return false
	}
	c.idx++
	if c.idx >= len(c.rows) {
		return false
	}
	k := c.rows[c.idx].k
	// Rows sharing a scan key may already be held by this cursor; only
	// a lock taken by another cursor is a conflict.
	mine := false
	for i := 0; i < c.held; i++ {
		if c.rows[i].k == k {
			mine = true
			break
		}
	}
	c.store.mu.Lock()
	if c.store.locked[k] && !mine {
		c.store.mu.Unlock()
		c.err = errors.Newf("edge: row %+v is already locked by another cursor", k)
		return false
	}
	c.store.locked[k] = true
	c.store.mu.Unlock()
	c.held = c.idx + 1
	return true
}

func (c *memCursor) Edge() Edge {
	return c.rows[c.idx].e
}

func (c *memCursor) DeleteCurrent(_ context.Context) error {
	if c.idx < 0 || c.idx >= len(c.rows) {
		return nil
	}
	r := c.rows[c.idx]
	c.store.mu.Lock()
	c.store.out.Delete(&byOutgoing{k: keyOf(r.e.Dependent), e: r.e})
	c.store.in.Delete(&byIncoming{k: keyOf(r.e.Referenced), e: r.e})
	delete(c.store.locked, r.k)
	c.store.mu.Unlock()
	return nil
}

func (c *memCursor) Err() error {
	return c.err
}

func (c *memCursor) Close() {
	c.store.mu.Lock()
	for i := 0; i < c.held; i++ {
		delete(c.store.locked, c.rows[i].k)
	}
	c.store.mu.Unlock()
}
