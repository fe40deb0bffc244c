package edge

import (
	"context"
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/address"
)

// KVTxn is the narrow ordered-key-value transaction interface KVStore
// is built against. A real catalog backend (a Pebble engine, a SQL
// table accessed through a txn, a test double) implements this
// instead of the wider Store interface, and gets key encoding and the
// two-index layout from KVStore; row locking is done by the KVTxn's
// own Iterate.
type KVTxn interface {
	// Iterate calls fn with every (key, value) pair in [lo, hi),
	// locking each row it hands to fn for the remainder of the
	// transaction. Iteration stops early if fn returns false.
	Iterate(ctx context.Context, lo, hi []byte, fn func(k, v []byte) (more bool, err error)) error
	Put(ctx context.Context, k, v []byte) error
	Del(ctx context.Context, k []byte) error
	// Publish is forwarded verbatim from Store.Publish.
	Publish(ctx context.Context) error
}

// KVStore adapts a KVTxn into a Store by maintaining two secondary
// indices over the same logical edge: one keyed by
// (dependent, referenced) for ScanOutgoing, one keyed by
// (referenced, dependent) for ScanIncoming. Both halves of the key
// are always present, which keeps keys unique even though many edges
// commonly share one endpoint (a table with many dependent views, for
// instance).
type KVStore struct {
	txn KVTxn
}

// NewKVStore wraps txn as a Store.
func NewKVStore(txn KVTxn) *KVStore {
	return &KVStore{txn: txn}
}

const (
	outgoingPrefix byte = 'o'
	incomingPrefix byte = 'i'

	addrWidth = 8 + 8 + 4 // classid + objid + objsubid
	keyWidth  = 1 + addrWidth + addrWidth
)

// putAddr writes a's fixed-width big-endian encoding into buf,
// ordered (classid, objid, objsubid) so byte-lexicographic order
// matches address ordering — invariant 5's "subId sorts as unsigned"
// falls out of big-endian uint32 encoding for free.
func putAddr(buf []byte, a address.ObjectAddress) {
	binary.BigEndian.PutUint64(buf[0:8], uint64(a.ClassID))
	binary.BigEndian.PutUint64(buf[8:16], uint64(a.ObjectID))
	binary.BigEndian.PutUint32(buf[16:20], a.SubID)
}

func getAddr(buf []byte) address.ObjectAddress {
	return address.ObjectAddress{
		ClassID:  address.ClassID(binary.BigEndian.Uint64(buf[0:8])),
		ObjectID: int64(binary.BigEndian.Uint64(buf[8:16])),
		SubID:    binary.BigEndian.Uint32(buf[16:20]),
	}
}

// encodeKey lays out prefix || primary(20) || secondary(20).
func encodeKey(prefix byte, primary, secondary address.ObjectAddress) []byte {
	buf := make([]byte, keyWidth)
	buf[0] = prefix
	putAddr(buf[1:1+addrWidth], primary)
	putAddr(buf[1+addrWidth:], secondary)
	return buf
}

func decodeKey(buf []byte) (primary, secondary address.ObjectAddress) {
	primary = getAddr(buf[1 : 1+addrWidth])
	secondary = getAddr(buf[1+addrWidth:])
	return primary, secondary
}

// scanBounds returns the [lo, hi) range over a prefix's primary
// component that covers a (and, if a.SubID == 0, every sub-object of
// a, per the same subsumption rule as MemStore.scanRange).
func scanBounds(prefix byte, a address.ObjectAddress) (lo, hi []byte) {
	lo = make([]byte, 1+addrWidth)
	lo[0] = prefix
	putAddr(lo[1:], a)

	hiAddr := a
	if a.SubID == 0 {
		hiAddr.SubID = ^uint32(0)
	}
	// hi is exclusive. Every real key with primary == hiAddr is
	// exactly keyWidth bytes and has a secondary component no greater
	// than addrWidth bytes of 0xff; one byte longer than that, with
	// the same leading bytes, sorts strictly after all of them.
	hi = make([]byte, keyWidth+1)
	hi[0] = prefix
	putAddr(hi[1:1+addrWidth], hiAddr)
	for i := 1 + addrWidth; i < len(hi); i++ {
		hi[i] = 0xff
	}
	return lo, hi
}

func (s *KVStore) InsertMany(ctx context.Context, dependent address.ObjectAddress, refs []address.ObjectAddress, kind DependencyType) error {
	for _, ref := range refs {
		v := []byte{byte(kind)}
		if err := s.txn.Put(ctx, encodeKey(outgoingPrefix, dependent, ref), v); err != nil {
			return errors.Wrapf(err, "edge: writing outgoing index entry")
		}
		if err := s.txn.Put(ctx, encodeKey(incomingPrefix, ref, dependent), v); err != nil {
			return errors.Wrapf(err, "edge: writing incoming index entry")
		}
	}
	return nil
}

func (s *KVStore) Publish(ctx context.Context) error {
	return s.txn.Publish(ctx)
}

func (s *KVStore) ScanOutgoing(ctx context.Context, a address.ObjectAddress) (Cursor, error) {
	return s.scan(ctx, outgoingPrefix, a)
}

func (s *KVStore) ScanIncoming(ctx context.Context, a address.ObjectAddress) (Cursor, error) {
	return s.scan(ctx, incomingPrefix, a)
}

func (s *KVStore) scan(ctx context.Context, prefix byte, a address.ObjectAddress) (Cursor, error) {
	lo, hi := scanBounds(prefix, a)
	var rows []kvRow
	err := s.txn.Iterate(ctx, lo, hi, func(k, v []byte) (bool, error) {
		primary, secondary := decodeKey(k)
		kind := DependencyType(v[0])
		var e Edge
		if prefix == outgoingPrefix {
			e = Edge{Dependent: primary, Referenced: secondary, Type: kind}
		} else {
			e = Edge{Dependent: secondary, Referenced: primary, Type: kind}
		}
		rows = append(rows, kvRow{key: append([]byte{}, k...), edge: e})
		return true, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "edge: scanning %s index", prefixName(prefix))
	}
	return newKVCursor(s, prefix, rows), nil
}

type kvRow struct {
	key  []byte
	edge Edge
}

type kvCursor struct {
	store  *KVStore
	prefix byte
	rows   []kvRow
	idx    int
}

func newKVCursor(s *KVStore, prefix byte, rows []kvRow) *kvCursor {
	return &kvCursor{store: s, prefix: prefix, rows: rows, idx: -1}
}

func (c *kvCursor) Next(context.Context) bool {
	c.idx++
	return c.idx < len(c.rows)
}

func (c *kvCursor) Edge() Edge {
	return c.rows[c.idx].edge
}

func (c *kvCursor) DeleteCurrent(ctx context.Context) error {
	if c.idx < 0 || c.idx >= len(c.rows) {
		return nil
	}
	row := c.rows[c.idx]
	if err := c.store.txn.Del(ctx, row.key); err != nil {
		return errors.Wrapf(err, "edge: deleting %s index entry", prefixName(c.prefix))
	}
	mirrorPrefix, primary, secondary := mirrorOf(c.prefix, row.edge)
	return errors.Wrapf(
		c.store.txn.Del(ctx, encodeKey(mirrorPrefix, primary, secondary)),
		"edge: deleting mirrored %s index entry", prefixName(mirrorPrefix),
	)
}

// mirrorOf returns the prefix and key components of the sibling index
// entry for an edge deleted from the given prefix's index.
func mirrorOf(prefix byte, e Edge) (mirrorPrefix byte, primary, secondary address.ObjectAddress) {
	if prefix == outgoingPrefix {
		return incomingPrefix, e.Referenced, e.Dependent
	}
	return outgoingPrefix, e.Dependent, e.Referenced
}

func prefixName(p byte) string {
	if p == outgoingPrefix {
		return "outgoing"
	}
	return "incoming"
}

func (c *kvCursor) Err() error {
	return nil
}

func (c *kvCursor) Close() {}
