package edge

import (
	"bytes"
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/address"
)

// fakeKVTxn is a minimal sorted-map KVTxn used only to exercise
// KVStore's key encoding and scan-bound logic; it does not attempt to
// model real row locking.
type fakeKVTxn struct {
	rows map[string][]byte
}

func newFakeKVTxn() *fakeKVTxn {
	return &fakeKVTxn{rows: make(map[string][]byte)}
}

func (f *fakeKVTxn) Put(_ context.Context, k, v []byte) error {
	f.rows[string(k)] = append([]byte{}, v...)
	return nil
}

func (f *fakeKVTxn) Del(_ context.Context, k []byte) error {
	delete(f.rows, string(k))
	return nil
}

func (f *fakeKVTxn) Publish(context.Context) error { return nil }

func (f *fakeKVTxn) Iterate(_ context.Context, lo, hi []byte, fn func(k, v []byte) (bool, error)) error {
	keys := make([]string, 0, len(f.rows))
	for k := range f.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kb := []byte(k)
		if bytes.Compare(kb, lo) < 0 || bytes.Compare(kb, hi) >= 0 {
			continue
		}
		more, err := fn(kb, f.rows[k])
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return nil
}

func TestKVStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	txn := newFakeKVTxn()
	s := NewKVStore(txn)

	dependent := address.ObjectAddress{ClassID: 1, ObjectID: 100}
	refs := []address.ObjectAddress{
		{ClassID: 2, ObjectID: 1},
		{ClassID: 2, ObjectID: 2},
	}
	require.NoError(t, s.InsertMany(ctx, dependent, refs, Normal))

	cur, err := s.ScanOutgoing(ctx, dependent)
	require.NoError(t, err)
	var got []Edge
	for cur.Next(ctx) {
		got = append(got, cur.Edge())
	}
	require.Len(t, got, 2)

	cur2, err := s.ScanIncoming(ctx, refs[0])
	require.NoError(t, err)
	require.True(t, cur2.Next(ctx))
	require.Equal(t, dependent, cur2.Edge().Dependent)
	require.False(t, cur2.Next(ctx))
}

func TestKVStoreDeleteCurrentRemovesBothIndexEntries(t *testing.T) {
	ctx := context.Background()
	txn := newFakeKVTxn()
	s := NewKVStore(txn)

	dependent := address.ObjectAddress{ClassID: 1, ObjectID: 100}
	ref := address.ObjectAddress{ClassID: 2, ObjectID: 1}
	require.NoError(t, s.InsertMany(ctx, dependent, []address.ObjectAddress{ref}, Auto))
	require.Len(t, txn.rows, 2)

	cur, err := s.ScanOutgoing(ctx, dependent)
	require.NoError(t, err)
	require.True(t, cur.Next(ctx))
	require.NoError(t, cur.DeleteCurrent(ctx))

	require.Empty(t, txn.rows)
}

func TestKVStoreWholeObjectScanCoversSubObjects(t *testing.T) {
	ctx := context.Background()
	txn := newFakeKVTxn()
	s := NewKVStore(txn)

	col1 := address.ObjectAddress{ClassID: 1, ObjectID: 100, SubID: 1}
	col2 := address.ObjectAddress{ClassID: 1, ObjectID: 100, SubID: 2}
	require.NoError(t, s.InsertMany(ctx, col1, []address.ObjectAddress{{ClassID: 2, ObjectID: 5}}, Auto))
	require.NoError(t, s.InsertMany(ctx, col2, []address.ObjectAddress{{ClassID: 2, ObjectID: 6}}, Auto))

	cur, err := s.ScanOutgoing(ctx, address.ObjectAddress{ClassID: 1, ObjectID: 100})
	require.NoError(t, err)
	var n int
	for cur.Next(ctx) {
		n++
	}
	require.Equal(t, 2, n)
}
