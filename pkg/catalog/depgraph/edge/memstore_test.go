package edge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/address"
)

func addr(c address.ClassID, o int64, s uint32) address.ObjectAddress {
	return address.ObjectAddress{ClassID: c, ObjectID: o, SubID: s}
}

func drain(t *testing.T, cur Cursor) []Edge {
	t.Helper()
	defer cur.Close()
	var got []Edge
	for cur.Next(context.Background()) {
		got = append(got, cur.Edge())
	}
	require.NoError(t, cur.Err())
	return got
}

func TestInsertManyThenScanOutgoingRoundTrips(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	dependent := addr(1, 100, 0)
	refs := []address.ObjectAddress{addr(2, 1, 0), addr(2, 2, 0)}

	require.NoError(t, s.InsertMany(ctx, dependent, refs, Normal))

	cur, err := s.ScanOutgoing(ctx, dependent)
	require.NoError(t, err)
	got := drain(t, cur)
	require.Len(t, got, 2)
	var gotRefs []address.ObjectAddress
	for _, e := range got {
		require.Equal(t, dependent, e.Dependent)
		require.Equal(t, Normal, e.Type)
		gotRefs = append(gotRefs, e.Referenced)
	}
	require.ElementsMatch(t, refs, gotRefs)
}

// TestDistinctEdgesSharingAnEndpointBothSurvive locks in that two
// edges sharing their scanning endpoint (same dependent on the
// outgoing side, same referenced object on the incoming side) are
// both retained rather than one overwriting the other in the btree.
func TestDistinctEdgesSharingAnEndpointBothSurvive(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	dependent := addr(1, 600, 0)
	require.NoError(t, s.InsertMany(ctx, dependent, []address.ObjectAddress{addr(2, 700, 0)}, Internal))
	require.NoError(t, s.InsertMany(ctx, dependent, []address.ObjectAddress{addr(2, 701, 0)}, Internal))

	cur, err := s.ScanOutgoing(ctx, dependent)
	require.NoError(t, err)
	got := drain(t, cur)
	require.Len(t, got, 2)

	referenced := addr(3, 800, 0)
	require.NoError(t, s.InsertMany(ctx, addr(1, 1, 0), []address.ObjectAddress{referenced}, Normal))
	require.NoError(t, s.InsertMany(ctx, addr(1, 2, 0), []address.ObjectAddress{referenced}, Normal))

	cur2, err := s.ScanIncoming(ctx, referenced)
	require.NoError(t, err)
	require.Len(t, drain(t, cur2), 2)
}

func TestScanIncomingFindsDependents(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	referenced := addr(1, 100, 0)
	require.NoError(t, s.InsertMany(ctx, addr(2, 1, 0), []address.ObjectAddress{referenced}, Normal))
	require.NoError(t, s.InsertMany(ctx, addr(2, 2, 0), []address.ObjectAddress{referenced}, Auto))

	cur, err := s.ScanIncoming(ctx, referenced)
	require.NoError(t, err)
	got := drain(t, cur)
	require.Len(t, got, 2)
}

func TestScanOutgoingWholeObjectCoversSubObjects(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, s.InsertMany(ctx, addr(1, 100, 1), []address.ObjectAddress{addr(2, 5, 0)}, Auto))
	require.NoError(t, s.InsertMany(ctx, addr(1, 100, 2), []address.ObjectAddress{addr(2, 6, 0)}, Auto))

	cur, err := s.ScanOutgoing(ctx, addr(1, 100, 0))
	require.NoError(t, err)
	got := drain(t, cur)
	require.Len(t, got, 2)
}

func TestScanOutgoingSubObjectIsExact(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, s.InsertMany(ctx, addr(1, 100, 1), []address.ObjectAddress{addr(2, 5, 0)}, Auto))
	require.NoError(t, s.InsertMany(ctx, addr(1, 100, 2), []address.ObjectAddress{addr(2, 6, 0)}, Auto))

	cur, err := s.ScanOutgoing(ctx, addr(1, 100, 1))
	require.NoError(t, err)
	got := drain(t, cur)
	require.Len(t, got, 1)
	require.Equal(t, addr(2, 5, 0), got[0].Referenced)
}

func TestDeleteCurrentWhileIteratingThenRescanIsEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	dependent := addr(1, 100, 0)
	require.NoError(t, s.InsertMany(ctx, dependent, []address.ObjectAddress{addr(2, 1, 0)}, Normal))

	cur, err := s.ScanOutgoing(ctx, dependent)
	require.NoError(t, err)
	require.True(t, cur.Next(ctx))
	require.NoError(t, cur.DeleteCurrent(ctx))
	require.False(t, cur.Next(ctx))
	cur.Close()

	require.NoError(t, s.Publish(ctx))
	cur2, err := s.ScanOutgoing(ctx, dependent)
	require.NoError(t, err)
	require.Empty(t, drain(t, cur2))
}

func TestConcurrentScanOfSameRowFailsSecondCursor(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	dependent := addr(1, 100, 0)
	require.NoError(t, s.InsertMany(ctx, dependent, []address.ObjectAddress{addr(2, 1, 0)}, Normal))

	cur1, err := s.ScanOutgoing(ctx, dependent)
	require.NoError(t, err)
	require.True(t, cur1.Next(ctx))

	cur2, err := s.ScanOutgoing(ctx, dependent)
	require.NoError(t, err)
	require.False(t, cur2.Next(ctx))
	require.Error(t, cur2.Err())

	cur1.Close()
	cur2.Close()
}

func TestDependencyTypeValid(t *testing.T) {
	require.True(t, Normal.Valid())
	require.True(t, Auto.Valid())
	require.True(t, Internal.Valid())
	require.True(t, Pin.Valid())
	require.False(t, DependencyType('x').Valid())
}
