package classreg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/address"
)

type testBackend struct {
	exists  map[int64]bool
	dropped []address.ObjectAddress
}

func (b *testBackend) Exists(_ context.Context, id int64) (bool, error) {
	return b.exists[id], nil
}

func (b *testBackend) Drop(_ context.Context, a address.ObjectAddress) error {
	b.dropped = append(b.dropped, a)
	return nil
}

func newTestRegistry(t *testing.T) (*Registry, map[address.ObjectClass]*testBackend) {
	t.Helper()
	ids := map[address.ObjectClass]address.ClassID{
		address.Class:       1,
		address.Proc:        2,
		address.Database:    3,
		address.Compression: 4,
	}
	backs := map[address.ObjectClass]*testBackend{
		address.Class: {exists: map[int64]bool{10: true}},
		address.Proc:  {exists: map[int64]bool{20: true}},
	}
	ifaceBacks := map[address.ObjectClass]ClassBackend{
		address.Class: backs[address.Class],
		address.Proc:  backs[address.Proc],
	}
	reg, err := New(ids, ifaceBacks)
	require.NoError(t, err)
	return reg, backs
}

func TestClassIDBijection(t *testing.T) {
	reg, _ := newTestRegistry(t)
	id, ok := reg.ClassID(address.Class)
	require.True(t, ok)
	require.Equal(t, address.ClassID(1), id)

	class, ok := reg.ClassOf(1)
	require.True(t, ok)
	require.Equal(t, address.Class, class)

	_, ok = reg.ClassID(address.Trigger)
	require.False(t, ok)
}

func TestDispatchInvokesBackend(t *testing.T) {
	reg, backs := newTestRegistry(t)
	a := address.ObjectAddress{ClassID: 1, ObjectID: 10}
	require.NoError(t, reg.Dispatch(context.Background(), a))
	require.Equal(t, []address.ObjectAddress{a}, backs[address.Class].dropped)
}

func TestDatabaseClassIsNeverDroppable(t *testing.T) {
	reg, _ := newTestRegistry(t)
	err := reg.Dispatch(context.Background(), address.ObjectAddress{ClassID: 3, ObjectID: 1})
	require.Error(t, err)
}

func TestCompressionDispatchFailsExplicitly(t *testing.T) {
	reg, _ := newTestRegistry(t)
	err := reg.Dispatch(context.Background(), address.ObjectAddress{ClassID: 4, ObjectID: 1})
	require.Error(t, err)
}

func TestExistsConsultsBackend(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ok, err := reg.Exists(context.Background(), address.Proc, 20)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = reg.Exists(context.Background(), address.Proc, 999)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDuplicateClassIDRejected(t *testing.T) {
	_, err := New(map[address.ObjectClass]address.ClassID{
		address.Class: 1,
		address.Proc:  1,
	}, nil)
	require.Error(t, err)
}
