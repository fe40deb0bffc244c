package address

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func a(c ClassID, o int64, s uint32) ObjectAddress {
	return ObjectAddress{ClassID: c, ObjectID: o, SubID: s}
}

func TestPresentSubsumption(t *testing.T) {
	set := New()
	set.AppendExact(a(1, 10, 0))

	require.True(t, set.Present(a(1, 10, 0)))
	require.True(t, set.Present(a(1, 10, 3)), "whole-object entry must subsume any sub-object query")
	require.False(t, set.Present(a(1, 11, 0)))

	set2 := New()
	set2.AppendExact(a(1, 10, 3))
	require.False(t, set2.Present(a(1, 10, 0)), "a sub-object entry does not subsume the whole object")
	require.True(t, set2.Present(a(1, 10, 3)))
}

func TestDedupFoldsWholeIntoPartial(t *testing.T) {
	set := New()
	set.AppendExact(a(1, 10, 0))
	set.AppendExact(a(1, 10, 2))
	set.AppendExact(a(1, 10, 0))
	set.Dedup()

	require.Equal(t, []ObjectAddress{a(1, 10, 2)}, set.Items())
}

func TestDedupKeepsDistinctSubObjects(t *testing.T) {
	set := New()
	set.AppendExact(a(1, 10, 2))
	set.AppendExact(a(1, 10, 1))
	set.AppendExact(a(1, 10, 2))
	set.Dedup()

	require.Equal(t, []ObjectAddress{a(1, 10, 1), a(1, 10, 2)}, set.Items())
}

func TestDedupCollapsesToSingleWholeObject(t *testing.T) {
	set := New()
	set.AppendExact(a(1, 10, 0))
	set.AppendExact(a(1, 10, 0))
	set.Dedup()

	require.Equal(t, []ObjectAddress{a(1, 10, 0)}, set.Items())
}

func TestDedupOrdersSubIdUnsigned(t *testing.T) {
	set := New()
	set.AppendExact(a(2, 1, 5))
	set.AppendExact(a(1, 1, 0))
	set.AppendExact(a(1, 1, 1))
	set.Dedup()

	require.Equal(t, []ObjectAddress{a(1, 1, 1), a(2, 1, 5)}, set.Items())
}

type fakeTranslator map[ObjectClass]ClassID

func (f fakeTranslator) ClassID(c ObjectClass) (ClassID, bool) {
	id, ok := f[c]
	return id, ok
}

func TestAppendByClass(t *testing.T) {
	tr := fakeTranslator{Class: 55}
	set := New()
	require.NoError(t, set.AppendByClass(tr, Class, 7, 0))
	require.Equal(t, []ObjectAddress{a(55, 7, 0)}, set.Items())

	require.Error(t, set.AppendByClass(tr, Proc, 7, 0))
}

func TestSuperAndIsWholeObject(t *testing.T) {
	whole := a(1, 10, 0)
	sub := a(1, 10, 4)

	require.True(t, whole.IsWholeObject())
	require.False(t, sub.IsWholeObject())
	require.Equal(t, whole, sub.Super())
}
