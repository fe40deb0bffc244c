package describe

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/address"
)

type fakeDescriber map[address.ObjectAddress]ObjectInfo

func (f fakeDescriber) Lookup(a address.ObjectAddress, _ address.ObjectClass) (ObjectInfo, error) {
	return f[a], nil
}

func TestDescribeRelation(t *testing.T) {
	a := address.ObjectAddress{ClassID: 1, ObjectID: 10}
	d := fakeDescriber{a: {Name: "foo", Schema: "public", Visible: false}}

	s, err := Describe(d, a, address.Class)
	require.NoError(t, err)
	require.Equal(t, "relation public.foo", s.StripMarkers())
}

func TestDescribeVisibleRelationIsUnqualified(t *testing.T) {
	a := address.ObjectAddress{ClassID: 1, ObjectID: 10}
	d := fakeDescriber{a: {Name: "foo", Schema: "public", Visible: true}}

	s, err := Describe(d, a, address.Class)
	require.NoError(t, err)
	require.Equal(t, "relation foo", s.StripMarkers())
}

func TestDescribeColumn(t *testing.T) {
	a := address.ObjectAddress{ClassID: 1, ObjectID: 10, SubID: 3}
	d := fakeDescriber{a: {Name: "c", OwnerDesc: "table public.foo"}}

	s, err := Describe(d, a, address.Class)
	require.NoError(t, err)
	require.Equal(t, "column c of table public.foo", s.StripMarkers())
}

func TestDescribeOpClassWithAccessMethod(t *testing.T) {
	a := address.ObjectAddress{ClassID: 1, ObjectID: 10}
	d := fakeDescriber{a: {Name: "gist_int_ops", Extra: "gist"}}

	s, err := Describe(d, a, address.OpClass)
	require.NoError(t, err)
	require.Equal(t, "operator class gist_int_ops for access method gist", s.StripMarkers())
}

// TestDescribeRedactsUserSuppliedFields locks in that object names,
// schemas, owner descriptions and extras are redacted on the wire —
// only the fixed class/kind words survive Redact().
func TestDescribeRedactsUserSuppliedFields(t *testing.T) {
	a := address.ObjectAddress{ClassID: 1, ObjectID: 10, SubID: 3}
	d := fakeDescriber{a: {Name: "secret_column", OwnerDesc: "table public.secret_table"}}

	s, err := Describe(d, a, address.Class)
	require.NoError(t, err)

	redacted := string(s.Redact())
	require.NotContains(t, redacted, "secret_column")
	require.NotContains(t, redacted, "secret_table")
	require.Contains(t, redacted, "column")
}
