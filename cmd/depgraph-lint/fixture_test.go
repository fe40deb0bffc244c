package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/dropengine"
)

func TestLoadFixtureAndResolveByName(t *testing.T) {
	lf, err := loadFixture("testdata/table_view.yaml")
	require.NoError(t, err)

	tbl, err := lf.resolve("t")
	require.NoError(t, err)
	require.Equal(t, int64(100), tbl.ObjectID)

	_, err = lf.resolve("does-not-exist")
	require.Error(t, err)
}

func TestFixtureRestrictThenCascade(t *testing.T) {
	lf, err := loadFixture("testdata/table_view.yaml")
	require.NoError(t, err)
	tbl, err := lf.resolve("t")
	require.NoError(t, err)

	err = lf.engine.PerformDeletion(context.Background(), tbl, dropengine.Restrict)
	require.Error(t, err)

	lf, err = loadFixture("testdata/table_view.yaml")
	require.NoError(t, err)
	tbl, err = lf.resolve("t")
	require.NoError(t, err)
	require.NoError(t, lf.engine.PerformDeletion(context.Background(), tbl, dropengine.Cascade))
	require.Len(t, lf.dropped, 2)
}

func TestResolveAcceptsClassIDObjectIDPair(t *testing.T) {
	lf, err := loadFixture("testdata/table_view.yaml")
	require.NoError(t, err)
	a, err := lf.resolve("1:100")
	require.NoError(t, err)
	require.Equal(t, int64(100), a.ObjectID)
}
