package errcode

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestNewfFormatsMessage(t *testing.T) {
	err := Newf(DependentObjectsStillExist, "cannot drop %s", "foo")
	require.EqualError(t, err, "cannot drop foo")
}

func TestWrapPreservesCauseIdentity(t *testing.T) {
	sentinel := errors.New("boom")
	wrapped := Wrap(sentinel, Unsupported)
	require.ErrorIs(t, wrapped, sentinel)
}

func TestPgCodeMapping(t *testing.T) {
	require.Equal(t, "2BP01", pgCode(DependentObjectsStillExist))
	require.Equal(t, "0A000", pgCode(Unsupported))
	require.Equal(t, "XX000", pgCode(Code("made-up")))
}
