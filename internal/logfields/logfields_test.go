package logfields

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_NilProducesEmptyValue(t *testing.T) {
	attr := Error(nil)
	require.Equal(t, KeyError, attr.Key)
	require.Equal(t, "", attr.Value.String())
}

func TestError_WrapsMessage(t *testing.T) {
	attr := Error(errors.New("push rejected"))
	require.Equal(t, "push rejected", attr.Value.String())
}

func TestHelpers_UseCanonicalKeys(t *testing.T) {
	require.Equal(t, KeyRepo, Repository("x").Key)
	require.Equal(t, KeyAttemptID, AttemptID("a1").Key)
	require.Equal(t, KeyFiles, Files(3).Key)
	require.Equal(t, KeyAction, Action("pause").Key)
}
