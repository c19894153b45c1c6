package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotNil(t *testing.T) {
	var ptr *int
	require.Panics(t, func() { NotNil(nil) })
	require.Panics(t, func() { NotNil(ptr) })
	require.NotPanics(t, func() { NotNil(1) })
	require.NotPanics(t, func() { NotNil(&struct{}{}) })
}

func TestNotEmptyStr(t *testing.T) {
	require.Panics(t, func() { NotEmptyStr("") })
	require.NotPanics(t, func() { NotEmptyStr("x") })
}

func TestPositive(t *testing.T) {
	require.Panics(t, func() { Positive(0, "retries") })
	require.NotPanics(t, func() { Positive(0.5, "delay") })
}
