// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wrappers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZeroValueIsClean(t *testing.T) {
	var e Errs
	require.False(t, e.Errored())
	require.NoError(t, e.Err())
}

func TestNilsAreIgnored(t *testing.T) {
	var e Errs
	e.Add(nil, nil)
	require.False(t, e.Errored())
	require.NoError(t, e.Err())
}

func TestSingleErrorIsReturnedAsIs(t *testing.T) {
	sentinel := errors.New("boom")
	var e Errs
	e.Add(nil, sentinel)
	require.True(t, e.Errored())
	require.ErrorIs(t, e.Err(), sentinel)
}

func TestMultipleErrorsAreJoined(t *testing.T) {
	var e Errs
	e.Add(errors.New("first"), errors.New("second"))
	err := e.Err()
	require.Error(t, err)
	require.Contains(t, err.Error(), "first")
	require.Contains(t, err.Error(), "second")
}
