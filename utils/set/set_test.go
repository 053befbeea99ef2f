// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package set

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetBasics(t *testing.T) {
	s := Of(1, 2, 2, 3)
	require.Equal(t, 3, s.Len())
	require.True(t, s.Contains(2))

	s.Remove(2)
	require.False(t, s.Contains(2))

	var lazy Set[string]
	lazy.Add("a")
	require.True(t, lazy.Contains("a"))
}

func TestUnionAndEquals(t *testing.T) {
	a := Of(1, 2)
	b := Of(2, 3)
	a.Union(b)
	require.True(t, a.Equals(Of(1, 2, 3)))
	require.ElementsMatch(t, []int{1, 2, 3}, a.List())
}
