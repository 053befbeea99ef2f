// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package xorname

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomName(r *rand.Rand) Name {
	var n Name
	for i := range n {
		n[i] = byte(r.Intn(256))
	}
	return n
}

func TestCmpDistanceAntisymmetric(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		target, a, b := randomName(r), randomName(r), randomName(r)
		require.Equal(t, CmpDistance(target, a, b), -CmpDistance(target, b, a))
	}
}

func TestCmpDistanceSelf(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 50; i++ {
		target, a := randomName(r), randomName(r)
		require.Equal(t, 0, CmpDistance(target, a, a))
	}
}

func TestCloserIsConsistentWithCmp(t *testing.T) {
	target := Name{0x00}
	a := Name{0x01}
	b := Name{0x02}
	require.True(t, Closer(target, a, b))
	require.False(t, Closer(target, b, a))
}

func TestCommonPrefixLen(t *testing.T) {
	var a, b Name
	a[0] = 0b1010_0000
	b[0] = 0b1010_1000
	require.Equal(t, uint(4), a.CommonPrefixLen(b))

	require.Equal(t, uint(Len*8), a.CommonPrefixLen(a))
}
