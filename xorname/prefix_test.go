// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package xorname

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefixMatchesIffLeadingBitsEqual(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		n := randomName(r)
		bitLen := uint(r.Intn(int(MaxBits) + 1))
		p := NewPrefix(n, bitLen)
		require.True(t, p.Matches(n))

		other := randomName(r)
		want := other.CommonPrefixLen(n) >= bitLen
		require.Equal(t, want, p.Matches(other))
	}
}

func TestSiblingIsNeighbor(t *testing.T) {
	var n Name
	n[0] = 0b1010_0000
	p := NewPrefix(n, 4)
	sib := p.Sibling()
	require.True(t, IsNeighbor(p, sib))
	require.True(t, IsNeighbor(sib, p))
	require.False(t, p.IsPrefixOf(sib))
	require.False(t, sib.IsPrefixOf(p))
}

func TestIsNeighborRejectsAncestor(t *testing.T) {
	var n Name
	root := NewPrefix(n, 0)
	child := NewPrefix(n, 1)
	require.False(t, IsNeighbor(root, child))
	require.False(t, IsNeighbor(child, root))
}

func TestPushBitAndPopped(t *testing.T) {
	var n Name
	n[0] = 0b1100_0000
	p := NewPrefix(n, 2)
	child := p.PushBit(1)
	require.Equal(t, uint(3), child.Bits())
	require.True(t, p.IsPrefixOf(child))
	require.True(t, child.Popped().Equal(p))
}

func TestClosestPrefersLongerOnTie(t *testing.T) {
	var base Name
	base[0] = 0b1000_0000
	short := NewPrefix(base, 1)
	long := NewPrefix(base, 4)
	got := Closest(base, []Prefix{short, long})
	require.True(t, got.Equal(long))
}

func TestZeroPrefixMatchesEverything(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	root := NewPrefix(Name{}, 0)
	for i := 0; i < 20; i++ {
		require.True(t, root.Matches(randomName(r)))
	}
}
