// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package section

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/routing/bls"
	"github.com/luxfi/routing/peer"
	"github.com/luxfi/routing/wire"
	"github.com/luxfi/routing/xorname"
)

func mkName(firstByte byte) xorname.Name {
	var n xorname.Name
	n[0] = firstByte
	return n
}

func mkPeer(firstByte byte) peer.Peer {
	return peer.Peer{Name: mkName(firstByte), Address: peer.Address("addr")}
}

// sign produces a Proven[EldersInfo] under a fresh key.
func sign(t *testing.T, info EldersInfo) (Proven[EldersInfo], *bls.SecretKey) {
	t.Helper()
	sk, err := bls.GenerateKey()
	require.NoError(t, err)
	data, err := wire.Marshal(info)
	require.NoError(t, err)
	return NewProven(info, sk.PublicKey(), sk.Sign(data)), sk
}

func TestNewEldersInfoRejectsOutsiders(t *testing.T) {
	ones := xorname.NewPrefix(mkName(0x80), 1)
	_, err := NewEldersInfo(ones, []peer.Peer{mkPeer(0x00)})
	require.Error(t, err)

	info, err := NewEldersInfo(ones, []peer.Peer{mkPeer(0x80), mkPeer(0xC0)})
	require.NoError(t, err)
	require.Equal(t, 2, info.Len())
}

func TestEldersInfoPositionIsDeterministic(t *testing.T) {
	all := xorname.Prefix{}
	info, err := NewEldersInfo(all, []peer.Peer{mkPeer(0x03), mkPeer(0x01), mkPeer(0x02)})
	require.NoError(t, err)

	names := info.Names()
	require.Equal(t, mkName(0x01), names[0])
	require.Equal(t, mkName(0x03), names[2])

	pos, ok := info.Position(mkName(0x02))
	require.True(t, ok)
	require.Equal(t, uint16(1), pos)

	_, ok = info.Position(mkName(0x55))
	require.False(t, ok)
}

func TestProvenVerify(t *testing.T) {
	all := xorname.Prefix{}
	info, err := NewEldersInfo(all, []peer.Peer{mkPeer(0x01)})
	require.NoError(t, err)

	proven, _ := sign(t, info)
	require.NoError(t, proven.Verify())

	// Tampering with the value breaks the proof.
	tampered := proven
	tampered.Value.Prefix = xorname.NewPrefix(mkName(0x00), 1)
	require.Error(t, tampered.Verify())
}

func TestChainExtendAndCheck(t *testing.T) {
	k0, err := bls.GenerateKey()
	require.NoError(t, err)
	k1, err := bls.GenerateKey()
	require.NoError(t, err)
	k2, err := bls.GenerateKey()
	require.NoError(t, err)

	chain := NewProofChain(k0.PublicKey())
	require.Equal(t, 1, chain.Len())

	// Extension must be signed by the current head.
	wrong, err := bls.GenerateKey()
	require.NoError(t, err)
	require.Error(t, chain.Extend(k1.PublicKey(), wrong.Sign(k1.PublicKey().Bytes())))

	require.NoError(t, chain.Extend(k1.PublicKey(), k0.Sign(k1.PublicKey().Bytes())))
	require.Equal(t, 2, chain.Len())
	require.True(t, chain.HasKey(k1.PublicKey().Bytes()))

	// A slice anchored at a key we hold is fully trusted.
	require.Equal(t, TrustFull, chain.Check(chain.Slice(0)))
	require.Equal(t, TrustFull, chain.Check(chain.Slice(1)))

	// A well-formed slice k1→k2 is trusted too (k1 is ours)...
	future := []Link{
		{Key: k1.PublicKey().Bytes()},
		{Key: k2.PublicKey().Bytes(), Signature: k1.Sign(k2.PublicKey().Bytes()).Bytes()},
	}
	require.Equal(t, TrustFull, chain.Check(future))

	// ...but a slice starting beyond our head is too new.
	tooNew := []Link{{Key: k2.PublicKey().Bytes()}}
	require.Equal(t, TrustProofTooNew, chain.Check(tooNew))

	// A slice with a broken link is invalid regardless of overlap.
	broken := []Link{
		{Key: k1.PublicKey().Bytes()},
		{Key: k2.PublicKey().Bytes(), Signature: wrong.Sign(k2.PublicKey().Bytes()).Bytes()},
	}
	require.Equal(t, TrustInvalid, chain.Check(broken))
	require.Equal(t, TrustInvalid, chain.Check(nil))
}

func TestChainNeverShrinksExceptByPrune(t *testing.T) {
	k0, err := bls.GenerateKey()
	require.NoError(t, err)
	k1, err := bls.GenerateKey()
	require.NoError(t, err)

	chain := NewProofChain(k0.PublicKey())
	require.NoError(t, chain.Extend(k1.PublicKey(), k0.Sign(k1.PublicKey().Bytes())))
	require.Equal(t, 2, chain.Len())

	chain.Prune(1)
	require.Equal(t, 1, chain.Len())
	require.False(t, chain.HasKey(k0.PublicKey().Bytes()))
	require.True(t, chain.HasKey(k1.PublicKey().Bytes()))

	// Pruning everything is refused.
	chain.Prune(5)
	require.Equal(t, 1, chain.Len())
}

func buildMap(t *testing.T) *Map {
	t.Helper()
	zeros := xorname.NewPrefix(mkName(0x00), 1)
	ours, err := NewEldersInfo(zeros, []peer.Peer{mkPeer(0x00), mkPeer(0x01)})
	require.NoError(t, err)
	provenOurs, _ := sign(t, ours)
	m := NewMap(provenOurs)

	onesPrefix := xorname.NewPrefix(mkName(0x80), 1)
	ones, err := NewEldersInfo(onesPrefix, []peer.Peer{mkPeer(0x80), mkPeer(0xC0)})
	require.NoError(t, err)
	provenOnes, _ := sign(t, ones)
	require.NoError(t, m.UpdateNeighbor(provenOnes))
	return m
}

func TestMapClosestAndSorted(t *testing.T) {
	m := buildMap(t)

	require.True(t, m.Closest(mkName(0x10)).Prefix.Equal(m.OurPrefix()))
	onesPrefix := xorname.NewPrefix(mkName(0x80), 1)
	require.True(t, m.Closest(mkName(0x90)).Prefix.Equal(onesPrefix))

	sorted := m.SortedByDistanceTo(mkName(0xF0))
	require.Len(t, sorted, 2)
	require.True(t, sorted[0].Prefix.Equal(onesPrefix))

	// Prefix coverage invariant: ours plus neighbours tile the space.
	require.ElementsMatch(t,
		[]uint{1, 1},
		[]uint{m.Prefixes()[0].Bits(), m.Prefixes()[1].Bits()})
}

func TestMapElderLookup(t *testing.T) {
	m := buildMap(t)

	require.True(t, m.IsElder(mkName(0x00)))
	require.False(t, m.IsElder(mkName(0x80)))

	p, ok := m.GetElder(mkName(0x80))
	require.True(t, ok)
	require.Equal(t, mkName(0x80), p.Name)

	_, ok = m.GetElder(mkName(0x55))
	require.False(t, ok)
}

func TestMapSplit(t *testing.T) {
	m := buildMap(t)
	ourName := mkName(0x00)

	left, err := NewEldersInfo(xorname.NewPrefix(mkName(0x00), 2), []peer.Peer{mkPeer(0x00)})
	require.NoError(t, err)
	right, err := NewEldersInfo(xorname.NewPrefix(mkName(0x40), 2), []peer.Peer{mkPeer(0x40)})
	require.NoError(t, err)
	provenLeft, _ := sign(t, left)
	provenRight, _ := sign(t, right)

	// Argument order must not matter; our half is picked by name.
	require.NoError(t, m.Split(provenRight, provenLeft, ourName))
	require.Equal(t, uint(2), m.OurPrefix().Bits())
	require.True(t, m.OurPrefix().Matches(ourName))

	// The sibling became a neighbour and the old `1` section stays
	// adjacent: together the three prefixes still tile the space.
	prefixes := m.Prefixes()
	require.Len(t, prefixes, 3)
}

func TestMapMerge(t *testing.T) {
	m := buildMap(t)

	parent, err := NewEldersInfo(xorname.Prefix{}, []peer.Peer{mkPeer(0x00), mkPeer(0x80)})
	require.NoError(t, err)
	provenParent, _ := sign(t, parent)

	require.NoError(t, m.Merge(provenParent))
	require.Equal(t, uint(0), m.OurPrefix().Bits())
	require.Empty(t, m.Neighbors())
}

func TestMapRejectsNonNeighbor(t *testing.T) {
	m := buildMap(t)

	// Our own prefix's child is not a neighbour entry.
	child, err := NewEldersInfo(xorname.NewPrefix(mkName(0x00), 2), []peer.Peer{mkPeer(0x00)})
	require.NoError(t, err)
	provenChild, _ := sign(t, child)
	require.Error(t, m.UpdateNeighbor(provenChild))
}

func TestKnowledgeIsMonotonic(t *testing.T) {
	m := buildMap(t)
	p := xorname.NewPrefix(mkName(0x80), 1)

	require.Equal(t, uint64(0), m.KnowledgeIndex(p))
	m.UpdateKnowledge(p, 3)
	require.Equal(t, uint64(3), m.KnowledgeIndex(p))
	m.UpdateKnowledge(p, 1)
	require.Equal(t, uint64(3), m.KnowledgeIndex(p))
}

func TestSharedStateRotatePrunesTombstones(t *testing.T) {
	all := xorname.Prefix{}
	info, err := NewEldersInfo(all, []peer.Peer{mkPeer(0x01)})
	require.NoError(t, err)
	proven, sk := sign(t, info)

	state := NewSharedState(proven, sk.PublicKey())
	require.NoError(t, state.Members.AddJoined(mkPeer(0x02)))
	_, err = state.Members.SetLeft(mkName(0x02))
	require.NoError(t, err)
	require.Equal(t, 1, state.Members.Len())

	next, err := bls.GenerateKey()
	require.NoError(t, err)
	require.NoError(t, state.RotateKey(next.PublicKey(), sk.Sign(next.PublicKey().Bytes())))
	require.Equal(t, uint64(1), state.LastKeyIndex)
	require.Equal(t, 0, state.Members.Len())
}
