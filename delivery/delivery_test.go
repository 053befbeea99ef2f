// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package delivery

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/routing/bls"
	"github.com/luxfi/routing/member"
	"github.com/luxfi/routing/message"
	"github.com/luxfi/routing/peer"
	"github.com/luxfi/routing/section"
	"github.com/luxfi/routing/wire"
	"github.com/luxfi/routing/xorname"
)

func mkName(first, second byte) xorname.Name {
	var n xorname.Name
	n[0], n[1] = first, second
	return n
}

func mkPeers(firstByte byte, count int) []peer.Peer {
	peers := make([]peer.Peer, count)
	for i := range peers {
		peers[i] = peer.Peer{
			Name:    mkName(firstByte|byte(i), byte(i)),
			Address: peer.Address("addr"),
		}
	}
	return peers
}

func proven(t *testing.T, info section.EldersInfo) section.Proven[section.EldersInfo] {
	t.Helper()
	sk, err := bls.GenerateKey()
	require.NoError(t, err)
	data, err := wire.Marshal(info)
	require.NoError(t, err)
	return section.NewProven(info, sk.PublicKey(), sk.Sign(data))
}

func elders(t *testing.T, prefix xorname.Prefix, peers []peer.Peer) section.EldersInfo {
	t.Helper()
	info, err := section.NewEldersInfo(prefix, peers)
	require.NoError(t, err)
	return info
}

func TestGroupSizeIsCeilThird(t *testing.T) {
	cases := map[int]int{1: 1, 2: 1, 3: 1, 4: 2, 6: 2, 7: 3, 9: 3, 10: 4}
	for n, want := range cases {
		require.Equal(t, want, GroupSize(n), "n=%d", n)
	}
}

func TestSignatureTargetsPicksClosestThird(t *testing.T) {
	// Seven elders: the 3 closest to the destination, by XOR.
	ours := mkPeers(0x00, 7)
	dst := message.SectionDst(mkName(0x00, 0x03))

	targets := SignatureTargets(dst, ours)
	require.Len(t, targets, 3)
	for i := 1; i < len(targets); i++ {
		require.True(t, xorname.CmpDistance(dst.Name, targets[i-1].Name, targets[i].Name) < 0)
	}
	// Every non-target is no closer than the farthest target.
	last := targets[len(targets)-1].Name
	for _, p := range ours {
		picked := false
		for _, tp := range targets {
			if tp.Name == p.Name {
				picked = true
			}
		}
		if !picked {
			require.True(t, xorname.CmpDistance(dst.Name, last, p.Name) < 0)
		}
	}
}

func TestSignatureTargetsDirectIsEmpty(t *testing.T) {
	require.Empty(t, SignatureTargets(message.DirectDst(), mkPeers(0x00, 7)))
}

// buildState returns our section `0` with 7 elders (we are 0x00...)
// and neighbour `1` with 7 elders.
func buildState(t *testing.T) (*section.Map, *member.Table, xorname.Name) {
	t.Helper()
	zeros := xorname.NewPrefix(mkName(0x00, 0), 1)
	ourPeers := mkPeers(0x00, 7)
	m := section.NewMap(proven(t, elders(t, zeros, ourPeers)))

	onesPrefix := xorname.NewPrefix(mkName(0x80, 0), 1)
	require.NoError(t, m.UpdateNeighbor(proven(t, elders(t, onesPrefix, mkPeers(0x80, 7)))))
	return m, member.NewTable(), ourPeers[0].Name
}

func TestDirectDestinationCannotRoute(t *testing.T) {
	m, members, ourName := buildState(t)
	_, _, err := Targets(message.DirectDst(), ourName, members, m)
	require.ErrorIs(t, err, ErrCannotRoute)
}

func TestNodeDstSelfIsLocal(t *testing.T) {
	m, members, ourName := buildState(t)
	targets, n, err := Targets(message.NodeDst(ourName), ourName, members, m)
	require.NoError(t, err)
	require.Empty(t, targets)
	require.Zero(t, n)
}

func TestNodeDstKnownPeerIsUnicast(t *testing.T) {
	m, members, ourName := buildState(t)

	// A known member.
	mp := peer.Peer{Name: mkName(0x20, 0xAA), Address: peer.Address("m")}
	require.NoError(t, members.AddJoined(mp))
	targets, n, err := Targets(message.NodeDst(mp.Name), ourName, members, m)
	require.NoError(t, err)
	require.Equal(t, []peer.Peer{mp}, targets)
	require.Equal(t, 1, n)

	// A neighbour elder.
	targets, n, err = Targets(message.NodeDst(mkName(0x81, 1)), ourName, members, m)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, 1, n)
}

func TestSectionDstOwnSectionReturnsAllOtherElders(t *testing.T) {
	// Our prefix `0` contains the target: all 6 other own-section
	// elders, quorum 6.
	m, members, ourName := buildState(t)
	target := mkName(0x15, 0x01)

	targets, n, err := Targets(message.SectionDst(target), ourName, members, m)
	require.NoError(t, err)
	require.Len(t, targets, 6)
	require.Equal(t, 6, n)
	for _, p := range targets {
		require.NotEqual(t, ourName, p.Name)
	}
}

func TestSectionDstNeighborReturnsWholeCommittee(t *testing.T) {
	// Target under neighbour `1`: the neighbour is adjacent, so the
	// whole committee is returned.
	m, members, ourName := buildState(t)
	target := mkName(0xC5, 0x01)

	targets, n, err := Targets(message.SectionDst(target), ourName, members, m)
	require.NoError(t, err)
	require.Len(t, targets, 7)
	require.Equal(t, 7, n)
}

func TestCandidatesDistantSection(t *testing.T) {
	// Our prefix `00`, target has prefix `11`, known neighbour `1`
	// has 7 elders: ⌈7/3⌉ = 3 closest elders of `1`.
	zeros := xorname.NewPrefix(mkName(0x00, 0), 2)
	ourPeers := mkPeers(0x00, 7)
	m := section.NewMap(proven(t, elders(t, zeros, ourPeers)))

	onesPrefix := xorname.NewPrefix(mkName(0x80, 0), 1)
	onesPeers := mkPeers(0x80, 7)
	require.NoError(t, m.UpdateNeighbor(proven(t, elders(t, onesPrefix, onesPeers))))

	target := mkName(0xC1, 0x07) // prefix 11
	targets, n, err := Targets(message.SectionDst(target), ourPeers[0].Name, member.NewTable(), m)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.GreaterOrEqual(t, len(targets), 3)
	// The group is sorted by distance to the target, and the closest
	// candidates are elders of `1`.
	for i := 0; i < n; i++ {
		require.True(t, onesPrefix.Matches(targets[i].Name))
	}
}

func TestNonElderSendsThroughOwnElders(t *testing.T) {
	m, members, _ := buildState(t)
	outsider := mkName(0x22, 0x99)

	targets, n, err := Targets(message.SectionDst(mkName(0xC0, 0)), outsider, members, m)
	require.NoError(t, err)
	require.Len(t, targets, 7)
	require.Equal(t, 7, n)
}
