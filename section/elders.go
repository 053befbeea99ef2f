// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package section models the overlay's view of sections: elder
// committees, the proof chain that authenticates section-key
// evolution, and the map of our own plus neighbouring sections that
// routing decisions are made against.
package section

import (
	"fmt"
	"sort"

	"github.com/luxfi/routing/peer"
	"github.com/luxfi/routing/xorname"
)

// EldersInfo is the committee identity of a section at a point in
// time. It is immutable; committee change means installing a new
// Proven[EldersInfo] and extending the proof chain.
type EldersInfo struct {
	Prefix xorname.Prefix
	Elders map[xorname.Name]peer.Peer
}

// NewEldersInfo builds an EldersInfo, checking that every elder name
// is compatible with the prefix.
func NewEldersInfo(prefix xorname.Prefix, elders []peer.Peer) (EldersInfo, error) {
	m := make(map[xorname.Name]peer.Peer, len(elders))
	for _, e := range elders {
		if !prefix.Matches(e.Name) {
			return EldersInfo{}, fmt.Errorf("section: elder %s outside prefix %s", e.Name, prefix)
		}
		m[e.Name] = e
	}
	return EldersInfo{Prefix: prefix, Elders: m}, nil
}

// Contains reports whether name is in the committee.
func (e EldersInfo) Contains(name xorname.Name) bool {
	_, ok := e.Elders[name]
	return ok
}

// Len returns the committee size.
func (e EldersInfo) Len() int { return len(e.Elders) }

// Names returns the elder names in ascending order. The ordering is
// what assigns each elder its signature-share index, so it must be
// deterministic across all nodes.
func (e EldersInfo) Names() []xorname.Name {
	names := make([]xorname.Name, 0, len(e.Elders))
	for name := range e.Elders {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return xorname.CmpDistance(xorname.Name{}, names[i], names[j]) < 0
	})
	return names
}

// Peers returns the elder peers ordered by name.
func (e EldersInfo) Peers() []peer.Peer {
	names := e.Names()
	peers := make([]peer.Peer, len(names))
	for i, name := range names {
		peers[i] = e.Elders[name]
	}
	return peers
}

// Position returns the share index of name within the committee
// ordering, or false if name is not an elder.
func (e EldersInfo) Position(name xorname.Name) (uint16, bool) {
	for i, n := range e.Names() {
		if n == name {
			return uint16(i), true
		}
	}
	return 0, false
}

func (e EldersInfo) String() string {
	return fmt.Sprintf("EldersInfo(%s, %d elders)", e.Prefix, len(e.Elders))
}
