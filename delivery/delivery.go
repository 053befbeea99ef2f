// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package delivery selects the peers a message is sent onward to and
// the number of them that must receive it, given its destination.
package delivery

import (
	"errors"
	"sort"

	"github.com/luxfi/routing/member"
	"github.com/luxfi/routing/message"
	"github.com/luxfi/routing/peer"
	"github.com/luxfi/routing/section"
	"github.com/luxfi/routing/xorname"
)

// ErrCannotRoute is returned when no delivery group can be formed for
// a destination.
var ErrCannotRoute = errors.New("delivery: cannot route")

// GroupSize returns the delivery group size for a section of size n:
// ⌈n/3⌉.
func GroupSize(n int) int {
	return (n + 2) / 3
}

// Targets returns the peers a message for dst should be sent onward
// to, sorted by priority, and how many of them it must reach. Spare
// targets beyond that count are fallbacks for failed sends.
func Targets(dst message.Destination, ourName xorname.Name, members *member.Table, sections *section.Map) ([]peer.Peer, int, error) {
	if !sections.IsElder(ourName) {
		// Not an elder: hand the message to all our elders so they
		// can relay it properly.
		targets := sections.OurInfo().Peers()
		return targets, len(targets), nil
	}

	switch dst.Kind {
	case message.DstNode:
		if dst.Name == ourName {
			return nil, 0, nil
		}
		if p, ok := getPeer(dst.Name, members, sections); ok {
			return []peer.Peer{p}, 1, nil
		}
		return candidates(dst.Name, ourName, sections)

	case message.DstSection:
		info := sections.Closest(dst.Name)
		if info.Prefix.Equal(sections.OurPrefix()) || sameLevelNeighbor(info.Prefix, sections.OurPrefix()) {
			// The whole target committee, minus ourself.
			targets := make([]peer.Peer, 0, info.Len())
			for _, p := range info.Peers() {
				if p.Name != ourName {
					targets = append(targets, p)
				}
			}
			return targets, len(targets), nil
		}
		return candidates(dst.Name, ourName, sections)

	default:
		return nil, 0, ErrCannotRoute
	}
}

// sameLevelNeighbor restricts the whole-committee shortcut to
// sections at our own split level; a coarser section (for example `1`
// seen from `00`) still goes through the candidate walk so only a
// delivery group of it is addressed.
func sameLevelNeighbor(p, q xorname.Prefix) bool {
	return p.Bits() == q.Bits() && xorname.IsNeighbor(p, q)
}

// candidates walks the known sections from closest to target outward,
// accumulating their elders until the group is deliverable. When the
// closest section is already big enough we stop there; when we reach
// our own section everyone else in it becomes a target.
func candidates(target, ourName xorname.Name, sections *section.Map) ([]peer.Peer, int, error) {
	var (
		groupSize int
		targets   []peer.Peer
	)
	for idx, info := range sections.SortedByDistanceTo(target) {
		targets = append(targets, info.Peers()...)
		groupSize = GroupSize(info.Len())

		if info.Prefix.Equal(sections.OurPrefix()) {
			// Send to everyone else so they can forward the message.
			filtered := targets[:0]
			for _, p := range targets {
				if p.Name != ourName {
					filtered = append(filtered, p)
				}
			}
			targets = filtered
			groupSize = len(targets)
			break
		}
		if idx == 0 && len(targets) >= groupSize {
			// Can deliver to enough of the closest section.
			break
		}
	}

	sort.Slice(targets, func(i, j int) bool {
		return xorname.CmpDistance(target, targets[i].Name, targets[j].Name) < 0
	})

	if groupSize > 0 && len(targets) >= groupSize {
		return targets, groupSize, nil
	}
	return nil, 0, ErrCannotRoute
}

func getPeer(name xorname.Name, members *member.Table, sections *section.Map) (peer.Peer, bool) {
	if info, ok := members.Get(name); ok && info.IsActive() {
		return info.Peer, true
	}
	return sections.GetElder(name)
}

// SignatureTargets returns the elders responsible for collecting
// signature shares over a message for dst: the ⌈n/3⌉ of our elders
// closest to the destination name. The list may include ourself.
func SignatureTargets(dst message.Destination, ourElders []peer.Peer) []peer.Peer {
	if dst.Kind == message.DstDirect {
		return nil
	}
	list := make([]peer.Peer, len(ourElders))
	copy(list, ourElders)
	sort.Slice(list, func(i, j int) bool {
		return xorname.CmpDistance(dst.Name, list[i].Name, list[j].Name) < 0
	})
	n := GroupSize(len(list))
	if len(list) > n {
		list = list[:n]
	}
	return list
}
