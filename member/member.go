// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package member tracks the membership of a section: who has joined,
// who is being relocated away, and who has left. Every transition here
// is driven by a decided consensus event, never by local observation.
package member

import (
	"github.com/luxfi/routing/peer"
	"github.com/luxfi/routing/xorname"
)

// MinAge is the age every member starts at.
const MinAge uint8 = 4

// State is the lifecycle state of a section member. States are ordered
// Joined < Relocating < Left and transitions are monotonic; Left is
// terminal until the tombstone is pruned.
type State uint8

const (
	// Joined means the member is an active part of the section.
	Joined State = iota
	// Relocating means consensus has selected the member to move to
	// another section; it still counts as present until it leaves.
	Relocating
	// Left is a tombstone: the member went offline or completed its
	// relocation away. Kept until the next section-key rotation.
	Left
)

func (s State) String() string {
	switch s {
	case Joined:
		return "joined"
	case Relocating:
		return "relocating"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// Info is the per-member record.
type Info struct {
	Peer  peer.Peer
	Age   uint8
	State State

	// RelocateTarget is the destination prefix while State is
	// Relocating; zero otherwise.
	RelocateTarget xorname.Prefix
}

// DoubledAge returns the member's age after a successful relocation:
// doubled, capped at 255.
func (i Info) DoubledAge() uint8 {
	if i.Age > 127 {
		return 255
	}
	return i.Age * 2
}

// IsActive reports whether the member still counts toward the
// section's size (Joined or Relocating, not yet Left).
func (i Info) IsActive() bool {
	return i.State != Left
}
