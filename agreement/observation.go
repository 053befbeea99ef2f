// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package agreement is the consensus integration surface: the
// observation types nodes vote on, the decision types the external
// agreement engine yields after agreement, and the narrow Engine
// capability both sit behind. The engine itself (a BFT module like
// parsec) is an external collaborator; InMemory is the deterministic
// stand-in used by tests and single-process demos.
package agreement

import (
	"fmt"

	"github.com/luxfi/routing/bls"
	"github.com/luxfi/routing/message"
	"github.com/luxfi/routing/peer"
	"github.com/luxfi/routing/section"
	"github.com/luxfi/routing/xorname"
)

// ObservationKind tags an Observation.
type ObservationKind uint8

const (
	ObservationNone ObservationKind = iota
	// ObservationOnline proposes admitting a peer to the section.
	ObservationOnline
	// ObservationOffline proposes tombstoning a member.
	ObservationOffline
	// ObservationSectionInfo proposes a new elder committee.
	ObservationSectionInfo
	// ObservationTheirKeyInfo records another section's current key.
	ObservationTheirKeyInfo
	// ObservationSendAck acknowledges knowledge of our chain to a
	// neighbour section.
	ObservationSendAck
	// ObservationRelocate proposes moving a member elsewhere.
	ObservationRelocate
	// ObservationDkgResult publishes the outcome of a distributed key
	// generation among the next committee.
	ObservationDkgResult
)

func (k ObservationKind) String() string {
	switch k {
	case ObservationOnline:
		return "Online"
	case ObservationOffline:
		return "Offline"
	case ObservationSectionInfo:
		return "SectionInfo"
	case ObservationTheirKeyInfo:
		return "TheirKeyInfo"
	case ObservationSendAck:
		return "SendAck"
	case ObservationRelocate:
		return "Relocate"
	case ObservationDkgResult:
		return "DkgResult"
	default:
		return "None"
	}
}

// Online proposes admitting a peer. PreviousAge is non-zero when the
// peer arrives by relocation, in which case its age doubles on join.
type Online struct {
	Peer        peer.Peer
	PreviousAge uint8
}

// Offline proposes tombstoning the named member.
type Offline struct {
	Name xorname.Name
}

// SectionInfo proposes (and, once decided, carries) a new committee.
// Elders arrives fully signed: the engine's DKG plus elder votes
// produce the threshold signature binding it to the section key, and
// KeySig extends the proof chain when the section key changed.
type SectionInfo struct {
	Elders section.Proven[section.EldersInfo]

	// KeySig is the threshold signature over the new section key made
	// under the previous one; nil when the key is unchanged.
	KeySig []byte

	// Sibling is set for a split: the committee of the other half.
	Sibling *section.Proven[section.EldersInfo]
}

// TheirKeyInfo records a neighbour section's current key.
type TheirKeyInfo struct {
	Prefix xorname.Prefix
	Key    []byte
}

// SendAck asks the section to tell a neighbour how much of our proof
// chain it should now know.
type SendAck struct {
	Prefix   xorname.Prefix
	KeyIndex uint64
}

// DkgResult hands each next-committee elder its key material. The
// secret share is only meaningful on the node it was dealt to and
// never leaves the process.
type DkgResult struct {
	KeySet *bls.KeySet
	Share  *bls.SecretKeyShare
}

// Observation is the tagged union of everything a node can vote on.
type Observation struct {
	Kind ObservationKind

	Online       *Online
	Offline      *Offline
	SectionInfo  *SectionInfo
	TheirKeyInfo *TheirKeyInfo
	SendAck      *SendAck
	Relocate     *message.RelocateDetails
	DkgResult    *DkgResult
}

// Validate checks the populated field matches the kind.
func (o Observation) Validate() error {
	ok := false
	switch o.Kind {
	case ObservationOnline:
		ok = o.Online != nil
	case ObservationOffline:
		ok = o.Offline != nil
	case ObservationSectionInfo:
		ok = o.SectionInfo != nil
	case ObservationTheirKeyInfo:
		ok = o.TheirKeyInfo != nil
	case ObservationSendAck:
		ok = o.SendAck != nil
	case ObservationRelocate:
		ok = o.Relocate != nil
	case ObservationDkgResult:
		ok = o.DkgResult != nil
	}
	if !ok {
		return fmt.Errorf("agreement: observation body missing for kind %s", o.Kind)
	}
	return nil
}

// Decision is an observation the engine has reached agreement on.
// Decisions are applied strictly in the order the engine yields them.
type Decision struct {
	Observation
}
