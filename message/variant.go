// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package message

import (
	"fmt"

	"github.com/luxfi/routing/peer"
	"github.com/luxfi/routing/section"
	"github.com/luxfi/routing/xorname"
)

// Kind tags a Variant.
type Kind uint8

const (
	KindNone Kind = iota
	KindBootstrapRequest
	KindBootstrapResponse
	KindJoinRequest
	KindNodeApproval
	KindGenesisUpdate
	KindRelocate
	KindMemberKnowledge
	KindParsecRequest
	KindParsecResponse
	KindMessageSignature
	KindUserMessage
)

func (k Kind) String() string {
	switch k {
	case KindBootstrapRequest:
		return "BootstrapRequest"
	case KindBootstrapResponse:
		return "BootstrapResponse"
	case KindJoinRequest:
		return "JoinRequest"
	case KindNodeApproval:
		return "NodeApproval"
	case KindGenesisUpdate:
		return "GenesisUpdate"
	case KindRelocate:
		return "Relocate"
	case KindMemberKnowledge:
		return "MemberKnowledge"
	case KindParsecRequest:
		return "ParsecRequest"
	case KindParsecResponse:
		return "ParsecResponse"
	case KindMessageSignature:
		return "MessageSignature"
	case KindUserMessage:
		return "UserMessage"
	default:
		return "None"
	}
}

// BootstrapRequest asks a seed which section the sender's name belongs
// to.
type BootstrapRequest struct {
	Name xorname.Name
}

// BootstrapResponse either invites the sender to join a section or
// redirects it to better seeds.
type BootstrapResponse struct {
	// Join, when set, names the target section to request admission
	// into; SectionKey is that section's current key.
	Join       *section.EldersInfo
	SectionKey []byte

	// Rebootstrap, when non-empty, lists addresses to retry with.
	Rebootstrap []peer.Address
}

// JoinRequest asks the target section's elders for admission under
// their current key.
type JoinRequest struct {
	SectionKey []byte

	// Relocation is set when the join is the tail end of a decided
	// relocation; it carries the age the member earned.
	Relocation *RelocateDetails
}

// NodeApproval admits a node: the target section's signed committee.
type NodeApproval struct {
	Elders section.Proven[section.EldersInfo]
}

// GenesisUpdate pushes proof-chain history to a node that is behind.
type GenesisUpdate struct {
	Chain []section.Link
}

// RelocateDetails identifies the member being relocated, the prefix it
// must rejoin under, and the age it carries.
type RelocateDetails struct {
	Name   xorname.Name
	Age    uint8
	Target xorname.Prefix
}

// Relocate instructs a member to move to another section.
type Relocate struct {
	Details RelocateDetails
}

// MemberKnowledge tells our elders which section key and consensus
// version a member has caught up to.
type MemberKnowledge struct {
	SectionKey    []byte
	ParsecVersion uint64
}

// ParsecRequest and ParsecResponse carry opaque agreement-engine
// gossip between elders.
type ParsecRequest struct {
	Version uint64
	Payload []byte
}

// ParsecResponse is the reply half of agreement-engine gossip.
type ParsecResponse struct {
	Version uint64
	Payload []byte
}

// MessageSignature carries one elder's signature share over a message
// awaiting accumulation, together with the encoded message itself so
// whichever elder crosses the threshold can send it onward.
type MessageSignature struct {
	Index   uint16
	Share   []byte
	Content []byte
}

// Variant is the tagged payload union. Exactly the field matching Kind
// is set.
type Variant struct {
	Kind Kind

	BootstrapRequest  *BootstrapRequest  `cbor:",omitempty"`
	BootstrapResponse *BootstrapResponse `cbor:",omitempty"`
	JoinRequest       *JoinRequest       `cbor:",omitempty"`
	NodeApproval      *NodeApproval      `cbor:",omitempty"`
	GenesisUpdate     *GenesisUpdate     `cbor:",omitempty"`
	Relocate          *Relocate          `cbor:",omitempty"`
	MemberKnowledge   *MemberKnowledge   `cbor:",omitempty"`
	ParsecRequest     *ParsecRequest     `cbor:",omitempty"`
	ParsecResponse    *ParsecResponse    `cbor:",omitempty"`
	MessageSignature  *MessageSignature  `cbor:",omitempty"`
	UserMessage       []byte             `cbor:",omitempty"`
}

// Validate checks that the populated field matches the kind tag.
func (v Variant) Validate() error {
	ok := false
	switch v.Kind {
	case KindBootstrapRequest:
		ok = v.BootstrapRequest != nil
	case KindBootstrapResponse:
		ok = v.BootstrapResponse != nil
	case KindJoinRequest:
		ok = v.JoinRequest != nil
	case KindNodeApproval:
		ok = v.NodeApproval != nil
	case KindGenesisUpdate:
		ok = v.GenesisUpdate != nil
	case KindRelocate:
		ok = v.Relocate != nil
	case KindMemberKnowledge:
		ok = v.MemberKnowledge != nil
	case KindParsecRequest:
		ok = v.ParsecRequest != nil
	case KindParsecResponse:
		ok = v.ParsecResponse != nil
	case KindMessageSignature:
		ok = v.MessageSignature != nil
	case KindUserMessage:
		ok = v.UserMessage != nil
	}
	if !ok {
		return fmt.Errorf("message: variant body missing for kind %s", v.Kind)
	}
	return nil
}
