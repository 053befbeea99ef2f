// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package event defines the notifications a node raises to its
// embedder through the event stream. Senders never block: the stream
// is a buffered channel of fixed capacity drained by the embedder, and
// when it is full the oldest pending event is dropped to make room.
package event

import (
	"github.com/luxfi/routing/message"
	"github.com/luxfi/routing/xorname"
)

// Event is a notification to the embedder.
type Event interface {
	isEvent()
}

// ConnectedKind distinguishes how a node came to be connected.
type ConnectedKind uint8

const (
	// ConnectedFirst is an ordinary first join.
	ConnectedFirst ConnectedKind = iota
	// ConnectedRelocate is a rejoin after relocation.
	ConnectedRelocate
)

// Connected fires when the node is approved into a section.
type Connected struct {
	Kind ConnectedKind
}

// PromotedToElder fires when a decided committee includes our name.
type PromotedToElder struct{}

// Demoted fires when a decided committee drops our name.
type Demoted struct{}

// MemberJoined fires on a decided online event in our section.
type MemberJoined struct {
	Name xorname.Name
	Age  uint8
}

// MemberLeft fires on a decided offline event in our section.
type MemberLeft struct {
	Name xorname.Name
}

// MessageReceived fires when a trusted message addressed to us is
// delivered.
type MessageReceived struct {
	Src     message.Source
	Dst     message.Destination
	Content []byte
}

// SectionSplit fires when our section splits; Prefix is our new
// prefix.
type SectionSplit struct {
	Prefix xorname.Prefix
}

// SectionMerged fires when our section merges into its parent.
type SectionMerged struct {
	Prefix xorname.Prefix
}

// RelocationStarted fires when consensus decides to relocate us.
type RelocationStarted struct {
	Target xorname.Prefix
}

// RestartRequired fires on an irrecoverable trust failure; the
// embedder should restart the node from fresh seeds.
type RestartRequired struct{}

// Terminated fires when startup fails permanently.
type Terminated struct{}

// Consensus fires when a caller-submitted payload reaches agreement.
type Consensus struct {
	Payload []byte
}

func (Connected) isEvent()         {}
func (PromotedToElder) isEvent()   {}
func (Demoted) isEvent()           {}
func (MemberJoined) isEvent()      {}
func (MemberLeft) isEvent()        {}
func (MessageReceived) isEvent()   {}
func (SectionSplit) isEvent()      {}
func (SectionMerged) isEvent()     {}
func (RelocationStarted) isEvent() {}
func (RestartRequired) isEvent()   {}
func (Terminated) isEvent()        {}
func (Consensus) isEvent()         {}
