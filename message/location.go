// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package message defines the routing message wire format: source and
// destination locations, the payload variants, and the signed envelope
// they travel in.
package message

import (
	"fmt"

	"github.com/luxfi/routing/xorname"
)

// DstKind tags a Destination.
type DstKind uint8

const (
	// DstNode addresses a single node by name.
	DstNode DstKind = iota
	// DstSection addresses the section responsible for a name.
	DstSection
	// DstDirect is a one-hop peer-to-peer control message; it is
	// never routed onward.
	DstDirect
)

// Destination is where a message is going.
type Destination struct {
	Kind DstKind
	Name xorname.Name
}

// NodeDst addresses the single node named t.
func NodeDst(t xorname.Name) Destination {
	return Destination{Kind: DstNode, Name: t}
}

// SectionDst addresses the section responsible for t.
func SectionDst(t xorname.Name) Destination {
	return Destination{Kind: DstSection, Name: t}
}

// DirectDst is a one-hop control destination.
func DirectDst() Destination {
	return Destination{Kind: DstDirect}
}

// Contains reports whether a node with the given name and section
// prefix is part of this destination.
func (d Destination) Contains(name xorname.Name, prefix xorname.Prefix) bool {
	switch d.Kind {
	case DstNode:
		return d.Name == name
	case DstSection:
		return prefix.Matches(d.Name)
	case DstDirect:
		return true
	default:
		return false
	}
}

// IsSection reports whether the destination is a whole section.
func (d Destination) IsSection() bool { return d.Kind == DstSection }

func (d Destination) String() string {
	switch d.Kind {
	case DstNode:
		return fmt.Sprintf("Node(%s)", d.Name)
	case DstSection:
		return fmt.Sprintf("Section(%s)", d.Name)
	case DstDirect:
		return "Direct"
	default:
		return "Unknown"
	}
}

// SrcKind tags a Source.
type SrcKind uint8

const (
	// SrcNode means a single node authored the message.
	SrcNode SrcKind = iota
	// SrcSection means a section collectively authored the message;
	// its signature is a section threshold signature.
	SrcSection
)

// Source is who a message is from.
type Source struct {
	Kind SrcKind
	Name xorname.Name
}

// NodeSrc is a single-node source.
func NodeSrc(n xorname.Name) Source { return Source{Kind: SrcNode, Name: n} }

// SectionSrc is a collective section source, identified by the prefix
// pattern name.
func SectionSrc(n xorname.Name) Source { return Source{Kind: SrcSection, Name: n} }

func (s Source) String() string {
	if s.Kind == SrcSection {
		return fmt.Sprintf("Section(%s)", s.Name)
	}
	return fmt.Sprintf("Node(%s)", s.Name)
}
