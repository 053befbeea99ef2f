// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package peer holds the transport-facing identity of overlay nodes
// and a registry that owns them exclusively.
package peer

import "github.com/luxfi/routing/xorname"

// Address is an opaque transport endpoint; this core never interprets
// it beyond passing it to the external transport.
type Address string

// Peer is a named overlay node reachable at Address. Peer is uniquely
// identified by Name; Address may change across reconnects without
// changing identity.
type Peer struct {
	Name    xorname.Name
	Address Address
}

// Equal compares peers by identity, ignoring Address.
func (p Peer) Equal(other Peer) bool {
	return p.Name == other.Name
}
