// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transport defines the narrow capability the routing core
// needs from the underlying reliable-datagram transport. The concrete
// QUIC implementation lives outside this module; Loopback provides an
// in-process network for tests and demos.
package transport

import (
	"context"

	"github.com/luxfi/routing/peer"
)

// Datagram is one inbound message plus where it came from.
type Datagram struct {
	From  peer.Address
	Bytes []byte
}

// Transport is the send/receive capability handed to the node. Handles
// are value-copyable and shareable across state transitions, so
// in-flight connections survive role changes.
type Transport interface {
	// LocalAddress returns the address peers can reach us at.
	LocalAddress() peer.Address

	// Send delivers data to the given peer. Per-peer ordering is
	// preserved; cross-peer ordering is not.
	Send(ctx context.Context, to peer.Peer, data []byte) error

	// SendTo is Send for peers known only by address, used during
	// bootstrap before names are known.
	SendTo(ctx context.Context, to peer.Address, data []byte) error

	// Close asks the transport, non-blocking, to drop the connection
	// to a peer.
	Close(to peer.Peer)

	// Recv is the inbound suspension point.
	Recv() <-chan Datagram
}
