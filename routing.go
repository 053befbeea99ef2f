// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package routing is the embedder surface of a self-organizing
// peer-to-peer overlay node. Names live in a 256-bit XOR space
// partitioned among sections identified by binary prefixes; each
// section is governed by a committee of elders selected by age, and
// agrees on membership changes, splits and merges through an external
// agreement engine plus BLS threshold signatures accumulated across
// the committee.
//
// Embedders start a network with FirstNode, join one with Bootstrap,
// and talk to it through Node.SendMessage and the event stream both
// constructors return.
package routing

import (
	"github.com/luxfi/routing/agreement"
	"github.com/luxfi/routing/config"
	"github.com/luxfi/routing/event"
	"github.com/luxfi/routing/log"
	"github.com/luxfi/routing/message"
	"github.com/luxfi/routing/node"
	"github.com/luxfi/routing/peer"
	"github.com/luxfi/routing/transport"
	"github.com/luxfi/routing/xorname"
)

// Node is a running overlay node. Drive it with Node.Run and observe
// it through the event stream.
type Node = node.Node

// Event is a notification delivered on the event stream.
type Event = event.Event

// NetworkParams fixes the overlay's section-size policy.
type NetworkParams = config.NetworkParams

// FirstNode starts the genesis node of a fresh network: a single-elder
// section over the empty prefix, entered directly in the elder role.
func FirstNode(trans transport.Transport, params NetworkParams, logger log.Logger, engine agreement.Engine) (*Node, <-chan Event, error) {
	return node.FirstNode(trans, params, logger, engine)
}

// Bootstrap starts a node that joins an existing network through the
// given seed addresses.
func Bootstrap(trans transport.Transport, params NetworkParams, logger log.Logger, engine agreement.Engine, seeds []peer.Address) (*Node, <-chan Event, error) {
	return node.Bootstrap(trans, params, logger, engine, seeds)
}

// NodeDst addresses a message to the single node named t.
func NodeDst(t xorname.Name) message.Destination { return message.NodeDst(t) }

// SectionDst addresses a message to the section responsible for t.
func SectionDst(t xorname.Name) message.Destination { return message.SectionDst(t) }
