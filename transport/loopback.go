// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/luxfi/routing/peer"
)

// endpointBuffer bounds each endpoint's inbound queue. A full queue
// fails the send, which callers treat like any single-peer transport
// error.
const endpointBuffer = 1024

// Network is an in-process transport fabric: every endpoint joined to
// it can reach every other by address.
type Network struct {
	mu        sync.Mutex
	endpoints map[peer.Address]*Loopback
}

// NewNetwork creates an empty fabric.
func NewNetwork() *Network {
	return &Network{endpoints: make(map[peer.Address]*Loopback)}
}

// Join adds an endpoint with the given address and returns its
// transport handle.
func (n *Network) Join(addr peer.Address) *Loopback {
	n.mu.Lock()
	defer n.mu.Unlock()
	lb := &Loopback{net: n, addr: addr, inbox: make(chan Datagram, endpointBuffer)}
	n.endpoints[addr] = lb
	return lb
}

// Disconnect removes an endpoint, simulating permanent loss.
func (n *Network) Disconnect(addr peer.Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.endpoints, addr)
}

func (n *Network) deliver(from, to peer.Address, data []byte) error {
	n.mu.Lock()
	target, ok := n.endpoints[to]
	n.mu.Unlock()
	if !ok {
		return fmt.Errorf("transport: no endpoint at %s", to)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	select {
	case target.inbox <- Datagram{From: from, Bytes: buf}:
		return nil
	default:
		return fmt.Errorf("transport: endpoint %s inbound queue full", to)
	}
}

// Loopback is one endpoint of a Network.
type Loopback struct {
	net   *Network
	addr  peer.Address
	inbox chan Datagram
}

var _ Transport = (*Loopback)(nil)

// LocalAddress returns the endpoint's address.
func (l *Loopback) LocalAddress() peer.Address { return l.addr }

// Send delivers data to the peer's address.
func (l *Loopback) Send(ctx context.Context, to peer.Peer, data []byte) error {
	return l.SendTo(ctx, to.Address, data)
}

// SendTo delivers data to a raw address.
func (l *Loopback) SendTo(ctx context.Context, to peer.Address, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.net.deliver(l.addr, to, data)
}

// Close is a no-op for the loopback fabric; there is no connection
// state to tear down.
func (l *Loopback) Close(peer.Peer) {}

// Recv returns the inbound queue.
func (l *Loopback) Recv() <-chan Datagram { return l.inbox }
