// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peer

import "github.com/luxfi/routing/xorname"

// Closer is the non-blocking "ask transport to drop this connection"
// capability the registry uses on Remove. It is satisfied by
// transport.Transport; kept as its own tiny interface here so peer
// does not need to import transport.
type Closer interface {
	Close(Peer)
}

// Registry is a Name -> Peer map. It owns Peer records exclusively: no
// other component should cache a Peer beyond the scope of a single
// call, since Address can change across reconnects.
type Registry struct {
	peers map[xorname.Name]Peer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{peers: make(map[xorname.Name]Peer)}
}

// Insert adds or replaces the entry for p.Name.
func (r *Registry) Insert(p Peer) {
	r.peers[p.Name] = p
}

// Remove deletes the entry for name, if present, and asks closer
// (non-blocking) to tear down any underlying connection. Any pending
// outbound traffic addressed to name is implicitly dropped by the
// caller no longer finding it in the registry.
func (r *Registry) Remove(name xorname.Name, closer Closer) {
	p, ok := r.peers[name]
	if !ok {
		return
	}
	delete(r.peers, name)
	if closer != nil {
		closer.Close(p)
	}
}

// Lookup returns the Peer for name, if known.
func (r *Registry) Lookup(name xorname.Name) (Peer, bool) {
	p, ok := r.peers[name]
	return p, ok
}

// Len returns the number of known peers.
func (r *Registry) Len() int {
	return len(r.peers)
}

// Iterate calls fn for every known peer, in unspecified order. fn must
// not mutate the registry.
func (r *Registry) Iterate(fn func(Peer)) {
	for _, p := range r.peers {
		fn(p)
	}
}
