// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package router decides what to do with each incoming signed message:
// verify its trust and signature, deliver it locally, relay it onward,
// or hold it until the proof chain catches up. It is state-free per
// call; it closes over the shared section state and its dedup filters.
package router

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/luxfi/routing/delivery"
	"github.com/luxfi/routing/log"
	"github.com/luxfi/routing/member"
	"github.com/luxfi/routing/message"
	"github.com/luxfi/routing/peer"
	"github.com/luxfi/routing/section"
	"github.com/luxfi/routing/utils/bag"
	"github.com/luxfi/routing/xorname"
)

const (
	// BacklogCap bounds how many proof-too-new messages are buffered
	// awaiting a chain extension.
	BacklogCap = 100

	// filterCap bounds each dedup filter.
	filterCap = 4096
)

// ErrUntrusted is returned for messages whose proof chain slice does
// not link to anything we trust.
var ErrUntrusted = errors.New("router: untrusted message")

// ErrDuplicate is returned for messages already seen.
var ErrDuplicate = errors.New("router: duplicate message")

// ErrInvalidDestination is returned for messages that should never
// have been routed to us.
var ErrInvalidDestination = errors.New("router: invalid destination")

// ErrInvalidSource is returned when a section-sourced message's
// signing key is not the head of its own proof-chain slice.
var ErrInvalidSource = errors.New("router: invalid source")

type inKey struct {
	src    message.Source
	seq    uint64
	digest [32]byte
}

type outKey struct {
	recipient xorname.Name
	digest    [32]byte
}

// Disposition is the router's verdict on a message.
type Disposition struct {
	// DeliverLocal means the node's own handler should consume the
	// message.
	DeliverLocal bool

	// Relay lists peers the message should be forwarded to, already
	// filtered against the outgoing dedup filter; RelayCount is the
	// delivery group size.
	Relay      []peer.Peer
	RelayCount int

	// Buffered means the message is held until the proof chain
	// catches up; nothing else to do now.
	Buffered bool
}

// Router implements the verify → decide → dispatch pipeline.
type Router struct {
	logger log.Logger

	state   *section.SharedState
	members *member.Table

	inFilter  *filter[inKey]
	outFilter *filter[outKey]

	backlog []*message.SignedMessage

	// dupes counts dropped duplicates per source name, exposed to the
	// embedder as a filter-pressure signal.
	dupes *bag.Bag[xorname.Name]
}

// New builds a router over the shared state.
func New(logger log.Logger, state *section.SharedState) *Router {
	return &Router{
		logger:    logger,
		state:     state,
		members:   state.Members,
		inFilter:  newFilter[inKey](filterCap),
		outFilter: newFilter[outKey](filterCap),
		dupes:     bag.New[xorname.Name](),
	}
}

// HandleIncoming runs one message through the pipeline. ourName is the
// local node's name.
func (r *Router) HandleIncoming(m *message.SignedMessage, ourName xorname.Name) (Disposition, error) {
	if m.Dst.Kind == message.DstDirect {
		// Direct messages are one-hop control traffic handled before
		// the router; one showing up here was mis-routed.
		return Disposition{}, ErrInvalidDestination
	}

	digest, err := m.Digest()
	if err != nil {
		return Disposition{}, fmt.Errorf("router: %w", err)
	}
	if !r.inFilter.Insert(inKey{src: m.Src, seq: m.Seq, digest: digest}) {
		r.dupes.Add(m.Src.Name)
		return Disposition{}, ErrDuplicate
	}

	switch r.state.Chain.Check(m.ProofChain) {
	case section.TrustFull:
	case section.TrustProofTooNew:
		r.buffer(m)
		return Disposition{Buffered: true}, nil
	default:
		return Disposition{}, ErrUntrusted
	}

	if m.Src.Kind == message.SrcSection {
		head := m.ProofChain[len(m.ProofChain)-1].Key
		if !bytes.Equal(m.SrcKey, head) {
			return Disposition{}, ErrInvalidSource
		}
	}

	if err := m.VerifySignature(); err != nil {
		return Disposition{}, fmt.Errorf("router: %w", err)
	}

	return r.decide(m, digest, ourName)
}

func (r *Router) decide(m *message.SignedMessage, digest [32]byte, ourName xorname.Name) (Disposition, error) {
	ourPrefix := r.state.Sections.OurPrefix()

	var d Disposition
	if m.Dst.Contains(ourName, ourPrefix) {
		d.DeliverLocal = true
		// A section destination is for the whole committee: if we are
		// an elder, relay to the rest of the section too.
		if m.Dst.IsSection() && r.state.Sections.IsElder(ourName) {
			r.fillRelay(&d, m, digest, ourName)
		}
		return d, nil
	}

	r.fillRelay(&d, m, digest, ourName)
	return d, nil
}

func (r *Router) fillRelay(d *Disposition, m *message.SignedMessage, digest [32]byte, ourName xorname.Name) {
	targets, count, err := delivery.Targets(m.Dst, ourName, r.members, r.state.Sections)
	if err != nil {
		r.logger.Warn("no delivery group for destination",
			"dst", m.Dst.String(), "err", err)
		return
	}
	filtered := make([]peer.Peer, 0, len(targets))
	for _, p := range targets {
		if r.outFilter.Insert(outKey{recipient: p.Name, digest: digest}) {
			filtered = append(filtered, p)
		}
	}
	d.Relay = filtered
	if count > len(filtered) {
		count = len(filtered)
	}
	d.RelayCount = count
}

// FilterOutgoing applies the outgoing dedup filter to a locally
// originated message's targets.
func (r *Router) FilterOutgoing(m *message.SignedMessage, targets []peer.Peer) ([]peer.Peer, error) {
	digest, err := m.Digest()
	if err != nil {
		return nil, err
	}
	filtered := make([]peer.Peer, 0, len(targets))
	for _, p := range targets {
		if r.outFilter.Insert(outKey{recipient: p.Name, digest: digest}) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (r *Router) buffer(m *message.SignedMessage) {
	if len(r.backlog) >= BacklogCap {
		r.backlog = r.backlog[1:]
	}
	r.backlog = append(r.backlog, m)
	r.logger.Debug("buffered message with too-new proof",
		"backlog", len(r.backlog))
}

// TakeBacklog drains the proof-too-new buffer for re-evaluation. The
// node calls this in the same loop turn a trusted key arrives in.
func (r *Router) TakeBacklog() []*message.SignedMessage {
	out := r.backlog
	r.backlog = nil
	// Drained messages must pass the dedup filter again when they are
	// reprocessed, so forget their first arrival.
	for _, m := range out {
		if digest, err := m.Digest(); err == nil {
			r.forget(inKey{src: m.Src, seq: m.Seq, digest: digest})
		}
	}
	return out
}

func (r *Router) forget(k inKey) {
	delete(r.inFilter.seen, k)
	for i, o := range r.inFilter.order {
		if o == k {
			r.inFilter.order = append(r.inFilter.order[:i], r.inFilter.order[i+1:]...)
			break
		}
	}
}

// DuplicatesFrom returns how many duplicates have been dropped from a
// given source name.
func (r *Router) DuplicatesFrom(name xorname.Name) int {
	return r.dupes.Count(name)
}

// Evicted returns total dedup-filter evictions, a backpressure signal
// for the embedder.
func (r *Router) Evicted() int {
	return r.inFilter.Evicted() + r.outFilter.Evicted()
}
