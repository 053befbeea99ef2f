// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/luxfi/routing/agreement"
	"github.com/luxfi/routing/config"
	"github.com/luxfi/routing/event"
	"github.com/luxfi/routing/log"
	"github.com/luxfi/routing/message"
	"github.com/luxfi/routing/peer"
	"github.com/luxfi/routing/transport"
	"github.com/luxfi/routing/xorname"
)

// ErrBootstrapFailed is returned when no seed produced a section to
// join within BootstrapTimeout.
var ErrBootstrapFailed = errors.New("node: bootstrap failed")

// ErrInvalidState is returned for operations not valid in the node's
// current lifecycle state.
var ErrInvalidState = errors.New("node: invalid state")

// eventBuffer sizes the embedder event stream. Sends never block;
// overflow drops the oldest pending event.
const eventBuffer = 1024

type stageKind uint8

const (
	stageBootstrapping stageKind = iota
	stageJoining
	stageApproved
)

func (s stageKind) String() string {
	switch s {
	case stageBootstrapping:
		return "bootstrapping"
	case stageJoining:
		return "joining"
	default:
		return "approved"
	}
}

type sendRequest struct {
	src     message.Source
	dst     message.Destination
	payload []byte
	reply   chan error
}

// Node is one overlay node: its identity, its lifecycle state, and the
// event loop that drives both.
type Node struct {
	params   config.NetworkParams
	logger   log.Logger
	trans    transport.Transport
	engine   agreement.Engine
	identity Identity
	timer    *timer

	events   chan event.Event
	sendReqs chan sendRequest
	seq      uint64

	stage stageKind
	boot  *bootstrapping
	join  *joining
	appr  *approved

	// pendingRelocation is carried across a relocation rebootstrap so
	// the JoinRequest can claim the earned age.
	pendingRelocation *message.RelocateDetails

	stopped error
}

// FirstNode starts the genesis node: it synthesizes a single-elder
// section over the empty prefix and enters Approved/Elder directly.
func FirstNode(trans transport.Transport, params config.NetworkParams, logger log.Logger, engine agreement.Engine) (*Node, <-chan event.Event, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}
	n, err := newNode(trans, params, logger, engine)
	if err != nil {
		return nil, nil, err
	}
	if err := n.enterGenesis(); err != nil {
		return nil, nil, err
	}
	return n, n.events, nil
}

// Bootstrap starts a node that discovers the network through the given
// seed addresses.
func Bootstrap(trans transport.Transport, params config.NetworkParams, logger log.Logger, engine agreement.Engine, seeds []peer.Address) (*Node, <-chan event.Event, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}
	if len(seeds) == 0 {
		return nil, nil, fmt.Errorf("%w: no seeds", ErrBootstrapFailed)
	}
	n, err := newNode(trans, params, logger, engine)
	if err != nil {
		return nil, nil, err
	}
	if err := n.enterBootstrapping(seeds); err != nil {
		return nil, nil, err
	}
	return n, n.events, nil
}

func newNode(trans transport.Transport, params config.NetworkParams, logger log.Logger, engine agreement.Engine) (*Node, error) {
	id, err := NewIdentity()
	if err != nil {
		return nil, err
	}
	if engine == nil {
		engine = agreement.NewInMemory()
	}
	return &Node{
		params:   params,
		logger:   logger.With("name", id.Name.String()[:8]),
		trans:    trans,
		engine:   engine,
		identity: id,
		timer:    newTimer(),
		events:   make(chan event.Event, eventBuffer),
		sendReqs: make(chan sendRequest, 16),
	}, nil
}

// Name returns the node's current overlay name.
func (n *Node) Name() xorname.Name { return n.identity.Name }

// IsElder reports whether the node currently sits on its section's
// committee.
func (n *Node) IsElder() bool {
	return n.stage == stageApproved && n.appr.isElder
}

// SendMessage asks the node to send payload from src to dst. Safe to
// call from outside the loop while Run is active.
func (n *Node) SendMessage(src message.Source, dst message.Destination, payload []byte) error {
	req := sendRequest{src: src, dst: dst, payload: payload, reply: make(chan error, 1)}
	n.sendReqs <- req
	return <-req.reply
}

// Run drives the node until ctx is cancelled or the node fails
// terminally. All state mutation happens on this goroutine.
func (n *Node) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case dg := <-n.trans.Recv():
			n.handleDatagram(ctx, dg)
		case f := <-n.timer.Fires():
			n.handleTimer(ctx, f)
		case <-n.engine.Ready():
			n.drainDecisions(ctx)
		case req := <-n.sendReqs:
			req.reply <- n.handleUserSend(ctx, req)
		}
		if n.stopped != nil {
			return n.stopped
		}
	}
}

// emit delivers an event without blocking; when the embedder has
// fallen eventBuffer behind, the oldest pending event is dropped.
func (n *Node) emit(ev event.Event) {
	for {
		select {
		case n.events <- ev:
			return
		default:
			select {
			case <-n.events:
				n.logger.Warn("event stream overflow, dropping oldest")
			default:
			}
		}
	}
}

func (n *Node) handleDatagram(ctx context.Context, dg transport.Datagram) {
	m, err := message.Decode(dg.Bytes)
	if err != nil {
		n.logger.Warn("dropping undecodable datagram", "from", string(dg.From), "err", err)
		return
	}
	if m.Dst.Kind == message.DstDirect {
		// One-hop control traffic is self-signed; no proof chain to
		// consult.
		if err := m.VerifySignature(); err != nil {
			n.logger.Warn("dropping direct message with bad signature", "err", err)
			return
		}
		n.handleDirect(ctx, m, dg.From)
		return
	}
	if n.stage != stageApproved {
		n.logger.Debug("dropping routed message before approval", "stage", n.stage.String())
		return
	}
	n.handleRouted(ctx, m)
}

func (n *Node) handleDirect(ctx context.Context, m *message.SignedMessage, from peer.Address) {
	switch n.stage {
	case stageBootstrapping:
		n.bootstrappingHandleDirect(ctx, m, from)
	case stageJoining:
		n.joiningHandleDirect(ctx, m, from)
	case stageApproved:
		n.approvedHandleDirect(ctx, m, from)
	}
}

func (n *Node) handleTimer(ctx context.Context, f timerFire) {
	switch n.stage {
	case stageBootstrapping:
		if f.token == n.boot.timerToken {
			n.logger.Error("bootstrap timed out")
			n.emit(event.Terminated{})
			n.stopped = ErrBootstrapFailed
		}
	case stageJoining:
		if f.token == n.join.timerToken {
			n.logger.Warn("join timed out, restarting bootstrap")
			seeds := n.join.fallbackSeeds
			if err := n.enterBootstrapping(seeds); err != nil {
				n.emit(event.Terminated{})
				n.stopped = err
			}
		}
	case stageApproved:
		n.approvedHandleTimer(ctx, f)
	}
}

func (n *Node) handleUserSend(ctx context.Context, req sendRequest) error {
	if n.stage != stageApproved {
		return fmt.Errorf("%w: cannot send while %s", ErrInvalidState, n.stage.String())
	}
	return n.approvedSendUser(ctx, req.src, req.dst, req.payload)
}

func (n *Node) drainDecisions(ctx context.Context) {
	if n.stage != stageApproved {
		return
	}
	for {
		d, ok := n.engine.PollDecision()
		if !ok {
			return
		}
		if err := n.applyDecision(ctx, d); err != nil {
			n.logger.Error("applying decision", "kind", d.Kind.String(), "err", err)
		}
		if n.stage != stageApproved {
			// A decision relocated us; the rest of the queue belongs
			// to our old section.
			return
		}
	}
}

func (n *Node) nextSeq() uint64 {
	n.seq++
	return n.seq
}
