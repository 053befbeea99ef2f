// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"context"

	"github.com/luxfi/routing/message"
	"github.com/luxfi/routing/peer"
	"github.com/luxfi/routing/utils/set"
)

// bootstrapping is the state in which the node is looking for any
// contactable peer that can tell it which section to join.
type bootstrapping struct {
	seeds      []peer.Address
	timerToken uint64

	// contacted remembers every seed already asked this round, so
	// rebootstrap responses that hand back the same addresses don't
	// make us ping-pong between them.
	contacted set.Set[peer.Address]
}

func (n *Node) enterBootstrapping(seeds []peer.Address) error {
	n.stage = stageBootstrapping
	n.boot = &bootstrapping{seeds: seeds, contacted: set.Set[peer.Address]{}}
	n.join = nil
	n.appr = nil
	n.boot.timerToken = n.timer.After(BootstrapTimeout)
	n.logger.Info("bootstrapping", "seeds", len(seeds))
	return n.sendBootstrapRequests(context.Background(), seeds)
}

func (n *Node) sendBootstrapRequests(ctx context.Context, seeds []peer.Address) error {
	m := &message.SignedMessage{
		Src: message.NodeSrc(n.identity.Name),
		Dst: message.DirectDst(),
		Seq: n.nextSeq(),
		Variant: message.Variant{
			Kind:             message.KindBootstrapRequest,
			BootstrapRequest: &message.BootstrapRequest{Name: n.identity.Name},
		},
	}
	if err := m.Sign(n.identity.Secret, nil); err != nil {
		return err
	}
	data, err := m.Encode()
	if err != nil {
		return err
	}
	sent := 0
	for _, addr := range seeds {
		if n.boot.contacted.Contains(addr) {
			continue
		}
		n.boot.contacted.Add(addr)
		if err := n.trans.SendTo(ctx, addr, data); err != nil {
			n.logger.Debug("seed unreachable", "addr", string(addr), "err", err)
			continue
		}
		sent++
	}
	if sent == 0 {
		n.logger.Warn("no new seed reachable, waiting for timeout")
	}
	return nil
}

func (n *Node) bootstrappingHandleDirect(ctx context.Context, m *message.SignedMessage, from peer.Address) {
	if m.Variant.Kind != message.KindBootstrapResponse {
		n.logger.Debug("ignoring direct message while bootstrapping",
			"kind", m.Variant.Kind.String())
		return
	}
	resp := m.Variant.BootstrapResponse

	switch {
	case resp.Join != nil:
		n.logger.Info("invited to join section", "prefix", resp.Join.Prefix.String())
		if err := n.enterJoining(ctx, *resp.Join, resp.SectionKey); err != nil {
			n.logger.Error("entering joining", "err", err)
		}
	case len(resp.Rebootstrap) > 0:
		n.logger.Info("rebootstrapping", "seeds", len(resp.Rebootstrap))
		n.boot.seeds = resp.Rebootstrap
		n.boot.timerToken = n.timer.After(BootstrapTimeout)
		if err := n.sendBootstrapRequests(ctx, resp.Rebootstrap); err != nil {
			n.logger.Error("resending bootstrap requests", "err", err)
		}
	default:
		n.logger.Debug("empty bootstrap response", "from", string(from))
	}
}
