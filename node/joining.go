// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"bytes"
	"context"

	"github.com/luxfi/routing/event"
	"github.com/luxfi/routing/message"
	"github.com/luxfi/routing/peer"
	"github.com/luxfi/routing/section"
)

// joining is the state in which the node has a target section and is
// asking its elders for admission.
type joining struct {
	target     section.EldersInfo
	sectionKey []byte
	timerToken uint64

	// fallbackSeeds lets a timed-out join restart bootstrapping with
	// the elders it already knows about.
	fallbackSeeds []peer.Address
}

func (n *Node) enterJoining(ctx context.Context, target section.EldersInfo, sectionKey []byte) error {
	seeds := make([]peer.Address, 0, target.Len())
	for _, p := range target.Peers() {
		seeds = append(seeds, p.Address)
	}
	n.stage = stageJoining
	n.boot = nil
	n.join = &joining{target: target, sectionKey: sectionKey, fallbackSeeds: seeds}
	n.join.timerToken = n.timer.After(JoinTimeout)

	m := &message.SignedMessage{
		Src: message.NodeSrc(n.identity.Name),
		Dst: message.DirectDst(),
		Seq: n.nextSeq(),
		Variant: message.Variant{
			Kind: message.KindJoinRequest,
			JoinRequest: &message.JoinRequest{
				SectionKey: sectionKey,
				Relocation: n.pendingRelocation,
			},
		},
	}
	if err := m.Sign(n.identity.Secret, nil); err != nil {
		return err
	}
	data, err := m.Encode()
	if err != nil {
		return err
	}
	for _, p := range target.Peers() {
		if err := n.trans.Send(ctx, p, data); err != nil {
			n.logger.Debug("elder unreachable", "elder", p.Name.String()[:8], "err", err)
		}
	}
	return nil
}

func (n *Node) joiningHandleDirect(ctx context.Context, m *message.SignedMessage, from peer.Address) {
	switch m.Variant.Kind {
	case message.KindNodeApproval:
		n.joiningHandleApproval(ctx, m.Variant.NodeApproval)
	case message.KindBootstrapResponse:
		// An elder with newer knowledge may redirect us mid-join.
		if resp := m.Variant.BootstrapResponse; resp.Join != nil {
			if err := n.enterJoining(ctx, *resp.Join, resp.SectionKey); err != nil {
				n.logger.Error("re-entering joining", "err", err)
			}
		}
	default:
		n.logger.Debug("ignoring direct message while joining",
			"kind", m.Variant.Kind.String())
	}
}

func (n *Node) joiningHandleApproval(ctx context.Context, approval *message.NodeApproval) {
	proven := approval.Elders

	// Admission is only valid signed by the section we asked to join.
	if !bytes.Equal(proven.Proof.Key, n.join.sectionKey) {
		n.logger.Warn("approval signed by unexpected section key, ignoring")
		return
	}
	if err := proven.Verify(); err != nil {
		n.logger.Warn("approval proof invalid", "err", err)
		return
	}
	if !proven.Value.Prefix.Matches(n.identity.Name) {
		n.logger.Warn("approved into section not covering our name, ignoring")
		return
	}

	relocated := n.pendingRelocation != nil
	n.pendingRelocation = nil
	if err := n.enterApproved(proven); err != nil {
		n.logger.Error("entering approved", "err", err)
		return
	}
	kind := event.ConnectedFirst
	if relocated {
		kind = event.ConnectedRelocate
	}
	n.emit(event.Connected{Kind: kind})
}
