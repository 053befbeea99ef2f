// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"bytes"
	"context"
	"fmt"

	"github.com/luxfi/routing/accumulator"
	"github.com/luxfi/routing/agreement"
	"github.com/luxfi/routing/bls"
	"github.com/luxfi/routing/delivery"
	"github.com/luxfi/routing/event"
	"github.com/luxfi/routing/message"
	"github.com/luxfi/routing/peer"
	"github.com/luxfi/routing/router"
	"github.com/luxfi/routing/section"
	"github.com/luxfi/routing/wire"
	"github.com/luxfi/routing/xorname"
)

// approved is the participating state. The elder/adult split is
// derived from the current committee, not a separate node state.
type approved struct {
	state  *section.SharedState
	router *router.Router
	acc    *accumulator.Accumulator
	peers  *peer.Registry

	isElder bool

	// keySet/keyShare is the section threshold key material; nil on
	// adults.
	keySet   *bls.KeySet
	keyShare *bls.SecretKeyShare

	// pendingKey holds DKG output awaiting the committee change that
	// activates it.
	pendingKey *agreement.DkgResult

	knowledgeTimerToken uint64
}

// enterGenesis synthesizes the first node's single-elder section over
// the empty prefix and enters Approved/Elder directly.
func (n *Node) enterGenesis() error {
	ks, shares, err := bls.GenerateKeySet(1, 1)
	if err != nil {
		return err
	}
	self := peer.Peer{Name: n.identity.Name, Address: n.trans.LocalAddress()}
	info, err := section.NewEldersInfo(xorname.Prefix{}, []peer.Peer{self})
	if err != nil {
		return err
	}

	// There is no previous key to sign with, so the genesis committee
	// is signed with its own key.
	data, err := wire.Marshal(info)
	if err != nil {
		return err
	}
	sig, err := bls.CombineShares(ks, data, []*bls.SignatureShare{shares[0].Sign(data)})
	if err != nil {
		return err
	}
	proven := section.NewProven(info, ks.Public, sig)

	if err := n.installApproved(proven, ks.Public); err != nil {
		return err
	}
	n.appr.keySet = ks
	n.appr.keyShare = shares[0]
	n.appr.isElder = true
	if err := n.appr.state.Members.AddJoined(self); err != nil {
		return err
	}
	n.emit(event.Connected{Kind: event.ConnectedFirst})
	n.logger.Info("genesis section created")
	return nil
}

// enterApproved installs the state for a node admitted into an
// existing section.
func (n *Node) enterApproved(proven section.Proven[section.EldersInfo]) error {
	anchor, err := bls.PublicKeyFromBytes(proven.Proof.Key)
	if err != nil {
		return err
	}
	if err := n.installApproved(proven, anchor); err != nil {
		return err
	}
	n.appr.isElder = proven.Value.Contains(n.identity.Name)
	n.logger.Info("approved into section",
		"prefix", proven.Value.Prefix.String(), "elder", n.appr.isElder)
	return nil
}

func (n *Node) installApproved(proven section.Proven[section.EldersInfo], anchor *bls.PublicKey) error {
	state := section.NewSharedState(proven, anchor)
	reg := peer.NewRegistry()
	for _, p := range proven.Value.Peers() {
		reg.Insert(p)
	}
	n.stage = stageApproved
	n.boot = nil
	n.join = nil
	n.appr = &approved{
		state:  state,
		router: router.New(n.logger, state),
		acc:    accumulator.New(n.logger),
		peers:  reg,
	}
	n.appr.knowledgeTimerToken = n.timer.After(KnowledgeTimeout)
	return nil
}

// ---- direct (one-hop) traffic ----

func (n *Node) approvedHandleDirect(ctx context.Context, m *message.SignedMessage, from peer.Address) {
	switch m.Variant.Kind {
	case message.KindBootstrapRequest:
		n.handleBootstrapRequest(ctx, m.Variant.BootstrapRequest, from)
	case message.KindJoinRequest:
		n.handleJoinRequest(m, from)
	case message.KindMemberKnowledge:
		n.handleMemberKnowledge(m.Src.Name, m.Variant.MemberKnowledge)
	case message.KindMessageSignature:
		n.handleMessageSignature(ctx, m.Variant.MessageSignature)
	case message.KindParsecRequest, message.KindParsecResponse:
		n.handleParsecGossip(m)
	default:
		n.logger.Debug("ignoring direct message",
			"kind", m.Variant.Kind.String())
	}
}

func (n *Node) handleBootstrapRequest(ctx context.Context, req *message.BootstrapRequest, from peer.Address) {
	if !n.appr.isElder {
		return
	}
	sections := n.appr.state.Sections
	resp := &message.BootstrapResponse{}
	if sections.OurPrefix().Matches(req.Name) {
		info := sections.OurInfo()
		resp.Join = &info
		resp.SectionKey = n.appr.state.Chain.LastKeyBytes()
	} else {
		// Redirect toward the known section closest to the joiner.
		closest := sections.Closest(req.Name)
		for _, p := range closest.Peers() {
			resp.Rebootstrap = append(resp.Rebootstrap, p.Address)
		}
	}
	n.sendDirectTo(ctx, from, message.Variant{
		Kind:              message.KindBootstrapResponse,
		BootstrapResponse: resp,
	})
}

func (n *Node) handleJoinRequest(m *message.SignedMessage, from peer.Address) {
	if !n.appr.isElder {
		return
	}
	req := m.Variant.JoinRequest
	if !bytes.Equal(req.SectionKey, n.appr.state.Chain.LastKeyBytes()) {
		// Stale key: refresh the joiner's view instead of voting.
		info := n.appr.state.Sections.OurInfo()
		n.sendDirectTo(context.Background(), from, message.Variant{
			Kind: message.KindBootstrapResponse,
			BootstrapResponse: &message.BootstrapResponse{
				Join:       &info,
				SectionKey: n.appr.state.Chain.LastKeyBytes(),
			},
		})
		return
	}
	if !n.appr.state.Sections.OurPrefix().Matches(m.Src.Name) {
		n.logger.Debug("join request from name outside our prefix", "name", m.Src.Name.String()[:8])
		return
	}
	joiner := peer.Peer{Name: m.Src.Name, Address: from}
	var prevAge uint8
	if req.Relocation != nil {
		prevAge = req.Relocation.Age
	}
	obs := agreement.Observation{
		Kind:   agreement.ObservationOnline,
		Online: &agreement.Online{Peer: joiner, PreviousAge: prevAge},
	}
	if err := n.engine.SubmitObservation(obs); err != nil {
		n.logger.Error("submitting online observation", "err", err)
	}
}

func (n *Node) handleMemberKnowledge(from xorname.Name, mk *message.MemberKnowledge) {
	if idx, ok := n.appr.state.Chain.IndexOf(mk.SectionKey); ok {
		n.appr.state.Sections.UpdateKnowledge(n.appr.state.Sections.OurPrefix(), idx)
	}
	n.logger.Debug("member knowledge", "from", from.String()[:8], "version", mk.ParsecVersion)
}

func (n *Node) handleParsecGossip(m *message.SignedMessage) {
	// The agreement engine is external; engines that gossip implement
	// this optional capability.
	type gossipHandler interface {
		HandleGossip(from xorname.Name, payload []byte) ([]byte, error)
	}
	h, ok := n.engine.(gossipHandler)
	if !ok {
		return
	}
	var payload []byte
	if m.Variant.Kind == message.KindParsecRequest {
		payload = m.Variant.ParsecRequest.Payload
	} else {
		payload = m.Variant.ParsecResponse.Payload
	}
	if _, err := h.HandleGossip(m.Src.Name, payload); err != nil {
		n.logger.Warn("agreement gossip failed", "err", err)
	}
}

// handleMessageSignature accumulates one elder's share over a message
// awaiting its section signature. Whichever elder's share crosses the
// threshold finishes the envelope and sends it onward.
func (n *Node) handleMessageSignature(ctx context.Context, ms *message.MessageSignature) {
	if !n.appr.isElder || n.appr.keySet == nil {
		return
	}
	inner, err := message.Decode(ms.Content)
	if err != nil {
		n.logger.Warn("message signature with undecodable content", "err", err)
		return
	}
	payload, err := inner.SignableBytes()
	if err != nil {
		n.logger.Warn("message signature content not signable", "err", err)
		return
	}
	digest, err := inner.SignatureDigest()
	if err != nil {
		return
	}
	share, err := bls.SignatureFromBytes(ms.Share)
	if err != nil {
		n.logger.Warn("undecodable signature share", "err", err)
		return
	}
	sig, err := n.appr.acc.AddShare(n.appr.keySet, digest, payload,
		&bls.SignatureShare{Index: ms.Index, Signature: share})
	if err != nil {
		n.logger.Warn("accumulating share", "err", err)
		return
	}
	if sig == nil {
		return
	}
	slice := n.chainSliceFor(inner.Dst)
	inner.AttachSectionSignature(n.appr.state.Chain.LastKeyBytes(), sig, slice)
	if err := n.dispatch(ctx, inner); err != nil {
		n.logger.Error("dispatching accumulated message", "err", err)
	}
}

// ---- routed traffic ----

func (n *Node) handleRouted(ctx context.Context, m *message.SignedMessage) {
	d, err := n.appr.router.HandleIncoming(m, n.identity.Name)
	if err != nil {
		n.logger.Debug("router dropped message", "err", err)
		return
	}
	if d.Buffered {
		return
	}
	if d.DeliverLocal {
		n.handleTrusted(ctx, m)
	}
	if len(d.Relay) > 0 {
		n.relay(ctx, m, d.Relay, d.RelayCount)
	}
}

// handleTrusted consumes a verified, trusted message addressed to us.
func (n *Node) handleTrusted(ctx context.Context, m *message.SignedMessage) {
	switch m.Variant.Kind {
	case message.KindUserMessage:
		n.emit(event.MessageReceived{
			Src:     m.Src,
			Dst:     m.Dst,
			Content: m.Variant.UserMessage,
		})
	case message.KindGenesisUpdate:
		n.handleGenesisUpdate(ctx, m.Variant.GenesisUpdate)
	case message.KindRelocate:
		n.handleRelocateMessage(ctx, m.Variant.Relocate.Details)
	case message.KindMemberKnowledge:
		n.handleMemberKnowledge(m.Src.Name, m.Variant.MemberKnowledge)
	case message.KindMessageSignature:
		n.handleMessageSignature(ctx, m.Variant.MessageSignature)
	case message.KindParsecRequest, message.KindParsecResponse:
		n.handleParsecGossip(m)
	case message.KindNodeApproval:
		// Late duplicate of our admission; nothing to do.
	default:
		n.logger.Debug("unhandled trusted message", "kind", m.Variant.Kind.String())
	}
}

// handleGenesisUpdate extends our proof chain with newer section keys
// and re-evaluates any messages that were waiting for them, in the
// same loop turn.
func (n *Node) handleGenesisUpdate(ctx context.Context, gu *message.GenesisUpdate) {
	chain := n.appr.state.Chain
	extended := false
	for i, link := range gu.Chain {
		if chain.HasKey(link.Key) {
			continue
		}
		if i == 0 {
			// An anchor we don't hold can't be linked to anything.
			continue
		}
		if !bytes.Equal(gu.Chain[i-1].Key, chain.LastKeyBytes()) {
			continue
		}
		newKey, err := bls.PublicKeyFromBytes(link.Key)
		if err != nil {
			n.logger.Warn("genesis update with bad key", "err", err)
			return
		}
		sig, err := bls.SignatureFromBytes(link.Signature)
		if err != nil {
			n.logger.Warn("genesis update with bad signature", "err", err)
			return
		}
		if err := n.appr.state.RotateKey(newKey, sig); err != nil {
			n.logger.Warn("genesis update does not extend chain", "err", err)
			return
		}
		extended = true
	}
	if !extended {
		return
	}
	for _, buffered := range n.appr.router.TakeBacklog() {
		n.handleRouted(ctx, buffered)
	}
}

func (n *Node) handleRelocateMessage(ctx context.Context, details message.RelocateDetails) {
	if details.Name == n.identity.Name {
		n.startSelfRelocation(ctx, details)
		return
	}
	if n.appr.isElder {
		obs := agreement.Observation{Kind: agreement.ObservationRelocate, Relocate: &details}
		if err := n.engine.SubmitObservation(obs); err != nil {
			n.logger.Error("submitting relocate observation", "err", err)
		}
	}
}

// startSelfRelocation tears down the approved state and rebootstraps
// with a fresh identity inside the target prefix, carrying the earned
// age.
func (n *Node) startSelfRelocation(ctx context.Context, details message.RelocateDetails) {
	n.emit(event.RelocationStarted{Target: details.Target})

	// Seeds: the elders of the known section closest to the target.
	target := details.Target.Name()
	closest := n.appr.state.Sections.Closest(target)
	seeds := make([]peer.Address, 0, closest.Len())
	for _, p := range closest.Peers() {
		if p.Name != n.identity.Name {
			seeds = append(seeds, p.Address)
		}
	}

	newID, err := NewIdentityMatching(details.Target)
	if err != nil {
		n.logger.Error("generating relocated identity", "err", err)
		n.emit(event.RestartRequired{})
		return
	}
	details.Name = newID.Name
	n.identity = newID
	n.logger = n.logger.With("relocated", newID.Name.String()[:8])
	n.pendingRelocation = &details

	if len(seeds) == 0 {
		n.emit(event.RestartRequired{})
		return
	}
	if err := n.enterBootstrapping(seeds); err != nil {
		n.logger.Error("rebootstrapping after relocation", "err", err)
		n.emit(event.RestartRequired{})
	}
}

// ---- timers ----

func (n *Node) approvedHandleTimer(ctx context.Context, f timerFire) {
	if f.token != n.appr.knowledgeTimerToken {
		return
	}
	n.appr.acc.Prune()
	if !n.appr.isElder {
		n.sendMemberKnowledge(ctx)
	}
	n.appr.knowledgeTimerToken = n.timer.After(KnowledgeTimeout)
}

func (n *Node) sendMemberKnowledge(ctx context.Context) {
	v := message.Variant{
		Kind: message.KindMemberKnowledge,
		MemberKnowledge: &message.MemberKnowledge{
			SectionKey:    n.appr.state.Chain.LastKeyBytes(),
			ParsecVersion: 0,
		},
	}
	for _, p := range n.appr.state.Sections.OurInfo().Peers() {
		if p.Name != n.identity.Name {
			n.sendDirectTo(ctx, p.Address, v)
		}
	}
}

// ---- decisions ----

func (n *Node) applyDecision(ctx context.Context, d agreement.Decision) error {
	switch d.Kind {
	case agreement.ObservationOnline:
		return n.applyOnline(ctx, d.Online)
	case agreement.ObservationOffline:
		return n.applyOffline(d.Offline)
	case agreement.ObservationSectionInfo:
		return n.applySectionInfo(ctx, d.SectionInfo)
	case agreement.ObservationTheirKeyInfo:
		n.applyTheirKeyInfo(d.TheirKeyInfo)
		return nil
	case agreement.ObservationSendAck:
		return n.applySendAck(ctx, d.SendAck)
	case agreement.ObservationRelocate:
		return n.applyRelocate(ctx, d.Relocate)
	case agreement.ObservationDkgResult:
		n.appr.pendingKey = d.DkgResult
		return nil
	default:
		return fmt.Errorf("node: unknown decision kind %d", d.Kind)
	}
}

func (n *Node) applyOnline(ctx context.Context, o *agreement.Online) error {
	var err error
	if o.PreviousAge > 0 {
		err = n.appr.state.Members.AddRelocated(o.Peer, o.PreviousAge)
	} else {
		err = n.appr.state.Members.AddJoined(o.Peer)
	}
	if err != nil {
		return err
	}
	n.appr.peers.Insert(o.Peer)
	info, _ := n.appr.state.Members.Get(o.Peer.Name)
	n.emit(event.MemberJoined{Name: o.Peer.Name, Age: info.Age})

	if n.appr.isElder {
		// Welcome the member with its admission proof.
		n.sendDirectTo(ctx, o.Peer.Address, message.Variant{
			Kind:         message.KindNodeApproval,
			NodeApproval: &message.NodeApproval{Elders: n.appr.state.Sections.Our()},
		})
	}
	return nil
}

func (n *Node) applyOffline(o *agreement.Offline) error {
	if _, err := n.appr.state.Members.SetLeft(o.Name); err != nil {
		return err
	}
	n.appr.peers.Remove(o.Name, closerFunc(func(p peer.Peer) { n.trans.Close(p) }))
	n.emit(event.MemberLeft{Name: o.Name})
	return nil
}

func (n *Node) applySectionInfo(ctx context.Context, si *agreement.SectionInfo) error {
	wasElder := n.appr.isElder
	state := n.appr.state

	var keySig *bls.Signature
	if si.KeySig != nil {
		var err error
		keySig, err = bls.SignatureFromBytes(si.KeySig)
		if err != nil {
			return fmt.Errorf("node: section info key signature: %w", err)
		}
	}

	if si.Sibling != nil {
		// Split: install both halves, rotate to our half's key.
		if err := si.Elders.Verify(); err != nil {
			return err
		}
		if err := si.Sibling.Verify(); err != nil {
			return err
		}
		if err := state.Sections.Split(si.Elders, *si.Sibling, n.identity.Name); err != nil {
			return err
		}
		ourProof := state.Sections.Our().Proof
		if !state.Chain.HasKey(ourProof.Key) {
			newKey, err := bls.PublicKeyFromBytes(ourProof.Key)
			if err != nil {
				return err
			}
			if keySig == nil {
				return fmt.Errorf("node: split without chain signature")
			}
			if err := state.RotateKey(newKey, keySig); err != nil {
				return err
			}
		}
		n.emit(event.SectionSplit{Prefix: state.Sections.OurPrefix()})
	} else if si.Elders.Value.Prefix.Bits() < state.Sections.OurPrefix().Bits() &&
		si.Elders.Value.Prefix.IsPrefixOf(state.Sections.OurPrefix()) {
		// Merge into the parent prefix.
		if err := si.Elders.Verify(); err != nil {
			return err
		}
		if err := state.Sections.Merge(si.Elders); err != nil {
			return err
		}
		if !state.Chain.HasKey(si.Elders.Proof.Key) {
			newKey, err := bls.PublicKeyFromBytes(si.Elders.Proof.Key)
			if err != nil {
				return err
			}
			if keySig == nil {
				return fmt.Errorf("node: merge without chain signature")
			}
			if err := state.RotateKey(newKey, keySig); err != nil {
				return err
			}
		}
		n.emit(event.SectionMerged{Prefix: state.Sections.OurPrefix()})
	} else if si.Elders.Value.Prefix.Equal(state.Sections.OurPrefix()) {
		if err := state.ApplyOurElders(si.Elders, keySig); err != nil {
			return err
		}
	} else {
		return state.ApplyNeighborElders(si.Elders)
	}

	for _, p := range state.Sections.OurInfo().Peers() {
		n.appr.peers.Insert(p)
	}
	n.updateElderRole(wasElder)
	return nil
}

// updateElderRole re-derives adult/elder from the current committee,
// activating pending DKG key material on promotion.
func (n *Node) updateElderRole(wasElder bool) {
	isElder := n.appr.state.Sections.IsElder(n.identity.Name)
	n.appr.isElder = isElder
	switch {
	case isElder && !wasElder:
		if n.appr.pendingKey != nil {
			n.appr.keySet = n.appr.pendingKey.KeySet
			n.appr.keyShare = n.appr.pendingKey.Share
			n.appr.pendingKey = nil
		}
		n.emit(event.PromotedToElder{})
	case !isElder && wasElder:
		n.appr.keySet = nil
		n.appr.keyShare = nil
		n.emit(event.Demoted{})
	case isElder:
		// Committee changed around us; adopt refreshed key material.
		if n.appr.pendingKey != nil {
			n.appr.keySet = n.appr.pendingKey.KeySet
			n.appr.keyShare = n.appr.pendingKey.Share
			n.appr.pendingKey = nil
		}
	}
}

func (n *Node) applyTheirKeyInfo(tki *agreement.TheirKeyInfo) {
	if idx, ok := n.appr.state.Chain.IndexOf(tki.Key); ok {
		n.appr.state.Sections.UpdateKnowledge(tki.Prefix, idx)
	}
}

func (n *Node) applySendAck(ctx context.Context, ack *agreement.SendAck) error {
	key, err := n.appr.state.Chain.KeyAt(ack.KeyIndex)
	if err != nil {
		return err
	}
	v := message.Variant{
		Kind: message.KindMemberKnowledge,
		MemberKnowledge: &message.MemberKnowledge{
			SectionKey: key,
		},
	}
	return n.sendRouted(ctx, message.SectionDst(ack.Prefix.Name()), v)
}

func (n *Node) applyRelocate(ctx context.Context, details *message.RelocateDetails) error {
	if details.Name == n.identity.Name {
		n.startSelfRelocation(ctx, *details)
		return nil
	}
	if err := n.appr.state.Members.StartRelocating(details.Name, details.Target); err != nil {
		return err
	}
	// Tell the member to move.
	return n.sendRouted(ctx, message.NodeDst(details.Name), message.Variant{
		Kind:     message.KindRelocate,
		Relocate: &message.Relocate{Details: *details},
	})
}

// ---- outgoing ----

// approvedSendUser implements the embedder's send_message.
func (n *Node) approvedSendUser(ctx context.Context, src message.Source, dst message.Destination, payload []byte) error {
	v := message.Variant{Kind: message.KindUserMessage, UserMessage: payload}
	if src.Kind == message.SrcSection {
		return n.sendAsSection(ctx, dst, v)
	}
	return n.sendRouted(ctx, dst, v)
}

// sendRouted signs a node-sourced message and dispatches it.
func (n *Node) sendRouted(ctx context.Context, dst message.Destination, v message.Variant) error {
	m := &message.SignedMessage{
		Src:     message.NodeSrc(n.identity.Name),
		Dst:     dst,
		Seq:     n.nextSeq(),
		Variant: v,
	}
	if err := m.Sign(n.identity.Secret, n.chainSliceFor(dst)); err != nil {
		return err
	}
	return n.dispatch(ctx, m)
}

// sendAsSection starts the share-accumulation path for a
// section-sourced message: sign our share and hand it to the elders
// responsible for collecting signatures over this destination.
func (n *Node) sendAsSection(ctx context.Context, dst message.Destination, v message.Variant) error {
	if !n.appr.isElder || n.appr.keyShare == nil {
		return fmt.Errorf("%w: section-sourced sends need elder key material", ErrInvalidState)
	}
	m := &message.SignedMessage{
		Src:     message.SectionSrc(n.appr.state.Sections.OurPrefix().Name()),
		Dst:     dst,
		Seq:     n.nextSeq(),
		Variant: v,
		SrcKey:  n.appr.state.Chain.LastKeyBytes(),
	}
	payload, err := m.SignableBytes()
	if err != nil {
		return err
	}
	content, err := m.Encode()
	if err != nil {
		return err
	}
	share := n.appr.keyShare.Sign(payload)

	sigVariant := message.Variant{
		Kind: message.KindMessageSignature,
		MessageSignature: &message.MessageSignature{
			Index:   share.Index,
			Share:   share.Signature.Bytes(),
			Content: content,
		},
	}
	targets := delivery.SignatureTargets(dst, n.appr.state.Sections.OurInfo().Peers())
	for _, p := range targets {
		if p.Name == n.identity.Name {
			n.handleMessageSignature(ctx, sigVariant.MessageSignature)
			continue
		}
		n.sendDirectTo(ctx, p.Address, sigVariant)
	}
	return nil
}

// dispatch selects the delivery group for m and sends it, falling back
// to spare targets when a peer fails.
func (n *Node) dispatch(ctx context.Context, m *message.SignedMessage) error {
	targets, count, err := delivery.Targets(m.Dst, n.identity.Name, n.appr.state.Members, n.appr.state.Sections)
	if err != nil {
		return err
	}
	if count == 0 {
		// Addressed to ourself.
		n.handleTrusted(ctx, m)
		return nil
	}
	targets, err = n.appr.router.FilterOutgoing(m, targets)
	if err != nil {
		return err
	}
	return n.sendToGroup(ctx, m, targets, count)
}

// relay forwards an already-filtered delivery group.
func (n *Node) relay(ctx context.Context, m *message.SignedMessage, targets []peer.Peer, count int) {
	if err := n.sendToGroup(ctx, m, targets, count); err != nil {
		n.logger.Warn("relaying message", "err", err)
	}
}

func (n *Node) sendToGroup(ctx context.Context, m *message.SignedMessage, targets []peer.Peer, count int) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	if count > len(targets) {
		count = len(targets)
	}
	sent := 0
	for _, p := range targets {
		if sent >= count {
			break
		}
		if err := n.trans.Send(ctx, p, data); err != nil {
			// Evict the failed peer and let a spare target cover.
			n.logger.Debug("send failed, trying spare", "peer", p.Name.String()[:8], "err", err)
			n.appr.peers.Remove(p.Name, closerFunc(func(pp peer.Peer) { n.trans.Close(pp) }))
			continue
		}
		sent++
	}
	if sent < count {
		return fmt.Errorf("node: delivered to %d of %d required targets", sent, count)
	}
	return nil
}

// sendDirectTo sends a one-hop control message to an address.
func (n *Node) sendDirectTo(ctx context.Context, to peer.Address, v message.Variant) {
	m := &message.SignedMessage{
		Src:     message.NodeSrc(n.identity.Name),
		Dst:     message.DirectDst(),
		Seq:     n.nextSeq(),
		Variant: v,
	}
	if err := m.Sign(n.identity.Secret, nil); err != nil {
		n.logger.Error("signing direct message", "err", err)
		return
	}
	data, err := m.Encode()
	if err != nil {
		n.logger.Error("encoding direct message", "err", err)
		return
	}
	if err := n.trans.SendTo(ctx, to, data); err != nil {
		n.logger.Debug("direct send failed", "to", string(to), "err", err)
	}
}

// chainSliceFor picks the shortest proof-chain slice the destination's
// section is known to be able to link, per the knowledge map.
func (n *Node) chainSliceFor(dst message.Destination) []section.Link {
	sections := n.appr.state.Sections
	idx := uint64(0)
	if dst.Kind != message.DstDirect {
		closest := sections.Closest(dst.Name)
		idx = sections.KnowledgeIndex(closest.Prefix)
	}
	return n.appr.state.Chain.Slice(idx)
}

// closerFunc adapts a function to the peer registry's Closer.
type closerFunc func(peer.Peer)

func (f closerFunc) Close(p peer.Peer) { f(p) }
