// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package message

import (
	"fmt"

	"github.com/luxfi/routing/bls"
	"github.com/luxfi/routing/section"
	"github.com/luxfi/routing/wire"
)

// SignedMessage is the envelope every routing message travels in. The
// signature covers the canonical encoding of everything except the
// signature itself; ProofChain is the slice of section-key history
// that lets the recipient link SrcKey to a key it already trusts.
type SignedMessage struct {
	Src     Source
	Dst     Destination
	Seq     uint64
	Variant Variant

	SrcKey     []byte
	ProofChain []section.Link
	Signature  []byte
}

// signable is the portion of the envelope the signature covers.
type signable struct {
	Src     Source
	Dst     Destination
	Seq     uint64
	Variant Variant
	SrcKey  []byte
}

// SignableBytes returns the canonical encoding the signature is made
// over.
func (m *SignedMessage) SignableBytes() ([]byte, error) {
	return wire.Marshal(signable{
		Src:     m.Src,
		Dst:     m.Dst,
		Seq:     m.Seq,
		Variant: m.Variant,
		SrcKey:  m.SrcKey,
	})
}

// Digest returns the canonical digest of the whole envelope, used by
// the router's dedup filters.
func (m *SignedMessage) Digest() ([32]byte, error) {
	return wire.Digest(m)
}

// SignatureDigest returns the digest of the signable portion, which is
// what elders accumulate signature shares over.
func (m *SignedMessage) SignatureDigest() ([32]byte, error) {
	data, err := m.SignableBytes()
	if err != nil {
		return [32]byte{}, err
	}
	return wire.Digest(data)
}

// Sign fills in SrcKey, ProofChain and Signature for a node-sourced
// message signed with the sender's own key.
func (m *SignedMessage) Sign(sk *bls.SecretKey, chainSlice []section.Link) error {
	m.SrcKey = sk.PublicKey().Bytes()
	m.ProofChain = chainSlice
	data, err := m.SignableBytes()
	if err != nil {
		return err
	}
	m.Signature = sk.Sign(data).Bytes()
	return nil
}

// AttachSectionSignature fills in the envelope for a section-sourced
// message once the threshold signature over SignableBytes has been
// combined.
func (m *SignedMessage) AttachSectionSignature(sectionKey []byte, sig *bls.Signature, chainSlice []section.Link) {
	m.SrcKey = sectionKey
	m.ProofChain = chainSlice
	m.Signature = sig.Bytes()
}

// VerifySignature checks the envelope signature under SrcKey. Trust in
// SrcKey itself is established separately via the proof chain.
func (m *SignedMessage) VerifySignature() error {
	if err := m.Variant.Validate(); err != nil {
		return err
	}
	key, err := bls.PublicKeyFromBytes(m.SrcKey)
	if err != nil {
		return fmt.Errorf("message: source key: %w", err)
	}
	sig, err := bls.SignatureFromBytes(m.Signature)
	if err != nil {
		return fmt.Errorf("message: signature: %w", err)
	}
	data, err := m.SignableBytes()
	if err != nil {
		return err
	}
	if !sig.Verify(key, data) {
		return fmt.Errorf("message: signature does not verify under source key")
	}
	return nil
}

// Encode canonically encodes the envelope for the transport.
func (m *SignedMessage) Encode() ([]byte, error) {
	return wire.Marshal(m)
}

// Decode parses an envelope off the wire.
func Decode(data []byte) (*SignedMessage, error) {
	var m SignedMessage
	if err := wire.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("message: decoding envelope: %w", err)
	}
	return &m, nil
}
