// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package section

import (
	"fmt"

	"github.com/luxfi/routing/bls"
	"github.com/luxfi/routing/member"
)

// SharedState is the authoritative replica every elder of a section
// holds; adults hold a restricted view (own section only). All
// mutation happens on the node's event loop, so no locking.
type SharedState struct {
	Sections *Map
	Members  *member.Table
	Chain    *ProofChain

	// LastKeyIndex is the chain index of the key currently in use for
	// signing, advanced on every rotation.
	LastKeyIndex uint64
}

// NewSharedState builds the state around an initial committee and
// its genesis key.
func NewSharedState(our Proven[EldersInfo], genesis *bls.PublicKey) *SharedState {
	return &SharedState{
		Sections: NewMap(our),
		Members:  member.NewTable(),
		Chain:    NewProofChain(genesis),
	}
}

// RotateKey appends newKey to the proof chain (sig must be the
// section's threshold signature over newKey under the current key),
// advances LastKeyIndex, and prunes member tombstones per the
// tombstone lifecycle.
func (s *SharedState) RotateKey(newKey *bls.PublicKey, sig *bls.Signature) error {
	if err := s.Chain.Extend(newKey, sig); err != nil {
		return err
	}
	s.LastKeyIndex = uint64(s.Chain.Len()) - 1
	s.Members.Prune()
	return nil
}

// ApplyOurElders installs a newer committee for our own prefix after
// validating its proof against the chain, then rotates the section key
// to the proof's key if it is new.
func (s *SharedState) ApplyOurElders(proven Proven[EldersInfo], keySig *bls.Signature) error {
	if err := proven.Verify(); err != nil {
		return err
	}
	if err := s.Sections.SetOur(proven); err != nil {
		return err
	}
	if !s.Chain.HasKey(proven.Proof.Key) {
		newKey, err := bls.PublicKeyFromBytes(proven.Proof.Key)
		if err != nil {
			return fmt.Errorf("section: new section key: %w", err)
		}
		if keySig == nil {
			return fmt.Errorf("section: new section key without chain signature")
		}
		return s.RotateKey(newKey, keySig)
	}
	return nil
}

// ApplyNeighborElders installs a neighbour committee after validating
// its proof signature.
func (s *SharedState) ApplyNeighborElders(proven Proven[EldersInfo]) error {
	if err := proven.Verify(); err != nil {
		return err
	}
	return s.Sections.UpdateNeighbor(proven)
}
