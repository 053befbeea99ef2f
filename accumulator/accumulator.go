// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package accumulator collects BLS signature shares over identical
// payload digests until a section threshold is reached, then combines
// them into one section signature. It fires exactly once per digest.
package accumulator

import (
	"errors"
	"fmt"
	"time"

	"github.com/luxfi/routing/bls"
	"github.com/luxfi/routing/log"
)

// Timeout is how long partial accumulation state is kept before being
// dropped.
const Timeout = 120 * time.Second

// ErrDuplicateShare is returned when an index resubmits a different
// share for the same digest.
var ErrDuplicateShare = errors.New("accumulator: conflicting share for index")

// ErrInvalidShare is returned when a share fails verification against
// its public key share.
var ErrInvalidShare = errors.New("accumulator: share does not verify")

// Threshold returns the number of shares needed for a section of n
// elders to act collectively: ⌈2n/3⌉.
func Threshold(n int) int {
	return (2*n + 2) / 3
}

type key struct {
	digest [32]byte
	setID  bls.KeySetID
}

type entry struct {
	shares   map[uint16]*bls.SignatureShare
	payload  []byte
	fired    bool
	inserted time.Time
}

// Accumulator gathers shares keyed by (payload digest, key set).
type Accumulator struct {
	logger  log.Logger
	entries map[key]*entry
	now     func() time.Time
}

// New returns an empty accumulator.
func New(logger log.Logger) *Accumulator {
	return &Accumulator{
		logger:  logger,
		entries: make(map[key]*entry),
		now:     time.Now,
	}
}

// AddShare submits one elder's share over payload (whose digest the
// caller has computed). It returns the combined section signature on
// the share that crosses the key set's threshold, nil before that and
// on every share after firing. Submissions are idempotent per
// (digest, index); a second submission for the same index with a
// different share is rejected.
func (a *Accumulator) AddShare(ks *bls.KeySet, digest [32]byte, payload []byte, share *bls.SignatureShare) (*bls.Signature, error) {
	if !share.Verify(ks, payload) {
		a.logger.Warn("rejecting invalid signature share",
			"index", share.Index)
		return nil, ErrInvalidShare
	}

	k := key{digest: digest, setID: ks.ID()}
	e, ok := a.entries[k]
	if !ok {
		e = &entry{
			shares:   make(map[uint16]*bls.SignatureShare),
			payload:  payload,
			inserted: a.now(),
		}
		a.entries[k] = e
	}

	if existing, ok := e.shares[share.Index]; ok {
		if string(existing.Signature.Bytes()) != string(share.Signature.Bytes()) {
			a.logger.Warn("conflicting share resubmission",
				"index", share.Index)
			return nil, ErrDuplicateShare
		}
		return nil, nil
	}
	e.shares[share.Index] = share

	if e.fired || len(e.shares) < ks.Threshold {
		return nil, nil
	}

	all := make([]*bls.SignatureShare, 0, len(e.shares))
	for _, s := range e.shares {
		all = append(all, s)
	}
	sig, err := bls.CombineShares(ks, e.payload, all)
	if err != nil {
		// A malformed share slipped through: drop whatever no longer
		// verifies and leave the entry open for correct shares.
		for idx, s := range e.shares {
			if !s.Verify(ks, e.payload) {
				delete(e.shares, idx)
			}
		}
		return nil, fmt.Errorf("accumulator: %w", err)
	}
	e.fired = true
	return sig, nil
}

// Prune drops entries older than Timeout, partial or fired. Called
// from the node's timer tick. Returns how many entries were evicted.
func (a *Accumulator) Prune() int {
	cutoff := a.now().Add(-Timeout)
	evicted := 0
	for k, e := range a.entries {
		if e.inserted.Before(cutoff) {
			delete(a.entries, k)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of live entries.
func (a *Accumulator) Len() int { return len(a.entries) }
