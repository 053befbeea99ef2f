// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package accumulator

import (
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/routing/bls"
	"github.com/luxfi/routing/log"
)

func TestThresholdFormula(t *testing.T) {
	// ⌈2n/3⌉
	cases := map[int]int{1: 1, 2: 2, 3: 2, 4: 3, 6: 4, 7: 5, 10: 7}
	for n, want := range cases {
		require.Equal(t, want, Threshold(n), "n=%d", n)
	}
}

func setup(t *testing.T, threshold, total int) (*Accumulator, *bls.KeySet, []*bls.SecretKeyShare) {
	t.Helper()
	ks, shares, err := bls.GenerateKeySet(threshold, total)
	require.NoError(t, err)
	return New(log.NewNoOp()), ks, shares
}

func TestFiresExactlyOnceAtThreshold(t *testing.T) {
	// n=4, t=3: shares 0 and 1 produce nothing, share 2 fires, share
	// 3 produces nothing.
	acc, ks, shares := setup(t, 3, 4)
	payload := []byte("payload")
	digest := sha256.Sum256(payload)

	for i := 0; i < 2; i++ {
		sig, err := acc.AddShare(ks, digest, payload, shares[i].Sign(payload))
		require.NoError(t, err)
		require.Nil(t, sig)
	}

	sig, err := acc.AddShare(ks, digest, payload, shares[2].Sign(payload))
	require.NoError(t, err)
	require.NotNil(t, sig)
	require.True(t, sig.Verify(ks.Public, payload))

	sig, err = acc.AddShare(ks, digest, payload, shares[3].Sign(payload))
	require.NoError(t, err)
	require.Nil(t, sig)
}

func TestBelowThresholdNeverFires(t *testing.T) {
	acc, ks, shares := setup(t, 3, 4)
	payload := []byte("payload")
	digest := sha256.Sum256(payload)

	for i := 0; i < 2; i++ {
		sig, err := acc.AddShare(ks, digest, payload, shares[i].Sign(payload))
		require.NoError(t, err)
		require.Nil(t, sig)
	}
	require.Equal(t, 1, acc.Len())
}

func TestDuplicateIndexDoesNotDoubleCount(t *testing.T) {
	acc, ks, shares := setup(t, 3, 4)
	payload := []byte("payload")
	digest := sha256.Sum256(payload)

	first := shares[0].Sign(payload)
	_, err := acc.AddShare(ks, digest, payload, first)
	require.NoError(t, err)

	// Identical resubmission is idempotent.
	sig, err := acc.AddShare(ks, digest, payload, first)
	require.NoError(t, err)
	require.Nil(t, sig)

	// Still two more distinct shares needed.
	sig, err = acc.AddShare(ks, digest, payload, shares[1].Sign(payload))
	require.NoError(t, err)
	require.Nil(t, sig)
	sig, err = acc.AddShare(ks, digest, payload, shares[2].Sign(payload))
	require.NoError(t, err)
	require.NotNil(t, sig)
}

func TestInvalidShareRejected(t *testing.T) {
	acc, ks, _ := setup(t, 2, 3)
	payload := []byte("payload")
	digest := sha256.Sum256(payload)

	rogue, err := bls.GenerateKey()
	require.NoError(t, err)
	forged := &bls.SignatureShare{Index: 0, Signature: rogue.Sign(payload)}

	_, err = acc.AddShare(ks, digest, payload, forged)
	require.ErrorIs(t, err, ErrInvalidShare)
	require.Equal(t, 0, acc.Len())
}

func TestConflictingResubmissionRejected(t *testing.T) {
	acc, ks, shares := setup(t, 2, 3)
	payload := []byte("payload")
	digest := sha256.Sum256(payload)

	_, err := acc.AddShare(ks, digest, payload, shares[0].Sign(payload))
	require.NoError(t, err)

	// Same index, different (but individually valid) share: craft it
	// by signing under another dealt set cannot pass Verify here, so
	// simulate by reusing another index's share under index 0.
	other := shares[1].Sign(payload)
	_, err = acc.AddShare(ks, digest, payload, &bls.SignatureShare{Index: 0, Signature: other.Signature})
	// The forged pairing fails share verification before the
	// duplicate check can trigger.
	require.ErrorIs(t, err, ErrInvalidShare)
}

func TestEntriesExpire(t *testing.T) {
	acc, ks, shares := setup(t, 3, 4)
	payload := []byte("payload")
	digest := sha256.Sum256(payload)

	now := time.Now()
	acc.now = func() time.Time { return now }

	_, err := acc.AddShare(ks, digest, payload, shares[0].Sign(payload))
	require.NoError(t, err)
	require.Equal(t, 1, acc.Len())

	require.Equal(t, 0, acc.Prune())

	now = now.Add(Timeout + time.Second)
	require.Equal(t, 1, acc.Prune())
	require.Equal(t, 0, acc.Len())

	// Expiry dropped the partial state: earlier shares are gone.
	sig, err := acc.AddShare(ks, digest, payload, shares[1].Sign(payload))
	require.NoError(t, err)
	require.Nil(t, sig)
	sig, err = acc.AddShare(ks, digest, payload, shares[2].Sign(payload))
	require.NoError(t, err)
	require.Nil(t, sig)
}
