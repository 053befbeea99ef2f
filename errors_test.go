// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package routing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOfMapsSentinels(t *testing.T) {
	require.Equal(t, KindCannotRoute, KindOf(ErrCannotRoute))
	require.Equal(t, KindUntrustedMessage, KindOf(ErrUntrustedMessage))
	require.Equal(t, KindInvalidSource, KindOf(ErrInvalidSource))
	require.Equal(t, KindInvalidSignatureShare, KindOf(ErrInvalidSignatureShare))
	require.Equal(t, KindInvalidSignatureShare, KindOf(ErrDuplicateShare))
	require.Equal(t, KindFailedSignature, KindOf(ErrFailedSignature))
	require.Equal(t, KindBootstrapFailed, KindOf(ErrBootstrapFailed))

	// Wrapping is transparent to the taxonomy.
	wrapped := fmt.Errorf("sending: %w", ErrCannotRoute)
	require.Equal(t, KindCannotRoute, KindOf(wrapped))
}

func TestErrorFormatting(t *testing.T) {
	e := &Error{Kind: KindJoinFailed, Err: fmt.Errorf("no approval")}
	require.Equal(t, "JoinFailed: no approval", e.Error())
	require.Equal(t, KindJoinFailed, KindOf(e))

	bare := &Error{Kind: KindTransportError}
	require.Equal(t, "TransportError", bare.Error())
	require.Equal(t, KindUnknown, KindOf(nil))
}
