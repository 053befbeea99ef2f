// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	B string
	A int
}

func TestMarshalRoundTrip(t *testing.T) {
	in := sample{A: 7, B: "hi"}
	data, err := Marshal(in)
	require.NoError(t, err)

	var out sample
	require.NoError(t, Unmarshal(data, &out))
	require.Equal(t, in, out)
}

func TestMarshalIsDeterministic(t *testing.T) {
	in := sample{A: 1, B: "x"}
	a, err := Marshal(in)
	require.NoError(t, err)
	b, err := Marshal(in)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestDigestChangesWithContent(t *testing.T) {
	d1, err := Digest(sample{A: 1, B: "x"})
	require.NoError(t, err)
	d2, err := Digest(sample{A: 2, B: "x"})
	require.NoError(t, err)
	require.NotEqual(t, d1, d2)
}
