// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresetsAreValid(t *testing.T) {
	for _, p := range []NetworkParams{Mainnet(), Testnet(), Local()} {
		require.NoError(t, p.Validate())
	}
	require.Equal(t, 7, Mainnet().ElderSize)
	require.Equal(t, 10, Mainnet().RecommendedSectionSize)
	require.Equal(t, 14, Mainnet().SafeSectionSize)
}

func TestValidateOrdering(t *testing.T) {
	p := NetworkParams{ElderSize: 0, RecommendedSectionSize: 1, SafeSectionSize: 2}
	require.Error(t, p.Validate())

	p = NetworkParams{ElderSize: 5, RecommendedSectionSize: 3, SafeSectionSize: 10}
	require.Error(t, p.Validate())

	p = NetworkParams{ElderSize: 5, RecommendedSectionSize: 7, SafeSectionSize: 6}
	require.Error(t, p.Validate())
}

func TestValidateReportsAllViolations(t *testing.T) {
	p := NetworkParams{ElderSize: 5, RecommendedSectionSize: 3, SafeSectionSize: 2}
	err := p.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "recommended section size")
	require.Contains(t, err.Error(), "safe section size")
}
