// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config carries the network-wide parameters every node of an
// overlay must agree on.
package config

import (
	"fmt"

	"github.com/luxfi/routing/utils/wrappers"
)

// NetworkParams fixes the section-size policy of the overlay.
type NetworkParams struct {
	// ElderSize is the number of elders per section.
	ElderSize int

	// RecommendedSectionSize is the size a section should have before
	// splitting is considered.
	RecommendedSectionSize int

	// SafeSectionSize is the size below which a section seeks a merge.
	SafeSectionSize int
}

// Mainnet returns the production parameters.
func Mainnet() NetworkParams {
	return NetworkParams{
		ElderSize:              7,
		RecommendedSectionSize: 10,
		SafeSectionSize:        14,
	}
}

// Testnet returns parameters sized for public test deployments.
func Testnet() NetworkParams {
	return NetworkParams{
		ElderSize:              5,
		RecommendedSectionSize: 7,
		SafeSectionSize:        10,
	}
}

// Local returns parameters small enough to run a whole network in one
// process.
func Local() NetworkParams {
	return NetworkParams{
		ElderSize:              3,
		RecommendedSectionSize: 4,
		SafeSectionSize:        5,
	}
}

// Validate checks internal consistency of the parameters, reporting
// every violation rather than just the first.
func (p NetworkParams) Validate() error {
	errs := wrappers.Errs{}
	if p.ElderSize < 1 {
		errs.Add(fmt.Errorf("config: elder size %d < 1", p.ElderSize))
	}
	if p.RecommendedSectionSize < p.ElderSize {
		errs.Add(fmt.Errorf("config: recommended section size %d < elder size %d",
			p.RecommendedSectionSize, p.ElderSize))
	}
	if p.SafeSectionSize < p.RecommendedSectionSize {
		errs.Add(fmt.Errorf("config: safe section size %d < recommended section size %d",
			p.SafeSectionSize, p.RecommendedSectionSize))
	}
	return errs.Err()
}
