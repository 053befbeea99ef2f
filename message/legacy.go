// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package message

import (
	"sort"

	"github.com/luxfi/routing/xorname"
)

// EnableLegacyGroupKeys gates the pre-threshold-signature group-key
// exchange. Threshold signatures supersede it; it is kept only for
// wire compatibility with peers that predate BLS.
var EnableLegacyGroupKeys = false

// GroupKey pairs a node name with its raw public signing key.
type GroupKey struct {
	Name xorname.Name
	Key  []byte
}

// GetGroupKeyResponse is the legacy reply listing the signing keys of
// a target group.
type GetGroupKeyResponse struct {
	Target xorname.Name
	Keys   []GroupKey
}

// Merge combines this response with others for the same target by
// counting how often each (name, key) pair was reported and keeping
// the groupSize most-reported pairs. Returns false if legacy support
// is off or any response is for a different target.
func (r *GetGroupKeyResponse) Merge(others []GetGroupKeyResponse, groupSize int) (GetGroupKeyResponse, bool) {
	if !EnableLegacyGroupKeys {
		return GetGroupKeyResponse{}, false
	}

	type histKey struct {
		name xorname.Name
		key  string
	}
	counts := make(map[histKey]int)
	order := make(map[histKey]int)
	pairs := make(map[histKey]GroupKey)

	update := func(gk GroupKey) {
		hk := histKey{name: gk.Name, key: string(gk.Key)}
		if _, seen := counts[hk]; !seen {
			order[hk] = len(order)
			pairs[hk] = gk
		}
		counts[hk]++
	}

	for _, gk := range r.Keys {
		update(gk)
	}
	for _, other := range others {
		if other.Target != r.Target {
			return GetGroupKeyResponse{}, false
		}
		for _, gk := range other.Keys {
			update(gk)
		}
	}

	keys := make([]histKey, 0, len(counts))
	for hk := range counts {
		keys = append(keys, hk)
	}
	// Highest count first; first-seen order breaks ties so the merge
	// is deterministic.
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return order[keys[i]] < order[keys[j]]
	})
	if len(keys) > groupSize {
		keys = keys[:groupSize]
	}

	merged := GetGroupKeyResponse{Target: r.Target, Keys: make([]GroupKey, len(keys))}
	for i, hk := range keys {
		merged.Keys[i] = pairs[hk]
	}
	return merged, true
}
