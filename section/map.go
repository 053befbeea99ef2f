// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package section

import (
	"fmt"
	"sort"

	"github.com/luxfi/routing/peer"
	"github.com/luxfi/routing/xorname"
)

// Map is the routing view of the overlay: our own section, the
// neighbouring sections, and how much of our proof chain each of them
// is known to have acknowledged.
//
// Invariant: neighbour prefixes are pairwise disjoint, each is a
// neighbour of our prefix, and together with ours they cover the part
// of the name space we claim to know.
type Map struct {
	our       Proven[EldersInfo]
	neighbors map[xorname.Prefix]Proven[EldersInfo]
	knowledge map[xorname.Prefix]uint64
}

// NewMap builds a Map with the given own-section committee.
func NewMap(our Proven[EldersInfo]) *Map {
	return &Map{
		our:       our,
		neighbors: make(map[xorname.Prefix]Proven[EldersInfo]),
		knowledge: make(map[xorname.Prefix]uint64),
	}
}

// Our returns the current own committee with its proof.
func (m *Map) Our() Proven[EldersInfo] { return m.our }

// OurInfo returns the current own committee.
func (m *Map) OurInfo() EldersInfo { return m.our.Value }

// OurPrefix returns our section's prefix.
func (m *Map) OurPrefix() xorname.Prefix { return m.our.Value.Prefix }

// IsElder reports whether name is in our current committee.
func (m *Map) IsElder(name xorname.Name) bool {
	return m.our.Value.Contains(name)
}

// GetElder scans our own and all neighbour committees for name.
func (m *Map) GetElder(name xorname.Name) (peer.Peer, bool) {
	if p, ok := m.our.Value.Elders[name]; ok {
		return p, true
	}
	for _, n := range m.neighbors {
		if p, ok := n.Value.Elders[name]; ok {
			return p, true
		}
	}
	return peer.Peer{}, false
}

// Neighbors returns the neighbour committees, unordered.
func (m *Map) Neighbors() []EldersInfo {
	out := make([]EldersInfo, 0, len(m.neighbors))
	for _, n := range m.neighbors {
		out = append(out, n.Value)
	}
	return out
}

// Prefixes returns all known prefixes: ours plus the neighbours'.
func (m *Map) Prefixes() []xorname.Prefix {
	out := make([]xorname.Prefix, 0, len(m.neighbors)+1)
	out = append(out, m.our.Value.Prefix)
	for p := range m.neighbors {
		out = append(out, p)
	}
	return out
}

// all returns every known committee, ours first.
func (m *Map) all() []EldersInfo {
	out := make([]EldersInfo, 0, len(m.neighbors)+1)
	out = append(out, m.our.Value)
	for _, n := range m.neighbors {
		out = append(out, n.Value)
	}
	return out
}

// Closest returns the known section whose prefix is closest to target,
// ties broken by longer prefix then lexicographically.
func (m *Map) Closest(target xorname.Name) EldersInfo {
	sections := m.SortedByDistanceTo(target)
	return sections[0]
}

// SortedByDistanceTo returns all known sections, closest to target
// first.
func (m *Map) SortedByDistanceTo(target xorname.Name) []EldersInfo {
	sections := m.all()
	sort.Slice(sections, func(i, j int) bool {
		return prefixCloser(target, sections[i].Prefix, sections[j].Prefix)
	})
	return sections
}

// prefixCloser mirrors xorname.Closest's metric: longest common prefix
// with the target wins, then the longer prefix, then lexicographic.
func prefixCloser(target xorname.Name, a, b xorname.Prefix) bool {
	ca := a.Name().CommonPrefixLen(target)
	if ca > a.Bits() {
		ca = a.Bits()
	}
	cb := b.Name().CommonPrefixLen(target)
	if cb > b.Bits() {
		cb = b.Bits()
	}
	if ca != cb {
		return ca > cb
	}
	if a.Bits() != b.Bits() {
		return a.Bits() > b.Bits()
	}
	return xorname.CmpDistance(target, a.Name(), b.Name()) < 0
}

// SetOur installs a newer committee for our own prefix (same prefix:
// elder churn without split).
func (m *Map) SetOur(proven Proven[EldersInfo]) error {
	if !proven.Value.Prefix.Equal(m.our.Value.Prefix) {
		return fmt.Errorf("section: SetOur prefix %s != ours %s", proven.Value.Prefix, m.our.Value.Prefix)
	}
	m.our = proven
	return nil
}

// Split installs the two post-split committees. The half matching
// ourName becomes our section, the other becomes a neighbour.
// Neighbour entries no longer adjacent to the shrunk prefix are
// dropped along with their knowledge entries.
func (m *Map) Split(a, b Proven[EldersInfo], ourName xorname.Name) error {
	if !a.Value.Prefix.Popped().Equal(m.our.Value.Prefix) ||
		!b.Value.Prefix.Popped().Equal(m.our.Value.Prefix) {
		return fmt.Errorf("section: split halves %s/%s are not children of %s",
			a.Value.Prefix, b.Value.Prefix, m.our.Value.Prefix)
	}
	if !a.Value.Prefix.Matches(ourName) {
		a, b = b, a
	}
	if !a.Value.Prefix.Matches(ourName) {
		return fmt.Errorf("section: neither split half matches our name")
	}
	m.our = a
	m.insertNeighbor(b)
	m.dropNonNeighbors()
	return nil
}

// Merge collapses our section and its sibling into the parent
// committee.
func (m *Map) Merge(parent Proven[EldersInfo]) error {
	if !parent.Value.Prefix.Equal(m.our.Value.Prefix.Popped()) {
		return fmt.Errorf("section: merge target %s is not parent of %s",
			parent.Value.Prefix, m.our.Value.Prefix)
	}
	sibling := m.our.Value.Prefix.Sibling()
	delete(m.neighbors, sibling)
	delete(m.knowledge, sibling)
	m.our = parent
	return nil
}

// UpdateNeighbor installs a committee for a neighbouring prefix,
// displacing any stale entries it covers or that cover it (a
// neighbour's split or merge).
func (m *Map) UpdateNeighbor(proven Proven[EldersInfo]) error {
	p := proven.Value.Prefix
	if p.IsPrefixOf(m.our.Value.Prefix) || m.our.Value.Prefix.IsPrefixOf(p) {
		return fmt.Errorf("section: %s is not a neighbour of %s", p, m.our.Value.Prefix)
	}
	m.insertNeighbor(proven)
	return nil
}

func (m *Map) insertNeighbor(proven Proven[EldersInfo]) {
	p := proven.Value.Prefix
	for existing := range m.neighbors {
		if existing.IsPrefixOf(p) || p.IsPrefixOf(existing) {
			if !existing.Equal(p) {
				delete(m.neighbors, existing)
				delete(m.knowledge, existing)
			}
		}
	}
	m.neighbors[p] = proven
}

// dropNonNeighbors removes entries that stopped being adjacent to our
// prefix, typically after we split.
func (m *Map) dropNonNeighbors() {
	for p := range m.neighbors {
		if !xorname.IsNeighbor(p, m.our.Value.Prefix) {
			delete(m.neighbors, p)
			delete(m.knowledge, p)
		}
	}
}

// KnowledgeIndex returns the proof-chain index the given section is
// known to have acknowledged; zero if unknown.
func (m *Map) KnowledgeIndex(p xorname.Prefix) uint64 {
	return m.knowledge[p]
}

// UpdateKnowledge raises the acknowledged chain index for a prefix.
// Knowledge never goes backwards.
func (m *Map) UpdateKnowledge(p xorname.Prefix, index uint64) {
	if index > m.knowledge[p] {
		m.knowledge[p] = index
	}
}
