// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package member

import (
	"fmt"
	"sort"

	"github.com/luxfi/routing/peer"
	"github.com/luxfi/routing/xorname"
)

// Table is the per-section member table, indexed by name. At most one
// entry exists per name.
type Table struct {
	members map[xorname.Name]Info
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{members: make(map[xorname.Name]Info)}
}

// Get returns the record for name, if any.
func (t *Table) Get(name xorname.Name) (Info, bool) {
	info, ok := t.members[name]
	return info, ok
}

// Len returns the number of entries, tombstones included.
func (t *Table) Len() int { return len(t.members) }

// AddJoined records a decided online event for a brand-new member at
// MinAge. It refuses to resurrect a tombstoned name or demote an
// existing state.
func (t *Table) AddJoined(p peer.Peer) error {
	return t.add(p, MinAge)
}

// AddRelocated records a decided online event for a member that
// completed a relocation into this section: its age doubles.
func (t *Table) AddRelocated(p peer.Peer, previousAge uint8) error {
	return t.add(p, Info{Age: previousAge}.DoubledAge())
}

func (t *Table) add(p peer.Peer, age uint8) error {
	if existing, ok := t.members[p.Name]; ok {
		// A tombstone blocks rejoin until the next prune; anything
		// else is a duplicate online decision.
		if existing.State == Left {
			return fmt.Errorf("member: %s left and is not yet pruned", p.Name)
		}
		return fmt.Errorf("member: %s already present as %s", p.Name, existing.State)
	}
	t.members[p.Name] = Info{Peer: p, Age: age, State: Joined}
	return nil
}

// StartRelocating marks a joined member as selected for relocation to
// target. The member keeps counting as active until it actually leaves.
func (t *Table) StartRelocating(name xorname.Name, target xorname.Prefix) error {
	info, ok := t.members[name]
	if !ok {
		return fmt.Errorf("member: %s not found", name)
	}
	if info.State != Joined {
		return fmt.Errorf("member: cannot relocate %s in state %s", name, info.State)
	}
	info.State = Relocating
	info.RelocateTarget = target
	t.members[name] = info
	return nil
}

// SetLeft tombstones a member on a decided offline event or on
// completion of its relocation away. Idempotent for already-left
// members.
func (t *Table) SetLeft(name xorname.Name) (Info, error) {
	info, ok := t.members[name]
	if !ok {
		return Info{}, fmt.Errorf("member: %s not found", name)
	}
	if info.State == Left {
		return info, nil
	}
	info.State = Left
	t.members[name] = info
	return info, nil
}

// Prune drops tombstones. Called at section-key rotation.
func (t *Table) Prune() {
	for name, info := range t.members {
		if info.State == Left {
			delete(t.members, name)
		}
	}
}

// ActiveCount returns the number of members still counting toward the
// section size.
func (t *Table) ActiveCount() int {
	n := 0
	for _, info := range t.members {
		if info.IsActive() {
			n++
		}
	}
	return n
}

// Active returns the active members sorted by name, for deterministic
// iteration.
func (t *Table) Active() []Info {
	out := make([]Info, 0, len(t.members))
	for _, info := range t.members {
		if info.IsActive() {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return compareNames(out[i].Peer.Name, out[j].Peer.Name) < 0
	})
	return out
}

// EldestMatching returns up to count oldest active members whose names
// match prefix, oldest first, ties broken by name. This is the elder
// candidate selection.
func (t *Table) EldestMatching(prefix xorname.Prefix, count int) []Info {
	matching := make([]Info, 0, len(t.members))
	for _, info := range t.members {
		if info.IsActive() && prefix.Matches(info.Peer.Name) {
			matching = append(matching, info)
		}
	}
	sort.Slice(matching, func(i, j int) bool {
		if matching[i].Age != matching[j].Age {
			return matching[i].Age > matching[j].Age
		}
		return compareNames(matching[i].Peer.Name, matching[j].Peer.Name) < 0
	})
	if len(matching) > count {
		matching = matching[:count]
	}
	return matching
}

func compareNames(a, b xorname.Name) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
