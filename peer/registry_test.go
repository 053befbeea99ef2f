// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/routing/xorname"
)

type fakeCloser struct {
	closed []Peer
}

func (f *fakeCloser) Close(p Peer) { f.closed = append(f.closed, p) }

func TestRegistryInsertLookupRemove(t *testing.T) {
	reg := NewRegistry()
	p := Peer{Name: xorname.Name{1}, Address: "127.0.0.1:1"}
	reg.Insert(p)

	got, ok := reg.Lookup(p.Name)
	require.True(t, ok)
	require.Equal(t, p, got)
	require.Equal(t, 1, reg.Len())

	closer := &fakeCloser{}
	reg.Remove(p.Name, closer)
	_, ok = reg.Lookup(p.Name)
	require.False(t, ok)
	require.Equal(t, 0, reg.Len())
	require.Equal(t, []Peer{p}, closer.closed)
}

func TestRegistryRemoveUnknownIsNoop(t *testing.T) {
	reg := NewRegistry()
	closer := &fakeCloser{}
	reg.Remove(xorname.Name{9}, closer)
	require.Empty(t, closer.closed)
}

func TestRegistryIterate(t *testing.T) {
	reg := NewRegistry()
	reg.Insert(Peer{Name: xorname.Name{1}})
	reg.Insert(Peer{Name: xorname.Name{2}})

	seen := map[xorname.Name]bool{}
	reg.Iterate(func(p Peer) { seen[p.Name] = true })
	require.Len(t, seen, 2)
}
