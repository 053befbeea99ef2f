// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/routing/peer"
)

func TestLoopbackDelivery(t *testing.T) {
	net := NewNetwork()
	a := net.Join(peer.Address("a"))
	b := net.Join(peer.Address("b"))

	require.NoError(t, a.SendTo(context.Background(), b.LocalAddress(), []byte("ping")))

	select {
	case dg := <-b.Recv():
		require.Equal(t, peer.Address("a"), dg.From)
		require.Equal(t, []byte("ping"), dg.Bytes)
	case <-time.After(time.Second):
		t.Fatal("datagram not delivered")
	}
}

func TestLoopbackUnknownEndpointFails(t *testing.T) {
	net := NewNetwork()
	a := net.Join(peer.Address("a"))
	err := a.Send(context.Background(), peer.Peer{Name: [32]byte{1}, Address: "nowhere"}, []byte("x"))
	require.Error(t, err)
}

func TestLoopbackDisconnectSimulatesLoss(t *testing.T) {
	net := NewNetwork()
	a := net.Join(peer.Address("a"))
	b := net.Join(peer.Address("b"))
	net.Disconnect("b")

	err := a.SendTo(context.Background(), b.LocalAddress(), []byte("x"))
	require.Error(t, err)
}

func TestLoopbackSendCopiesData(t *testing.T) {
	net := NewNetwork()
	a := net.Join(peer.Address("a"))
	b := net.Join(peer.Address("b"))

	buf := []byte("mutate me")
	require.NoError(t, a.SendTo(context.Background(), "b", buf))
	buf[0] = 'X'

	dg := <-b.Recv()
	require.Equal(t, []byte("mutate me"), dg.Bytes)
}
