// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command node runs overlay-node demos: a single-process network over
// the loopback transport, printing the events each node raises.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	routing "github.com/luxfi/routing"
	"github.com/luxfi/routing/config"
	"github.com/luxfi/routing/log"
	"github.com/luxfi/routing/peer"
	"github.com/luxfi/routing/transport"
)

var rootCmd = &cobra.Command{
	Use:   "node",
	Short: "SAFE-style sectioned overlay node tools",
}

func main() {
	rootCmd.AddCommand(simCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func simCmd() *cobra.Command {
	var (
		nodes    int
		duration time.Duration
		verbose  bool
	)
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run an in-process network on the loopback transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSim(nodes, duration, verbose)
		},
	}
	cmd.Flags().IntVar(&nodes, "nodes", 4, "number of nodes to start")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "how long to run")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "debug logging")
	return cmd
}

func runSim(nodes int, duration time.Duration, verbose bool) error {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	logger := log.NewDefault(level)
	params := config.Local()
	net := transport.NewNetwork()

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	firstTrans := net.Join(peer.Address("node-0"))
	first, firstEvents, err := routing.FirstNode(firstTrans, params, logger, nil)
	if err != nil {
		return err
	}
	go drainEvents("node-0", firstEvents)
	go func() { _ = first.Run(ctx) }()
	seeds := []peer.Address{firstTrans.LocalAddress()}

	for i := 1; i < nodes; i++ {
		addr := peer.Address(fmt.Sprintf("node-%d", i))
		trans := net.Join(addr)
		n, events, err := routing.Bootstrap(trans, params, logger, nil, seeds)
		if err != nil {
			return err
		}
		go drainEvents(string(addr), events)
		go func() { _ = n.Run(ctx) }()
	}

	<-ctx.Done()
	fmt.Printf("simulated %d nodes for %s\n", nodes, duration)
	return nil
}

func drainEvents(label string, events <-chan routing.Event) {
	for ev := range events {
		fmt.Printf("[%s] %T%+v\n", label, ev, ev)
	}
}
