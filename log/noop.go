// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package log

// NoOp discards everything.
type NoOp struct{}

// NewNoOp returns a logger that doesn't log anything.
func NewNoOp() Logger { return NoOp{} }

func (NoOp) Debug(string, ...any) {}
func (NoOp) Info(string, ...any)  {}
func (NoOp) Warn(string, ...any)  {}
func (NoOp) Error(string, ...any) {}

func (n NoOp) With(...any) Logger { return n }
