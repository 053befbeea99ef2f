// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire provides the canonical, deterministic byte-encoding
// that every signed record in this module is hashed and signed over.
// Two implementations must encode the same record byte-identically so
// signature verification interoperates; rather than hand-roll a
// big-endian/length-prefixed encoder, this uses canonical CBOR
// (RFC 8949 §4.2.1: definite-length, sorted map keys), which gives
// that guarantee for free.
package wire

import (
	"crypto/sha256"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic("wire: building canonical encode mode: " + err.Error())
	}
	return mode
}

func mustDecMode() cbor.DecMode {
	mode, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("wire: building decode mode: " + err.Error())
	}
	return mode
}

// Marshal canonically encodes v.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Digest returns the SHA-256 digest of v's canonical encoding. The
// signature accumulator keys shares on it and the router's dedup
// filters key on it.
func Digest(v any) ([32]byte, error) {
	data, err := Marshal(v)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}
