// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wrappers collects errors accumulated across a multi-step
// operation into one.
package wrappers

import (
	"errors"
	"strings"
)

// Errs is a collection of errors. The zero value is ready to use.
type Errs struct {
	errs []error
}

// Add appends each non-nil error to the collection.
func (e *Errs) Add(errs ...error) {
	for _, err := range errs {
		if err != nil {
			e.errs = append(e.errs, err)
		}
	}
}

// Errored reports whether any errors have been added.
func (e *Errs) Errored() bool { return len(e.errs) > 0 }

// Err returns the collected errors as a single error, or nil.
func (e *Errs) Err() error {
	switch len(e.errs) {
	case 0:
		return nil
	case 1:
		return e.errs[0]
	default:
		msgs := make([]string, len(e.errs))
		for i, err := range e.errs {
			msgs[i] = err.Error()
		}
		return errors.New(strings.Join(msgs, "; "))
	}
}
