// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package set provides a small generic set, used by the node to track
// which seed addresses it has already contacted while bootstrapping.
package set

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
)

// Set is a set of elements.
type Set[T comparable] map[T]struct{}

// Of returns a Set initialized with elts.
func Of[T comparable](elts ...T) Set[T] {
	s := make(Set[T], len(elts))
	s.Add(elts...)
	return s
}

// Add inserts all the elements into the set.
func (s *Set[T]) Add(elts ...T) {
	if *s == nil {
		*s = make(Set[T], len(elts))
	}
	for _, elt := range elts {
		(*s)[elt] = struct{}{}
	}
}

// Union adds all the elements from other to this set.
func (s *Set[T]) Union(other Set[T]) {
	for elt := range other {
		s.Add(elt)
	}
}

// Contains reports whether elt is in the set.
func (s Set[T]) Contains(elt T) bool {
	_, ok := s[elt]
	return ok
}

// Remove deletes the given elements, if present.
func (s Set[T]) Remove(elts ...T) {
	for _, elt := range elts {
		delete(s, elt)
	}
}

// Len returns the number of elements in the set.
func (s Set[_]) Len() int { return len(s) }

// List returns the elements as a slice, in unspecified order.
func (s Set[T]) List() []T { return maps.Keys(s) }

// Equals reports whether both sets contain the same elements.
func (s Set[T]) Equals(other Set[T]) bool { return maps.Equal(s, other) }

// String renders the set for logs.
func (s Set[T]) String() string {
	sb := strings.Builder{}
	sb.WriteString("{")
	first := true
	for elt := range s {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%v", elt)
	}
	sb.WriteString("}")
	return sb.String()
}
