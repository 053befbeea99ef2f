// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package routing

import (
	"errors"
	"fmt"

	"github.com/luxfi/routing/accumulator"
	"github.com/luxfi/routing/bls"
	"github.com/luxfi/routing/delivery"
	"github.com/luxfi/routing/node"
	"github.com/luxfi/routing/router"
)

// Kind classifies every failure this module surfaces. User-visible
// failures are always one of these; anything else is a bug.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindCannotRoute
	KindInvalidSource
	KindInvalidDestination
	KindUntrustedMessage
	KindBadSignature
	KindFailedSignature
	KindInvalidSignatureShare
	KindInvalidState
	KindBootstrapFailed
	KindJoinFailed
	KindTransportError
	KindSerializationError
)

func (k Kind) String() string {
	switch k {
	case KindCannotRoute:
		return "CannotRoute"
	case KindInvalidSource:
		return "InvalidSource"
	case KindInvalidDestination:
		return "InvalidDestination"
	case KindUntrustedMessage:
		return "UntrustedMessage"
	case KindBadSignature:
		return "BadSignature"
	case KindFailedSignature:
		return "FailedSignature"
	case KindInvalidSignatureShare:
		return "InvalidSignatureShare"
	case KindInvalidState:
		return "InvalidState"
	case KindBootstrapFailed:
		return "BootstrapFailed"
	case KindJoinFailed:
		return "JoinFailed"
	case KindTransportError:
		return "TransportError"
	case KindSerializationError:
		return "SerializationError"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is across package boundaries. The lower-level
// packages own the canonical values; these aliases keep the taxonomy
// in one place for embedders.
var (
	ErrCannotRoute           = delivery.ErrCannotRoute
	ErrUntrustedMessage      = router.ErrUntrusted
	ErrInvalidSource         = router.ErrInvalidSource
	ErrInvalidDestination    = router.ErrInvalidDestination
	ErrFailedSignature       = bls.ErrThresholdFailure
	ErrInvalidSignatureShare = accumulator.ErrInvalidShare
	ErrDuplicateShare        = accumulator.ErrDuplicateShare
	ErrInvalidState          = node.ErrInvalidState
	ErrBootstrapFailed       = node.ErrBootstrapFailed
)

// Error couples a Kind with its cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf maps an error to its taxonomy kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrCannotRoute):
		return KindCannotRoute
	case errors.Is(err, ErrInvalidSource):
		return KindInvalidSource
	case errors.Is(err, ErrInvalidDestination):
		return KindInvalidDestination
	case errors.Is(err, ErrUntrustedMessage):
		return KindUntrustedMessage
	case errors.Is(err, ErrInvalidSignatureShare), errors.Is(err, ErrDuplicateShare):
		return KindInvalidSignatureShare
	case errors.Is(err, ErrFailedSignature):
		return KindFailedSignature
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrBootstrapFailed):
		return KindBootstrapFailed
	default:
		var e *Error
		if errors.As(err, &e) {
			return e.Kind
		}
		return KindUnknown
	}
}
