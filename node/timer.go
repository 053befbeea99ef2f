// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import "time"

// Stage timeouts.
const (
	// BootstrapTimeout bounds the search for a contactable seed.
	BootstrapTimeout = 20 * time.Second

	// JoinTimeout bounds a single admission attempt; on expiry the
	// node restarts from Bootstrapping.
	JoinTimeout = 60 * time.Second

	// KnowledgeTimeout paces an adult's MemberKnowledge reports to
	// its elders.
	KnowledgeTimeout = 2 * time.Second
)

// timerFire is delivered on the loop when a scheduled timer expires.
type timerFire struct {
	token uint64
}

// timer issues single-shot timers identified by a monotonically
// increasing token. Cancellation means ignoring the callback when it
// fires: the holder compares the fired token against the one it last
// scheduled.
type timer struct {
	next  uint64
	fires chan timerFire
}

func newTimer() *timer {
	return &timer{fires: make(chan timerFire, 16)}
}

// After schedules a fire after d and returns its token. The fire
// arrives on Fires and is serialized with message handling by the
// node's select loop.
func (t *timer) After(d time.Duration) uint64 {
	t.next++
	token := t.next
	go func() {
		time.Sleep(d)
		select {
		case t.fires <- timerFire{token: token}:
		default:
			// The loop is gone or hopelessly behind; dropping a timer
			// fire is equivalent to it being cancelled.
		}
	}()
	return token
}

// Fires is the loop's timer channel.
func (t *timer) Fires() <-chan timerFire { return t.fires }
