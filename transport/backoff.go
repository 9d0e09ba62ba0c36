// Package transport owns the realtime connection to the chat service:
// dialing, reconnection with capped backoff, the wire codec, and the
// translation of raw frames into typed inbound events.
package transport

import "time"

// Backoff is the reconnect delay policy: exponential growth from a base
// delay up to a ceiling, unbounded in attempt count.
type Backoff struct {
	base    time.Duration
	ceiling time.Duration
	attempt int
}

func NewBackoff(base, ceiling time.Duration) *Backoff {
	return &Backoff{base: base, ceiling: ceiling}
}

// Next advances the attempt counter and returns the delay to wait before
// the next dial. The delay doubles per attempt until it hits the ceiling.
func (b *Backoff) Next() time.Duration {
	delay := b.base
	for i := 0; i < b.attempt; i++ {
		delay *= 2
		if delay >= b.ceiling {
			delay = b.ceiling
			break
		}
	}
	b.attempt++
	return delay
}

// Reset is called after a successful connection so the next drop starts
// over from the base delay.
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Attempt returns how many dials have been made since the last reset.
func (b *Backoff) Attempt() int {
	return b.attempt
}

// Current returns the delay the next call to Next would produce.
func (b *Backoff) Current() time.Duration {
	delay := b.base
	for i := 0; i < b.attempt; i++ {
		delay *= 2
		if delay >= b.ceiling {
			return b.ceiling
		}
	}
	return delay
}
