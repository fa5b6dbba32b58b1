// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package spikebuf provides delayed-delivery ring buffers for spiking
neuron models.  Incoming weighted spike events and external currents are
accumulated into buckets keyed by the future step on which they become
due, and each bucket is consumed (returned and cleared) exactly once when
its step is reached.

The buffer horizon is fixed at Init time and bounds the maximum supported
delivery delay: adding a value beyond the horizon is a contract violation
reported as an error, never silently dropped.
*/
package spikebuf

import "fmt"

// Ring is a fixed-horizon ring buffer of accumulated float32 values,
// one bucket per delivery step.  The read origin marks the current step:
// AddValue offsets are relative to it, and it only moves via Shift,
// so that deliveries arriving during a run of update steps stay keyed
// relative to the origin of that run.
type Ring struct {

	// accumulated values, one bucket per step within the horizon
	Buf []float32

	// read origin index into Buf, corresponding to offset 0
	Pos int
}

// Init sets the buffer horizon (maximum number of pending delivery
// steps, which must be > 0) and clears all buckets.
func (rb *Ring) Init(horizon int) {
	if horizon <= 0 {
		horizon = 1
	}
	if len(rb.Buf) != horizon {
		rb.Buf = make([]float32, horizon)
	}
	rb.Reset()
}

// Reset zeroes all buckets and the read origin.
func (rb *Ring) Reset() {
	for i := range rb.Buf {
		rb.Buf[i] = 0
	}
	rb.Pos = 0
}

// Horizon returns the configured horizon (number of buckets).
func (rb *Ring) Horizon() int {
	return len(rb.Buf)
}

// AddValue accumulates weight w into the bucket off steps ahead of the
// read origin.  Multiple values landing on the same step sum.  A
// negative offset (delivery into the past) or an offset at or beyond
// the horizon is a contract violation returned as an error, with the
// buffer left unchanged.
func (rb *Ring) AddValue(off int, w float32) error {
	if off < 0 {
		return fmt.Errorf("spikebuf.Ring: delivery offset %d is in the past", off)
	}
	if off >= len(rb.Buf) {
		return fmt.Errorf("spikebuf.Ring: delivery offset %d exceeds horizon %d", off, len(rb.Buf))
	}
	rb.Buf[(rb.Pos+off)%len(rb.Buf)] += w
	return nil
}

// ConsumeAt returns and clears the accumulated value for the bucket off
// steps ahead of the read origin.  It is called exactly once per step
// per buffer by the update kernel, and does not move the read origin --
// use Shift after a run of steps.
func (rb *Ring) ConsumeAt(off int) float32 {
	idx := (rb.Pos + off) % len(rb.Buf)
	v := rb.Buf[idx]
	rb.Buf[idx] = 0
	return v
}

// Shift advances the read origin by n steps, after a run of n update
// steps has consumed its values.
func (rb *Ring) Shift(n int) {
	rb.Pos = (rb.Pos + n) % len(rb.Buf)
}
