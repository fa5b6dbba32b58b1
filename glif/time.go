// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glif

// glif.Time contains the global step counter and step size shared by
// all neurons.  The update kernel reads it but never advances it: the
// external scheduler advances the counter once per step range, after
// all neuron updates and event deliveries for that range are complete.
type Time struct {

	// accumulated simulation time, in msec
	Time float32

	// current global step counter, defining "now" for delayed delivery
	Step int

	// step size h, in msec -- changing it invalidates cached propagators
	StepMs float32 `def:"0.1"`
}

// NewTime returns a new Time struct with default parameters
func NewTime() *Time {
	tm := &Time{}
	tm.Defaults()
	return tm
}

// Defaults sets default values
func (tm *Time) Defaults() {
	tm.StepMs = 0.1
}

// Reset resets the counters back to zero
func (tm *Time) Reset() {
	tm.Time = 0
	tm.Step = 0
	if tm.StepMs == 0 {
		tm.Defaults()
	}
}

// StepsInc advances the step counter by n steps
func (tm *Time) StepsInc(n int) {
	tm.Step += n
	tm.Time += float32(n) * tm.StepMs
}
