// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glif

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

///////////////////////////////////////////////////////////////////////
//  act.go contains the update kernel: the per-step state machine that
//  advances one neuron through a contiguous run of steps.

// ErrResetAboveThr is the fatal consistency violation: the post-reset
// membrane potential exceeds the post-reset threshold, meaning the
// parameter combination is mathematically inconsistent with the reset
// model.  The simulation driver must halt on it; it is never retried
// or clamped.
var ErrResetAboveThr = errors.New("glif: voltage reset above threshold")

// Spike is an outbound spike event, handed to the delivery collaborator.
type Spike struct {

	// global step during which the threshold crossing occurred
	Step int

	// sub-step crossing time, in msec measured back from the end of the step
	Offset float32
}

// SpikeFunc receives outbound spikes from the update kernel.  Delivery
// to target neurons (with per-connection delay and receptor addressing)
// is the collaborator's job -- the producing neuron never writes into
// another neuron's buffers.
type SpikeFunc func(sp Spike)

// Recorder is the logging hook invoked once per step with the updated
// neuron state.  StepLog and RunStats implement it.
type Recorder interface {

	// RecordStep records the state of the neuron after the step at
	// tm.Step + lag has been computed.
	RecordStep(pr *Params, tm *Time, lag int, nrn *Neuron)
}

// SpikeOffset returns the sub-step offset of the threshold crossing,
// measured back from the end of a step of length h, by intersecting the
// linear membrane potential trajectory (vOld -> vNew) with the linear
// threshold trajectory (thOld -> thNew) across the step.  Assumes the
// trajectories do cross (vOld <= thOld, vNew > thNew).
func SpikeOffset(vOld, thOld, vNew, thNew, h float32) float32 {
	return (1 - (vOld-thOld)/((thNew-thOld)-(vNew-vOld))) * h
}

// UpdateRange advances the neuron through nsteps consecutive steps
// starting at tm.Step, in the fixed per-step order: spike-driven
// threshold decay, refractory countdown / exit resets, exact membrane
// integration with threshold evaluation and spike detection, synaptic
// stage advance with same-step input consumption, external current
// pickup, and recording.  Outbound spikes go to send (if non-nil) with
// their sub-step offsets; rec (if non-nil) is invoked once per step.
//
// tm is read-only here: the external scheduler advances it once per
// range, after all neurons have been updated and all deliveries for the
// next range have completed.  Updates of different neurons share no
// mutable state and may run in parallel goroutines.
//
// Returns ErrResetAboveThr (wrapped) if the post-reset potential
// exceeds the threshold, and a capacity error if nsteps exceeds the
// delivery horizon; in either case the simulation must not continue.
func (pr *Params) UpdateRange(nrn *Neuron, tm *Time, nsteps int, send SpikeFunc, rec Recorder) error {
	h := tm.StepMs
	if nsteps > nrn.Currents.Horizon() {
		return fmt.Errorf("glif: update of %d steps exceeds delivery horizon %d", nsteps, nrn.Currents.Horizon())
	}
	if !nrn.Props.Current(pr, h) {
		nrn.Props.Update(pr, h)
	}
	pp := &nrn.Props

	vOld := nrn.Vm
	thOld := nrn.Thr

	for lag := 0; lag < nsteps; lag++ {
		nrn.Spike = 0

		// exact decay of the spike-driven threshold component, every step
		if pr.HasReset {
			nrn.ThrSpike *= math32.Exp(-pr.ThSpike.Decay * h)
		}

		if nrn.TRefRemain > 0 {
			// count down in time (not steps), holding the potential at its
			// value from the crossing step
			nrn.TRefRemain -= h
			if nrn.TRefRemain <= 0 {
				if err := pr.RefracExit(nrn); err != nil {
					return err
				}
			} else {
				nrn.Vm = vOld
			}
		} else {
			pr.IntegrateStep(nrn, pp, vOld, h)
			if nrn.Vm > nrn.Thr {
				nrn.TRefRemain = pr.TRef
				off := SpikeOffset(vOld, thOld, nrn.Vm, nrn.Thr, h)
				nrn.Spike = 1
				nrn.SpikeOff = off
				if send != nil {
					send(Spike{Step: tm.Step + lag, Offset: off})
				}
			}
		}

		pr.PSCStep(nrn, pp, lag)
		nrn.I = nrn.Currents.ConsumeAt(lag)

		if rec != nil {
			rec.RecordStep(pr, tm, lag, nrn)
		}

		vOld = nrn.Vm
		thOld = nrn.Thr
	}

	for i := range nrn.Spikes {
		nrn.Spikes[i].Shift(nsteps)
	}
	nrn.Currents.Shift(nsteps)
	return nil
}

// RefracExit applies the variant-gated effects of leaving the
// refractory period: after-spike current reset, voltage reset (fixed or
// affine in the potential at crossing), and for the R models the
// spike-driven threshold bump with threshold recomputation.  Returns
// the fatal ErrResetAboveThr if the post-reset potential exceeds the
// post-reset threshold.
func (pr *Params) RefracExit(nrn *Neuron) error {
	if pr.HasASC {
		for a := range nrn.ASC {
			nrn.ASC[a] = pr.ASC.Amps[a] + nrn.ASC[a]*pr.ASC.R[a]*math32.Exp(-pr.ASC.K[a]*pr.TRef)
		}
	}
	if pr.HasReset {
		nrn.Vm = pr.Reset.A*nrn.Vm + pr.Reset.B
		nrn.ThrSpike += pr.ThSpike.Amp
		nrn.Thr = nrn.ThrSpike + nrn.ThrVolt + pr.ThInf
	} else {
		nrn.Vm = pr.VReset
	}
	if nrn.Vm > nrn.Thr {
		return fmt.Errorf("%w: potential %g > threshold %g", ErrResetAboveThr, nrn.Vm, nrn.Thr)
	}
	return nil
}

// IntegrateStep computes the new membrane potential and threshold from
// the previous potential vOld via the exact propagators: after-spike
// current sum and decay, membrane decay plus charge from external and
// adaptation currents, per-receptor synaptic contributions, then the
// variant-gated voltage threshold component and the combined threshold.
func (pr *Params) IntegrateStep(nrn *Neuron, pp *Propagators, vOld, h float32) {
	nrn.AScSum = 0
	if pr.HasASC {
		for a := range nrn.ASC {
			nrn.AScSum += nrn.ASC[a]
			nrn.ASC[a] *= math32.Exp(-pr.ASC.K[a] * h)
		}
	}

	nrn.Vm = vOld*pp.P33 + (nrn.I+nrn.AScSum)*pp.P30
	nrn.ISyn = 0
	for i := range nrn.Y1 {
		nrn.Vm += pp.P31[i]*nrn.Y1[i] + pp.P32[i]*nrn.Y2[i]
		nrn.ISyn += nrn.Y2[i]
	}

	if pr.HasThVolt {
		nrn.ThrVolt = pr.ThVoltFm(nrn.ThrVolt, vOld, nrn.I+nrn.AScSum, h)
	}
	nrn.Thr = nrn.ThrSpike + nrn.ThrVolt + pr.ThInf

	if pr.Noise.Type == VmNoise {
		nrn.Vm += float32(pr.Noise.Gen(-1))
	}
}

// ThVoltFm returns the exact closed-form update of the voltage-driven
// threshold component over one step: thv is the previous component
// value, vOld the previous membrane potential, and itot the total
// external plus adaptation current held constant over the step.
func (pr *Params) ThVoltFm(thv, vOld, itot, h float32) float32 {
	beta := itot / pr.G
	phi := pr.ThVolt.A / (pr.ThVolt.B - pr.G/pr.CM)
	ab := pr.ThVolt.A / pr.ThVolt.B
	return phi*(vOld-beta)*math32.Exp(-pr.G*h/pr.CM) +
		math32.Exp(-pr.ThVolt.B*h)*(thv-phi*(vOld-beta)-ab*beta) +
		ab*beta
}

// PSCStep advances each receptor's alpha-shaped synaptic stages through
// their exact decay and adds the input consumed for this step into the
// rise stage: spikes delivered for this step take effect on the next
// step's potential.
func (pr *Params) PSCStep(nrn *Neuron, pp *Propagators, lag int) {
	for i := range nrn.Y1 {
		nrn.Y2[i] = pp.P21[i]*nrn.Y1[i] + pp.P22[i]*nrn.Y2[i]
		nrn.Y1[i] *= pp.P11[i]
		nrn.Y1[i] += pp.PSCInit[i] * nrn.Spikes[i].ConsumeAt(lag)
	}
}
