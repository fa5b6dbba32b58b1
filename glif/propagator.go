// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glif

import "github.com/chewxy/math32"

///////////////////////////////////////////////////////////////////////
//  propagator.go computes the exact-integration coefficients: for the
//  linear membrane and synaptic dynamics with input held constant over
//  a step, the state transition has a closed form, so the coefficients
//  below advance the state with no step-size-dependent truncation error.

// glif.Propagators holds the exact-integration coefficients for one
// neuron, derived from its parameters and the global step size, and
// recomputed whenever either changes (tracked via the Vers stamp and
// StepMs).  Naming follows the conventional propagator-matrix indices:
// state ordering is (y1, y2, V), so e.g. P32 maps the synaptic decay
// stage y2 onto the membrane potential V.
type Propagators struct {

	// membrane potential decay over one step: exp(-h / tau_m)
	P33 float32

	// charge transferred to the potential by a constant current over one step
	P30 float32

	// per-receptor decay of the synaptic rise stage: exp(-h / tau_syn)
	P11 []float32

	// per-receptor transfer from rise to decay stage: h * P11
	P21 []float32

	// per-receptor decay of the synaptic decay stage (equals P11 for alpha kinetics)
	P22 []float32

	// per-receptor transfer from the rise stage onto the potential (stability-switched)
	P31 []float32

	// per-receptor transfer from the decay stage onto the potential (stability-switched)
	P32 []float32

	// per-receptor initial value of the alpha PSC for a unit-weight spike: e / tau_syn
	PSCInit []float32

	// step size these coefficients were computed for, in msec
	StepMs float32 `view:"-"`

	// parameter version stamp these coefficients were computed from
	Vers int `view:"-"`
}

// Current returns true if the coefficients are up to date for the given
// parameters and step size.
func (pp *Propagators) Current(pr *Params, h float32) bool {
	return pp.Vers == pr.Vers && pp.StepMs == h && len(pp.P11) == pr.NReceptors()
}

// Update computes all coefficients for the given parameters and step
// size h (msec).  Pure function of its inputs: no other state is read
// or written, so concurrent updates for different neurons are safe.
func (pp *Propagators) Update(pr *Params, h float32) {
	n := pr.NReceptors()
	if len(pp.P11) != n {
		pp.P11 = make([]float32, n)
		pp.P21 = make([]float32, n)
		pp.P22 = make([]float32, n)
		pp.P31 = make([]float32, n)
		pp.P32 = make([]float32, n)
		pp.PSCInit = make([]float32, n)
	}

	tau := pr.Tau()
	pp.P33 = math32.Exp(-h / tau)
	pp.P30 = (1 / pr.CM) * (1 - pp.P33) * tau

	for i := 0; i < n; i++ {
		ts := pr.TauSyn[i]
		pp.P11[i] = math32.Exp(-h / ts)
		pp.P22[i] = pp.P11[i]
		pp.P21[i] = h * pp.P11[i]
		pp.P31[i] = Propagator31(ts, tau, pr.CM, h)
		pp.P32[i] = Propagator32(ts, tau, pr.CM, h)
		pp.PSCInit[i] = math32.E / ts
	}

	pp.StepMs = h
	pp.Vers = pr.Vers
}

// Propagator31 returns the exact propagator mapping the synaptic rise
// stage y1 onto the membrane potential over a step of length h, for
// synaptic time constant tauSyn, membrane time constant tau, and
// capacitance c.  The general closed form has a removable singularity
// at tauSyn == tau; when the two time constants nearly coincide and the
// general form has lost precision (its deviation from the singular
// limit exceeds twice the leading-order expansion term), the singular
// limit h^2/(2c) * exp(-h/tau) is used instead.
func Propagator31(tauSyn, tau, c, h float32) float32 {
	p31Lin := 1 / (3 * c * tau * tau) * h * h * h * (tauSyn - tau) * math32.Exp(-h/tau)
	p31 := 1 / c * (math32.Exp(-h/tauSyn)*math32.Expm1(-h/tau+h/tauSyn)/(tau/tauSyn-1)*tau -
		h*math32.Exp(-h/tauSyn)) / (tau/tauSyn - 1) * tau
	p31Sing := h * h / (2 * c) * math32.Exp(-h/tau)
	if tau == tauSyn || (math32.Abs(tau-tauSyn) < 0.1 && math32.Abs(p31-p31Sing) > 2*math32.Abs(p31Lin)) {
		return p31Sing
	}
	return p31
}

// Propagator32 returns the exact propagator mapping the synaptic decay
// stage y2 onto the membrane potential over a step of length h, with
// the same stability switch as Propagator31 -- the singular limit here
// is h/c * exp(-h/tau).
func Propagator32(tauSyn, tau, c, h float32) float32 {
	p32Lin := 1 / (2 * c * tau * tau) * h * h * (tauSyn - tau) * math32.Exp(-h/tau)
	p32Sing := h / c * math32.Exp(-h/tau)
	p32 := -tau / (c * (1 - tau/tauSyn)) * math32.Exp(-h/tauSyn) * math32.Expm1(h*(1/tauSyn-1/tau))
	if tau == tauSyn || (math32.Abs(tau-tauSyn) < 0.1 && math32.Abs(p32-p32Sing) > 2*math32.Abs(p32Lin)) {
		return p32Sing
	}
	return p32
}
