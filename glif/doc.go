// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package glif implements the generalized leaky integrate-and-fire (GLIF)
family of spiking point-neuron models (glif 1-5), using exact
propagator-based integration: the linear membrane and synaptic dynamics
are advanced with closed-form decay coefficients computed once per
(parameters, step size) pair, so the discrete update reproduces the
continuous-time solution at any step size, with no truncation error.

The five model variants share one update kernel, differentiated by
capability flags resolved once from the model type at parameter-update
time: an affine voltage-dependent reset with a spike-driven threshold
component (the "R" models), after-spike adaptation currents ("ASC"),
and a voltage-driven threshold component ("A").

Synaptic input arrives as weighted spike events on numbered receptor
ports, each with its own alpha-shaped post-synaptic current kinetics,
buffered for delayed delivery in spikebuf ring buffers.  Spike output
carries a sub-step offset locating the threshold crossing within the
step by linear interpolation of the voltage and threshold trajectories.
*/
package glif
