// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package glif is the overall repository for the generalized leaky
integrate-and-fire (GLIF) spiking neuron models implemented in the
Go language (golang).

This top-level of the repository has no functional code -- everything is
organized into the following sub-packages:

* glif: the core implementation of the GLIF model family (glif 1-5),
covering exact propagator-based integration of the membrane potential,
multisynapse alpha-shaped post-synaptic currents, after-spike adaptation
currents, spike- and voltage-driven threshold adaptation, the refractory
state machine, and sub-step spike time interpolation.

* spikebuf: delayed-delivery ring buffers that accumulate incoming spike
weights and external currents keyed by future delivery step, consumed by
the glif update kernel.

The network-level scheduler, connectivity generation, and recording front
ends are external collaborators -- this repository owns only the
per-neuron update kernel and the interfaces those collaborators use.
*/
package glif
