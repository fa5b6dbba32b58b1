// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glif

import (
	"fmt"
	"unsafe"

	"github.com/emer/glif/spikebuf"
	"github.com/goki/ki/ints"
)

// NeuronVarStart is the byte offset of fields in the Neuron structure
// where the float32 named variables start.
// Note: all scalar recordable variables must be at the start, in
// contiguous order, before any slice or buffer fields.
const NeuronVarStart = 0

// glif.Neuron holds all of the neuron (unit) level state variables,
// mutated only by the update kernel during a step.  Potentials are
// stored relative to the resting potential EL, as in Params; the state
// dictionary and logging convert to absolute values.
type Neuron struct {

	// membrane potential, in mV relative to EL
	Vm float32

	// current combined spike threshold: baseline + spike component + voltage component
	Thr float32

	// spike-driven threshold component, bumped at each spike and decaying toward zero (R models)
	ThrSpike float32

	// voltage-driven threshold component (A model)
	ThrVolt float32

	// sum of the after-spike adaptation currents at the start of this step, in pA
	AScSum float32

	// total synaptic current from all receptor ports, in pA
	ISyn float32

	// external (injected) current consumed for this step, in pA
	I float32

	// whether the neuron spiked this step (0 or 1)
	Spike float32

	// sub-step offset of the last threshold crossing, in msec measured back from the end of the step
	SpikeOff float32

	// remaining refractory time, in msec -- > 0 means the Refractory state
	TRefRemain float32

	// after-spike adaptation current values, in pA
	ASC []float32

	// per-receptor synaptic rise-stage variables
	Y1 []float32

	// per-receptor synaptic decay-stage variables -- Y2 sums into ISyn
	Y2 []float32

	// per-receptor delayed-delivery buffers of incoming spike weights
	Spikes []spikebuf.Ring

	// delayed-delivery buffer of external current values
	Currents spikebuf.Ring

	// cached exact-integration coefficients for this neuron
	Props Propagators
}

// NeuronVars are the named scalar recordable variables, in field order
var NeuronVars = []string{"Vm", "Thr", "ThrSpike", "ThrVolt", "AScSum", "ISyn", "I", "Spike", "SpikeOff", "TRefRemain"}

var NeuronVarsMap map[string]int

func init() {
	NeuronVarsMap = make(map[string]int, len(NeuronVars))
	for i, v := range NeuronVars {
		NeuronVarsMap[v] = i
	}
}

func (nrn *Neuron) VarNames() []string {
	return NeuronVars
}

// NeuronVarIndexByName returns the index of the variable in the Neuron, or error
func NeuronVarIndexByName(varNm string) (int, error) {
	i, ok := NeuronVarsMap[varNm]
	if !ok {
		return -1, fmt.Errorf("Neuron VarByName: variable name: %v not valid", varNm)
	}
	return i, nil
}

// VarByIndex returns variable using index (0 = first variable in NeuronVars list)
func (nrn *Neuron) VarByIndex(idx int) float32 {
	fv := (*float32)(unsafe.Pointer(uintptr(unsafe.Pointer(nrn)) + uintptr(NeuronVarStart+4*idx)))
	return *fv
}

// VarByName returns variable by name, or error
func (nrn *Neuron) VarByName(varNm string) (float32, error) {
	i, err := NeuronVarIndexByName(varNm)
	if err != nil {
		return 0, err
	}
	return nrn.VarByIndex(i), nil
}

// InitState initializes all dynamical state from the parameters:
// potential at rest, threshold at baseline, after-spike currents at
// their configured initial values, synaptic stages cleared.  Called at
// neuron creation, and again whenever parameters are replaced wholesale.
func (nrn *Neuron) InitState(pr *Params) {
	nrn.Vm = 0
	nrn.ThrSpike = 0
	nrn.ThrVolt = 0
	nrn.Thr = pr.ThInf
	nrn.AScSum = 0
	nrn.ISyn = 0
	nrn.I = 0
	nrn.Spike = 0
	nrn.SpikeOff = 0
	nrn.TRefRemain = 0

	na := pr.NASC()
	if len(nrn.ASC) != na {
		nrn.ASC = make([]float32, na)
	}
	copy(nrn.ASC, pr.ASC.Init)

	nr := pr.NReceptors()
	if len(nrn.Y1) != nr {
		nrn.Y1 = make([]float32, nr)
		nrn.Y2 = make([]float32, nr)
	}
	for i := range nrn.Y1 {
		nrn.Y1[i] = 0
		nrn.Y2[i] = 0
	}
}

// InitBuffers sizes and clears the delayed-delivery input buffers, one
// per receptor port plus one for external current, each with the given
// horizon (maximum delivery delay in steps, minimum 1).
func (nrn *Neuron) InitBuffers(pr *Params, horizon int) {
	horizon = ints.MaxInt(horizon, 1)
	nr := pr.NReceptors()
	if len(nrn.Spikes) != nr {
		nrn.Spikes = make([]spikebuf.Ring, nr)
	}
	for i := range nrn.Spikes {
		nrn.Spikes[i].Init(horizon)
	}
	nrn.Currents.Init(horizon)
}

// RebaseEL shifts the membrane potential by the given resting-potential
// delta returned from Params.SetParams, keeping its absolute value
// unchanged.  The threshold is recomputed from its components on the
// next update step.
func (nrn *Neuron) RebaseEL(deltaEL float32) {
	nrn.Vm -= deltaEL
}

// AddSpike accumulates a weighted spike event for the given 1-based
// receptor port, due off steps from now.  The delivery collaborator
// calls this; addressing and capacity violations are returned as errors.
func (nrn *Neuron) AddSpike(port, off int, w float32) error {
	if port <= 0 || port > len(nrn.Spikes) {
		return fmt.Errorf("glif.Neuron: receptor port %d outside configured range 1..%d", port, len(nrn.Spikes))
	}
	return nrn.Spikes[port-1].AddValue(off, w)
}

// AddCurrent accumulates an external current value due off steps from now.
func (nrn *Neuron) AddCurrent(off int, w float32) error {
	return nrn.Currents.AddValue(off, w)
}

// GetState returns the dynamical state as a dictionary: V_m (absolute
// mV) and ASCurrents (copy).
func (nrn *Neuron) GetState(pr *Params) map[string]any {
	return map[string]any{
		"V_m":        nrn.Vm + pr.EL,
		"ASCurrents": append([]float32(nil), nrn.ASC...),
	}
}

// SetState applies the fields present in the given state dictionary.
// A V_m value is absolute against the current E_L; if V_m is absent and
// deltaEL is nonzero (from a preceding Params.SetParams), the stored
// potential is re-based to keep its absolute value.
func (nrn *Neuron) SetState(pr *Params, d map[string]any, deltaEL float32) error {
	if v, ok := d["V_m"]; ok {
		f, err := toFloat32(v, "V_m")
		if err != nil {
			return err
		}
		nrn.Vm = f - pr.EL
	} else {
		nrn.RebaseEL(deltaEL)
	}
	if v, ok := d["ASCurrents"]; ok {
		fs, err := toFloat32s(v, "ASCurrents")
		if err != nil {
			return err
		}
		if len(fs) != len(nrn.ASC) {
			return fmt.Errorf("glif.Neuron.SetState: ASCurrents length %d != configured %d", len(fs), len(nrn.ASC))
		}
		copy(nrn.ASC, fs)
	}
	return nil
}
