// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glif

import (
	"fmt"
	"strings"

	"github.com/emer/emergent/erand"
	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
)

///////////////////////////////////////////////////////////////////////
//  params.go contains the GLIF parameter set: the per-neuron model
//  configuration, validation, and the dictionary get / set contract.

// ModelTypes are the GLIF model variants (Allen Institute glif 1-5).
// The variant determines which optional behaviors of the shared update
// kernel are active, resolved once into capability flags by Update.
type ModelTypes int

//go:generate stringer -type=ModelTypes

var KiT_ModelTypes = kit.Enums.AddEnum(ModelTypesN, kit.NotBitFlag, nil)

func (ev ModelTypes) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *ModelTypes) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The GLIF model variants
const (
	// LIF is the plain leaky integrate-and-fire model (glif1):
	// fixed reset potential, static threshold
	LIF ModelTypes = iota

	// LIFR adds the biologically-derived reset rules (glif2): affine
	// voltage-dependent reset and a spike-driven threshold component
	LIFR

	// LIFASC adds after-spike adaptation currents to LIF (glif3)
	LIFASC

	// LIFRASC combines the reset rules with after-spike currents (glif4)
	LIFRASC

	// LIFRASCA adds the voltage-driven threshold component (glif5)
	LIFRASCA

	ModelTypesN
)

// ModelNames maps the conventional lowercase GLIF model tags onto types
var ModelNames = map[string]ModelTypes{
	"lif":         LIF,
	"lif_r":       LIFR,
	"lif_asc":     LIFASC,
	"lif_r_asc":   LIFRASC,
	"lif_r_asc_a": LIFRASCA,
}

// ModelTypeByName returns the model type for given conventional tag
// (e.g., "lif_r_asc"), case insensitive.
func ModelTypeByName(nm string) (ModelTypes, error) {
	mt, ok := ModelNames[strings.ToLower(nm)]
	if !ok {
		return LIF, fmt.Errorf("glif.ModelTypeByName: unknown model type: %q", nm)
	}
	return mt, nil
}

// ModelName returns the conventional lowercase tag for the model type.
func (ev ModelTypes) ModelName() string {
	for nm, mt := range ModelNames {
		if mt == ev {
			return nm
		}
	}
	return "lif"
}

//////////////////////////////////////////////////////////////////////////////////////
//  Sub-parameter groups

// ResetParams are the affine voltage-dependent reset rule parameters,
// used by the R models: on leaving the refractory period, the membrane
// potential is reset to A * V + B where V is the potential at crossing.
type ResetParams struct {
	A float32 `def:"0.2" desc:"multiplicative coefficient on the membrane potential at threshold crossing"`
	B float32 `def:"18.51" desc:"additive reset offset in mV, relative to the resting potential"`
}

func (rp *ResetParams) Defaults() {
	rp.A = 0.2
	rp.B = 18.51
}

// ThSpikeParams are the spike-driven threshold component parameters
// (R models): each spike bumps the component by Amp, and it decays
// exponentially toward zero at rate Decay every step.
type ThSpikeParams struct {
	Amp   float32 `def:"0.37" desc:"threshold increment added at each spike, in mV"`
	Decay float32 `def:"0.009" min:"0" desc:"decay rate of the spike-driven threshold component, in 1/msec"`
}

func (tp *ThSpikeParams) Defaults() {
	tp.Amp = 0.37
	tp.Decay = 0.009
}

// ThVoltParams are the voltage-driven threshold component parameters
// (A model, glif5): the component follows the membrane potential with
// its own linear dynamics, advanced by an exact closed-form update.
type ThVoltParams struct {
	A float32 `def:"0.005" desc:"coupling rate of the threshold to the membrane potential, in 1/msec"`
	B float32 `def:"0.09" min:"0" desc:"decay rate of the voltage-driven threshold component, in 1/msec"`
}

func (tp *ThVoltParams) Defaults() {
	tp.A = 0.005
	tp.B = 0.09
}

// ASCParams are the after-spike adaptation current parameters (ASC
// models).  All slices must have the same length (number of adaptation
// currents).  On leaving the refractory period each current is reset to
// Amps[j] + prev * R[j] * exp(-K[j] * t_ref), and it decays at rate K[j]
// while integrating.
type ASCParams struct {
	Init []float32 `desc:"initial values of the after-spike currents, in pA"`
	K    []float32 `min:"0" desc:"decay rates of the after-spike currents, in 1/msec"`
	Amps []float32 `desc:"amplitudes added to the after-spike currents at reset, in pA"`
	R    []float32 `desc:"proportions of the pre-spike current values carried over at reset"`
}

func (ap *ASCParams) Defaults() {
	ap.Init = []float32{0, 0}
	ap.K = []float32{0.003, 0.1}
	ap.Amps = []float32{-9.18, -198.94}
	ap.R = []float32{1, 1}
}

// Clone returns a deep copy.
func (ap *ASCParams) Clone() ASCParams {
	var np ASCParams
	np.Init = append([]float32(nil), ap.Init...)
	np.K = append([]float32(nil), ap.K...)
	np.Amps = append([]float32(nil), ap.Amps...)
	np.R = append([]float32(nil), ap.R...)
	return np
}

// NoiseType are the locations where random noise can be injected
type NoiseType int

//go:generate stringer -type=NoiseType

var KiT_NoiseType = kit.Enums.AddEnum(NoiseTypeN, kit.NotBitFlag, nil)

func (ev NoiseType) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *NoiseType) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The noise types
const (
	// NoNoise means no noise is added -- the update is fully deterministic
	NoNoise NoiseType = iota

	// VmNoise means noise is added to the membrane potential after
	// each integration step
	VmNoise

	NoiseTypeN
)

// NoiseParams contains parameters for optional membrane-potential noise.
// Off (NoNoise) by default: the GLIF models are deterministic, and noise
// is normally injected through the external current input instead --
// this is a convenience for single-neuron exploration only.
type NoiseParams struct {
	erand.RndParams
	Type NoiseType `desc:"where to add noise -- NoNoise keeps the kernel deterministic"`
}

func (np *NoiseParams) Defaults() {
	np.Type = NoNoise
	np.Dist = erand.Gauss
	np.Mean = 0
	np.Var = 0.0001
}

//////////////////////////////////////////////////////////////////////////////////////
//  Params

// glif.Params is the full parameter set for one GLIF neuron.  The reset
// and threshold potentials are stored relative to the resting potential
// EL, as in the original Allen model parameterizations -- the dictionary
// get / set contract converts to and from absolute potentials.
// Call Update after any direct field changes; SetParams does so itself.
type Params struct {
	EL     float32   `def:"-78.85" desc:"resting (leak reversal) membrane potential, in mV, absolute"`
	G      float32   `def:"9.43" min:"0" desc:"membrane leak conductance, in nS"`
	CM     float32   `def:"58.72" min:"0" desc:"membrane capacitance, in pF -- CM / G is the membrane time constant in msec"`
	ThInf  float32   `def:"27.17" desc:"baseline (infinity) spike threshold, in mV relative to EL"`
	VReset float32   `def:"0" desc:"fixed reset potential for the non-R models, in mV relative to EL"`
	TRef   float32   `def:"3.75" min:"0" desc:"refractory duration after each spike, in msec"`
	TauSyn []float32 `desc:"synaptic time constants, in msec, one per receptor port -- the port count is frozen once any port has a connection"`

	Reset   ResetParams   `view:"inline" desc:"affine voltage-dependent reset rule (R models)"`
	ThSpike ThSpikeParams `view:"inline" desc:"spike-driven threshold component (R models)"`
	ThVolt  ThVoltParams  `view:"inline" desc:"voltage-driven threshold component (A model)"`
	ASC     ASCParams     `view:"inline" desc:"after-spike adaptation currents (ASC models)"`
	Noise   NoiseParams   `view:"inline" desc:"optional membrane potential noise -- off by default"`

	Model    ModelTypes `desc:"which GLIF model variant to run -- resolved into the capability flags below by Update"`
	HasConns bool       `inactive:"+" desc:"set when any receptor port has received a connection -- freezes the receptor port count"`

	HasReset  bool `view:"-" desc:"derived: affine reset + spike-driven threshold component active"`
	HasASC    bool `view:"-" desc:"derived: after-spike currents active"`
	HasThVolt bool `view:"-" desc:"derived: voltage-driven threshold component active"`
	Vers      int  `view:"-" desc:"version stamp, incremented by Update -- invalidates cached propagators"`
}

// Defaults sets the published glif_psc default parameter values
// (a layer-5 pyramidal cell fit from the Allen Cell Types Database).
func (pr *Params) Defaults() {
	pr.EL = -78.85
	pr.G = 9.43
	pr.CM = 58.72
	pr.ThInf = 27.17
	pr.VReset = 0
	pr.TRef = 3.75
	pr.TauSyn = []float32{2.0}
	pr.Reset.Defaults()
	pr.ThSpike.Defaults()
	pr.ThVolt.Defaults()
	pr.ASC.Defaults()
	pr.Noise.Defaults()
	pr.Model = LIF
	pr.HasConns = false
	pr.Update()
}

// Update resolves the capability flags from the model type and bumps the
// version stamp so that cached propagators are recomputed on next use.
// Must be called after any direct parameter changes.
func (pr *Params) Update() {
	pr.HasReset = pr.Model == LIFR || pr.Model == LIFRASC || pr.Model == LIFRASCA
	pr.HasASC = pr.Model == LIFASC || pr.Model == LIFRASC || pr.Model == LIFRASCA
	pr.HasThVolt = pr.Model == LIFRASCA
	pr.Vers++
}

// NReceptors returns the number of receptor ports (synaptic channels).
func (pr *Params) NReceptors() int {
	return len(pr.TauSyn)
}

// NASC returns the number of after-spike currents.
func (pr *Params) NASC() int {
	return len(pr.ASC.K)
}

// Tau returns the membrane time constant CM / G in msec.
func (pr *Params) Tau() float32 {
	return pr.CM / pr.G
}

// RefracSteps returns the number of whole update steps of size h that a
// spike holds the neuron in the refractory state: ceil(TRef / h).
func (pr *Params) RefracSteps(h float32) int {
	return int(mat32.Ceil(pr.TRef / h))
}

// Clone returns a deep copy of the parameters.
func (pr *Params) Clone() *Params {
	np := *pr
	np.TauSyn = append([]float32(nil), pr.TauSyn...)
	np.ASC = pr.ASC.Clone()
	return &np
}

// Validate checks all parameter invariants, returning the first
// violation found.  A valid zero step is not required -- step-size
// checks happen at propagator computation.
func (pr *Params) Validate() error {
	if pr.VReset >= pr.ThInf {
		return fmt.Errorf("glif.Params: reset potential must be smaller than threshold")
	}
	if pr.CM <= 0 {
		return fmt.Errorf("glif.Params: capacitance must be strictly positive")
	}
	if pr.G <= 0 {
		return fmt.Errorf("glif.Params: membrane conductance must be strictly positive")
	}
	if pr.TRef <= 0 {
		return fmt.Errorf("glif.Params: refractory duration must be strictly positive")
	}
	if pr.ThVolt.B <= 0 {
		return fmt.Errorf("glif.Params: voltage-induced threshold rate must be strictly positive")
	}
	if pr.ThSpike.Decay <= 0 {
		return fmt.Errorf("glif.Params: spike-induced threshold rate must be strictly positive")
	}
	na := len(pr.ASC.K)
	if len(pr.ASC.Init) != na || len(pr.ASC.Amps) != na || len(pr.ASC.R) != na {
		return fmt.Errorf("glif.Params: after-spike current parameter vectors must have equal lengths")
	}
	for _, k := range pr.ASC.K {
		if k <= 0 {
			return fmt.Errorf("glif.Params: after-spike current decay rates must be strictly positive")
		}
	}
	if len(pr.TauSyn) == 0 {
		return fmt.Errorf("glif.Params: at least one receptor port is required")
	}
	for _, ts := range pr.TauSyn {
		if ts <= 0 {
			return fmt.Errorf("glif.Params: all synaptic time constants must be strictly positive")
		}
	}
	return nil
}

// ConnectPort registers an incoming connection on the given 1-based
// receptor port, returning an addressing error if the port is outside
// the configured range.  A successful registration freezes the receptor
// port count.
func (pr *Params) ConnectPort(port int) error {
	if port <= 0 || port > pr.NReceptors() {
		return fmt.Errorf("glif.Params: receptor port %d outside configured range 1..%d", port, pr.NReceptors())
	}
	pr.HasConns = true
	return nil
}
