// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glif

import (
	"errors"
	"sync"
	"testing"

	"github.com/chewxy/math32"
)

// difTol is the numerical difference tolerance for comparing vs. target values
const difTol = float32(1.0e-6)

// stateTrace is a test Recorder that collects per-step state values
type stateTrace struct {
	vm   []float32
	y1   []float32
	isyn []float32
	tref []float32
}

func (st *stateTrace) RecordStep(pr *Params, tm *Time, lag int, nrn *Neuron) {
	st.vm = append(st.vm, nrn.Vm)
	st.y1 = append(st.y1, nrn.Y1[0])
	st.isyn = append(st.isyn, nrn.ISyn)
	st.tref = append(st.tref, nrn.TRefRemain)
}

// newTestNeuron returns defaults params, an initialized neuron, and time
func newTestNeuron(model ModelTypes, stepMs float32, horizon int) (*Params, *Neuron, *Time) {
	pr := &Params{}
	pr.Defaults()
	pr.Model = model
	pr.Update()
	nrn := &Neuron{}
	nrn.InitState(pr)
	nrn.InitBuffers(pr, horizon)
	tm := NewTime()
	tm.StepMs = stepMs
	return pr, nrn, tm
}

func TestSpikeOffset(t *testing.T) {
	// both trajectories moving: v 9 -> 12, thr 10 -> 10.5 over 1 ms
	// crossing is 0.4 ms after step start = 0.6 ms before step end
	off := SpikeOffset(9, 10, 12, 10.5, 1)
	if math32.Abs(off-0.6) > difTol {
		t.Errorf("offset: got %v, want 0.6", off)
	}
	// static threshold: v 9 -> 12 vs 10, crossing 1/3 in = 2/3 before end
	off = SpikeOffset(9, 10, 12, 10, 1)
	if math32.Abs(off-2.0/3.0) > difTol {
		t.Errorf("offset: got %v, want 2/3", off)
	}
	// crossing exactly at step end
	off = SpikeOffset(9, 10, 10.5, 10.5, 1)
	if math32.Abs(off) > difTol {
		t.Errorf("offset: got %v, want 0", off)
	}
}

func TestRefractorySteps(t *testing.T) {
	hs := []float32{0.1, 0.5, 1.0, 3.75}
	for _, h := range hs {
		pr, nrn, tm := newTestNeuron(LIF, h, 64)
		nrn.TRefRemain = pr.TRef // as if a spike just occurred
		nrn.Vm = 5               // held potential

		st := &stateTrace{}
		if err := pr.UpdateRange(nrn, tm, 64, nil, st); err != nil {
			t.Fatal(err)
		}
		nref := 0
		for _, tr := range st.tref {
			if tr > 0 {
				nref++
			}
		}
		// held for ceil(TRef/h)-1 steps, reset on the ceil(TRef/h)-th
		cor := pr.RefracSteps(h)
		if nref != cor-1 {
			t.Errorf("h=%v: %d held steps, want %d", h, nref, cor-1)
		}
		// potential held at crossing value while refractory, then reset
		for i := 0; i < nref; i++ {
			if st.vm[i] != 5 {
				t.Errorf("h=%v step %d: Vm %v not held at 5", h, i, st.vm[i])
			}
		}
		if st.vm[nref] != pr.VReset {
			t.Errorf("h=%v: post-refractory Vm %v, want reset %v", h, st.vm[nref], pr.VReset)
		}
	}
}

func TestCurrentDrivenSpiking(t *testing.T) {
	pr, nrn, tm := newTestNeuron(LIF, 0.1, 512)
	iAmp := float32(400) // pA, well above rheobase g*th_inf = 256 pA
	for off := 0; off < 512; off++ {
		if err := nrn.AddCurrent(off, iAmp); err != nil {
			t.Fatal(err)
		}
	}

	var spikes []Spike
	st := &stateTrace{}
	err := pr.UpdateRange(nrn, tm, 512, func(sp Spike) { spikes = append(spikes, sp) }, st)
	if err != nil {
		t.Fatal(err)
	}
	if len(spikes) < 2 {
		t.Fatalf("expected repetitive firing, got %d spikes", len(spikes))
	}
	for _, sp := range spikes {
		if sp.Offset < 0 || sp.Offset > tm.StepMs {
			t.Errorf("spike offset %v outside step [0, %v]", sp.Offset, tm.StepMs)
		}
	}
	// refractory gap between spikes: exactly ceil(TRef/h) steps with no
	// integration, so inter-spike intervals are identical after the first
	if len(spikes) >= 3 {
		isi1 := spikes[1].Step - spikes[0].Step
		isi2 := spikes[2].Step - spikes[1].Step
		if isi1 != isi2 {
			t.Errorf("unequal ISIs under constant current: %d vs %d", isi1, isi2)
		}
		if isi1 <= pr.RefracSteps(tm.StepMs) {
			t.Errorf("ISI %d not longer than refractory %d", isi1, pr.RefracSteps(tm.StepMs))
		}
	}
	// steady subthreshold charging before first spike follows the exact
	// solution v(t) = (I/g)(1 - exp(-t/tau)), with the current first
	// integrated on step 1 (delivered values take effect on the next step)
	tau := pr.Tau()
	for i := 2; i < spikes[0].Step; i++ {
		tms := float32(i) * tm.StepMs
		cor := iAmp / pr.G * (1 - math32.Exp(-tms/tau))
		if math32.Abs(st.vm[i]-cor) > 1e-3*cor {
			t.Errorf("step %d: Vm %v, exact %v", i, st.vm[i], cor)
			break
		}
	}
}

func TestSynapticKinetics(t *testing.T) {
	pr, nrn, tm := newTestNeuron(LIF, 0.1, 64)
	if err := pr.ConnectPort(1); err != nil {
		t.Fatal(err)
	}
	d := 5
	if err := nrn.AddSpike(1, d, 1); err != nil {
		t.Fatal(err)
	}

	st := &stateTrace{}
	if err := pr.UpdateRange(nrn, tm, 40, nil, st); err != nil {
		t.Fatal(err)
	}
	pp := &nrn.Props
	iv := pp.PSCInit[0] // e / tau_syn

	// no contribution of any kind before the delivery step
	for i := 0; i < d; i++ {
		if st.vm[i] != 0 || st.y1[i] != 0 || st.isyn[i] != 0 {
			t.Errorf("step %d before delivery: vm=%v y1=%v isyn=%v, want all 0", i, st.vm[i], st.y1[i], st.isyn[i])
		}
	}
	// delivery step: rise stage loaded with the PSC initial value,
	// potential unchanged until the next step
	if math32.Abs(st.y1[d]-iv) > difTol {
		t.Errorf("y1 at delivery: %v, want %v", st.y1[d], iv)
	}
	if st.vm[d] != 0 {
		t.Errorf("vm at delivery step: %v, want 0", st.vm[d])
	}
	// next step: potential picks up the rise-stage contribution exactly
	if math32.Abs(st.vm[d+1]-pp.P31[0]*iv) > difTol {
		t.Errorf("vm after delivery: %v, want %v", st.vm[d+1], pp.P31[0]*iv)
	}
	// synaptic current appears one step later via the decay stage
	if st.isyn[d+1] != 0 {
		t.Errorf("isyn at %d: %v, want 0", d+1, st.isyn[d+1])
	}
	corIsyn := pp.P21[0] * iv
	if math32.Abs(st.isyn[d+2]-corIsyn) > difTol {
		t.Errorf("isyn at %d: %v, want %v", d+2, st.isyn[d+2], corIsyn)
	}
	// rise stage decays exactly per exp(-m*h/tau_syn) thereafter
	for m := 1; m < 20; m++ {
		cor := iv * math32.Exp(-float32(m)*tm.StepMs/pr.TauSyn[0])
		if math32.Abs(st.y1[d+m]-cor) > 1e-5 {
			t.Errorf("y1 decay at +%d: %v, want %v", m, st.y1[d+m], cor)
		}
	}
}

func TestASCReset(t *testing.T) {
	pr, nrn, tm := newTestNeuron(LIFRASC, 1.0, 16)
	prev := []float32{5, 7}
	copy(nrn.ASC, prev)
	nrn.Vm = 10         // held potential at crossing
	nrn.TRefRemain = 0.5 // exits on the next step

	if err := pr.UpdateRange(nrn, tm, 1, nil, nil); err != nil {
		t.Fatal(err)
	}
	for a := range nrn.ASC {
		cor := pr.ASC.Amps[a] + prev[a]*pr.ASC.R[a]*math32.Exp(-pr.ASC.K[a]*pr.TRef)
		if math32.Abs(nrn.ASC[a]-cor) > difTol {
			t.Errorf("ASC[%d]: %v, want %v", a, nrn.ASC[a], cor)
		}
	}
	// affine reset from the held potential
	corVm := pr.Reset.A*10 + pr.Reset.B
	if math32.Abs(nrn.Vm-corVm) > difTol {
		t.Errorf("Vm after affine reset: %v, want %v", nrn.Vm, corVm)
	}
	// spike component bumped and threshold recomputed
	if math32.Abs(nrn.ThrSpike-pr.ThSpike.Amp) > difTol {
		t.Errorf("ThrSpike: %v, want %v", nrn.ThrSpike, pr.ThSpike.Amp)
	}
	corThr := nrn.ThrSpike + nrn.ThrVolt + pr.ThInf
	if math32.Abs(nrn.Thr-corThr) > difTol {
		t.Errorf("Thr: %v, want %v", nrn.Thr, corThr)
	}
}

func TestResetAboveThreshold(t *testing.T) {
	pr, nrn, tm := newTestNeuron(LIFR, 1.0, 16)
	pr.Reset.B = 60 // reset lands above th_inf + a_spike: inconsistent
	pr.Update()
	nrn.Vm = 10
	nrn.TRefRemain = 0.5

	err := pr.UpdateRange(nrn, tm, 1, nil, nil)
	if err == nil {
		t.Fatal("inconsistent reset must be a fatal error")
	}
	if !errors.Is(err, ErrResetAboveThr) {
		t.Errorf("error %v does not wrap ErrResetAboveThr", err)
	}
}

func TestThVoltComponent(t *testing.T) {
	pr, nrn, tm := newTestNeuron(LIFRASCA, 0.5, 16)
	nrn.ThrVolt = 1
	nrn.ASC[0] = 0 // no adaptation current contribution
	nrn.ASC[1] = 0

	if err := pr.UpdateRange(nrn, tm, 1, nil, nil); err != nil {
		t.Fatal(err)
	}
	// with v_old = 0 and no current, the component decays as exp(-b_voltage*h)
	cor := math32.Exp(-pr.ThVolt.B * tm.StepMs)
	if math32.Abs(nrn.ThrVolt-cor) > difTol {
		t.Errorf("ThrVolt: %v, want %v", nrn.ThrVolt, cor)
	}
	// spike component decayed from zero stays zero; combined threshold
	corThr := nrn.ThrVolt + pr.ThInf
	if math32.Abs(nrn.Thr-corThr) > difTol {
		t.Errorf("Thr: %v, want %v", nrn.Thr, corThr)
	}
}

func TestParallelDeterminism(t *testing.T) {
	run := func(nrn *Neuron, pr *Params) []float32 {
		tm := NewTime()
		for off := 0; off < 256; off++ {
			nrn.AddCurrent(off, 300)
		}
		st := &stateTrace{}
		if err := pr.UpdateRange(nrn, tm, 256, nil, st); err != nil {
			t.Error(err)
		}
		return st.vm
	}

	pr, ref, _ := newTestNeuron(LIFRASC, 0.1, 256)
	refVm := run(ref, pr)

	// identical neurons updated concurrently must match the serial
	// reference trace exactly -- updates share no mutable state
	const nn = 4
	traces := make([][]float32, nn)
	var wg sync.WaitGroup
	for i := 0; i < nn; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			nrn := &Neuron{}
			nrn.InitState(pr)
			nrn.InitBuffers(pr, 256)
			traces[i] = run(nrn, pr)
		}(i)
	}
	wg.Wait()

	for i := 0; i < nn; i++ {
		for j := range refVm {
			if traces[i][j] != refVm[j] {
				t.Fatalf("neuron %d diverges from serial reference at step %d: %v != %v", i, j, traces[i][j], refVm[j])
			}
		}
	}
}

func TestHorizonCapacity(t *testing.T) {
	pr, nrn, tm := newTestNeuron(LIF, 0.1, 8)
	if err := pr.UpdateRange(nrn, tm, 9, nil, nil); err == nil {
		t.Error("run longer than delivery horizon must be reported")
	}
	if err := nrn.AddCurrent(8, 1); err == nil {
		t.Error("delivery beyond horizon must be reported")
	}
	if err := nrn.AddSpike(2, 0, 1); err == nil {
		t.Error("out-of-range receptor port must be reported")
	}
}
