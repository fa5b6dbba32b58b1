// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glif

import (
	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/emer/etable/minmax"
)

///////////////////////////////////////////////////////////////////////
//  logging.go provides the standard Recorder implementations: a
//  per-step etable log and run-level summary statistics.

// StepLog records the named recordable quantities once per step into an
// etable.Table: absolute membrane potential V_m, summed after-spike
// current AScurrents_sum, and summed synaptic current I_syn.
type StepLog struct {

	// the step log -- one row per recorded step
	Table *etable.Table `view:"no-inline"`
}

// Config builds the table schema, dropping any previously recorded rows.
func (sl *StepLog) Config() {
	sl.Table = &etable.Table{}
	sch := etable.Schema{
		{"Step", etensor.INT64, nil, nil},
		{"Time", etensor.FLOAT64, nil, nil},
		{"V_m", etensor.FLOAT64, nil, nil},
		{"AScurrents_sum", etensor.FLOAT64, nil, nil},
		{"I_syn", etensor.FLOAT64, nil, nil},
	}
	sl.Table.SetFromSchema(sch, 0)
}

// RecordStep adds one row with the neuron state after the step at
// tm.Step + lag.  Implements the Recorder interface.
func (sl *StepLog) RecordStep(pr *Params, tm *Time, lag int, nrn *Neuron) {
	dt := sl.Table
	row := dt.Rows
	dt.SetNumRows(row + 1)
	dt.SetCellFloat("Step", row, float64(tm.Step+lag))
	dt.SetCellFloat("Time", row, float64(tm.Time)+float64(lag+1)*float64(tm.StepMs))
	dt.SetCellFloat("V_m", row, float64(nrn.Vm+pr.EL))
	dt.SetCellFloat("AScurrents_sum", row, float64(nrn.AScSum))
	dt.SetCellFloat("I_syn", row, float64(nrn.ISyn))
}

// RunStats accumulates average and max statistics of the recordable
// quantities over a run of steps.  Implements the Recorder interface;
// call Init before a run and CalcAvg after it.
type RunStats struct {

	// absolute membrane potential stats
	Vm minmax.AvgMax32

	// summed after-spike current stats
	AScSum minmax.AvgMax32

	// summed synaptic current stats
	ISyn minmax.AvgMax32

	// number of spikes emitted during the run
	NSpikes int
}

func (rs *RunStats) Init() {
	rs.Vm.Init()
	rs.AScSum.Init()
	rs.ISyn.Init()
	rs.NSpikes = 0
}

// RecordStep updates the running stats with the neuron state after the
// step at tm.Step + lag.
func (rs *RunStats) RecordStep(pr *Params, tm *Time, lag int, nrn *Neuron) {
	step := int32(tm.Step + lag)
	rs.Vm.UpdateVal(nrn.Vm+pr.EL, step)
	rs.AScSum.UpdateVal(nrn.AScSum, step)
	rs.ISyn.UpdateVal(nrn.ISyn, step)
	if nrn.Spike > 0 {
		rs.NSpikes++
	}
}

// CalcAvg finalizes the averages from the accumulated sums.
func (rs *RunStats) CalcAvg() {
	rs.Vm.CalcAvg()
	rs.AScSum.CalcAvg()
	rs.ISyn.CalcAvg()
}

// Recorders fans one RecordStep out to multiple recorders (e.g., a
// StepLog plus RunStats).
type Recorders []Recorder

func (rr Recorders) RecordStep(pr *Params, tm *Time, lag int, nrn *Neuron) {
	for _, rc := range rr {
		rc.RecordStep(pr, tm, lag, nrn)
	}
}
