// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glif

import "fmt"

///////////////////////////////////////////////////////////////////////
//  dict.go implements the dictionary get / set contract for parameters
//  and state, using the conventional GLIF key names.  Potentials are
//  absolute (mV) in dictionaries and stored relative to E_L internally.

// recognized parameter dictionary keys
var paramKeys = map[string]bool{
	"E_L": true, "g": true, "C_m": true, "t_ref": true,
	"V_th": true, "V_reset": true,
	"a_spike": true, "b_spike": true, "a_reset": true, "b_reset": true,
	"a_voltage": true, "b_voltage": true,
	"asc_init": true, "k": true, "asc_amps": true, "r": true,
	"tau_syn": true, "glif_model": true,
	"has_connections": true, // read-only
}

// GetParams returns all parameters as a dictionary under the
// conventional GLIF key names, with the reset and threshold potentials
// converted back to absolute values.  Slices are copies.
func (pr *Params) GetParams() map[string]any {
	return map[string]any{
		"E_L":             pr.EL,
		"g":               pr.G,
		"C_m":             pr.CM,
		"t_ref":           pr.TRef,
		"V_th":            pr.ThInf + pr.EL,
		"V_reset":         pr.VReset + pr.EL,
		"a_spike":         pr.ThSpike.Amp,
		"b_spike":         pr.ThSpike.Decay,
		"a_reset":         pr.Reset.A,
		"b_reset":         pr.Reset.B,
		"a_voltage":       pr.ThVolt.A,
		"b_voltage":       pr.ThVolt.B,
		"asc_init":        append([]float32(nil), pr.ASC.Init...),
		"k":               append([]float32(nil), pr.ASC.K...),
		"asc_amps":        append([]float32(nil), pr.ASC.Amps...),
		"r":               append([]float32(nil), pr.ASC.R...),
		"tau_syn":         append([]float32(nil), pr.TauSyn...),
		"glif_model":      pr.Model.ModelName(),
		"has_connections": pr.HasConns,
	}
}

// SetParams applies the fields present in the given dictionary,
// atomically: all values are staged and validated on a copy, and no
// change is visible if any key, value, or invariant check fails.
// If E_L changes, potentials stored relative to it are re-based against
// the new value (a V_reset or V_th given explicitly is taken as
// absolute against the new E_L; untouched ones keep their absolute
// values).  Returns the E_L delta so dependent state can be re-based
// consistently (see Neuron.RebaseEL).
func (pr *Params) SetParams(d map[string]any) (float32, error) {
	for key := range d {
		if !paramKeys[key] {
			return 0, fmt.Errorf("glif.Params.SetParams: unrecognized key: %q", key)
		}
	}
	np := pr.Clone()

	elOld := np.EL
	if err := dictFloat(d, "E_L", &np.EL); err != nil {
		return 0, err
	}
	deltaEL := np.EL - elOld

	if v, ok := d["V_reset"]; ok {
		f, err := toFloat32(v, "V_reset")
		if err != nil {
			return 0, err
		}
		np.VReset = f - np.EL
	} else {
		np.VReset -= deltaEL
	}
	if v, ok := d["V_th"]; ok {
		f, err := toFloat32(v, "V_th")
		if err != nil {
			return 0, err
		}
		np.ThInf = f - np.EL
	} else {
		np.ThInf -= deltaEL
	}

	scalars := []struct {
		key string
		fld *float32
	}{
		{"g", &np.G}, {"C_m", &np.CM}, {"t_ref", &np.TRef},
		{"a_spike", &np.ThSpike.Amp}, {"b_spike", &np.ThSpike.Decay},
		{"a_reset", &np.Reset.A}, {"b_reset", &np.Reset.B},
		{"a_voltage", &np.ThVolt.A}, {"b_voltage", &np.ThVolt.B},
	}
	for _, sc := range scalars {
		if err := dictFloat(d, sc.key, sc.fld); err != nil {
			return 0, err
		}
	}

	vectors := []struct {
		key string
		fld *[]float32
	}{
		{"asc_init", &np.ASC.Init}, {"k", &np.ASC.K},
		{"asc_amps", &np.ASC.Amps}, {"r", &np.ASC.R},
		{"tau_syn", &np.TauSyn},
	}
	for _, vc := range vectors {
		if err := dictFloats(d, vc.key, vc.fld); err != nil {
			return 0, err
		}
	}

	if v, ok := d["has_connections"]; ok {
		// read-only: accepted unchanged so a full GetParams dictionary
		// round-trips, but never writable
		if hc, ok := v.(bool); !ok || hc != pr.HasConns {
			return 0, fmt.Errorf("glif.Params.SetParams: has_connections is read-only")
		}
	}

	if v, ok := d["glif_model"]; ok {
		switch mv := v.(type) {
		case string:
			mt, err := ModelTypeByName(mv)
			if err != nil {
				return 0, err
			}
			np.Model = mt
		case ModelTypes:
			np.Model = mv
		default:
			return 0, fmt.Errorf("glif.Params.SetParams: glif_model must be a string or ModelTypes, got %T", v)
		}
	}

	if len(np.TauSyn) != len(pr.TauSyn) && pr.HasConns {
		return 0, fmt.Errorf("glif.Params.SetParams: the neuron has connections, so the number of receptor ports cannot change")
	}
	if err := np.Validate(); err != nil {
		return 0, err
	}

	*pr = *np
	pr.Update()
	return deltaEL, nil
}

// dictFloat sets *fld from d[key] if present.
func dictFloat(d map[string]any, key string, fld *float32) error {
	v, ok := d[key]
	if !ok {
		return nil
	}
	f, err := toFloat32(v, key)
	if err != nil {
		return err
	}
	*fld = f
	return nil
}

// dictFloats sets *fld to a copy of d[key] if present.
func dictFloats(d map[string]any, key string, fld *[]float32) error {
	v, ok := d[key]
	if !ok {
		return nil
	}
	fs, err := toFloat32s(v, key)
	if err != nil {
		return err
	}
	*fld = fs
	return nil
}

func toFloat32(v any, key string) (float32, error) {
	switch fv := v.(type) {
	case float32:
		return fv, nil
	case float64:
		return float32(fv), nil
	case int:
		return float32(fv), nil
	}
	return 0, fmt.Errorf("glif: value for key %q must be a number, got %T", key, v)
}

func toFloat32s(v any, key string) ([]float32, error) {
	switch fv := v.(type) {
	case []float32:
		return append([]float32(nil), fv...), nil
	case []float64:
		fs := make([]float32, len(fv))
		for i := range fv {
			fs[i] = float32(fv[i])
		}
		return fs, nil
	}
	return nil, fmt.Errorf("glif: value for key %q must be a slice of numbers, got %T", key, v)
}
