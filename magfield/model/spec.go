package model

import (
	"fmt"
)

// Spec selects and configures a Field, as read from a model file.
//
//   - Kind: one of "constant", "uniform", "solenoid", "dipole", "tpcint".
//   - B: the constant field for "constant"; B[2] is the central field of
//     "uniform" and "solenoid", B[1] the peak field of "dipole".
//   - Radius, HalfLength: solenoid geometry, also the dipole length.
//   - Center, Gap, Enge: dipole profile.
//   - Solenoid: the integrated field for "tpcint".
//   - Steps: Simpson intervals for "tpcint".
type Spec struct {
	Kind       string     `yaml:"kind"`
	B          [3]float64 `yaml:"b,flow"`
	Radius     float64    `yaml:"radius,omitempty"`
	HalfLength float64    `yaml:"half_length,omitempty"`
	Center     float64    `yaml:"center,omitempty"`
	Gap        float64    `yaml:"gap,omitempty"`
	Enge       []float64  `yaml:"enge,omitempty,flow"`
	Solenoid   *Spec      `yaml:"solenoid,omitempty"`
	Steps      int        `yaml:"steps,omitempty"`
}

// New returns the Field described by s.
func New(s Spec) (Field, error) {
	switch s.Kind {
	case "constant":
		return Constant{B: s.B}, nil
	case "uniform":
		return Uniform{Bz: s.B[2]}, nil
	case "solenoid":
		f := FiniteSolenoid{B0: s.B[2], Radius: s.Radius, HalfLength: s.HalfLength}
		if err := f.Validate(); err != nil {
			return nil, err
		}
		return f, nil
	case "dipole":
		f := EngeDipole{B0: s.B[1], Center: s.Center, HalfLength: s.HalfLength, Gap: s.Gap, Coeffs: s.Enge}
		if err := f.Validate(); err != nil {
			return nil, err
		}
		return f, nil
	case "tpcint":
		if s.Solenoid == nil {
			return nil, fmt.Errorf("invalid tpcint model: missing solenoid")
		}
		sol, err := New(*s.Solenoid)
		if err != nil {
			return nil, fmt.Errorf("tpcint solenoid: %w", err)
		}
		return TPCIntegral{Solenoid: sol, Steps: s.Steps}, nil
	default:
		return nil, fmt.Errorf("invalid model kind %q: valid kinds are constant, uniform, solenoid, dipole and tpcint", s.Kind)
	}
}
