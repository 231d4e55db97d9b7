// Package magfield implements a piecewise Chebyshev magnetic field map:
// the space is split in regions (solenoid, dipole, TPC drift integrals),
// each partitioned in segments carrying their own cheb.Fit3D.
package magfield

import (
	"fmt"

	"github.com/alice-offline/chebfield/cheb"
)

// RegionKind identifies the regions of a Map.
type RegionKind int

const (
	// Solenoid is the cylindrical region of the main solenoid field.
	Solenoid = RegionKind(0)
	// Dipole is the Cartesian region of the dipole field, queried for
	// points outside every solenoid segment.
	Dipole = RegionKind(1)
	// TPCIntegral is the cylindrical region of the field integrals along
	// the drift path.
	TPCIntegral = RegionKind(2)
)

// NumRegions is the number of region kinds.
const NumRegions = 3

var regionSystem = [NumRegions]CoordSystem{Cylindrical, Cartesian, Cylindrical}

func (k RegionKind) String() string {
	switch k {
	case Solenoid:
		return "solenoid"
	case Dipole:
		return "dipole"
	case TPCIntegral:
		return "tpcint"
	default:
		return fmt.Sprintf("RegionKind(%d)", int(k))
	}
}

// ParseRegionKind returns the region kind named s.
func ParseRegionKind(s string) (RegionKind, error) {
	for k := RegionKind(0); k < NumRegions; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("invalid region %q: valid regions are solenoid, dipole and tpcint", s)
}

// System returns the coordinate system regions of kind k are parameterized in.
func (k RegionKind) System() CoordSystem {
	return regionSystem[k]
}

// Map is a segmented field map. Every region is optional: queries against
// a missing region, or falling in no segment, return exact zeros.
//
// A Map is built or loaded once and is then safe for concurrent use.
type Map struct {
	regions [NumRegions]*Region
}

// NewMap returns a Map over the given regions, any of which can be nil.
// Regions must use the coordinate system of their kind and hold fits with
// three outputs.
func NewMap(solenoid, dipole, tpcint *Region) (*Map, error) {
	m := &Map{regions: [NumRegions]*Region{solenoid, dipole, tpcint}}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Map) validate() error {
	for k, r := range m.regions {
		if r == nil {
			continue
		}
		kind := RegionKind(k)
		if r.System() != kind.System() {
			return fmt.Errorf("%w: region %s: coordinate system is %s, want %s", ErrFormat, kind, r.System(), kind.System())
		}
		if r.NumFits() != 0 && r.OutputDim() != 3 {
			return fmt.Errorf("%w: region %s: output dimension is %d, want 3", ErrFormat, kind, r.OutputDim())
		}
	}
	return nil
}

// Region returns the region of kind k, nil if the map has none.
func (m *Map) Region(k RegionKind) *Region {
	return m.regions[k]
}

// WithBoundaryPolicy returns a view of m whose fits apply the given policy.
func (m *Map) WithBoundaryPolicy(policy cheb.BoundaryPolicy) *Map {
	view := &Map{}
	for k, r := range m.regions {
		if r != nil {
			view.regions[k] = r.WithBoundaryPolicy(policy)
		}
	}
	return view
}

// Field returns the Cartesian field (Bx, By, Bz) at the Cartesian point
// xyz. The solenoid region is queried first, then the dipole region.
func (m *Map) Field(xyz [3]float64) [3]float64 {

	if sol := m.regions[Solenoid]; sol != nil {
		rphiz := CartToCyl(xyz)
		if b, ok := sol.eval3(rphiz); ok {
			return CylToCartCylB(rphiz, b)
		}
	}

	if dip := m.regions[Dipole]; dip != nil {
		if b, ok := dip.eval3(xyz); ok {
			return b
		}
	}

	return [3]float64{}
}

// FieldCyl returns the cylindrical field (Br, Bphi, Bz) at the cylindrical
// point rphiz.
func (m *Map) FieldCyl(rphiz [3]float64) [3]float64 {

	rphiz[1] = NormalizePhi(rphiz[1])

	if sol := m.regions[Solenoid]; sol != nil {
		if b, ok := sol.eval3(rphiz); ok {
			return b
		}
	}

	if dip := m.regions[Dipole]; dip != nil {
		if b, ok := dip.eval3(CylToCart(rphiz)); ok {
			return CartToCylCylB(rphiz, b)
		}
	}

	return [3]float64{}
}

// Bz returns the longitudinal component of the field at the Cartesian
// point xyz, evaluating a single output of the covering fit.
func (m *Map) Bz(xyz [3]float64) float64 {

	if sol := m.regions[Solenoid]; sol != nil {
		if bz, ok := sol.EvalDim(CartToCyl(xyz), 2); ok {
			return bz
		}
	}

	if dip := m.regions[Dipole]; dip != nil {
		if bz, ok := dip.EvalDim(xyz, 2); ok {
			return bz
		}
	}

	return 0
}

// SolenoidField returns the longitudinal field at the origin.
func (m *Map) SolenoidField() float64 {
	return m.Bz([3]float64{})
}

// TPCInt returns the drift integrals (∫Bx/Bz dz, ∫By/Bz dz,
// ∫(Br²+Bphi²)/Bz² dz) at the Cartesian point xyz.
func (m *Map) TPCInt(xyz [3]float64) [3]float64 {

	if tpc := m.regions[TPCIntegral]; tpc != nil {
		rphiz := CartToCyl(xyz)
		if v, ok := tpc.eval3(rphiz); ok {
			return CylToCartCylB(rphiz, v)
		}
	}

	return [3]float64{}
}

// TPCIntCyl returns the drift integrals (∫Br/Bz dz, ∫Bphi/Bz dz,
// ∫(Br²+Bphi²)/Bz² dz) at the cylindrical point rphiz.
func (m *Map) TPCIntCyl(rphiz [3]float64) [3]float64 {

	if tpc := m.regions[TPCIntegral]; tpc != nil {
		if v, ok := tpc.eval3(rphiz); ok {
			return v
		}
	}

	return [3]float64{}
}

// Equal returns true if both maps hold equal regions.
func (m *Map) Equal(other *Map) bool {
	for k := range m.regions {
		a, b := m.regions[k], other.regions[k]
		if (a == nil) != (b == nil) {
			return false
		}
		if a != nil && !a.Equal(b) {
			return false
		}
	}
	return true
}

// NCoefs returns the number of coefficients retained over every region.
func (m *Map) NCoefs() (n int) {
	for _, r := range m.regions {
		if r != nil {
			n += r.NCoefs()
		}
	}
	return
}
