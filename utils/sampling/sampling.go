// Package sampling implements deterministic sampling of floating point
// values from a keyed PRNG.
package sampling

import (
	"encoding/binary"
	"fmt"
)

// unitFloat64 maps 8 bytes to [0, 1) using the 53 high bits.
func unitFloat64(b []byte) float64 {
	return float64(binary.LittleEndian.Uint64(b)>>11) / (1 << 53)
}

// UniformSampler draws uniform floats from a PRNG.
type UniformSampler struct {
	prng PRNG
	buf  [8]byte
}

// NewUniformSampler returns a sampler reading from prng.
func NewUniformSampler(prng PRNG) *UniformSampler {
	return &UniformSampler{prng: prng}
}

// Float64 returns a float in [min, max).
func (s *UniformSampler) Float64(min, max float64) (float64, error) {
	if _, err := s.prng.Read(s.buf[:]); err != nil {
		return 0, fmt.Errorf("prng.Read: %w", err)
	}
	return min + unitFloat64(s.buf[:])*(max-min), nil
}

// Point returns a point drawn uniformly in the box [min, max).
func (s *UniformSampler) Point(min, max [3]float64) (p [3]float64, err error) {
	for d := range p {
		if p[d], err = s.Float64(min[d], max[d]); err != nil {
			return
		}
	}
	return
}
