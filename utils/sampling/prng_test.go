package sampling_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alice-offline/chebfield/utils/sampling"
)

func TestPRNG(t *testing.T) {

	key := []byte{0x49, 0x0a, 0x42, 0x3d, 0x97, 0x9d, 0xc1, 0x07, 0xa1, 0xd7, 0xe9, 0x7b, 0x3b, 0xce, 0xa1, 0xdb}

	t.Run("KeyedPRNG/Reset", func(t *testing.T) {

		Ha, err := sampling.NewKeyedPRNG(key)
		require.NoError(t, err)
		Hb, err := sampling.NewKeyedPRNG(key)
		require.NoError(t, err)

		sum0 := make([]byte, 512)
		sum1 := make([]byte, 512)

		for i := 0; i < 16; i++ {
			_, err = Hb.Read(sum1)
			require.NoError(t, err)
		}

		Hb.Reset()

		_, err = Ha.Read(sum0)
		require.NoError(t, err)
		_, err = Hb.Read(sum1)
		require.NoError(t, err)

		require.Equal(t, sum0, sum1)
		require.Equal(t, key, Ha.Key())
	})

	t.Run("UniformSampler/Range", func(t *testing.T) {
		prng, err := sampling.NewKeyedPRNG(key)
		require.NoError(t, err)
		s := sampling.NewUniformSampler(prng)

		lo, hi := [3]float64{-1, 0, 10}, [3]float64{1, 0.5, 20}
		for i := 0; i < 1000; i++ {
			p, err := s.Point(lo, hi)
			require.NoError(t, err)
			for d := range p {
				require.GreaterOrEqual(t, p[d], lo[d])
				require.Less(t, p[d], hi[d])
			}
		}
	})

	t.Run("UniformSampler/Deterministic", func(t *testing.T) {
		pa, _ := sampling.NewKeyedPRNG(key)
		pb, _ := sampling.NewKeyedPRNG(key)
		sa, sb := sampling.NewUniformSampler(pa), sampling.NewUniformSampler(pb)
		for i := 0; i < 64; i++ {
			xa, err := sa.Float64(-5, 5)
			require.NoError(t, err)
			xb, err := sb.Float64(-5, 5)
			require.NoError(t, err)
			require.Equal(t, xa, xb)
		}
	})
}
