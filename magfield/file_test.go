package magfield

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"github.com/alice-offline/chebfield/cheb"
)

func TestContainer(t *testing.T) {

	m := testMap(t)

	for _, opts := range []SaveOptions{{}, {Compress: true}, {Compress: true, Level: zstd.SpeedBestCompression}} {
		t.Run(testName(opts), func(t *testing.T) {
			var b bytes.Buffer
			n, err := Save(&b, m, opts)
			require.NoError(t, err)
			require.Equal(t, int64(b.Len()), n)
			require.Equal(t, Magic, b.String()[:len(Magic)])

			got, err := Load(&b, LoadOptions{Policy: cheb.ClampToBoundary})
			require.NoError(t, err)
			require.True(t, m.Equal(got))
			require.Equal(t, cheb.ClampToBoundary, got.Region(Dipole).Fit(0).BoundaryPolicy())
		})
	}

	t.Run("Compressed", func(t *testing.T) {
		var raw, compressed bytes.Buffer
		_, err := Save(&raw, m, SaveOptions{})
		require.NoError(t, err)
		_, err = Save(&compressed, m, SaveOptions{Compress: true})
		require.NoError(t, err)
		require.Less(t, compressed.Len(), raw.Len())
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "field.chebmap")
		require.NoError(t, SaveFile(path, m, SaveOptions{Compress: true}))
		got, err := LoadFile(path, LoadOptions{})
		require.NoError(t, err)
		require.True(t, m.Equal(got))

		_, err = LoadFile(filepath.Join(t.TempDir(), "missing"), LoadOptions{})
		require.Error(t, err)
	})
}

func TestContainerCorrupted(t *testing.T) {

	m := testMap(t)

	save := func(opts SaveOptions) []byte {
		var b bytes.Buffer
		_, err := Save(&b, m, opts)
		require.NoError(t, err)
		return b.Bytes()
	}

	raw := save(SaveOptions{})
	compressed := save(SaveOptions{Compress: true})

	t.Run("Magic", func(t *testing.T) {
		bad := bytes.Clone(raw)
		bad[0] = 'X'
		_, err := Load(bytes.NewReader(bad), LoadOptions{})
		require.ErrorIs(t, err, ErrFormat)
	})

	t.Run("Flags", func(t *testing.T) {
		bad := bytes.Clone(raw)
		bad[len(Magic)] = 0x80
		_, err := Load(bytes.NewReader(bad), LoadOptions{})
		require.ErrorIs(t, err, ErrFormat)
	})

	t.Run("Header", func(t *testing.T) {
		_, err := Load(bytes.NewReader(raw[:headerSize-1]), LoadOptions{})
		require.ErrorIs(t, err, ErrFormat)
	})

	t.Run("Truncated", func(t *testing.T) {
		for _, data := range [][]byte{raw, compressed} {
			_, err := Load(bytes.NewReader(data[:len(data)-1]), LoadOptions{})
			require.ErrorIs(t, err, ErrFormat)
		}
	})

	t.Run("Payload", func(t *testing.T) {
		bad := bytes.Clone(raw)
		bad[len(bad)-3] ^= 0x01
		_, err := Load(bytes.NewReader(bad), LoadOptions{})
		require.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("Digest", func(t *testing.T) {
		bad := bytes.Clone(compressed)
		bad[headerSize-1] ^= 0xff
		_, err := Load(bytes.NewReader(bad), LoadOptions{})
		require.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("MaxPayload", func(t *testing.T) {
		_, err := Load(bytes.NewReader(raw), LoadOptions{MaxPayload: 16})
		require.ErrorIs(t, err, ErrFormat)
	})

	t.Run("CompressedStream", func(t *testing.T) {
		bad := bytes.Clone(compressed)
		bad[headerSize] ^= 0xff
		_, err := Load(bytes.NewReader(bad), LoadOptions{})
		require.Error(t, err)
	})
}

func testName(opts SaveOptions) string {
	switch {
	case !opts.Compress:
		return "Raw"
	case opts.Level == 0:
		return "Zstd/Default"
	default:
		return "Zstd/" + opts.Level.String()
	}
}
