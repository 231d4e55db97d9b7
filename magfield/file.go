package magfield

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/alice-offline/chebfield/cheb"
	"github.com/alice-offline/chebfield/utils/buffer"
)

// Magic opens every field map container.
const Magic = "CHEBMAP1"

const (
	flagZstd = uint8(1 << 0)

	knownFlags = flagZstd
)

// digestSize is the size of the blake3 digest of the payload.
const digestSize = 32

// headerSize is magic, flags, stored payload length, raw payload length and digest.
const headerSize = len(Magic) + 1 + 8 + 8 + digestSize

// DefaultMaxPayload is the largest raw payload Load accepts by default.
const DefaultMaxPayload = 1 << 31

// SaveOptions configures Save.
//
//   - Compress: compress the payload with zstd.
//   - Level: zstd encoder level, zstd.SpeedDefault if zero.
type SaveOptions struct {
	Compress bool
	Level    zstd.EncoderLevel
}

// LoadOptions configures Load.
//
//   - Policy: boundary policy applied by the fits of the loaded map.
//   - MaxPayload: largest accepted raw payload in bytes,
//     DefaultMaxPayload if zero.
type LoadOptions struct {
	Policy     cheb.BoundaryPolicy
	MaxPayload int64
}

// header is the fixed-size prefix of a container.
type header struct {
	flags     uint8
	storedLen uint64
	rawLen    uint64
	digest    [digestSize]byte
}

func (h *header) marshal() []byte {
	b := make([]byte, 0, headerSize)
	b = append(b, Magic...)
	b = append(b, h.flags)
	b = binary.LittleEndian.AppendUint64(b, h.storedLen)
	b = binary.LittleEndian.AppendUint64(b, h.rawLen)
	return append(b, h.digest[:]...)
}

func (h *header) unmarshal(b []byte) error {
	if string(b[:len(Magic)]) != Magic {
		return fmt.Errorf("%w: bad magic %q", ErrFormat, b[:len(Magic)])
	}
	b = b[len(Magic):]
	h.flags = b[0]
	if h.flags&^knownFlags != 0 {
		return fmt.Errorf("%w: unknown flags %#02x", ErrFormat, h.flags)
	}
	h.storedLen = binary.LittleEndian.Uint64(b[1:])
	h.rawLen = binary.LittleEndian.Uint64(b[9:])
	copy(h.digest[:], b[17:])
	if h.flags&flagZstd == 0 && h.storedLen != h.rawLen {
		return fmt.Errorf("%w: uncompressed payload with stored length %d and raw length %d", ErrFormat, h.storedLen, h.rawLen)
	}
	return nil
}

func digest(payload []byte) (sum [digestSize]byte) {
	hasher := blake3.New()
	hasher.Write(payload)
	copy(sum[:], hasher.Sum(nil))
	return
}

// Save writes m on w as a container: a header carrying the blake3 digest
// of the serialized map, followed by the serialized map, compressed with
// zstd if opts.Compress is set.
func Save(w io.Writer, m *Map, opts SaveOptions) (n int64, err error) {

	payload, err := m.MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("cannot Save: %w", err)
	}

	h := header{
		rawLen: uint64(len(payload)),
		digest: digest(payload),
	}

	if opts.Compress {

		level := opts.Level
		if level == 0 {
			level = zstd.SpeedDefault
		}

		var enc *zstd.Encoder
		if enc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(level)); err != nil {
			return 0, fmt.Errorf("cannot Save: zstd.NewWriter: %w", err)
		}

		payload = enc.EncodeAll(payload, make([]byte, 0, len(payload)/2))

		if err = enc.Close(); err != nil {
			return 0, fmt.Errorf("cannot Save: zstd.Encoder.Close: %w", err)
		}

		h.flags |= flagZstd
	}

	h.storedLen = uint64(len(payload))

	var inc int
	if inc, err = w.Write(h.marshal()); err != nil {
		return int64(inc), fmt.Errorf("cannot Save: header: %w", err)
	}
	n += int64(inc)

	if inc, err = w.Write(payload); err != nil {
		return n + int64(inc), fmt.Errorf("cannot Save: payload: %w", err)
	}
	n += int64(inc)

	return n, nil
}

// Load reads a container written by Save. Bad magic, unknown flags,
// truncated payloads or trailing bytes in the payload return an error
// wrapping ErrFormat, a digest mismatch an error wrapping ErrChecksum.
func Load(r io.Reader, opts LoadOptions) (*Map, error) {

	maxPayload := opts.MaxPayload
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}

	hb := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hb); err != nil {
		return nil, fmt.Errorf("cannot Load: %w: header: %v", ErrFormat, err)
	}

	var h header
	if err := h.unmarshal(hb); err != nil {
		return nil, fmt.Errorf("cannot Load: %w", err)
	}

	if h.rawLen > uint64(maxPayload) || h.storedLen > uint64(maxPayload) {
		return nil, fmt.Errorf("cannot Load: %w: payload of %d bytes exceeds %d bytes", ErrFormat, h.rawLen, maxPayload)
	}

	stored := make([]byte, h.storedLen)
	if _, err := io.ReadFull(r, stored); err != nil {
		return nil, fmt.Errorf("cannot Load: %w: payload: %v", ErrFormat, err)
	}

	payload := stored

	if h.flags&flagZstd != 0 {

		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(h.rawLen+1))
		if err != nil {
			return nil, fmt.Errorf("cannot Load: zstd.NewReader: %w", err)
		}

		payload, err = dec.DecodeAll(stored, make([]byte, 0, h.rawLen))
		dec.Close()

		if err != nil {
			return nil, fmt.Errorf("cannot Load: %w: zstd: %v", ErrFormat, err)
		}

		if uint64(len(payload)) != h.rawLen {
			return nil, fmt.Errorf("cannot Load: %w: payload decompressed to %d bytes, want %d", ErrFormat, len(payload), h.rawLen)
		}
	}

	if sum := digest(payload); !bytes.Equal(sum[:], h.digest[:]) {
		return nil, fmt.Errorf("cannot Load: %w", ErrChecksum)
	}

	buf := buffer.NewBuffer(payload)

	m := new(Map)
	if _, err := m.ReadFrom(buf); err != nil {
		return nil, fmt.Errorf("cannot Load: %w", err)
	}

	if buf.Size() != 0 {
		return nil, fmt.Errorf("cannot Load: %w: %d trailing bytes after the map record", ErrFormat, buf.Size())
	}

	return m.WithBoundaryPolicy(opts.Policy), nil
}

// SaveFile writes m to the file at path, see Save.
func SaveFile(path string, m *Map, opts SaveOptions) (err error) {

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot SaveFile: %w", err)
	}

	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("cannot SaveFile: %w", cerr)
		}
	}()

	bw := bufio.NewWriter(f)

	if _, err = Save(bw, m, opts); err != nil {
		return err
	}

	if err = bw.Flush(); err != nil {
		return fmt.Errorf("cannot SaveFile: %w", err)
	}

	return nil
}

// LoadFile reads the map stored in the file at path, see Load.
func LoadFile(path string, opts LoadOptions) (*Map, error) {

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot LoadFile: %w", err)
	}
	defer f.Close()

	return Load(bufio.NewReader(f), opts)
}
