package frame

import (
	"encoding/binary"
	"math"
)

// The destination blob is written in host byte order at each strategy's
// pre-computed, alignment-respecting offset so that a peer reader casting
// the buffer to a native struct sees the expected layout. Callers that
// hand the blob across a shared-memory boundary are responsible for
// backing it with a suitably aligned allocation; encoding/binary here only
// controls byte order, not the buffer's base address.

func writeFloat64(blob []byte, offset uint32, v float64) {
	binary.NativeEndian.PutUint64(blob[offset:], math.Float64bits(v))
}

func writeUint64(blob []byte, offset uint32, v uint64) {
	binary.NativeEndian.PutUint64(blob[offset:], v)
}

func writeUint32(blob []byte, offset uint32, v uint32) {
	binary.NativeEndian.PutUint32(blob[offset:], v)
}

func writeInt32(blob []byte, offset uint32, v int32) {
	binary.NativeEndian.PutUint32(blob[offset:], uint32(v))
}

func writeUint8(blob []byte, offset uint32, v uint8) {
	blob[offset] = v
}

func writeBool(blob []byte, offset uint32, v bool) {
	if v {
		blob[offset] = 1
	} else {
		blob[offset] = 0
	}
}

// writeString260 writes s NUL-terminated into a 260-byte region, truncating
// if necessary so the terminator always fits.
func writeString260(blob []byte, offset uint32, s string) {
	region := blob[offset : offset+260]
	for i := range region {
		region[i] = 0
	}
	n := copy(region[:259], s)
	region[n] = 0
}

func timestampDeltaMs(delta uint64, periodMs float64) float64 {
	return periodMs * float64(delta)
}

// timestampDeltaUnsignedMs treats from/to as absolute QPC values: a
// missing (zero) start or a non-increasing interval yields 0.0 rather than
// a negative or huge wrapped duration.
func timestampDeltaUnsignedMs(from, to uint64, periodMs float64) float64 {
	if from == 0 || to <= from {
		return 0.0
	}
	return timestampDeltaMs(to-from, periodMs)
}

// timestampDeltaMsSigned treats from/to as already-differenced quantities
// (e.g. two interval lengths) and returns their signed delta in
// milliseconds, without unsigned wraparound. Either operand being exactly
// zero, or the two being equal, short-circuits to 0.0.
func timestampDeltaMsSigned(from, to uint64, periodMs float64) float64 {
	if from == 0 || to == 0 || from == to {
		return 0.0
	}
	if to > from {
		return timestampDeltaMs(to-from, periodMs)
	}
	return -timestampDeltaMs(from-to, periodMs)
}
