package frame

// padding returns the number of bytes needed to advance pos to the next
// multiple of align. align must be a power of two.
func padding(pos, align uint32) uint32 {
	rem := pos % align
	if rem == 0 {
		return 0
	}
	return align - rem
}

func alignUp(pos, align uint32) uint32 {
	return pos + padding(pos, align)
}

// offsets is embedded by every concrete gather strategy. It records the
// three positions a strategy occupies in the destination blob:
// beginOffset (including leading alignment padding), outputOffset (first
// written byte), and endOffset (one past the last written byte).
type offsets struct {
	outputOffset uint32
	pad          uint16
	size         uint16
}

func newOffsets(cursor, align, size uint32) offsets {
	pad := padding(cursor, align)
	return offsets{
		outputOffset: cursor + pad,
		pad:          uint16(pad),
		size:         uint16(size),
	}
}

func (o offsets) BeginOffset() uint32  { return o.outputOffset - uint32(o.pad) }
func (o offsets) OutputOffset() uint32 { return o.outputOffset }
func (o offsets) EndOffset() uint32    { return o.outputOffset + uint32(o.size) }

// DataSize returns the number of bytes a strategy writes.
func DataSize(s GatherStrategy) uint32 { return s.EndOffset() - s.OutputOffset() }

// TotalSize returns the span a strategy occupies including leading padding.
func TotalSize(s GatherStrategy) uint32 { return s.EndOffset() - s.BeginOffset() }
