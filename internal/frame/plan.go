package frame

import "log/slog"

// QueryPlan is a compiled, reusable extraction plan for one fixed set of
// query elements. Construction does the layout work once; Gather is then
// cheap enough to call once per delivered frame.
type QueryPlan struct {
	elements   []QueryElement
	strategies []GatherStrategy
	blobSize   uint32
	deviceID   uint32
	hasDevice  bool
}

// New compiles elements into a QueryPlan. elements is copied; the caller's
// slice is left untouched, and the returned Elements carry the resolved
// DataOffset/DataSize for each entry in submission order. logger receives
// diagnostics for unrecognized metrics; a nil logger defaults to
// slog.Default().
func New(elements []QueryElement, logger *slog.Logger) (*QueryPlan, error) {
	owned := make([]QueryElement, len(elements))
	copy(owned, elements)

	strategies, blobSize, deviceID, hasDevice, err := planLayout(owned, logger)
	if err != nil {
		return nil, err
	}

	return &QueryPlan{
		elements:   owned,
		strategies: strategies,
		blobSize:   blobSize,
		deviceID:   deviceID,
		hasDevice:  hasDevice,
	}, nil
}

// Elements returns the compiled query elements, each carrying its
// resolved DataOffset and DataSize.
func (p *QueryPlan) Elements() []QueryElement {
	out := make([]QueryElement, len(p.elements))
	copy(out, p.elements)
	return out
}

// BlobSize returns the number of bytes Gather writes into, including
// trailing alignment padding.
func (p *QueryPlan) BlobSize() uint32 { return p.blobSize }

// ReferencedDevice returns the single device id this plan's elements
// named, if any did.
func (p *QueryPlan) ReferencedDevice() (uint32, bool) { return p.deviceID, p.hasDevice }

// Gather runs every compiled strategy against ctx, writing results into
// blob. blob must be at least BlobSize() bytes long.
func (p *QueryPlan) Gather(ctx *FrameContext, blob []byte) {
	for _, s := range p.strategies {
		s.Gather(ctx, blob)
	}
}
