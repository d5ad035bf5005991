package frame

import "math"

// GatherStrategy is a stateless, single-field extractor compiled at plan
// construction time. Each variant below is one metric "shape" from the
// catalog; all of them are allocation-free on the hot Gather path.
type GatherStrategy interface {
	Gather(ctx *FrameContext, blob []byte)
	BeginOffset() uint32
	OutputOffset() uint32
	EndOffset() uint32
}

// --- Copy: plain field extraction, one concrete type per output width ---

type copyFloat64Strategy struct {
	offsets
	get func(*FrameData) float64
}

func newCopyFloat64(cursor uint32, get func(*FrameData) float64) *copyFloat64Strategy {
	return &copyFloat64Strategy{offsets: newOffsets(cursor, 8, 8), get: get}
}
func (s *copyFloat64Strategy) Gather(ctx *FrameContext, blob []byte) {
	writeFloat64(blob, s.OutputOffset(), s.get(ctx.SourceFrameData))
}

type copyUint64Strategy struct {
	offsets
	get func(*FrameData) uint64
}

func newCopyUint64(cursor uint32, get func(*FrameData) uint64) *copyUint64Strategy {
	return &copyUint64Strategy{offsets: newOffsets(cursor, 8, 8), get: get}
}
func (s *copyUint64Strategy) Gather(ctx *FrameContext, blob []byte) {
	writeUint64(blob, s.OutputOffset(), s.get(ctx.SourceFrameData))
}

type copyUint32Strategy struct {
	offsets
	get func(*FrameData) uint32
}

func newCopyUint32(cursor uint32, get func(*FrameData) uint32) *copyUint32Strategy {
	return &copyUint32Strategy{offsets: newOffsets(cursor, 4, 4), get: get}
}
func (s *copyUint32Strategy) Gather(ctx *FrameContext, blob []byte) {
	writeUint32(blob, s.OutputOffset(), s.get(ctx.SourceFrameData))
}

type copyInt32Strategy struct {
	offsets
	get func(*FrameData) int32
}

func newCopyInt32(cursor uint32, get func(*FrameData) int32) *copyInt32Strategy {
	return &copyInt32Strategy{offsets: newOffsets(cursor, 4, 4), get: get}
}
func (s *copyInt32Strategy) Gather(ctx *FrameContext, blob []byte) {
	writeInt32(blob, s.OutputOffset(), s.get(ctx.SourceFrameData))
}

type copyBoolStrategy struct {
	offsets
	get func(*FrameData) bool
}

func newCopyBool(cursor uint32, get func(*FrameData) bool) *copyBoolStrategy {
	return &copyBoolStrategy{offsets: newOffsets(cursor, 1, 1), get: get}
}
func (s *copyBoolStrategy) Gather(ctx *FrameContext, blob []byte) {
	writeBool(blob, s.OutputOffset(), s.get(ctx.SourceFrameData))
}

type copyUint8Strategy struct {
	offsets
	get func(*FrameData) uint8
}

func newCopyUint8(cursor uint32, get func(*FrameData) uint8) *copyUint8Strategy {
	return &copyUint8Strategy{offsets: newOffsets(cursor, 1, 1), get: get}
}
func (s *copyUint8Strategy) Gather(ctx *FrameContext, blob []byte) {
	writeUint8(blob, s.OutputOffset(), s.get(ctx.SourceFrameData))
}

type copyString260Strategy struct {
	offsets
	get func(*FrameData) string
}

func newCopyString260(cursor uint32, get func(*FrameData) string) *copyString260Strategy {
	return &copyString260Strategy{offsets: newOffsets(cursor, 1, 260), get: get}
}
func (s *copyString260Strategy) Gather(ctx *FrameContext, blob []byte) {
	writeString260(blob, s.OutputOffset(), s.get(ctx.SourceFrameData))
}

// copyFloat64ArrayStrategy handles array-valued fields such as per-fan RPM,
// reading the element at the query's requested arrayIndex.
type copyFloat64ArrayStrategy struct {
	offsets
	index uint16
	get   func(*FrameData, uint16) float64
}

func newCopyFloat64Array(cursor uint32, index uint16, get func(*FrameData, uint16) float64) *copyFloat64ArrayStrategy {
	return &copyFloat64ArrayStrategy{offsets: newOffsets(cursor, 8, 8), index: index, get: get}
}
func (s *copyFloat64ArrayStrategy) Gather(ctx *FrameContext, blob []byte) {
	writeFloat64(blob, s.OutputOffset(), s.get(ctx.SourceFrameData, s.index))
}

// frameTypeCopyStrategy is kept distinct from the generic uint8 copy
// because FRAME_TYPE is the one field the layout planner treats as a
// dedicated column in every catalog revision, generated/interpolated
// frame support having grown up around it specifically.
type frameTypeCopyStrategy struct {
	offsets
}

func newFrameTypeCopy(cursor uint32) *frameTypeCopyStrategy {
	return &frameTypeCopyStrategy{offsets: newOffsets(cursor, 1, 1)}
}
func (s *frameTypeCopyStrategy) Gather(ctx *FrameContext, blob []byte) {
	writeUint8(blob, s.OutputOffset(), ctx.SourceFrameData.PresentEvent.FrameType)
}

// --- QpcDuration: raw tick count times period, zero passes through as 0.0 ---

type qpcDurationStrategy struct {
	offsets
	get func(*PresentEvent) uint64
}

func newQpcDuration(cursor uint32, get func(*PresentEvent) uint64) *qpcDurationStrategy {
	return &qpcDurationStrategy{offsets: newOffsets(cursor, 8, 8), get: get}
}
func (s *qpcDurationStrategy) Gather(ctx *FrameContext, blob []byte) {
	qpc := s.get(&ctx.SourceFrameData.PresentEvent)
	if qpc == 0 {
		writeFloat64(blob, s.OutputOffset(), 0)
		return
	}
	writeFloat64(blob, s.OutputOffset(), ctx.PerformanceCounterPeriodMs*float64(qpc))
}

// --- QpcDifference: start/end within present_event, configurable guards ---

type qpcDifferenceStrategy struct {
	offsets
	getStart      func(*PresentEvent) uint64
	getEnd        func(*PresentEvent) uint64
	doZeroCheck   bool
	doDroppedCheck bool
	allowNegative bool
}

func newQpcDifference(cursor uint32, getStart, getEnd func(*PresentEvent) uint64, doZeroCheck, doDroppedCheck, allowNegative bool) *qpcDifferenceStrategy {
	return &qpcDifferenceStrategy{
		offsets:        newOffsets(cursor, 8, 8),
		getStart:       getStart,
		getEnd:         getEnd,
		doZeroCheck:    doZeroCheck,
		doDroppedCheck: doDroppedCheck,
		allowNegative:  allowNegative,
	}
}

// newClickToPhotonStrategy is the CLICK_TO_PHOTON_LATENCY instantiation of
// QpcDifference: InputTime to ScreenTime, zero- and drop-checked,
// unsigned.
func newClickToPhotonStrategy(cursor uint32) *qpcDifferenceStrategy {
	return newQpcDifference(cursor,
		func(p *PresentEvent) uint64 { return p.InputTime },
		func(p *PresentEvent) uint64 { return p.EffectiveScreenTime() },
		true, true, false)
}

func (s *qpcDifferenceStrategy) Gather(ctx *FrameContext, blob []byte) {
	pe := &ctx.SourceFrameData.PresentEvent
	if s.doDroppedCheck && ctx.Dropped() {
		writeFloat64(blob, s.OutputOffset(), math.NaN())
		return
	}
	start := s.getStart(pe)
	if s.doZeroCheck && start == 0 {
		writeFloat64(blob, s.OutputOffset(), math.NaN())
		return
	}
	if s.allowNegative {
		end := s.getEnd(pe)
		val := ctx.PerformanceCounterPeriodMs * (float64(end) - float64(start))
		writeFloat64(blob, s.OutputOffset(), val)
		return
	}
	writeFloat64(blob, s.OutputOffset(), timestampDeltaUnsignedMs(start, s.getEnd(pe), ctx.PerformanceCounterPeriodMs))
}

// --- Dropped: raw boolean flag ---

type droppedStrategy struct {
	offsets
}

func newDropped(cursor uint32) *droppedStrategy {
	return &droppedStrategy{offsets: newOffsets(cursor, 1, 1)}
}
func (s *droppedStrategy) Gather(ctx *FrameContext, blob []byte) {
	writeBool(blob, s.OutputOffset(), ctx.Dropped())
}

// --- StartDifference: elapsed session time, no guards ---

type startDifferenceStrategy struct {
	offsets
	getEnd func(*PresentEvent) uint64
}

func newStartDifference(cursor uint32, getEnd func(*PresentEvent) uint64) *startDifferenceStrategy {
	return &startDifferenceStrategy{offsets: newOffsets(cursor, 8, 8), getEnd: getEnd}
}
func (s *startDifferenceStrategy) Gather(ctx *FrameContext, blob []byte) {
	qpcDuration := s.getEnd(&ctx.SourceFrameData.PresentEvent) - ctx.QPCStart
	writeFloat64(blob, s.OutputOffset(), ctx.PerformanceCounterPeriodMs*float64(qpcDuration))
}

// --- CpuFrameQpc: raw cpuStart, not converted to ms ---

type cpuFrameQpcStrategy struct {
	offsets
}

func newCpuFrameQpc(cursor uint32) *cpuFrameQpcStrategy {
	return &cpuFrameQpcStrategy{offsets: newOffsets(cursor, 8, 8)}
}
func (s *cpuFrameQpcStrategy) Gather(ctx *FrameContext, blob []byte) {
	writeUint64(blob, s.OutputOffset(), ctx.cpuStart)
}

// --- CpuFrameQpcDifference: cpuStart to a present_event field ---

type cpuFrameQpcDifferenceStrategy struct {
	offsets
	getEnd        func(*PresentEvent) uint64
	doDroppedCheck bool
}

func newCpuFrameQpcDifference(cursor uint32, getEnd func(*PresentEvent) uint64, doDroppedCheck bool) *cpuFrameQpcDifferenceStrategy {
	return &cpuFrameQpcDifferenceStrategy{offsets: newOffsets(cursor, 8, 8), getEnd: getEnd, doDroppedCheck: doDroppedCheck}
}

// newDisplayLatencyStrategy is the DISPLAY_LATENCY instantiation of
// CpuFrameQpcDifference: cpuStart to ScreenTime, drop-checked.
func newDisplayLatencyStrategy(cursor uint32) *cpuFrameQpcDifferenceStrategy {
	return newCpuFrameQpcDifference(cursor, func(p *PresentEvent) uint64 { return p.EffectiveScreenTime() }, true)
}

func (s *cpuFrameQpcDifferenceStrategy) Gather(ctx *FrameContext, blob []byte) {
	if s.doDroppedCheck && ctx.Dropped() {
		writeFloat64(blob, s.OutputOffset(), math.NaN())
		return
	}
	val := timestampDeltaUnsignedMs(ctx.cpuStart, s.getEnd(&ctx.SourceFrameData.PresentEvent), ctx.PerformanceCounterPeriodMs)
	writeFloat64(blob, s.OutputOffset(), val)
}

// --- CpuFrameQpcFrameTime: cpuBusy + cpuWait ---

type cpuFrameQpcFrameTimeStrategy struct {
	offsets
}

func newCpuFrameQpcFrameTime(cursor uint32) *cpuFrameQpcFrameTimeStrategy {
	return &cpuFrameQpcFrameTimeStrategy{offsets: newOffsets(cursor, 8, 8)}
}
func (s *cpuFrameQpcFrameTimeStrategy) Gather(ctx *FrameContext, blob []byte) {
	pe := &ctx.SourceFrameData.PresentEvent
	cpuBusy := timestampDeltaUnsignedMs(ctx.cpuStart, pe.PresentStartTime, ctx.PerformanceCounterPeriodMs)
	cpuWait := timestampDeltaMs(pe.TimeInPresent, ctx.PerformanceCounterPeriodMs)
	writeFloat64(blob, s.OutputOffset(), cpuBusy+cpuWait)
}

// --- DisplayDifference: present field to nextDisplayedQpc ---

type displayDifferenceStrategy struct {
	offsets
	getStart      func(*PresentEvent) uint64
	doDroppedCheck bool
	doZeroCheck   bool
}

func newDisplayDifference(cursor uint32, getStart func(*PresentEvent) uint64, doDroppedCheck, doZeroCheck bool) *displayDifferenceStrategy {
	return &displayDifferenceStrategy{offsets: newOffsets(cursor, 8, 8), getStart: getStart, doDroppedCheck: doDroppedCheck, doZeroCheck: doZeroCheck}
}
func (s *displayDifferenceStrategy) Gather(ctx *FrameContext, blob []byte) {
	if s.doDroppedCheck && ctx.Dropped() {
		writeFloat64(blob, s.OutputOffset(), math.NaN())
		return
	}
	val := timestampDeltaUnsignedMs(s.getStart(&ctx.SourceFrameData.PresentEvent), ctx.nextDisplayedQpc, ctx.PerformanceCounterPeriodMs)
	if s.doZeroCheck && val == 0 {
		writeFloat64(blob, s.OutputOffset(), math.NaN())
		return
	}
	writeFloat64(blob, s.OutputOffset(), val)
}

// --- AnimationError: two-interval signed comparison ---

type animationErrorStrategy struct {
	offsets
	getStart      func(*PresentEvent) uint64
	doDroppedCheck bool
	doZeroCheck   bool
}

func newAnimationError(cursor uint32, getStart func(*PresentEvent) uint64, doDroppedCheck, doZeroCheck bool) *animationErrorStrategy {
	return &animationErrorStrategy{offsets: newOffsets(cursor, 8, 8), getStart: getStart, doDroppedCheck: doDroppedCheck, doZeroCheck: doZeroCheck}
}
func (s *animationErrorStrategy) Gather(ctx *FrameContext, blob []byte) {
	if s.doDroppedCheck && ctx.Dropped() {
		writeFloat64(blob, s.OutputOffset(), math.NaN())
		return
	}
	if s.doZeroCheck && ctx.previousDisplayedCpuStartQpc == 0 {
		writeFloat64(blob, s.OutputOffset(), 0.0)
		return
	}
	displayInterval := s.getStart(&ctx.SourceFrameData.PresentEvent) - ctx.previousDisplayedQpc
	cpuInterval := ctx.cpuStart - ctx.previousDisplayedCpuStartQpc
	writeFloat64(blob, s.OutputOffset(), timestampDeltaMsSigned(displayInterval, cpuInterval, ctx.PerformanceCounterPeriodMs))
}

// --- GpuWait: max(0, gpuDuration - gpuBusy) ---

type gpuWaitStrategy struct {
	offsets
}

func newGpuWait(cursor uint32) *gpuWaitStrategy {
	return &gpuWaitStrategy{offsets: newOffsets(cursor, 8, 8)}
}
func (s *gpuWaitStrategy) Gather(ctx *FrameContext, blob []byte) {
	pe := &ctx.SourceFrameData.PresentEvent
	gpuDuration := timestampDeltaUnsignedMs(pe.GPUStartTime, pe.ReadyTime, ctx.PerformanceCounterPeriodMs)
	gpuBusy := timestampDeltaMs(pe.GPUDuration, ctx.PerformanceCounterPeriodMs)
	writeFloat64(blob, s.OutputOffset(), math.Max(0, gpuDuration-gpuBusy))
}
