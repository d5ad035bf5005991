package frame

// PresentResult classifies how a present request was resolved by the
// display pipeline. Only Presented counts as shown on screen; every other
// value marks the frame dropped for gather purposes.
type PresentResult uint8

const (
	PresentResultUnknown PresentResult = iota
	PresentResultPresented
	PresentResultDiscarded
	PresentResultError
)

// DisplayEvent is one entry in a present's display history. Generated or
// interpolated frames may be shown more than once; DisplayedCount == 1 is
// the common case and is exposed as a scalar via PresentEvent.ScreenTime.
type DisplayEvent struct {
	ScreenTime uint64
	Index      uint32
}

// PresentEvent carries the QPC timestamps and metadata ETW/the platform
// present-tracking layer captures for one present call.
type PresentEvent struct {
	PresentStartTime uint64
	TimeInPresent    uint64
	GPUStartTime     uint64
	ReadyTime        uint64
	GPUDuration      uint64
	ScreenTime       uint64
	InputTime        uint64

	// Displayed holds every display event for this present under the
	// newer multi-display contract. DisplayedCount == 1 with
	// Displayed[0].ScreenTime == ScreenTime is the degenerate case that
	// every scalar-based metric below still handles unchanged.
	Displayed      []DisplayEvent
	DisplayedCount int

	FinalState       PresentResult
	PresentMode      uint32
	Runtime          uint32
	SyncInterval     int32
	PresentFlags     uint32
	SupportsTearing  bool
	FrameType        uint8
	SwapChainAddress uint64

	// Application is a NUL-terminated string up to 260 bytes, matching the
	// APPLICATION metric's output layout.
	Application [260]byte
}

// PowerTelemetry carries one GPU's power/thermal/clock/memory snapshot as
// sampled alongside the present event.
type PowerTelemetry struct {
	GPUMemTotalSizeB       uint64
	GPUMemMaxBandwidthBps  uint64
	GPUMemUsedB            uint64
	GPUMemWriteBandwidthBps uint64
	GPUMemReadBandwidthBps uint64

	GPUPowerW           float64
	GPUVoltageV         float64
	GPUFrequencyMHz     float64
	GPUTemperatureC     float64
	FanSpeedRPM         [8]float64
	GPUUtilization      float64
	GPURenderComputeUtil float64
	GPUMediaUtil        float64

	VRAMPowerW               float64
	VRAMVoltageV             float64
	VRAMFrequencyMHz         float64
	VRAMEffectiveFrequencyGbps float64
	VRAMTemperatureC         float64

	GPUPowerLimited        bool
	GPUTemperatureLimited  bool
	GPUCurrentLimited      bool
	GPUVoltageLimited      bool
	GPUUtilizationLimited  bool
	VRAMPowerLimited       bool
	VRAMTemperatureLimited bool
	VRAMCurrentLimited     bool
	VRAMVoltageLimited     bool
	VRAMUtilizationLimited bool
}

// CPUTelemetry carries the host CPU's power/thermal snapshot.
type CPUTelemetry struct {
	CPUUtilization float64
	CPUPowerW      float64
	CPUTemperatureC float64
	CPUFrequencyMHz float64
}

// FrameData is the raw per-frame record the upstream ring buffer delivers.
// The query engine only ever reads it; ownership stays with the caller.
type FrameData struct {
	PresentEvent   PresentEvent
	PowerTelemetry PowerTelemetry
	CPUTelemetry   CPUTelemetry
}

// EffectiveScreenTime returns the ScreenTime to use for correlation and
// display-difference metrics, preferring the multi-display contract when
// populated and falling back to the scalar field for the degenerate
// DisplayedCount == 1 (or unset) case.
func (p *PresentEvent) EffectiveScreenTime() uint64 {
	if p.DisplayedCount > 0 && len(p.Displayed) > 0 {
		return p.Displayed[len(p.Displayed)-1].ScreenTime
	}
	return p.ScreenTime
}
