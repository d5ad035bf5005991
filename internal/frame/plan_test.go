package frame

import (
	"encoding/binary"
	"math"
	"testing"
)

func hostUint64(blob []byte, offset uint32) uint64 {
	return binary.NativeEndian.Uint64(blob[offset:])
}

func appBytes(s string) [260]byte {
	var b [260]byte
	copy(b[:259], s)
	return b
}

func baseFrame() *FrameData {
	return &FrameData{
		PresentEvent: PresentEvent{
			FinalState:  PresentResultPresented,
			Application: appBytes("game.exe"),
		},
	}
}

func TestLayoutAndPadding(t *testing.T) {
	// S1: APPLICATION, GPU_BUSY, DROPPED_FRAMES.
	plan, err := New([]QueryElement{
		{Metric: MetricApplication},
		{Metric: MetricGPUBusy},
		{Metric: MetricDroppedFrames},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	els := plan.Elements()
	if els[0].DataOffset != 0 || els[0].DataSize != 260 {
		t.Errorf("APPLICATION offset/size = %d/%d, want 0/260", els[0].DataOffset, els[0].DataSize)
	}
	if els[1].DataOffset != 264 || els[1].DataSize != 8 {
		t.Errorf("GPU_BUSY offset/size = %d/%d, want 264/8", els[1].DataOffset, els[1].DataSize)
	}
	if els[2].DataOffset != 272 || els[2].DataSize != 1 {
		t.Errorf("DROPPED_FRAMES offset/size = %d/%d, want 272/1", els[2].DataOffset, els[2].DataSize)
	}
	if plan.BlobSize() != 288 {
		t.Errorf("BlobSize = %d, want 288", plan.BlobSize())
	}
}

func TestDroppedSemantics(t *testing.T) {
	// S2
	plan, err := New([]QueryElement{
		{Metric: MetricDisplayLatency},
		{Metric: MetricCPUBusy},
		{Metric: MetricCPUWait},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	frame := baseFrame()
	frame.PresentEvent.FinalState = PresentResultDiscarded
	frame.PresentEvent.TimeInPresent = 1000

	ctx := &FrameContext{PerformanceCounterPeriodMs: 0.001}
	ctx.UpdateSourceData(frame, nil, nil, nil, nil)

	blob := make([]byte, plan.BlobSize())
	plan.Gather(ctx, blob)

	els := plan.Elements()
	displayLatency := readF64(blob, els[0].DataOffset)
	cpuBusy := readF64(blob, els[1].DataOffset)
	cpuWait := readF64(blob, els[2].DataOffset)

	if !math.IsNaN(displayLatency) {
		t.Errorf("DISPLAY_LATENCY = %v, want NaN", displayLatency)
	}
	if math.IsNaN(cpuBusy) {
		t.Errorf("CPU_BUSY = NaN, want a value (no drop-check)")
	}
	if cpuWait != 1.0 {
		t.Errorf("CPU_WAIT = %v, want 1.0", cpuWait)
	}
}

func TestGPUWaitClamps(t *testing.T) {
	// S3
	plan, err := New([]QueryElement{{Metric: MetricGPUWait}}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	frame := baseFrame()
	frame.PresentEvent.GPUStartTime = 100
	frame.PresentEvent.ReadyTime = 200
	frame.PresentEvent.GPUDuration = 150

	ctx := &FrameContext{PerformanceCounterPeriodMs: 1.0}
	ctx.UpdateSourceData(frame, nil, nil, nil, nil)

	blob := make([]byte, plan.BlobSize())
	plan.Gather(ctx, blob)

	got := readF64(blob, plan.Elements()[0].DataOffset)
	if got != 0.0 {
		t.Errorf("GPU_WAIT = %v, want 0.0", got)
	}
}

func TestAnimationErrorZeroGuard(t *testing.T) {
	// S4
	plan, err := New([]QueryElement{{Metric: MetricAnimationError}}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	frame := baseFrame()
	frame.PresentEvent.ScreenTime = 5000

	ctx := &FrameContext{PerformanceCounterPeriodMs: 1.0}
	ctx.UpdateSourceData(frame, nil, nil, nil, nil) // previousDisplayedCpuStartQpc stays 0

	blob := make([]byte, plan.BlobSize())
	plan.Gather(ctx, blob)

	got := readF64(blob, plan.Elements()[0].DataOffset)
	if got != 0.0 {
		t.Errorf("ANIMATION_ERROR = %v, want exact 0.0", got)
	}

	// Equal intervals also collapse to exactly 0.0.
	lastDisplayed := baseFrame()
	lastDisplayed.PresentEvent.ScreenTime = 1000
	previousLastDisplayed := baseFrame()
	previousLastDisplayed.PresentEvent.PresentStartTime = 500
	lastPresented := baseFrame()
	lastPresented.PresentEvent.PresentStartTime = 4500

	frame2 := baseFrame()
	frame2.PresentEvent.ScreenTime = 5000

	ctx.UpdateSourceData(frame2, nil, lastPresented, lastDisplayed, previousLastDisplayed)
	blob2 := make([]byte, plan.BlobSize())
	plan.Gather(ctx, blob2)
	got2 := readF64(blob2, plan.Elements()[0].DataOffset)
	if got2 != 0.0 {
		t.Errorf("ANIMATION_ERROR equal-interval case = %v, want 0.0", got2)
	}
}

func TestMultiDeviceRejection(t *testing.T) {
	// S5
	_, err := New([]QueryElement{
		{Metric: MetricGPUUtilization, DeviceID: 0},
		{Metric: MetricGPUUtilization, DeviceID: 1},
		{Metric: MetricGPUUtilization, DeviceID: 0},
		{Metric: MetricGPUUtilization, DeviceID: 2},
	}, nil)
	if err != ErrMultipleDevices {
		t.Fatalf("err = %v, want ErrMultipleDevices", err)
	}
}

func TestUnknownMetricTolerance(t *testing.T) {
	// S6: an unrecognized metric is dropped from the plan rather than
	// failing the whole query, leaving its element's offset/size zeroed
	// and consuming no blob space.
	known, err := New([]QueryElement{
		{Metric: MetricGPUBusy},
		{Metric: MetricCPUWait},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	plan, err := New([]QueryElement{
		{Metric: MetricGPUBusy},
		{Metric: MetricID(99999)},
		{Metric: MetricCPUWait},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	els := plan.Elements()
	if els[1].DataOffset != 0 || els[1].DataSize != 0 {
		t.Errorf("unknown metric offset/size = %d/%d, want 0/0", els[1].DataOffset, els[1].DataSize)
	}
	if plan.BlobSize() != known.BlobSize() {
		t.Errorf("BlobSize = %d, want %d (only the two realized metrics)", plan.BlobSize(), known.BlobSize())
	}
	if plan.BlobSize()%16 != 0 {
		t.Errorf("BlobSize %d not 16-aligned", plan.BlobSize())
	}
}

func TestApplicationCopiesFullString(t *testing.T) {
	plan, err := New([]QueryElement{{Metric: MetricApplication}}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	frame := baseFrame()
	frame.PresentEvent.Application = appBytes("some-long-game-title.exe")

	ctx := &FrameContext{PerformanceCounterPeriodMs: 1.0}
	ctx.UpdateSourceData(frame, nil, nil, nil, nil)

	blob := make([]byte, plan.BlobSize())
	plan.Gather(ctx, blob)

	off := plan.Elements()[0].DataOffset
	region := blob[off : off+260]
	n := 0
	for n < len(region) && region[n] != 0 {
		n++
	}
	if got := string(region[:n]); got != "some-long-game-title.exe" {
		t.Errorf("APPLICATION = %q, want full string", got)
	}
}

func TestReferencedDevice(t *testing.T) {
	plan, err := New([]QueryElement{
		{Metric: MetricGPUUtilization, DeviceID: 3},
		{Metric: MetricCPUUtilization},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, ok := plan.ReferencedDevice()
	if !ok || id != 3 {
		t.Errorf("ReferencedDevice = %d,%v want 3,true", id, ok)
	}
}

func TestClickToPhotonLatency(t *testing.T) {
	plan, err := New([]QueryElement{{Metric: MetricClickToPhotonLatency}}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	frame := baseFrame()
	frame.PresentEvent.InputTime = 1000
	frame.PresentEvent.ScreenTime = 3000

	ctx := &FrameContext{PerformanceCounterPeriodMs: 2.0}
	ctx.UpdateSourceData(frame, nil, nil, nil, nil)

	blob := make([]byte, plan.BlobSize())
	plan.Gather(ctx, blob)

	got := readF64(blob, plan.Elements()[0].DataOffset)
	if got != 4000.0 {
		t.Errorf("CLICK_TO_PHOTON_LATENCY = %v, want 4000.0", got)
	}

	// InputTime == 0 -> zero-check triggers NaN.
	frame.PresentEvent.InputTime = 0
	ctx.UpdateSourceData(frame, nil, nil, nil, nil)
	blob2 := make([]byte, plan.BlobSize())
	plan.Gather(ctx, blob2)
	got2 := readF64(blob2, plan.Elements()[0].DataOffset)
	if !math.IsNaN(got2) {
		t.Errorf("CLICK_TO_PHOTON_LATENCY with InputTime=0 = %v, want NaN", got2)
	}
}

func TestEmptyQueryRejected(t *testing.T) {
	if _, err := New(nil, nil); err != ErrNoElements {
		t.Fatalf("err = %v, want ErrNoElements", err)
	}
}
func readF64(blob []byte, offset uint32) float64 {
	return math.Float64frombits(hostUint64(blob, offset))
}
