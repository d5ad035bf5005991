package frame

// buildStrategy compiles one query element into a concrete GatherStrategy
// positioned at cursor. It returns false for a metric outside the closed
// set; layout then skips the element (no strategy, no blob space, its
// DataOffset/DataSize left at zero) rather than fail the whole plan, so a
// client mixing old and new metric ids degrades gracefully.
func buildStrategy(metric MetricID, cursor uint32, arrayIndex uint16) (GatherStrategy, bool) {
	switch metric {

	case MetricApplication:
		return newCopyString260(cursor, func(f *FrameData) string {
			n := 0
			for n < len(f.PresentEvent.Application) && f.PresentEvent.Application[n] != 0 {
				n++
			}
			return string(f.PresentEvent.Application[:n])
		}), true
	case MetricSwapChainAddress:
		return newCopyUint64(cursor, func(f *FrameData) uint64 { return f.PresentEvent.SwapChainAddress }), true
	case MetricPresentMode:
		return newCopyUint32(cursor, func(f *FrameData) uint32 { return f.PresentEvent.PresentMode }), true
	case MetricPresentRuntime:
		return newCopyUint32(cursor, func(f *FrameData) uint32 { return f.PresentEvent.Runtime }), true
	case MetricPresentFlags:
		return newCopyUint32(cursor, func(f *FrameData) uint32 { return f.PresentEvent.PresentFlags }), true
	case MetricSyncInterval:
		return newCopyInt32(cursor, func(f *FrameData) int32 { return f.PresentEvent.SyncInterval }), true
	case MetricAllowsTearing:
		return newCopyBool(cursor, func(f *FrameData) bool { return f.PresentEvent.SupportsTearing }), true
	case MetricFrameType:
		return newFrameTypeCopy(cursor), true

	case MetricGPUMemSize:
		return newCopyUint64(cursor, func(f *FrameData) uint64 { return f.PowerTelemetry.GPUMemTotalSizeB }), true
	case MetricGPUMemMaxBandwidth:
		return newCopyUint64(cursor, func(f *FrameData) uint64 { return f.PowerTelemetry.GPUMemMaxBandwidthBps }), true
	case MetricGPUMemUsed:
		return newCopyUint64(cursor, func(f *FrameData) uint64 { return f.PowerTelemetry.GPUMemUsedB }), true
	case MetricGPUMemWriteBandwidth:
		return newCopyUint64(cursor, func(f *FrameData) uint64 { return f.PowerTelemetry.GPUMemWriteBandwidthBps }), true
	case MetricGPUMemReadBandwidth:
		return newCopyUint64(cursor, func(f *FrameData) uint64 { return f.PowerTelemetry.GPUMemReadBandwidthBps }), true

	case MetricGPUPower:
		return newCopyFloat64(cursor, func(f *FrameData) float64 { return f.PowerTelemetry.GPUPowerW }), true
	case MetricGPUVoltage:
		return newCopyFloat64(cursor, func(f *FrameData) float64 { return f.PowerTelemetry.GPUVoltageV }), true
	case MetricGPUFrequency:
		return newCopyFloat64(cursor, func(f *FrameData) float64 { return f.PowerTelemetry.GPUFrequencyMHz }), true
	case MetricGPUTemperature:
		return newCopyFloat64(cursor, func(f *FrameData) float64 { return f.PowerTelemetry.GPUTemperatureC }), true
	case MetricGPUFanSpeed:
		return newCopyFloat64Array(cursor, arrayIndex, func(f *FrameData, idx uint16) float64 {
			if int(idx) >= len(f.PowerTelemetry.FanSpeedRPM) {
				return 0
			}
			return f.PowerTelemetry.FanSpeedRPM[idx]
		}), true
	case MetricGPUUtilization:
		return newCopyFloat64(cursor, func(f *FrameData) float64 { return f.PowerTelemetry.GPUUtilization }), true
	case MetricGPURenderComputeUtilization:
		return newCopyFloat64(cursor, func(f *FrameData) float64 { return f.PowerTelemetry.GPURenderComputeUtil }), true
	case MetricGPUMediaUtilization:
		return newCopyFloat64(cursor, func(f *FrameData) float64 { return f.PowerTelemetry.GPUMediaUtil }), true

	case MetricGPUMemPower:
		return newCopyFloat64(cursor, func(f *FrameData) float64 { return f.PowerTelemetry.VRAMPowerW }), true
	case MetricGPUMemVoltage:
		return newCopyFloat64(cursor, func(f *FrameData) float64 { return f.PowerTelemetry.VRAMVoltageV }), true
	case MetricGPUMemFrequency:
		return newCopyFloat64(cursor, func(f *FrameData) float64 { return f.PowerTelemetry.VRAMFrequencyMHz }), true
	case MetricGPUMemEffectiveFrequency:
		return newCopyFloat64(cursor, func(f *FrameData) float64 { return f.PowerTelemetry.VRAMEffectiveFrequencyGbps }), true
	case MetricGPUMemTemperature:
		return newCopyFloat64(cursor, func(f *FrameData) float64 { return f.PowerTelemetry.VRAMTemperatureC }), true

	case MetricGPUPowerLimited:
		return newCopyBool(cursor, func(f *FrameData) bool { return f.PowerTelemetry.GPUPowerLimited }), true
	case MetricGPUTemperatureLimited:
		return newCopyBool(cursor, func(f *FrameData) bool { return f.PowerTelemetry.GPUTemperatureLimited }), true
	case MetricGPUCurrentLimited:
		return newCopyBool(cursor, func(f *FrameData) bool { return f.PowerTelemetry.GPUCurrentLimited }), true
	case MetricGPUVoltageLimited:
		return newCopyBool(cursor, func(f *FrameData) bool { return f.PowerTelemetry.GPUVoltageLimited }), true
	case MetricGPUUtilizationLimited:
		return newCopyBool(cursor, func(f *FrameData) bool { return f.PowerTelemetry.GPUUtilizationLimited }), true
	case MetricGPUMemPowerLimited:
		return newCopyBool(cursor, func(f *FrameData) bool { return f.PowerTelemetry.VRAMPowerLimited }), true
	case MetricGPUMemTemperatureLimited:
		return newCopyBool(cursor, func(f *FrameData) bool { return f.PowerTelemetry.VRAMTemperatureLimited }), true
	case MetricGPUMemCurrentLimited:
		return newCopyBool(cursor, func(f *FrameData) bool { return f.PowerTelemetry.VRAMCurrentLimited }), true
	case MetricGPUMemVoltageLimited:
		return newCopyBool(cursor, func(f *FrameData) bool { return f.PowerTelemetry.VRAMVoltageLimited }), true
	case MetricGPUMemUtilizationLimited:
		return newCopyBool(cursor, func(f *FrameData) bool { return f.PowerTelemetry.VRAMUtilizationLimited }), true

	case MetricCPUUtilization:
		return newCopyFloat64(cursor, func(f *FrameData) float64 { return f.CPUTelemetry.CPUUtilization }), true
	case MetricCPUPower:
		return newCopyFloat64(cursor, func(f *FrameData) float64 { return f.CPUTelemetry.CPUPowerW }), true
	case MetricCPUTemperature:
		return newCopyFloat64(cursor, func(f *FrameData) float64 { return f.CPUTelemetry.CPUTemperatureC }), true
	case MetricCPUFrequency:
		return newCopyFloat64(cursor, func(f *FrameData) float64 { return f.CPUTelemetry.CPUFrequencyMHz }), true

	case MetricGPUBusy:
		return newQpcDuration(cursor, func(p *PresentEvent) uint64 { return p.GPUDuration }), true
	case MetricCPUWait:
		return newQpcDuration(cursor, func(p *PresentEvent) uint64 { return p.TimeInPresent }), true

	case MetricDroppedFrames:
		return newDropped(cursor), true

	case MetricCPUStartQPC:
		return newCpuFrameQpc(cursor), true
	case MetricCPUStartTime:
		return newStartDifference(cursor, func(p *PresentEvent) uint64 { return p.PresentStartTime }), true
	case MetricCPUFrameTime:
		return newCpuFrameQpcFrameTime(cursor), true
	case MetricCPUBusy:
		return newCpuFrameQpcDifference(cursor, func(p *PresentEvent) uint64 { return p.PresentStartTime }, false), true

	case MetricGPUTime:
		return newQpcDifference(cursor,
			func(p *PresentEvent) uint64 { return p.GPUStartTime },
			func(p *PresentEvent) uint64 { return p.ReadyTime },
			false, false, false), true
	case MetricGPUWait:
		return newGpuWait(cursor), true

	case MetricDisplayedTime:
		return newDisplayDifference(cursor, func(p *PresentEvent) uint64 { return p.EffectiveScreenTime() }, true, true), true
	case MetricAnimationError:
		return newAnimationError(cursor, func(p *PresentEvent) uint64 { return p.EffectiveScreenTime() }, true, true), true

	case MetricGPULatency:
		return newCpuFrameQpcDifference(cursor, func(p *PresentEvent) uint64 { return p.GPUStartTime }, false), true
	case MetricDisplayLatency:
		return newDisplayLatencyStrategy(cursor), true
	case MetricClickToPhotonLatency:
		return newClickToPhotonStrategy(cursor), true

	default:
		return nil, false
	}
}
