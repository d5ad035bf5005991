// Package frame implements the frame event query engine: compiling a
// client's selection of named metrics into a plan that extracts those
// metrics from a raw present-event record into a packed binary blob.
package frame

// MetricID identifies one supported per-frame metric. The set is closed;
// new metrics require a new catalog entry, not runtime registration.
type MetricID int

const (
	MetricUnknown MetricID = iota

	MetricApplication
	MetricSwapChainAddress
	MetricPresentMode
	MetricPresentRuntime
	MetricPresentFlags
	MetricSyncInterval
	MetricAllowsTearing
	MetricFrameType

	MetricGPUMemSize
	MetricGPUMemMaxBandwidth
	MetricGPUPower
	MetricGPUVoltage
	MetricGPUFrequency
	MetricGPUTemperature
	MetricGPUFanSpeed
	MetricGPUUtilization
	MetricGPURenderComputeUtilization
	MetricGPUMediaUtilization
	MetricGPUMemPower
	MetricGPUMemVoltage
	MetricGPUMemFrequency
	MetricGPUMemEffectiveFrequency
	MetricGPUMemTemperature
	MetricGPUMemUsed
	MetricGPUMemWriteBandwidth
	MetricGPUMemReadBandwidth
	MetricGPUPowerLimited
	MetricGPUTemperatureLimited
	MetricGPUCurrentLimited
	MetricGPUVoltageLimited
	MetricGPUUtilizationLimited
	MetricGPUMemPowerLimited
	MetricGPUMemTemperatureLimited
	MetricGPUMemCurrentLimited
	MetricGPUMemVoltageLimited
	MetricGPUMemUtilizationLimited

	MetricCPUUtilization
	MetricCPUPower
	MetricCPUTemperature
	MetricCPUFrequency

	MetricGPUBusy
	MetricCPUWait
	MetricDroppedFrames
	MetricCPUStartQPC
	MetricCPUStartTime
	MetricCPUFrameTime
	MetricCPUBusy
	MetricGPUTime
	MetricGPUWait
	MetricDisplayedTime
	MetricAnimationError
	MetricGPULatency
	MetricDisplayLatency
	MetricClickToPhotonLatency
)

var metricNames = map[MetricID]string{
	MetricApplication:                 "APPLICATION",
	MetricSwapChainAddress:            "SWAP_CHAIN_ADDRESS",
	MetricPresentMode:                 "PRESENT_MODE",
	MetricPresentRuntime:              "PRESENT_RUNTIME",
	MetricPresentFlags:                "PRESENT_FLAGS",
	MetricSyncInterval:                "SYNC_INTERVAL",
	MetricAllowsTearing:               "ALLOWS_TEARING",
	MetricFrameType:                   "FRAME_TYPE",
	MetricGPUMemSize:                  "GPU_MEM_SIZE",
	MetricGPUMemMaxBandwidth:          "GPU_MEM_MAX_BANDWIDTH",
	MetricGPUPower:                    "GPU_POWER",
	MetricGPUVoltage:                  "GPU_VOLTAGE",
	MetricGPUFrequency:                "GPU_FREQUENCY",
	MetricGPUTemperature:              "GPU_TEMPERATURE",
	MetricGPUFanSpeed:                 "GPU_FAN_SPEED",
	MetricGPUUtilization:              "GPU_UTILIZATION",
	MetricGPURenderComputeUtilization: "GPU_RENDER_COMPUTE_UTILIZATION",
	MetricGPUMediaUtilization:         "GPU_MEDIA_UTILIZATION",
	MetricGPUMemPower:                 "GPU_MEM_POWER",
	MetricGPUMemVoltage:               "GPU_MEM_VOLTAGE",
	MetricGPUMemFrequency:             "GPU_MEM_FREQUENCY",
	MetricGPUMemEffectiveFrequency:    "GPU_MEM_EFFECTIVE_FREQUENCY",
	MetricGPUMemTemperature:           "GPU_MEM_TEMPERATURE",
	MetricGPUMemUsed:                  "GPU_MEM_USED",
	MetricGPUMemWriteBandwidth:        "GPU_MEM_WRITE_BANDWIDTH",
	MetricGPUMemReadBandwidth:         "GPU_MEM_READ_BANDWIDTH",
	MetricGPUPowerLimited:             "GPU_POWER_LIMITED",
	MetricGPUTemperatureLimited:       "GPU_TEMPERATURE_LIMITED",
	MetricGPUCurrentLimited:           "GPU_CURRENT_LIMITED",
	MetricGPUVoltageLimited:           "GPU_VOLTAGE_LIMITED",
	MetricGPUUtilizationLimited:       "GPU_UTILIZATION_LIMITED",
	MetricGPUMemPowerLimited:          "GPU_MEM_POWER_LIMITED",
	MetricGPUMemTemperatureLimited:    "GPU_MEM_TEMPERATURE_LIMITED",
	MetricGPUMemCurrentLimited:        "GPU_MEM_CURRENT_LIMITED",
	MetricGPUMemVoltageLimited:        "GPU_MEM_VOLTAGE_LIMITED",
	MetricGPUMemUtilizationLimited:    "GPU_MEM_UTILIZATION_LIMITED",
	MetricCPUUtilization:              "CPU_UTILIZATION",
	MetricCPUPower:                    "CPU_POWER",
	MetricCPUTemperature:              "CPU_TEMPERATURE",
	MetricCPUFrequency:                "CPU_FREQUENCY",
	MetricGPUBusy:                     "GPU_BUSY",
	MetricCPUWait:                     "CPU_WAIT",
	MetricDroppedFrames:               "DROPPED_FRAMES",
	MetricCPUStartQPC:                 "CPU_START_QPC",
	MetricCPUStartTime:                "CPU_START_TIME",
	MetricCPUFrameTime:                "CPU_FRAME_TIME",
	MetricCPUBusy:                     "CPU_BUSY",
	MetricGPUTime:                     "GPU_TIME",
	MetricGPUWait:                     "GPU_WAIT",
	MetricDisplayedTime:               "DISPLAYED_TIME",
	MetricAnimationError:              "ANIMATION_ERROR",
	MetricGPULatency:                  "GPU_LATENCY",
	MetricDisplayLatency:              "DISPLAY_LATENCY",
	MetricClickToPhotonLatency:        "CLICK_TO_PHOTON_LATENCY",
}

// String returns the metric's mnemonic name, or "UNKNOWN" for an id
// outside the closed set.
func (m MetricID) String() string {
	if name, ok := metricNames[m]; ok {
		return name
	}
	return "UNKNOWN"
}

var metricByName = func() map[string]MetricID {
	m := make(map[string]MetricID, len(metricNames))
	for id, name := range metricNames {
		m[name] = id
	}
	return m
}()

// ParseMetricName resolves a mnemonic name (e.g. "GPU_BUSY") to its
// MetricID, for decoding client-supplied query elements.
func ParseMetricName(name string) (MetricID, bool) {
	id, ok := metricByName[name]
	return id, ok
}

// AllMetrics returns every supported metric id, in declaration order, for
// building a client-facing catalog listing.
func AllMetrics() []MetricID {
	ids := make([]MetricID, 0, len(metricNames))
	for id := MetricApplication; id <= MetricClickToPhotonLatency; id++ {
		if _, ok := metricNames[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
