package httpserver

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lumentel/frametap/internal/device"
	"github.com/lumentel/frametap/internal/stream"
)

// deviceMetricsCollector reports per-device telemetry freshness: one
// gauge per device recording how long ago it last received an ingested
// frame. Devices are enumerated live from the stream manager rather than
// the statically discovered list, so it also covers device ids that only
// ever show up in ingested frames (the universal device, or a GPU a
// discovery pass missed).
type deviceMetricsCollector struct {
	streams *stream.Manager
	names   map[uint32]string
	ageDesc *prometheus.Desc
}

func newDeviceMetricsCollector(devices []device.Info, streams *stream.Manager) prometheus.Collector {
	if streams == nil {
		return nil
	}

	names := make(map[uint32]string, len(devices))
	for _, info := range devices {
		names[info.ID] = info.Name
	}

	return &deviceMetricsCollector{
		streams: streams,
		names:   names,
		ageDesc: prometheus.NewDesc(
			prometheus.BuildFQName("frametap", "device", "sample_age_seconds"),
			"Seconds elapsed since the most recent frame ingested for this device.",
			[]string{"device_id", "device_name"},
			nil,
		),
	}
}

func (c *deviceMetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.ageDesc
}

func (c *deviceMetricsCollector) Collect(ch chan<- prometheus.Metric) {
	for _, id := range c.streams.Devices() {
		age, ok := c.streams.DeviceSampleAge(id)
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(
			c.ageDesc,
			prometheus.GaugeValue,
			age.Seconds(),
			strconv.FormatUint(uint64(id), 10),
			c.names[id],
		)
	}
}
