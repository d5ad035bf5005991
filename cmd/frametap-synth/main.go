// Command frametap-synth is a test/dev tool that synthesizes plausible
// frame.FrameData values at a fixed rate and feeds them to a running
// frametap-web instance over its ingest endpoint, exercising the
// correlation, gathering, and WebSocket streaming pipeline end-to-end
// without a real present-tracking data source.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/lumentel/frametap/internal/frame"
)

type options struct {
	addr        string
	deviceID    uint
	fps         float64
	count       int
	dropEvery   int
	tearingFlag bool
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.addr, "addr", "http://localhost:8080", "Base URL of a running frametap-web instance")
	flag.UintVar(&opts.deviceID, "device", 0, "Device id to attribute synthesized frames to (0 is the universal device)")
	flag.Float64Var(&opts.fps, "fps", 60, "Synthetic presentation rate in frames per second")
	flag.IntVar(&opts.count, "count", 0, "Number of frames to send, 0 for unlimited")
	flag.IntVar(&opts.dropEvery, "drop-every", 11, "Mark every Nth frame discarded, 0 to never drop")
	flag.Parse()
	return opts
}

func main() {
	opts := parseFlags()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if opts.fps <= 0 {
		logger.Error("fps must be positive")
		os.Exit(1)
	}
	interval := time.Duration(float64(time.Second) / opts.fps)

	client := &http.Client{Timeout: 5 * time.Second}
	url := fmt.Sprintf("%s/api/ingest?device_id=%d", opts.addr, opts.deviceID)

	logger.Info("synthesizing frames", "addr", opts.addr, "device_id", opts.deviceID, "fps", opts.fps, "interval", interval)

	src := newFrameSource(interval, opts.dropEvery)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sent := 0
	for range ticker.C {
		fd := src.next()
		if err := postFrame(client, url, fd); err != nil {
			logger.Warn("ingest post failed", "err", err)
			continue
		}
		sent++
		if opts.count > 0 && sent >= opts.count {
			logger.Info("done", "sent", sent)
			return
		}
	}
}

// frameSource produces monotonically increasing QPC ticks that resemble a
// steady presentation cadence with occasional GPU-bound stalls, matching
// the shapes the query engine's strategies branch on (dropped frames,
// varying GPUDuration, non-zero InputTime).
type frameSource struct {
	qpcPerFrame uint64
	qpc         uint64
	frameNo     int
	dropEvery   int
	rng         *rand.Rand
}

func newFrameSource(interval time.Duration, dropEvery int) *frameSource {
	const qpcFrequency = 10_000_000 // 10MHz, matches defaultQPCPeriodMs in internal/app
	return &frameSource{
		qpcPerFrame: uint64(interval.Seconds() * qpcFrequency),
		dropEvery:   dropEvery,
		rng:         rand.New(rand.NewSource(1)),
	}
}

func (s *frameSource) next() *frame.FrameData {
	s.frameNo++
	start := s.qpc
	s.qpc += s.qpcPerFrame

	cpuBusy := s.qpcPerFrame / 3
	cpuWait := s.qpcPerFrame - cpuBusy
	gpuStart := start + cpuBusy
	gpuDuration := s.qpcPerFrame/2 + uint64(s.rng.Int63n(int64(s.qpcPerFrame/4+1)))
	readyTime := gpuStart + gpuDuration

	dropped := s.dropEvery > 0 && s.frameNo%s.dropEvery == 0

	pe := frame.PresentEvent{
		PresentStartTime: start,
		TimeInPresent:    cpuWait,
		GPUStartTime:     gpuStart,
		ReadyTime:        readyTime,
		GPUDuration:      gpuDuration,
		InputTime:        start,
		PresentMode:      1,
		Runtime:          1,
		SyncInterval:     1,
		SupportsTearing:  false,
	}

	if dropped {
		pe.FinalState = frame.PresentResultDiscarded
	} else {
		pe.FinalState = frame.PresentResultPresented
		pe.ScreenTime = readyTime + s.qpcPerFrame/4
	}

	copy(pe.Application[:], "frametap-synth")

	return &frame.FrameData{
		PresentEvent: pe,
		PowerTelemetry: frame.PowerTelemetry{
			GPUUtilization:  60 + s.rng.Float64()*30,
			GPUPowerW:       120 + s.rng.Float64()*40,
			GPUTemperatureC: 55 + s.rng.Float64()*15,
		},
		CPUTelemetry: frame.CPUTelemetry{
			CPUUtilization: 20 + s.rng.Float64()*20,
		},
	}
}

func postFrame(client *http.Client, url string, fd *frame.FrameData) error {
	body, err := json.Marshal(fd)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post frame: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
