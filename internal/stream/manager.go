// Package stream fans registered frame.QueryPlans out to the devices
// whose telemetry they read, gathering a fresh blob per subscriber for
// every frame ingested.
package stream

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lumentel/frametap/internal/frame"
	"github.com/lumentel/frametap/internal/ring"
)

// ErrUnknownPlan is returned by Unregister for a planID that was never
// registered or has already been unregistered.
var ErrUnknownPlan = errors.New("stream: unknown plan id")

// Manager owns one ring.Window per device and a set of client-registered
// query plans, gathering into a fresh blob per subscriber on every
// ingested frame. Grounded on the same single-mutex, buffered-channel,
// drop-oldest shape as the sampler manager it replaces.
type Manager struct {
	logger              *slog.Logger
	ringDepth           int
	performanceCounterPeriodMs float64
	qpcStart            uint64
	qpcStartSet         bool

	mu       sync.RWMutex
	windows  map[uint32]*ring.Window
	subs     map[string]*subscription
	lastSeen map[uint32]time.Time
	closed   bool

	framesGathered atomic.Uint64
}

type subscription struct {
	plan      *frame.QueryPlan
	deviceID  uint32
	universal bool
	ch        chan []byte
	mu        sync.Mutex
	closed    bool
}

// NewManager builds a Manager. periodMs converts QPC ticks to
// milliseconds; ringDepth bounds per-device correlation window depth.
func NewManager(periodMs float64, ringDepth int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if ringDepth < 1 {
		ringDepth = 1
	}
	return &Manager{
		logger:                     logger.With("component", "stream_manager"),
		ringDepth:                  ringDepth,
		performanceCounterPeriodMs: periodMs,
		windows:                    make(map[uint32]*ring.Window),
		subs:                       make(map[string]*subscription),
		lastSeen:                   make(map[uint32]time.Time),
	}
}

// Register compiles no new plan (the caller already built plan via
// frame.New) but takes ownership of it, returning a channel of gathered
// blobs and an unregister function. planID must be unique among currently
// registered plans on this Manager.
func (m *Manager) Register(planID string, plan *frame.QueryPlan) (<-chan []byte, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, nil, fmt.Errorf("stream: manager closed")
	}
	if _, exists := m.subs[planID]; exists {
		return nil, nil, fmt.Errorf("stream: plan id %q already registered", planID)
	}

	deviceID, hasDevice := plan.ReferencedDevice()
	sub := &subscription{
		plan:      plan,
		deviceID:  deviceID,
		universal: !hasDevice,
		ch:        make(chan []byte, 1),
	}
	m.subs[planID] = sub

	if hasDevice {
		m.ensureWindowLocked(deviceID)
	}

	unregister := func() {
		_ = m.Unregister(planID)
	}

	return sub.ch, unregister, nil
}

// Unregister removes planID's subscription and closes its blob channel.
// It returns ErrUnknownPlan if planID was never registered or has already
// been unregistered.
func (m *Manager) Unregister(planID string) error {
	m.mu.Lock()
	sub, exists := m.subs[planID]
	if !exists {
		m.mu.Unlock()
		return ErrUnknownPlan
	}
	delete(m.subs, planID)
	m.mu.Unlock()

	sub.close()
	return nil
}

func (m *Manager) ensureWindowLocked(deviceID uint32) *ring.Window {
	w, ok := m.windows[deviceID]
	if !ok {
		w = ring.NewWindow(m.ringDepth)
		m.windows[deviceID] = w
	}
	return w
}

// Ingest feeds one raw frame arriving from deviceID's telemetry stream
// into that device's correlation window and gathers the result into
// every subscription whose plan references deviceID or is universal.
func (m *Manager) Ingest(deviceID uint32, fd *frame.FrameData) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if !m.qpcStartSet {
		m.qpcStart = fd.PresentEvent.PresentStartTime
		m.qpcStartSet = true
		m.logger.Info("session QPC origin captured", "qpc_start", m.qpcStart)
	}
	m.lastSeen[deviceID] = time.Now()
	window := m.ensureWindowLocked(deviceID)
	readyList := window.Push(fd)

	targets := make([]*subscription, 0, len(m.subs))
	for _, sub := range m.subs {
		if sub.universal || sub.deviceID == deviceID {
			targets = append(targets, sub)
		}
	}
	m.mu.Unlock()

	for _, ready := range readyList {
		ctx := &frame.FrameContext{
			PerformanceCounterPeriodMs: m.performanceCounterPeriodMs,
			QPCStart:                   m.qpcStart,
		}
		ctx.UpdateSourceData(ready.Current, ready.NextDisplayed, ready.LastPresented, ready.LastDisplayed, ready.PreviousLastDisplayed)

		for _, sub := range targets {
			blob := make([]byte, sub.plan.BlobSize())
			sub.plan.Gather(ctx, blob)
			sub.send(blob)
			m.framesGathered.Add(1)
		}
	}
}

// FramesGathered returns the total number of blobs gathered for any
// subscriber since the Manager was created.
func (m *Manager) FramesGathered() uint64 {
	return m.framesGathered.Load()
}

// DeviceSampleAge returns how long ago deviceID's most recent frame was
// ingested, and whether any frame has been ingested for it at all.
func (m *Manager) DeviceSampleAge(deviceID uint32) (time.Duration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen, ok := m.lastSeen[deviceID]
	if !ok {
		return 0, false
	}
	return time.Since(seen), true
}

// Devices returns the ids of every device that has ingested at least one
// frame so far.
func (m *Manager) Devices() []uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uint32, 0, len(m.lastSeen))
	for id := range m.lastSeen {
		ids = append(ids, id)
	}
	return ids
}

// ActiveQueries returns the number of currently registered plans.
func (m *Manager) ActiveQueries() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

// Close flushes every device window (draining any frames still awaiting a
// next-displayed neighbor) and closes every subscriber channel. Safe to
// call once; subsequent calls are no-ops.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	for deviceID, window := range m.windows {
		for _, ready := range window.Flush() {
			ctx := &frame.FrameContext{
				PerformanceCounterPeriodMs: m.performanceCounterPeriodMs,
				QPCStart:                   m.qpcStart,
			}
			ctx.UpdateSourceData(ready.Current, ready.NextDisplayed, ready.LastPresented, ready.LastDisplayed, ready.PreviousLastDisplayed)
			for _, sub := range m.subs {
				if sub.universal || sub.deviceID == deviceID {
					blob := make([]byte, sub.plan.BlobSize())
					sub.plan.Gather(ctx, blob)
					sub.send(blob)
					m.framesGathered.Add(1)
				}
			}
		}
	}

	for _, sub := range m.subs {
		sub.close()
	}
	m.subs = make(map[string]*subscription)
	return nil
}

func (s *subscription) send(blob []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- blob:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- blob:
	default:
	}
}

func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	close(s.ch)
	s.closed = true
}
