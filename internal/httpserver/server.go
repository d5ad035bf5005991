package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumentel/frametap/internal/api"
	"github.com/lumentel/frametap/internal/config"
	"github.com/lumentel/frametap/internal/device"
	"github.com/lumentel/frametap/internal/frame"
	"github.com/lumentel/frametap/internal/stream"
	"github.com/lumentel/frametap/internal/version"
)

const (
	readHeaderTimeout = 5 * time.Second
	wsSendQueueSize   = 16
)

// Server wraps the HTTP surface area of the application: device/metric
// catalog listings, a WebSocket query-registration/streaming endpoint, an
// ingest endpoint for feeding frames in from a collector, and optional
// Prometheus/pprof diagnostics.
type Server struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	devices     []device.Info
	deviceIndex map[uint32]device.Info
	streams     *stream.Manager
	metricNames []string

	maxWSClients int64
	wsActive     atomic.Int64
	wsTotal      atomic.Uint64
	wsRejected   atomic.Uint64
	wsSent       atomic.Uint64
	wsDropped    atomic.Uint64
	wsConnIDs    atomic.Uint64
	requestIDs   atomic.Uint64
}

// New assembles a Server with its handlers.
func New(cfg config.Config, logger *slog.Logger, devices []device.Info, streams *stream.Manager) *Server {
	metrics := frame.AllMetrics()
	names := make([]string, 0, len(metrics))
	for _, m := range metrics {
		names = append(names, m.String())
	}

	s := &Server{
		cfg:         cfg,
		logger:      logger,
		devices:     devices,
		deviceIndex: make(map[uint32]device.Info, len(devices)),
		streams:     streams,
		metricNames: names,
	}

	if cfg.WS.MaxClients > 0 {
		s.maxWSClients = int64(cfg.WS.MaxClients)
	}

	for _, info := range devices {
		s.deviceIndex[info.ID] = info
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	mux.HandleFunc("/version", s.handleVersion)
	mux.HandleFunc("/api/devices", s.handleAPIDevices)
	mux.HandleFunc("/api/metrics/catalog", s.handleAPIMetricsCatalog)
	mux.HandleFunc("/api/ingest", s.handleAPIIngest)
	mux.HandleFunc("/ws", s.handleWS)

	if cfg.EnablePrometheus {
		s.registerPrometheus(mux)
	}
	if cfg.EnablePprof {
		registerPprof(mux)
	}

	handler := s.withRequestLogging(mux)

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s
}

// Start begins serving HTTP until shutdown is requested.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("listener stopped")
	return nil
}

// Shutdown attempts a graceful shutdown within the supplied context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	info := s.readiness()
	logger := s.loggerFromContext(r.Context())

	statusCode := http.StatusOK
	if info.Status != "ok" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(info); err != nil {
		logger.Error("failed to encode readyz response", "err", err)
	}
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	info := version.Current()
	logger := s.loggerFromContext(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(info); err != nil {
		logger.Error("failed to encode version response", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
}

func (s *Server) handleAPIDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger := s.loggerFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.devices); err != nil {
		logger.Error("failed to encode device list", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
}

func (s *Server) handleAPIMetricsCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger := s.loggerFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.metricNames); err != nil {
		logger.Error("failed to encode metric catalog", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
}

// handleAPIIngest accepts one JSON-encoded frame.FrameData per request and
// feeds it into the stream manager under the device id given by the
// device_id query parameter (defaulting to 0, the universal device). This
// is a test/dev entry point standing in for the ETW consumer that would
// otherwise deliver frames from the ring buffer; see cmd/frametap-synth.
func (s *Server) handleAPIIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger := s.loggerFromContext(r.Context())

	var deviceID uint64
	if raw := r.URL.Query().Get("device_id"); raw != "" {
		var err error
		deviceID, err = parseUint32Param(raw)
		if err != nil {
			http.Error(w, "invalid device_id", http.StatusBadRequest)
			return
		}
	}

	var fd frame.FrameData
	if err := json.NewDecoder(r.Body).Decode(&fd); err != nil {
		logger.Debug("invalid ingest payload", "err", err)
		http.Error(w, "invalid frame payload", http.StatusBadRequest)
		return
	}

	s.streams.Ingest(uint32(deviceID), &fd)
	w.WriteHeader(http.StatusAccepted)
}

func parseUint32Param(raw string) (uint64, error) {
	var v uint64
	_, err := fmt.Sscanf(raw, "%d", &v)
	if err != nil {
		return 0, err
	}
	if v > 0xFFFFFFFF {
		return 0, fmt.Errorf("out of range")
	}
	return v, nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	reqLogger := s.loggerFromContext(r.Context())
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.reserveWS() {
		reqLogger.Warn("websocket rejected", "reason", "capacity")
		http.Error(w, "websocket capacity reached", http.StatusServiceUnavailable)
		return
	}
	defer s.releaseWS()

	opts := &websocket.AcceptOptions{
		OriginPatterns: originPatterns(s.cfg.AllowedOrigins),
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		reqLogger.Warn("websocket accept failed", "err", err)
		return
	}
	connID := s.wsConnIDs.Add(1)
	s.wsTotal.Add(1)
	logger := reqLogger.With("ws_id", connID)
	defer closeWebsocket(logger, conn)

	outbound := newWSOutbound(wsSendQueueSize, &s.wsDropped)

	ctx, cancel := context.WithCancel(r.Context())

	writerDone := make(chan struct{})
	go s.wsWriter(ctx, conn, outbound, cancel, logger, writerDone)

	var (
		blobCh     <-chan []byte
		unregister func()
		planID     string
		generation int
	)

	defer func() {
		if unregister != nil {
			unregister()
		}
		outbound.close()
		cancel()
		<-writerDone
	}()

	hello := api.NewHelloMessage(s.devices, s.metricNames)
	if !s.enqueueMessage(outbound, hello, logger) {
		return
	}

	messageCh := make(chan []byte, 8)
	readErrCh := make(chan error, 1)
	go s.readMessages(ctx, conn, messageCh, readErrCh)

	register := func(req api.RegisterMessage) error {
		if len(req.Elements) == 0 {
			return fmt.Errorf("register requires at least one element")
		}
		if s.cfg.MaxQueriesPerConn > 0 && len(req.Elements) > s.cfg.MaxQueriesPerConn {
			return fmt.Errorf("max %d elements per connection: %w", s.cfg.MaxQueriesPerConn, frame.ErrTooManyElements)
		}

		elements := make([]frame.QueryElement, 0, len(req.Elements))
		for _, e := range req.Elements {
			metric, ok := frame.ParseMetricName(e.Metric)
			if !ok {
				return fmt.Errorf("unknown metric %q", e.Metric)
			}
			elements = append(elements, frame.QueryElement{
				Metric:     metric,
				DeviceID:   e.DeviceID,
				ArrayIndex: e.ArrayIndex,
			})
		}

		plan, err := frame.New(elements, logger)
		if err != nil {
			return err
		}

		if unregister != nil {
			unregister()
			unregister = nil
			blobCh = nil
		}

		generation++
		planID = fmt.Sprintf("ws-%d-%d", connID, generation)
		ch, cancelReg, err := s.streams.Register(planID, plan)
		if err != nil {
			return err
		}
		blobCh = ch
		unregister = cancelReg

		registered := make([]api.RegisteredElement, len(req.Elements))
		for i, el := range plan.Elements() {
			registered[i] = api.RegisteredElement{
				Metric:     el.Metric.String(),
				DeviceID:   el.DeviceID,
				ArrayIndex: el.ArrayIndex,
				DataOffset: el.DataOffset,
				DataSize:   el.DataSize,
			}
		}

		s.enqueueMessage(outbound, api.NewRegisteredMessage(plan.BlobSize(), registered), logger)
		return nil
	}

	for {
		select {
		case blob, ok := <-blobCh:
			if !ok {
				blobCh = nil
				continue
			}
			if !s.enqueueBinary(outbound, blob, logger) {
				return
			}
		case data, ok := <-messageCh:
			if !ok {
				messageCh = nil
				continue
			}
			if err := s.handleClientMessage(outbound, data, register, logger); err != nil {
				logger.Warn("client message handling error", "err", err)
				return
			}
		case err := <-readErrCh:
			if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				logger.Warn("websocket read error", "err", err)
			}
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) readMessages(ctx context.Context, conn *websocket.Conn, out chan<- []byte, errCh chan<- error) {
	defer close(out)
	for {
		readCtx := ctx
		var cancel context.CancelFunc
		if s.cfg.WS.ReadTimeout > 0 {
			readCtx, cancel = context.WithTimeout(ctx, s.cfg.WS.ReadTimeout)
		}
		msgType, data, err := conn.Read(readCtx)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			errCh <- err
			return
		}
		if msgType != websocket.MessageText {
			continue
		}
		select {
		case out <- data:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) handleClientMessage(outbound *wsOutbound, data []byte, register func(api.RegisterMessage) error, logger *slog.Logger) error {
	var envelope api.ClientMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		logger.Debug("invalid client message", "err", err)
		return nil
	}

	switch envelope.Type {
	case "register":
		var msg api.RegisterMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if !s.enqueueError(outbound, "invalid register payload", logger) {
				return fmt.Errorf("failed to enqueue register error")
			}
			return nil
		}
		if err := register(msg); err != nil {
			if !s.enqueueError(outbound, err.Error(), logger) {
				return fmt.Errorf("failed to enqueue registration error")
			}
		}
	case "ping":
		if !s.enqueueMessage(outbound, api.PongMessage{Type: "pong"}, logger) {
			return fmt.Errorf("failed to enqueue pong response")
		}
	default:
		logger.Debug("unknown message type", "type", envelope.Type)
	}
	return nil
}

func (s *Server) wsWriter(ctx context.Context, conn *websocket.Conn, outbound *wsOutbound, cancel context.CancelFunc, logger *slog.Logger, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-outbound.channel():
			if !ok {
				return
			}
			if err := s.writeRaw(ctx, conn, msg); err != nil {
				if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
					logger.Warn("websocket write failed", "err", err)
				}
				cancel()
				return
			}
			s.wsSent.Add(1)
		}
	}
}

func (s *Server) writeRaw(ctx context.Context, conn *websocket.Conn, msg outboundFrame) error {
	writeCtx := ctx
	var cancel context.CancelFunc
	if s.cfg.WS.WriteTimeout > 0 {
		writeCtx, cancel = context.WithTimeout(ctx, s.cfg.WS.WriteTimeout)
	}
	if cancel != nil {
		defer cancel()
	}
	return conn.Write(writeCtx, msg.msgType, msg.data)
}

func (s *Server) enqueueMessage(outbound *wsOutbound, payload any, logger *slog.Logger) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal websocket payload", "err", err)
		return false
	}
	if !outbound.enqueue(outboundFrame{data: data, msgType: websocket.MessageText}) {
		logger.Warn("websocket outbound queue unavailable")
		return false
	}
	return true
}

func (s *Server) enqueueBinary(outbound *wsOutbound, blob []byte, logger *slog.Logger) bool {
	if !outbound.enqueue(outboundFrame{data: blob, msgType: websocket.MessageBinary}) {
		logger.Warn("websocket outbound queue unavailable")
		return false
	}
	return true
}

func (s *Server) enqueueError(outbound *wsOutbound, msg string, logger *slog.Logger) bool {
	return s.enqueueMessage(outbound, api.ErrorMessage{Type: "error", Message: msg}, logger)
}

func (s *Server) reserveWS() bool {
	if s.maxWSClients <= 0 {
		s.wsActive.Add(1)
		return true
	}

	for {
		current := s.wsActive.Load()
		if current >= s.maxWSClients {
			s.wsRejected.Add(1)
			return false
		}
		if s.wsActive.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

func (s *Server) releaseWS() {
	s.wsActive.Add(-1)
}

func (s *Server) registerPrometheus(mux *http.ServeMux) {
	registry := prometheus.NewRegistry()
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "frametap",
			Subsystem: "ws",
			Name:      "active_connections",
			Help:      "Current number of active WebSocket clients.",
		}, func() float64 {
			return float64(s.wsActive.Load())
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "frametap",
			Subsystem: "ws",
			Name:      "connections_total",
			Help:      "Total WebSocket connections accepted since start.",
		}, func() float64 {
			return float64(s.wsTotal.Load())
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "frametap",
			Subsystem: "ws",
			Name:      "rejected_total",
			Help:      "Total WebSocket connection attempts rejected due to capacity.",
		}, func() float64 {
			return float64(s.wsRejected.Load())
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "frametap",
			Subsystem: "ws",
			Name:      "messages_sent_total",
			Help:      "Total WebSocket messages sent to clients.",
		}, func() float64 {
			return float64(s.wsSent.Load())
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "frametap",
			Subsystem: "ws",
			Name:      "messages_dropped_total",
			Help:      "Total WebSocket messages dropped due to backpressure.",
		}, func() float64 {
			return float64(s.wsDropped.Load())
		}),
	}

	if s.streams != nil {
		collectors = append(collectors,
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "frametap",
				Subsystem: "stream",
				Name:      "active_queries",
				Help:      "Current number of registered query plans.",
			}, func() float64 {
				return float64(s.streams.ActiveQueries())
			}),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: "frametap",
				Subsystem: "stream",
				Name:      "frames_gathered_total",
				Help:      "Total blobs gathered across all registered query plans.",
			}, func() float64 {
				return float64(s.streams.FramesGathered())
			}),
		)
		if deviceCollector := newDeviceMetricsCollector(s.devices, s.streams); deviceCollector != nil {
			collectors = append(collectors, deviceCollector)
		}
	}

	for _, collector := range collectors {
		registry.MustRegister(collector)
	}

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}

func registerPprof(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

func originPatterns(origins []string) []string {
	for _, origin := range origins {
		if origin == "*" {
			return nil
		}
	}
	dst := make([]string, len(origins))
	copy(dst, origins)
	return dst
}

func (s *Server) readiness() readyResponse {
	resp := readyResponse{
		Devices: len(s.devices),
	}

	if s.streams == nil {
		resp.Status = "degraded"
		resp.Reason = "stream_manager_not_configured"
		return resp
	}

	resp.Status = "ok"
	return resp
}

type readyResponse struct {
	Status  string `json:"status"`
	Devices int    `json:"devices"`
	Reason  string `json:"reason,omitempty"`
}

type outboundFrame struct {
	data    []byte
	msgType websocket.MessageType
}

type wsOutbound struct {
	ch     chan outboundFrame
	closed atomic.Bool
	drops  *atomic.Uint64
}

func newWSOutbound(size int, dropCounter *atomic.Uint64) *wsOutbound {
	if size <= 0 {
		size = 1
	}
	return &wsOutbound{
		ch:    make(chan outboundFrame, size),
		drops: dropCounter,
	}
}

func (o *wsOutbound) enqueue(msg outboundFrame) bool {
	if o.closed.Load() {
		o.countDrop()
		return false
	}

	select {
	case o.ch <- msg:
		return true
	default:
	}

	droppedOld := false
	select {
	case <-o.ch:
		droppedOld = true
	default:
	}
	if droppedOld {
		o.countDrop()
	}

	if o.closed.Load() {
		o.countDrop()
		return false
	}

	select {
	case o.ch <- msg:
		return true
	default:
		o.countDrop()
		return false
	}
}

func (o *wsOutbound) close() {
	if o.closed.CompareAndSwap(false, true) {
		close(o.ch)
	}
}

func (o *wsOutbound) channel() <-chan outboundFrame {
	return o.ch
}

func (o *wsOutbound) countDrop() {
	if o.drops != nil {
		o.drops.Add(1)
	}
}
