package server

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported alongside "".
const ServiceName = "cloaca.GameServer"

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthMonitor publishes SERVING while the store answers pings.
type HealthMonitor struct {
	srv      *health.Server
	store    Pinger
	interval time.Duration
	logger   *zap.Logger
	serving  bool
}

func NewHealthMonitor(store Pinger, interval time.Duration, logger *zap.Logger) *HealthMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	h := &HealthMonitor{srv: health.NewServer(), store: store, interval: interval, logger: logger}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Server is the grpc.health.v1 implementation to register.
func (h *HealthMonitor) Server() healthpb.HealthServer { return h.srv }

func (h *HealthMonitor) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(ServiceName, status)
}

// Check pings the store once and updates the published status.
func (h *HealthMonitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, h.interval)
	defer cancel()

	err := h.store.Ping(ctx)
	ok := err == nil
	if ok != h.serving {
		if ok {
			h.logger.Info("store reachable, serving")
		} else {
			h.logger.Warn("store unreachable, not serving", zap.Error(err))
		}
	}
	h.serving = ok
	if ok {
		h.set(healthpb.HealthCheckResponse_SERVING)
	} else {
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return ok
}

// Run checks on every tick until ctx ends, then reports NOT_SERVING for good.
func (h *HealthMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	h.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}
