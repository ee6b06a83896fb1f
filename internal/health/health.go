// Package health tracks database reachability and publishes it through the
// standard gRPC health service.
package health

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the gRPC health service name reported alongside the overall status.
const Service = "catalog.ProductService"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Monitor struct {
	db       Pinger
	srv      *health.Server
	interval time.Duration
	timeout  time.Duration
	log      logrus.FieldLogger

	mu      sync.RWMutex
	lastErr error
}

func NewMonitor(db Pinger, interval time.Duration, log logrus.FieldLogger) *Monitor {
	srv := health.NewServer()
	srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	srv.SetServingStatus(Service, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Monitor{
		db:       db,
		srv:      srv,
		interval: interval,
		timeout:  2 * time.Second,
		log:      log.WithField("component", "health"),
		lastErr:  errors.New("not checked yet"),
	}
}

// Check pings the database once and publishes the result.
func (m *Monitor) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	err := m.db.Ping(ctx)

	m.mu.Lock()
	changed := (err == nil) != (m.lastErr == nil)
	m.lastErr = err
	m.mu.Unlock()

	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	m.srv.SetServingStatus("", status)
	m.srv.SetServingStatus(Service, status)
	if changed {
		m.log.WithError(err).WithField("status", status.String()).Info("database health changed")
	}
	return err
}

// Last returns the outcome of the most recent check.
func (m *Monitor) Last() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Run checks immediately and then on every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	_ = m.Check(ctx)
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			m.srv.Shutdown()
			return
		case <-t.C:
			_ = m.Check(ctx)
		}
	}
}

func (m *Monitor) Server() *health.Server { return m.srv }

// Serve exposes the health service on addr until ctx is cancelled.
func (m *Monitor) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, m.srv)

	go func() {
		<-ctx.Done()
		gs.GracefulStop()
	}()
	m.log.WithField("addr", addr).Info("grpc health listening")
	if err := gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
