package health

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type fakeDB struct{ down atomic.Bool }

func (f *fakeDB) Ping(context.Context) error {
	if f.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func status(t *testing.T, m *Monitor, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := m.Server().Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("check %q: %v", service, err)
	}
	return resp.GetStatus()
}

func TestMonitor_StartsNotServing(t *testing.T) {
	m := NewMonitor(&fakeDB{}, time.Hour, quietLogger())
	if got := status(t, m, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("initial status=%v", got)
	}
	if m.Last() == nil {
		t.Fatal("expected error before first check")
	}
}

func TestMonitor_Check(t *testing.T) {
	db := &fakeDB{}
	m := NewMonitor(db, time.Hour, quietLogger())

	if err := m.Check(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}
	if got := status(t, m, Service); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status=%v", got)
	}

	db.down.Store(true)
	if err := m.Check(context.Background()); err == nil {
		t.Fatal("expected error when database is down")
	}
	if got := status(t, m, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status=%v", got)
	}
	if m.Last() == nil {
		t.Fatal("Last should report the failure")
	}
}

func TestMonitor_RunStopsWithContext(t *testing.T) {
	m := NewMonitor(&fakeDB{}, 10*time.Millisecond, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for m.Last() != nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if m.Last() != nil {
		t.Fatal("monitor never reported healthy")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
