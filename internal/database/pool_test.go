package database

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/product-catalog/internal/config"
)

func TestApplyPool(t *testing.T) {
	cfg, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/db?sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}
	applyPool(cfg, config.Pool{
		MaxConns:        20,
		MinConns:        10,
		ConnectTimeout:  30 * time.Second,
		MaxConnIdleTime: 10 * time.Minute,
		MaxConnLifetime: 30 * time.Minute,
	})
	if cfg.MaxConns != 20 || cfg.MinConns != 10 {
		t.Fatalf("conns max=%d min=%d", cfg.MaxConns, cfg.MinConns)
	}
	if cfg.ConnConfig.ConnectTimeout != 30*time.Second {
		t.Fatalf("connect timeout %v", cfg.ConnConfig.ConnectTimeout)
	}
	if cfg.MaxConnIdleTime != 10*time.Minute || cfg.MaxConnLifetime != 30*time.Minute {
		t.Fatalf("idle=%v lifetime=%v", cfg.MaxConnIdleTime, cfg.MaxConnLifetime)
	}
}

func TestApplyPool_KeepsDriverDefaults(t *testing.T) {
	cfg, _ := pgxpool.ParseConfig("postgres://u:p@localhost:5432/db?sslmode=disable&pool_max_conns=7")
	applyPool(cfg, config.Pool{MinConns: 50})
	if cfg.MaxConns != 7 {
		t.Fatalf("max conns overwritten: %d", cfg.MaxConns)
	}
	if cfg.MinConns != 0 {
		t.Fatalf("min conns above max accepted: %d", cfg.MinConns)
	}
}
