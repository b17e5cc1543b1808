// Package app wires the director runtime: sqlite storage, the narrative
// service, the notification pipeline, and the background scheduler behind a
// gRPC health endpoint.
package app

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/dramaturge/internal/director/notify"
	"github.com/louisbranch/dramaturge/internal/director/scheduler"
	"github.com/louisbranch/dramaturge/internal/director/service"
	"github.com/louisbranch/dramaturge/internal/director/storage/sqlite"
)

// RuntimeConfig controls director startup, dependencies, and sweep behavior.
type RuntimeConfig struct {
	Port         int
	DBPath       string
	PollInterval time.Duration
	ListLimit    int
}

const (
	defaultDirectorPort = 8093
	defaultDirectorDB   = "data/director.db"
)

// normalized applies defaults for missing runtime settings.
func (cfg RuntimeConfig) normalized() RuntimeConfig {
	if cfg.Port <= 0 {
		cfg.Port = defaultDirectorPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultDirectorDB
	}
	return cfg
}

// Run starts the director runtime dependencies and the orchestration loop.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = cfg.normalized()

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create director storage dir: %w", err)
		}
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open director sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close director sqlite store: %v", closeErr)
		}
	}()

	notifier := notify.NewService(store, nil, nil)
	svc := service.New(store, service.WithNotifier(notifier))

	loop := scheduler.New(svc, scheduler.Config{
		PollInterval: cfg.PollInterval,
		ListLimit:    cfg.ListLimit,
	}, nil)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on director port %d: %w", cfg.Port, err)
	}
	defer listener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("director.runtime", grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-serveErr
	}()

	log.Printf("director server listening at %v", listener.Addr())
	return loop.Run(ctx)
}
