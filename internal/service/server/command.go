package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	api "github.com/pablo-flores/wa-3fecta/internal/api/grpc/masking"
	"github.com/pablo-flores/wa-3fecta/internal/config"
	"github.com/pablo-flores/wa-3fecta/internal/logger"
	"github.com/pablo-flores/wa-3fecta/internal/metrics"
	"github.com/pablo-flores/wa-3fecta/internal/service/common"
	"github.com/pablo-flores/wa-3fecta/internal/version"
)

// Options controls the masked-alarm-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the gRPC server and blocks until context is canceled or server stops.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "masked-alarm-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.Configure(settings.Log.Level, settings.Log.Format); err != nil {
		return err
	}

	listenAddress, err := resolveListenAddress(settings.Server.ListenAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	svc := newService(common.NewFinder(settings), settings.Server.MaxConcurrentRuns)

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	return Serve(ctx, lis, svc, settings.MetricsAddress)
}

// Serve runs the gRPC server on an existing listener and, when metricsAddress
// is set, the metrics endpoint next to it.
func Serve(ctx context.Context, lis net.Listener, svc api.Service, metricsAddress string) error {
	grpcServer := grpc.NewServer()
	api.RegisterMaskingServiceServer(grpcServer, api.NewServer(svc))

	logger.InfoKV(ctx, "Masking server listening", append(version.LogFields(),
		"listen_address", lis.Addr().String(),
		"metrics_address", metricsAddress,
	)...)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()

		return nil
	})

	g.Go(func() error {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}

		return nil
	})

	if metricsAddress != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, metricsAddress)
		})
	}

	err := g.Wait()

	logger.Info(ctx, "GRPC server stopped")

	return err
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	// Bind on all interfaces, e.g. "server.example.com:8080" -> ":8080".
	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return ":" + port, nil
}
