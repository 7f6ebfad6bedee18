package ops

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/fincoval/creditsync/internal/logging"
)

const servicePrefix = "creditsync."

// HealthServer publishes grpc.health.v1 with one service per job class,
// named creditsync.<class>. A class is SERVING until a run fails and
// returns to SERVING after the next clean run.
type HealthServer struct {
	address string
	health  *health.Server
	logger  logging.Logger
}

func NewHealthServer(address string, classes []string, logger logging.Logger) *HealthServer {
	h := &HealthServer{
		address: address,
		health:  health.NewServer(),
		logger:  logger.With("module", "grpc_health"),
	}
	h.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, c := range classes {
		h.health.SetServingStatus(ServiceName(c), healthpb.HealthCheckResponse_SERVING)
	}
	return h
}

func ServiceName(class string) string { return servicePrefix + class }

func (h *HealthServer) JobStarted(string) {}

func (h *HealthServer) JobFinished(job string, _ time.Duration, failed bool) {
	st := healthpb.HealthCheckResponse_SERVING
	if failed {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus(ServiceName(job), st)
}

func (h *HealthServer) JobDropped(string) {}

// Check answers a health check in process; used by the CLI and tests.
func (h *HealthServer) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := h.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

func (h *HealthServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", h.address)
	if err != nil {
		return err
	}
	return h.serve(ctx, listen)
}

func (h *HealthServer) serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(h.logInterceptor))
	healthpb.RegisterHealthServer(srv, h.health)

	go func() {
		<-ctx.Done()
		h.logger.Info(ctx, "Stopping gRPC health server...")
		h.health.Shutdown()
		srv.GracefulStop()
	}()

	h.logger.Info(ctx, "Starting gRPC health server", "address", listen.Addr().String())

	return srv.Serve(listen)
}

func (h *HealthServer) logInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	h.logger.Debug(ctx, "grpc call", "method", info.FullMethod, "code", status.Code(err).String())
	return resp, err
}
