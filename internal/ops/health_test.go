package ops

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/fincoval/creditsync/internal/logging"
)

func TestHealthServer_FollowsJobs(t *testing.T) {
	h := NewHealthServer("", []string{"inbound-sync", "outbound-export"}, logging.Nop())
	ctx := context.Background()

	st, err := h.Check(ctx, "creditsync.inbound-sync")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, st)

	h.JobStarted("inbound-sync")
	h.JobFinished("inbound-sync", time.Second, true)
	st, err = h.Check(ctx, "creditsync.inbound-sync")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, st)

	st, err = h.Check(ctx, "creditsync.outbound-export")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, st, "other classes unaffected")

	h.JobDropped("inbound-sync")
	h.JobFinished("inbound-sync", time.Second, false)
	st, err = h.Check(ctx, "creditsync.inbound-sync")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, st)

	_, err = h.Check(ctx, "creditsync.nightly")
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestHealthServer_Serve(t *testing.T) {
	h := NewHealthServer("", []string{"action-sync"}, logging.Nop())
	h.JobFinished("action-sync", 0, true)

	listen, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.serve(ctx, listen) }()

	conn, err := grpc.NewClient(listen.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	callCtx, callCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer callCancel()
	resp, err := healthpb.NewHealthClient(conn).Check(callCtx, &healthpb.HealthCheckRequest{Service: "creditsync.action-sync"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("health server did not stop")
	}
}

func TestHTTPServer_Serve(t *testing.T) {
	listen, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	r, _, _ := setupTestRouter(t)
	s := NewHTTPServer("", r, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, listen) }()

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Get("http://" + listen.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("http server did not stop")
	}
}
