package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/devoops/user-service/internal/api/metrics"
	"github.com/devoops/user-service/internal/core/domain"
)

const defaultCallTimeout = 5 * time.Second

// ClientDialOptions returns the dial options used for internal services:
// plaintext transport inside the cluster and OTel stats propagation.
func ClientDialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
}

// Dial creates a lazily connecting client for addr.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr, append(ClientDialOptions(), opts...)...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, nil
}

// caller wraps a connection with the per-call deadline, metrics and error
// translation shared by the internal clients.
type caller struct {
	conn    grpc.ClientConnInterface
	service string
	timeout time.Duration
	log     zerolog.Logger
}

func newCaller(conn grpc.ClientConnInterface, service string, timeout time.Duration, log zerolog.Logger) caller {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return caller{conn: conn, service: service, timeout: timeout, log: log}
}

// invoke performs a unary call. Transport and status failures are reported
// as domain.ErrRemoteUnavailable.
func (c caller) invoke(ctx context.Context, method string, req, resp wireMessage) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := c.conn.Invoke(ctx, method, req, resp, grpc.ForceCodec(codec{}))

	result := "ok"
	if err != nil {
		result = status.Code(err).String()
	}
	metrics.RemoteCallDuration.WithLabelValues(c.service, method, result).Observe(time.Since(start).Seconds())

	if err != nil {
		c.log.Error().Err(err).
			Str("method", method).
			Str("grpc_code", status.Code(err).String()).
			Msg("remote call failed")
		return fmt.Errorf("%s: %w: %v", method, domain.ErrRemoteUnavailable, err)
	}
	return nil
}
