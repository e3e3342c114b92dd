package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/devoops/user-service/internal/core/ports"
)

const userServiceName = "user.UserInternalService"

// summaryHandler is the server-side contract of user.UserInternalService.
type summaryHandler interface {
	getUserSummary(ctx context.Context, req *idRequest) (*userSummaryResponse, error)
}

var userServiceDesc = grpc.ServiceDesc{
	ServiceName: userServiceName,
	HandlerType: (*summaryHandler)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetUserSummary",
			Handler:    getUserSummaryHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "user_internal.proto",
}

func getUserSummaryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(idRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(summaryHandler).getUserSummary(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + userServiceName + "/GetUserSummary",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(summaryHandler).getUserSummary(ctx, req.(*idRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// SummaryService answers identity lookups from other internal services.
type SummaryService struct {
	summaries ports.SummaryService
	log       zerolog.Logger
}

func NewSummaryService(summaries ports.SummaryService, log zerolog.Logger) *SummaryService {
	return &SummaryService{summaries: summaries, log: log}
}

func (s *SummaryService) getUserSummary(ctx context.Context, req *idRequest) (*userSummaryResponse, error) {
	s.log.Debug().Str("user_id", req.ID).Msg("GetUserSummary")

	sum := s.summaries.GetUserSummary(ctx, req.ID)
	if !sum.Found {
		return &userSummaryResponse{}, nil
	}
	return &userSummaryResponse{
		Found:     true,
		UserID:    sum.ID,
		Email:     sum.Email,
		FirstName: sum.FirstName,
		LastName:  sum.LastName,
		Role:      sum.Role,
		IsDeleted: sum.IsDeleted,
	}, nil
}

// Server hosts the internal user service and the standard health service.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	log        zerolog.Logger
}

// NewServer listens on addr and registers the summary and health services.
func NewServer(addr string, summaries *SummaryService, log zerolog.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ForceServerCodec(codec{}),
	)
	grpcServer.RegisterService(&userServiceDesc, summaries)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(userServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{listener: listener, grpcServer: grpcServer, health: healthServer, log: log}, nil
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve runs until ctx is cancelled, then drains in-flight calls.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info().Str("addr", s.Addr()).Msg("gRPC server listening")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}
