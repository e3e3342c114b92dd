// Package server assembles the user service from configuration and runs its
// HTTP and gRPC listeners.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/devoops/user-service/internal/api"
	"github.com/devoops/user-service/internal/api/handler"
	"github.com/devoops/user-service/internal/api/middleware"
	"github.com/devoops/user-service/internal/core/service"
	mongodb "github.com/devoops/user-service/internal/infrastructure/db/mongo"
	redisdb "github.com/devoops/user-service/internal/infrastructure/db/redis"
	"github.com/devoops/user-service/internal/infrastructure/messaging"
	"github.com/devoops/user-service/internal/infrastructure/queue"
	"github.com/devoops/user-service/internal/infrastructure/rpc"
	"github.com/devoops/user-service/internal/pkg/config"
)

const shutdownTimeout = 15 * time.Second

// Server owns every long-lived resource of the process.
type Server struct {
	cfg  *config.Config
	log  zerolog.Logger
	http *echo.Echo
	grpc *rpc.Server

	dispatcher *queue.Dispatcher
	mongo      *mongo.Client
	redis      *goredis.Client
	publisher  *messaging.Publisher
	remotes    []*grpc.ClientConn
}

// New connects to every dependency and wires the application.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Server, error) {
	s := &Server{cfg: cfg, log: log}
	if err := s.init(ctx); err != nil {
		s.close(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Server) init(ctx context.Context) error {
	cfg := s.cfg

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		AppName:     "user-service",
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
		Timeout:     cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	s.mongo = mongoClient

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure user indexes: %w", err)
	}

	s.redis, err = redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}

	s.publisher, err = messaging.NewPublisher(messaging.Config{
		URL:                   cfg.RabbitMQ.URL,
		Exchange:              cfg.RabbitMQ.Exchange,
		UserCreatedRoutingKey: cfg.RabbitMQ.UserCreatedRoutingKey,
	})
	if err != nil {
		return err
	}

	reservationConn, err := rpc.Dial(cfg.Reservation.Addr)
	if err != nil {
		return err
	}
	s.remotes = append(s.remotes, reservationConn)

	accommodationConn, err := rpc.Dial(cfg.Accommodation.Addr)
	if err != nil {
		return err
	}
	s.remotes = append(s.remotes, accommodationConn)

	tokens, err := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiration)
	if err != nil {
		return err
	}
	passwords := service.NewPasswordVerifier(cfg.BcryptCost)

	guard := redisdb.NewOnceGuard(s.redis, cfg.Events.OnceTTL)
	s.dispatcher = queue.NewDispatcher(cfg.Events.Workers, s.publisher, guard, s.log.With().Str("component", "events").Logger())

	authSvc := service.NewAuthService(users, passwords, tokens, s.dispatcher, s.log)
	accountSvc := service.NewAccountService(
		users,
		passwords,
		tokens,
		rpc.NewReservationClient(reservationConn, cfg.Reservation.Timeout, s.log),
		rpc.NewAccommodationClient(accommodationConn, cfg.Accommodation.Timeout, s.log),
		s.log,
	)
	summarySvc := service.NewSummaryService(users, s.log)

	s.http = api.NewRouter(api.Dependencies{
		Auth:      authSvc,
		Accounts:  accountSvc,
		Extractor: middleware.NewExtractor(cfg.IdentitySource, tokens),
		Readiness: map[string]handler.Pinger{
			"mongodb":  users,
			"redis":    handler.PingerFunc(func(ctx context.Context) error { return s.redis.Ping(ctx).Err() }),
			"rabbitmq": s.publisher,
		},
		Log: s.log,
	})

	s.grpc, err = rpc.NewServer(net.JoinHostPort("", cfg.GRPCPort), rpc.NewSummaryService(summarySvc, s.log), s.log)
	if err != nil {
		return err
	}

	s.log.Info().Str("identity_source", cfg.IdentitySource).Msg("user service wired")
	return nil
}

// Run serves HTTP and gRPC until ctx is cancelled or a listener fails, then
// shuts everything down.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	s.dispatcher.Start(gctx)

	g.Go(func() error {
		addr := net.JoinHostPort("", s.cfg.Port)
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := s.http.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return s.grpc.Serve(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.log.Error().Err(err).Msg("HTTP shutdown")
		}
		return nil
	})

	err := g.Wait()
	s.dispatcher.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.close(shutdownCtx)

	s.log.Info().Msg("user service stopped")
	return err
}

func (s *Server) close(ctx context.Context) {
	for _, conn := range s.remotes {
		_ = conn.Close()
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.log.Warn().Err(err).Msg("close rabbitmq")
		}
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.mongo != nil {
		if err := s.mongo.Disconnect(ctx); err != nil {
			s.log.Warn().Err(err).Msg("disconnect mongo")
		}
	}
}
