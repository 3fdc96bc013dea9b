package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/config"
	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/handler"
	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/repository"
	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/usecase"
	"github.com/vasapolrittideah/ai-tutor-api/shared/auth"
	"github.com/vasapolrittideah/ai-tutor-api/shared/cache"
	"github.com/vasapolrittideah/ai-tutor-api/shared/discovery"
	"github.com/vasapolrittideah/ai-tutor-api/shared/logger"
	"github.com/vasapolrittideah/ai-tutor-api/shared/mailer"
	"github.com/vasapolrittideah/ai-tutor-api/shared/provider"
	"github.com/vasapolrittideah/ai-tutor-api/shared/ratelimit"
	"github.com/vasapolrittideah/ai-tutor-api/shared/utilities"
	"github.com/vasapolrittideah/ai-tutor-api/shared/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("tutor-service stopped with error")
	}
}

type stores struct {
	users  repository.UserRepository
	usage  repository.UsageRepository
	pinger handler.Pinger
	close  func(context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (*stores, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		log.Warn().Msg("using in-memory store, data is lost on restart")
		store := repository.NewMemoryStore()
		return &stores{users: store, usage: store, pinger: store, close: func(context.Context) error { return nil }}, nil
	}

	client, err := repository.NewMongoClient(ctx, cfg.Store.MongoURI)
	if err != nil {
		return nil, err
	}
	closeClient := func(ctx context.Context) error { return client.Disconnect(ctx) }

	db := client.Database(cfg.Store.MongoDatabase)
	users, err := repository.NewUserMongoRepository(ctx, db)
	if err != nil {
		_ = closeClient(ctx)
		return nil, err
	}
	usage, err := repository.NewUsageMongoRepository(ctx, db)
	if err != nil {
		_ = closeClient(ctx)
		return nil, err
	}

	return &stores{users: users, usage: usage, pinger: repository.NewMongoPinger(client), close: closeClient}, nil
}

func run(ctx context.Context, cfg *config.Config, log *zerolog.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to close store")
		}
	}()

	jwtAuth, err := auth.NewJWTAuthenticator(cfg.Token.SecretKey, cfg.Token.Algorithm, auth.WithIssuer(cfg.Token.Issuer))
	if err != nil {
		return err
	}

	gemini, err := provider.NewGeminiProvider(ctx, provider.GeminiConfig{
		APIKey:   cfg.Gemini.APIKey,
		Model:    cfg.Gemini.Model,
		Endpoint: cfg.Gemini.Endpoint,
	})
	if err != nil {
		return err
	}
	googleProvider := provider.NewGoogleOAuthProvider(cfg.Google.UserinfoEndpoint)

	responseCache, err := cache.New(cfg.Cache)
	if err != nil {
		return err
	}
	defer responseCache.Close()

	limiter, err := ratelimit.NewRegistry(log, cfg.RateLimit.Policies(), nil)
	if err != nil {
		return err
	}
	limiter.Start()
	defer limiter.Stop()

	validate, err := validator.New()
	if err != nil {
		return err
	}

	var authOpts []usecase.AuthOption
	if cfg.Mailer.Enabled() {
		m, err := mailer.NewMailer(cfg.Mailer)
		if err != nil {
			return err
		}
		authOpts = append(authOpts, usecase.WithWelcomeNotifier(usecase.NewMailWelcomeNotifier(m)))
	}

	authUsecase := usecase.NewAuthUsecase(st.users, jwtAuth, googleProvider, log, cfg.Token.ExpiresIn, authOpts...)
	tutorUsecase := usecase.NewTutorUsecase(gemini, responseCache, st.usage, log, cfg.ExternalCallTimeout)

	httpHandler := handler.NewHTTPHandler(authUsecase, tutorUsecase, limiter, validate, st.pinger, log, handler.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Upload.MaxBytes,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpHandler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var (
		grpcServer   *grpc.Server
		healthServer *health.Server
	)
	if cfg.Server.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCHealthAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.Server.GRPCHealthAddr, err)
		}

		grpcServer = grpc.NewServer()
		healthServer = utilities.RegisterHealthServer(grpcServer)

		go func() {
			log.Info().Str("addr", cfg.Server.GRPCHealthAddr).Msg("grpc health server listening")
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc health server: %w", err)
			}
		}()
	}

	if cfg.Consul.Addr != "" {
		registrar, err := registerService(cfg)
		if err != nil {
			log.Error().Err(err).Msg("failed to register with consul")
		} else {
			log.Info().Str("service_id", registrar.ServiceID()).Msg("registered with consul")
			defer func() {
				if err := registrar.Deregister(); err != nil {
					log.Error().Err(err).Msg("failed to deregister from consul")
				}
			}()
		}
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if healthServer != nil {
		healthServer.Shutdown()
	}

	err = server.Shutdown(shutdownCtx)

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	return err
}

func registerService(cfg *config.Config) (*discovery.ConsulRegistrar, error) {
	_, portStr, err := net.SplitHostPort(cfg.Server.Addr)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	registrar, err := discovery.NewConsulRegistrar(cfg.Consul.Addr)
	if err != nil {
		return nil, err
	}

	err = registrar.Register(discovery.ServiceRegistration{
		Name:      cfg.Consul.ServiceName,
		Host:      cfg.Consul.ServiceHost,
		Port:      port,
		HealthURL: fmt.Sprintf("http://%s/health", net.JoinHostPort(cfg.Consul.ServiceHost, portStr)),
		Tags:      []string{"http", "tutor"},
	})
	if err != nil {
		return nil, err
	}

	return registrar, nil
}
