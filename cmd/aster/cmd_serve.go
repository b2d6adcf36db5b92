package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/health"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/httpclient"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/kafka"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/redis"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/routes"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/startup"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/tracing"
)

const shutdownTimeout = 15 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp()
	if err != nil {
		return err
	}
	cfg := a.cfg
	log := a.logger.WithContext(ctx)

	shutdownTracing, err := tracing.Setup(ctx, cfg.AppName, cfg.Version, tracing.ExportConfig{
		Enabled:  cfg.OTLPEnabled,
		Endpoint: cfg.OTLPEndpoint,
		Protocol: cfg.OTLPProtocol,
		Insecure: cfg.OTLPInsecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to flush traces")
		}
	}()

	checker := health.NewChecker(cfg.Version)
	run := startup.NewStartup(a.logger, cfg.StartupMaxAttempts)

	var (
		db     *sqlx.DB
		deps   serviceDeps
		server *http.Server
	)
	httpRequires := []string{"postgres"}

	run.AddDependency(&startup.Dependency{
		Name: "postgres",
		StartFunc: func(ctx context.Context) error {
			conn, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			db = conn
			checker.AddCheck("postgres", db, true)
			return nil
		},
		StopFunc: func(context.Context) error {
			if db == nil {
				return nil
			}
			return db.Close()
		},
	})

	if cfg.RedisEnabled {
		var client *goredis.Client
		httpRequires = append(httpRequires, "redis")
		run.AddDependency(&startup.Dependency{
			Name: "redis",
			StartFunc: func(ctx context.Context) error {
				c, err := redis.Dial(ctx, a.redisConfig(), a.logger)
				if err != nil {
					return err
				}
				client = c
				deps.locker = redis.NewLocker(client, a.logger, "aster:lock:", cfg.SeedLockWait())
				checker.AddCheck("redis", health.PingFunc(redis.Pinger(client)), false)
				return nil
			},
			StopFunc: func(context.Context) error {
				if client == nil {
					return nil
				}
				return client.Close()
			},
		})
	}

	if cfg.KafkaEnabled {
		var producer *kafka.Producer
		httpRequires = append(httpRequires, "kafka")
		run.AddDependency(&startup.Dependency{
			Name: "kafka",
			StartFunc: func(context.Context) error {
				producer = kafka.NewProducer(a.kafkaConfig(), a.logger)
				deps.publisher = producer
				return nil
			},
			StopFunc: func(context.Context) error {
				if producer == nil {
					return nil
				}
				return producer.Close()
			},
		})
	}

	run.AddDependency(&startup.Dependency{
		Name:     "http",
		Requires: httpRequires,
		StartFunc: func(context.Context) error {
			if cfg.DiagnosticsURL != "" {
				deps.forwarder = httpclient.NewClient(httpclient.Config{
					BaseURL:       cfg.DiagnosticsURL,
					Timeout:       cfg.DiagnosticsTimeout,
					RetryCount:    cfg.DiagnosticsRetryCount,
					RetryWaitTime: time.Second,
				}, a.logger)
			}
			svc := a.buildServices(db, deps)
			checker.AddProbe("effectivity_revision", func(ctx context.Context) (string, error) {
				rev, err := svc.effectivityRepo.GetCurrentRevision(ctx)
				if err != nil {
					return "", err
				}
				return rev.Revision, nil
			}, false)

			e, err := routes.NewServer(routes.Options{ServiceName: cfg.AppName, BodyLimit: cfg.BodyLimit}, a.logger, routes.Dependencies{
				Configurations: svc.configurations,
				Applicability:  svc.applicability,
				Seeding:        svc.seeding,
				Importer:       svc.curated,
				Curated:        svc.curatedRepo,
				Diagnoser:      svc.diagnostics,
			}, checker)
			if err != nil {
				return err
			}

			server = &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Port),
				Handler:           e,
				ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
				WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
				IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
				ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
				MaxHeaderBytes:    cfg.MaxHeaderBytes,
			}
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.WithError(err).Error("HTTP server stopped")
					stop()
				}
			}()
			log.Infof("Listening on :%d", cfg.Port)
			return nil
		},
		StopFunc: func(ctx context.Context) error {
			if server == nil {
				return nil
			}
			return server.Shutdown(ctx)
		},
	})

	if err := run.Start(ctx); err != nil {
		return err
	}
	checker.SetReady(true)

	<-ctx.Done()
	log.Info("Shutting down")
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return run.Stop(shutdownCtx)
}
