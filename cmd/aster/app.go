package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/config"
	curatedrepo "github.com/fariasvn/aw139-diagnostics-platform-sub000/internal/repositories/curated"
	effectivityrepo "github.com/fariasvn/aw139-diagnostics-platform-sub000/internal/repositories/effectivity"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/internal/services/applicability"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/internal/services/configuration"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/internal/services/curated"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/internal/services/diagnostics"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/internal/services/seeding"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/database"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/kafka"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/logger"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/redis"
)

// app is the configuration and logger shared by every command.
type app struct {
	cfg    *config.Config
	logger ectologger.Logger
}

func loadApp() (*app, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}

	log, _, err := logger.New(cfg.LogLevel, cfg.PrettyLogs, cfg.AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &app{cfg: cfg, logger: log}, nil
}

func (a *app) connectionConfig() database.ConnectionConfig {
	return database.ConnectionConfig{
		Driver:          a.cfg.DatabaseDriver,
		Host:            a.cfg.DatabaseHost,
		Port:            a.cfg.DatabasePort,
		User:            a.cfg.DatabaseUserName,
		Password:        a.cfg.DatabasePassword,
		Name:            a.cfg.DatabaseName,
		SSLMode:         a.cfg.DatabaseSSLMode,
		MaxOpenConns:    a.cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    a.cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: a.cfg.DatabaseConnMaxLifetime,
	}
}

func (a *app) migrationService() *database.MigrationService {
	return database.NewMigrationService(a.logger, &database.MigrationConfig{
		MigrationFolderPath: a.cfg.DatabaseMigrationFolderPath,
		Version:             uint(a.cfg.DatabaseMigrationVersion),
		Force:               a.cfg.DatabaseMigrationForce,
		AutoRollback:        a.cfg.DatabaseMigrationAutoRollback,
	})
}

// openDatabase connects and brings the schema up to date.
func (a *app) openDatabase(ctx context.Context) (*sqlx.DB, error) {
	db, err := database.Connect(ctx, a.connectionConfig(), a.logger)
	if err != nil {
		return nil, err
	}
	if err := a.migrationService().MigratePostgres(db.DB, a.cfg.DatabaseName); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// services is the object graph behind the API and the offline commands.
type services struct {
	effectivityRepo *effectivityrepo.Repository
	curatedRepo     *curatedrepo.Repository
	seeding         *seeding.Service
	configurations  *configuration.Resolver
	applicability   *applicability.Resolver
	curated         *curated.Service
	diagnostics     *diagnostics.Service
}

type serviceDeps struct {
	locker    seeding.Locker
	publisher seeding.EventPublisher
	forwarder diagnostics.Forwarder
}

func (a *app) buildServices(db *sqlx.DB, deps serviceDeps) *services {
	instance := database.NewPool(db, a.logger)

	s := &services{
		effectivityRepo: effectivityrepo.NewRepository(instance, a.logger),
		curatedRepo:     curatedrepo.NewRepository(instance, a.logger),
	}
	s.seeding = seeding.NewService(a.logger, s.effectivityRepo, deps.locker, deps.publisher, a.cfg.SeedLockTTL())
	s.configurations = configuration.NewResolver(a.logger, s.curatedRepo, a.cfg.CuratedCacheTTL())
	s.applicability = applicability.NewResolver(a.logger, s.curatedRepo, s.effectivityRepo, s.configurations)
	s.curated = curated.NewService(a.logger, s.curatedRepo, s.configurations)
	s.diagnostics = diagnostics.NewService(a.logger, s.configurations, s.applicability, deps.forwarder)

	return s
}

func (a *app) redisConfig() redis.Config {
	return redis.Config{
		Host:     a.cfg.RedisHost,
		Port:     a.cfg.RedisPort,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	}
}

func (a *app) kafkaConfig() kafka.Config {
	return kafka.Config{
		Brokers:          kafka.ParseBrokers(a.cfg.KafkaBrokers),
		EventsTopic:      a.cfg.KafkaEventsTopic,
		DataQualityTopic: a.cfg.KafkaDataQualityTopic,
	}
}

// offlineDeps opens the optional Redis lock and Kafka producer for a one-shot command,
// so offline seeding serializes with a running server. The returned func closes them.
func (a *app) offlineDeps(ctx context.Context) (serviceDeps, func(), error) {
	var deps serviceDeps
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	if a.cfg.RedisEnabled {
		client, err := redis.Dial(ctx, a.redisConfig(), a.logger)
		if err != nil {
			return deps, closeAll, err
		}
		closers = append(closers, client.Close)
		deps.locker = redis.NewLocker(client, a.logger, "aster:lock:", a.cfg.SeedLockWait())
	}
	if a.cfg.KafkaEnabled {
		producer := kafka.NewProducer(a.kafkaConfig(), a.logger)
		closers = append(closers, producer.Close)
		deps.publisher = producer
	}

	return deps, closeAll, nil
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q (want yaml or json)", format)
	}
}
