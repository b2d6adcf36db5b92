package database

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/db"
)

const embeddedDir = "pg"

var upFilePattern = regexp.MustCompile(`^(\d+)_.*\.up\.sql$`)

// migrateLogger routes golang-migrate output through ectologger.
type migrateLogger struct {
	ectologger.Logger
}

func (l migrateLogger) Verbose() bool { return false }

func (l migrateLogger) Printf(format string, v ...any) {
	l.Infof(strings.TrimRight(format, "\n"), v...)
}

type MigrationConfig struct {
	// MigrationFolderPath overrides the migrations compiled into the binary. Empty
	// means embedded.
	MigrationFolderPath string
	// Version pins the target version; zero migrates to the latest.
	Version uint
	// Force marks the database clean at this version before migrating.
	Force int
	// AutoRollback forces a dirty database back to the version it started at.
	AutoRollback bool
}

// MigrationStatus is the schema version recorded in schema_migrations.
type MigrationStatus struct {
	Version uint `json:"version" yaml:"version"`
	Latest  uint `json:"latest" yaml:"latest"`
	Dirty   bool `json:"dirty" yaml:"dirty"`
}

type MigrationService struct {
	config *MigrationConfig
	logger ectologger.Logger
}

func NewMigrationService(logger ectologger.Logger, config *MigrationConfig) *MigrationService {
	return &MigrationService{config: config, logger: logger}
}

// migrations returns the migration files, from disk when a folder is configured.
func (ms *MigrationService) migrations() (fs.FS, error) {
	if ms.config.MigrationFolderPath == "" {
		return fs.Sub(db.Postgres, embeddedDir)
	}
	info, err := os.Stat(ms.config.MigrationFolderPath)
	if err != nil {
		return nil, errors.Wrapf(err, "migration folder %s", ms.config.MigrationFolderPath)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("migration folder %s is not a directory", ms.config.MigrationFolderPath)
	}
	return os.DirFS(ms.config.MigrationFolderPath), nil
}

func (ms *MigrationService) open(conn *sql.DB, databaseName string) (*migrate.Migrate, fs.FS, error) {
	files, err := ms.migrations()
	if err != nil {
		return nil, nil, err
	}
	var src source.Driver
	if src, err = iofs.New(files, "."); err != nil {
		return nil, nil, errors.Wrap(err, "failed to read migrations")
	}
	driver, err := postgres.WithInstance(conn, &postgres.Config{DatabaseName: databaseName})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create postgres migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, databaseName, driver)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create migrator")
	}
	m.Log = migrateLogger{Logger: ms.logger}
	return m, files, nil
}

// MigratePostgres brings the schema to the configured version.
func (ms *MigrationService) MigratePostgres(conn *sql.DB, databaseName string) error {
	m, files, err := ms.open(conn, databaseName)
	if err != nil {
		return err
	}

	if ms.config.Force != 0 {
		if err := m.Force(ms.config.Force); err != nil {
			return errors.Wrapf(err, "failed to force schema to version %d", ms.config.Force)
		}
	}

	before, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		ms.logger.WithError(err).Warn("Failed to read schema version")
	}

	start := time.Now()
	if ms.config.Version != 0 {
		err = m.Migrate(ms.config.Version)
	} else {
		err = m.Up()
	}

	switch {
	case err == nil:
		ms.logger.WithField("elapsed", time.Since(start).String()).Info("Applied schema migrations")
		return nil
	case errors.Is(err, migrate.ErrNoChange):
		ms.logger.Debug("Schema is up to date")
		return nil
	}

	// a schema ahead of the embedded files means a newer build migrated it first
	if strings.Contains(err.Error(), "no migration found for version") {
		latest, latestErr := LatestMigrationVersion(files)
		if latestErr != nil {
			return latestErr
		}
		ms.logger.Warnf("Schema version %d is unknown to this build; forcing version %d", before, latest)
		return errors.Wrapf(m.Force(latest), "failed to force schema to version %d", latest)
	}

	return ms.recover(m, err, before)
}

func (ms *MigrationService) recover(m *migrate.Migrate, cause error, before uint) error {
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		ms.logger.WithError(err).Error("Failed to read schema version after a failed migration")
		return errors.Wrap(cause, "failed to apply migrations")
	}

	if dirty && ms.config.AutoRollback {
		target := before
		if target == 0 && version > 0 {
			target = version - 1
		}
		ms.logger.Warnf("Schema is dirty at version %d; marking version %d clean", version, target)
		if err := m.Force(int(target)); err != nil {
			return errors.Wrapf(err, "failed to force schema to version %d", target)
		}
	}

	return errors.Wrapf(cause, "failed to apply migrations (dirty=%t, version=%d)", dirty, version)
}

// Status reports the recorded schema version next to the newest available migration.
func (ms *MigrationService) Status(conn *sql.DB, databaseName string) (*MigrationStatus, error) {
	m, files, err := ms.open(conn, databaseName)
	if err != nil {
		return nil, err
	}
	latest, err := LatestMigrationVersion(files)
	if err != nil {
		return nil, err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, errors.Wrap(err, "failed to read schema version")
	}
	return &MigrationStatus{Version: version, Latest: uint(latest), Dirty: dirty}, nil
}

// LatestMigrationVersion returns the highest NNN_*.up.sql version in files.
func LatestMigrationVersion(files fs.FS) (int, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return 0, err
	}

	var versions []int
	for _, entry := range entries {
		m := upFilePattern.FindStringSubmatch(entry.Name())
		if entry.IsDir() || m == nil {
			continue
		}
		v, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, err
		}
		versions = append(versions, v)
	}
	if len(versions) == 0 {
		return 0, errors.New("no migration files found")
	}
	return slices.Max(versions), nil
}
