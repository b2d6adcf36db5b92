// Package configuration resolves an aircraft serial number to its curated configuration.
package configuration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/effectivity"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/metrics"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/tracing"
)

const DefaultCacheTTL = 60 * time.Second

const (
	warnInvalidSerial = "Invalid serial number format: %q - part applicability cannot be verified"
	warnNotFound      = "Serial number %d not found in effectivity database - part applicability cannot be verified"
	warnStoreFailure  = "Unable to verify aircraft configuration: effectivity database unavailable - contact an administrator"
)

type CuratedRepository interface {
	ListConfigurations(ctx context.Context) ([]models.AircraftConfiguration, error)
	ListSerialEffectivities(ctx context.Context) ([]models.SerialEffectivity, error)
}

type snapshot struct {
	rows     []models.SerialEffectivity
	names    map[string]string
	loadedAt time.Time
}

// Resolver answers configuration queries from an in-process snapshot of the curated
// tables, reloaded after the TTL.
type Resolver struct {
	logger ectologger.Logger
	repo   CuratedRepository
	ttl    time.Duration
	now    func() time.Time

	mu     sync.RWMutex
	snap   *snapshot
	flight singleflight.Group
}

func NewResolver(logger ectologger.Logger, repo CuratedRepository, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Resolver{
		logger: logger,
		repo:   repo,
		ttl:    ttl,
		now:    time.Now,
	}
}

// ResolveConfiguration never returns an error: every failure is reported as an
// unresolved result with a warning.
func (r *Resolver) ResolveConfiguration(ctx context.Context, serialNumber string) models.ConfigurationResolution {
	ctx, span := tracing.StartSpan(ctx, "configuration.ResolveConfiguration", attribute.String("serial_number", serialNumber))
	defer span.End()
	start := time.Now()

	result := models.ConfigurationResolution{SerialNumber: serialNumber}
	outcome := "resolved"
	defer func() {
		metrics.RecordResolution("configuration", outcome, time.Since(start).Seconds())
	}()

	serial, err := effectivity.ParseSerial(serialNumber)
	if err != nil {
		outcome = "invalid"
		result.Warning = fmt.Sprintf(warnInvalidSerial, serialNumber)
		return result
	}
	result.Serial = serial

	snap, err := r.load(ctx)
	if err != nil {
		outcome = "error"
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithField("serial", serial).Error("Failed to load curated serial effectivities")
		result.Warning = warnStoreFailure
		return result
	}

	var match *models.SerialEffectivity
	for i := range snap.rows {
		row := &snap.rows[i]
		if !row.Contains(serial) {
			continue
		}
		if match == nil {
			match = row
			continue
		}
		result.OverlappingRanges = append(result.OverlappingRanges, row.ID)
	}

	if match == nil {
		outcome = "unresolved"
		result.Warning = fmt.Sprintf(warnNotFound, serial)
		r.logger.WithContext(ctx).WithField("serial", serial).Warn("Serial number not covered by curated effectivity")
		return result
	}

	if len(result.OverlappingRanges) > 0 {
		metrics.RecordOverlap()
		r.logger.WithContext(ctx).WithFields(map[string]any{
			"serial":       serial,
			"matched_id":   match.ID,
			"overlapping":  result.OverlappingRanges,
			"data_quality": "overlapping_ranges",
		}).Warn("Serial matches overlapping curated ranges; first match by id wins")
	}

	name := snap.names[match.ConfigurationCode]
	if name == "" {
		name = match.ConfigurationCode
	}

	result.Resolved = true
	result.ConfigurationCode = match.ConfigurationCode
	result.ConfigurationName = name
	result.EffectivityCode = match.EffectivityCode
	result.SourceDocument = match.SourceDocument
	result.SourceRevision = match.SourceRevision
	result.Notes = match.Notes
	result.Source = strings.TrimSpace(match.SourceDocument + " " + match.SourceRevision)

	return result
}

// Invalidate drops the cached snapshot, e.g. after a curated import.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.snap = nil
	r.mu.Unlock()
}

func (r *Resolver) load(ctx context.Context) (*snapshot, error) {
	r.mu.RLock()
	snap := r.snap
	r.mu.RUnlock()

	if snap != nil && r.now().Sub(snap.loadedAt) < r.ttl {
		metrics.RecordCacheLookup(true)
		return snap, nil
	}
	metrics.RecordCacheLookup(false)

	// the reload is shared, so one caller's cancellation must not fail the others
	v, err, _ := r.flight.Do("snapshot", func() (any, error) {
		return r.fetch(context.WithoutCancel(ctx))
	})
	if err != nil {
		if snap != nil {
			// keep serving the last good snapshot until the store recovers
			r.logger.WithContext(ctx).WithError(err).Warn("Serving stale curated snapshot")
			return snap, nil
		}
		return nil, err
	}

	fresh := v.(*snapshot)
	r.mu.Lock()
	r.snap = fresh
	r.mu.Unlock()
	return fresh, nil
}

func (r *Resolver) fetch(ctx context.Context) (*snapshot, error) {
	rows, err := r.repo.ListSerialEffectivities(ctx)
	if err != nil {
		return nil, err
	}
	configs, err := r.repo.ListConfigurations(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(configs))
	for _, c := range configs {
		names[c.Code] = c.Name
	}

	return &snapshot{rows: rows, names: names, loadedAt: r.now()}, nil
}
