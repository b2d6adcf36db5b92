package seeding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"go.opentelemetry.io/otel/attribute"

	appctx "github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/context"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/effectivity"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/kafka"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/metrics"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/redis"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/tracing"
)

const lockKey = "effectivity:seed"

type EffectivityRepository interface {
	GetCurrentRevision(ctx context.Context) (*models.Revision, error)
	ListRevisions(ctx context.Context) ([]*models.Revision, error)
	ReplaceRevision(ctx context.Context, revision *models.Revision, codes []models.EffectivityCode, ranges []models.SerialRange) (*models.Revision, error)
	ActivateRevision(ctx context.Context, id int64) (*models.Revision, error)
}

type EventPublisher interface {
	PublishRevisionEvent(ctx context.Context, evt *kafka.RevisionEvent) error
	PublishDataQuality(ctx context.Context, events []*kafka.DataQualityEvent) error
}

type Service struct {
	logger    ectologger.Logger
	repo      EffectivityRepository
	locker    Locker
	publisher EventPublisher
	lockTTL   time.Duration
}

// NewService wires the seeding service. A nil locker falls back to an in-process lock;
// a nil publisher disables event publishing.
func NewService(logger ectologger.Logger, repo EffectivityRepository, locker Locker, publisher EventPublisher, lockTTL time.Duration) *Service {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	return &Service{
		logger:    logger,
		repo:      repo,
		locker:    locker,
		publisher: publisher,
		lockTTL:   lockTTL,
	}
}

// Seed parses a document and makes it the current revision. Reseeding the current
// revision label is a no-op once its stored counts reach the expected counts.
func (s *Service) Seed(ctx context.Context, req models.SeedRequest) (*models.SeedResult, error) {
	ctx, span := tracing.StartSpan(ctx, "seeding.Seed", attribute.String("revision", req.Revision))
	defer span.End()
	start := time.Now()

	req.Revision = strings.TrimSpace(req.Revision)
	if req.Revision == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "revision is required")
	}
	ctx = appctx.SetRevision(ctx, req.Revision)

	doc, err := effectivity.ParseString(req.Document)
	if err != nil {
		return nil, httperror.WrapError(http.StatusBadRequest, err)
	}
	if len(doc.Codes) == 0 {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "document contains no effectivity codes")
	}

	plan := BuildPlan(doc)
	if req.ExpectedCodes > 0 {
		plan.ExpectedCodes = req.ExpectedCodes
	}
	if req.ExpectedRanges > 0 {
		plan.ExpectedRanges = req.ExpectedRanges
	}

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"revision":        req.Revision,
		"source_document": req.SourceDocument,
		"expected_codes":  plan.ExpectedCodes,
		"expected_ranges": plan.ExpectedRanges,
	})

	result := &models.SeedResult{
		ExpectedCodes:  plan.ExpectedCodes,
		ExpectedRanges: plan.ExpectedRanges,
		Warnings:       plan.Warnings,
	}

	err = s.locker.WithLock(ctx, lockKey, s.lockTTL, func(ctx context.Context) error {
		current, err := s.repo.GetCurrentRevision(ctx)
		if err != nil && httperror.GetStatusCode(err) != http.StatusNotFound {
			return err
		}

		if current != nil && current.Revision == req.Revision &&
			current.CodeCount >= plan.ExpectedCodes && current.RangeCount >= plan.ExpectedRanges {
			result.Skipped = true
			result.Revision = current
			return nil
		}

		saved, err := s.repo.ReplaceRevision(ctx, &models.Revision{
			Revision:       req.Revision,
			SourceDocument: req.SourceDocument,
			CodeCount:      len(plan.Codes),
			RangeCount:     len(plan.Ranges),
			WarningCount:   len(plan.Warnings),
		}, plan.Codes, plan.Ranges)
		if err != nil {
			return err
		}
		result.Revision = saved
		return nil
	})
	if err != nil {
		err = lockError(err)
		metrics.RecordSeedRun("failed", time.Since(start).Seconds())
		tracing.RecordError(span, err)
		log.WithError(err).Error("Seeding failed; previous revision remains current")
		return nil, err
	}

	if result.Skipped {
		metrics.RecordSeedRun("skipped", time.Since(start).Seconds())
		log.Info("Revision already seeded; skipping")
		return result, nil
	}

	metrics.RecordSeedRun("seeded", time.Since(start).Seconds())
	log.WithFields(map[string]any{
		"revision_id": result.Revision.ID,
		"codes":       result.Revision.CodeCount,
		"ranges":      result.Revision.RangeCount,
		"warnings":    len(plan.Warnings),
	}).Info("Revision seeded")

	s.reportWarnings(ctx, req.Revision, plan.Warnings)
	s.publishRevision(ctx, kafka.EventRevisionSeeded, result.Revision)

	return result, nil
}

// reportWarnings logs, counts and publishes data-quality findings. Publishing is best effort.
func (s *Service) reportWarnings(ctx context.Context, revision string, warnings []models.DataQualityWarning) {
	if len(warnings) == 0 {
		return
	}

	events := make([]*kafka.DataQualityEvent, 0, len(warnings))
	for _, w := range warnings {
		metrics.RecordDataQualityWarning(w.Kind)
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"kind": w.Kind,
			"code": w.Code,
			"line": w.Line,
		}).Warn(w.Message)

		events = append(events, &kafka.DataQualityEvent{
			Type:     kafka.EventDataQuality,
			Revision: revision,
			Kind:     w.Kind,
			Code:     w.Code,
			Message:  w.Message,
		})
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDataQuality(ctx, events); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to publish data quality events")
	}
}

func (s *Service) publishRevision(ctx context.Context, eventType string, rev *models.Revision) {
	if s.publisher == nil || rev == nil {
		return
	}
	err := s.publisher.PublishRevisionEvent(ctx, &kafka.RevisionEvent{
		Type:           eventType,
		RevisionID:     rev.ID,
		Revision:       rev.Revision,
		SourceDocument: rev.SourceDocument,
		CodeCount:      rev.CodeCount,
		RangeCount:     rev.RangeCount,
		WarningCount:   rev.WarningCount,
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warnf("Failed to publish %s event", eventType)
	}
}

// ActivateRevision moves the current pointer to a previously seeded revision.
func (s *Service) ActivateRevision(ctx context.Context, id int64) (*models.Revision, error) {
	ctx, span := tracing.StartSpan(ctx, "seeding.ActivateRevision", attribute.Int64("revision_id", id))
	defer span.End()

	if id <= 0 {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "revision id must be positive")
	}

	var rev *models.Revision
	err := s.locker.WithLock(ctx, lockKey, s.lockTTL, func(ctx context.Context) error {
		var err error
		rev, err = s.repo.ActivateRevision(ctx, id)
		return err
	})
	if err != nil {
		return nil, lockError(err)
	}

	s.publishRevision(ctx, kafka.EventRevisionActivated, rev)
	return rev, nil
}

func (s *Service) ListRevisions(ctx context.Context) ([]*models.Revision, error) {
	ctx, span := tracing.StartSpan(ctx, "seeding.ListRevisions")
	defer span.End()

	return s.repo.ListRevisions(ctx)
}

// lockError leaves repository errors alone and turns lock failures into API errors: a
// seed that could not get the lock in time is a conflict, anything else means the lock
// backend is unavailable.
func lockError(err error) error {
	if httperror.IsHTTPError(err) {
		return err
	}
	if errors.Is(err, redis.ErrLockNotAcquired) || errors.Is(err, context.DeadlineExceeded) {
		return httperror.NewHTTPError(http.StatusConflict, "another effectivity seed is in progress")
	}
	return httperror.WrapError(http.StatusServiceUnavailable, fmt.Errorf("seeding lock unavailable: %w", err))
}
