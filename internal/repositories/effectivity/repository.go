package effectivity

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/database"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/tracing"
)

// EffectivityRepository defines the interface for revision-tagged effectivity data access
type EffectivityRepository interface {
	GetCurrentRevision(ctx context.Context) (*models.Revision, error)
	GetRevisionByID(ctx context.Context, id int64) (*models.Revision, error)
	ListRevisions(ctx context.Context) ([]*models.Revision, error)
	ReplaceRevision(ctx context.Context, revision *models.Revision, codes []models.EffectivityCode, ranges []models.SerialRange) (*models.Revision, error)
	ActivateRevision(ctx context.Context, id int64) (*models.Revision, error)
	CodesByNames(ctx context.Context, revisionID int64, codes []string) ([]models.EffectivityCode, error)
	RangesContaining(ctx context.Context, revisionID int64, serial int) ([]models.SerialRange, error)
	CodesForSerial(ctx context.Context, revisionID int64, serial int) ([]models.EffectivityCode, error)
}

// Repository implements EffectivityRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new effectivity repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetCurrentRevision returns the revision resolution queries read
func (r *Repository) GetCurrentRevision(ctx context.Context) (*models.Revision, error) {
	ctx, span := tracing.StartSpan(ctx, "EffectivityRepository.GetCurrentRevision")
	defer span.End()

	sb := revisionStruct.SelectFrom(revisionsTable)
	sb.Where(sb.Equal("is_current", true))
	sb.Limit(1)

	sql, args := sb.Build()

	r.logger.WithContext(ctx).Debug("Getting current revision")

	var row RevisionRow
	err := r.db.GetContext(ctx, &row, sql, args...)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "no effectivity revision has been seeded")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get current revision")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get current revision")
	}

	return ToRevision(&row), nil
}

// GetRevisionByID retrieves a revision by ID
func (r *Repository) GetRevisionByID(ctx context.Context, id int64) (*models.Revision, error) {
	ctx, span := tracing.StartSpan(ctx, "EffectivityRepository.GetRevisionByID")
	defer span.End()

	return r.getRevisionByID(ctx, database.QuerierFrom(ctx, r.db), id)
}

func (r *Repository) getRevisionByID(ctx context.Context, q database.Querier, id int64) (*models.Revision, error) {
	sb := revisionStruct.SelectFrom(revisionsTable)
	sb.Where(sb.Equal("id", id))

	sql, args := sb.Build()

	r.logger.WithContext(ctx).WithField("revision_id", id).Debug("Getting revision by ID")

	var row RevisionRow
	err := q.GetContext(ctx, &row, sql, args...)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "revision %d not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get revision")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get revision")
	}

	return ToRevision(&row), nil
}

// ListRevisions retrieves every revision, newest first
func (r *Repository) ListRevisions(ctx context.Context) ([]*models.Revision, error) {
	ctx, span := tracing.StartSpan(ctx, "EffectivityRepository.ListRevisions")
	defer span.End()

	sb := revisionStruct.SelectFrom(revisionsTable)
	sb.OrderBy("id").Desc()

	sql, args := sb.Build()

	r.logger.WithContext(ctx).Debug("Listing revisions")

	var rows []RevisionRow
	err := r.db.SelectContext(ctx, &rows, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list revisions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list revisions")
	}

	return ToRevisions(rows), nil
}

// ReplaceRevision writes a complete revision and makes it current in one transaction.
// Rows previously written under the same label are removed first. On any failure the
// previous current revision stays in place.
func (r *Repository) ReplaceRevision(ctx context.Context, revision *models.Revision, codes []models.EffectivityCode, ranges []models.SerialRange) (*models.Revision, error) {
	ctx, span := tracing.StartSpan(ctx, "EffectivityRepository.ReplaceRevision",
		attribute.String("revision", revision.Revision),
		attribute.Int("codes", len(codes)),
		attribute.Int("ranges", len(ranges)),
	)
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"revision":        revision.Revision,
		"source_document": revision.SourceDocument,
		"codes":           len(codes),
		"ranges":          len(ranges),
	})
	log.Debug("Replacing revision")

	del := database.DeleteFrom(revisionsTable)
	del.Where(del.Equal("revision", revision.Revision))
	sql, args := del.Build()
	if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
		log.WithError(err).Error("Failed to delete previous rows for revision")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace revision")
	}

	ib := database.Insert(revisionsTable, "revision", "source_document", "code_count", "range_count", "warning_count", "is_current")
	ib.Values(revision.Revision, revision.SourceDocument, revision.CodeCount, revision.RangeCount, revision.WarningCount, false)
	ib.Returning("id", "created_at")
	sql, args = ib.Build()

	var inserted RevisionRow
	if err := tx.GetContext(ctx, &inserted, sql, args...); err != nil {
		log.WithError(err).Error("Failed to insert revision")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert revision")
	}
	revisionID := inserted.ID.Int64

	for _, batch := range database.Chunk(codes, batchSize) {
		ib := database.Insert(codesTable, codeColumns...)
		for _, c := range batch {
			ib.Values(revisionID, c.Code, c.Description, c.IsDeleted, c.IsConditional, nullString(c.ConditionalPartNumber))
		}
		sql, args := ib.Build()
		if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
			log.WithError(err).Error("Failed to insert effectivity codes")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert effectivity codes")
		}
	}

	for _, batch := range database.Chunk(ranges, batchSize) {
		ib := database.Insert(rangesTable, rangeColumns...)
		for _, sr := range batch {
			ib.Values(revisionID, sr.Code, sr.SerialStart, sr.SerialEnd)
		}
		sql, args := ib.Build()
		if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
			log.WithError(err).Error("Failed to insert serial ranges")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert serial ranges")
		}
	}

	activatedAt := Now()
	if err := r.setCurrent(ctx, tx, revisionID, activatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit revision")
	}

	saved := *revision
	saved.ID = revisionID
	saved.CreatedAt = inserted.CreatedAt.Time
	saved.IsCurrent = true
	saved.ActivatedAt = &activatedAt

	log.WithField("revision_id", revisionID).Info("Revision is now current")

	return &saved, nil
}

// ActivateRevision moves the current pointer to an existing revision
func (r *Repository) ActivateRevision(ctx context.Context, id int64) (*models.Revision, error) {
	ctx, span := tracing.StartSpan(ctx, "EffectivityRepository.ActivateRevision", attribute.Int64("revision_id", id))
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	rev, err := r.getRevisionByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	activatedAt := Now()
	if err := r.setCurrent(ctx, tx, id, activatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit activation")
	}

	rev.IsCurrent = true
	rev.ActivatedAt = &activatedAt

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"revision_id": id,
		"revision":    rev.Revision,
	}).Info("Revision activated")

	return rev, nil
}

// setCurrent clears the old pointer before setting the new one so the partial unique
// index on is_current never sees two current rows.
func (r *Repository) setCurrent(ctx context.Context, tx database.Tx, id int64, activatedAt time.Time) error {
	unset := database.Update(revisionsTable)
	unset.Set(unset.Assign("is_current", false))
	unset.Where(unset.Equal("is_current", true), unset.NotEqual("id", id))
	sql, args := unset.Build()
	if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to clear current revision")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to clear current revision")
	}

	set := database.Update(revisionsTable)
	set.Set(set.Assign("is_current", true), set.Assign("activated_at", activatedAt))
	set.Where(set.Equal("id", id))
	sql, args = set.Build()
	if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to set current revision")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to set current revision")
	}

	return nil
}

// CodesByNames retrieves the named codes of a revision
func (r *Repository) CodesByNames(ctx context.Context, revisionID int64, codes []string) ([]models.EffectivityCode, error) {
	ctx, span := tracing.StartSpan(ctx, "EffectivityRepository.CodesByNames")
	defer span.End()

	if len(codes) == 0 {
		return []models.EffectivityCode{}, nil
	}

	sb := codeStruct.SelectFrom(codesTable)
	sb.Where(
		sb.Equal("revision_id", revisionID),
		fmt.Sprintf("code = ANY(%s)", sb.Var(pq.Array(codes))),
	)
	sb.OrderBy("code")

	sql, args := sb.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"revision_id": revisionID,
		"codes":       codes,
	}).Debug("Getting effectivity codes")

	var rows []CodeRow
	if err := r.db.SelectContext(ctx, &rows, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get effectivity codes")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get effectivity codes")
	}

	return ToCodes(rows), nil
}

// RangesContaining retrieves every range of a revision that contains serial
func (r *Repository) RangesContaining(ctx context.Context, revisionID int64, serial int) ([]models.SerialRange, error) {
	ctx, span := tracing.StartSpan(ctx, "EffectivityRepository.RangesContaining", attribute.Int("serial", serial))
	defer span.End()

	sb := rangeStruct.SelectFrom(rangesTable)
	sb.Where(
		sb.Equal("revision_id", revisionID),
		sb.LessEqualThan("serial_start", serial),
		sb.GreaterEqualThan("serial_end", serial),
	)
	sb.OrderBy("code", "serial_start")

	sql, args := sb.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"revision_id": revisionID,
		"serial":      serial,
	}).Debug("Getting ranges containing serial")

	var rows []RangeRow
	if err := r.db.SelectContext(ctx, &rows, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get serial ranges")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get serial ranges")
	}

	return ToRanges(rows), nil
}

// CodesForSerial retrieves every code of a revision with a range containing serial
func (r *Repository) CodesForSerial(ctx context.Context, revisionID int64, serial int) ([]models.EffectivityCode, error) {
	ctx, span := tracing.StartSpan(ctx, "EffectivityRepository.CodesForSerial", attribute.Int("serial", serial))
	defer span.End()

	sb := database.Select(
		"c.revision_id", "c.code", "c.description",
		"c.is_deleted", "c.is_conditional", "c.conditional_part_number",
	)
	sb.Distinct()
	sb.From(codesTable + " c")
	sb.Join(rangesTable+" r", "r.revision_id = c.revision_id", "r.code = c.code")
	sb.Where(
		sb.Equal("c.revision_id", revisionID),
		sb.LessEqualThan("r.serial_start", serial),
		sb.GreaterEqualThan("r.serial_end", serial),
	)
	sb.OrderBy("c.code")

	sql, args := sb.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"revision_id": revisionID,
		"serial":      serial,
	}).Debug("Getting codes for serial")

	var rows []CodeRow
	if err := r.db.SelectContext(ctx, &rows, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get codes for serial")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get codes for serial")
	}

	return ToCodes(rows), nil
}
