package curated

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/lib/pq"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/database"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/tracing"
)

// CuratedRepository defines the interface for curated reference data access
type CuratedRepository interface {
	ListConfigurations(ctx context.Context) ([]models.AircraftConfiguration, error)
	ListSerialEffectivities(ctx context.Context) ([]models.SerialEffectivity, error)
	PartEffectivities(ctx context.Context, partNumbers []string, configurationCode string) ([]models.PartEffectivity, error)
	Import(ctx context.Context, dataset *models.CuratedDataset) (*models.CuratedImportResult, error)
}

// Repository implements CuratedRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new curated repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListConfigurations retrieves every aircraft configuration
func (r *Repository) ListConfigurations(ctx context.Context) ([]models.AircraftConfiguration, error) {
	ctx, span := tracing.StartSpan(ctx, "CuratedRepository.ListConfigurations")
	defer span.End()

	sb := configurationStruct.SelectFrom(configurationsTable)
	sb.OrderBy("code")

	sql, args := sb.Build()

	r.logger.WithContext(ctx).Debug("Listing aircraft configurations")

	var rows []ConfigurationRow
	if err := r.db.SelectContext(ctx, &rows, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list aircraft configurations")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list aircraft configurations")
	}

	return ToConfigurations(rows), nil
}

// ListSerialEffectivities retrieves every curated serial interval in scan order
func (r *Repository) ListSerialEffectivities(ctx context.Context) ([]models.SerialEffectivity, error) {
	ctx, span := tracing.StartSpan(ctx, "CuratedRepository.ListSerialEffectivities")
	defer span.End()

	sb := serialEffectivityStruct.SelectFrom(serialEffectivitiesTable)
	sb.OrderBy("id").Asc()

	sql, args := sb.Build()

	r.logger.WithContext(ctx).Debug("Listing serial effectivities")

	var rows []SerialEffectivityRow
	if err := r.db.SelectContext(ctx, &rows, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list serial effectivities")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list serial effectivities")
	}

	return ToSerialEffectivities(rows), nil
}

// PartEffectivities retrieves the rows for the given parts of one configuration.
// Part numbers match case-insensitively.
func (r *Repository) PartEffectivities(ctx context.Context, partNumbers []string, configurationCode string) ([]models.PartEffectivity, error) {
	ctx, span := tracing.StartSpan(ctx, "CuratedRepository.PartEffectivities")
	defer span.End()

	if len(partNumbers) == 0 {
		return []models.PartEffectivity{}, nil
	}

	upper := make([]string, len(partNumbers))
	for i, pn := range partNumbers {
		upper[i] = strings.ToUpper(strings.TrimSpace(pn))
	}

	sb := partEffectivityStruct.SelectFrom(partEffectivitiesTable)
	sb.Where(
		sb.Equal("configuration_code", configurationCode),
		fmt.Sprintf("UPPER(part_number) = ANY(%s)", sb.Var(pq.Array(upper))),
	)

	sql, args := sb.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"configuration_code": configurationCode,
		"part_numbers":       upper,
	}).Debug("Getting part effectivities")

	var rows []PartEffectivityRow
	if err := r.db.SelectContext(ctx, &rows, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get part effectivities")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get part effectivities")
	}

	return ToPartEffectivities(rows), nil
}

// Import writes a curated dataset in one transaction. Configurations and part rows are
// upserted. A non-empty serial section replaces the whole serial table so that scan
// order follows the file.
func (r *Repository) Import(ctx context.Context, dataset *models.CuratedDataset) (*models.CuratedImportResult, error) {
	ctx, span := tracing.StartSpan(ctx, "CuratedRepository.Import")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"configurations":       len(dataset.Configurations),
		"serial_effectivities": len(dataset.SerialEffectivities),
		"part_effectivities":   len(dataset.PartEffectivities),
	})
	log.Debug("Importing curated dataset")

	if len(dataset.Configurations) > 0 {
		ib := database.Insert(configurationsTable, "code", "name", "description")
		for _, c := range dataset.Configurations {
			ib.Values(strings.ToUpper(c.Code), c.Name, c.Description)
		}
		sql, args := database.Upsert(ib, []string{"code"}, "name", "description").Build()
		if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
			log.WithError(err).Error("Failed to upsert aircraft configurations")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to import aircraft configurations")
		}
	}

	if len(dataset.SerialEffectivities) > 0 {
		sql, args := database.DeleteFrom(serialEffectivitiesTable).Build()
		if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
			log.WithError(err).Error("Failed to clear serial effectivities")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to import serial effectivities")
		}

		ib := database.Insert(serialEffectivitiesTable,
			"serial_start", "serial_end", "configuration_code", "effectivity_code", "source_document", "source_revision", "notes")
		for _, s := range dataset.SerialEffectivities {
			ib.Values(s.SerialStart, s.SerialEnd, strings.ToUpper(s.ConfigurationCode), s.EffectivityCode, s.SourceDocument, s.SourceRevision, s.Notes)
		}
		sql, args = ib.Build()
		if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
			log.WithError(err).Error("Failed to insert serial effectivities")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to import serial effectivities")
		}
	}

	parts := dedupeParts(dataset.PartEffectivities)
	if len(parts) > 0 {
		ib := database.Insert(partEffectivitiesTable, "part_number", "configuration_code", "is_applicable", "notes")
		for _, p := range parts {
			ib.Values(strings.TrimSpace(p.PartNumber), strings.ToUpper(p.ConfigurationCode), p.IsApplicable, p.Notes)
		}
		sql, args := database.Upsert(ib, []string{"UPPER(part_number)", "configuration_code"}, "is_applicable", "notes").Build()
		if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
			log.WithError(err).Error("Failed to upsert part effectivities")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to import part effectivities")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit curated import")
	}

	log.Info("Curated dataset imported")

	return &models.CuratedImportResult{
		Configurations:      len(dataset.Configurations),
		SerialEffectivities: len(dataset.SerialEffectivities),
		PartEffectivities:   len(parts),
	}, nil
}

// dedupeParts keeps the last row per (part, configuration); Postgres rejects an upsert
// that touches the same row twice.
func dedupeParts(parts []models.PartEffectivity) []models.PartEffectivity {
	index := make(map[string]int, len(parts))
	out := make([]models.PartEffectivity, 0, len(parts))
	for _, p := range parts {
		key := strings.ToUpper(strings.TrimSpace(p.PartNumber)) + "|" + strings.ToUpper(p.ConfigurationCode)
		if i, ok := index[key]; ok {
			out[i] = p
			continue
		}
		index[key] = len(out)
		out = append(out, p)
	}
	return out
}
