// Package curated imports the hand-authored reference tables.
package curated

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"gopkg.in/yaml.v3"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/tracing"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/utils"
)

type Repository interface {
	Import(ctx context.Context, dataset *models.CuratedDataset) (*models.CuratedImportResult, error)
}

// Invalidator drops cached curated data after an import.
type Invalidator interface {
	Invalidate()
}

type Service struct {
	logger      ectologger.Logger
	repo        Repository
	invalidator Invalidator
}

func NewService(logger ectologger.Logger, repo Repository, invalidator Invalidator) *Service {
	return &Service{
		logger:      logger,
		repo:        repo,
		invalidator: invalidator,
	}
}

// ParseDataset decodes and validates a YAML dataset. Unknown keys are rejected so a
// misspelled section is not silently imported as empty.
func ParseDataset(r io.Reader) (*models.CuratedDataset, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var dataset models.CuratedDataset
	if err := decoder.Decode(&dataset); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "curated dataset is empty")
		}
		return nil, httperror.WrapError(http.StatusBadRequest, fmt.Errorf("invalid curated dataset: %w", err))
	}

	if _, err := utils.Validate(dataset); err != nil {
		return nil, httperror.WrapError(http.StatusBadRequest, err)
	}

	for i, row := range dataset.SerialEffectivities {
		dataset.SerialEffectivities[i].ConfigurationCode = strings.ToUpper(strings.TrimSpace(row.ConfigurationCode))
	}
	for i, row := range dataset.PartEffectivities {
		dataset.PartEffectivities[i].ConfigurationCode = strings.ToUpper(strings.TrimSpace(row.ConfigurationCode))
		dataset.PartEffectivities[i].PartNumber = strings.ToUpper(strings.TrimSpace(row.PartNumber))
	}
	for i, row := range dataset.Configurations {
		dataset.Configurations[i].Code = strings.ToUpper(strings.TrimSpace(row.Code))
	}

	return &dataset, nil
}

// ImportYAML parses a YAML document and imports it.
func (s *Service) ImportYAML(ctx context.Context, body []byte) (*models.CuratedImportResult, error) {
	dataset, err := ParseDataset(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, dataset)
}

// Import writes the dataset and drops the cached snapshot so the next resolution sees it.
func (s *Service) Import(ctx context.Context, dataset *models.CuratedDataset) (*models.CuratedImportResult, error) {
	ctx, span := tracing.StartSpan(ctx, "curated.Import")
	defer span.End()

	result, err := s.repo.Import(ctx, dataset)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"configurations":       result.Configurations,
		"serial_effectivities": result.SerialEffectivities,
		"part_effectivities":   result.PartEffectivities,
	}).Info("Imported curated effectivity data")

	return result, nil
}
