package curated

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"
)

const dataset = `
configurations:
  - code: sn
    name: Short Nose
serial_effectivities:
  - serial_start: 31005
    serial_end: 31200
    configuration_code: sn
    effectivity_code: "1J"
    source_document: AMP
    source_revision: "Rev 12"
part_effectivities:
  - part_number: 3a5100-1
    configuration_code: plus
    is_applicable: true
`

type fakeRepo struct {
	imported *models.CuratedDataset
	err      error
}

func (f *fakeRepo) Import(_ context.Context, dataset *models.CuratedDataset) (*models.CuratedImportResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.imported = dataset
	return &models.CuratedImportResult{
		Configurations:      len(dataset.Configurations),
		SerialEffectivities: len(dataset.SerialEffectivities),
		PartEffectivities:   len(dataset.PartEffectivities),
	}, nil
}

type countingInvalidator int

func (c *countingInvalidator) Invalidate() { *c++ }

func newTestService(repo Repository, inv Invalidator) *Service {
	return NewService(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), repo, inv)
}

func TestParseDataset(t *testing.T) {
	ds, err := ParseDataset(strings.NewReader(dataset))
	require.NoError(t, err)

	require.Len(t, ds.Configurations, 1)
	assert.Equal(t, "SN", ds.Configurations[0].Code)
	require.Len(t, ds.SerialEffectivities, 1)
	assert.Equal(t, 31005, ds.SerialEffectivities[0].SerialStart)
	assert.Equal(t, "SN", ds.SerialEffectivities[0].ConfigurationCode)
	require.Len(t, ds.PartEffectivities, 1)
	assert.Equal(t, "3A5100-1", ds.PartEffectivities[0].PartNumber)
	assert.Equal(t, "PLUS", ds.PartEffectivities[0].ConfigurationCode)
}

func TestParseDataset_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"unknown section", "serial_effectivity:\n  - serial_start: 1\n"},
		{"inverted interval", "serial_effectivities:\n  - serial_start: 200\n    serial_end: 100\n    configuration_code: SN\n"},
		{"missing configuration", "part_effectivities:\n  - part_number: 3A5100-1\n"},
		{"not yaml", "configurations: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDataset(strings.NewReader(tt.body))
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
		})
	}
}

func TestImportYAML_InvalidatesCache(t *testing.T) {
	repo := &fakeRepo{}
	var inv countingInvalidator
	svc := newTestService(repo, &inv)

	result, err := svc.ImportYAML(context.Background(), []byte(dataset))
	require.NoError(t, err)

	assert.Equal(t, 1, result.SerialEffectivities)
	assert.NotNil(t, repo.imported)
	assert.Equal(t, countingInvalidator(1), inv)
}

func TestImport_FailureKeepsCache(t *testing.T) {
	repo := &fakeRepo{err: errors.New("connection reset")}
	var inv countingInvalidator
	svc := newTestService(repo, &inv)

	_, err := svc.ImportYAML(context.Background(), []byte(dataset))
	require.Error(t, err)
	assert.Equal(t, countingInvalidator(0), inv)
}
