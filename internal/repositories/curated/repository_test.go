package curated

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/database"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"
)

func setupRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	db := database.NewPool(sqlx.NewDb(mockDB, "sqlmock"), logger)
	return NewRepository(db, logger), mock
}

func TestListSerialEffectivities_OrderedByID(t *testing.T) {
	repo, mock := setupRepository(t)

	columns := []string{"id", "serial_start", "serial_end", "configuration_code", "effectivity_code", "source_document", "source_revision", "notes"}
	mock.ExpectQuery("FROM serial_effectivities ORDER BY id ASC").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, 31005, 31200, "SN", "A8", "AW139 Effectivity List", "Rev 12", "").
			AddRow(2, 41001, 41286, "LN", "", "AW139 Effectivity List", "Rev 12", "gap follows"))

	rows, err := repo.ListSerialEffectivities(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].ID)
	assert.True(t, rows[0].Contains(31050))
	assert.Equal(t, "LN", rows[1].ConfigurationCode)
	assert.Equal(t, "gap follows", rows[1].Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSerialEffectivities_Failure(t *testing.T) {
	repo, mock := setupRepository(t)

	mock.ExpectQuery("FROM serial_effectivities").WillReturnError(errors.New("relation does not exist"))

	_, err := repo.ListSerialEffectivities(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(err))
}

func TestListConfigurations(t *testing.T) {
	repo, mock := setupRepository(t)

	mock.ExpectQuery("FROM aircraft_configurations ORDER BY code").
		WillReturnRows(sqlmock.NewRows([]string{"code", "name", "description"}).
			AddRow("ENH", "Enhanced", "").
			AddRow("SN", "Short Nose", ""))

	configs, err := repo.ListConfigurations(context.Background())
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "Short Nose", configs[1].Name)
}

func TestPartEffectivities_UppercasesPartNumbers(t *testing.T) {
	repo, mock := setupRepository(t)

	mock.ExpectQuery(`FROM part_effectivities WHERE configuration_code = .+ AND UPPER\(part_number\) = ANY`).
		WithArgs("PLUS", "{\"3A5100-1\",\"3G6220V00131\"}").
		WillReturnRows(sqlmock.NewRows([]string{"part_number", "configuration_code", "is_applicable", "notes"}).
			AddRow("3A5100-1", "PLUS", true, ""))

	rows, err := repo.PartEffectivities(context.Background(), []string{"3a5100-1", " 3G6220V00131 "}, "PLUS")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsApplicable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPartEffectivities_NoParts(t *testing.T) {
	repo, mock := setupRepository(t)

	rows, err := repo.PartEffectivities(context.Background(), nil, "PLUS")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImport(t *testing.T) {
	repo, mock := setupRepository(t)

	dataset := &models.CuratedDataset{
		Configurations: []models.AircraftConfiguration{{Code: "plus", Name: "PLUS"}},
		SerialEffectivities: []models.SerialEffectivity{
			{SerialStart: 31005, SerialEnd: 31200, ConfigurationCode: "SN"},
		},
		PartEffectivities: []models.PartEffectivity{
			{PartNumber: "3A5100-1", ConfigurationCode: "PLUS", IsApplicable: false},
			{PartNumber: "3a5100-1", ConfigurationCode: "PLUS", IsApplicable: true},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO aircraft_configurations .+ ON CONFLICT \(code\) DO UPDATE`).
		WithArgs("PLUS", "PLUS", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM serial_effectivities").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO serial_effectivities").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO part_effectivities .+ ON CONFLICT \(UPPER\(part_number\), configuration_code\)`).
		WithArgs("3a5100-1", "PLUS", true, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Import(context.Background(), dataset)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Configurations)
	assert.Equal(t, 1, result.SerialEffectivities)
	assert.Equal(t, 1, result.PartEffectivities)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImport_RollsBackOnFailure(t *testing.T) {
	repo, mock := setupRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM serial_effectivities").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO serial_effectivities").WillReturnError(errors.New("violates check constraint"))
	mock.ExpectRollback()

	_, err := repo.Import(context.Background(), &models.CuratedDataset{
		SerialEffectivities: []models.SerialEffectivity{{SerialStart: 5, SerialEnd: 6, ConfigurationCode: "SN"}},
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
