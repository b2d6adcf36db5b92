package curated

import (
	"database/sql"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/database"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"
)

const (
	configurationsTable      = "aircraft_configurations"
	serialEffectivitiesTable = "serial_effectivities"
	partEffectivitiesTable   = "part_effectivities"
)

// ConfigurationRow represents the database row for an aircraft configuration
type ConfigurationRow struct {
	Code        sql.NullString `db:"code"`
	Name        sql.NullString `db:"name"`
	Description sql.NullString `db:"description"`
}

// SerialEffectivityRow represents the database row for a curated serial interval
type SerialEffectivityRow struct {
	ID                sql.NullInt64  `db:"id"`
	SerialStart       sql.NullInt64  `db:"serial_start"`
	SerialEnd         sql.NullInt64  `db:"serial_end"`
	ConfigurationCode sql.NullString `db:"configuration_code"`
	EffectivityCode   sql.NullString `db:"effectivity_code"`
	SourceDocument    sql.NullString `db:"source_document"`
	SourceRevision    sql.NullString `db:"source_revision"`
	Notes             sql.NullString `db:"notes"`
}

// PartEffectivityRow represents the database row for a curated part applicability
type PartEffectivityRow struct {
	PartNumber        sql.NullString `db:"part_number"`
	ConfigurationCode sql.NullString `db:"configuration_code"`
	IsApplicable      sql.NullBool   `db:"is_applicable"`
	Notes             sql.NullString `db:"notes"`
}

var (
	configurationStruct     = database.NewStruct(new(ConfigurationRow))
	serialEffectivityStruct = database.NewStruct(new(SerialEffectivityRow))
	partEffectivityStruct   = database.NewStruct(new(PartEffectivityRow))
)

// ToConfigurations converts database rows to domain models
func ToConfigurations(rows []ConfigurationRow) []models.AircraftConfiguration {
	configs := make([]models.AircraftConfiguration, len(rows))
	for i, row := range rows {
		configs[i] = models.AircraftConfiguration{
			Code:        row.Code.String,
			Name:        row.Name.String,
			Description: row.Description.String,
		}
	}
	return configs
}

// ToSerialEffectivities converts database rows to domain models
func ToSerialEffectivities(rows []SerialEffectivityRow) []models.SerialEffectivity {
	out := make([]models.SerialEffectivity, len(rows))
	for i, row := range rows {
		out[i] = models.SerialEffectivity{
			ID:                row.ID.Int64,
			SerialStart:       int(row.SerialStart.Int64),
			SerialEnd:         int(row.SerialEnd.Int64),
			ConfigurationCode: row.ConfigurationCode.String,
			EffectivityCode:   row.EffectivityCode.String,
			SourceDocument:    row.SourceDocument.String,
			SourceRevision:    row.SourceRevision.String,
			Notes:             row.Notes.String,
		}
	}
	return out
}

// ToPartEffectivities converts database rows to domain models
func ToPartEffectivities(rows []PartEffectivityRow) []models.PartEffectivity {
	out := make([]models.PartEffectivity, len(rows))
	for i, row := range rows {
		out[i] = models.PartEffectivity{
			PartNumber:        row.PartNumber.String,
			ConfigurationCode: row.ConfigurationCode.String,
			IsApplicable:      row.IsApplicable.Bool,
			Notes:             row.Notes.String,
		}
	}
	return out
}
