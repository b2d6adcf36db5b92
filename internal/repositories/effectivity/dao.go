package effectivity

import (
	"database/sql"
	"time"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/database"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"
)

const (
	revisionsTable = "effectivity_revisions"
	codesTable     = "effectivity_codes"
	rangesTable    = "serial_ranges"

	batchSize = 500
)

// RevisionRow represents the database row for a revision
type RevisionRow struct {
	ID             sql.NullInt64  `db:"id"`
	Revision       sql.NullString `db:"revision"`
	SourceDocument sql.NullString `db:"source_document"`
	CodeCount      sql.NullInt64  `db:"code_count"`
	RangeCount     sql.NullInt64  `db:"range_count"`
	WarningCount   sql.NullInt64  `db:"warning_count"`
	IsCurrent      sql.NullBool   `db:"is_current"`
	CreatedAt      sql.NullTime   `db:"created_at"`
	ActivatedAt    sql.NullTime   `db:"activated_at"`
}

// CodeRow represents the database row for an effectivity code
type CodeRow struct {
	RevisionID            sql.NullInt64  `db:"revision_id"`
	Code                  sql.NullString `db:"code"`
	Description           sql.NullString `db:"description"`
	IsDeleted             sql.NullBool   `db:"is_deleted"`
	IsConditional         sql.NullBool   `db:"is_conditional"`
	ConditionalPartNumber sql.NullString `db:"conditional_part_number"`
}

// RangeRow represents the database row for a compiled serial range
type RangeRow struct {
	RevisionID  sql.NullInt64  `db:"revision_id"`
	Code        sql.NullString `db:"code"`
	SerialStart sql.NullInt64  `db:"serial_start"`
	SerialEnd   sql.NullInt64  `db:"serial_end"`
}

var (
	revisionStruct = database.NewStruct(new(RevisionRow))
	codeStruct     = database.NewStruct(new(CodeRow))
	rangeStruct    = database.NewStruct(new(RangeRow))
)

var (
	codeColumns  = []string{"revision_id", "code", "description", "is_deleted", "is_conditional", "conditional_part_number"}
	rangeColumns = []string{"revision_id", "code", "serial_start", "serial_end"}
)

// ToRevision converts a database row to a domain model
func ToRevision(row *RevisionRow) *models.Revision {
	rev := &models.Revision{
		ID:             row.ID.Int64,
		Revision:       row.Revision.String,
		SourceDocument: row.SourceDocument.String,
		CodeCount:      int(row.CodeCount.Int64),
		RangeCount:     int(row.RangeCount.Int64),
		WarningCount:   int(row.WarningCount.Int64),
		IsCurrent:      row.IsCurrent.Bool,
		CreatedAt:      row.CreatedAt.Time,
	}
	if row.ActivatedAt.Valid {
		activated := row.ActivatedAt.Time
		rev.ActivatedAt = &activated
	}
	return rev
}

// ToRevisions converts a slice of database rows to domain models
func ToRevisions(rows []RevisionRow) []*models.Revision {
	revisions := make([]*models.Revision, len(rows))
	for i, row := range rows {
		revisions[i] = ToRevision(&row)
	}
	return revisions
}

// ToCode converts a database row to a domain model
func ToCode(row *CodeRow) models.EffectivityCode {
	return models.EffectivityCode{
		RevisionID:            row.RevisionID.Int64,
		Code:                  row.Code.String,
		Description:           row.Description.String,
		IsDeleted:             row.IsDeleted.Bool,
		IsConditional:         row.IsConditional.Bool,
		ConditionalPartNumber: row.ConditionalPartNumber.String,
	}
}

// ToCodes converts a slice of database rows to domain models
func ToCodes(rows []CodeRow) []models.EffectivityCode {
	codes := make([]models.EffectivityCode, len(rows))
	for i, row := range rows {
		codes[i] = ToCode(&row)
	}
	return codes
}

// ToRanges converts a slice of database rows to domain models
func ToRanges(rows []RangeRow) []models.SerialRange {
	ranges := make([]models.SerialRange, len(rows))
	for i, row := range rows {
		ranges[i] = models.SerialRange{
			RevisionID:  row.RevisionID.Int64,
			Code:        row.Code.String,
			SerialStart: int(row.SerialStart.Int64),
			SerialEnd:   int(row.SerialEnd.Int64),
		}
	}
	return ranges
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}
