package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpsert(t *testing.T) {
	ib := Insert("part_effectivities", "part_number", "configuration_code", "is_applicable")
	ib.Values("3G6220V00131", "SN", true)

	sql, args := Upsert(ib, []string{"UPPER(part_number)", "configuration_code"}, "is_applicable").Build()
	assert.Contains(t, sql, "INSERT INTO part_effectivities (part_number, configuration_code, is_applicable) VALUES ($1, $2, $3)")
	assert.Contains(t, sql, "ON CONFLICT (UPPER(part_number), configuration_code) DO UPDATE SET is_applicable = EXCLUDED.is_applicable")
	assert.Equal(t, []any{"3G6220V00131", "SN", true}, args)
}
