package database

import (
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
)

// Flavor is the dialect every builder targets.
var Flavor = sqlbuilder.PostgreSQL

// NewStruct maps a tagged row type for SELECTs in Flavor.
func NewStruct(row any) *sqlbuilder.Struct {
	return sqlbuilder.NewStruct(row).For(Flavor)
}

func Insert(table string, cols ...string) *sqlbuilder.InsertBuilder {
	ib := Flavor.NewInsertBuilder()
	ib.InsertInto(table).Cols(cols...)
	return ib
}

func Update(table string) *sqlbuilder.UpdateBuilder {
	ub := Flavor.NewUpdateBuilder()
	ub.Update(table)
	return ub
}

func DeleteFrom(table string) *sqlbuilder.DeleteBuilder {
	db := Flavor.NewDeleteBuilder()
	db.DeleteFrom(table)
	return db
}

func Select(cols ...string) *sqlbuilder.SelectBuilder {
	sb := Flavor.NewSelectBuilder()
	sb.Select(cols...)
	return sb
}

// Upsert turns ib into INSERT ... ON CONFLICT (target) DO UPDATE, overwriting cols with
// the incoming row. target may hold expressions matching an expression index.
func Upsert(ib *sqlbuilder.InsertBuilder, target []string, cols ...string) *sqlbuilder.InsertBuilder {
	assignments := make([]string, len(cols))
	for i, col := range cols {
		assignments[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
	}
	ib.SQL(fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(target, ", "), strings.Join(assignments, ", ")))
	return ib
}

// Chunk splits items into consecutive batches of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var batches [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}
