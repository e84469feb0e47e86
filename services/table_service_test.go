package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/periodic-tables/apperror"
	"github.com/yeremiapane/periodic-tables/repository"
	"github.com/yeremiapane/periodic-tables/validation"
)

func TestCreateTable(t *testing.T) {
	f := newFixture(t, repository.NewMemoryStore())
	ctx := context.Background()

	table, err := f.tables.Create(ctx, tableFields("Patio", 4))
	require.NoError(t, err)
	assert.NotZero(t, table.ID)
	assert.False(t, table.Occupied())

	withNull := tableFields("Bar #1", 1)
	withNull["reservation_id"] = nil
	_, err = f.tables.Create(ctx, withNull)
	require.NoError(t, err)

	tables, err := f.tables.List(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "Bar #1", tables[0].TableName)
	assert.Equal(t, "Patio", tables[1].TableName)
}

func TestCreateTableRejections(t *testing.T) {
	f := newFixture(t, repository.NewMemoryStore())
	ctx := context.Background()

	occupied := tableFields("T1", 4)
	occupied["reservation_id"] = float64(3)
	_, err := f.tables.Create(ctx, occupied)
	assert.Equal(t, apperror.KindRule, apperror.KindOf(err))
	assert.Equal(t, apperror.CodeOccupancyGuard, apperror.CodeOf(err))

	_, err = f.tables.Create(ctx, validation.Fields{"table_name": "T", "capacity": float64(4)})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = f.tables.Create(ctx, validation.Fields{"table_name": "T1", "capacity": float64(0)})
	assert.Equal(t, apperror.CodeMalformedValue, apperror.CodeOf(err))

	tables, err := f.tables.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestGetTable(t *testing.T) {
	f := newFixture(t, repository.NewMemoryStore())
	ctx := context.Background()
	created := f.table(t, "T1", 2)

	got, err := f.tables.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "T1", got.TableName)

	_, err = f.tables.Get(ctx, 12)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Equal(t, "Table 12 cannot be found.", err.Error())
}
