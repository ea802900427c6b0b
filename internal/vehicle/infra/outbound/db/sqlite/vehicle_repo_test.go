package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vehicleDomain "github.com/davicafu/vehiclecatalog/internal/vehicle/domain"
)

func setupDB(t *testing.T) *VehicleRepoSQLite {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Cada conexión a :memory: es una base distinta.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, InitSQLite(db))
	return NewVehicleRepoSQLite(db)
}

func newVehicle(name string) *vehicleDomain.Vehicle {
	return vehicleDomain.NewVehicle(vehicleDomain.VehicleAttributes{
		CarName:       name,
		Brand:         "Volkswagen",
		Model:         "Gol",
		Year:          2019,
		Color:         "Branco",
		FuelType:      "Flex",
		NumberOfDoors: 4,
		Mileage:       decimal.RequireFromString("42000.5"),
		Price:         decimal.RequireFromString("54990.90"),
	})
}

func TestVehicleRepoSQLite_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := setupDB(t)

	v := newVehicle("Gol 1.6")
	id, err := repo.Insert(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, id, v.ID)

	got, err := repo.GetByVehicleID(ctx, v.VehicleID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)
	assert.Equal(t, "Gol 1.6", got.CarName)
	assert.True(t, v.Price.Equal(got.Price))
	assert.True(t, v.Mileage.Equal(got.Mileage))
	assert.Equal(t, vehicleDomain.StatusAvailable, got.Status())
	assert.Nil(t, got.SaleDate())
	assert.Equal(t, int64(1), got.Version)
}

func TestVehicleRepoSQLite_DuplicateVehicleID(t *testing.T) {
	ctx := context.Background()
	repo := setupDB(t)

	v := newVehicle("Gol")
	_, err := repo.Insert(ctx, v)
	require.NoError(t, err)

	_, err = repo.Insert(ctx, v)
	assert.ErrorIs(t, err, vehicleDomain.ErrVehicleAlreadyExists)
}

func TestVehicleRepoSQLite_NotFound(t *testing.T) {
	repo := setupDB(t)

	_, err := repo.GetByVehicleID(context.Background(), newVehicle("x").VehicleID)
	assert.ErrorIs(t, err, vehicleDomain.ErrVehicleNotFound)
}

func TestVehicleRepoSQLite_UpdatePersistsSale(t *testing.T) {
	ctx := context.Background()
	repo := setupDB(t)

	v := newVehicle("Polo")
	_, err := repo.Insert(ctx, v)
	require.NoError(t, err)

	require.NoError(t, v.TransitionTo(vehicleDomain.StatusReserved))
	ok, err := repo.Update(ctx, v)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, v.TransitionTo(vehicleDomain.StatusSold))
	ok, err = repo.Update(ctx, v)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), v.Version)

	got, err := repo.GetByVehicleID(ctx, v.VehicleID)
	require.NoError(t, err)
	assert.Equal(t, vehicleDomain.StatusSold, got.Status())
	assert.False(t, got.IsReserved())
	require.NotNil(t, got.SaleDate())
	assert.True(t, v.SaleDate().Equal(*got.SaleDate()))
	assert.Equal(t, int64(3), got.Version)
}

func TestVehicleRepoSQLite_UpdateRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := setupDB(t)

	v := newVehicle("Virtus")
	_, err := repo.Insert(ctx, v)
	require.NoError(t, err)

	// Dos lectores con la misma versión.
	first, err := repo.GetByVehicleID(ctx, v.VehicleID)
	require.NoError(t, err)
	second, err := repo.GetByVehicleID(ctx, v.VehicleID)
	require.NoError(t, err)

	require.NoError(t, first.TransitionTo(vehicleDomain.StatusReserved))
	ok, err := repo.Update(ctx, first)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, second.TransitionTo(vehicleDomain.StatusReserved))
	ok, err = repo.Update(ctx, second)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), second.Version)
}

func TestVehicleRepoSQLite_UpdateMissingRow(t *testing.T) {
	repo := setupDB(t)

	v := newVehicle("Fantasma")
	v.ID = 42
	ok, err := repo.Update(context.Background(), v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVehicleRepoSQLite_GetAll(t *testing.T) {
	ctx := context.Background()
	repo := setupDB(t)

	empty, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, name := range []string{"A", "B", "C"} {
		_, err := repo.Insert(ctx, newVehicle(name))
		require.NoError(t, err)
	}

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "A", all[0].CarName)
	assert.Equal(t, "C", all[2].CarName)
}
