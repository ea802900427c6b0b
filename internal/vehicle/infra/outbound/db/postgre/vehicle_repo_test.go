package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vehicleDomain "github.com/davicafu/vehiclecatalog/internal/vehicle/domain"
)

// setupPostgresTestDB se conecta a Postgres, crea el esquema y limpia la tabla.
func setupPostgresTestDB(t *testing.T) *VehicleRepoPostgres {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		t.Skip("DATABASE_URL no está configurada, saltando test de integración con Postgres")
	}

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, InitPostgres(context.Background(), db))

	// Aislar cada test
	_, err = db.Exec(`TRUNCATE TABLE vehicles RESTART IDENTITY`)
	require.NoError(t, err)

	return NewVehicleRepoPostgres(db)
}

func newVehicle(name string) *vehicleDomain.Vehicle {
	return vehicleDomain.NewVehicle(vehicleDomain.VehicleAttributes{
		CarName:       name,
		Brand:         "Chevrolet",
		Model:         "Onix",
		Year:          2021,
		Color:         "Preto",
		FuelType:      "Flex",
		NumberOfDoors: 4,
		Mileage:       decimal.NewFromInt(12000),
		Price:         decimal.RequireFromString("79900.00"),
	})
}

func TestVehicleRepoPostgres_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := setupPostgresTestDB(t)

	v := newVehicle("Onix LT")
	id, err := repo.Insert(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = repo.Insert(ctx, v)
	assert.ErrorIs(t, err, vehicleDomain.ErrVehicleAlreadyExists)

	stale, err := repo.GetByVehicleID(ctx, v.VehicleID)
	require.NoError(t, err)

	require.NoError(t, v.TransitionTo(vehicleDomain.StatusReserved))
	ok, err := repo.Update(ctx, v)
	require.NoError(t, err)
	assert.True(t, ok)

	// Una copia leída antes de la reserva ya no puede escribir.
	require.NoError(t, stale.TransitionTo(vehicleDomain.StatusReserved))
	ok, err = repo.Update(ctx, stale)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, v.TransitionTo(vehicleDomain.StatusSold))
	ok, err = repo.Update(ctx, v)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByVehicleID(ctx, v.VehicleID)
	require.NoError(t, err)
	assert.Equal(t, vehicleDomain.StatusSold, got.Status())
	assert.True(t, v.Price.Equal(got.Price))
	require.NotNil(t, got.SaleDate())
	assert.True(t, v.SaleDate().Equal(*got.SaleDate()))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestVehicleRepoPostgres_NotFound(t *testing.T) {
	repo := setupPostgresTestDB(t)

	_, err := repo.GetByVehicleID(context.Background(), newVehicle("x").VehicleID)
	assert.ErrorIs(t, err, vehicleDomain.ErrVehicleNotFound)
}
