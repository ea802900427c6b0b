package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL

	vehicleDomain "github.com/davicafu/vehiclecatalog/internal/vehicle/domain"
)

const vehicleColumns = `id, vehicle_id, car_name, brand, model, year, color, fuel_type,
	number_of_doors, mileage, price, sale_date, status, is_reserved, version`

// VehicleRepoPostgres implementa VehicleStore para PostgreSQL.
type VehicleRepoPostgres struct {
	db *sql.DB
}

var _ vehicleDomain.VehicleStore = (*VehicleRepoPostgres)(nil)

// NewVehicleRepoPostgres es el constructor del repositorio.
func NewVehicleRepoPostgres(db *sql.DB) *VehicleRepoPostgres {
	return &VehicleRepoPostgres{db: db}
}

// ------------------ Lectura ------------------

// GetByVehicleID recupera un vehículo por su identificador público.
func (r *VehicleRepoPostgres) GetByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*vehicleDomain.Vehicle, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE vehicle_id=$1`, vehicleID)

	v, err := scanVehicle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vehicleDomain.ErrVehicleNotFound
		}
		return nil, fmt.Errorf("db scan error: %w", err)
	}
	return v, nil
}

// GetAll devuelve el catálogo completo.
func (r *VehicleRepoPostgres) GetAll(ctx context.Context) ([]*vehicleDomain.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db query error: %w", err)
	}
	defer rows.Close()

	vehicles := []*vehicleDomain.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("db scan error: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// ------------------ Escritura ------------------

// Insert deja que la secuencia asigne el ID y lo recupera con RETURNING.
func (r *VehicleRepoPostgres) Insert(ctx context.Context, v *vehicleDomain.Vehicle) (int64, error) {
	s := v.Snapshot()

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO vehicles (vehicle_id, car_name, brand, model, year, color, fuel_type,
			number_of_doors, mileage, price, sale_date, status, is_reserved, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		s.VehicleID, s.CarName, s.Brand, s.Model, s.Year, s.Color, s.FuelType,
		s.NumberOfDoors, s.Mileage, s.Price, s.SaleDate, string(s.Status), s.IsReserved, s.Version,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", vehicleDomain.ErrVehicleAlreadyExists, s.VehicleID)
		}
		return 0, fmt.Errorf("db insert error: %w", err)
	}

	v.ID = id
	return id, nil
}

// Update aplica la escritura solo si la versión no ha cambiado desde la lectura.
func (r *VehicleRepoPostgres) Update(ctx context.Context, v *vehicleDomain.Vehicle) (bool, error) {
	s := v.Snapshot()

	res, err := r.db.ExecContext(ctx,
		`UPDATE vehicles
		 SET car_name=$1, brand=$2, model=$3, year=$4, color=$5, fuel_type=$6, number_of_doors=$7,
		     mileage=$8, price=$9, sale_date=$10, status=$11, is_reserved=$12, version=version+1
		 WHERE id=$13 AND version=$14`,
		s.CarName, s.Brand, s.Model, s.Year, s.Color, s.FuelType, s.NumberOfDoors,
		s.Mileage, s.Price, s.SaleDate, string(s.Status), s.IsReserved,
		s.ID, s.Version,
	)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	if rows == 0 {
		return false, nil
	}
	v.Version++
	return true, nil
}

// ------------------ Mapeo ------------------

type scanner interface {
	Scan(dest ...any) error
}

func scanVehicle(sc scanner) (*vehicleDomain.Vehicle, error) {
	var (
		s        vehicleDomain.VehicleSnapshot
		status   string
		saleDate sql.NullTime
	)
	if err := sc.Scan(&s.ID, &s.VehicleID, &s.CarName, &s.Brand, &s.Model, &s.Year, &s.Color, &s.FuelType,
		&s.NumberOfDoors, &s.Mileage, &s.Price, &saleDate, &status, &s.IsReserved, &s.Version); err != nil {
		return nil, err
	}
	if saleDate.Valid {
		s.SaleDate = &saleDate.Time
	}
	s.Status = vehicleDomain.SaleStatus(status)

	return vehicleDomain.RestoreVehicle(s)
}

// ------------------ Inicialización de DB ------------------

// InitPostgres crea la tabla vehicles si no existe.
func InitPostgres(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS vehicles (
			id BIGSERIAL PRIMARY KEY,
			vehicle_id UUID UNIQUE NOT NULL,
			car_name VARCHAR(100) NOT NULL,
			brand VARCHAR(50) NOT NULL,
			model VARCHAR(50) NOT NULL,
			year INT NOT NULL,
			color VARCHAR(30) NOT NULL,
			fuel_type VARCHAR(30) NOT NULL,
			number_of_doors INT NOT NULL,
			mileage NUMERIC(12,2) NOT NULL,
			price NUMERIC(14,2) NOT NULL,
			sale_date TIMESTAMPTZ NULL,
			status VARCHAR(20) NOT NULL,
			is_reserved BOOLEAN NOT NULL DEFAULT FALSE,
			version BIGINT NOT NULL DEFAULT 1
		)
	`)
	return err
}
