package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"

	vehicleDomain "github.com/davicafu/vehiclecatalog/internal/vehicle/domain"
)

const vehicleColumns = `id, vehicle_id, car_name, brand, model, year, color, fuel_type,
	number_of_doors, mileage, price, sale_date, status, is_reserved, version`

type VehicleRepoSQLite struct {
	db *sql.DB
}

var _ vehicleDomain.VehicleStore = (*VehicleRepoSQLite)(nil)

func NewVehicleRepoSQLite(db *sql.DB) *VehicleRepoSQLite {
	return &VehicleRepoSQLite{db: db}
}

// ------------------ Lectura ------------------

func (r *VehicleRepoSQLite) GetByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*vehicleDomain.Vehicle, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE vehicle_id = ?`, vehicleID.String())

	v, err := scanVehicle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vehicleDomain.ErrVehicleNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *VehicleRepoSQLite) GetAll(ctx context.Context) ([]*vehicleDomain.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles := []*vehicleDomain.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// ------------------ Escritura ------------------

func (r *VehicleRepoSQLite) Insert(ctx context.Context, v *vehicleDomain.Vehicle) (int64, error) {
	s := v.Snapshot()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO vehicles (vehicle_id, car_name, brand, model, year, color, fuel_type,
			number_of_doors, mileage, price, sale_date, status, is_reserved, version)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.VehicleID.String(), s.CarName, s.Brand, s.Model, s.Year, s.Color, s.FuelType,
		s.NumberOfDoors, s.Mileage.String(), s.Price.String(), formatSaleDate(s.SaleDate),
		string(s.Status), s.IsReserved, s.Version,
	)
	if err != nil {
		// modernc no expone códigos tipados; el mensaje de la constraint es estable.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("%w: %s", vehicleDomain.ErrVehicleAlreadyExists, s.VehicleID)
		}
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	v.ID = id
	return id, nil
}

// Update escribe el estado de venta solo si la fila sigue en v.Version.
func (r *VehicleRepoSQLite) Update(ctx context.Context, v *vehicleDomain.Vehicle) (bool, error) {
	s := v.Snapshot()
	res, err := r.db.ExecContext(ctx,
		`UPDATE vehicles
		 SET car_name=?, brand=?, model=?, year=?, color=?, fuel_type=?, number_of_doors=?,
		     mileage=?, price=?, sale_date=?, status=?, is_reserved=?, version=version+1
		 WHERE id=? AND version=?`,
		s.CarName, s.Brand, s.Model, s.Year, s.Color, s.FuelType, s.NumberOfDoors,
		s.Mileage.String(), s.Price.String(), formatSaleDate(s.SaleDate),
		string(s.Status), s.IsReserved,
		s.ID, s.Version,
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
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
		s                    vehicleDomain.VehicleSnapshot
		idStr, status        string
		mileageStr, priceStr string
		saleDate             sql.NullString
	)
	if err := sc.Scan(&s.ID, &idStr, &s.CarName, &s.Brand, &s.Model, &s.Year, &s.Color, &s.FuelType,
		&s.NumberOfDoors, &mileageStr, &priceStr, &saleDate, &status, &s.IsReserved, &s.Version); err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	s.VehicleID = parsedID

	if s.Mileage, err = decimal.NewFromString(mileageStr); err != nil {
		return nil, fmt.Errorf("invalid mileage in DB for %s: %w", parsedID, err)
	}
	if s.Price, err = decimal.NewFromString(priceStr); err != nil {
		return nil, fmt.Errorf("invalid price in DB for %s: %w", parsedID, err)
	}

	if saleDate.Valid && saleDate.String != "" {
		t, err := time.Parse(time.RFC3339Nano, saleDate.String)
		if err != nil {
			return nil, fmt.Errorf("invalid sale_date in DB for %s: %w", parsedID, err)
		}
		s.SaleDate = &t
	}
	s.Status = vehicleDomain.SaleStatus(status)

	return vehicleDomain.RestoreVehicle(s)
}

func formatSaleDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// ------------------ Inicialización de DB ------------------

// InitSQLite crea la tabla vehicles si no existe.
// Importes como TEXT para no perder precisión decimal.
func InitSQLite(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS vehicles (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            vehicle_id TEXT UNIQUE NOT NULL,
            car_name TEXT NOT NULL,
            brand TEXT NOT NULL,
            model TEXT NOT NULL,
            year INTEGER NOT NULL,
            color TEXT NOT NULL,
            fuel_type TEXT NOT NULL,
            number_of_doors INTEGER NOT NULL,
            mileage TEXT NOT NULL,
            price TEXT NOT NULL,
            sale_date TEXT,
            status TEXT NOT NULL,
            is_reserved BOOLEAN NOT NULL DEFAULT 0,
            version INTEGER NOT NULL DEFAULT 1
        )
    `)
	return err
}
