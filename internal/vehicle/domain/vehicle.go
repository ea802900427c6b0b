package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	StatusAvailable SaleStatus = "Available"
	StatusReserved  SaleStatus = "Reserved"
	StatusSold      SaleStatus = "Sold"
)

// ParseSaleStatus acepta el nombre del estado sin distinguir mayúsculas.
func ParseSaleStatus(s string) (SaleStatus, error) {
	for _, st := range []SaleStatus{StatusAvailable, StatusReserved, StatusSold} {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown sale status %q", ErrInvalidVehicle, s)
}

// Vehicle representa un vehículo del catálogo.
//
// Los atributos descriptivos son hechos de negocio inmutables. El estado de venta
// (status, isReserved, saleDate) solo cambia a través de TransitionTo, que es quien
// conoce la tabla de transiciones legales.
type Vehicle struct {
	ID            int64
	VehicleID     uuid.UUID
	CarName       string
	Brand         string
	Model         string
	Year          int
	Color         string
	FuelType      string
	NumberOfDoors int
	Mileage       decimal.Decimal
	Price         decimal.Decimal

	// Version la gestiona el store: cada Update exitoso la incrementa.
	Version int64

	status     SaleStatus
	isReserved bool
	saleDate   *time.Time
}

// VehicleAttributes agrupa los datos con los que se registra un vehículo.
type VehicleAttributes struct {
	CarName       string
	Brand         string
	Model         string
	Year          int
	Color         string
	FuelType      string
	NumberOfDoors int
	Mileage       decimal.Decimal
	Price         decimal.Decimal
}

// NewVehicle crea un vehículo disponible, todavía sin ID de persistencia.
func NewVehicle(attrs VehicleAttributes) *Vehicle {
	return &Vehicle{
		VehicleID:     uuid.New(),
		CarName:       attrs.CarName,
		Brand:         attrs.Brand,
		Model:         attrs.Model,
		Year:          attrs.Year,
		Color:         attrs.Color,
		FuelType:      attrs.FuelType,
		NumberOfDoors: attrs.NumberOfDoors,
		Mileage:       attrs.Mileage,
		Price:         attrs.Price,
		Version:       1,
		status:        StatusAvailable,
	}
}

func (v *Vehicle) Status() SaleStatus { return v.status }

func (v *Vehicle) IsReserved() bool { return v.isReserved }

// SaleDate devuelve nil salvo tras una venta.
func (v *Vehicle) SaleDate() *time.Time {
	if v.saleDate == nil {
		return nil
	}
	d := *v.saleDate
	return &d
}

// transitions es la única tabla de aristas legales del ciclo de venta.
var transitions = map[SaleStatus][]SaleStatus{
	StatusAvailable: {StatusReserved},
	StatusReserved:  {StatusSold, StatusAvailable},
}

// CanTransitionTo indica si la arista status -> target existe en la tabla.
func (v *Vehicle) CanTransitionTo(target SaleStatus) bool {
	for _, next := range transitions[v.status] {
		if next == target {
			return true
		}
	}
	return false
}

// TransitionTo aplica la transición al estado target.
// Devuelve ErrAlreadyInStatus si el vehículo ya está en target y
// ErrTransitionNotAllowed para cualquier otra arista fuera de la tabla.
func (v *Vehicle) TransitionTo(target SaleStatus) error {
	if v.status == target {
		return fmt.Errorf("%w: %s", ErrAlreadyInStatus, target)
	}
	if !v.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, v.status, target)
	}

	switch target {
	case StatusReserved:
		v.reserve()
	case StatusSold:
		v.sell()
	case StatusAvailable:
		v.release()
	}
	return nil
}

// --- Mutadores incondicionales, sin comprobar el estado previo ---

func (v *Vehicle) reserve() {
	v.status = StatusReserved
	v.isReserved = true
}

func (v *Vehicle) sell() {
	// Precisión de microsegundos: es la que conservan postgres y el JSON de caché.
	now := time.Now().UTC().Truncate(time.Microsecond)
	v.status = StatusSold
	v.isReserved = false
	v.saleDate = &now
}

func (v *Vehicle) release() {
	v.status = StatusAvailable
	v.isReserved = false
	v.saleDate = nil
}

// ---------- Snapshot: forma plana para caché y stores ----------

// VehicleSnapshot es la representación serializable de un Vehicle.
type VehicleSnapshot struct {
	ID            int64           `json:"id"`
	VehicleID     uuid.UUID       `json:"vehicleId"`
	CarName       string          `json:"carName"`
	Brand         string          `json:"brand"`
	Model         string          `json:"model"`
	Year          int             `json:"year"`
	Color         string          `json:"color"`
	FuelType      string          `json:"fuelType"`
	NumberOfDoors int             `json:"numberOfDoors"`
	Mileage       decimal.Decimal `json:"mileage"`
	Price         decimal.Decimal `json:"price"`
	SaleDate      *time.Time      `json:"saleDate,omitempty"`
	Status        SaleStatus      `json:"status"`
	IsReserved    bool            `json:"isReserved"`
	Version       int64           `json:"version"`
}

func (v *Vehicle) Snapshot() VehicleSnapshot {
	return VehicleSnapshot{
		ID:            v.ID,
		VehicleID:     v.VehicleID,
		CarName:       v.CarName,
		Brand:         v.Brand,
		Model:         v.Model,
		Year:          v.Year,
		Color:         v.Color,
		FuelType:      v.FuelType,
		NumberOfDoors: v.NumberOfDoors,
		Mileage:       v.Mileage,
		Price:         v.Price,
		SaleDate:      v.SaleDate(),
		Status:        v.status,
		IsReserved:    v.isReserved,
		Version:       v.Version,
	}
}

// RestoreVehicle reconstruye la entidad desde caché o store.
// Un snapshot que rompe IsReserved == (Status == Reserved) se rechaza.
func RestoreVehicle(s VehicleSnapshot) (*Vehicle, error) {
	status, err := ParseSaleStatus(string(s.Status))
	if err != nil {
		return nil, err
	}
	if s.IsReserved != (status == StatusReserved) {
		return nil, fmt.Errorf("%w: vehicle %s has status %s and isReserved=%t",
			ErrInvalidVehicle, s.VehicleID, status, s.IsReserved)
	}

	v := &Vehicle{
		ID:            s.ID,
		VehicleID:     s.VehicleID,
		CarName:       s.CarName,
		Brand:         s.Brand,
		Model:         s.Model,
		Year:          s.Year,
		Color:         s.Color,
		FuelType:      s.FuelType,
		NumberOfDoors: s.NumberOfDoors,
		Mileage:       s.Mileage,
		Price:         s.Price,
		Version:       s.Version,
		status:        status,
		isReserved:    s.IsReserved,
	}
	if s.SaleDate != nil {
		d := s.SaleDate.UTC()
		v.saleDate = &d
	}
	return v, nil
}

func (v *Vehicle) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Snapshot())
}

func (v *Vehicle) UnmarshalJSON(data []byte) error {
	var s VehicleSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	restored, err := RestoreVehicle(s)
	if err != nil {
		return err
	}
	*v = *restored
	return nil
}
