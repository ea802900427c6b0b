package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	vehicleDomain "github.com/davicafu/vehiclecatalog/internal/vehicle/domain"
)

const firstCarYear = 1886

var validate = validator.New()

// RegisterVehicleCommand son los datos de alta de un vehículo.
type RegisterVehicleCommand struct {
	CarName       string          `json:"carName" validate:"required,max=100"`
	Brand         string          `json:"brand" validate:"required,max=50"`
	Model         string          `json:"model" validate:"required,max=50"`
	Year          int             `json:"year"`
	Color         string          `json:"color" validate:"required,max=30"`
	FuelType      string          `json:"fuelType" validate:"required,max=30"`
	NumberOfDoors int             `json:"numberOfDoors" validate:"min=2,max=6"`
	Mileage       decimal.Decimal `json:"mileage"`
	Price         decimal.Decimal `json:"price"`
}

// fieldMessages traduce cada regla de validator a su mensaje de negocio.
var fieldMessages = map[string]map[string]string{
	"CarName": {
		"required": "Car name is required.",
		"max":      "Car name cannot exceed 100 characters.",
	},
	"Brand": {
		"required": "Brand is required.",
		"max":      "Brand cannot exceed 50 characters.",
	},
	"Model": {
		"required": "Model is required.",
		"max":      "Model cannot exceed 50 characters.",
	},
	"Color": {
		"required": "Color is required.",
		"max":      "Color cannot exceed 30 characters.",
	},
	"FuelType": {
		"required": "Fuel type is required.",
		"max":      "Fuel type cannot exceed 30 characters.",
	},
	"NumberOfDoors": {
		"min": "Number of doors must be between 2 and 6.",
		"max": "Number of doors must be between 2 and 6.",
	},
}

// Validate devuelve un mensaje por cada regla incumplida, en orden de campo.
func (c RegisterVehicleCommand) Validate() []string {
	var msgs []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []string{err.Error()}
		}
		for _, fe := range verrs {
			if msg, ok := fieldMessages[fe.StructField()][fe.Tag()]; ok {
				msgs = append(msgs, msg)
				continue
			}
			msgs = append(msgs, fmt.Sprintf("%s is invalid.", fe.StructField()))
		}
	}

	// Reglas que dependen del reloj o de decimal.Decimal quedan fuera de los tags.
	currentYear := time.Now().Year()
	if c.Year < firstCarYear || c.Year > currentYear {
		msgs = append(msgs, fmt.Sprintf("Year must be between %d and %d.", firstCarYear, currentYear))
	}
	if c.Mileage.IsNegative() {
		msgs = append(msgs, "Mileage must be greater than or equal to 0.")
	}
	if c.Price.IsNegative() {
		msgs = append(msgs, "Price must be greater than or equal to 0.")
	}

	return msgs
}

func (c RegisterVehicleCommand) toAttributes() vehicleDomain.VehicleAttributes {
	return vehicleDomain.VehicleAttributes{
		CarName:       c.CarName,
		Brand:         c.Brand,
		Model:         c.Model,
		Year:          c.Year,
		Color:         c.Color,
		FuelType:      c.FuelType,
		NumberOfDoors: c.NumberOfDoors,
		Mileage:       c.Mileage,
		Price:         c.Price,
	}
}

// ListVehiclesQuery filtra opcionalmente por estado de venta.
type ListVehiclesQuery struct {
	Status *vehicleDomain.SaleStatus
}

type ReserveVehicleCommand struct {
	VehicleID        uuid.UUID `json:"vehicleId"`
	CustomerDocument string    `json:"customerDocument"`
}

type SellVehicleCommand struct {
	VehicleID uuid.UUID `json:"vehicleId"`
}

type ReleaseVehicleCommand struct {
	VehicleID uuid.UUID `json:"vehicleId"`
}

// VehicleView es la proyección de lectura que devuelve ListVehicles.
type VehicleView struct {
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
	SaleStatus    string          `json:"saleStatus"`
	IsReserved    bool            `json:"isReserved"`
}

func toVehicleView(v *vehicleDomain.Vehicle) VehicleView {
	return VehicleView{
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
		SaleStatus:    string(v.Status()),
		IsReserved:    v.IsReserved(),
	}
}
