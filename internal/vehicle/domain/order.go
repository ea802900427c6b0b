package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest es una foto del vehículo en el momento de reservarlo.
// No cambia aunque el vehículo mute después.
type CreateOrderRequest struct {
	OrderID          uuid.UUID       `json:"orderId"`
	VehicleID        uuid.UUID       `json:"vehicleId"`
	CustomerDocument string          `json:"customerDocument"`
	CarName          string          `json:"carName"`
	Price            decimal.Decimal `json:"price"`
	OrderedAt        time.Time       `json:"orderedAt"`
}

// NewCreateOrderRequest captura OrderedAt ahora, no al publicar.
func NewCreateOrderRequest(orderID uuid.UUID, v *Vehicle, customerDocument string) CreateOrderRequest {
	return CreateOrderRequest{
		OrderID:          orderID,
		VehicleID:        v.VehicleID,
		CustomerDocument: customerDocument,
		CarName:          v.CarName,
		Price:            v.Price,
		OrderedAt:        time.Now().UTC(),
	}
}

func (o CreateOrderRequest) PartitionKey() string {
	return o.OrderID.String()
}

// VehicleTransition es una fila del histórico de transiciones.
type VehicleTransition struct {
	VehicleID  uuid.UUID
	From       SaleStatus
	To         SaleStatus
	Price      decimal.Decimal
	OccurredAt time.Time
}
