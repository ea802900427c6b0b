package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ---------- Errores de dominio ----------
var (
	ErrVehicleNotFound      = errors.New("vehicle not found")
	ErrVehicleAlreadyExists = errors.New("vehicle already exists")
	ErrInvalidVehicle       = errors.New("invalid vehicle")
	ErrAlreadyInStatus      = errors.New("vehicle already in target status")
	ErrTransitionNotAllowed = errors.New("vehicle status transition not allowed")
	ErrOrderNotPublished    = errors.New("order creation was not published")
)

// ---------- Interfaces (Ports) ----------

// VehicleRepository es el contrato que usa la aplicación.
// La implementación cache-aside compone un VehicleStore y una caché.
type VehicleRepository interface {
	// Debe devolver ErrVehicleNotFound si no existe.
	GetByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*Vehicle, error)

	GetAll(ctx context.Context) ([]*Vehicle, error)

	// Insert devuelve el ID asignado por el store y lo fija en v.ID.
	Insert(ctx context.Context, v *Vehicle) (int64, error)

	// Update devuelve false si el store no aplicó la escritura.
	Update(ctx context.Context, v *Vehicle) (bool, error)
}

// VehicleStore es el almacenamiento durable, la única fuente de verdad.
type VehicleStore interface {
	// Debe devolver ErrVehicleNotFound si no existe.
	GetByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*Vehicle, error)

	GetAll(ctx context.Context) ([]*Vehicle, error)

	// Insert asigna el ID sustituto. Debe devolver ErrVehicleAlreadyExists si el
	// VehicleID ya está registrado.
	Insert(ctx context.Context, v *Vehicle) (int64, error)

	// Update escribe por ID solo si la fila sigue en v.Version (compare-and-swap).
	// Devuelve (false, nil) si la fila no existe o la versión cambió; si escribe,
	// incrementa v.Version.
	Update(ctx context.Context, v *Vehicle) (bool, error)
}

// OrderPublisher notifica al sistema de pedidos que se ha reservado un vehículo.
type OrderPublisher interface {
	CreateOrder(ctx context.Context, order CreateOrderRequest) error
}

// TransitionRecorder guarda el histórico de transiciones (analítica, best effort).
type TransitionRecorder interface {
	Record(ctx context.Context, t VehicleTransition) error
}

// ---------- Helpers comunes (cache keys, etc.) ----------

const CacheKeyPrefix = "Vehicle:"

// CacheKeyByVehicleID forma la key de caché: "Vehicle:" + VehicleID.
func CacheKeyByVehicleID(id uuid.UUID) string {
	return CacheKeyPrefix + id.String()
}
