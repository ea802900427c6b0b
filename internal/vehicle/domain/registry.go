package domain

// Topics por defecto. El nombre real se puede cambiar por configuración.
const (
	// Salida: pedido creado al reservar.
	TopicCarReserved = "car-reserved"
	// Entrada: el pedido se cerró, el vehículo pasa a vendido.
	TopicOrderFinalized = "order-finalized"
	// Entrada: el pedido se canceló, el vehículo vuelve a estar disponible.
	TopicOrderCanceled = "order-canceled"
)
