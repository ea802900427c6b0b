package cache

import (
	"context"
)

// Cache define la interfaz para una caché de clave-valor genérica.
//
// No hay TTL: una entrada vive hasta que se sobrescribe, se borra o se vacía
// la caché entera. La invalidación es siempre manual.
type Cache interface {
	// Get intenta poblar 'dest' (que debe ser un puntero) con el valor asociado a la 'key'.
	// Devuelve (true, nil) si hay un 'hit' y 'dest' fue rellenado.
	// Devuelve (false, nil) si es un 'miss'.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set serializa y guarda (o sobrescribe) el valor.
	Set(ctx context.Context, key string, val interface{}) error

	// Values devuelve los valores serializados de todas las keys con el prefijo dado.
	Values(ctx context.Context, prefix string) ([][]byte, error)

	// Delete elimina la 'key' de la caché.
	Delete(ctx context.Context, key string) error

	// Flush vacía la caché completa.
	Flush(ctx context.Context) error
}
