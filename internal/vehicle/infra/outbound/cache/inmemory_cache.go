package cache

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	// Importamos la interfaz de caché compartida para asegurar la compatibilidad.
	sharedCache "github.com/davicafu/vehiclecatalog/internal/shared/infra/platform/cache"
)

// InMemoryCache implementa la interfaz de caché usando un mapa en memoria.
// Se usa cuando Redis no está disponible.
type InMemoryCache struct {
	store map[string][]byte // Guardamos los bytes para simular la serialización, igual que Redis.
	mu    sync.RWMutex
}

// Verificación estática: asegura en tiempo de compilación que InMemoryCache implementa la interfaz compartida.
var _ sharedCache.Cache = (*InMemoryCache)(nil)

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{store: make(map[string][]byte)}
}

func (c *InMemoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, ok := c.store[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *InMemoryCache) Set(ctx context.Context, key string, val interface{}) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = data
	return nil
}

// Values devuelve los valores ordenados por key, para que el resultado sea estable.
func (c *InMemoryCache) Values(ctx context.Context, prefix string) ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.store))
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	values := make([][]byte, 0, len(keys))
	for _, k := range keys {
		values = append(values, append([]byte(nil), c.store[k]...))
	}
	return values, nil
}

func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func (c *InMemoryCache) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string][]byte)
	return nil
}

// Len devuelve el número de entradas; útil en tests y métricas.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}
