package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	sharedCache "github.com/davicafu/vehiclecatalog/internal/shared/infra/platform/cache"
)

// MockCache sirve para forzar errores de caché; para el camino feliz usa
// cache.NewInMemoryCache.
type MockCache struct {
	mock.Mock
}

var _ sharedCache.Cache = (*MockCache)(nil)

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, val interface{}) error {
	args := m.Called(ctx, key, val)
	return args.Error(0)
}

func (m *MockCache) Values(ctx context.Context, prefix string) ([][]byte, error) {
	args := m.Called(ctx, prefix)
	vals, _ := args.Get(0).([][]byte)
	return vals, args.Error(1)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
