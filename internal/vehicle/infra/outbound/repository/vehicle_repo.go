package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedCache "github.com/davicafu/vehiclecatalog/internal/shared/infra/platform/cache"
	vehicleDomain "github.com/davicafu/vehiclecatalog/internal/vehicle/domain"
)

// CachedVehicleRepository compone el store durable y la caché (cache-aside).
// El store es la única fuente de verdad; la caché se rellena bajo demanda y
// se actualiza (write-through) después de cada escritura confirmada.
type CachedVehicleRepository struct {
	store  vehicleDomain.VehicleStore
	cache  sharedCache.Cache
	logger *zap.Logger
}

var _ vehicleDomain.VehicleRepository = (*CachedVehicleRepository)(nil)

func NewCachedVehicleRepository(store vehicleDomain.VehicleStore, cache sharedCache.Cache, logger *zap.Logger) *CachedVehicleRepository {
	return &CachedVehicleRepository{store: store, cache: cache, logger: logger}
}

func (r *CachedVehicleRepository) GetByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*vehicleDomain.Vehicle, error) {
	key := vehicleDomain.CacheKeyByVehicleID(vehicleID)

	// 1. Caché
	var snap vehicleDomain.VehicleSnapshot
	hit, err := r.cache.Get(ctx, key, &snap)
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	if hit {
		r.logger.Debug("Vehicle cache hit", zap.String("vehicle_id", vehicleID.String()))
		return vehicleDomain.RestoreVehicle(snap)
	}

	// 2. Store
	r.logger.Debug("Vehicle cache miss", zap.String("vehicle_id", vehicleID.String()))
	v, err := r.store.GetByVehicleID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	// 3. Rellenar caché antes de devolver
	if err := r.cache.Set(ctx, key, v); err != nil {
		return nil, fmt.Errorf("cache set %s: %w", key, err)
	}
	return v, nil
}

// GetAll considera la caché autoritativa si tiene al menos una entrada.
// Solo con la caché vacía se consulta el store, y su resultado se vuelca entero en caché.
func (r *CachedVehicleRepository) GetAll(ctx context.Context) ([]*vehicleDomain.Vehicle, error) {
	snaps, err := sharedCache.GetAllByPrefix[vehicleDomain.VehicleSnapshot](ctx, r.cache, vehicleDomain.CacheKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("cache scan %s: %w", vehicleDomain.CacheKeyPrefix, err)
	}

	if len(snaps) > 0 {
		r.logger.Debug("Vehicle list served from cache", zap.Int("count", len(snaps)))
		vehicles := make([]*vehicleDomain.Vehicle, 0, len(snaps))
		for _, s := range snaps {
			v, err := vehicleDomain.RestoreVehicle(s)
			if err != nil {
				return nil, err
			}
			vehicles = append(vehicles, v)
		}
		return vehicles, nil
	}

	vehicles, err := r.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, v := range vehicles {
		if err := r.cache.Set(ctx, vehicleDomain.CacheKeyByVehicleID(v.VehicleID), v); err != nil {
			return nil, fmt.Errorf("cache backfill %s: %w", v.VehicleID, err)
		}
	}
	r.logger.Info("Vehicle cache backfilled from store", zap.Int("count", len(vehicles)))

	return vehicles, nil
}

func (r *CachedVehicleRepository) Insert(ctx context.Context, v *vehicleDomain.Vehicle) (int64, error) {
	id, err := r.store.Insert(ctx, v)
	if err != nil {
		return 0, err
	}
	v.ID = id

	if err := r.cache.Set(ctx, vehicleDomain.CacheKeyByVehicleID(v.VehicleID), v); err != nil {
		return 0, fmt.Errorf("cache set after insert %s: %w", v.VehicleID, err)
	}
	r.logger.Info("Vehicle inserted", zap.Int64("id", id), zap.String("vehicle_id", v.VehicleID.String()))

	return id, nil
}

// Update escribe primero en el store y después en caché.
// Si el store no aplica la escritura, la entrada de caché puede estar en una
// versión antigua: se invalida para que la siguiente lectura vaya al store.
// Un fallo de caché tras escribir en el store se propaga sin deshacer el store,
// e intenta invalidar la entrada para no dejarla en la versión anterior.
func (r *CachedVehicleRepository) Update(ctx context.Context, v *vehicleDomain.Vehicle) (bool, error) {
	key := vehicleDomain.CacheKeyByVehicleID(v.VehicleID)

	ok, err := r.store.Update(ctx, v)
	if err != nil {
		return false, err
	}
	if !ok {
		r.logger.Warn("Vehicle update not applied by store, invalidating cache entry",
			zap.String("vehicle_id", v.VehicleID.String()),
			zap.Int64("version", v.Version))
		if err := r.cache.Delete(ctx, key); err != nil {
			return false, fmt.Errorf("cache invalidate %s: %w", key, err)
		}
		return false, nil
	}

	if err := r.cache.Set(ctx, key, v); err != nil {
		if delErr := r.cache.Delete(ctx, key); delErr != nil {
			r.logger.Error("Vehicle cache entry may be stale",
				zap.String("vehicle_id", v.VehicleID.String()),
				zap.Error(delErr))
		}
		return false, fmt.Errorf("cache write-through %s: %w", v.VehicleID, err)
	}
	r.logger.Debug("Vehicle updated",
		zap.String("vehicle_id", v.VehicleID.String()),
		zap.String("status", string(v.Status())))

	return true, nil
}
