package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	vehicleDomain "github.com/davicafu/vehiclecatalog/internal/vehicle/domain"
)

// InMemoryVehicleStore simula VehicleStore. Guarda snapshots, así cada lectura
// devuelve una copia independiente, igual que un store real.
type InMemoryVehicleStore struct {
	rows   map[uuid.UUID]vehicleDomain.VehicleSnapshot
	nextID int64
	mu     sync.Mutex

	// IgnoreVersion desactiva el compare-and-swap de Update (store "ingenuo").
	IgnoreVersion bool
	// BeforeUpdate se invoca antes de aplicar cada Update, fuera del lock.
	BeforeUpdate func()

	GetAllCalls int
	GetCalls    int
	UpdateCalls int
}

var _ vehicleDomain.VehicleStore = (*InMemoryVehicleStore)(nil)

func NewInMemoryVehicleStore() *InMemoryVehicleStore {
	return &InMemoryVehicleStore{rows: make(map[uuid.UUID]vehicleDomain.VehicleSnapshot)}
}

func (s *InMemoryVehicleStore) GetByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*vehicleDomain.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalls++

	snap, ok := s.rows[vehicleID]
	if !ok {
		return nil, vehicleDomain.ErrVehicleNotFound
	}
	return vehicleDomain.RestoreVehicle(snap)
}

func (s *InMemoryVehicleStore) GetAll(ctx context.Context) ([]*vehicleDomain.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetAllCalls++

	snaps := make([]vehicleDomain.VehicleSnapshot, 0, len(s.rows))
	for _, snap := range s.rows {
		snaps = append(snaps, snap)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID < snaps[j].ID })

	vehicles := make([]*vehicleDomain.Vehicle, 0, len(snaps))
	for _, snap := range snaps {
		v, err := vehicleDomain.RestoreVehicle(snap)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, nil
}

func (s *InMemoryVehicleStore) Insert(ctx context.Context, v *vehicleDomain.Vehicle) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[v.VehicleID]; ok {
		return 0, vehicleDomain.ErrVehicleAlreadyExists
	}
	s.nextID++
	v.ID = s.nextID
	s.rows[v.VehicleID] = v.Snapshot()
	return v.ID, nil
}

func (s *InMemoryVehicleStore) Update(ctx context.Context, v *vehicleDomain.Vehicle) (bool, error) {
	if s.BeforeUpdate != nil {
		s.BeforeUpdate()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdateCalls++

	current, ok := s.rows[v.VehicleID]
	if !ok || current.ID != v.ID {
		return false, nil
	}
	if !s.IgnoreVersion && current.Version != v.Version {
		return false, nil
	}

	v.Version = current.Version + 1
	s.rows[v.VehicleID] = v.Snapshot()
	return true, nil
}

// Seed guarda el vehículo tal cual, sin pasar por Insert. Útil para preparar estados.
func (s *InMemoryVehicleStore) Seed(v *vehicleDomain.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == 0 {
		s.nextID++
		v.ID = s.nextID
	}
	s.rows[v.VehicleID] = v.Snapshot()
}

// Snapshot devuelve la fila persistida, sin contar como lectura.
func (s *InMemoryVehicleStore) Snapshot(vehicleID uuid.UUID) (vehicleDomain.VehicleSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.rows[vehicleID]
	return snap, ok
}

// Reads devuelve cuántas veces se llamó a GetByVehicleID; seguro entre goroutines.
func (s *InMemoryVehicleStore) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.GetCalls
}

// ---------- Dobles con testify/mock ----------

// MockVehicleStore permite programar respuestas y errores del store.
type MockVehicleStore struct {
	mock.Mock
}

func (m *MockVehicleStore) GetByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*vehicleDomain.Vehicle, error) {
	args := m.Called(ctx, vehicleID)
	v, _ := args.Get(0).(*vehicleDomain.Vehicle)
	return v, args.Error(1)
}

func (m *MockVehicleStore) GetAll(ctx context.Context) ([]*vehicleDomain.Vehicle, error) {
	args := m.Called(ctx)
	vs, _ := args.Get(0).([]*vehicleDomain.Vehicle)
	return vs, args.Error(1)
}

func (m *MockVehicleStore) Insert(ctx context.Context, v *vehicleDomain.Vehicle) (int64, error) {
	args := m.Called(ctx, v)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVehicleStore) Update(ctx context.Context, v *vehicleDomain.Vehicle) (bool, error) {
	args := m.Called(ctx, v)
	return args.Bool(0), args.Error(1)
}

// MockVehicleRepository es el doble del repositorio cache-aside.
type MockVehicleRepository struct {
	MockVehicleStore
}

var _ vehicleDomain.VehicleRepository = (*MockVehicleRepository)(nil)

// MockOrderPublisher simula el publisher de pedidos.
type MockOrderPublisher struct {
	mock.Mock
}

func (m *MockOrderPublisher) CreateOrder(ctx context.Context, order vehicleDomain.CreateOrderRequest) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockTransitionRecorder simula el log analítico de transiciones.
type MockTransitionRecorder struct {
	mock.Mock
}

func (m *MockTransitionRecorder) Record(ctx context.Context, t vehicleDomain.VehicleTransition) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}
