package events

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/vehiclecatalog/internal/mocks"
	sharedEvents "github.com/davicafu/vehiclecatalog/internal/shared/infra/events"
	vehicleApp "github.com/davicafu/vehiclecatalog/internal/vehicle/application"
	vehicleDomain "github.com/davicafu/vehiclecatalog/internal/vehicle/domain"
)

// Un order-finalized duplicado no cambia nada: la segunda entrega produce un fault y se registra.
func TestOrderFinalized_ThroughInMemoryBus(t *testing.T) {
	store := mocks.NewInMemoryVehicleStore()
	v := vehicleDomain.NewVehicle(vehicleDomain.VehicleAttributes{CarName: "Compass", Price: decimal.NewFromInt(150000)})
	require.NoError(t, v.TransitionTo(vehicleDomain.StatusReserved))
	store.Seed(v)

	service := vehicleApp.NewVehicleService(store, nil, nil, zap.NewNop())
	consumer := NewVehicleConsumer(service, zap.NewNop())

	bus := sharedEvents.NewInMemoryBus(4)
	defer bus.Close()

	payload := []byte(`{"VehicleId":"` + v.VehicleID.String() + `"}`)
	for i := 0; i < 2; i++ {
		require.NoError(t, bus.WriteMessages(context.Background(), kafka.Message{Topic: vehicleDomain.TopicOrderFinalized, Value: payload}))
	}

	c := sharedEvents.NewConsumer(bus.Reader(vehicleDomain.TopicOrderFinalized), vehicleDomain.TopicOrderFinalized,
		consumer.SellHandlerFactory(), zap.NewNop(), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	assert.Eventually(t, func() bool {
		snap, _ := store.Snapshot(v.VehicleID)
		return snap.Status == vehicleDomain.StatusSold && store.Reads() == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-c.Done()

	snap, _ := store.Snapshot(v.VehicleID)
	assert.Equal(t, int64(2), snap.Version, "la segunda entrega no escribe")
}
