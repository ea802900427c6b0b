package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	sharedDomain "github.com/davicafu/vehiclecatalog/internal/shared/domain"
	sharedBus "github.com/davicafu/vehiclecatalog/internal/shared/infra/platform/bus"
	vehicleApp "github.com/davicafu/vehiclecatalog/internal/vehicle/application"
)

type MockVehicleService struct {
	mock.Mock
}

func (m *MockVehicleService) SellVehicle(ctx context.Context, cmd vehicleApp.SellVehicleCommand) (*sharedDomain.Output, error) {
	args := m.Called(ctx, cmd)
	out, _ := args.Get(0).(*sharedDomain.Output)
	return out, args.Error(1)
}

func (m *MockVehicleService) ReleaseVehicle(ctx context.Context, cmd vehicleApp.ReleaseVehicleCommand) (*sharedDomain.Output, error) {
	args := m.Called(ctx, cmd)
	out, _ := args.Get(0).(*sharedDomain.Output)
	return out, args.Error(1)
}

func TestSellHandler_LogsOutput(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	service := &MockVehicleService{}
	id := uuid.New()

	out := sharedDomain.NewOutput()
	out.AddMessage("Vehicle with ID " + id.String() + " has been marked as sold.")
	service.On("SellVehicle", mock.Anything, vehicleApp.SellVehicleCommand{VehicleID: id}).Return(out, nil)

	consumer := NewVehicleConsumer(service, zap.New(core))
	handler := consumer.SellHandlerFactory()()

	env := sharedBus.NewEnvelope("order-finalized", vehicleApp.SellVehicleCommand{VehicleID: id})
	require.NoError(t, handler.Handle(context.Background(), env))

	entries := logs.FilterMessage("response from use case").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	service.AssertExpectations(t)
}

func TestReleaseHandler_FaultIsNotAnError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	service := &MockVehicleService{}
	id := uuid.New()

	out := sharedDomain.NewOutput()
	out.AddFault(sharedDomain.InvalidOperation, "Vehicle with ID "+id.String()+" is already available.")
	service.On("ReleaseVehicle", mock.Anything, vehicleApp.ReleaseVehicleCommand{VehicleID: id}).Return(out, nil)

	consumer := NewVehicleConsumer(service, zap.New(core))
	handler := consumer.ReleaseHandlerFactory()()

	env := sharedBus.NewEnvelope("order-canceled", vehicleApp.ReleaseVehicleCommand{VehicleID: id})
	require.NoError(t, handler.Handle(context.Background(), env))

	entries := logs.FilterMessage("response from use case").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestHandlers_UnexpectedErrorIsReturned(t *testing.T) {
	service := &MockVehicleService{}
	boom := errors.New("store unavailable")
	service.On("SellVehicle", mock.Anything, mock.Anything).Return(nil, boom)

	consumer := NewVehicleConsumer(service, zap.NewNop())
	err := consumer.SellHandlerFactory()().Handle(context.Background(),
		sharedBus.NewEnvelope("order-finalized", vehicleApp.SellVehicleCommand{VehicleID: uuid.New()}))
	assert.ErrorIs(t, err, boom)
}

func TestHandlerFactory_FreshInstancePerMessage(t *testing.T) {
	consumer := NewVehicleConsumer(&MockVehicleService{}, zap.NewNop())
	factory := consumer.SellHandlerFactory()

	assert.NotSame(t, factory(), factory())
}
