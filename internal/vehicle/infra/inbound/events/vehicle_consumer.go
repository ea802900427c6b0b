package events

import (
	"context"

	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/vehiclecatalog/internal/shared/domain"
	sharedEvents "github.com/davicafu/vehiclecatalog/internal/shared/infra/events"
	sharedBus "github.com/davicafu/vehiclecatalog/internal/shared/infra/platform/bus"
	vehicleApp "github.com/davicafu/vehiclecatalog/internal/vehicle/application"
)

// VehicleService es la interfaz que define los métodos que el consumidor necesita.
type VehicleService interface {
	SellVehicle(ctx context.Context, cmd vehicleApp.SellVehicleCommand) (*sharedDomain.Output, error)
	ReleaseVehicle(ctx context.Context, cmd vehicleApp.ReleaseVehicleCommand) (*sharedDomain.Output, error)
}

// VehicleConsumer traduce los eventos del sistema de pedidos a casos de uso:
// order-finalized -> SellVehicle, order-canceled -> ReleaseVehicle.
type VehicleConsumer struct {
	service VehicleService
	log     *zap.Logger
}

func NewVehicleConsumer(service VehicleService, logger *zap.Logger) *VehicleConsumer {
	return &VehicleConsumer{service: service, log: logger}
}

// SellHandlerFactory crea un handler nuevo por cada mensaje de order-finalized.
func (c *VehicleConsumer) SellHandlerFactory() sharedEvents.HandlerFactory[vehicleApp.SellVehicleCommand] {
	return func() sharedEvents.Handler[vehicleApp.SellVehicleCommand] {
		return &sellHandler{service: c.service, log: c.log}
	}
}

// ReleaseHandlerFactory crea un handler nuevo por cada mensaje de order-canceled.
func (c *VehicleConsumer) ReleaseHandlerFactory() sharedEvents.HandlerFactory[vehicleApp.ReleaseVehicleCommand] {
	return func() sharedEvents.Handler[vehicleApp.ReleaseVehicleCommand] {
		return &releaseHandler{service: c.service, log: c.log}
	}
}

type sellHandler struct {
	service VehicleService
	log     *zap.Logger
}

func (h *sellHandler) Handle(ctx context.Context, env sharedBus.Envelope[vehicleApp.SellVehicleCommand]) error {
	out, err := h.service.SellVehicle(ctx, env.Value)
	if err != nil {
		return err
	}
	logOutput(h.log, env.Topic, env.Value.VehicleID.String(), out)
	return nil
}

type releaseHandler struct {
	service VehicleService
	log     *zap.Logger
}

func (h *releaseHandler) Handle(ctx context.Context, env sharedBus.Envelope[vehicleApp.ReleaseVehicleCommand]) error {
	out, err := h.service.ReleaseVehicle(ctx, env.Value)
	if err != nil {
		return err
	}
	logOutput(h.log, env.Topic, env.Value.VehicleID.String(), out)
	return nil
}

// logOutput registra la respuesta del caso de uso. Un fault aquí suele ser una
// redelivery ("already marked as sold"), no un error.
func logOutput(log *zap.Logger, topic, vehicleID string, out *sharedDomain.Output) {
	fields := []zap.Field{
		zap.String("topic", topic),
		zap.String("vehicle_id", vehicleID),
		zap.Strings("messages", out.Messages),
		zap.Strings("faults", out.FaultMessages()),
	}
	if out.IsValid() {
		log.Info("response from use case", fields...)
		return
	}
	log.Warn("response from use case", fields...)
}
