package events

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/vehiclecatalog/internal/shared/infra/events"
	sharedBus "github.com/davicafu/vehiclecatalog/internal/shared/infra/platform/bus"
	vehicleDomain "github.com/davicafu/vehiclecatalog/internal/vehicle/domain"
)

// KafkaOrderPublisher pide al sistema de pedidos que cree un pedido publicando
// en el topic car-reserved, con el OrderID como clave.
type KafkaOrderPublisher struct {
	producer *sharedEvents.Producer[vehicleDomain.CreateOrderRequest]
	topic    string
	log      *zap.Logger
}

var _ vehicleDomain.OrderPublisher = (*KafkaOrderPublisher)(nil)

func NewKafkaOrderPublisher(producer *sharedEvents.Producer[vehicleDomain.CreateOrderRequest], topic string, log *zap.Logger) *KafkaOrderPublisher {
	if topic == "" {
		topic = vehicleDomain.TopicCarReserved
	}
	return &KafkaOrderPublisher{producer: producer, topic: topic, log: log}
}

func (p *KafkaOrderPublisher) CreateOrder(ctx context.Context, order vehicleDomain.CreateOrderRequest) error {
	log := p.log.With(zap.String("order_id", order.OrderID.String()), zap.String("vehicle_id", order.VehicleID.String()))
	log.Info("Starting to create a new order")

	sent, err := p.producer.Publish(ctx, sharedBus.NewEnvelope(p.topic, order))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Order creation was canceled")
		} else {
			log.Error("Error creating the order", zap.Error(err))
		}
		return err
	}
	if !sent {
		err := fmt.Errorf("failed to create a new order %s", order.OrderID)
		log.Error("Error creating the order", zap.Error(err))
		return err
	}

	log.Info("Order created", zap.String("customer_document", order.CustomerDocument))
	return nil
}
