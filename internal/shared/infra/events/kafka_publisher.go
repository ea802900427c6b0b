package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedBus "github.com/davicafu/vehiclecatalog/internal/shared/infra/platform/bus"
)

// Producer publica sobres tipados sobre un MessageWriter (Kafka o el bus en memoria).
type Producer[T any] struct {
	writer MessageWriter
	log    *zap.Logger
}

func NewProducer[T any](writer MessageWriter, log *zap.Logger) *Producer[T] {
	return &Producer[T]{writer: writer, log: log}
}

// Publish devuelve true solo cuando el transporte confirma la escritura.
//   - Error de serialización o contexto cancelado: se devuelve como error.
//   - Error de transporte: se registra y devuelve (false, nil).
//   - Writer asíncrono: escribe, pero nunca confirma, así que devuelve false.
//
// No reintenta ni bufferiza.
func (p *Producer[T]) Publish(ctx context.Context, env sharedBus.Envelope[T]) (bool, error) {
	data, err := Encode(env.Value)
	if err != nil {
		return false, err
	}

	msg := kafka.Message{
		Topic:   env.Topic,
		Key:     []byte(env.Key),
		Value:   data,
		Headers: toKafkaHeaders(env),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, fmt.Errorf("publish to %s: %w", env.Topic, ctxErr)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, fmt.Errorf("publish to %s: %w", env.Topic, err)
		}
		p.log.Error("Error publishing to Kafka",
			zap.String("topic", env.Topic),
			zap.String("key", env.Key),
			zap.Error(err))
		return false, nil
	}

	if w, ok := p.writer.(*kafka.Writer); ok && w.Async {
		p.log.Warn("Async writer cannot confirm delivery", zap.String("topic", env.Topic))
		return false, nil
	}

	p.log.Debug("Message published successfully",
		zap.String("topic", env.Topic),
		zap.String("key", env.Key))
	return true, nil
}
