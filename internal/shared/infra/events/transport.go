package events

import (
	"context"

	"github.com/segmentio/kafka-go"

	sharedBus "github.com/davicafu/vehiclecatalog/internal/shared/infra/platform/bus"
)

// MessageWriter es el subconjunto de *kafka.Writer que usa Producer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// MessageReader es el subconjunto de *kafka.Reader que usa Consumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

var (
	_ MessageWriter = (*kafka.Writer)(nil)
	_ MessageReader = (*kafka.Reader)(nil)
)

func toKafkaHeaders[T any](env sharedBus.Envelope[T]) []kafka.Header {
	names := env.HeaderNames()
	if len(names) == 0 {
		return nil
	}
	headers := make([]kafka.Header, 0, len(names))
	for _, name := range names {
		headers = append(headers, kafka.Header{Key: name, Value: append([]byte(nil), env.Headers[name]...)})
	}
	return headers
}

func fromKafkaHeaders(headers []kafka.Header) map[string][]byte {
	out := make(map[string][]byte, len(headers))
	for _, h := range headers {
		out[h.Key] = h.Value
	}
	return out
}
