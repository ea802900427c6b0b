package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedBus "github.com/davicafu/vehiclecatalog/internal/shared/infra/platform/bus"
)

const (
	defaultHandlerTimeout   = 30 * time.Second
	defaultReadErrorBackoff = time.Second
)

// Handler procesa un sobre ya deserializado.
type Handler[T any] interface {
	Handle(ctx context.Context, env sharedBus.Envelope[T]) error
}

// HandlerFunc adapta una función a Handler.
type HandlerFunc[T any] func(ctx context.Context, env sharedBus.Envelope[T]) error

func (f HandlerFunc[T]) Handle(ctx context.Context, env sharedBus.Envelope[T]) error {
	return f(ctx, env)
}

// HandlerFactory crea un handler nuevo por mensaje; así ningún estado se
// comparte entre mensajes.
type HandlerFactory[T any] func() Handler[T]

// Consumer es el "oído" que escucha un topic y entrega cada mensaje a un handler.
// Los mensajes se procesan de uno en uno, en orden de llegada.
type Consumer[T any] struct {
	reader  MessageReader
	topic   string
	factory HandlerFactory[T]
	log     *zap.Logger

	handlerTimeout   time.Duration
	readErrorBackoff time.Duration

	done chan struct{}
}

func NewConsumer[T any](reader MessageReader, topic string, factory HandlerFactory[T], log *zap.Logger, handlerTimeout time.Duration) *Consumer[T] {
	if handlerTimeout <= 0 {
		handlerTimeout = defaultHandlerTimeout
	}
	return &Consumer[T]{
		reader:           reader,
		topic:            topic,
		factory:          factory,
		log:              log.With(zap.String("topic", topic)),
		handlerTimeout:   handlerTimeout,
		readErrorBackoff: defaultReadErrorBackoff,
		done:             make(chan struct{}),
	}
}

// SetReadErrorBackoff cambia la pausa tras un error de lectura.
func (c *Consumer[T]) SetReadErrorBackoff(d time.Duration) {
	c.readErrorBackoff = d
}

// Start lanza Run en una goroutine. Usa Done para esperar a que termine.
func (c *Consumer[T]) Start(ctx context.Context) {
	go c.Run(ctx)
}

// Done se cierra cuando el bucle ha terminado y el reader está cerrado.
func (c *Consumer[T]) Done() <-chan struct{} {
	return c.done
}

// Run bloquea hasta que ctx se cancela. Un mensaje que no se puede
// deserializar, un handler que falla o que entra en pánico solo afectan a ese
// mensaje: se registran y el bucle sigue. Solo debe llamarse una vez.
func (c *Consumer[T]) Run(ctx context.Context) {
	defer close(c.done)
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.log.Warn("Error closing reader", zap.Error(err))
		}
	}()

	c.log.Info("🎧 Consumer started")

	for {
		// ReadMessage es una llamada bloqueante.
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			// Si el contexto se cancela, el error es normal y salimos limpiamente.
			if ctx.Err() != nil {
				c.log.Info("Consumer stopped")
				return
			}
			c.log.Error("Error reading message", zap.Error(err))

			select {
			case <-ctx.Done():
				c.log.Info("Consumer stopped")
				return
			case <-time.After(c.readErrorBackoff):
			}
			continue
		}

		c.process(ctx, msg)
	}
}

func (c *Consumer[T]) process(ctx context.Context, msg kafka.Message) {
	log := c.log.With(
		zap.String("key", string(msg.Key)),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)

	value, err := Decode[T](msg.Value)
	if err != nil {
		log.Error("Failed to decode message", zap.Error(err))
		return
	}

	topic := msg.Topic
	if topic == "" {
		topic = c.topic
	}
	env := sharedBus.Envelope[T]{
		Topic:   topic,
		Key:     string(msg.Key),
		Headers: fromKafkaHeaders(msg.Headers),
		Value:   value,
	}

	// El handler en curso no se interrumpe por un apagado: solo por su timeout.
	handlerCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.handlerTimeout)
	defer cancel()

	start := time.Now()
	if err := c.invoke(handlerCtx, env); err != nil {
		log.Error("Failed to handle message", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return
	}
	log.Debug("Message handled", zap.Duration("elapsed", time.Since(start)))
}

func (c *Consumer[T]) invoke(ctx context.Context, env sharedBus.Envelope[T]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	handler := c.factory()
	if handler == nil {
		return fmt.Errorf("handler factory for %s returned nil", c.topic)
	}
	return handler.Handle(ctx, env)
}
