package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"
)

var ErrBusClosed = errors.New("in-memory bus closed")

// InMemoryBus sustituye a Kafka en local: un canal con buffer por topic.
// Los lectores de un mismo topic compiten por los mensajes, como un consumer group.
type InMemoryBus struct {
	topics     map[string]chan kafka.Message
	bufferSize int
	mu         sync.Mutex
	stop       chan struct{}
	once       sync.Once
}

var _ MessageWriter = (*InMemoryBus)(nil)

func NewInMemoryBus(bufferSize int) *InMemoryBus {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &InMemoryBus{
		topics:     make(map[string]chan kafka.Message),
		bufferSize: bufferSize,
		stop:       make(chan struct{}),
	}
}

func (b *InMemoryBus) channel(topic string) chan kafka.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.topics[topic]
	if !ok {
		ch = make(chan kafka.Message, b.bufferSize)
		b.topics[topic] = ch
	}
	return ch
}

// WriteMessages encola cada mensaje en el canal de su topic. Si el buffer
// está lleno espera hasta que haya hueco o se cancele ctx.
func (b *InMemoryBus) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, msg := range msgs {
		if msg.Topic == "" {
			return fmt.Errorf("in-memory bus: message without topic")
		}
		select {
		case <-b.stop:
			return ErrBusClosed
		default:
		}

		select {
		case b.channel(msg.Topic) <- msg:
		case <-ctx.Done():
			return ctx.Err()
		case <-b.stop:
			return ErrBusClosed
		}
	}
	return nil
}

// Reader devuelve un lector del topic indicado.
func (b *InMemoryBus) Reader(topic string) MessageReader {
	return &inMemoryReader{bus: b, ch: b.channel(topic), closed: make(chan struct{})}
}

// Close desbloquea a escritores y lectores pendientes.
func (b *InMemoryBus) Close() {
	b.once.Do(func() { close(b.stop) })
}

type inMemoryReader struct {
	bus    *InMemoryBus
	ch     chan kafka.Message
	closed chan struct{}
	once   sync.Once
}

func (r *inMemoryReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case msg := <-r.ch:
		return msg, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case <-r.closed:
		return kafka.Message{}, ErrBusClosed
	case <-r.bus.stop:
		return kafka.Message{}, ErrBusClosed
	}
}

func (r *inMemoryReader) Close() error {
	r.once.Do(func() { close(r.closed) })
	return nil
}
