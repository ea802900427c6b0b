package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	sharedBus "github.com/davicafu/vehiclecatalog/internal/shared/infra/platform/bus"
)

type payload struct {
	VehicleID string `json:"vehicleId"`
	Status    string `json:"status"`
}

// -------------------- Fakes --------------------

type readResult struct {
	msg kafka.Message
	err error
}

type fakeReader struct {
	results chan readResult
	closed  atomic.Bool
}

func newFakeReader(results ...readResult) *fakeReader {
	r := &fakeReader{results: make(chan readResult, len(results)+1)}
	for _, res := range results {
		r.results <- res
	}
	return r
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case res := <-r.results:
		return res.msg, res.err
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) Close() error {
	r.closed.Store(true)
	return nil
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.err != nil {
		return w.err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func msg(value string) readResult {
	return readResult{msg: kafka.Message{Topic: "order-finalized", Key: []byte("k"), Value: []byte(value)}}
}

func waitDone(t *testing.T, c interface{ Done() <-chan struct{} }) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for handler")
	}
	var zero T
	return zero
}

// -------------------- Codec --------------------

func TestDecode_CaseInsensitiveFields(t *testing.T) {
	p, err := Decode[payload]([]byte(`{"VehicleId":"abc","STATUS":"Sold"}`))
	require.NoError(t, err)
	assert.Equal(t, payload{VehicleID: "abc", Status: "Sold"}, p)

	_, err = Decode[payload]([]byte(`{not json`))
	assert.Error(t, err)
}

// -------------------- Producer --------------------

func TestProducer_PublishConfirmed(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducer[payload](w, zap.NewNop())

	env := sharedBus.NewEnvelope("car-reserved", payload{VehicleID: "v1"}).
		WithKey("order-1").
		WithHeader("z-trace", []byte("1")).
		WithHeader("a-source", []byte("catalog"))

	ok, err := p.Publish(context.Background(), env)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, w.msgs, 1)
	sent := w.msgs[0]
	assert.Equal(t, "car-reserved", sent.Topic)
	assert.Equal(t, "order-1", string(sent.Key))
	assert.JSONEq(t, `{"vehicleId":"v1","status":""}`, string(sent.Value))
	require.Len(t, sent.Headers, 2)
	assert.Equal(t, "a-source", sent.Headers[0].Key)
	assert.Equal(t, "z-trace", sent.Headers[1].Key)
}

func TestProducer_TransportErrorReturnsFalse(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	w := &fakeWriter{err: errors.New("broker unreachable")}
	p := NewProducer[payload](w, zap.New(core))

	ok, err := p.Publish(context.Background(), sharedBus.NewEnvelope("car-reserved", payload{}))
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("Error publishing to Kafka").Len())
}

func TestProducer_CancelledContextPropagates(t *testing.T) {
	p := NewProducer[payload](&fakeWriter{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := p.Publish(ctx, sharedBus.NewEnvelope("car-reserved", payload{}))
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProducer_EncodeErrorPropagates(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducer[any](w, zap.NewNop())

	ok, err := p.Publish(context.Background(), sharedBus.NewEnvelope[any]("t", make(chan int)))
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Empty(t, w.msgs)
}

func TestProducer_AsyncWriterNeverConfirms(t *testing.T) {
	w := &kafka.Writer{
		Addr:         kafka.TCP("127.0.0.1:1"),
		Async:        true,
		MaxAttempts:  1,
		BatchTimeout: time.Millisecond,
	}
	t.Cleanup(func() { _ = w.Close() })

	p := NewProducer[payload](w, zap.NewNop())
	ok, err := p.Publish(context.Background(), sharedBus.NewEnvelope("car-reserved", payload{}))
	assert.NoError(t, err)
	assert.False(t, ok)
}

// -------------------- Consumer --------------------

func TestConsumer_MalformedMessageDoesNotStopLoop(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	reader := newFakeReader(msg(`{broken`), msg(`{"vehicleId":"v2"}`))

	handled := make(chan sharedBus.Envelope[payload], 2)
	factory := func() Handler[payload] {
		return HandlerFunc[payload](func(ctx context.Context, env sharedBus.Envelope[payload]) error {
			handled <- env
			return nil
		})
	}

	c := NewConsumer[payload](reader, "order-finalized", factory, zap.New(core), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	env := receive(t, handled)
	assert.Equal(t, "v2", env.Value.VehicleID)
	assert.Equal(t, "order-finalized", env.Topic)
	assert.Equal(t, "k", env.Key)
	assert.NotNil(t, env.Headers)
	assert.Equal(t, 1, logs.FilterMessage("Failed to decode message").Len())

	// El bucle sigue vivo hasta que se cancela.
	select {
	case <-c.Done():
		t.Fatal("consumer stopped before cancellation")
	default:
	}

	cancel()
	waitDone(t, c)
	assert.True(t, reader.closed.Load())
	assert.Len(t, handled, 0)
}

func TestConsumer_HandlerPanicAndErrorAreIsolated(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	reader := newFakeReader(msg(`{"vehicleId":"panic"}`), msg(`{"vehicleId":"fail"}`), msg(`{"vehicleId":"ok"}`))

	var created atomic.Int32
	handled := make(chan string, 3)
	factory := func() Handler[payload] {
		created.Add(1)
		return HandlerFunc[payload](func(ctx context.Context, env sharedBus.Envelope[payload]) error {
			switch env.Value.VehicleID {
			case "panic":
				panic("boom")
			case "fail":
				return errors.New("use case failed")
			}
			handled <- env.Value.VehicleID
			return nil
		})
	}

	c := NewConsumer[payload](reader, "order-finalized", factory, zap.New(core), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	assert.Equal(t, "ok", receive(t, handled))
	assert.Equal(t, int32(3), created.Load(), "un handler nuevo por mensaje")

	failures := logs.FilterMessage("Failed to handle message").All()
	require.Len(t, failures, 2)
	assert.Contains(t, failures[0].ContextMap()["error"], "handler panic: boom")

	cancel()
	waitDone(t, c)
}

func TestConsumer_ReadErrorIsLoggedAndRetried(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	reader := newFakeReader(readResult{err: errors.New("rebalance in progress")}, msg(`{"vehicleId":"v3"}`))

	handled := make(chan string, 1)
	factory := func() Handler[payload] {
		return HandlerFunc[payload](func(ctx context.Context, env sharedBus.Envelope[payload]) error {
			handled <- env.Value.VehicleID
			return nil
		})
	}

	c := NewConsumer[payload](reader, "order-finalized", factory, zap.New(core), time.Second)
	c.SetReadErrorBackoff(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	assert.Equal(t, "v3", receive(t, handled))
	assert.Equal(t, 1, logs.FilterMessage("Error reading message").Len())

	cancel()
	waitDone(t, c)
}

func TestConsumer_InFlightHandlerSurvivesShutdown(t *testing.T) {
	reader := newFakeReader(msg(`{"vehicleId":"slow"}`))

	started := make(chan struct{})
	release := make(chan struct{})
	handlerErr := make(chan error, 1)
	factory := func() Handler[payload] {
		return HandlerFunc[payload](func(ctx context.Context, env sharedBus.Envelope[payload]) error {
			close(started)
			<-release
			handlerErr <- ctx.Err()
			return nil
		})
	}

	c := NewConsumer[payload](reader, "order-finalized", factory, zap.NewNop(), 5*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	<-started
	cancel()
	close(release)

	assert.NoError(t, receive(t, handlerErr))
	waitDone(t, c)
	assert.True(t, reader.closed.Load())
}

// -------------------- InMemoryBus --------------------

func TestInMemoryBus_ProducerToConsumer(t *testing.T) {
	b := NewInMemoryBus(8)
	defer b.Close()

	p := NewProducer[payload](b, zap.NewNop())
	ok, err := p.Publish(context.Background(), sharedBus.NewEnvelope("order-canceled", payload{VehicleID: "v9"}).WithHeader("h", []byte("x")))
	require.NoError(t, err)
	assert.True(t, ok)

	handled := make(chan sharedBus.Envelope[payload], 1)
	factory := func() Handler[payload] {
		return HandlerFunc[payload](func(ctx context.Context, env sharedBus.Envelope[payload]) error {
			handled <- env
			return nil
		})
	}
	c := NewConsumer[payload](b.Reader("order-canceled"), "order-canceled", factory, zap.NewNop(), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	env := receive(t, handled)
	assert.Equal(t, "v9", env.Value.VehicleID)
	assert.Equal(t, []byte("x"), env.Headers["h"])

	cancel()
	waitDone(t, c)
}

func TestInMemoryBus_WriteRequiresTopicAndRespectsContext(t *testing.T) {
	b := NewInMemoryBus(1)
	defer b.Close()

	assert.Error(t, b.WriteMessages(context.Background(), kafka.Message{Value: []byte("x")}))

	require.NoError(t, b.WriteMessages(context.Background(), kafka.Message{Topic: "t", Value: []byte("1")}))

	// Buffer lleno y nadie leyendo: la escritura espera hasta que vence el contexto.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := b.WriteMessages(ctx, kafka.Message{Topic: "t", Value: []byte("2")})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	b.Close()
	err = b.WriteMessages(context.Background(), kafka.Message{Topic: "t"})
	assert.ErrorIs(t, err, ErrBusClosed)
}
