package bus

import "sort"

// Keyer lo implementan los payloads que saben su clave de partición.
type Keyer interface {
	PartitionKey() string
}

// Envelope es el mensaje tipado que viaja por el bus: destino, clave de
// partición, cabeceras opacas y el payload.
type Envelope[T any] struct {
	Topic   string
	Key     string
	Headers map[string][]byte
	Value   T
}

// NewEnvelope crea un sobre con cabeceras vacías (nunca nil).
// Si el payload implementa Keyer, su PartitionKey se usa como Key.
func NewEnvelope[T any](topic string, value T) Envelope[T] {
	env := Envelope[T]{
		Topic:   topic,
		Headers: make(map[string][]byte),
		Value:   value,
	}
	if keyer, ok := any(value).(Keyer); ok {
		env.Key = keyer.PartitionKey()
	}
	return env
}

// WithKey devuelve una copia con la clave indicada.
func (e Envelope[T]) WithKey(key string) Envelope[T] {
	e.Key = key
	return e
}

// WithHeader devuelve una copia con la cabecera añadida; el mapa original no se toca.
func (e Envelope[T]) WithHeader(name string, value []byte) Envelope[T] {
	headers := make(map[string][]byte, len(e.Headers)+1)
	for k, v := range e.Headers {
		headers[k] = v
	}
	headers[name] = value
	e.Headers = headers
	return e
}

// HeaderNames devuelve los nombres de cabecera ordenados; es el orden en el cable.
func (e Envelope[T]) HeaderNames() []string {
	names := make([]string, 0, len(e.Headers))
	for k := range e.Headers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
