package utils

import (
	"context"
	"time"
)

// Retry ejecuta fn hasta attempts veces. La espera entre intentos empieza en
// delay y se duplica en cada fallo. No espera después del último intento.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func(ctx context.Context) error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-time.After(delay):
			delay *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
