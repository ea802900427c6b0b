package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetAllByPrefix deserializa todos los valores guardados bajo un prefijo.
func GetAllByPrefix[T any](ctx context.Context, c Cache, prefix string) ([]T, error) {
	raw, err := c.Values(ctx, prefix)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(raw))
	for _, data := range raw {
		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("cache: decode value under %q: %w", prefix, err)
		}
		items = append(items, item)
	}
	return items, nil
}
