package events

import (
	"encoding/json"
	"fmt"
)

// Encode serializa el payload a JSON (camelCase vía tags, enums como string).
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

// Decode deserializa un payload JSON. Los nombres de campo se emparejan sin
// distinguir mayúsculas, así que "VehicleId" y "vehicleId" son equivalentes.
func Decode[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}
