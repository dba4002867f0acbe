package repository

import (
	"encoding/json"
	"fmt"
)

// IDField is the wire name of every record identifier.
const IDField = "id"

// EncodeFields renders v as a JSON object keyed by wire names.
// Patch types omit nil fields, so the result holds only the fields being set.
func EncodeFields(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return fields, nil
}

// DecodeFields is the inverse of EncodeFields.
func DecodeFields(fields map[string]any, out any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("decode fields: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode fields: %w", err)
	}
	return nil
}
