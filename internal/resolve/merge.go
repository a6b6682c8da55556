package resolve

import (
	"encoding/json"
	"fmt"
)

// MergeJSON overlays a raw updates object onto an existing entity, field by
// field, the way a JS object spread would: existing fields survive unless
// the updates payload names them. The entity's own type drives which fields
// exist; unknown update keys are dropped on the round trip.
func MergeJSON[E any](entity E, updates json.RawMessage) (E, error) {
	var zero E

	base, err := json.Marshal(entity)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal entity: %w", err)
	}

	var baseMap map[string]interface{}
	if err := json.Unmarshal(base, &baseMap); err != nil {
		return zero, fmt.Errorf("failed to decode entity: %w", err)
	}

	var updateMap map[string]interface{}
	if err := json.Unmarshal(updates, &updateMap); err != nil {
		return zero, fmt.Errorf("failed to decode updates: %w", err)
	}

	for k, v := range updateMap {
		baseMap[k] = v
	}

	merged, err := json.Marshal(baseMap)
	if err != nil {
		return zero, fmt.Errorf("failed to re-encode merged entity: %w", err)
	}

	var out E
	if err := json.Unmarshal(merged, &out); err != nil {
		return zero, fmt.Errorf("merged entity does not fit its type: %w", err)
	}
	return out, nil
}
