package domain

import (
	"encoding/json"
	"fmt"
)

// ApplyPatch overlays the JSON fields in patch onto dst. Keys dst does not
// serialize are ignored; values of the wrong type are an error.
func ApplyPatch[T any](dst *T, patch map[string]any) error {
	raw, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("apply patch: %w", err)
	}
	return nil
}
