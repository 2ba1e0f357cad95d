package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Entity is one decoded JSON object from a resource collection.
type Entity = map[string]any

// The backend answers collection requests in one of three shapes:
//
//	[ {...}, {...} ]                     bare array
//	{ "success": true, "data": [...] }   success envelope
//	{ "error": "..." }                   error envelope
//
// objectEnvelope covers both object shapes; the bare array is detected by
// its leading token.
type objectEnvelope struct {
	Success *bool    `json:"success"`
	Data    []Entity `json:"data"`
	Error   string   `json:"error"`
}

// DecodeCollection normalizes any of the supported response shapes into a
// flat entity slice. An unsuccessful success-envelope yields an empty
// collection, not an error; an error envelope yields its error. The result
// is never nil.
func DecodeCollection(data []byte) ([]Entity, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []Entity{}, nil
	}

	if trimmed[0] == '[' {
		var entities []Entity
		if err := json.Unmarshal(trimmed, &entities); err != nil {
			return nil, fmt.Errorf("failed to decode collection array: %w", err)
		}
		if entities == nil {
			entities = []Entity{}
		}
		return entities, nil
	}

	var env objectEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("failed to decode collection envelope: %w", err)
	}

	if env.Error != "" {
		return nil, fmt.Errorf("server error: %s", env.Error)
	}

	if env.Success != nil && !*env.Success {
		return []Entity{}, nil
	}

	if env.Data == nil {
		return []Entity{}, nil
	}
	return env.Data, nil
}

// DecodeEntity decodes a mutation response: either a bare entity object or
// an error envelope.
func DecodeEntity(data []byte) (Entity, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	var entity Entity
	if err := json.Unmarshal(trimmed, &entity); err != nil {
		return nil, fmt.Errorf("failed to decode entity: %w", err)
	}

	if msg, ok := entity["error"].(string); ok && msg != "" {
		return nil, fmt.Errorf("server error: %s", msg)
	}
	return entity, nil
}
