package ports

import (
	"encoding/json"
	"fmt"
)

// SchemaVersion is the current version of the shared record envelope. All
// entities serialize through this single layer so schema evolution happens in
// one place instead of per-entity (de)serialization methods.
const SchemaVersion = 1

// envelope wraps every stored payload with its schema version and entity kind
type envelope struct {
	Version int             `json:"v"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

// EncodePayload serializes an entity into the versioned envelope
func EncodePayload(kind string, value interface{}) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return json.Marshal(envelope{
		Version: SchemaVersion,
		Kind:    kind,
		Data:    data,
	})
}

// DecodePayload deserializes an envelope into the target entity, checking
// kind and version compatibility.
func DecodePayload(payload []byte, kind string, target interface{}) error {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Kind != kind {
		return fmt.Errorf("decode envelope: expected kind %q, got %q", kind, env.Kind)
	}
	if env.Version > SchemaVersion {
		return fmt.Errorf("decode envelope: payload version %d is newer than supported %d", env.Version, SchemaVersion)
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return nil
}
