package ports

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	type payload struct {
		Name  string  `json:"name"`
		Score float64 `json:"score"`
	}

	encoded, err := EncodePayload(TablePredictions, payload{Name: "peak", Score: 0.8})
	require.NoError(t, err)

	var decoded payload
	require.NoError(t, DecodePayload(encoded, TablePredictions, &decoded))
	assert.Equal(t, "peak", decoded.Name)
	assert.Equal(t, 0.8, decoded.Score)
}

func TestDecodeRejectsWrongKind(t *testing.T) {
	encoded, err := EncodePayload(TablePredictions, map[string]string{"a": "b"})
	require.NoError(t, err)

	var out map[string]string
	err = DecodePayload(encoded, TableMoodSnapshots, &out)
	assert.ErrorContains(t, err, "expected kind")
}

func TestDecodeRejectsNewerVersion(t *testing.T) {
	future, err := json.Marshal(map[string]interface{}{
		"v":    SchemaVersion + 1,
		"kind": TablePredictions,
		"data": map[string]string{},
	})
	require.NoError(t, err)

	var out map[string]string
	err = DecodePayload(future, TablePredictions, &out)
	assert.ErrorContains(t, err, "newer than supported")
}
