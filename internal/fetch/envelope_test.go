package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCollection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr string
	}{
		{name: "bare array", input: `[{"id":"1"},{"id":"2"}]`, want: 2},
		{name: "empty array", input: `[]`, want: 0},
		{name: "success envelope", input: `{"success":true,"data":[{"id":"1"}]}`, want: 1},
		{name: "success without data", input: `{"success":true}`, want: 0},
		{name: "unsuccessful envelope", input: `{"success":false}`, want: 0},
		{name: "empty body", input: ``, want: 0},
		{name: "error envelope", input: `{"error":"database down"}`, wantErr: "database down"},
		{name: "malformed json", input: `[{"id":`, wantErr: "failed to decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities, err := DecodeCollection([]byte(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, entities, "collection result must never be nil")
			assert.Len(t, entities, tt.want)
		})
	}
}

func TestDecodeEntity(t *testing.T) {
	entity, err := DecodeEntity([]byte(`{"id":"m1","name":"Ana"}`))
	require.NoError(t, err)
	assert.Equal(t, "Ana", entity["name"])
}

func TestDecodeEntityErrorEnvelope(t *testing.T) {
	_, err := DecodeEntity([]byte(`{"error":"not found"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDecodeEntityEmptyBody(t *testing.T) {
	_, err := DecodeEntity([]byte(""))
	assert.Error(t, err)
}
