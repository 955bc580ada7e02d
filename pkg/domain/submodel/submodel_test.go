package submodel

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantID  string
		wantErr bool
	}{
		{"minimal", `{"id":"newSubmodel"}`, "newSubmodel", false},
		{"with model type", `{"id":"sm-1","modelType":"Submodel","idShort":"sm"}`, "sm-1", false},
		{"urn id", `{"id":"urn:example:submodel:1"}`, "urn:example:submodel:1", false},
		{"not json", `{"id":`, "", true},
		{"array", `[{"id":"x"}]`, "", true},
		{"missing id", `{"idShort":"x"}`, "", true},
		{"empty id", `{"id":""}`, "", true},
		{"numeric id", `{"id":42}`, "", true},
		{"wrong model type", `{"id":"x","modelType":"AssetAdministrationShell"}`, "", true},
		{"non-string idShort", `{"id":"x","idShort":5}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm, err := Parse([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrBadRequest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, sm.ID())
			assert.JSONEq(t, tt.input, string(sm.Bytes()))
		})
	}
}

func TestParseCopiesInput(t *testing.T) {
	data := []byte(`{"id":"abc"}`)
	sm, err := Parse(data)
	require.NoError(t, err)

	data[7] = 'x'
	assert.Equal(t, `{"id":"abc"}`, string(sm.Bytes()))

	out := sm.Bytes()
	out[0] = '['
	assert.Equal(t, `{"id":"abc"}`, string(sm.Bytes()))
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse(`{}`) })
	assert.NotPanics(t, func() { MustParse(`{"id":"ok"}`) })
}

func TestParseFixture(t *testing.T) {
	sm, err := Parse(readFixture(t, "technical_data.json"))
	require.NoError(t, err)
	assert.Equal(t, "7A7104BDAB57E184", sm.ID())
}
