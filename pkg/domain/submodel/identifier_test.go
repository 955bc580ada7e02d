package submodel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ids := []string{
		"7A7104BDAB57E184",
		"newSubmodel",
		"https://example.com/ids/sm/1234_5678",
		"urn:example:submodel?x=1&y=2",
		"ü-ö-ä ✓",
		"a",
	}

	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			token := EncodeID(id)
			assert.NotContains(t, token, "/")
			assert.NotContains(t, token, "+")
			assert.NotContains(t, token, "=")

			decoded, err := DecodeID(token)
			require.NoError(t, err)
			assert.Equal(t, id, decoded)
		})
	}
}

func TestDecodeIDAcceptsPadding(t *testing.T) {
	// "a" encodes to "YQ" unpadded, "YQ==" padded.
	decoded, err := DecodeID("YQ==")
	require.NoError(t, err)
	assert.Equal(t, "a", decoded)
}

func TestDecodeIDInvalid(t *testing.T) {
	for _, token := range []string{"", "Y", "not base64!", "a/b+c", "===="} {
		t.Run(token, func(t *testing.T) {
			_, err := DecodeID(token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrBadRequest))
		})
	}
}

func TestParseContent(t *testing.T) {
	tests := []struct {
		input   string
		want    Content
		wantErr bool
	}{
		{"", ContentFull, false},
		{"normal", ContentFull, false},
		{"full", ContentFull, false},
		{"metadata", ContentMetadata, false},
		{"value", ContentValue, false},
		{"reference", "", true},
		{"VALUE", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseContent(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
