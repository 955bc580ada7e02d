package submodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectFixtures(t *testing.T) {
	sm, err := Parse(readFixture(t, "technical_data.json"))
	require.NoError(t, err)

	tests := []struct {
		content  Content
		expected string
	}{
		{ContentFull, "technical_data.json"},
		{ContentMetadata, "technical_data_metadata.json"},
		{ContentValue, "technical_data_value.json"},
	}

	for _, tt := range tests {
		t.Run(string(tt.content), func(t *testing.T) {
			got, err := Project(sm, tt.content)
			require.NoError(t, err)
			assert.JSONEq(t, string(readFixture(t, tt.expected)), string(got))
		})
	}
}

func TestProjectDoesNotModifyDocument(t *testing.T) {
	sm, err := Parse(readFixture(t, "technical_data.json"))
	require.NoError(t, err)
	before := sm.Bytes()

	_, err = Project(sm, ContentMetadata)
	require.NoError(t, err)
	_, err = Project(sm, ContentValue)
	require.NoError(t, err)

	assert.Equal(t, before, sm.Bytes())
}

func TestProjectWithoutElements(t *testing.T) {
	sm := MustParse(`{"id":"empty","idShort":"Empty"}`)

	meta, err := Project(sm, ContentMetadata)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"empty","idShort":"Empty"}`, string(meta))

	value, err := Project(sm, ContentValue)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(value))
}

func TestProjectValueElementKinds(t *testing.T) {
	sm := MustParse(`{
		"id": "kinds",
		"submodelElements": [
			{"modelType": "SubmodelElementList", "idShort": "Speeds", "value": [
				{"modelType": "Property", "value": "1"},
				{"modelType": "Property", "value": "2"}
			]},
			{"modelType": "RelationshipElement", "idShort": "Rel",
				"first": {"type": "ModelReference", "keys": []},
				"second": {"type": "ExternalReference", "keys": []}},
			{"modelType": "ReferenceElement", "idShort": "Ref",
				"value": {"type": "ExternalReference", "keys": [{"type": "GlobalReference", "value": "x"}]}},
			{"modelType": "Entity", "idShort": "Motor", "entityType": "SelfManagedEntity",
				"globalAssetId": "asset-1",
				"statements": [{"modelType": "Property", "idShort": "Power", "value": "7.5"}]},
			{"modelType": "Blob", "idShort": "Thumb", "contentType": "image/png"},
			{"modelType": "Property", "value": "no idShort"},
			{"modelType": "Range", "idShort": "Unbounded"}
		]
	}`)

	got, err := Project(sm, ContentValue)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"Speeds": ["1", "2"],
		"Rel": {"first": {"type": "ModelReference", "keys": []}, "second": {"type": "ExternalReference", "keys": []}},
		"Ref": {"type": "ExternalReference", "keys": [{"type": "GlobalReference", "value": "x"}]},
		"Motor": {"statements": {"Power": "7.5"}, "entityType": "SelfManagedEntity", "globalAssetId": "asset-1"},
		"Thumb": {"contentType": "image/png"}
	}`, string(got))
}

func TestProjectUnknownContent(t *testing.T) {
	_, err := Project(MustParse(`{"id":"x"}`), Content("reference"))
	assert.ErrorIs(t, err, ErrBadRequest)
}
