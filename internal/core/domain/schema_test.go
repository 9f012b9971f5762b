package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegalSchemaDefaultsCoverEveryField(t *testing.T) {
	defaults := LegalSchema.Defaults()

	require.Len(t, defaults, len(LegalSchema.Fields()))
	for _, f := range LegalSchema.Fields() {
		v, ok := defaults[f.Name]
		require.True(t, ok, "missing default for %s", f.Name)
		if f.Type == FieldArray {
			assert.Equal(t, []string{}, v, f.Name)
			continue
		}
		assert.Nil(t, v, f.Name)
	}
}

func TestLegalSchemaHasSingleRequiredField(t *testing.T) {
	var required []string
	for _, f := range LegalSchema.Fields() {
		if f.Required {
			required = append(required, f.Name)
		}
	}
	assert.Equal(t, []string{FieldLaw}, required)
}

func TestConformNormalizesCountryAndDocType(t *testing.T) {
	cases := []struct {
		country     any
		docType     any
		wantCountry any
		wantDocType any
	}{
		{" it ", "Sentenza", "ITALY", DocTypeCase},
		{"Italia", "civil code", "ITALY", DocTypeCode},
		{"ee", "ARTICLE", "ESTONIA", DocTypeCode},
		{"SI", "judgment", "SLOVENIA", DocTypeCase},
		{"France", "statute", nil, nil},
		{"", "", nil, nil},
		{42.0, true, nil, nil},
	}

	for _, tc := range cases {
		got := LegalSchema.Conform(map[string]any{
			FieldCountry: tc.country,
			FieldDocType: tc.docType,
		})
		assert.Equal(t, tc.wantCountry, got[FieldCountry], "country %v", tc.country)
		assert.Equal(t, tc.wantDocType, got[FieldDocType], "doc_type %v", tc.docType)
	}
}

func TestConformCoercesTypedFields(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"law": "divorce",
		"number_of_persons_involved": 3,
		"presence_of_children": "yes",
		"civil_codes_used": ["Art. 536", "", "Art. 537"],
		"testamentary_clauses": null,
		"disputed_issues": ["Division of assets", "something else"],
		"marital_regime": "Community of Property",
		"nature_of_separation": "amicable",
		"cost": 1500,
		"unknown_field": "dropped"
	}`), &raw))

	got := LegalSchema.Conform(raw)

	assert.Equal(t, LawDivorce, got[FieldLaw])
	assert.Equal(t, 3, got[FieldNumberOfPersonsInvolved])
	assert.Equal(t, true, got[FieldPresenceOfChildren])
	assert.Equal(t, []string{"Art. 536", "Art. 537"}, got[FieldCivilCodesUsed])
	assert.Equal(t, []string{}, got[FieldTestamentaryClauses])
	assert.Equal(t, []string{"division of assets"}, got[FieldDisputedIssues])
	assert.Equal(t, "community of property", got[FieldMaritalRegime])
	assert.Nil(t, got[FieldNatureOfSeparation])
	assert.Equal(t, "1500", got[FieldCost])
	assert.NotContains(t, got, "unknown_field")
}

func TestConformRejectsFractionalInteger(t *testing.T) {
	got := LegalSchema.Conform(map[string]any{FieldNumberOfPersonsInvolved: 2.5})
	assert.Nil(t, got[FieldNumberOfPersonsInvolved])
}

func TestJSONSchemaIsValidJSONInDeclarationOrder(t *testing.T) {
	rendered := LegalSchema.JSONSchema()

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(rendered), &parsed))
	assert.Equal(t, []any{FieldLaw}, parsed["required"])

	props, ok := parsed["properties"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, props, len(LegalSchema.Fields()))

	law, ok := props[FieldLaw].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{LawInheritance, LawDivorce}, law["enum"])

	assert.Less(t, indexOf(rendered, `"law"`), indexOf(rendered, `"civil_codes_used"`))
}

func TestFormatConstraintsOmitsEmptyValues(t *testing.T) {
	meta := LegalSchema.Defaults()
	meta[FieldLaw] = LawDivorce
	meta[FieldCountry] = "ITALY"
	meta[FieldPresenceOfChildren] = true
	meta[FieldCivilCodesUsed] = []string{"Art. 151", "Art. 155"}

	got := LegalSchema.FormatConstraints(meta)

	assert.Equal(t, "law: Divorce; country: ITALY; presence_of_children: true; civil_codes_used: [Art. 151, Art. 155]", got)
}

func TestFormatConstraintsAlwaysEmitsLaw(t *testing.T) {
	assert.Equal(t, "law: null", LegalSchema.FormatConstraints(LegalSchema.Defaults()))
	assert.Equal(t, "law: null", LegalSchema.FormatConstraints(LegalMetadata{}))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
