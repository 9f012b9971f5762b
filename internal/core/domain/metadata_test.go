package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMetadataFilterUsesPresentValues(t *testing.T) {
	meta := LegalSchema.Defaults()
	meta[FieldLaw] = LawInheritance
	meta[FieldDocType] = DocTypeCode
	meta[FieldCivilCodesUsed] = []string{"Art. 536", "Art. 537"}

	got := BuildMetadataFilter(meta)

	assert.Equal(t, MetadataFilter{
		FieldLaw:            LawInheritance,
		FieldDocType:        DocTypeCode,
		FieldCivilCodesUsed: "Art. 536",
	}, got)
}

func TestFilterTiersAreMonotonic(t *testing.T) {
	metas := []LegalMetadata{
		LegalSchema.Defaults(),
		{FieldLaw: LawDivorce},
		{FieldCountry: "ESTONIA"},
		{FieldLaw: LawDivorce, FieldCountry: "ITALY", FieldDocType: DocTypeCase},
		{FieldLaw: LawInheritance, FieldCountry: "SLOVENIA", FieldCivilCodesUsed: []string{"Art. 1"}},
	}

	for _, meta := range metas {
		tiers := FilterTiers(BuildMetadataFilter(meta))
		full, lawCountry, lawOnly := tiers[0].Filter, tiers[1].Filter, tiers[2].Filter

		assert.True(t, lawOnly.SubsetOf(lawCountry), "law-only ⊆ law+country for %v", meta)
		assert.True(t, lawCountry.SubsetOf(full), "law+country ⊆ full for %v", meta)
	}
}

func TestMetadataFilterMatchesListValues(t *testing.T) {
	filter := MetadataFilter{FieldLaw: LawInheritance, FieldCivilCodesUsed: "Art. 536"}

	assert.True(t, filter.Matches(map[string]any{
		FieldLaw:            LawInheritance,
		FieldCivilCodesUsed: []any{"Art. 535", "Art. 536"},
	}))
	assert.False(t, filter.Matches(map[string]any{
		FieldLaw:            LawInheritance,
		FieldCivilCodesUsed: []any{"Art. 540"},
	}))
	assert.False(t, filter.Matches(map[string]any{FieldLaw: LawInheritance}))
	assert.True(t, MetadataFilter{}.Matches(nil))
}

func TestLegalMetadataJSONKeepsSchemaOrder(t *testing.T) {
	meta := LegalMetadata{
		FieldCivilCodesUsed: []string{},
		FieldCountry:        "ITALY",
		FieldLaw:            LawDivorce,
	}

	assert.Equal(t, `{"law":"Divorce","country":"ITALY","civil_codes_used":[]}`, meta.JSON())
}
