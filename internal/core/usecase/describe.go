package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
	"github.com/kirillkom/legal-rag-assistant/internal/core/ports"
)

const (
	unavailableCollectionDescription = "Database could not be loaded."
	emptyCollectionDescription       = "general legal corpus."
)

// describeCollections samples stored metadata per collection. Collections that
// fail to open are reported unavailable and get no routing description.
func describeCollections(
	ctx context.Context,
	opener ports.IndexOpener,
	collections domain.CollectionMap,
	sampleSize int,
) []domain.CollectionInfo {
	out := make([]domain.CollectionInfo, 0, collections.Len())
	for _, c := range collections.Collections() {
		info := domain.CollectionInfo{Collection: c}

		index, err := opener.Open(ctx, c.Location)
		if err != nil {
			info.Description = unavailableCollectionDescription
			out = append(out, info)
			continue
		}
		info.Available = true

		sample, err := index.Sample(ctx, sampleSize)
		if err != nil {
			sample = nil
		}
		info.Description = summarizeSample(sample)
		out = append(out, info)
	}
	return out
}

func summarizeSample(docs []domain.Document) string {
	countries := map[string]struct{}{}
	laws := map[string]struct{}{}
	docTypes := map[string]struct{}{}
	subjects := map[string]struct{}{}

	for _, d := range docs {
		addMetadataValue(countries, d, domain.FieldCountry)
		addMetadataValue(laws, d, domain.FieldLaw)
		addMetadataValue(docTypes, d, domain.FieldDocType)
		addMetadataValue(subjects, d, domain.FieldSubjectOfSuccession)
	}

	parts := make([]string, 0, 4)
	for _, part := range []struct {
		label  string
		values map[string]struct{}
	}{
		{"country", countries},
		{"law", laws},
		{"doc_type", docTypes},
		{"subject", subjects},
	} {
		if len(part.values) == 0 {
			continue
		}
		parts = append(parts, part.label+": "+strings.Join(sortedKeys(part.values), ", "))
	}
	if len(parts) == 0 {
		return emptyCollectionDescription
	}
	return strings.Join(parts, "; ")
}

func addMetadataValue(set map[string]struct{}, d domain.Document, key string) {
	if _, ok := d.Metadata[key]; !ok {
		return
	}
	set[d.MetadataString(key)] = struct{}{}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func routingDescriptions(infos []domain.CollectionInfo) map[string]string {
	out := make(map[string]string, len(infos))
	for _, info := range infos {
		if info.Available {
			out[info.Name] = info.Description
		}
	}
	return out
}
