package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
)

var (
	inheritanceRouteKeywords = []string{"inherit", "succession", "successione", "eredit"}
	divorceRouteKeywords     = []string{"divorce", "divorz", "separat", "separazione"}

	docTypeRouteKeywords = map[string][]string{
		domain.DocTypeCase: {"case", "cases"},
		domain.DocTypeCode: {"code", "codes"},
	}
)

// RouteCollections narrows the searchable collections by law and then by
// doc_type keywords over name plus description. It never returns an empty
// set while collections is non-empty.
func RouteCollections(
	meta domain.LegalMetadata,
	collections domain.CollectionMap,
	descriptions map[string]string,
) ([]string, string) {
	all := collections.Names()

	law := meta.Law()
	if law == "" {
		return all, "Heuristic DB selection: no 'law' → using all DBs."
	}

	lawKeywords := routeKeywordsForLaw(law)
	if lawKeywords == nil {
		return all, fmt.Sprintf("Heuristic DB selection: law='%s' not recognized → using all DBs.", law)
	}

	logLines := []string{fmt.Sprintf("Heuristic DB selection: law='%s' → keywords=%v.", law, lawKeywords)}

	candidates := matchCollections(all, descriptions, lawKeywords)
	if len(candidates) == 0 {
		logLines = append(logLines, "No DB matched law keywords → fallback to all DBs.")
		candidates = all
	} else {
		logLines = append(logLines, "Matched DBs by law → "+strings.Join(candidates, ", "))
	}

	docType := meta.DocType()
	if dtKeywords, ok := docTypeRouteKeywords[docType]; ok {
		narrowed := matchCollections(candidates, descriptions, dtKeywords)
		if len(narrowed) > 0 {
			logLines = append(logLines, fmt.Sprintf("doc_type='%s' → keeping only DBs matching %v: %s",
				docType, dtKeywords, strings.Join(narrowed, ", ")))
			candidates = narrowed
		} else {
			logLines = append(logLines, fmt.Sprintf("doc_type='%s' matched no DB names/descriptions → keeping previous candidates.", docType))
		}
	}

	return candidates, strings.Join(logLines, "\n")
}

func routeKeywordsForLaw(law string) []string {
	lower := strings.ToLower(law)
	switch {
	case strings.Contains(lower, "inherit"):
		return inheritanceRouteKeywords
	case strings.Contains(lower, "divorce"):
		return divorceRouteKeywords
	default:
		return nil
	}
}

func matchCollections(names []string, descriptions map[string]string, keywords []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		text := strings.ToLower(name + " " + descriptions[name])
		if containsAny(text, keywords) {
			out = append(out, name)
		}
	}
	return out
}
