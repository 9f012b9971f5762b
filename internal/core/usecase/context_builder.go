package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
)

// BuildContext concatenates documents with headers until the next whole
// document would exceed maxChars.
func BuildContext(docs []domain.Document, maxChars int) string {
	if maxChars <= 0 {
		maxChars = domain.DefaultContextMaxChars
	}

	var b strings.Builder
	total := 0
	for i, d := range docs {
		piece := contextHeader(i+1, d) + d.Content + "\n\n"
		size := utf8.RuneCountInString(piece)
		if total+size > maxChars {
			break
		}
		b.WriteString(piece)
		total += size
	}
	return b.String()
}

func contextHeader(n int, d domain.Document) string {
	prefix := ""
	if d.DBName != "" {
		prefix = fmt.Sprintf("[DB: %s] ", d.DBName)
	}
	return fmt.Sprintf("[DOC %d | %ssource: %s]\n", n, prefix, documentSource(d))
}

func documentSource(d domain.Document) string {
	if d.Source != "" {
		return d.Source
	}
	if src := d.MetadataString("source"); src != "" {
		return src
	}
	return "unknown"
}
