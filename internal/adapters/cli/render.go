package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
	"github.com/kirillkom/legal-rag-assistant/internal/infrastructure/llm"
)

const previewRunes = 160

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.FgBlue)
	errorColor   = color.New(color.FgRed)
	mutedColor   = color.New(color.FgHiBlack)
	okColor      = color.New(color.FgGreen)
)

func renderAnswer(w io.Writer, answer *domain.LegalAnswer, maxDocs int) {
	headingColor.Fprintln(w, "Answer")
	if llm.IsErrorText(answer.Answer) {
		errorColor.Fprintln(w, answer.Answer)
	} else {
		fmt.Fprintln(w, answer.Answer)
	}

	fmt.Fprintln(w)
	headingColor.Fprintln(w, "Constraints")
	fmt.Fprintln(w, domain.LegalSchema.FormatConstraints(answer.Metadata))

	fmt.Fprintln(w)
	labelColor.Fprint(w, "Collections: ")
	if len(answer.Collections) == 0 {
		mutedColor.Fprintln(w, "none")
	} else {
		fmt.Fprintln(w, strings.Join(answer.Collections, ", "))
	}

	docs := capDocuments(answer.Documents, maxDocs)
	fmt.Fprintln(w)
	headingColor.Fprintf(w, "Sources (%d)\n", len(docs))
	if len(docs) == 0 {
		mutedColor.Fprintln(w, "No documents were retrieved.")
	}
	for i, doc := range docs {
		source := doc.Source
		if source == "" {
			source = "unknown"
		}
		labelColor.Fprintf(w, "%2d. %s", i+1, source)
		mutedColor.Fprintf(w, " [%s]\n", doc.DBName)
		fmt.Fprintf(w, "    %s\n", preview(doc.Content))
	}

	if answer.Reasoning != "" {
		fmt.Fprintln(w)
		headingColor.Fprintln(w, "Reasoning")
		fmt.Fprintln(w, answer.Reasoning)
	}
}

func renderCollections(w io.Writer, infos []domain.CollectionInfo) {
	if len(infos) == 0 {
		mutedColor.Fprintln(w, "No collections configured.")
		return
	}
	for _, info := range infos {
		headingColor.Fprint(w, info.Name)
		if info.Available {
			okColor.Fprintln(w, " (available)")
		} else {
			errorColor.Fprintln(w, " (unavailable)")
		}
		mutedColor.Fprintf(w, "  %s\n", info.Location)
		fmt.Fprintf(w, "  %s\n", info.Description)
	}
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "..."
}
