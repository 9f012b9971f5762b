package usecase

import (
	"fmt"
	"strings"
)

const lawClassificationSystemPrompt = "You are a classifier for Italian civil law queries.\n" +
	"Given a user question, you MUST decide if it is about succession/inheritance or about divorce/separation.\n" +
	"Return ONLY one of these strings:\n" +
	"- 'Inheritance'\n" +
	"- 'Divorce'\n" +
	"If you are unsure, pick the most plausible."

const answerSystemPrompt = "You are a legal assistant for Italian civil law, focusing on inheritance (succession) " +
	"and divorce cases.\n" +
	"You receive:\n" +
	"1) The user's natural language question.\n" +
	"2) A structured metadata string extracted from the question.\n" +
	"3) Context from retrieved legal documents (if available).\n\n" +
	"Use the metadata as constraints (especially law/country/doc_type when present), " +
	"and treat retrieved documents as primary factual support.\n" +
	"Do NOT reveal your internal chain-of-thought; provide only a clear final answer."

func lawClassificationUserPrompt(question string) string {
	return fmt.Sprintf("Question:\n%s\n\nAnswer with 'Inheritance' or 'Divorce' only.", question)
}

func extractionSystemPrompt(schemaJSON, law string) string {
	var b strings.Builder
	b.WriteString("You are a legal metadata extraction assistant for Italian civil law cases.\n")
	b.WriteString("Given a natural language user query or case description, you must extract ")
	b.WriteString("a concise JSON object that conforms EXACTLY to the following JSON schema:\n\n")
	b.WriteString(schemaJSON)
	b.WriteString("\n\nImportant rules:\n")
	fmt.Fprintf(&b, "- 'law' is MANDATORY and MUST be exactly '%s'.\n", law)
	b.WriteString("- If 'country' is inferable, it MUST be exactly one of: 'ITALY', 'ESTONIA', 'SLOVENIA'; otherwise null.\n")
	b.WriteString("- If the user clearly asks for codes vs cases, set 'doc_type' to 'code' or 'case'; otherwise null.\n")
	b.WriteString("- If a field is not clearly inferable, set it to null (or [] for arrays).\n")
	b.WriteString("- 'cost' and 'financial_support' must be a value followed by '€' if an amount is mentioned, otherwise null.\n")
	b.WriteString("- 'duration' and 'duration_of_marriage' must use only years or months (e.g. '2 years', '6 months').\n")
	b.WriteString("- 'civil_codes_used' must be an array of strings like 'Art. 536'.\n")
	b.WriteString("- OUTPUT: ONLY the JSON object, with no explanation, no markdown.")
	return b.String()
}

func extractionUserPrompt(question string) string {
	return fmt.Sprintf("Text:\n%s\n\nReturn ONLY the JSON object.", question)
}

func answerUserPrompt(question, constraints, contextText string) string {
	parts := []string{
		"User question:\n" + question,
		"Structured metadata extracted from the user query (constraints):\n" + constraints,
	}
	if contextText != "" {
		parts = append(parts, "Context from retrieved documents (primary legal reference):\n"+contextText)
	}
	parts = append(parts, "Provide a clear, concise answer, explicitly stating when something is a general explanation "+
		"vs supported by the retrieved documents.")
	return strings.Join(parts, "\n\n")
}
