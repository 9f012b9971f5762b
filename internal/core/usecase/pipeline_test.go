package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
)

func legalSettings(locations ...string) domain.PipelineSettings {
	return domain.PipelineSettings{
		TopK:                2,
		SimilarityThreshold: 0.1,
		LLMProvider:         "ollama",
		LLMModel:            "llama3.1:8b",
		Collections:         locations,
	}
}

func divorceItalyDoc(content string) domain.Document {
	return domain.Document{
		Content: content,
		Source:  content + ".pdf",
		Metadata: map[string]any{
			domain.FieldLaw:     domain.LawDivorce,
			domain.FieldCountry: "ITALY",
			domain.FieldDocType: domain.DocTypeCase,
		},
	}
}

func TestPipelineDivorceItalyScenario(t *testing.T) {
	divorceIndex := &indexFake{
		byFilter: map[string][]domain.Document{
			lawCountryFilter.String(): {divorceItalyDoc("Cass. 2019 divorce ruling"), divorceItalyDoc("Trib. Roma custody")},
		},
		sample: []domain.Document{divorceItalyDoc("sample")},
	}
	inheritanceIndex := &indexFake{byFilter: map[string][]domain.Document{}}
	opener := &openerFake{indexes: map[string]*indexFake{
		"store/divorce_it":     divorceIndex,
		"store/inheritance_si": inheritanceIndex,
	}}
	chat := &chatFake{
		extraction: `{"law": "Divorce", "country": "Italia", "presence_of_children": true}`,
		answer:     "In Italy a judicial divorce usually takes one to three years.",
	}
	pipeline := NewLegalPipeline(chat, scenarioEmbedder(), opener, legalSettings("store/divorce_it", "store/inheritance_si"))

	result, err := pipeline.Answer(context.Background(), domain.QueryRequest{
		Question:      "How long does a divorce with children take in Italy?",
		ShowReasoning: true,
	})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if len(chat.callsWithSystem(lawClassificationSystemPrompt)) != 0 {
		t.Fatalf("expected heuristic classification without model call")
	}
	if result.Metadata.Law() != domain.LawDivorce || result.Metadata.Country() != "ITALY" {
		t.Fatalf("unexpected metadata %v", result.Metadata)
	}
	if !equalStrings(result.Collections, []string{"divorce_it"}) {
		t.Fatalf("expected routing to divorce_it, got %v", result.Collections)
	}
	if inheritanceIndex.searchCount() != 0 {
		t.Fatalf("inheritance collection should not be searched")
	}
	if result.Answer == "" {
		t.Fatalf("expected non-empty answer")
	}
	if len(result.Documents) != 2 || result.Documents[0].DBName != "divorce_it" {
		t.Fatalf("unexpected documents %+v", result.Documents)
	}

	final := chat.callsWithSystem("You are a legal assistant")
	if len(final) != 1 {
		t.Fatalf("expected one generation call, got %d", len(final))
	}
	prompt := final[0].user
	if !strings.Contains(prompt, "law: Divorce; country: ITALY; presence_of_children: true") {
		t.Fatalf("expected constraint string in prompt: %s", prompt)
	}
	if !strings.Contains(prompt, "[DOC 1 | [DB: divorce_it] source: Cass. 2019 divorce ruling.pdf]") {
		t.Fatalf("expected context header in prompt: %s", prompt)
	}
	for _, section := range []string{"Databases used: divorce_it", "Total documents used as context: 2", "DB routing log:", "Configuration:"} {
		if !strings.Contains(result.Reasoning, section) {
			t.Fatalf("reasoning missing %q:\n%s", section, result.Reasoning)
		}
	}
}

func TestPipelineUnparseableModelScenario(t *testing.T) {
	alpha := &indexFake{byFilter: map[string][]domain.Document{}}
	beta := &indexFake{byFilter: map[string][]domain.Document{}}
	opener := &openerFake{indexes: map[string]*indexFake{"store/alpha": alpha, "store/beta": beta}}
	chat := &chatFake{classification: "hmm", extraction: "not json at all", answer: "General explanation."}
	pipeline := NewLegalPipeline(chat, scenarioEmbedder(), opener, legalSettings("store/alpha", "store/beta"))

	result, err := pipeline.Answer(context.Background(), domain.QueryRequest{Question: "What does article 12 say?"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if result.Metadata.Law() != domain.LawInheritance {
		t.Fatalf("expected Inheritance, got %v", result.Metadata[domain.FieldLaw])
	}
	if !equalStrings(result.Collections, []string{"alpha", "beta"}) {
		t.Fatalf("expected all collections, got %v", result.Collections)
	}
	if len(result.Documents) != 0 {
		t.Fatalf("expected no documents, got %d", len(result.Documents))
	}
	final := chat.callsWithSystem("You are a legal assistant")
	if len(final) != 1 {
		t.Fatalf("expected one generation call, got %d", len(final))
	}
	if strings.Contains(final[0].user, "Context from retrieved documents") {
		t.Fatalf("context section must be omitted when empty")
	}
	if !strings.Contains(final[0].user, "law: Inheritance") {
		t.Fatalf("expected law constraint in prompt: %s", final[0].user)
	}
	if result.Reasoning != "" {
		t.Fatalf("reasoning not requested")
	}
}

func TestPipelineUnavailableCollectionStaysRoutable(t *testing.T) {
	present := &indexFake{byFilter: map[string][]domain.Document{
		lawOnlyFilter.String(): docsNamed("x1", "x2"),
	}}
	opener := &openerFake{indexes: map[string]*indexFake{"store/divorce_ok": present}}
	chat := &chatFake{extraction: "{}", answer: "ok"}
	pipeline := NewLegalPipeline(chat, scenarioEmbedder(), opener, legalSettings("store/divorce_missing", "store/divorce_ok"))

	result, err := pipeline.Answer(context.Background(), domain.QueryRequest{Question: "divorce procedure", ShowReasoning: true})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !equalStrings(result.Collections, []string{"divorce_missing", "divorce_ok"}) {
		t.Fatalf("expected both collections routed, got %v", result.Collections)
	}
	if !equalStrings(contents(result.Documents), []string{"x1", "x2"}) {
		t.Fatalf("unexpected documents %v", contents(result.Documents))
	}
	if opener.opens["store/divorce_missing"] != 1 {
		t.Fatalf("expected a single open attempt per query, got %d", opener.opens["store/divorce_missing"])
	}
	if !strings.Contains(result.Reasoning, "divorce_missing: path=store/divorce_missing | Database could not be loaded.") {
		t.Fatalf("expected unavailable collection in configuration log:\n%s", result.Reasoning)
	}
}

func TestPipelineParallelRetrievalKeepsRoutingOrder(t *testing.T) {
	indexes := map[string]*indexFake{}
	locations := []string{}
	for _, name := range []string{"divorce_a", "divorce_b", "divorce_c", "divorce_d", "divorce_e"} {
		indexes["store/"+name] = &indexFake{byFilter: map[string][]domain.Document{
			lawOnlyFilter.String(): docsNamed(name + "-1"),
		}}
		locations = append(locations, "store/"+name)
	}
	settings := legalSettings(locations...)
	settings.ParallelRetrieval = true
	settings.TopK = 1
	pipeline := NewLegalPipeline(&chatFake{extraction: "{}", answer: "ok"}, scenarioEmbedder(), &openerFake{indexes: indexes}, settings)

	result, err := pipeline.Answer(context.Background(), domain.QueryRequest{Question: "divorce"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	want := []string{"divorce_a-1", "divorce_b-1", "divorce_c-1", "divorce_d-1", "divorce_e-1"}
	if !equalStrings(contents(result.Documents), want) {
		t.Fatalf("expected %v, got %v", want, contents(result.Documents))
	}
}

func TestPipelineRequestOverrides(t *testing.T) {
	index := &indexFake{byFilter: map[string][]domain.Document{
		lawOnlyFilter.String(): docsNamed("d1", "d2", "d3", "d4", "d5"),
	}}
	pipeline := NewLegalPipeline(
		&chatFake{extraction: "{}", answer: "ok"},
		scenarioEmbedder(),
		&openerFake{indexes: map[string]*indexFake{"store/divorce": index}},
		legalSettings("store/divorce"),
	)
	rerank := true

	result, err := pipeline.Answer(context.Background(), domain.QueryRequest{Question: "divorce", TopK: 3, UseRerank: &rerank})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !equalStrings(contents(result.Documents), []string{"d3", "d5", "d2"}) {
		t.Fatalf("expected reranked top 3, got %v", contents(result.Documents))
	}
	if pipeline.Settings().TopK != 2 || pipeline.Settings().UseRerank {
		t.Fatalf("request overrides must not change stored settings")
	}
}

func TestPipelineRejectsEmptyQuestion(t *testing.T) {
	pipeline := NewLegalPipeline(&chatFake{}, scenarioEmbedder(), &openerFake{}, legalSettings())

	_, err := pipeline.Answer(context.Background(), domain.QueryRequest{Question: "   "})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestPipelineCollectionsDescribesSamples(t *testing.T) {
	index := &indexFake{sample: []domain.Document{
		{Metadata: map[string]any{domain.FieldLaw: domain.LawInheritance, domain.FieldCountry: "SLOVENIA", domain.FieldSubjectOfSuccession: "real estate"}},
		{Metadata: map[string]any{domain.FieldLaw: domain.LawInheritance, domain.FieldCountry: "ITALY", domain.FieldDocType: domain.DocTypeCode}},
		{Metadata: map[string]any{}},
	}}
	empty := &indexFake{}
	opener := &openerFake{indexes: map[string]*indexFake{"s/inh": index, "s/empty": empty}}
	pipeline := NewLegalPipeline(&chatFake{}, scenarioEmbedder(), opener, legalSettings("s/inh", "s/empty", "s/missing"))

	infos, err := pipeline.Collections(context.Background())
	if err != nil {
		t.Fatalf("Collections() error = %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("expected 3 collections, got %d", len(infos))
	}
	if infos[0].Description != "country: ITALY, SLOVENIA; law: Inheritance; doc_type: code; subject: real estate" {
		t.Fatalf("unexpected description %q", infos[0].Description)
	}
	if infos[1].Description != "general legal corpus." || !infos[1].Available {
		t.Fatalf("unexpected empty collection info %+v", infos[1])
	}
	if infos[2].Available || infos[2].Description != "Database could not be loaded." {
		t.Fatalf("unexpected missing collection info %+v", infos[2])
	}
}

func TestBuildContextCutsAtWholeDocuments(t *testing.T) {
	docs := []domain.Document{
		{Content: strings.Repeat("a", 30), Source: "s1", DBName: "db"},
		{Content: strings.Repeat("b", 30), Source: "s2"},
		{Content: "c", Source: "s3"},
	}
	first := "[DOC 1 | [DB: db] source: s1]\n" + strings.Repeat("a", 30) + "\n\n"
	second := "[DOC 2 | source: s2]\n" + strings.Repeat("b", 30) + "\n\n"

	if got := BuildContext(docs, len(first)+len(second)-1); got != first {
		t.Fatalf("expected only first document, got %q", got)
	}
	if got := BuildContext(docs, len(first)+len(second)); got != first+second {
		t.Fatalf("expected two documents, got %q", got)
	}
	if got := BuildContext(docs, 5); got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}
}

func TestPipelineClampsRequestTopK(t *testing.T) {
	index := &indexFake{byFilter: map[string][]domain.Document{}}
	pipeline := NewLegalPipeline(
		&chatFake{extraction: "{}", answer: "ok"},
		scenarioEmbedder(),
		&openerFake{indexes: map[string]*indexFake{"store/divorce": index}},
		legalSettings("store/divorce"),
	)

	if _, err := pipeline.Answer(context.Background(), domain.QueryRequest{Question: "divorce", TopK: 1 << 30}); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if index.searchCount() == 0 {
		t.Fatalf("expected retrieval")
	}
	for _, call := range index.calls {
		if call.k != 3*domain.MaxRequestTopK {
			t.Fatalf("expected search k bounded by %d, got %d", 3*domain.MaxRequestTopK, call.k)
		}
	}
}
