package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
)

type askOptions struct {
	reasoning bool
	topK      int
	rerank    bool
	json      bool
}

func newAskCommand(load Loader) *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a legal question",
		Long: `Runs the full pipeline in-process and prints the answer, the extracted
metadata constraints, the sources and, with --reasoning, the retrieval trace.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := domain.QueryRequest{
				Question:      strings.Join(args, " "),
				ShowReasoning: opts.reasoning,
				TopK:          domain.ClampTopK(opts.topK),
			}
			if cmd.Flags().Changed("rerank") {
				req.UseRerank = &opts.rerank
			}
			return withRuntime(cmd, load, func(rt *Runtime) error {
				answer, err := rt.Service.Answer(cmd.Context(), req)
				if err != nil {
					return fmt.Errorf("answer question: %w", err)
				}
				if opts.json {
					return writeAnswerJSON(cmd, answer, rt.TopKFinal)
				}
				renderAnswer(cmd.OutOrStdout(), answer, rt.TopKFinal)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.reasoning, "reasoning", "r", false, "print the retrieval reasoning trace")
	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 0, "documents retrieved per collection (0 = configured default)")
	cmd.Flags().BoolVar(&opts.rerank, "rerank", false, "rerank retrieved documents by similarity")
	cmd.Flags().BoolVar(&opts.json, "json", false, "output the answer as JSON")
	return cmd
}

func writeAnswerJSON(cmd *cobra.Command, answer *domain.LegalAnswer, maxDocs int) error {
	out := *answer
	out.Documents = capDocuments(answer.Documents, maxDocs)
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func capDocuments(docs []domain.Document, limit int) []domain.Document {
	if limit <= 0 || len(docs) <= limit {
		return docs
	}
	return docs[:limit]
}
