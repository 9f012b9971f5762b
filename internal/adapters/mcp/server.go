// Package mcpadapter exposes the legal pipeline as Model Context Protocol tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
	"github.com/kirillkom/legal-rag-assistant/internal/core/ports"
)

const (
	ServerName = "legal-rag-assistant"

	toolLegalQuery  = "legal_query"
	toolCollections = "legal_collections"
)

type Server struct {
	service   ports.LegalQueryService
	topKFinal int
	mcp       *server.MCPServer
}

func NewServer(service ports.LegalQueryService, topKFinal int, version string) *Server {
	s := &Server{
		service:   service,
		topKFinal: topKFinal,
		mcp:       server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool(toolLegalQuery,
		mcp.WithDescription("Answer an inheritance or divorce law question from the configured legal collections."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The legal question in natural language.")),
		mcp.WithBoolean("show_reasoning", mcp.Description("Include the retrieval reasoning trace.")),
		mcp.WithNumber("top_k",
			mcp.Description("Documents retrieved per collection."),
			mcp.Min(1),
			mcp.Max(domain.MaxRequestTopK),
		),
		mcp.WithBoolean("use_rerank", mcp.Description("Rerank retrieved documents by similarity.")),
	), s.handleLegalQuery)

	s.mcp.AddTool(mcp.NewTool(toolCollections,
		mcp.WithDescription("List the configured legal collections with their routing descriptions."),
	), s.handleCollections)

	return s
}

// ServeStdio serves MCP over the given streams until ctx is done or in is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) handleLegalQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("question is required"), nil
	}

	req := domain.QueryRequest{
		Question:      question,
		ShowReasoning: request.GetBool("show_reasoning", false),
		TopK:          domain.ClampTopK(request.GetInt("top_k", 0)),
	}
	if args := request.GetArguments(); args != nil {
		if _, ok := args["use_rerank"]; ok {
			useRerank := request.GetBool("use_rerank", false)
			req.UseRerank = &useRerank
		}
	}

	answer, err := s.service.Answer(ctx, req)
	if err != nil {
		if domain.IsKind(err, domain.ErrInvalidInput) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, fmt.Errorf("legal query: %w", err)
	}

	slog.Info("legal_query_answered",
		"endpoint", "mcp",
		"law", answer.Metadata.Law(),
		"collections", answer.Collections,
		"documents", len(answer.Documents),
	)
	return mcp.NewToolResultText(formatAnswer(answer, s.topKFinal)), nil
}

func (s *Server) handleCollections(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos, err := s.service.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	payload, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode collections: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// formatAnswer renders the answer followed by its sources and optional trace.
func formatAnswer(answer *domain.LegalAnswer, maxDocs int) string {
	var b strings.Builder
	b.WriteString(answer.Answer)

	docs := answer.Documents
	if maxDocs > 0 && len(docs) > maxDocs {
		docs = docs[:maxDocs]
	}
	if len(answer.Collections) > 0 {
		fmt.Fprintf(&b, "\n\nCollections: %s", strings.Join(answer.Collections, ", "))
	}
	if len(docs) > 0 {
		b.WriteString("\n\nSources:")
		for i, doc := range docs {
			source := doc.Source
			if source == "" {
				source = "unknown"
			}
			fmt.Fprintf(&b, "\n%d. %s (%s)", i+1, source, doc.DBName)
		}
	}
	if answer.Reasoning != "" {
		b.WriteString("\n\n")
		b.WriteString(answer.Reasoning)
	}
	return b.String()
}
