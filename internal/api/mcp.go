package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Priyank-Malviya/spacebot/internal/pipeline"
	"github.com/Priyank-Malviya/spacebot/internal/retrieval"
)

// MCPRetriever abstracts chunk search for the MCP layer.
type MCPRetriever interface {
	Retrieve(ctx context.Context, question string) ([]retrieval.Chunk, error)
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Bot       *pipeline.Bot
	Retriever MCPRetriever
}

// NewMCPServer creates an MCP server exposing the question-answering pipeline
// as tools, plus the conversation log as a resource.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"spacebot",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("spacebot answers questions about a space exploration document using retrieval-augmented generation."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask_spacebot",
			mcp.WithDescription("Ask a question about the space exploration document and get a grounded answer."),
			mcp.WithString("question", mcp.Description("The question to answer"), mcp.Required()),
		),
		mcpAsk(deps),
	)

	s.AddTool(
		mcp.NewTool("search_corpus",
			mcp.WithDescription("Search the indexed document and return the most relevant chunks without generating an answer."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
		),
		mcpSearch(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"spacebot://history",
			"Conversation Log",
			mcp.WithResourceDescription("All question/answer exchanges from this session as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceHistory(deps),
	)

	return s
}

func mcpAsk(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}

		ans, err := deps.Bot.Ask(ctx, question)
		if err != nil {
			return mcpError(fmt.Sprintf("ask failed: %v", err)), nil
		}

		return mcpText(ans.Text), nil
	}
}

func mcpSearch(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		chunks, err := deps.Retriever.Retrieve(ctx, query)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}

		if len(chunks) == 0 {
			return mcpText("[]"), nil
		}

		type chunkResult struct {
			Index int     `json:"index"`
			Text  string  `json:"text"`
			Score float32 `json:"score"`
		}

		results := make([]chunkResult, len(chunks))
		for i, c := range chunks {
			results[i] = chunkResult{Index: c.Index, Text: c.Text, Score: c.Score}
		}

		b, err := json.Marshal(results)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

func mcpResourceHistory(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		type exchange struct {
			Question string `json:"question"`
			Answer   string `json:"answer"`
			AskedAt  string `json:"asked_at"`
		}

		entries := deps.Bot.History()
		out := make([]exchange, len(entries))
		for i, e := range entries {
			out[i] = exchange{
				Question: e.Question,
				Answer:   e.Answer,
				AskedAt:  e.AskedAt.Format(time.RFC3339),
			}
		}

		b, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal history: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
