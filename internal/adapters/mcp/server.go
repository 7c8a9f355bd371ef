package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bovicare/bovicare/internal/core/ports"
)

// Server exposes the question and evaluation pipelines as MCP tools so
// agent runtimes can call them over stdio.
type Server struct {
	questions ports.QuestionService
	evaluator ports.AnswerEvaluator

	defaultTopK int
	mcpServer   *server.MCPServer
}

func NewServer(questions ports.QuestionService, evaluator ports.AnswerEvaluator, defaultTopK int) *Server {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}

	s := &Server{
		questions:   questions,
		evaluator:   evaluator,
		defaultTopK: defaultTopK,
	}

	mcpServer := server.NewMCPServer(
		"bovicare",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	mcpServer.AddTool(mcp.NewTool("ask_bovicare",
		mcp.WithDescription("Answer a bovine disease question from the indexed veterinary corpus, with source passages and related diseases."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The veterinary question to answer"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("How many source passages to ground the answer on"),
		),
		mcp.WithBoolean("use_reranking",
			mcp.Description("Whether to rerank retrieved passages with the judge model"),
		),
	), s.handleAsk)

	mcpServer.AddTool(mcp.NewTool("evaluate_answer",
		mcp.WithDescription("Grade an answer against the weighted rubric category selected for the query."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The original question the answer responds to"),
		),
		mcp.WithString("answer",
			mcp.Required(),
			mcp.Description("The answer text to grade"),
		),
		mcp.WithString("category",
			mcp.Description("Rubric category override; selected from the query when empty"),
		),
	), s.handleEvaluate)

	s.mcpServer = mcpServer
	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	topK := req.GetInt("top_k", s.defaultTopK)
	useReranking := req.GetBool("use_reranking", true)

	answer, err := s.questions.Ask(ctx, question, topK, useReranking)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}

	raw, err := json.Marshal(answer)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode answer: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleEvaluate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	answer, err := req.RequireString("answer")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	category := req.GetString("category", "")

	var result any
	if category != "" {
		result, err = s.evaluator.EvaluateCategory(ctx, query, answer, category, nil)
	} else {
		result, err = s.evaluator.Evaluate(ctx, query, answer, "")
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("evaluation failed: %v", err)), nil
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}
