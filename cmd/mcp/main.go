// The mcp binary exposes the assistant over the Model Context Protocol
// on stdio, so MCP-capable clients can call the same pipeline the HTTP
// API serves.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/campusmind/campus-assistant/internal/bootstrap"
	"github.com/campusmind/campus-assistant/internal/config"
	"github.com/campusmind/campus-assistant/internal/observability/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	// stdout carries the MCP protocol; logs must go to stderr.
	logging.SetupStderr("mcp", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	s := server.NewMCPServer(
		"campus-assistant",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	askTool := mcp.NewTool("ask_campus",
		mcp.WithDescription("Answer a question about the university using routed retrieval over the course catalog and knowledge base."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The user's question in natural language."),
		),
	)
	s.AddTool(askTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		answer, err := app.ChatUC.Answer(ctx, question)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		payload, err := json.Marshal(answer)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	})

	lookupTool := mcp.NewTool("course_lookup",
		mcp.WithDescription("Resolve course records for a query through code, name, instructor and semantic matching tiers."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Course code, course name, or instructor name."),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Maximum number of courses to return (default 5)."),
		),
	)
	s.AddTool(lookupTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		topK := req.GetInt("top_k", 5)

		courses, tier, err := app.CourseUC.RetrieveCourses(ctx, query, topK)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		payload, err := json.Marshal(map[string]any{"courses": courses, "tier": tier})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	})

	routeTool := mcp.NewTool("route_query",
		mcp.WithDescription("Classify a query's intent and retrieval scope without running retrieval."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The query to classify."),
		),
	)
	s.AddTool(routeTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		decision := app.RouterUC.Route(ctx, query)
		payload, err := json.Marshal(decision)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	})

	slog.Info("mcp_listening", "transport", "stdio")
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "mcp server error: %v\n", err)
		os.Exit(1)
	}
}
