// Package main provides the CLI entry point for the Currents agent
// service.
//
// Currents answers questions about current events by looping a chat
// model over web search and Google Trends tools, streaming the final
// answer token by token.
//
// # Basic Usage
//
// Start the HTTP server:
//
//	currents serve --config currents.yaml
//
// Chat from the terminal without a server:
//
//	currents chat
//
// # Environment Variables
//
// Configuration can fall back to environment variables:
//
//   - GROQ_API_KEY: Groq API key for the chat model
//   - TAVILY_API_KEY: Tavily API key for web search
//   - MCP_URL: Base URL of the Google Trends MCP service
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/currentslabs/currents"
	"github.com/currentslabs/currents/config"
	"github.com/currentslabs/currents/metrics"
	"github.com/currentslabs/currents/models"
	"github.com/currentslabs/currents/store"
	"github.com/currentslabs/currents/tools"
	"github.com/tmc/langchaingo/llms/openai"
)

// Build information, populated by ldflags during release builds.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "currents",
		Short: "Streaming agent for current events",
		Long: `Currents answers questions about current events by looping a chat
model over web search and Google Trends tools.

Run "currents serve" to expose the agent over HTTP, or "currents chat"
for an interactive terminal session.`,
		SilenceUsage: true,
	}
	root.AddCommand(buildServeCmd())
	root.AddCommand(buildChatCmd())
	root.AddCommand(buildVersionCmd())
	return root
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "currents %s (%s)\n", version, commit)
		},
	}
}

// newLogger builds the process logger from the logging section.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// openStore builds the conversation store named by the store section.
func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.OpenSQLite(cfg.Store.Path)
	default:
		return store.NewMemory(), nil
	}
}

// buildAgent assembles the completion client, tool registry, loop, and
// agent from configuration. It returns the MCP client alongside so the
// server can use it as a health probe.
func buildAgent(cfg *config.Config, st store.Store, logger *slog.Logger, m *metrics.Metrics) (*currents.Agent, *tools.MCPClient, error) {
	var modelOpts []openai.Option
	if cfg.Model.BaseURL != "" {
		modelOpts = append(modelOpts, openai.WithBaseURL(cfg.Model.BaseURL))
	}
	client, err := models.NewGroq(cfg.Model.APIKey, cfg.Model.Name, modelOpts...)
	if err != nil {
		return nil, nil, err
	}
	client.WithTemperature(cfg.Model.Temperature).WithMaxTokens(cfg.Model.MaxTokens)

	mcp := tools.NewMCPClient(cfg.Tools.Trends.URL)

	registry := currents.NewRegistry(
		currents.WithDefaultTimeout(cfg.Tools.Timeout()),
		currents.WithToolTimeout(tools.GoogleTrendsName, cfg.Tools.Trends.Timeout()),
		currents.WithToolMetrics(m),
	)
	if err := registry.Register(tools.NewTavilySearch(cfg.Tools.Tavily.APIKey)); err != nil {
		return nil, nil, err
	}
	if err := registry.Register(tools.NewGoogleTrends(mcp)); err != nil {
		return nil, nil, err
	}

	loop := currents.NewLoop(client, registry).
		WithMaxIterations(cfg.Agent.MaxIterations).
		WithTimeout(cfg.Agent.Timeout()).
		WithLogger(logger).
		WithMetrics(m)

	builder := currents.NewContextBuilder(currents.DefaultSystemPrompt).
		WithWindow(cfg.Agent.HistoryWindow)

	agent := currents.NewAgent(loop, builder, st).
		WithLogger(logger).
		WithMetrics(m)

	return agent, mcp, nil
}
