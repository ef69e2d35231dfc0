package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/currentslabs/currents"
	"github.com/currentslabs/currents/config"
	"github.com/currentslabs/currents/store"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

// buildChatCmd creates the "chat" command for an interactive terminal
// session against an in-memory conversation.
func buildChatCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the agent from the terminal",
		Long: `Chat with the agent from the terminal.

Messages run through the same reasoning loop and tools as the HTTP
server, against an in-memory conversation that lasts for the session.
Type 'exit' or press Ctrl-D to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to YAML configuration file")

	return cmd
}

func runChat(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateSecrets(); err != nil {
		return err
	}

	// Keep the REPL clean: only errors reach the terminal.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	st := store.NewMemory()
	defer st.Close()

	agent, _, err := buildAgent(cfg, st, logger, nil)
	if err != nil {
		return err
	}

	conversation, err := st.CreateConversation(ctx, "local", "Interactive session")
	if err != nil {
		return err
	}

	rl, err := readline.New(colorCyan + "you> " + colorReset)
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	fmt.Printf("%sCurrents chat (%s). Type 'exit' or press Ctrl-D to quit.%s\n",
		colorDim, cfg.Model.Name, colorReset)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			fmt.Printf("%sGoodbye!%s\n", colorGreen, colorReset)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			fmt.Printf("%sGoodbye!%s\n", colorGreen, colorReset)
			return nil
		}

		if err := streamReply(ctx, agent, conversation.ID, line); err != nil {
			fmt.Fprintf(os.Stderr, "%sError: %v%s\n", colorRed, err, colorReset)
		}
	}
}

// streamReply runs one message through the agent and renders its event
// stream: answer tokens inline, tool activity as dim status lines.
// Ctrl-C abandons the run and returns to the prompt.
func streamReply(ctx context.Context, agent *currents.Agent, conversationID, text string) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Printf("\n%sInterrupted.%s\n", colorYellow, colorReset)
			cancel()
		case <-runCtx.Done():
		}
	}()

	stream := agent.Respond(runCtx, conversationID, text)
	defer stream.Cancel()

	for ev := range stream.Events() {
		switch e := ev.(type) {
		case currents.TokenEvent:
			fmt.Print(e.Token)
		case currents.ToolActivityEvent:
			switch e.Phase {
			case currents.ToolStarted:
				fmt.Printf("%s[%s running...]%s\n", colorDim, e.Tool, colorReset)
			case currents.ToolCompleted:
				fmt.Printf("%s[%s done]%s\n", colorDim, e.Tool, colorReset)
			case currents.ToolFailed:
				fmt.Printf("%s[%s failed: %s]%s\n", colorDim, e.Tool, e.Err, colorReset)
			}
		case currents.DoneEvent:
			fmt.Println()
		case currents.ErrorEvent:
			fmt.Println()
			if runCtx.Err() != nil {
				return nil
			}
			return errors.New(e.Message)
		}
	}
	return nil
}
