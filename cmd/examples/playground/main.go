package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/avi3tal/agentcanvas/internal/client"
	"github.com/avi3tal/agentcanvas/internal/config"
	"github.com/avi3tal/agentcanvas/pkg/playground"
)

// A terminal chat against a deployed graph on the run plane. Pass
// --conversation to resume a previous session.
func main() {
	flags := pflag.NewFlagSet("playground", pflag.ExitOnError)
	flags.String("tenant", "", "tenant id")
	flags.String("project", "", "project id")
	graphID := flags.String("graph", "", "graph id to chat with (required)")
	conversationID := flags.String("conversation", "", "resume this conversation")
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
	if *graphID == "" {
		log.Fatal("--graph is required")
	}

	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	run := client.NewRun(cfg.RunOptions(logger)...)

	var opts []playground.SessionOption
	opts = append(opts, playground.WithLogger(logger))
	if *conversationID != "" {
		opts = append(opts, playground.WithConversationID(*conversationID))
	}
	session := playground.NewSession(run, cfg.Scope(), *graphID, opts...)

	fmt.Printf("chatting with graph %s (empty line to quit)\n", *graphID)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		reply, err := session.Send(ctx, message)
		cancel()
		if err != nil {
			fmt.Printf("! %v\n", err)
			continue
		}
		fmt.Println(reply)
	}

	if id := session.ConversationID(); id != "" {
		fmt.Printf("resume later with --conversation %s\n", id)
	}
}
