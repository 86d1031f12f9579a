// Command console runs the agent interactively against the live platform,
// with the same tools the daemon exposes. Useful for poking at the feed and
// trying prompts by hand.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/murmurbot/murmur/pkg/gen"
	"github.com/murmurbot/murmur/pkg/platform"
	"github.com/murmurbot/murmur/pkg/tools"
)

func main() {
	_ = godotenv.Load()

	modelDefault := envOr("GOOGLE_MODEL", "gemini-3-flash-preview")
	prompt := flag.String("prompt", "", "Run a single prompt and exit")
	modelName := flag.String("model", modelDefault, "Gemini model")
	flag.Parse()

	baseURL := os.Getenv("PLATFORM_BASE_URL")
	token := os.Getenv("PLATFORM_TOKEN")
	agentName := os.Getenv("AGENT_NAME")
	if baseURL == "" || token == "" || agentName == "" {
		log.Fatal("PLATFORM_BASE_URL, PLATFORM_TOKEN and AGENT_NAME must be set")
	}

	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		log.Fatal("GOOGLE_API_KEY not set")
	}

	ctx := context.Background()

	// The challenge solver runs without a backend here; the deterministic
	// fallback is enough for console sessions.
	solver := gen.New(nil, 1)

	client, err := platform.NewClient(platform.Config{
		BaseURL:   baseURL,
		Token:     token,
		AgentName: agentName,
		Solver:    solver,
	})
	if err != nil {
		log.Fatalf("Failed to create platform client: %v", err)
	}

	adkModel, err := gemini.NewModel(ctx, *modelName, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Fatalf("Failed to create Gemini model (%s): %v", *modelName, err)
	}

	toolset := tools.NewPlatformToolset(client)
	feedAgent, err := tools.NewFeedAgent(agentName, adkModel, toolset)
	if err != nil {
		log.Fatalf("Failed to create agent: %v", err)
	}

	sessionService := session.InMemoryService()
	if _, err := sessionService.Create(ctx, &session.CreateRequest{
		AppName:   "murmur-console",
		UserID:    "console",
		SessionID: "console-session",
	}); err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	r, err := runner.New(runner.Config{
		AppName:        "murmur-console",
		Agent:          feedAgent,
		SessionService: sessionService,
	})
	if err != nil {
		log.Fatalf("Failed to create runner: %v", err)
	}

	if *prompt != "" {
		runTurn(ctx, r, *prompt)
		return
	}

	fmt.Printf("=== Murmur Console (%s) ===\n", *modelName)
	fmt.Println("Type a prompt, or 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		runTurn(ctx, r, line)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runTurn(ctx context.Context, r *runner.Runner, prompt string) {
	stream := r.Run(ctx, "console", "console-session", genai.NewContentFromText(prompt, "user"), agent.RunConfig{})
	for ev, err := range stream {
		if err != nil {
			log.Printf("Run error: %v", err)
			return
		}
		if ev == nil || ev.LLMResponse.Content == nil {
			continue
		}
		for _, part := range ev.LLMResponse.Content.Parts {
			switch {
			case part.FunctionCall != nil:
				fmt.Printf("[tool] %s(%v)\n", part.FunctionCall.Name, part.FunctionCall.Args)
			case part.FunctionResponse != nil:
				fmt.Printf("[tool] %s -> done\n", part.FunctionResponse.Name)
			case part.Text != "":
				fmt.Println(part.Text)
			}
		}
	}
}
