package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/murmurbot/murmur/pkg/chain"
	"github.com/murmurbot/murmur/pkg/convo"
	"github.com/murmurbot/murmur/pkg/gen"
	"github.com/murmurbot/murmur/pkg/heartbeat"
	"github.com/murmurbot/murmur/pkg/journal"
	"github.com/murmurbot/murmur/pkg/llm"
	"github.com/murmurbot/murmur/pkg/platform"
)

func main() {
	_ = godotenv.Load()

	interval := flag.Duration("interval", 5*time.Minute, "Time between heartbeats")
	once := flag.Bool("once", false, "Run a single heartbeat and exit")
	dataPath := flag.String("data", "./data/murmur", "Data directory")
	journalPath := flag.String("journal", "", "Path to JSONL journal (default <data>/journal.jsonl)")
	topic := flag.String("topic", "", "Feed topic to focus on")
	postCooldown := flag.Duration("post-cooldown", heartbeat.DefaultPostCooldown, "Minimum time between original posts")
	commentCooldown := flag.Duration("comment-cooldown", heartbeat.DefaultCommentCooldown, "Minimum time between comments")
	voteLimit := flag.Int("votes", heartbeat.DefaultVoteLimit, "Maximum votes per heartbeat")
	candidates := flag.Int("candidates", gen.DefaultCandidates, "Generation candidates per text")
	flag.Parse()

	baseURL := os.Getenv("PLATFORM_BASE_URL")
	token := os.Getenv("PLATFORM_TOKEN")
	agentName := os.Getenv("AGENT_NAME")
	if baseURL == "" || token == "" || agentName == "" {
		log.Fatal("PLATFORM_BASE_URL, PLATFORM_TOKEN and AGENT_NAME must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(*dataPath, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	var provider gen.Provider
	if gemini, err := llm.NewGeminiProvider(ctx, llm.GeminiConfig{}); err != nil {
		log.Printf("No generation backend (%v), falling back to templates", err)
	} else {
		provider = gemini
		log.Printf("Generation backend: %s", gemini.Model())
	}
	generator := gen.New(provider, *candidates)

	client, err := platform.NewClient(platform.Config{
		BaseURL:   baseURL,
		Token:     token,
		AgentName: agentName,
		Solver:    generator,
	})
	if err != nil {
		log.Fatalf("Failed to create platform client: %v", err)
	}

	var game heartbeat.GameData
	if chainURL := os.Getenv("CHAIN_BASE_URL"); chainURL != "" {
		indexer, err := chain.NewClient(chainURL, nil)
		if err != nil {
			log.Fatalf("Failed to create chain client: %v", err)
		}
		game = indexer
	} else {
		log.Print("CHAIN_BASE_URL not set, posting without chain context")
	}

	jpath := *journalPath
	if jpath == "" {
		jpath = filepath.Join(*dataPath, "journal.jsonl")
	}
	jl, err := journal.NewJSONLLogger(jpath)
	if err != nil {
		log.Fatalf("Failed to create journal: %v", err)
	}
	defer jl.Close()

	store := convo.NewFileStore(filepath.Join(*dataPath, "conversations.json"))
	tracker := convo.NewTracker(store, client, generator, agentName)

	orchestrator := heartbeat.New(heartbeat.Config{
		AgentName:       agentName,
		Topic:           *topic,
		PostCooldown:    *postCooldown,
		CommentCooldown: *commentCooldown,
		VoteLimit:       *voteLimit,
	}, client, tracker, generator, game, jl)

	fmt.Println("=== Murmur ===")
	fmt.Printf("Agent: %s\n", agentName)
	fmt.Printf("Platform: %s\n", baseURL)
	fmt.Printf("Interval: %s\n", *interval)
	fmt.Printf("Journal: %s\n\n", jpath)

	if err := orchestrator.Heartbeat(ctx); err != nil {
		log.Printf("Heartbeat failed: %v", err)
	}
	if *once {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Print("Shutting down")
			return
		case <-ticker.C:
			if err := orchestrator.Heartbeat(ctx); err != nil {
				log.Printf("Heartbeat failed: %v", err)
			}
		}
	}
}
