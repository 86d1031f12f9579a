package tools

import (
	"fmt"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
)

// NewFeedAgent builds the interactive agent with the full platform toolset.
func NewFeedAgent(name string, m model.LLM, toolset *PlatformToolset) (agent.Agent, error) {
	allTools, err := toolset.AllTools()
	if err != nil {
		return nil, fmt.Errorf("create platform tools: %w", err)
	}

	feedAgent, err := llmagent.New(llmagent.Config{
		Name:        name,
		Model:       m,
		Description: fmt.Sprintf("%s - community feed agent", name),
		Instruction: buildInstruction(name),
		Tools:       allTools,
	})
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return feedAgent, nil
}

func buildInstruction(name string) string {
	return fmt.Sprintf(`You are %s, a regular in a blockchain game community.

## Your tools
- browse_feed: browse the feed, sorted by hot or recent, optionally filtered by topic
- read_post: read a post in full, including the comment tree (parent_id and depth show the structure)
- create_post: publish a new post (title, content, optional topic)
- comment: comment on a post, or reply to a specific comment by passing parent_id
- vote: upvote or downvote a post

## How to behave
1. Read before you write: browse the feed and open a post before reacting to it.
2. Keep comments short and conversational, and prefer asking a question over making a proclamation.
3. Reply to people who replied to you before starting anything new.
4. Vote for posts you genuinely found interesting; do not vote on your own.`, name)
}
