package convo

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/murmurbot/murmur/pkg/platform"
	"github.com/murmurbot/murmur/pkg/thread"
	"github.com/murmurbot/murmur/pkg/types"
)

// Platform is the slice of the platform client the tracker needs.
type Platform interface {
	FetchPost(ctx context.Context, id string) (*types.Post, error)
	CreateReply(ctx context.Context, postID, parentID, content string) (*types.Comment, error)
}

// Generator produces summaries and replies.
type Generator interface {
	Summarize(ctx context.Context, title string, messages []types.ThreadMessage) (string, error)
	Reply(ctx context.Context, title, summary string, recent []types.ThreadMessage) (string, error)
}

const (
	// summaryThreshold is the message count past which older history is
	// compacted into a summary instead of being replayed verbatim.
	summaryThreshold = 4
	// recentWindow is how many trailing messages stay verbatim.
	recentWindow = 2
)

// Tracker monitors the agent's conversations and answers at most one new
// reply per check.
type Tracker struct {
	store    Store
	platform Platform
	gen      Generator
	agent    string
}

// NewTracker wires a tracker over its collaborators.
func NewTracker(store Store, p Platform, gen Generator, agentName string) *Tracker {
	return &Tracker{store: store, platform: p, gen: gen, agent: agentName}
}

// Track registers an agent comment for reply monitoring. Re-tracking an
// already tracked (post, comment) pair is a no-op.
func (t *Tracker) Track(postID, commentID string) error {
	store, err := t.store.Load()
	if err != nil {
		return err
	}
	store.Append(&types.TrackedConversation{
		PostID:    postID,
		CommentID: commentID,
		CreatedAt: time.Now(),
	})
	if err := t.store.Save(store); err != nil {
		return err
	}
	log.Printf("[convo] tracking comment %s on post %s (%d total)", commentID, postID, len(store.Conversations))
	return nil
}

// CheckForReplies scans tracked conversations in order and answers the first
// unanswered reply it finds, then stops. Returns how many replies were
// answered this pass (0 or 1). A rate limit aborts the whole scan; any other
// per-conversation failure is logged and the scan moves on.
func (t *Tracker) CheckForReplies(ctx context.Context) (int, error) {
	store, err := t.store.Load()
	if err != nil {
		return 0, fmt.Errorf("load conversations: %w", err)
	}

	for _, conv := range store.Conversations {
		post, err := t.platform.FetchPost(ctx, conv.PostID)
		if err != nil {
			if platform.IsRateLimit(err) {
				return 0, err
			}
			log.Printf("[convo] fetch post %s: %v", conv.PostID, err)
			continue
		}

		root := thread.FindComment(post.Comments, conv.CommentID)
		if root == nil {
			log.Printf("[convo] comment %s gone from post %s, skipping", conv.CommentID, conv.PostID)
			continue
		}

		seen := make(map[string]bool, len(conv.LastSeenReplyIDs))
		for _, id := range conv.LastSeenReplyIDs {
			seen[id] = true
		}

		reply, _ := thread.FindUnansweredReply(root, t.agent, seen)
		if reply == nil {
			continue
		}

		answered, err := t.answer(ctx, conv, post, root, reply)
		if err != nil {
			if platform.IsRateLimit(err) {
				return 0, err
			}
			log.Printf("[convo] answer reply %s on post %s: %v", reply.ID, conv.PostID, err)
			continue
		}
		if answered {
			if err := t.store.Save(store); err != nil {
				return 1, fmt.Errorf("save conversations: %w", err)
			}
			return 1, nil
		}
	}
	return 0, nil
}

// answer generates and posts a response to one reply, then records it seen.
func (t *Tracker) answer(ctx context.Context, conv *types.TrackedConversation, post *types.Post, root, reply *types.Comment) (bool, error) {
	messages := thread.Flatten(root, t.agent)

	// The chosen branch may not be the one holding this reply. Make sure the
	// reply the agent is answering is what the history ends with.
	tail := types.ThreadMessage{Author: reply.Author.Username, Content: reply.Content}
	if len(messages) == 0 || messages[len(messages)-1] != tail {
		messages = append(messages, tail)
	}

	summary := conv.Summary
	recent := messages
	if len(messages) > summaryThreshold {
		older := messages[:len(messages)-recentWindow]
		recent = messages[len(messages)-recentWindow:]

		if conv.Summary == "" || len(older)-conv.SummarizedCount > summaryThreshold {
			fresh, err := t.gen.Summarize(ctx, post.Title, older)
			if err != nil {
				log.Printf("[convo] summarize post %s: %v", conv.PostID, err)
			} else {
				conv.Summary = fresh
				conv.SummarizedCount = len(older)
				summary = fresh
			}
		}
	}

	text, err := t.gen.Reply(ctx, post.Title, summary, recent)
	if err != nil {
		return false, fmt.Errorf("generate reply: %w", err)
	}

	if _, err := t.platform.CreateReply(ctx, conv.PostID, reply.ID, text); err != nil {
		return false, err
	}

	conv.MarkSeen(reply.ID)
	log.Printf("[convo] answered reply %s on post %s", reply.ID, conv.PostID)
	return true, nil
}
