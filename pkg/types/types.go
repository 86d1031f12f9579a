// Package types defines core types shared across the Murmur agent.
package types

import "time"

// Author identifies a participant on the discussion platform.
type Author struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
}

// Comment is one node in a post's reply tree. Replies are ordered the way
// the platform returned them.
type Comment struct {
	ID        string     `json:"id"`
	Author    Author     `json:"author"`
	Content   string     `json:"content"`
	Replies   []*Comment `json:"replies,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
}

// Post is a top-level feed entry with its comment forest.
type Post struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Author    Author     `json:"author"`
	Topic     string     `json:"topic,omitempty"`
	Score     int        `json:"score"`
	Comments  []*Comment `json:"comments,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
}

// FeedFilter selects which slice of the feed to fetch.
type FeedFilter struct {
	Sort  string `json:"sort,omitempty"` // "hot" or "recent"
	Topic string `json:"topic,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// ThreadMessage is one entry of a flattened conversation branch. Derived
// from the comment tree, never persisted directly.
type ThreadMessage struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// TrackedConversation records one agent-authored root comment being
// monitored for replies.
type TrackedConversation struct {
	PostID           string    `json:"post_id"`
	CommentID        string    `json:"comment_id"`
	LastSeenReplyIDs []string  `json:"last_seen_reply_ids"`
	Summary          string    `json:"summary,omitempty"`
	SummarizedCount  int       `json:"summarized_count,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Seen reports whether a reply id has already been handled.
func (c *TrackedConversation) Seen(replyID string) bool {
	for _, id := range c.LastSeenReplyIDs {
		if id == replyID {
			return true
		}
	}
	return false
}

// MarkSeen appends a reply id. The set is append-only; duplicates are
// ignored so it never shrinks and never double-counts.
func (c *TrackedConversation) MarkSeen(replyID string) {
	if c.Seen(replyID) {
		return
	}
	c.LastSeenReplyIDs = append(c.LastSeenReplyIDs, replyID)
}

// MaxTrackedConversations bounds the conversation store. Oldest entries are
// evicted first; the store is a window, not a complete log.
const MaxTrackedConversations = 50

// ConversationStore is the ordered list of tracked conversations, persisted
// as a whole blob.
type ConversationStore struct {
	Conversations []*TrackedConversation `json:"conversations"`
}

// Find returns the conversation for a (post, comment) pair, or nil.
func (s *ConversationStore) Find(postID, commentID string) *TrackedConversation {
	for _, c := range s.Conversations {
		if c.PostID == postID && c.CommentID == commentID {
			return c
		}
	}
	return nil
}

// Append adds a conversation and enforces the size cap, dropping the oldest.
// At most one entry exists per (post, comment) pair.
func (s *ConversationStore) Append(conv *TrackedConversation) {
	if existing := s.Find(conv.PostID, conv.CommentID); existing != nil {
		return
	}
	s.Conversations = append(s.Conversations, conv)
	if n := len(s.Conversations); n > MaxTrackedConversations {
		s.Conversations = s.Conversations[n-MaxTrackedConversations:]
	}
}

// ScoredCandidate is one generated text with its rubric score. Ephemeral;
// lives only inside a single generation call.
type ScoredCandidate struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// VoteDirection is the direction of a feed vote.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)
