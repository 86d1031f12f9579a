// Package tools provides ADK-compatible tools over the platform client, so
// an interactive agent can browse and act on the feed.
package tools

import (
	"context"
	"fmt"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/murmurbot/murmur/pkg/types"
)

// Platform is the client surface the toolset exposes to the agent.
type Platform interface {
	FetchFeed(ctx context.Context, filter types.FeedFilter) ([]*types.Post, error)
	FetchPost(ctx context.Context, id string) (*types.Post, error)
	CreatePost(ctx context.Context, title, content, topic string) (*types.Post, error)
	CreateComment(ctx context.Context, postID, content string) (*types.Comment, error)
	CreateReply(ctx context.Context, postID, parentID, content string) (*types.Comment, error)
	Vote(ctx context.Context, postID string, dir types.VoteDirection) error
}

// PlatformToolset provides tools for interacting with the discussion feed.
type PlatformToolset struct {
	platform Platform
}

// NewPlatformToolset creates a toolset over a platform client.
func NewPlatformToolset(p Platform) *PlatformToolset {
	return &PlatformToolset{platform: p}
}

// --- Browse Feed Tool ---

// BrowseFeedInput is the input for browsing the feed.
type BrowseFeedInput struct {
	// SortBy can be "hot" or "recent"
	SortBy string `json:"sort_by,omitempty"`
	Topic  string `json:"topic,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// BrowseFeedOutput is the output of browsing the feed.
type BrowseFeedOutput struct {
	Posts []PostSummary `json:"posts"`
}

// PostSummary is a summary of a feed post.
type PostSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
	Topic      string `json:"topic,omitempty"`
	Score      int    `json:"score"`
	Comments   int    `json:"comments"`
}

// BrowseFeedTool creates the browse feed tool.
func (pt *PlatformToolset) BrowseFeedTool() (tool.Tool, error) {
	handler := func(ctx tool.Context, input BrowseFeedInput) (BrowseFeedOutput, error) {
		limit := input.Limit
		if limit <= 0 || limit > 20 {
			limit = 10
		}

		posts, err := pt.platform.FetchFeed(context.Background(), types.FeedFilter{
			Sort:  input.SortBy,
			Topic: input.Topic,
			Limit: limit,
		})
		if err != nil {
			return BrowseFeedOutput{}, err
		}

		summaries := make([]PostSummary, 0, len(posts))
		for _, p := range posts {
			summaries = append(summaries, PostSummary{
				ID:         p.ID,
				Title:      p.Title,
				AuthorName: p.Author.Username,
				Topic:      p.Topic,
				Score:      p.Score,
				Comments:   countComments(p.Comments),
			})
		}
		return BrowseFeedOutput{Posts: summaries}, nil
	}

	return functiontool.New(functiontool.Config{
		Name:        "browse_feed",
		Description: "Browse the community feed. Sort by hot or recent, optionally filter by topic.",
	}, handler)
}

// --- Read Post Tool ---

// ReadPostInput is the input for reading a post.
type ReadPostInput struct {
	PostID string `json:"post_id"`
}

// ReadPostOutput is the output of reading a post.
type ReadPostOutput struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Content    string           `json:"content"`
	AuthorName string           `json:"author_name"`
	Topic      string           `json:"topic,omitempty"`
	Score      int              `json:"score"`
	Comments   []CommentSummary `json:"comments"`
}

// CommentSummary is one comment flattened out of the tree.
type CommentSummary struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	AuthorName string `json:"author_name"`
	ParentID   string `json:"parent_id,omitempty"`
	Depth      int    `json:"depth"`
}

// ReadPostTool creates the read post tool.
func (pt *PlatformToolset) ReadPostTool() (tool.Tool, error) {
	handler := func(ctx tool.Context, input ReadPostInput) (ReadPostOutput, error) {
		if input.PostID == "" {
			return ReadPostOutput{}, fmt.Errorf("missing post_id")
		}
		post, err := pt.platform.FetchPost(context.Background(), input.PostID)
		if err != nil {
			return ReadPostOutput{}, err
		}

		var comments []CommentSummary
		var walk func(cs []*types.Comment, parentID string, depth int)
		walk = func(cs []*types.Comment, parentID string, depth int) {
			for _, c := range cs {
				comments = append(comments, CommentSummary{
					ID:         c.ID,
					Content:    c.Content,
					AuthorName: c.Author.Username,
					ParentID:   parentID,
					Depth:      depth,
				})
				walk(c.Replies, c.ID, depth+1)
			}
		}
		walk(post.Comments, "", 1)

		return ReadPostOutput{
			ID:         post.ID,
			Title:      post.Title,
			Content:    post.Content,
			AuthorName: post.Author.Username,
			Topic:      post.Topic,
			Score:      post.Score,
			Comments:   comments,
		}, nil
	}

	return functiontool.New(functiontool.Config{
		Name:        "read_post",
		Description: "Read a post in full, including its comment tree with parent_id and depth.",
	}, handler)
}

// --- Create Post Tool ---

// CreatePostInput is the input for creating a post.
type CreatePostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Topic   string `json:"topic,omitempty"`
}

// CreatePostOutput is the output of creating a post.
type CreatePostOutput struct {
	PostID  string `json:"post_id"`
	Message string `json:"message"`
}

// CreatePostTool creates the create post tool.
func (pt *PlatformToolset) CreatePostTool() (tool.Tool, error) {
	handler := func(ctx tool.Context, input CreatePostInput) (CreatePostOutput, error) {
		if input.Title == "" || input.Content == "" {
			return CreatePostOutput{}, fmt.Errorf("title and content are required")
		}
		post, err := pt.platform.CreatePost(context.Background(), input.Title, input.Content, input.Topic)
		if err != nil {
			return CreatePostOutput{}, err
		}
		return CreatePostOutput{
			PostID:  post.ID,
			Message: "post published",
		}, nil
	}

	return functiontool.New(functiontool.Config{
		Name:        "create_post",
		Description: "Publish a new post to the feed. Requires a title and body.",
	}, handler)
}

// --- Comment Tool ---

// CommentInput is the input for commenting.
type CommentInput struct {
	PostID   string `json:"post_id"`
	ParentID string `json:"parent_id,omitempty"`
	Content  string `json:"content"`
}

// CommentOutput is the output of commenting.
type CommentOutput struct {
	CommentID string `json:"comment_id"`
	Message   string `json:"message"`
}

// CommentTool creates the comment tool.
func (pt *PlatformToolset) CommentTool() (tool.Tool, error) {
	handler := func(ctx tool.Context, input CommentInput) (CommentOutput, error) {
		if input.PostID == "" {
			return CommentOutput{}, fmt.Errorf("missing post_id")
		}
		if input.Content == "" {
			return CommentOutput{}, fmt.Errorf("missing content")
		}

		var comment *types.Comment
		var err error
		if input.ParentID != "" {
			comment, err = pt.platform.CreateReply(context.Background(), input.PostID, input.ParentID, input.Content)
		} else {
			comment, err = pt.platform.CreateComment(context.Background(), input.PostID, input.Content)
		}
		if err != nil {
			return CommentOutput{}, err
		}
		return CommentOutput{
			CommentID: comment.ID,
			Message:   "comment published",
		}, nil
	}

	return functiontool.New(functiontool.Config{
		Name:        "comment",
		Description: "Comment on a post, or reply to a comment by passing parent_id.",
	}, handler)
}

// --- Vote Tool ---

// VoteInput is the input for voting.
type VoteInput struct {
	PostID string `json:"post_id"`
	// VoteType is "upvote" or "downvote"
	VoteType string `json:"vote_type"`
}

// VoteOutput is the output of voting.
type VoteOutput struct {
	Message string `json:"message"`
}

// VoteTool creates the vote tool.
func (pt *PlatformToolset) VoteTool() (tool.Tool, error) {
	handler := func(ctx tool.Context, input VoteInput) (VoteOutput, error) {
		var dir types.VoteDirection
		switch input.VoteType {
		case "upvote":
			dir = types.VoteUp
		case "downvote":
			dir = types.VoteDown
		default:
			return VoteOutput{}, fmt.Errorf("invalid vote type: %s (use 'upvote' or 'downvote')", input.VoteType)
		}

		if err := pt.platform.Vote(context.Background(), input.PostID, dir); err != nil {
			return VoteOutput{}, err
		}
		return VoteOutput{Message: "voted " + input.VoteType}, nil
	}

	return functiontool.New(functiontool.Config{
		Name:        "vote",
		Description: "Vote on a post, upvote or downvote.",
	}, handler)
}

// AllTools returns all platform tools.
func (pt *PlatformToolset) AllTools() ([]tool.Tool, error) {
	browseTool, err := pt.BrowseFeedTool()
	if err != nil {
		return nil, err
	}

	readTool, err := pt.ReadPostTool()
	if err != nil {
		return nil, err
	}

	createTool, err := pt.CreatePostTool()
	if err != nil {
		return nil, err
	}

	commentTool, err := pt.CommentTool()
	if err != nil {
		return nil, err
	}

	voteTool, err := pt.VoteTool()
	if err != nil {
		return nil, err
	}

	return []tool.Tool{
		browseTool,
		readTool,
		createTool,
		commentTool,
		voteTool,
	}, nil
}

func countComments(cs []*types.Comment) int {
	n := 0
	for _, c := range cs {
		n += 1 + countComments(c.Replies)
	}
	return n
}
