// Package heartbeat runs the agent's periodic decision cycle: answer replies
// first, then post, comment, and vote within per-action cooldowns.
package heartbeat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/murmurbot/murmur/pkg/chain"
	"github.com/murmurbot/murmur/pkg/journal"
	"github.com/murmurbot/murmur/pkg/platform"
	"github.com/murmurbot/murmur/pkg/types"
)

// Platform is the slice of the platform client the orchestrator needs.
type Platform interface {
	FetchFeed(ctx context.Context, filter types.FeedFilter) ([]*types.Post, error)
	CreatePost(ctx context.Context, title, content, topic string) (*types.Post, error)
	CreateComment(ctx context.Context, postID, content string) (*types.Comment, error)
	Vote(ctx context.Context, postID string, dir types.VoteDirection) error
}

// Tracker monitors conversations and answers replies.
type Tracker interface {
	Track(postID, commentID string) error
	CheckForReplies(ctx context.Context) (int, error)
}

// Generator produces text, falling back to a template when unavailable.
type Generator interface {
	Best(ctx context.Context, prompt, fallback string) string
}

// GameData reads chain state for grounding posts. May be nil.
type GameData interface {
	LatestRound(ctx context.Context) (*chain.Round, error)
	TopPlayers(ctx context.Context, limit int) ([]chain.Player, error)
}

// Default pacing. Replies are always answered; original posts and comments
// are rationed so the agent reads more than it writes.
const (
	DefaultPostCooldown    = 6 * time.Hour
	DefaultCommentCooldown = 20 * time.Minute
	DefaultVoteLimit       = 3
	DefaultVoteDelay       = 2 * time.Second
)

// Config configures the orchestrator.
type Config struct {
	AgentName       string
	Topic           string
	PostCooldown    time.Duration
	CommentCooldown time.Duration
	VoteLimit       int
	VoteDelay       time.Duration
}

// Orchestrator drives one heartbeat at a time. Cooldown clocks are held in
// memory; a restart resets them, which at worst means one early post.
type Orchestrator struct {
	cfg      Config
	platform Platform
	tracker  Tracker
	gen      Generator
	game     GameData
	journal  journal.Logger

	lastPostAt    time.Time
	lastCommentAt time.Time
}

// New creates an orchestrator. game and jl may be nil.
func New(cfg Config, p Platform, tracker Tracker, gen Generator, game GameData, jl journal.Logger) *Orchestrator {
	if cfg.PostCooldown <= 0 {
		cfg.PostCooldown = DefaultPostCooldown
	}
	if cfg.CommentCooldown <= 0 {
		cfg.CommentCooldown = DefaultCommentCooldown
	}
	if cfg.VoteLimit <= 0 {
		cfg.VoteLimit = DefaultVoteLimit
	}
	if cfg.VoteDelay <= 0 {
		cfg.VoteDelay = DefaultVoteDelay
	}
	if jl == nil {
		jl = (*journal.JSONLLogger)(nil)
	}
	return &Orchestrator{
		cfg:      cfg,
		platform: p,
		tracker:  tracker,
		gen:      gen,
		game:     game,
		journal:  jl,
	}
}

// Heartbeat runs one full cycle. A platform rate limit ends the cycle early
// but is not an error: the next heartbeat simply tries again. The returned
// error is reserved for failures the caller should surface.
func (o *Orchestrator) Heartbeat(ctx context.Context) error {
	start := time.Now()
	ev := journal.Event{Timestamp: start}
	defer func() {
		ev.Duration = time.Since(start)
		if err := o.journal.LogEvent(ev); err != nil {
			log.Printf("[heartbeat] journal: %v", err)
		}
	}()

	answered, err := o.tracker.CheckForReplies(ctx)
	if err != nil {
		if platform.IsRateLimit(err) {
			log.Printf("[heartbeat] rate limited during reply scan: %v", err)
			ev.RateLimited = true
			return nil
		}
		log.Printf("[heartbeat] reply scan: %v", err)
		ev.Errors = append(ev.Errors, fmt.Sprintf("reply scan: %v", err))
	}
	ev.RepliesAnswered = answered
	if answered > 0 {
		// A posted reply is this cycle's comment.
		o.lastCommentAt = time.Now()
	}

	o.maybePost(ctx, &ev)
	if ev.RateLimited {
		return nil
	}

	feed, err := o.platform.FetchFeed(ctx, types.FeedFilter{Sort: "hot", Topic: o.cfg.Topic, Limit: 10})
	if err != nil {
		if platform.IsRateLimit(err) {
			log.Printf("[heartbeat] rate limited fetching feed: %v", err)
			ev.RateLimited = true
			return nil
		}
		log.Printf("[heartbeat] fetch feed: %v", err)
		ev.Errors = append(ev.Errors, fmt.Sprintf("fetch feed: %v", err))
		return nil
	}

	if answered == 0 {
		o.maybeComment(ctx, feed, &ev)
		if ev.RateLimited {
			return nil
		}
	}

	o.vote(ctx, feed, &ev)
	return nil
}

// maybePost publishes an original post when the post cooldown has elapsed.
func (o *Orchestrator) maybePost(ctx context.Context, ev *journal.Event) {
	if time.Since(o.lastPostAt) < o.cfg.PostCooldown {
		return
	}

	prompt := o.postPrompt(ctx)
	text := o.gen.Best(ctx, prompt, postFallback)
	title, content := splitPost(text)

	post, err := o.platform.CreatePost(ctx, title, content, o.cfg.Topic)
	if err != nil {
		if platform.IsRateLimit(err) {
			log.Printf("[heartbeat] rate limited creating post: %v", err)
			ev.RateLimited = true
			return
		}
		log.Printf("[heartbeat] create post: %v", err)
		ev.Errors = append(ev.Errors, fmt.Sprintf("create post: %v", err))
		return
	}

	o.lastPostAt = time.Now()
	ev.PostCreated = post.ID
	log.Printf("[heartbeat] posted %s: %s", post.ID, title)
}

// postPrompt grounds the post in chain state when an indexer is configured.
func (o *Orchestrator) postPrompt(ctx context.Context) string {
	var b strings.Builder
	b.WriteString("Write a short discussion post for a blockchain game community. ")
	b.WriteString("First line is the title, the rest is the body. Two or three sentences, end with a question.\n")

	if o.game != nil {
		if round, err := o.game.LatestRound(ctx); err != nil {
			log.Printf("[heartbeat] latest round: %v", err)
		} else {
			fmt.Fprintf(&b, "Latest round: #%d won by %s with a pot of %.2f.\n", round.Number, round.Winner, round.Pot)
		}
		if players, err := o.game.TopPlayers(ctx, 3); err != nil {
			log.Printf("[heartbeat] top players: %v", err)
		} else {
			for i, p := range players {
				name := p.Name
				if name == "" {
					name = p.Address
				}
				fmt.Fprintf(&b, "Leaderboard #%d: %s with %d wins.\n", i+1, name, p.Wins)
			}
		}
	}
	return b.String()
}

// maybeComment comments on someone else's post when the comment cooldown has
// elapsed, then tracks the comment for replies.
func (o *Orchestrator) maybeComment(ctx context.Context, feed []*types.Post, ev *journal.Event) {
	if time.Since(o.lastCommentAt) < o.cfg.CommentCooldown {
		return
	}

	target := o.pickTarget(feed)
	if target == nil {
		log.Printf("[heartbeat] no post worth commenting on")
		return
	}

	prompt := fmt.Sprintf(
		"Write a comment on this game community post.\nTitle: %s\nBody: %s\nOne or two sentences, conversational, end with a question.",
		target.Title, target.Content)
	text := o.gen.Best(ctx, prompt, commentFallback)

	comment, err := o.platform.CreateComment(ctx, target.ID, text)
	if err != nil {
		if platform.IsRateLimit(err) {
			log.Printf("[heartbeat] rate limited creating comment: %v", err)
			ev.RateLimited = true
			return
		}
		log.Printf("[heartbeat] create comment on %s: %v", target.ID, err)
		ev.Errors = append(ev.Errors, fmt.Sprintf("create comment: %v", err))
		return
	}

	o.lastCommentAt = time.Now()
	ev.CommentedOn = target.ID
	ev.CommentID = comment.ID
	log.Printf("[heartbeat] commented on %s", target.ID)

	if err := o.tracker.Track(target.ID, comment.ID); err != nil {
		log.Printf("[heartbeat] track comment %s: %v", comment.ID, err)
		ev.Errors = append(ev.Errors, fmt.Sprintf("track comment: %v", err))
	}
}

// pickTarget returns the first feed post by someone else.
func (o *Orchestrator) pickTarget(feed []*types.Post) *types.Post {
	for _, p := range feed {
		if p.Author.Username != o.cfg.AgentName {
			return p
		}
	}
	return nil
}

// vote upvotes a handful of other people's posts, pausing between votes so
// the writes do not land as a burst. A rate limit stops voting for the cycle.
func (o *Orchestrator) vote(ctx context.Context, feed []*types.Post, ev *journal.Event) {
	for _, p := range feed {
		if ev.VotesCast >= o.cfg.VoteLimit {
			return
		}
		if p.Author.Username == o.cfg.AgentName {
			continue
		}

		if ev.VotesCast > 0 {
			select {
			case <-time.After(o.cfg.VoteDelay):
			case <-ctx.Done():
				return
			}
		}

		if err := o.platform.Vote(ctx, p.ID, types.VoteUp); err != nil {
			if platform.IsRateLimit(err) {
				log.Printf("[heartbeat] rate limited voting: %v", err)
				ev.RateLimited = true
				return
			}
			log.Printf("[heartbeat] vote on %s: %v", p.ID, err)
			ev.Errors = append(ev.Errors, fmt.Sprintf("vote on %s: %v", p.ID, err))
			continue
		}
		ev.VotesCast++
	}
}

// splitPost separates generated text into title and body. A single line
// becomes the title with itself as the body.
func splitPost(text string) (title, content string) {
	text = strings.TrimSpace(text)
	title, content, found := strings.Cut(text, "\n")
	title = strings.TrimSpace(title)
	if !found || strings.TrimSpace(content) == "" {
		return title, title
	}
	return title, strings.TrimSpace(content)
}

const (
	postFallback    = "Anyone else watching the current round?\nThe pot keeps climbing and the usual names are circling. Who do you think takes it this time?"
	commentFallback = "Interesting take. What made you read it that way?"
)
