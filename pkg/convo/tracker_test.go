package convo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/murmurbot/murmur/pkg/platform"
	"github.com/murmurbot/murmur/pkg/types"
)

const agent = "murmur"

type recordedReply struct {
	postID, parentID, content string
}

type fakePlatform struct {
	posts    map[string]*types.Post
	fetchErr map[string]error
	fetches  []string
	replies  []recordedReply
	replyErr error
}

func (p *fakePlatform) FetchPost(ctx context.Context, id string) (*types.Post, error) {
	p.fetches = append(p.fetches, id)
	if err := p.fetchErr[id]; err != nil {
		return nil, err
	}
	post, ok := p.posts[id]
	if !ok {
		return nil, fmt.Errorf("no such post %s", id)
	}
	return post, nil
}

func (p *fakePlatform) CreateReply(ctx context.Context, postID, parentID, content string) (*types.Comment, error) {
	if p.replyErr != nil {
		return nil, p.replyErr
	}
	p.replies = append(p.replies, recordedReply{postID, parentID, content})
	return &types.Comment{ID: "new-reply", Content: content}, nil
}

type summarizeCall struct {
	title    string
	messages []types.ThreadMessage
}

type replyCall struct {
	title   string
	summary string
	recent  []types.ThreadMessage
}

type fakeGen struct {
	summarizeCalls []summarizeCall
	summarizeErr   error
	replyCalls     []replyCall
}

func (g *fakeGen) Summarize(ctx context.Context, title string, messages []types.ThreadMessage) (string, error) {
	g.summarizeCalls = append(g.summarizeCalls, summarizeCall{title, messages})
	if g.summarizeErr != nil {
		return "", g.summarizeErr
	}
	return "summary of earlier talk", nil
}

func (g *fakeGen) Reply(ctx context.Context, title, summary string, recent []types.ThreadMessage) (string, error) {
	g.replyCalls = append(g.replyCalls, replyCall{title, summary, recent})
	return "generated reply", nil
}

func newStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "conversations.json"))
}

func comment(id, author, content string, replies ...*types.Comment) *types.Comment {
	return &types.Comment{
		ID:      id,
		Author:  types.Author{Username: author},
		Content: content,
		Replies: replies,
	}
}

// pendingPost builds a post where the agent's comment c1 has one unseen
// reply from alice.
func pendingPost(postID string) *types.Post {
	return &types.Post{
		ID:    postID,
		Title: "Round recap",
		Comments: []*types.Comment{
			comment("c1", agent, "my take",
				comment("r1", "alice", "what about gas costs?")),
		},
	}
}

func TestTrack_Idempotent(t *testing.T) {
	store := newStore(t)
	tracker := NewTracker(store, &fakePlatform{}, &fakeGen{}, agent)

	if err := tracker.Track("p1", "c1"); err != nil {
		t.Fatalf("Track: %v", err)
	}
	if err := tracker.Track("p1", "c1"); err != nil {
		t.Fatalf("Track: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(loaded.Conversations))
	}
}

func TestTrack_EvictsOldestPastCap(t *testing.T) {
	store := newStore(t)
	tracker := NewTracker(store, &fakePlatform{}, &fakeGen{}, agent)

	for i := 0; i < 60; i++ {
		if err := tracker.Track(fmt.Sprintf("p%d", i), "c1"); err != nil {
			t.Fatalf("Track %d: %v", i, err)
		}
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Conversations) != types.MaxTrackedConversations {
		t.Fatalf("expected %d conversations, got %d", types.MaxTrackedConversations, len(loaded.Conversations))
	}
	if loaded.Conversations[0].PostID != "p10" {
		t.Errorf("expected oldest surviving entry p10, got %s", loaded.Conversations[0].PostID)
	}
	if loaded.Conversations[49].PostID != "p59" {
		t.Errorf("expected newest entry p59, got %s", loaded.Conversations[49].PostID)
	}
}

func TestCheckForReplies_AnswersAndRemembers(t *testing.T) {
	store := newStore(t)
	p := &fakePlatform{posts: map[string]*types.Post{"p1": pendingPost("p1")}}
	g := &fakeGen{}
	tracker := NewTracker(store, p, g, agent)
	if err := tracker.Track("p1", "c1"); err != nil {
		t.Fatalf("Track: %v", err)
	}

	n, err := tracker.CheckForReplies(context.Background())
	if err != nil {
		t.Fatalf("CheckForReplies: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 answered, got %d", n)
	}
	if len(p.replies) != 1 {
		t.Fatalf("expected 1 posted reply, got %d", len(p.replies))
	}
	if p.replies[0].postID != "p1" || p.replies[0].parentID != "r1" {
		t.Errorf("reply went to wrong place: %+v", p.replies[0])
	}
	if p.replies[0].content != "generated reply" {
		t.Errorf("unexpected reply content %q", p.replies[0].content)
	}

	// Same state again: the reply is now seen, nothing to do.
	n, err = tracker.CheckForReplies(context.Background())
	if err != nil {
		t.Fatalf("second CheckForReplies: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 answered on second pass, got %d", n)
	}
	if len(p.replies) != 1 {
		t.Errorf("expected no new replies posted, got %d total", len(p.replies))
	}
}

func TestCheckForReplies_AtMostOnePerPass(t *testing.T) {
	store := newStore(t)
	p := &fakePlatform{posts: map[string]*types.Post{
		"p1": pendingPost("p1"),
		"p2": pendingPost("p2"),
		"p3": pendingPost("p3"),
	}}
	tracker := NewTracker(store, p, &fakeGen{}, agent)
	for _, id := range []string{"p1", "p2", "p3"} {
		if err := tracker.Track(id, "c1"); err != nil {
			t.Fatalf("Track %s: %v", id, err)
		}
	}

	n, err := tracker.CheckForReplies(context.Background())
	if err != nil {
		t.Fatalf("CheckForReplies: %v", err)
	}
	if n != 1 || len(p.replies) != 1 {
		t.Fatalf("expected exactly 1 reply, got n=%d posted=%d", n, len(p.replies))
	}
	if p.replies[0].postID != "p1" {
		t.Errorf("expected earliest conversation answered first, got %s", p.replies[0].postID)
	}
}

func TestCheckForReplies_RateLimitAborts(t *testing.T) {
	store := newStore(t)
	p := &fakePlatform{
		posts: map[string]*types.Post{"p2": pendingPost("p2")},
		fetchErr: map[string]error{
			"p1": &platform.RateLimitError{},
		},
	}
	tracker := NewTracker(store, p, &fakeGen{}, agent)
	tracker.Track("p1", "c1")
	tracker.Track("p2", "c1")

	n, err := tracker.CheckForReplies(context.Background())
	if !platform.IsRateLimit(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 answered, got %d", n)
	}
	if len(p.fetches) != 1 {
		t.Errorf("expected scan to stop after first fetch, got %v", p.fetches)
	}
}

func TestCheckForReplies_SkipsFailedConversation(t *testing.T) {
	store := newStore(t)
	p := &fakePlatform{
		posts: map[string]*types.Post{"p2": pendingPost("p2")},
		fetchErr: map[string]error{
			"p1": errors.New("post deleted"),
		},
	}
	tracker := NewTracker(store, p, &fakeGen{}, agent)
	tracker.Track("p1", "c1")
	tracker.Track("p2", "c1")

	n, err := tracker.CheckForReplies(context.Background())
	if err != nil {
		t.Fatalf("CheckForReplies: %v", err)
	}
	if n != 1 || len(p.replies) != 1 || p.replies[0].postID != "p2" {
		t.Fatalf("expected p2 answered despite p1 failure, got n=%d replies=%+v", n, p.replies)
	}
}

func TestCheckForReplies_ShortThreadSkipsSummary(t *testing.T) {
	// Four messages total: at the threshold, not past it.
	post := &types.Post{
		ID:    "p1",
		Title: "Round recap",
		Comments: []*types.Comment{
			comment("c1", agent, "opening",
				comment("r1", "alice", "first question",
					comment("c2", agent, "first answer",
						comment("r2", "alice", "followup")))),
		},
	}
	store := newStore(t)
	p := &fakePlatform{posts: map[string]*types.Post{"p1": post}}
	g := &fakeGen{}
	tracker := NewTracker(store, p, g, agent)
	tracker.Track("p1", "c1")

	loaded, _ := store.Load()
	loaded.Conversations[0].MarkSeen("r1")
	store.Save(loaded)

	if _, err := tracker.CheckForReplies(context.Background()); err != nil {
		t.Fatalf("CheckForReplies: %v", err)
	}
	if len(g.summarizeCalls) != 0 {
		t.Errorf("expected no summarization, got %d calls", len(g.summarizeCalls))
	}
	if len(g.replyCalls) != 1 {
		t.Fatalf("expected 1 reply call, got %d", len(g.replyCalls))
	}
	if g.replyCalls[0].summary != "" {
		t.Errorf("expected empty summary, got %q", g.replyCalls[0].summary)
	}
	if len(g.replyCalls[0].recent) != 4 {
		t.Errorf("expected all 4 messages passed verbatim, got %d", len(g.replyCalls[0].recent))
	}
}

func TestCheckForReplies_LongThreadSummarizesOlder(t *testing.T) {
	// Five messages: the first three get summarized, the last two stay.
	post := &types.Post{
		ID:    "p1",
		Title: "Round recap",
		Comments: []*types.Comment{
			comment("c1", agent, "opening",
				comment("r1", "alice", "first question",
					comment("r2", "alice", "more detail",
						comment("c2", agent, "first answer",
							comment("r3", "alice", "followup"))))),
		},
	}
	store := newStore(t)
	p := &fakePlatform{posts: map[string]*types.Post{"p1": post}}
	g := &fakeGen{}
	tracker := NewTracker(store, p, g, agent)
	tracker.Track("p1", "c1")

	loaded, _ := store.Load()
	loaded.Conversations[0].MarkSeen("r1")
	loaded.Conversations[0].MarkSeen("r2")
	store.Save(loaded)

	if _, err := tracker.CheckForReplies(context.Background()); err != nil {
		t.Fatalf("CheckForReplies: %v", err)
	}
	if len(g.summarizeCalls) != 1 {
		t.Fatalf("expected 1 summarize call, got %d", len(g.summarizeCalls))
	}
	if got := len(g.summarizeCalls[0].messages); got != 3 {
		t.Errorf("expected 3 older messages summarized, got %d", got)
	}
	if len(g.replyCalls) != 1 {
		t.Fatalf("expected 1 reply call, got %d", len(g.replyCalls))
	}
	if g.replyCalls[0].summary != "summary of earlier talk" {
		t.Errorf("summary not passed to reply: %q", g.replyCalls[0].summary)
	}
	if len(g.replyCalls[0].recent) != 2 {
		t.Errorf("expected 2 recent messages, got %d", len(g.replyCalls[0].recent))
	}

	loaded, _ = store.Load()
	conv := loaded.Conversations[0]
	if conv.Summary != "summary of earlier talk" || conv.SummarizedCount != 3 {
		t.Errorf("summary state not persisted: %+v", conv)
	}
}

func TestCheckForReplies_SummarizeFailureStillReplies(t *testing.T) {
	post := &types.Post{
		ID:    "p1",
		Title: "Round recap",
		Comments: []*types.Comment{
			comment("c1", agent, "opening",
				comment("r1", "alice", "first question",
					comment("r2", "alice", "more detail",
						comment("c2", agent, "first answer",
							comment("r3", "alice", "followup"))))),
		},
	}
	store := newStore(t)
	p := &fakePlatform{posts: map[string]*types.Post{"p1": post}}
	g := &fakeGen{summarizeErr: errors.New("backend down")}
	tracker := NewTracker(store, p, g, agent)
	tracker.Track("p1", "c1")

	loaded, _ := store.Load()
	loaded.Conversations[0].MarkSeen("r1")
	loaded.Conversations[0].MarkSeen("r2")
	store.Save(loaded)

	n, err := tracker.CheckForReplies(context.Background())
	if err != nil {
		t.Fatalf("CheckForReplies: %v", err)
	}
	if n != 1 || len(p.replies) != 1 {
		t.Fatalf("expected reply despite summarize failure, got n=%d", n)
	}
	if g.replyCalls[0].summary != "" {
		t.Errorf("expected empty summary after failure, got %q", g.replyCalls[0].summary)
	}
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope.json"))
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Conversations) != 0 {
		t.Errorf("expected empty store, got %d entries", len(loaded.Conversations))
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	store := newStore(t)
	in := &types.ConversationStore{}
	in.Append(&types.TrackedConversation{PostID: "p1", CommentID: "c1", Summary: "s"})
	if err := store.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out.Conversations) != 1 || out.Conversations[0].Summary != "s" {
		t.Errorf("round trip lost data: %+v", out)
	}
}
