package thread

import (
	"testing"

	"github.com/murmurbot/murmur/pkg/types"
)

const agent = "murmur"

func c(id, author, content string, replies ...*types.Comment) *types.Comment {
	return &types.Comment{
		ID:      id,
		Author:  types.Author{Username: author},
		Content: content,
		Replies: replies,
	}
}

func TestFlatten_SingleBranch(t *testing.T) {
	root := c("1", agent, "root",
		c("2", "alice", "first",
			c("3", agent, "second",
				c("4", "alice", "third"))))

	msgs := Flatten(root, agent)
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	want := []string{"root", "first", "second", "third"}
	for i, w := range want {
		if msgs[i].Content != w {
			t.Errorf("message %d: expected %q, got %q", i, w, msgs[i].Content)
		}
	}
}

func TestFlatten_PrefersBranchWithAgent(t *testing.T) {
	// Two sibling branches under the root; the agent participates only in
	// the second one, so the first must be dropped.
	root := c("1", agent, "root",
		c("2", "alice", "side conversation",
			c("3", "bob", "side reply")),
		c("4", "bob", "main",
			c("5", agent, "my follow-up")))

	msgs := Flatten(root, agent)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[1].Content != "main" || msgs[2].Content != "my follow-up" {
		t.Errorf("expected agent branch to be followed, got %+v", msgs)
	}
}

func TestFlatten_FallsBackToFirstThirdPartyBranch(t *testing.T) {
	root := c("1", agent, "root",
		c("2", "alice", "a"),
		c("3", "bob", "b"))

	msgs := Flatten(root, agent)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[1].Content != "a" {
		t.Errorf("expected leftmost third-party branch, got %q", msgs[1].Content)
	}
}

func TestFlatten_NoFanOut(t *testing.T) {
	// Once a branch is chosen, siblings at every level are dropped.
	root := c("1", agent, "root",
		c("2", "alice", "a",
			c("3", "bob", "a1"),
			c("4", "carol", "a2")))

	msgs := Flatten(root, agent)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[2].Content != "a1" {
		t.Errorf("expected leftmost subreply, got %q", msgs[2].Content)
	}
}

func TestFlatten_Nil(t *testing.T) {
	if msgs := Flatten(nil, agent); msgs != nil {
		t.Errorf("expected nil for nil root, got %+v", msgs)
	}
}

func TestFindUnansweredReply_Shallow(t *testing.T) {
	root := c("1", agent, "root",
		c("2", "alice", "unseen reply"))

	reply, parent := FindUnansweredReply(root, agent, map[string]bool{})
	if reply == nil {
		t.Fatal("expected a reply")
	}
	if reply.ID != "2" {
		t.Errorf("expected reply 2, got %s", reply.ID)
	}
	if parent.ID != "1" {
		t.Errorf("expected parent 1, got %s", parent.ID)
	}
}

func TestFindUnansweredReply_SkipsSeen(t *testing.T) {
	root := c("1", agent, "root",
		c("2", "alice", "already handled"),
		c("3", "bob", "new one"))

	reply, _ := FindUnansweredReply(root, agent, map[string]bool{"2": true})
	if reply == nil || reply.ID != "3" {
		t.Fatalf("expected reply 3, got %+v", reply)
	}
}

func TestFindUnansweredReply_SkipsOwnReplies(t *testing.T) {
	root := c("1", agent, "root",
		c("2", agent, "talking to myself",
			c("3", "alice", "reply to my second comment")))

	reply, parent := FindUnansweredReply(root, agent, map[string]bool{})
	if reply == nil || reply.ID != "3" {
		t.Fatalf("expected reply 3, got %+v", reply)
	}
	if parent.ID != "2" {
		t.Errorf("expected parent 2, got %s", parent.ID)
	}
}

func TestFindUnansweredReply_LeftToRightDeterminism(t *testing.T) {
	root := c("1", agent, "root",
		c("2", "alice", "left"),
		c("3", "bob", "right"))

	for i := 0; i < 10; i++ {
		reply, _ := FindUnansweredReply(root, agent, map[string]bool{})
		if reply == nil || reply.ID != "2" {
			t.Fatalf("run %d: expected leftmost reply 2, got %+v", i, reply)
		}
	}
}

func TestFindUnansweredReply_NoneDirectedAtAgent(t *testing.T) {
	root := c("1", "alice", "not mine",
		c("2", "bob", "reply to alice"))

	reply, _ := FindUnansweredReply(root, agent, map[string]bool{})
	if reply != nil {
		t.Errorf("expected no reply, got %s", reply.ID)
	}
}

func TestFindUnansweredReply_DescendsBeforeNextSibling(t *testing.T) {
	// Each reply's subtree is exhausted before the scan moves on to the
	// next sibling, so the match inside the first child wins.
	root := c("1", agent, "root",
		c("2", agent, "mine",
			c("3", "alice", "deep reply")),
		c("4", "bob", "sibling reply"))

	reply, parent := FindUnansweredReply(root, agent, map[string]bool{})
	if reply == nil || reply.ID != "3" {
		t.Fatalf("expected reply 3 inside first branch, got %+v", reply)
	}
	if parent.ID != "2" {
		t.Errorf("expected parent 2, got %s", parent.ID)
	}
}

func TestFindComment(t *testing.T) {
	forest := []*types.Comment{
		c("1", "alice", "a",
			c("2", "bob", "b",
				c("3", agent, "c"))),
		c("4", "carol", "d"),
	}

	if found := FindComment(forest, "3"); found == nil || found.Content != "c" {
		t.Fatalf("expected to find comment 3, got %+v", found)
	}
	if found := FindComment(forest, "missing"); found != nil {
		t.Errorf("expected nil for missing id, got %+v", found)
	}
}
