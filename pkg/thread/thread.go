// Package thread provides pure traversal functions over comment trees.
package thread

import (
	"github.com/murmurbot/murmur/pkg/types"
)

// Flatten reduces a comment subtree to one linear message sequence, starting
// at root. At each level exactly one branch is followed: the first child
// whose subtree contains the agent as an author, otherwise the first child
// not authored by the agent. Sibling branches past the chosen one are
// dropped; a reply tree can fork into unrelated side-conversations and only
// one of them is the agent's own thread.
func Flatten(root *types.Comment, agentName string) []types.ThreadMessage {
	if root == nil {
		return nil
	}

	messages := []types.ThreadMessage{{Author: root.Author.Username, Content: root.Content}}

	node := root
	for {
		next := chooseBranch(node.Replies, agentName)
		if next == nil {
			return messages
		}
		messages = append(messages, types.ThreadMessage{Author: next.Author.Username, Content: next.Content})
		node = next
	}
}

// chooseBranch picks the reply branch to follow: first the leftmost child
// whose subtree involves the agent, then the leftmost third-party child.
func chooseBranch(replies []*types.Comment, agentName string) *types.Comment {
	for _, r := range replies {
		if containsAuthor(r, agentName) {
			return r
		}
	}
	for _, r := range replies {
		if r.Author.Username != agentName {
			return r
		}
	}
	return nil
}

// containsAuthor reports whether name authored the comment or anything below
// it. Iterative so pathological thread depth cannot blow the stack.
func containsAuthor(root *types.Comment, name string) bool {
	stack := []*types.Comment{root}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if c.Author.Username == name {
			return true
		}
		for i := len(c.Replies) - 1; i >= 0; i-- {
			stack = append(stack, c.Replies[i])
		}
	}
	return false
}

// FindUnansweredReply scans the tree under root in pre-order for the first
// reply directed at the agent that has not been seen yet: a child of an
// agent-authored comment, written by someone else, whose id is not in seen.
// Each direct reply is checked before being descended into, so shallow
// replies win over deeper ones and sibling ties resolve left-to-right.
// Returns the reply and its parent, or nil, nil.
func FindUnansweredReply(root *types.Comment, agentName string, seen map[string]bool) (reply, parent *types.Comment) {
	if root == nil {
		return nil, nil
	}

	type frame struct {
		node *types.Comment
		next int
	}
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if f.next >= len(f.node.Replies) {
			stack = stack[:len(stack)-1]
			continue
		}
		child := f.node.Replies[f.next]
		f.next++

		if f.node.Author.Username == agentName && child.Author.Username != agentName && !seen[child.ID] {
			return child, f.node
		}
		stack = append(stack, frame{node: child})
	}
	return nil, nil
}

// FindComment locates a comment by id anywhere in a forest.
func FindComment(forest []*types.Comment, id string) *types.Comment {
	stack := make([]*types.Comment, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, forest[i])
	}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if c.ID == id {
			return c
		}
		for i := len(c.Replies) - 1; i >= 0; i-- {
			stack = append(stack, c.Replies[i])
		}
	}
	return nil
}
