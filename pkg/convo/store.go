// Package convo tracks the agent's conversations and answers new replies.
package convo

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/murmurbot/murmur/pkg/types"
)

// Store persists the conversation list between heartbeats.
type Store interface {
	Load() (*types.ConversationStore, error)
	Save(*types.ConversationStore) error
}

// FileStore keeps the conversation store as one JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the store from disk. A missing file yields an empty store.
func (s *FileStore) Load() (*types.ConversationStore, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &types.ConversationStore{}, nil
		}
		return nil, fmt.Errorf("read conversation store: %w", err)
	}

	var store types.ConversationStore
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("parse conversation store: %w", err)
	}
	return &store, nil
}

// Save writes the whole store back to disk.
func (s *FileStore) Save(store *types.ConversationStore) error {
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal conversation store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write conversation store: %w", err)
	}
	return nil
}
