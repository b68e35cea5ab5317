package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ByLCY/memecanvas/feed"
)

type upvoteKey struct {
	memeID, userID string
}

// Store keeps memes and upvotes in process memory.
type Store struct {
	mu      sync.RWMutex
	memes   map[string]*feed.Meme
	order   []string
	upvotes map[upvoteKey]feed.Upvote
}

var _ feed.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		memes:   make(map[string]*feed.Meme),
		upvotes: make(map[upvoteKey]feed.Upvote),
	}
}

func (s *Store) CreateMeme(ctx context.Context, meme *feed.Meme) error {
	if meme == nil || meme.ID == "" {
		return fmt.Errorf("meme id cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.memes[meme.ID]; exists {
		return fmt.Errorf("meme with id %s already exists", meme.ID)
	}
	stored := *meme
	s.memes[meme.ID] = &stored
	s.order = append(s.order, meme.ID)
	logrus.WithField("meme_id", meme.ID).Debug("Meme stored in memory")
	return nil
}

func (s *Store) ListMemes(ctx context.Context) ([]*feed.Meme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	memes := make([]*feed.Meme, 0, len(s.order))
	for _, id := range s.order {
		m := *s.memes[id]
		memes = append(memes, &m)
	}
	return memes, nil
}

func (s *Store) GetMeme(ctx context.Context, id string) (*feed.Meme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.memes[id]
	if !ok {
		return nil, feed.ErrNotFound
	}
	out := *m
	return &out, nil
}

func (s *Store) HasUpvoted(ctx context.Context, memeID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.upvotes[upvoteKey{memeID, userID}]
	return ok, nil
}

// Upvote records the vote and bumps the count under one lock.
func (s *Store) Upvote(ctx context.Context, upvote *feed.Upvote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.memes[upvote.MemeID]
	if !ok {
		return feed.ErrNotFound
	}
	key := upvoteKey{upvote.MemeID, upvote.UserID}
	if _, dup := s.upvotes[key]; dup {
		return feed.ErrAlreadyUpvoted
	}
	s.upvotes[key] = *upvote
	m.UpvoteCount++
	return nil
}
