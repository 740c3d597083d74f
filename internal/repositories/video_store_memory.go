package repositories

import (
	"context"
	"sync"

	"github.com/fanvid/backend/internal/models"
)

// NewInMemoryVideoStore returns a VideoRepository backed by an in-memory map.
func NewInMemoryVideoStore() *InMemoryVideoStore {
	return &InMemoryVideoStore{videos: make(map[string]models.Video)}
}

// InMemoryVideoStore implements VideoRepository with a mutex-guarded map
// plus an insertion-order slice so listings stay stable.
type InMemoryVideoStore struct {
	mu     sync.RWMutex
	videos map[string]models.Video
	order  []string
}

// Insert adds a new catalog entry.
func (s *InMemoryVideoStore) Insert(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[video.ID]; ok {
		return ErrConflict
	}
	s.videos[video.ID] = video
	s.order = append(s.order, video.ID)
	return nil
}

// FindByID retrieves a catalog entry.
func (s *InMemoryVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.RLock()
	video, ok := s.videos[id]
	s.mu.RUnlock()
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return video, nil
}

// Update replaces an existing catalog entry.
func (s *InMemoryVideoStore) Update(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[video.ID]; !ok {
		return ErrNotFound
	}
	s.videos[video.ID] = video
	return nil
}

// Delete removes a catalog entry.
func (s *InMemoryVideoStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[id]; !ok {
		return ErrNotFound
	}
	delete(s.videos, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns a snapshot of all videos in insertion order.
func (s *InMemoryVideoStore) List(_ context.Context) ([]models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]models.Video, 0, len(s.order))
	for _, id := range s.order {
		snapshot = append(snapshot, s.videos[id])
	}
	return snapshot, nil
}

// IncrementViews bumps the view counter under the store lock and returns the
// updated record.
func (s *InMemoryVideoStore) IncrementViews(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	video.ViewCount++
	s.videos[id] = video
	return video, nil
}
