package repositories

import (
	"context"
	"strings"
	"sync"

	"github.com/fanvid/backend/internal/models"
)

// NewInMemoryUserStore returns a UserRepository backed by in-memory maps.
// Data is process-resident and lost on restart.
func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:  make(map[string]models.User),
		emails: make(map[string]string),
	}
}

// InMemoryUserStore implements UserRepository with a mutex-guarded map.
type InMemoryUserStore struct {
	mu     sync.RWMutex
	users  map[string]models.User
	order  []string
	emails map[string]string // normalized email -> user id
}

// Create persists a new user, enforcing id and email uniqueness.
func (s *InMemoryUserStore) Create(_ context.Context, user models.User) error {
	email := normalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return ErrConflict
	}
	if _, ok := s.emails[email]; ok {
		return ErrConflict
	}

	s.users[user.ID] = user
	s.order = append(s.order, user.ID)
	s.emails[email] = user.ID
	return nil
}

// FindByID retrieves a user by identifier.
func (s *InMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	user, ok := s.users[id]
	s.mu.RUnlock()
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

// FindByEmail retrieves a user by case-normalized email.
func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[normalizeEmail(email)]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return s.users[id], nil
}

// Update replaces the stored record, keeping the email index consistent.
func (s *InMemoryUserStore) Update(_ context.Context, user models.User) error {
	email := normalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return ErrNotFound
	}

	if existing, taken := s.emails[email]; taken && existing != user.ID {
		return ErrConflict
	}

	delete(s.emails, normalizeEmail(current.Email))
	s.emails[email] = user.ID
	s.users[user.ID] = user
	return nil
}

// Search returns active users whose name, last name, or email contains the
// query (case-insensitive), in registration order, capped at limit.
func (s *InMemoryUserStore) Search(_ context.Context, query string, limit int) ([]models.User, error) {
	term := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []models.User
	for _, id := range s.order {
		user := s.users[id]
		if !user.IsActive {
			continue
		}
		if !strings.Contains(strings.ToLower(user.Name), term) &&
			!strings.Contains(strings.ToLower(user.LastName), term) &&
			!strings.Contains(strings.ToLower(user.Email), term) {
			continue
		}
		matches = append(matches, user)
		if limit > 0 && len(matches) >= limit {
			break
		}
	}
	return matches, nil
}

// AppendUploadedVideo adds a video id to the owner's uploaded list.
func (s *InMemoryUserStore) AppendUploadedVideo(_ context.Context, userID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.UploadedVideos = append(append([]string{}, user.UploadedVideos...), videoID)
	s.users[userID] = user
	return nil
}

// RemoveUploadedVideo removes a video id from the owner's uploaded list.
func (s *InMemoryUserStore) RemoveUploadedVideo(_ context.Context, userID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}

	kept := make([]string, 0, len(user.UploadedVideos))
	for _, id := range user.UploadedVideos {
		if id != videoID {
			kept = append(kept, id)
		}
	}
	user.UploadedVideos = kept
	s.users[userID] = user
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
