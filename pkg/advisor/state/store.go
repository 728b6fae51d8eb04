// Package state holds the in-memory conversation log for one client session.
package state

import (
	"errors"
	"sort"
	"sync"
	"time"

	"sponsor-advisor-be/internal/entity"

	"github.com/google/uuid"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidMessage       = errors.New("invalid conversation message")
	ErrDuplicateMessage     = errors.New("message already exists")
	ErrNotTrailingMessage   = errors.New("only the most recent message can be removed")
)

// Store is one session's conversations plus its active pointer.
// Every read returns a deep copy; callers never hold references into the store.
type Store struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]*entity.Conversation
	activeId      *uuid.UUID
	now           func() time.Time
}

func NewStore() *Store {
	return &Store{
		conversations: make(map[uuid.UUID]*entity.Conversation),
		now:           time.Now,
	}
}

// CreateConversation allocates an empty conversation and makes it active.
func (s *Store) CreateConversation(title string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := uuid.New()
	s.conversations[id] = &entity.Conversation{
		Id:           id,
		Title:        title,
		LastActivity: now,
		CreatedAt:    now,
	}
	s.activeId = &id
	return id
}

func (s *Store) SetActive(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return ErrConversationNotFound
	}
	s.activeId = &id
	return nil
}

// AddMessage appends msg. A zero Id or Timestamp is filled in; a timestamp not after
// the last message is moved to one microsecond past it, so timestamps are strictly
// increasing and order by created_at alone reproduces the log.
func (s *Store) AddMessage(id uuid.UUID, msg entity.ConversationMessage) error {
	if msg.Role != entity.RoleUser && msg.Role != entity.RoleAssistant {
		return ErrInvalidMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return ErrConversationNotFound
	}

	if msg.Id == uuid.Nil {
		msg.Id = uuid.New()
	}
	for _, m := range conv.Messages {
		if m.Id == msg.Id {
			return ErrDuplicateMessage
		}
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	if n := len(conv.Messages); n > 0 && !msg.Timestamp.After(conv.Messages[n-1].Timestamp) {
		msg.Timestamp = conv.Messages[n-1].Timestamp.Add(time.Microsecond)
	}

	conv.Messages = append(conv.Messages, cloneMessage(msg))
	if msg.Timestamp.After(conv.LastActivity) {
		conv.LastActivity = msg.Timestamp
	}
	return nil
}

// RemoveMessage reverses an optimistic append. Only the trailing message may be removed.
func (s *Store) RemoveMessage(id, messageId uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return ErrConversationNotFound
	}
	n := len(conv.Messages)
	if n == 0 || conv.Messages[n-1].Id != messageId {
		return ErrNotTrailingMessage
	}
	conv.Messages = conv.Messages[:n-1]
	return nil
}

// UpdatePreferences merges prefs into the saved preferences; set fields win.
func (s *Store) UpdatePreferences(id uuid.UUID, prefs entity.SavedPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return ErrConversationNotFound
	}
	conv.Preferences = MergePreferences(conv.Preferences, prefs)
	return nil
}

func (s *Store) DeleteConversation(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return ErrConversationNotFound
	}
	delete(s.conversations, id)
	if s.activeId != nil && *s.activeId == id {
		s.activeId = nil
	}
	return nil
}

func (s *Store) GetActive() *entity.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activeId == nil {
		return nil
	}
	conv, ok := s.conversations[*s.activeId]
	if !ok {
		return nil
	}
	return cloneConversation(conv)
}

func (s *Store) GetById(id uuid.UUID) *entity.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil
	}
	return cloneConversation(conv)
}

// ListAll returns every conversation, most recently active first.
func (s *Store) ListAll() []*entity.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		out = append(out, cloneConversation(conv))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastActivity.Equal(out[j].LastActivity) {
			return out[i].Id.String() < out[j].Id.String()
		}
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out
}

// Hydrate installs a conversation loaded from persistent storage, replacing any
// in-memory copy with the same id.
func (s *Store) Hydrate(conv *entity.Conversation, makeActive bool) {
	if conv == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := cloneConversation(conv)
	sort.SliceStable(c.Messages, func(i, j int) bool {
		return c.Messages[i].Timestamp.Before(c.Messages[j].Timestamp)
	})
	s.conversations[c.Id] = c
	if makeActive {
		id := c.Id
		s.activeId = &id
	}
}

// MergePreferences returns base with every set field of update applied.
func MergePreferences(base *entity.SavedPreferences, update entity.SavedPreferences) *entity.SavedPreferences {
	out := clonePreferences(base)
	if out == nil {
		out = &entity.SavedPreferences{}
	}
	if update.Sports != nil {
		out.Sports = append([]string(nil), update.Sports...)
	}
	if update.BudgetMin != nil {
		v := *update.BudgetMin
		out.BudgetMin = &v
	}
	if update.BudgetMax != nil {
		v := *update.BudgetMax
		out.BudgetMax = &v
	}
	if update.RadiusKm != nil {
		v := *update.RadiusKm
		out.RadiusKm = &v
	}
	return out
}

func cloneConversation(c *entity.Conversation) *entity.Conversation {
	out := *c
	if c.ServerConversationId != nil {
		v := *c.ServerConversationId
		out.ServerConversationId = &v
	}
	out.Preferences = clonePreferences(c.Preferences)
	if c.Messages != nil {
		out.Messages = make([]entity.ConversationMessage, len(c.Messages))
		for i, m := range c.Messages {
			out.Messages[i] = cloneMessage(m)
		}
	}
	return &out
}

func cloneMessage(m entity.ConversationMessage) entity.ConversationMessage {
	out := m
	if m.Recommendations != nil {
		out.Recommendations = make([]entity.CandidatePackage, len(m.Recommendations))
		for i, c := range m.Recommendations {
			out.Recommendations[i] = CloneCandidate(c)
		}
	}
	return out
}

// CloneCandidate deep-copies a candidate so callers cannot alias its slices or pointers.
func CloneCandidate(c entity.CandidatePackage) entity.CandidatePackage {
	out := c
	if c.EstimatedCostPerFan != nil {
		v := *c.EstimatedCostPerFan
		out.EstimatedCostPerFan = &v
	}
	if c.Logo != nil {
		v := *c.Logo
		out.Logo = &v
	}
	if c.Images != nil {
		out.Images = append([]string(nil), c.Images...)
	}
	return out
}

func clonePreferences(p *entity.SavedPreferences) *entity.SavedPreferences {
	if p == nil {
		return nil
	}
	out := &entity.SavedPreferences{}
	if p.Sports != nil {
		out.Sports = append([]string(nil), p.Sports...)
	}
	if p.BudgetMin != nil {
		v := *p.BudgetMin
		out.BudgetMin = &v
	}
	if p.BudgetMax != nil {
		v := *p.BudgetMax
		out.BudgetMax = &v
	}
	if p.RadiusKm != nil {
		v := *p.RadiusKm
		out.RadiusKm = &v
	}
	return out
}
