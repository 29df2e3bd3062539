package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/smartinvoice/backend/internal/domain/pricing"
	"github.com/smartinvoice/backend/internal/domain/shared"
)

const draftKeyPrefix = "invoice:draft:"

func draftKey(ownerID, id uuid.UUID) string {
	return draftKeyPrefix + ownerID.String() + ":" + id.String()
}

// RedisDraftStore keeps drafts as JSON documents with a TTL
type RedisDraftStore struct {
	client redis.UniversalClient
}

// NewRedisDraftStore creates a draft store over a shared client
func NewRedisDraftStore(client redis.UniversalClient) *RedisDraftStore {
	return &RedisDraftStore{client: client}
}

// Get loads a draft
func (s *RedisDraftStore) Get(ctx context.Context, ownerID, id uuid.UUID) (*pricing.Draft, error) {
	data, err := s.client.Get(ctx, draftKey(ownerID, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	var d pricing.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &d, nil
}

// Put stores a draft
func (s *RedisDraftStore) Put(ctx context.Context, d *pricing.Draft, ttl time.Duration) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(d.OwnerID, d.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("store draft: %w", err)
	}
	return nil
}

// Delete removes a draft
func (s *RedisDraftStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.client.Del(ctx, draftKey(ownerID, id)).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// InMemoryDraftStore keeps drafts in process. Drafts are stored serialized so
// callers never share mutable state with the store.
type InMemoryDraftStore struct {
	mu     sync.Mutex
	drafts map[string]entry
	now    func() time.Time
}

// NewInMemoryDraftStore creates an empty in-memory draft store
func NewInMemoryDraftStore() *InMemoryDraftStore {
	return &InMemoryDraftStore{drafts: make(map[string]entry), now: time.Now}
}

// Get loads a draft
func (s *InMemoryDraftStore) Get(ctx context.Context, ownerID, id uuid.UUID) (*pricing.Draft, error) {
	s.mu.Lock()
	e, ok := s.drafts[draftKey(ownerID, id)]
	if ok && e.expired(s.now()) {
		delete(s.drafts, draftKey(ownerID, id))
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, shared.ErrNotFound
	}

	var d pricing.Draft
	if err := json.Unmarshal([]byte(e.value), &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &d, nil
}

// Put stores a draft
func (s *InMemoryDraftStore) Put(ctx context.Context, d *pricing.Draft, ttl time.Duration) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draftKey(d.OwnerID, d.ID)] = entry{value: string(data), expiresAt: s.now().Add(ttl)}
	return nil
}

// Delete removes a draft
func (s *InMemoryDraftStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, draftKey(ownerID, id))
	return nil
}

var (
	_ pricing.DraftStore = (*RedisDraftStore)(nil)
	_ pricing.DraftStore = (*InMemoryDraftStore)(nil)
)
