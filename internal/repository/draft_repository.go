package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ErrDraftNotFound is returned when a draft session is absent or expired.
var ErrDraftNotFound = errors.New("draft session not found")

// DraftRepository stores contract form draft sessions. Each session holds one
// JSON-encoded draft under its own key with a sliding TTL.
type DraftRepository interface {
	Save(ctx context.Context, draft *domain.ContractDraft) error
	Get(ctx context.Context, sessionID string) (*domain.ContractDraft, error)
	Delete(ctx context.Context, sessionID string) error
}

type draftRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftRepository builds a Redis-backed draft store.
func NewDraftRepository(client *redis.Client, ttl time.Duration) DraftRepository {
	return &draftRepository{client: client, ttl: ttl}
}

func draftKey(sessionID string) string {
	return "contract_draft:" + sessionID
}

func (r *draftRepository) Save(ctx context.Context, draft *domain.ContractDraft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, draftKey(draft.SessionID), payload, r.ttl).Err()
}

func (r *draftRepository) Get(ctx context.Context, sessionID string) (*domain.ContractDraft, error) {
	payload, err := r.client.Get(ctx, draftKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	var draft domain.ContractDraft
	if err := json.Unmarshal(payload, &draft); err != nil {
		return nil, err
	}
	// touch the TTL so active sessions do not expire mid-edit
	_ = r.client.Expire(ctx, draftKey(sessionID), r.ttl).Err()
	return &draft, nil
}

func (r *draftRepository) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, draftKey(sessionID)).Err()
}
