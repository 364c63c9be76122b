package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TamagotchiFibi/TaskManagementAPI/kv"
)

var (
	// ErrResetNotFound covers a token that never existed, expired, or was
	// already consumed. The three cases are deliberately indistinguishable.
	ErrResetNotFound = errors.New("reset token not found")
	// ErrResetUnavailable indicates the reset backend is unreachable.
	ErrResetUnavailable = errors.New("reset store unavailable")
)

type resetRecord struct {
	UserID string `json:"user_id"`
}

// ResetStore issues and consumes single-use password-reset tokens. A token
// is an unguessable random identifier mapping to the subject it authorizes;
// the secret value itself is the key, handed to the principal out of band.
type ResetStore struct {
	store kv.Store
	ttl   time.Duration
}

func NewResetStore(store kv.Store, ttl time.Duration) *ResetStore {
	return &ResetStore{store: store, ttl: ttl}
}

func (s *ResetStore) key(token string) string {
	return "reset_token:" + token
}

// Issue creates a fresh token for userID with the configured TTL.
func (s *ResetStore) Issue(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()

	payload, err := json.Marshal(resetRecord{UserID: userID})
	if err != nil {
		return "", err
	}
	if err := s.store.Set(ctx, s.key(token), payload, s.ttl); err != nil {
		return "", fmt.Errorf("%w: %v", ErrResetUnavailable, err)
	}
	return token, nil
}

// Consume redeems a token exactly once and returns the subject it was
// issued for. The store's delete reports whether this caller removed the
// key, so under concurrent redemption at most one caller succeeds; the
// rest observe ErrResetNotFound, same as an expired or unknown token.
func (s *ResetStore) Consume(ctx context.Context, token string) (string, error) {
	data, err := s.store.Get(ctx, s.key(token))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", ErrResetNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrResetUnavailable, err)
	}

	var record resetRecord
	if err := json.Unmarshal(data, &record); err != nil || record.UserID == "" {
		// Corrupt entry: burn it rather than leave it redeemable.
		_, _ = s.store.Delete(ctx, s.key(token))
		return "", ErrResetNotFound
	}

	deleted, err := s.store.Delete(ctx, s.key(token))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrResetUnavailable, err)
	}
	if !deleted {
		// Lost the race with a concurrent redemption or TTL expiry.
		return "", ErrResetNotFound
	}
	return record.UserID, nil
}

// TTL reports the remaining lifetime of an outstanding token.
func (s *ResetStore) TTL(ctx context.Context, token string) (time.Duration, error) {
	d, err := s.store.TTL(ctx, s.key(token))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrResetUnavailable, err)
	}
	if d == kv.TTLMissing {
		return 0, ErrResetNotFound
	}
	return d, nil
}
