package oauth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
)

// DefaultStateTTL bounds how long a user may take on the consent page.
const DefaultStateTTL = 5 * time.Minute

// ErrInvalidState is returned when a callback carries a state that was never
// issued, has expired, was already used or belongs to another provider.
var ErrInvalidState = apperrors.New("INVALID_OAUTH_STATE", "invalid or expired oauth state",
	http.StatusBadRequest, apperrors.ErrInvalidInput)

// PendingLogin is what the login step remembers for the callback.
type PendingLogin struct {
	Provider string `json:"provider"`
	Verifier string `json:"verifier"`
}

// StateStore keeps pending logins in Redis keyed by state. Each state can be
// consumed once.
type StateStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewStateStore creates a StateStore. A non-positive ttl uses
// DefaultStateTTL.
func NewStateStore(client redis.Cmdable, prefix string, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateStore{client: client, prefix: prefix, ttl: ttl}
}

// Save stores p under a fresh random state and returns the state.
func (s *StateStore) Save(ctx context.Context, p PendingLogin) (string, error) {
	state := rand.Text()
	payload, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal pending login: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+state, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return state, nil
}

// Consume atomically reads and deletes state.
func (s *StateStore) Consume(ctx context.Context, state string) (PendingLogin, error) {
	if state == "" {
		return PendingLogin{}, ErrInvalidState
	}
	payload, err := s.client.GetDel(ctx, s.prefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return PendingLogin{}, ErrInvalidState
	}
	if err != nil {
		return PendingLogin{}, fmt.Errorf("consume oauth state: %w", err)
	}

	var p PendingLogin
	if err := json.Unmarshal(payload, &p); err != nil {
		return PendingLogin{}, fmt.Errorf("decode pending login: %w", err)
	}
	return p, nil
}
