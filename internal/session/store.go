// Package session keeps server-side login state keyed by the session
// cookie.  The backing store is picked once at startup.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ALVINfrs/caffeine/internal/config"
	"github.com/ALVINfrs/caffeine/internal/model"
)

// ErrNotFound is returned by Get for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// User is the profile cached in a session after login.
type User struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// Data is what a session holds.
type Data struct {
	UserID uint64 `json:"userId"`
	User   User   `json:"user"`
}

// FromUser builds session data for a freshly authenticated account.
func FromUser(u *model.User) Data {
	return Data{
		UserID: u.ID,
		User:   User{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role},
	}
}

// Requester converts session data into the identity used by services.
func (d Data) Requester() model.Requester {
	id := d.UserID
	return model.Requester{UserID: &id, Email: model.NormalizeEmail(d.User.Email), Role: d.User.Role}
}

// Store persists sessions.  Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, id string) (Data, error)
	Set(ctx context.Context, id string, d Data) error
	Destroy(ctx context.Context, id string) error
}

// NewID returns a fresh random session identifier.
func NewID() string { return uuid.NewString() }

// NewStore selects the backend named by cfg.Store.  The redis backend
// needs rdb and the mysql backend needs db.
func NewStore(cfg config.SessionConfig, rdb *redis.Client, db *sql.DB) (Store, error) {
	switch cfg.Store {
	case "", config.SessionMemory:
		return NewMemoryStore(cfg.TTL), nil
	case config.SessionRedis:
		if rdb == nil {
			return nil, errors.New("session store redis requires a redis client")
		}
		return NewRedisStore(rdb, cfg.Prefix, cfg.TTL), nil
	case config.SessionMySQL:
		if db == nil {
			return nil, errors.New("session store mysql requires a database")
		}
		return NewMySQLStore(db, cfg.TTL), nil
	}
	return nil, fmt.Errorf("unknown session store %q", cfg.Store)
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 24 * time.Hour
	}
	return ttl
}
