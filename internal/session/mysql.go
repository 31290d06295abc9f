package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// MySQLStore keeps sessions in the sessions table.  Expired rows are
// ignored on read and removed on the next write.
type MySQLStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewMySQLStore(db *sql.DB, ttl time.Duration) *MySQLStore {
	return &MySQLStore{db: db, ttl: ttlOrDefault(ttl), now: time.Now}
}

func (s *MySQLStore) Get(ctx context.Context, id string) (Data, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE id = ? AND expires_at > ?`, id, s.now().UTC()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Data{}, ErrNotFound
	}
	if err != nil {
		return Data{}, err
	}
	var d Data
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Data{}, err
	}
	return d, nil
}

func (s *MySQLStore) Set(ctx context.Context, id string, d Data) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, data, expires_at) VALUES (?, ?, ?)
         ON DUPLICATE KEY UPDATE data = VALUES(data), expires_at = VALUES(expires_at)`,
		id, string(raw), now.Add(s.ttl))
	return err
}

func (s *MySQLStore) Destroy(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}
