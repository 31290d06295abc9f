package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ALVINfrs/caffeine/internal/config"
	"github.com/ALVINfrs/caffeine/internal/model"
)

var sample = FromUser(&model.User{ID: 42, Name: "Budi", Email: "Budi@Example.com", Phone: "0812", Role: model.RoleUser})

func TestRequesterFromSession(t *testing.T) {
	who := sample.Requester()
	require.NotNil(t, who.UserID)
	assert.Equal(t, uint64(42), *who.UserID)
	assert.Equal(t, "budi@example.com", who.Email)
	assert.Equal(t, model.RoleUser, who.Role)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 9, 8, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "a", sample))
	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, sample, got)

	now = now.Add(time.Hour)
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "b", sample))
	require.NoError(t, s.Destroy(ctx, "b"))
	_, err = s.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	rdb, mock := redismock.NewClientMock()
	s := NewRedisStore(rdb, "caffeine:sess:", 2*time.Hour)
	raw, err := json.Marshal(sample)
	require.NoError(t, err)

	mock.ExpectSet("caffeine:sess:abc", raw, 2*time.Hour).SetVal("OK")
	mock.ExpectGet("caffeine:sess:abc").SetVal(string(raw))
	mock.ExpectDel("caffeine:sess:abc").SetVal(1)
	mock.ExpectGet("caffeine:sess:abc").RedisNil()

	require.NoError(t, s.Set(ctx, "abc", sample))
	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, sample, got)
	require.NoError(t, s.Destroy(ctx, "abc"))
	_, err = s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	now := time.Date(2025, 1, 9, 8, 0, 0, 0, time.UTC)
	s := NewMySQLStore(db, time.Hour)
	s.now = func() time.Time { return now }
	raw, _ := json.Marshal(sample)

	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at <= \?`).WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO sessions`).WithArgs("abc", string(raw), now.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT data FROM sessions WHERE id = \? AND expires_at > \?`).WithArgs("abc", now).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(string(raw)))
	mock.ExpectQuery(`SELECT data FROM sessions`).WithArgs("gone", now).
		WillReturnRows(sqlmock.NewRows([]string{"data"}))
	mock.ExpectExec(`DELETE FROM sessions WHERE id = \?`).WithArgs("abc").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Set(ctx, "abc", sample))
	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, sample, got)
	_, err = s.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Destroy(ctx, "abc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(config.SessionConfig{Store: config.SessionMemory}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = NewStore(config.SessionConfig{Store: config.SessionRedis}, nil, nil)
	assert.Error(t, err)
	_, err = NewStore(config.SessionConfig{Store: config.SessionMySQL}, nil, nil)
	assert.Error(t, err)
	_, err = NewStore(config.SessionConfig{Store: "file"}, nil, nil)
	assert.Error(t, err)

	assert.NotEqual(t, NewID(), NewID())
}
