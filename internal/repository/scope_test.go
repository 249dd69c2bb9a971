package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

func TestMemoryScope_QuotaAndTTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryScope(10, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.Set(ctx, "k", "12345"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := s.Set(ctx, "other", "123456"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	// reemplazar una clave no cuenta su valor anterior
	if err := s.Set(ctx, "k", "123456789"); err != nil {
		t.Fatalf("overwrite within quota failed: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expected key to expire")
	}
}

type mockRedisKV struct {
	store  map[string]string
	setErr error
	getErr error

	lastTTL time.Duration
	lastDel []string
}

func (m *mockRedisKV) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if m.getErr != nil {
		cmd.SetErr(m.getErr)
		return cmd
	}
	v, ok := m.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (m *mockRedisKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	m.lastTTL = expiration
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	m.store[key] = value.(string)
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.lastDel = keys
	for _, k := range keys {
		delete(m.store, k)
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(keys)))
	return cmd
}

func TestRedisScope_PrefixTTLAndNil(t *testing.T) {
	ctx := context.Background()
	mock := &mockRedisKV{store: map[string]string{}}
	s := &RedisScope{client: mock, prefix: "widget:ctx1:", ttl: 30 * time.Minute, timeout: time.Second}

	if _, ok, err := s.Get(ctx, SessionKey); ok || err != nil {
		t.Fatalf("expected miss without error, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, SessionKey, "s1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if mock.store["widget:ctx1:chat_session_id"] != "s1" {
		t.Fatalf("expected prefixed key, got %+v", mock.store)
	}
	if mock.lastTTL != 30*time.Minute {
		t.Fatalf("expected ttl applied, got %v", mock.lastTTL)
	}
	if err := s.Delete(ctx, SessionKey); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(mock.lastDel) != 1 || mock.lastDel[0] != "widget:ctx1:chat_session_id" {
		t.Fatalf("unexpected del keys: %v", mock.lastDel)
	}
}

func TestRedisScope_OOMMapsToQuota(t *testing.T) {
	mock := &mockRedisKV{store: map[string]string{}, setErr: errors.New("OOM command not allowed when used memory > 'maxmemory'")}
	s := &RedisScope{client: mock, timeout: time.Second}
	if err := s.Set(context.Background(), "k", "v"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}

	mock.setErr = errors.New("connection refused")
	if err := s.Set(context.Background(), "k", "v"); err == nil || errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected plain error, got %v", err)
	}
}

func TestNewRedisScope_NilClient(t *testing.T) {
	if s := NewRedisScope(nil, "p", time.Minute); s != nil {
		t.Fatalf("expected nil scope for nil client")
	}
}

type fakeRow struct {
	value string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.value
	return nil
}

type mockPg struct {
	execSQL  []string
	execArgs [][]any
	execErr  error
	row      fakeRow
	rowArgs  []any
}

func (m *mockPg) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.execSQL = append(m.execSQL, sql)
	m.execArgs = append(m.execArgs, args)
	if m.execErr != nil {
		return pgconn.CommandTag{}, m.execErr
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *mockPg) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	m.rowArgs = args
	return m.row
}

func TestPgScope_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	db := &mockPg{row: fakeRow{err: pgx.ErrNoRows}}
	s := NewPgScope(db, "durable", time.Hour)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if _, ok, err := s.Get(ctx, "messages:s1"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if db.rowArgs[0] != "durable" || db.rowArgs[1] != "messages:s1" {
		t.Fatalf("unexpected query args: %v", db.rowArgs)
	}

	db.row = fakeRow{value: "[]"}
	if v, ok, err := s.Get(ctx, "messages:s1"); !ok || err != nil || v != "[]" {
		t.Fatalf("expected hit, got %q ok=%v err=%v", v, ok, err)
	}

	if err := s.Set(ctx, "messages:s1", "{}"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	args := db.execArgs[len(db.execArgs)-1]
	exp, ok := args[3].(*time.Time)
	if !ok || exp == nil || !exp.Equal(fixed.Add(time.Hour)) {
		t.Fatalf("expected expires_at one hour ahead, got %v", args[3])
	}

	if err := s.Delete(ctx, "messages:s1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
}

func TestPgScope_QuotaErrors(t *testing.T) {
	db := &mockPg{execErr: &pgconn.PgError{Code: "53100"}}
	s := NewPgScope(db, "durable", 0)
	if err := s.Set(context.Background(), "k", "v"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	db.execErr = &pgconn.PgError{Code: "23505"}
	if err := s.Set(context.Background(), "k", "v"); errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("unique violation must not map to quota")
	}
}
