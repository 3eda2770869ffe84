package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdempotencyStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{values: map[string]string{}}
}

func (f *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeIdempotencyStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value.(string)
	return nil
}

func (f *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func guardedHandler(store *fakeIdempotencyStore, calls *int) http.Handler {
	mw := Idempotency(store, 24*time.Hour, nil, nil)
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"op-1"}}`))
	}))
}

func TestIdempotency_RequiresHeaderOnMutations(t *testing.T) {
	calls := 0
	handler := guardedHandler(newFakeStore(), &calls)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, calls)
}

func TestIdempotency_SkipsReads(t *testing.T) {
	calls := 0
	handler := guardedHandler(newFakeStore(), &calls)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotency_ReplaysCompletedResponse(t *testing.T) {
	calls := 0
	handler := guardedHandler(newFakeStore(), &calls)

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"amount":"400"}`))
	req.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(first, req)

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, 1, calls)

	second := httptest.NewRecorder()
	replay := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"amount":"400"}`))
	replay.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(second, replay)

	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Equal(t, 1, calls, "completed key must not re-execute the handler")
}

func TestIdempotency_RejectsReuseWithDifferentBody(t *testing.T) {
	calls := 0
	handler := guardedHandler(newFakeStore(), &calls)

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"amount":"400"}`))
	req.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(first, req)
	require.Equal(t, 1, calls)

	second := httptest.NewRecorder()
	reuse := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"amount":"900"}`))
	reuse.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(second, reuse)

	require.Equal(t, http.StatusConflict, second.Code)
	assert.Contains(t, second.Body.String(), "IDEMPOTENCY_KEY_REUSED")
	assert.Equal(t, 1, calls)
}

func TestIdempotency_RejectsConcurrentPending(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := guardedHandler(store, &calls)

	// simulate an in-flight request holding the pending record
	body := `{"amount":"400"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "key-1")
	key := store.IdempotencyKey(buildScope(req), "key-1")
	pending := `{"state":"pending","request_hash":"` + hashRequest("/api/v1/payments", []byte(body)) + `"}`
	require.NoError(t, store.Set(context.Background(), key, pending, time.Minute))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "CONFLICT")
	assert.Zero(t, calls)
}

func TestIdempotency_RejectsReuseOnDifferentPath(t *testing.T) {
	calls := 0
	handler := guardedHandler(newFakeStore(), &calls)

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/partners", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(first, req)
	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, 1, calls)

	// same key and body against another endpoint must not replay the
	// partner response
	second := httptest.NewRecorder()
	reuse := httptest.NewRequest(http.MethodPost, "/api/v1/payments/abc/cancel", strings.NewReader(`{}`))
	reuse.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(second, reuse)

	require.Equal(t, http.StatusConflict, second.Code)
	assert.Contains(t, second.Body.String(), "IDEMPOTENCY_KEY_REUSED")
	assert.Equal(t, 1, calls)
}
