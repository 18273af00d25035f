package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/iti-edu/schoolmis-api/pkg/errors"
)

type mockCacheStore struct {
	values        map[string]float64
	deletedKeys   []string
	sweptPatterns []string
}

func newMockCacheStore() *mockCacheStore {
	return &mockCacheStore{values: make(map[string]float64)}
}

func (m *mockCacheStore) Get(ctx context.Context, key string, dest interface{}) error {
	value, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if out, ok := dest.(*float64); ok {
		*out = value
	}
	return nil
}

func (m *mockCacheStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if v, ok := value.(float64); ok {
		m.values[key] = v
	}
	return nil
}

func (m *mockCacheStore) Delete(ctx context.Context, keys ...string) error {
	m.deletedKeys = append(m.deletedKeys, keys...)
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *mockCacheStore) DeleteByPattern(ctx context.Context, pattern string) error {
	m.sweptPatterns = append(m.sweptPatterns, pattern)
	return nil
}

func newCacheService(store *mockCacheStore, enabled bool) *CacheService {
	return NewCacheService(store, nil, time.Minute, zap.NewNop(), enabled)
}

func TestCacheServiceGetRoundTrip(t *testing.T) {
	store := newMockCacheStore()
	svc := newCacheService(store, true)

	var got float64
	hit, err := svc.Get(context.Background(), "attendance:pct:e1", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), "attendance:pct:e1", 87.5))
	hit, err = svc.Get(context.Background(), "attendance:pct:e1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.InDelta(t, 87.5, got, 0.001)
}

func TestCacheServiceInvalidateLiteralKeyDeletesDirectly(t *testing.T) {
	store := newMockCacheStore()
	svc := newCacheService(store, true)
	require.NoError(t, svc.Set(context.Background(), "attendance:pct:e1", 50.0))

	require.NoError(t, svc.Invalidate(context.Background(), "attendance:pct:e1"))
	assert.Equal(t, []string{"attendance:pct:e1"}, store.deletedKeys)
	assert.Empty(t, store.sweptPatterns)

	var got float64
	hit, err := svc.Get(context.Background(), "attendance:pct:e1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceInvalidateGlobSweepsPattern(t *testing.T) {
	store := newMockCacheStore()
	svc := newCacheService(store, true)

	require.NoError(t, svc.Invalidate(context.Background(), "attendance:pct:*"))
	assert.Equal(t, []string{"attendance:pct:*"}, store.sweptPatterns)
	assert.Empty(t, store.deletedKeys)
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	store := newMockCacheStore()
	svc := newCacheService(store, false)

	require.NoError(t, svc.Set(context.Background(), "k", 1.0))
	hit, err := svc.Get(context.Background(), "k", new(float64))
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Invalidate(context.Background(), "k"))
	assert.Empty(t, store.deletedKeys)
}
