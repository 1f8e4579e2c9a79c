package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
)

func newCode(code string, ttl time.Duration) *domain.AuthorizationCode {
	return &domain.AuthorizationCode{
		Code:        code,
		ClientID:    "access-key",
		RedirectURI: domain.OutOfBandRedirectURI,
		ExpiresAt:   time.Now().Add(ttl),
	}
}

func TestCodeStore_ConsumeOnce(t *testing.T) {
	store := NewCodeStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newCode("a", time.Minute)))

	got, err := store.Consume(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "access-key", got.ClientID)

	got, err = store.Consume(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCodeStore_SaveCopies(t *testing.T) {
	store := NewCodeStore()
	code := newCode("a", time.Minute)
	require.NoError(t, store.Save(context.Background(), code))

	code.ClientID = "mutated"

	got, _ := store.Consume(context.Background(), "a")
	require.NotNil(t, got)
	assert.Equal(t, "access-key", got.ClientID)
}

func TestCodeStore_Expired(t *testing.T) {
	store := NewCodeStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, newCode("old", -time.Second)))
	require.NoError(t, store.Save(ctx, newCode("fresh", time.Minute)))

	got, err := store.Consume(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Save(ctx, newCode("old2", -time.Second)))
	require.NoError(t, store.Cleanup(ctx))
	assert.Equal(t, 1, store.Len())
	assert.NoError(t, store.Ping(ctx))
}

func TestCodeStore_ConcurrentConsume(t *testing.T) {
	store := NewCodeStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, newCode("a", time.Minute)))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, _ := store.Consume(ctx, "a"); got != nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
