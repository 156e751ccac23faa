package lot

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/scraprecon/internal/database"
)

func newGormSequencer(t *testing.T) *GormSequencer {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "lots.db"), true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return NewGormSequencer(db.DB, "DEV")
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "DEV00001", Format("DEV", 1))
	assert.Equal(t, "DEV00042", Format("DEV", 42))
	assert.Equal(t, "L99999", Format("L", 99999))
	assert.Equal(t, "00007", Format("", 7))
}

// exerciseSequencer runs the shared contract against any backend
func exerciseSequencer(t *testing.T, s Sequencer) {
	ctx := context.Background()

	preview, err := s.Next(ctx, 1001, false)
	require.NoError(t, err)
	assert.Equal(t, "DEV00001", preview)

	again, err := s.Next(ctx, 1001, false)
	require.NoError(t, err)
	assert.Equal(t, preview, again, "preview must not advance the counter")

	for n := 1; n <= 3; n++ {
		id, err := s.Next(ctx, 1001, true)
		require.NoError(t, err)
		assert.Equal(t, Format("DEV", int64(n)), id)
	}

	// independent counter per product code
	other, err := s.Next(ctx, 2002, true)
	require.NoError(t, err)
	assert.Equal(t, "DEV00001", other)

	preview, err = s.Next(ctx, 1001, false)
	require.NoError(t, err)
	assert.Equal(t, "DEV00004", preview)

	cur, err := s.Current(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cur)

	require.NoError(t, s.Reset(ctx))
	first, err := s.Next(ctx, 1001, true)
	require.NoError(t, err)
	assert.Equal(t, "DEV00001", first)
}

func TestGormSequencer(t *testing.T) {
	exerciseSequencer(t, newGormSequencer(t))
}

func TestGormSequencer_ConcurrentCommitsAreGapFree(t *testing.T) {
	s := newGormSequencer(t)
	ctx := context.Background()

	const n = 25
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Next(ctx, 555, true)
			if err != nil {
				t.Errorf("commit failed: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "lot %s issued twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[Format("DEV", i)], "missing %s", Format("DEV", i))
	}
}

func TestRedisSequencer(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer client.Close()

	key := "scraprecon:test:lots"
	require.NoError(t, client.Del(context.Background(), key).Err())
	exerciseSequencer(t, NewRedisSequencer(client, key, "DEV"))
}
