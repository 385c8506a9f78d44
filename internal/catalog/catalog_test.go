package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/shardex/internal/errors"
	"github.com/Aman-CERP/shardex/internal/index"
	"github.com/Aman-CERP/shardex/internal/shard"
)

// newTestCatalog returns an in-memory catalog holding the given indices.
func newTestCatalog(t *testing.T, names ...string) *Catalog {
	t.Helper()
	c := New("", index.DefaultSettings())
	for _, name := range names {
		_, err := c.CreateIndex(context.Background(), name)
		require.NoError(t, err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCatalog_EmptyHasNothing(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	exists, err := c.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	h, ok, err := c.GetIndex(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, h)

	names, err := c.Names(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCatalog_AttachedIndexIsResolvable(t *testing.T) {
	// Given: a shard attached to "test_index"
	c := newTestCatalog(t)
	ctx := context.Background()

	engine, err := bleve.NewMemOnly(index.NewMapping(index.DefaultSettings()))
	require.NoError(t, err)
	sh, err := shard.NewPrimary().WithIndex(engine, "test_index")
	require.NoError(t, err)

	// When: adding it to the catalog
	require.NoError(t, c.Add(ctx, sh))

	// Then: it exists and resolves to a handle with the same name
	exists, err := c.Exists(ctx, "test_index")
	require.NoError(t, err)
	assert.True(t, exists)

	h, ok, err := c.GetIndex(ctx, "test_index")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "test_index", h.GetName())

	got, ok, err := c.GetShard(ctx, "test_index")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sh.ShardID(), got.ShardID())
}

func TestCatalog_Add_RejectsDetachedAndDuplicate(t *testing.T) {
	c := newTestCatalog(t, "dup")
	ctx := context.Background()

	err := c.Add(ctx, shard.NewPrimary())
	assert.Equal(t, errors.ErrCodeNoHandle, errors.GetCode(err))

	engine, err := bleve.NewMemOnly(index.NewMapping(index.DefaultSettings()))
	require.NoError(t, err)
	defer func() { _ = engine.Close() }()
	sh, err := shard.NewPrimary().WithIndex(engine, "dup")
	require.NoError(t, err)

	err = c.Add(ctx, sh)
	assert.Equal(t, errors.ErrCodeIndexExists, errors.GetCode(err))
}

func TestCatalog_Remove(t *testing.T) {
	c := newTestCatalog(t, "gone")
	ctx := context.Background()

	sh, err := c.Remove(ctx, "gone")
	require.NoError(t, err)
	require.NotNil(t, sh)
	h, err := sh.Handle()
	require.NoError(t, err)
	require.NoError(t, h.Close())

	exists, err := c.Exists(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = c.Remove(ctx, "gone")
	assert.True(t, errors.IsNotFound(err))
}

func TestCatalog_NamesAndShardsAreSorted(t *testing.T) {
	c := newTestCatalog(t, "b", "c", "a")
	ctx := context.Background()

	names, err := c.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names)

	infos, err := c.Shards(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "a", infos[0].Index)
	assert.True(t, infos[0].Identity.IsPrimary())
}

func TestCatalog_Close_RejectsFurtherUse(t *testing.T) {
	c := New("", index.DefaultSettings())
	_, err := c.CreateIndex(context.Background(), "x")
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.Exists(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.IsIO(err))
}

func TestCatalog_LockHonoursContext(t *testing.T) {
	c := newTestCatalog(t, "x")

	// Given: the catalog lock is held
	require.NoError(t, c.lock(context.Background()))
	defer c.unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Then: lookups give up when their context ends
	_, err := c.Exists(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("test_index"))
	assert.NoError(t, ValidateName("logs-2024.01"))

	for _, bad := range []string{"", "_list", ".hidden", "a/b", `a\b`} {
		err := ValidateName(bad)
		require.Error(t, err, bad)
		assert.Equal(t, errors.ErrCodeInvalidName, errors.GetCode(err))
	}
}

func TestCatalog_ConcurrentLookups(t *testing.T) {
	c := newTestCatalog(t, "a", "b")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "a"
			if i%2 == 0 {
				name = "b"
			}
			_, ok, err := c.GetIndex(ctx, name)
			assert.NoError(t, err)
			assert.True(t, ok)
		}(i)
	}
	wg.Wait()
}
