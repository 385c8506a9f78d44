package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/shardex/internal/errors"
	"github.com/Aman-CERP/shardex/internal/index"
)

func newMemEngine(t *testing.T) bleve.Index {
	t.Helper()
	engine, err := bleve.NewMemOnly(index.NewMapping(index.DefaultSettings()))
	require.NoError(t, err)
	return engine
}

func TestCreateIndex_RejectsInvalidAndDuplicate(t *testing.T) {
	c := newTestCatalog(t, "one")
	ctx := context.Background()

	_, err := c.CreateIndex(ctx, "_bad")
	assert.Equal(t, errors.ErrCodeInvalidName, errors.GetCode(err))

	_, err = c.CreateIndex(ctx, "one")
	assert.Equal(t, errors.ErrCodeIndexExists, errors.GetCode(err))
}

func TestCreateIndex_OnDisk(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, index.DefaultSettings())
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	h, err := c.CreateIndex(ctx, "disk")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "disk"), h.Dir())
	assert.FileExists(t, filepath.Join(dir, "disk", indexMetaFile))
	assert.Equal(t, dir, c.DataDir())
}

func TestOpen_ReloadsCommittedIndices(t *testing.T) {
	// Given: a data dir with two indices, one holding a committed document
	dir := t.TempDir()
	ctx := context.Background()

	c, err := Open(ctx, dir, index.DefaultSettings())
	require.NoError(t, err)
	_, err = c.CreateIndex(ctx, "alpha")
	require.NoError(t, err)
	_, err = c.CreateIndex(ctx, "beta")
	require.NoError(t, err)
	require.NoError(t, c.AddDocument(ctx, "alpha", "1", map[string]any{"body": "kept"}, true))
	require.NoError(t, c.AddDocument(ctx, "beta", "1", map[string]any{"body": "dropped"}, false))
	require.NoError(t, c.Close())

	// And: a stray directory that is not an index
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scratch"), 0o755))

	// When: reopening
	reopened, err := Open(ctx, dir, index.DefaultSettings())
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	// Then: both indices are back as primaries, with only committed data
	names, err := reopened.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)

	resp, err := reopened.Summary(ctx, "alpha", QueryOptions{IncludeSizes: true})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), resp.Metas.DocCount)
	require.NotNil(t, resp.Size)
	assert.Greater(t, *resp.Size, int64(0))

	resp, err = reopened.Summary(ctx, "beta", QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), resp.Metas.DocCount)

	infos, err := reopened.Shards(ctx)
	require.NoError(t, err)
	for _, info := range infos {
		assert.True(t, info.Identity.IsPrimary())
	}
}

func TestOpen_CorruptIndexFails(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken")
	require.NoError(t, os.MkdirAll(broken, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(broken, indexMetaFile), []byte("{not json"), 0o644))

	c, err := Open(context.Background(), dir, index.DefaultSettings())
	assert.Nil(t, c)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCorruptIndex, errors.GetCode(err))
}

func TestDeleteIndex_RemovesFiles(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, index.DefaultSettings())
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	_, err := c.CreateIndex(ctx, "temp")
	require.NoError(t, err)

	require.NoError(t, c.DeleteIndex(ctx, "temp"))
	assert.NoDirExists(t, filepath.Join(dir, "temp"))

	exists, err := c.Exists(ctx, "temp")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.True(t, errors.IsNotFound(c.DeleteIndex(ctx, "temp")))
}
