// Package catalog is the node-local registry of resident indices.
//
// A Catalog maps index names to shards with attached handles. One
// context-aware lock guards the map, and it is held only for the lookup or
// mutation itself: callers get a handle back and do slow work (commit, disk
// measurement, close) after the lock is released, under the handle's own
// writer lock where needed. Operations on different indices therefore never
// contend beyond that short map access.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/Aman-CERP/shardex/internal/errors"
	"github.com/Aman-CERP/shardex/internal/index"
	"github.com/Aman-CERP/shardex/internal/shard"
)

// Catalog is the registry of indices hosted on this node.
// Create one at startup, pass it to every handler, and Close it at shutdown.
type Catalog struct {
	sem      *semaphore.Weighted
	entries  map[string]*shard.Shard
	closed   bool
	dataDir  string
	settings index.Settings
}

// New creates an empty catalog.
// dataDir is where CreateIndex places new indices; "" keeps them in memory.
func New(dataDir string, settings index.Settings) *Catalog {
	return &Catalog{
		sem:      semaphore.NewWeighted(1),
		entries:  make(map[string]*shard.Shard),
		dataDir:  dataDir,
		settings: settings,
	}
}

// DataDir returns the directory new indices are created in.
func (c *Catalog) DataDir() string {
	return c.dataDir
}

// lock acquires the catalog lock. Every successful call must be paired with unlock.
func (c *Catalog) lock(ctx context.Context) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	if c.closed {
		c.sem.Release(1)
		return errors.IOError("catalog is closed", nil)
	}
	return nil
}

func (c *Catalog) unlock() {
	c.sem.Release(1)
}

// Exists reports whether name is present.
func (c *Catalog) Exists(ctx context.Context, name string) (bool, error) {
	if err := c.lock(ctx); err != nil {
		return false, err
	}
	defer c.unlock()

	_, ok := c.entries[name]
	return ok, nil
}

// GetIndex resolves name to its handle. The handle stays valid after the
// catalog lock is released.
func (c *Catalog) GetIndex(ctx context.Context, name string) (*index.Handle, bool, error) {
	sh, ok, err := c.GetShard(ctx, name)
	if err != nil || !ok {
		return nil, ok, err
	}
	h, err := sh.Handle()
	if err != nil {
		return nil, false, err
	}
	return h, true, nil
}

// GetShard resolves name to its shard.
func (c *Catalog) GetShard(ctx context.Context, name string) (*shard.Shard, bool, error) {
	if err := c.lock(ctx); err != nil {
		return nil, false, err
	}
	defer c.unlock()

	sh, ok := c.entries[name]
	return sh, ok, nil
}

// Add registers a shard under its attached index name.
// The shard must have a handle; adding a name twice fails.
func (c *Catalog) Add(ctx context.Context, sh *shard.Shard) error {
	name, err := sh.IndexName()
	if err != nil {
		return err
	}

	if err := c.lock(ctx); err != nil {
		return err
	}
	defer c.unlock()

	if _, ok := c.entries[name]; ok {
		return errors.IndexExists(name)
	}
	c.entries[name] = sh

	slog.Info("catalog_add",
		slog.String("index", name),
		slog.String("shard", sh.Identity().String()))
	return nil
}

// Remove unregisters name and returns its shard. The caller owns closing it.
func (c *Catalog) Remove(ctx context.Context, name string) (*shard.Shard, error) {
	if err := c.lock(ctx); err != nil {
		return nil, err
	}
	defer c.unlock()

	sh, ok := c.entries[name]
	if !ok {
		return nil, errors.IndexNotFound(name)
	}
	delete(c.entries, name)
	return sh, nil
}

// Names returns the sorted index names.
func (c *Catalog) Names(ctx context.Context) ([]string, error) {
	if err := c.lock(ctx); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	c.unlock()

	sort.Strings(names)
	return names, nil
}

// ShardInfo pairs a resident index name with its shard identity.
type ShardInfo struct {
	Index    string         `json:"index" msgpack:"index"`
	Identity shard.Identity `json:"identity" msgpack:"identity"`
}

// Shards returns the identities of all resident shards, ordered by index name.
func (c *Catalog) Shards(ctx context.Context) ([]ShardInfo, error) {
	if err := c.lock(ctx); err != nil {
		return nil, err
	}
	infos := make([]ShardInfo, 0, len(c.entries))
	for name, sh := range c.entries {
		infos = append(infos, ShardInfo{Index: name, Identity: sh.Identity()})
	}
	c.unlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Index < infos[j].Index })
	return infos, nil
}

// Close unregisters every index and closes them in parallel.
// Buffered, uncommitted writes are discarded.
func (c *Catalog) Close() error {
	if err := c.lock(context.Background()); err != nil {
		// Already closed.
		return nil
	}
	entries := c.entries
	c.entries = make(map[string]*shard.Shard)
	c.closed = true
	c.unlock()

	var g errgroup.Group
	for name, sh := range entries {
		g.Go(func() error {
			h, err := sh.Handle()
			if err != nil {
				return err
			}
			if err := h.Close(); err != nil {
				slog.Error("index_close_failed",
					slog.String("index", name),
					slog.String("error", err.Error()))
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// ValidateName checks that name can be used as an index name and directory.
func ValidateName(name string) error {
	switch {
	case name == "":
		return errors.New(errors.ErrCodeInvalidName, "index name must not be empty", nil)
	case strings.HasPrefix(name, "_") || strings.HasPrefix(name, "."):
		return errors.New(errors.ErrCodeInvalidName,
			fmt.Sprintf("index name %q must not start with '_' or '.'", name), nil)
	case strings.ContainsAny(name, `/\`):
		return errors.New(errors.ErrCodeInvalidName,
			fmt.Sprintf("index name %q must not contain path separators", name), nil)
	}
	return nil
}
