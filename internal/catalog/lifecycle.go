package catalog

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/shardex/internal/errors"
	"github.com/Aman-CERP/shardex/internal/index"
	"github.com/Aman-CERP/shardex/internal/shard"
)

// indexMetaFile marks a directory as a bleve index.
const indexMetaFile = "index_meta.json"

// Open creates a catalog over dataDir and attaches every index found in it
// as a primary shard. Indices are opened in parallel; the first failure
// closes everything opened so far and is returned.
func Open(ctx context.Context, dataDir string, settings index.Settings) (*Catalog, error) {
	c := New(dataDir, settings)

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.IOError(fmt.Sprintf("failed to create data directory %s: %v", dataDir, err), err)
	}

	dirEntries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("failed to read data directory %s: %v", dataDir, err), err)
	}

	type candidate struct{ name, path string }
	var candidates []candidate
	for _, de := range dirEntries {
		if !de.IsDir() || ValidateName(de.Name()) != nil {
			continue
		}
		path := filepath.Join(dataDir, de.Name())

		ok, err := isIndexDir(path)
		if err != nil {
			return nil, err
		}
		if !ok {
			slog.Warn("skipping non-index directory", slog.String("path", path))
			continue
		}
		candidates = append(candidates, candidate{name: de.Name(), path: path})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, cand := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sh, err := openShard(cand.path, cand.name, c.settings)
			if err != nil {
				return err
			}
			if err := c.Add(gctx, sh); err != nil {
				closeShard(sh)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		_ = c.Close()
		return nil, err
	}

	names, _ := c.Names(ctx)
	slog.Info("catalog_open",
		slog.String("data_dir", dataDir),
		slog.Int("indices", len(names)))
	return c, nil
}

// isIndexDir checks the bleve metadata file of path.
// A missing file means the directory is not an index; an unreadable or
// corrupt one is an error rather than something to silently skip.
func isIndexDir(path string) (bool, error) {
	metaPath := filepath.Join(path, indexMetaFile)
	data, err := os.ReadFile(metaPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.IOError(fmt.Sprintf("cannot read %s: %v", metaPath, err), err)
	}

	var meta map[string]any
	if len(data) == 0 || json.Unmarshal(data, &meta) != nil {
		return false, errors.New(errors.ErrCodeCorruptIndex,
			fmt.Sprintf("%s is corrupt", metaPath), nil).WithDetail("path", path)
	}
	return true, nil
}

// openShard opens the bleve index at path and attaches it to a new primary.
func openShard(path, name string, settings index.Settings) (*shard.Shard, error) {
	engine, err := bleve.Open(path)
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("failed to open index %s: %v", name, err), err)
	}
	sh, err := shard.NewPrimary().WithIndex(engine, name, index.WithDir(path), index.WithSettings(settings))
	if err != nil {
		_ = engine.Close()
		return nil, err
	}
	return sh, nil
}

func closeShard(sh *shard.Shard) {
	if h, err := sh.Handle(); err == nil {
		_ = h.Close()
	}
}

// CreateIndex creates a new empty index named name and registers it as a primary.
// The engine is created outside the catalog lock.
func (c *Catalog) CreateIndex(ctx context.Context, name string) (*index.Handle, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	exists, err := c.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.IndexExists(name)
	}

	var (
		engine bleve.Index
		opts   = []index.Option{index.WithSettings(c.settings)}
	)
	m := index.NewMapping(c.settings)
	if c.dataDir == "" {
		engine, err = bleve.NewMemOnly(m)
	} else {
		path := filepath.Join(c.dataDir, name)
		engine, err = bleve.New(path, m)
		if stderrors.Is(err, bleve.ErrorIndexPathExists) {
			return nil, errors.IndexExists(name)
		}
		opts = append(opts, index.WithDir(path))
	}
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("failed to create index %s: %v", name, err), err)
	}

	sh, err := shard.NewPrimary().WithIndex(engine, name, opts...)
	if err != nil {
		_ = engine.Close()
		return nil, err
	}
	if err := c.Add(ctx, sh); err != nil {
		closeShard(sh)
		return nil, err
	}

	return sh.Handle()
}

// DeleteIndex unregisters name, closes it and removes its files.
func (c *Catalog) DeleteIndex(ctx context.Context, name string) error {
	sh, err := c.Remove(ctx, name)
	if err != nil {
		return err
	}

	h, err := sh.Handle()
	if err != nil {
		return err
	}
	if err := h.Close(); err != nil {
		return err
	}

	if dir := h.Dir(); dir != "" {
		if err := os.RemoveAll(dir); err != nil {
			return errors.IOError(fmt.Sprintf("failed to remove index %s: %v", name, err), err)
		}
	}

	slog.Info("catalog_delete", slog.String("index", name))
	return nil
}
