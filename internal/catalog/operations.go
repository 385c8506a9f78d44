package catalog

import (
	"context"
	"log/slog"

	"github.com/Aman-CERP/shardex/internal/errors"
	"github.com/Aman-CERP/shardex/internal/index"
	"github.com/Aman-CERP/shardex/internal/shard"
)

// QueryOptions configures summary requests.
type QueryOptions struct {
	// IncludeSizes adds the storage footprint to the summary.
	IncludeSizes bool
}

// SummaryResponse is committed metadata plus an optional storage footprint.
type SummaryResponse struct {
	Metas *index.Metas `json:"metas"`
	Size  *int64       `json:"size,omitempty"`
}

// Summary resolves name and reads its committed metadata.
// Neither the catalog lock nor the writer lock is held while reading.
func (c *Catalog) Summary(ctx context.Context, name string, opts QueryOptions) (*SummaryResponse, error) {
	h, ok, err := c.GetIndex(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.IndexNotFound(name)
	}

	metas, err := h.LoadMetas()
	if err != nil {
		return nil, err
	}

	resp := &SummaryResponse{Metas: metas}
	if opts.IncludeSizes {
		size, err := h.GetSpace()
		if err != nil {
			return nil, err
		}
		resp.Size = &size
	}
	return resp, nil
}

// withWriter resolves name, then runs fn under that index's writer lock.
// The catalog lock is released before the writer lock is requested.
func (c *Catalog) withWriter(ctx context.Context, name string, fn func(w *index.Writer) error) error {
	sh, ok, err := c.GetShard(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return errors.IndexNotFound(name)
	}
	return lockAndRun(ctx, sh, fn)
}

func lockAndRun(ctx context.Context, sh *shard.Shard, fn func(w *index.Writer) error) error {
	lock, err := sh.GetWriter()
	if err != nil {
		return err
	}

	w, err := lock.Lock(ctx)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	return fn(w)
}

// Flush commits buffered writes of name.
// Flushes of different indices proceed independently; flushes of the same
// index run one at a time in lock acquisition order.
func (c *Catalog) Flush(ctx context.Context, name string) error {
	err := c.withWriter(ctx, name, func(w *index.Writer) error {
		return w.Commit()
	})
	if err != nil {
		return err
	}

	slog.Info("Successful commit", slog.String("index", name))
	return nil
}

// AddDocument buffers doc under id in name's writer, committing right away if commit is set.
func (c *Catalog) AddDocument(ctx context.Context, name, id string, doc any, commit bool) error {
	return c.withWriter(ctx, name, func(w *index.Writer) error {
		if err := w.Index(id, doc); err != nil {
			return err
		}
		if commit {
			return w.Commit()
		}
		return nil
	})
}

// DeleteDocument buffers a deletion of id in name's writer, committing right away if commit is set.
func (c *Catalog) DeleteDocument(ctx context.Context, name, id string, commit bool) error {
	return c.withWriter(ctx, name, func(w *index.Writer) error {
		if err := w.Delete(id); err != nil {
			return err
		}
		if commit {
			return w.Commit()
		}
		return nil
	})
}
