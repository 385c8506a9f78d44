// Package index wraps one opened bleve index as the single writable path into
// that index on this node.
//
// A Handle exposes cheap reads of committed state (LoadMetas, GetSpace) that
// never take the writer lock, and a WriterLock that serializes every mutation
// and commit for the index. Catalog-level locking lives in package catalog;
// nothing here knows about other indices.
package index

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/shardex/internal/errors"
)

// Metas is the committed metadata of an index.
// Buffered, uncommitted writes are never reflected here.
type Metas struct {
	// DocCount is the number of committed documents.
	DocCount uint64 `json:"doc_count"`
	// Opstamp counts successful commits since the handle was attached.
	Opstamp uint64 `json:"opstamp"`
	// Fields lists the indexed field names, sorted.
	Fields []string `json:"fields"`
	// LastCommit is when the last successful commit finished, if any.
	LastCommit *time.Time `json:"last_commit,omitempty"`
}

// commitState is shared between a Handle and its Writer.
type commitState struct {
	opstamp    atomic.Uint64
	lastCommit atomic.Int64 // unix nanos, 0 = never
}

// Handle is the runtime object pairing an open engine with its writer.
// It is never persisted.
type Handle struct {
	name     string
	engine   bleve.Index
	dir      string
	settings Settings

	state  *commitState
	writer *WriterLock
	space  *lru.Cache[uint64, int64]
}

// New attaches an already-open engine under name using settings.
// It fails if the engine is missing or cannot answer a basic read.
func New(engine bleve.Index, settings Settings, name string, opts ...Option) (*Handle, error) {
	if engine == nil {
		return nil, errors.New(errors.ErrCodeIndexOpen, "no engine to attach", nil)
	}
	if name == "" {
		return nil, errors.New(errors.ErrCodeIndexOpen, "index name must not be empty", nil)
	}

	// Probe the engine so a closed or broken index fails here, not on first request.
	if _, err := engine.DocCount(); err != nil {
		return nil, errors.New(errors.ErrCodeIndexOpen,
			fmt.Sprintf("failed to open index %s: %v", name, err), err)
	}

	state := &commitState{}
	h := &Handle{
		name:     name,
		engine:   engine,
		settings: settings,
		state:    state,
		writer:   newWriterLock(name, engine, state),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.settings = h.settings.withDefaults()
	space, err := lru.New[uint64, int64](h.settings.SpaceCacheSize)
	if err != nil {
		return nil, errors.InternalError("failed to create size cache", err)
	}
	h.space = space

	return h, nil
}

// GetName returns the index name fixed at attach time.
func (h *Handle) GetName() string {
	return h.name
}

// Dir returns the on-disk directory, or "" for memory-only engines.
func (h *Handle) Dir() string {
	return h.dir
}

// GetWriter returns the lock guarding this index's writer.
func (h *Handle) GetWriter() *WriterLock {
	return h.writer
}

// LoadMetas returns the currently committed metadata.
func (h *Handle) LoadMetas() (*Metas, error) {
	opstamp := h.state.opstamp.Load()

	count, err := h.engine.DocCount()
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("failed to load metas for %s: %v", h.name, err), err)
	}

	fields, err := h.engine.Fields()
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("failed to load fields for %s: %v", h.name, err), err)
	}
	sort.Strings(fields)

	metas := &Metas{
		DocCount: count,
		Opstamp:  opstamp,
		Fields:   fields,
	}
	if ns := h.state.lastCommit.Load(); ns != 0 {
		ts := time.Unix(0, ns).UTC()
		metas.LastCommit = &ts
	}

	return metas, nil
}

// GetSpace returns the storage footprint in bytes by walking the engine directory.
// The result is remembered per committed opstamp; background merges between
// commits are not re-measured.
func (h *Handle) GetSpace() (int64, error) {
	if h.dir == "" {
		return 0, nil
	}

	opstamp := h.state.opstamp.Load()
	if size, ok := h.space.Get(opstamp); ok {
		return size, nil
	}

	var total int64
	err := filepath.WalkDir(h.dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, errors.IOError(fmt.Sprintf("failed to measure index %s: %v", h.name, err), err)
	}

	h.space.Add(opstamp, total)
	return total, nil
}

// Close waits for any in-flight commit, discards buffered writes and closes
// the engine. Later writer operations fail with an IO error.
func (h *Handle) Close() error {
	// Background never cancels, so Lock only returns once the writer is free.
	w, _ := h.writer.Lock(context.Background())
	defer h.writer.Unlock()

	if w.closed {
		return nil
	}

	if pending := w.Pending(); pending > 0 {
		slog.Warn("discarding uncommitted writes",
			slog.String("index", h.name),
			slog.Int("pending", pending))
	}
	w.Rollback()
	w.closed = true

	if err := h.engine.Close(); err != nil {
		return errors.IOError(fmt.Sprintf("failed to close index %s: %v", h.name, err), err)
	}
	return nil
}
