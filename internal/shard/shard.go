package shard

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"

	"github.com/Aman-CERP/shardex/internal/errors"
	"github.com/Aman-CERP/shardex/internal/index"
)

// Shard is a node-local shard instance: an Identity plus an optionally
// attached index handle. The handle is runtime-only and never serialized.
type Shard struct {
	identity Identity
	handle   *index.Handle
}

// NewPrimary creates a primary shard with a random id and no attached handle.
func NewPrimary() *Shard {
	return &Shard{identity: NewPrimaryIdentity()}
}

// NewReplica creates a read-only replica of the primary identified by primaryID.
func NewReplica(primaryID uuid.UUID) *Shard {
	return &Shard{identity: NewReplicaIdentity(primaryID)}
}

// FromIdentity wraps an existing identity record, e.g. one received from the cluster layer.
func FromIdentity(id Identity) *Shard {
	return &Shard{identity: id}
}

// WithIndex attaches a handle built from the already-open engine under name,
// using the default engine settings unless index.WithSettings overrides them. It returns a new Shard carrying the
// handle and the same identity; the receiver is left unchanged.
// It is not retried.
func (s *Shard) WithIndex(engine bleve.Index, name string, opts ...index.Option) (*Shard, error) {
	h, err := index.New(engine, index.DefaultSettings(), name, opts...)
	if err != nil {
		return nil, errors.IOError(openFailureMessage(err), err)
	}
	return &Shard{identity: s.identity, handle: h}, nil
}

// openFailureMessage strips the code prefix so the IOError carries the engine's own description.
func openFailureMessage(err error) string {
	if se, ok := errors.As(err); ok {
		return se.Message
	}
	return err.Error()
}

// Identity returns the persisted identity record.
func (s *Shard) Identity() Identity {
	return s.identity
}

// ShardID returns the shard's id.
func (s *Shard) ShardID() uuid.UUID {
	return s.identity.ShardID()
}

// PrimaryShardID returns the referenced primary id; false for primaries.
func (s *Shard) PrimaryShardID() (uuid.UUID, bool) {
	return s.identity.PrimaryShardID()
}

// IsPrimary reports whether this shard is writable.
func (s *Shard) IsPrimary() bool {
	return s.identity.IsPrimary()
}

// Handle returns the attached index handle.
func (s *Shard) Handle() (*index.Handle, error) {
	if s.handle == nil {
		return nil, s.noHandle()
	}
	return s.handle, nil
}

// IndexName returns the attached handle's name.
func (s *Shard) IndexName() (string, error) {
	if s.handle == nil {
		return "", s.noHandle()
	}
	return s.handle.GetName(), nil
}

// GetWriter returns the attached index's writer lock.
// Replicas are read-only and never hand out a writer.
func (s *Shard) GetWriter() (*index.WriterLock, error) {
	if s.handle == nil {
		return nil, s.noHandle()
	}
	if !s.IsPrimary() {
		return nil, errors.IOError(fmt.Sprintf("replica shard %s is read-only", s.ShardID()), nil)
	}
	return s.handle.GetWriter(), nil
}

// Metas returns the attached index's committed metadata.
func (s *Shard) Metas() (*index.Metas, error) {
	if s.handle == nil {
		return nil, s.noHandle()
	}
	return s.handle.LoadMetas()
}

// Space returns the attached index's storage footprint.
func (s *Shard) Space() (int64, error) {
	if s.handle == nil {
		return 0, s.noHandle()
	}
	return s.handle.GetSpace()
}

func (s *Shard) noHandle() error {
	if s.IsPrimary() {
		return errors.NoHandleError("Unable to get index handle")
	}
	return errors.NoHandleError("No index with that name exists")
}
