// Package shard models shard identity and role.
//
// An Identity is the persisted, cluster-visible record: a random 128-bit id
// plus a role that is either Primary or Replica of exactly one primary. A
// Shard is the node-local runtime wrapper pairing an Identity with an
// optionally attached index handle. Only the Identity is ever serialized.
package shard

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Role is the role of a shard.
type Role string

const (
	// RolePrimary is a writable partition of an index.
	RolePrimary Role = "primary"
	// RoleReplica is a read-only copy of a specific primary.
	RoleReplica Role = "replica"
)

// Identity is an immutable shard id and role.
// The zero value is not a valid identity; use NewPrimaryIdentity or NewReplicaIdentity.
type Identity struct {
	id      uuid.UUID
	role    Role
	primary uuid.UUID // set iff role == RoleReplica
}

// NewPrimaryIdentity returns a primary identity with a fresh random id.
func NewPrimaryIdentity() Identity {
	return Identity{
		id:   uuid.New(),
		role: RolePrimary,
	}
}

// NewReplicaIdentity returns a replica identity with a fresh random id that
// references primaryID. Whether that primary exists is for the cluster layer to enforce.
func NewReplicaIdentity(primaryID uuid.UUID) Identity {
	return Identity{
		id:      uuid.New(),
		role:    RoleReplica,
		primary: primaryID,
	}
}

// ShardID returns the shard's own id.
func (i Identity) ShardID() uuid.UUID {
	return i.id
}

// PrimaryShardID returns the referenced primary id for replicas.
// The second result is false for primaries.
func (i Identity) PrimaryShardID() (uuid.UUID, bool) {
	if i.role != RoleReplica {
		return uuid.Nil, false
	}
	return i.primary, true
}

// IsPrimary reports whether this is a primary shard.
func (i Identity) IsPrimary() bool {
	return i.role == RolePrimary
}

// Role returns the shard role.
func (i Identity) Role() Role {
	return i.role
}

// String implements fmt.Stringer.
func (i Identity) String() string {
	if i.role == RoleReplica {
		return fmt.Sprintf("replica:%s(of %s)", i.id, i.primary)
	}
	return fmt.Sprintf("%s:%s", i.role, i.id)
}

// identityWire is the serialized form shared by JSON and msgpack.
type identityWire struct {
	ShardID        string `json:"shard_id" msgpack:"shard_id"`
	Role           Role   `json:"role" msgpack:"role"`
	PrimaryShardID string `json:"primary_shard_id,omitempty" msgpack:"primary_shard_id,omitempty"`
}

func (i Identity) toWire() identityWire {
	w := identityWire{
		ShardID: i.id.String(),
		Role:    i.role,
	}
	if i.role == RoleReplica {
		w.PrimaryShardID = i.primary.String()
	}
	return w
}

func (w identityWire) toIdentity() (Identity, error) {
	id, err := uuid.Parse(w.ShardID)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid shard_id %q: %w", w.ShardID, err)
	}
	if id == uuid.Nil {
		return Identity{}, fmt.Errorf("shard_id must not be nil")
	}

	switch w.Role {
	case RolePrimary:
		if w.PrimaryShardID != "" {
			return Identity{}, fmt.Errorf("primary shard %s must not reference a primary", id)
		}
		return Identity{id: id, role: RolePrimary}, nil

	case RoleReplica:
		if w.PrimaryShardID == "" {
			return Identity{}, fmt.Errorf("replica shard %s must reference a primary", id)
		}
		primary, err := uuid.Parse(w.PrimaryShardID)
		if err != nil {
			return Identity{}, fmt.Errorf("invalid primary_shard_id %q: %w", w.PrimaryShardID, err)
		}
		return Identity{id: id, role: RoleReplica, primary: primary}, nil

	default:
		return Identity{}, fmt.Errorf("unknown shard role %q", w.Role)
	}
}

// MarshalJSON implements json.Marshaler.
func (i Identity) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.toWire())
}

// UnmarshalJSON implements json.Unmarshaler and enforces the role invariants.
func (i *Identity) UnmarshalJSON(data []byte) error {
	var w identityWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := w.toIdentity()
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

var (
	_ msgpack.CustomEncoder = Identity{}
	_ msgpack.CustomDecoder = (*Identity)(nil)
)

// EncodeMsgpack implements msgpack.CustomEncoder for membership gossip.
func (i Identity) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(i.toWire())
}

// DecodeMsgpack implements msgpack.CustomDecoder and enforces the role invariants.
func (i *Identity) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w identityWire
	if err := dec.Decode(&w); err != nil {
		return err
	}
	parsed, err := w.toIdentity()
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// EncodeIdentities packs identity records for gossip.
func EncodeIdentities(ids []Identity) ([]byte, error) {
	return msgpack.Marshal(ids)
}

// DecodeIdentities unpacks records produced by EncodeIdentities.
func DecodeIdentities(data []byte) ([]Identity, error) {
	var ids []Identity
	if err := msgpack.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to decode shard identities: %w", err)
	}
	return ids, nil
}
