// Package collection records which assets belong to a collection and caps
// how many members a collection may hold.
package collection

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"passmint/core/types"
	"passmint/crypto"
	nativecommon "passmint/native/common"
)

const namespace = "collection"

var (
	ErrCollectionNotFound = nativecommon.NewError(6300, "CollectionNotFound", nativecommon.ClassState, "Collection does not exist")
	ErrCollectionExists   = nativecommon.NewError(6301, "CollectionAlreadyExists", nativecommon.ClassState, "Collection already exists")
	ErrCollectionFull     = nativecommon.NewError(6302, "CollectionFull", nativecommon.ClassState, "Collection reached its maximum size")
	ErrCollectionNotEmpty = nativecommon.NewError(6303, "CollectionNotEmpty", nativecommon.ClassState, "Collection still has members")
	ErrMemberNotFound     = nativecommon.NewError(6304, "MemberNotFound", nativecommon.ClassState, "Member does not exist")
	ErrMemberExists       = nativecommon.NewError(6305, "MemberAlreadyExists", nativecommon.ClassState, "Member already exists")
	ErrUpdateAuthority    = nativecommon.NewError(6306, "InvalidUpdateAuthority", nativecommon.ClassAuthorization, "Signer is not the collection update authority")
	ErrInvalidMaxSize     = nativecommon.NewError(6307, "InvalidMaxSize", nativecommon.ClassValidation, "Collection max size must be positive")
	ErrMemberCollection   = nativecommon.NewError(6308, "MemberCollectionMismatch", nativecommon.ClassState, "Member belongs to another collection")
)

// KVStore is the slice of state the registry needs.
type KVStore interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

// Collection groups member assets under an update authority.
type Collection struct {
	Address         common.Address `rlp:"-"`
	UpdateAuthority common.Address
	Asset           common.Address
	Name            string
	Symbol          string
	URI             string
	Size            uint32
	MaxSize         uint32
}

// Member links a per-member asset to its collection.
type Member struct {
	Address    common.Address `rlp:"-"`
	Collection common.Address
	Asset      common.Address
	Owner      common.Address
	ExpiresAt  types.Timestamp
}

// Address returns the collection address bound to asset.
func Address(asset common.Address) common.Address {
	return crypto.Derive(namespace, []byte("group"), asset.Bytes())
}

// MemberAddress returns the member address bound to a member asset.
func MemberAddress(memberAsset common.Address) common.Address {
	return crypto.Derive(namespace, []byte("member"), memberAsset.Bytes())
}

func collectionKey(addr common.Address) []byte {
	return append([]byte("collection/group/"), addr.Bytes()...)
}

func memberKey(addr common.Address) []byte {
	return append([]byte("collection/member/"), addr.Bytes()...)
}

// Registry reads and writes collections and members.
type Registry struct {
	st KVStore
}

// NewRegistry binds a registry to st.
func NewRegistry(st KVStore) *Registry {
	return &Registry{st: st}
}

// Collection returns the collection at addr, or nil when none exists.
func (r *Registry) Collection(addr common.Address) (*Collection, error) {
	out := new(Collection)
	ok, err := r.st.KVGet(collectionKey(addr), out)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	out.Address = addr
	return out, nil
}

// Member returns the member at addr, or nil when none exists.
func (r *Registry) Member(addr common.Address) (*Member, error) {
	out := new(Member)
	ok, err := r.st.KVGet(memberKey(addr), out)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	out.Address = addr
	return out, nil
}

func (r *Registry) mustCollection(addr common.Address) (*Collection, error) {
	c, err := r.Collection(addr)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, addr.Hex())
	}
	return c, nil
}

// Create registers a collection for spec.Asset. The address is derived from
// the asset and any address on spec is ignored.
func (r *Registry) Create(spec Collection) (*Collection, error) {
	if spec.MaxSize == 0 {
		return nil, ErrInvalidMaxSize
	}
	addr := Address(spec.Asset)
	existing, err := r.Collection(addr)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrCollectionExists, addr.Hex())
	}
	spec.Address = addr
	spec.Size = 0
	if err := r.st.KVPut(collectionKey(addr), &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// AddMember records memberAsset as a member of the collection. authority must
// be the collection's update authority and the collection must have room.
func (r *Registry) AddMember(collection, authority, memberAsset, owner common.Address, expiresAt int64) (*Member, error) {
	c, err := r.mustCollection(collection)
	if err != nil {
		return nil, err
	}
	if c.UpdateAuthority != authority {
		return nil, ErrUpdateAuthority
	}
	if c.Size >= c.MaxSize {
		return nil, fmt.Errorf("%w: %d/%d", ErrCollectionFull, c.Size, c.MaxSize)
	}
	addr := MemberAddress(memberAsset)
	existing, err := r.Member(addr)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrMemberExists, addr.Hex())
	}
	member := &Member{
		Address:    addr,
		Collection: collection,
		Asset:      memberAsset,
		Owner:      owner,
		ExpiresAt:  types.Timestamp(expiresAt),
	}
	if err := r.st.KVPut(memberKey(addr), member); err != nil {
		return nil, err
	}
	c.Size++
	if err := r.st.KVPut(collectionKey(collection), c); err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember drops the member bound to memberAsset from the collection.
func (r *Registry) RemoveMember(collection, authority, memberAsset common.Address) error {
	c, err := r.mustCollection(collection)
	if err != nil {
		return err
	}
	if c.UpdateAuthority != authority {
		return ErrUpdateAuthority
	}
	addr := MemberAddress(memberAsset)
	member, err := r.Member(addr)
	if err != nil {
		return err
	}
	if member == nil {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, addr.Hex())
	}
	if member.Collection != collection {
		return ErrMemberCollection
	}
	if err := r.st.KVDelete(memberKey(addr)); err != nil {
		return err
	}
	if c.Size > 0 {
		c.Size--
	}
	return r.st.KVPut(collectionKey(collection), c)
}

// Close removes an empty collection.
func (r *Registry) Close(collection, authority common.Address) error {
	c, err := r.mustCollection(collection)
	if err != nil {
		return err
	}
	if c.UpdateAuthority != authority {
		return ErrUpdateAuthority
	}
	if c.Size != 0 {
		return fmt.Errorf("%w: %d members", ErrCollectionNotEmpty, c.Size)
	}
	return r.st.KVDelete(collectionKey(collection))
}
