package passes

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// AuthoritySet is a strictly ascending list of principals. Lookup is a
// binary search, so every mutation keeps the order intact and replays
// enumerate members identically.
type AuthoritySet struct {
	members []common.Address
}

// NewAuthoritySet builds a set from the given principals.
func NewAuthoritySet(principals ...common.Address) (AuthoritySet, error) {
	var set AuthoritySet
	for _, p := range principals {
		if err := set.Add(p); err != nil {
			return AuthoritySet{}, err
		}
	}
	return set, nil
}

func (s AuthoritySet) search(p common.Address) (int, bool) {
	idx := sort.Search(len(s.members), func(i int) bool {
		return bytes.Compare(s.members[i].Bytes(), p.Bytes()) >= 0
	})
	return idx, idx < len(s.members) && s.members[idx] == p
}

// Len returns the number of principals.
func (s AuthoritySet) Len() int { return len(s.members) }

// Contains reports whether p is an authority.
func (s AuthoritySet) Contains(p common.Address) bool {
	_, found := s.search(p)
	return found
}

// Add inserts p at its sorted position.
func (s *AuthoritySet) Add(p common.Address) error {
	idx, found := s.search(p)
	if found {
		return fmt.Errorf("%w: %s", ErrAuthorityAlreadyExists, p.Hex())
	}
	s.members = append(s.members, common.Address{})
	copy(s.members[idx+1:], s.members[idx:])
	s.members[idx] = p
	return nil
}

// Remove deletes p. The last remaining authority can never be removed.
func (s *AuthoritySet) Remove(p common.Address) error {
	if len(s.members) <= 1 {
		return ErrCannotRemoveSoloAuthority
	}
	idx, found := s.search(p)
	if !found {
		return fmt.Errorf("%w: %s", ErrAuthorityNonExistent, p.Hex())
	}
	s.members = append(s.members[:idx], s.members[idx+1:]...)
	return nil
}

// Members returns a copy of the principals in ascending order.
func (s AuthoritySet) Members() []common.Address {
	out := make([]common.Address, len(s.members))
	copy(out, s.members)
	return out
}

// Clone returns an independent copy.
func (s AuthoritySet) Clone() AuthoritySet {
	return AuthoritySet{members: s.Members()}
}

func (s AuthoritySet) EncodeRLP(w io.Writer) error {
	members := s.members
	if members == nil {
		members = []common.Address{}
	}
	return rlp.Encode(w, members)
}

func (s *AuthoritySet) DecodeRLP(st *rlp.Stream) error {
	var members []common.Address
	if err := st.Decode(&members); err != nil {
		return err
	}
	for i := 1; i < len(members); i++ {
		if bytes.Compare(members[i-1].Bytes(), members[i].Bytes()) >= 0 {
			return ErrAuthoritySetCorrupt
		}
	}
	s.members = members
	return nil
}
