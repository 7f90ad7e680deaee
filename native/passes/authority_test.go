package passes

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

func principal(n int) common.Address {
	var addr common.Address
	addr[0] = byte(n >> 8)
	addr[1] = byte(n)
	addr[19] = 0x42
	return addr
}

func assertSorted(t *testing.T, set AuthoritySet) {
	t.Helper()
	members := set.Members()
	for i := 1; i < len(members); i++ {
		if bytes.Compare(members[i-1].Bytes(), members[i].Bytes()) >= 0 {
			t.Fatalf("members out of order at %d: %x >= %x", i, members[i-1], members[i])
		}
	}
}

func TestAuthoritySetAddKeepsOrder(t *testing.T) {
	var set AuthoritySet
	for _, n := range []int{9, 3, 7, 1, 5} {
		before := set.Len()
		if err := set.Add(principal(n)); err != nil {
			t.Fatalf("add %d: %v", n, err)
		}
		if !set.Contains(principal(n)) {
			t.Fatalf("expected %d to be present", n)
		}
		if set.Len() != before+1 {
			t.Fatalf("len %d after add, want %d", set.Len(), before+1)
		}
		assertSorted(t, set)
	}
	if err := set.Add(principal(7)); !errors.Is(err, ErrAuthorityAlreadyExists) {
		t.Fatalf("expected ErrAuthorityAlreadyExists, got %v", err)
	}
	if set.Len() != 5 {
		t.Fatalf("duplicate add changed len to %d", set.Len())
	}
}

func TestAuthoritySetRemove(t *testing.T) {
	set, err := NewAuthoritySet(principal(1))
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	if err := set.Remove(principal(1)); !errors.Is(err, ErrCannotRemoveSoloAuthority) {
		t.Fatalf("expected ErrCannotRemoveSoloAuthority, got %v", err)
	}
	if !set.Contains(principal(1)) || set.Len() != 1 {
		t.Fatalf("solo removal changed the set")
	}

	if err := set.Add(principal(2)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := set.Remove(principal(3)); !errors.Is(err, ErrAuthorityNonExistent) {
		t.Fatalf("expected ErrAuthorityNonExistent, got %v", err)
	}
	if err := set.Remove(principal(1)); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if set.Contains(principal(1)) || set.Len() != 1 {
		t.Fatalf("remove left %v", set.Members())
	}
}

func TestAuthoritySetRLP(t *testing.T) {
	set, err := NewAuthoritySet(principal(4), principal(2), principal(8))
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	encoded, err := rlp.EncodeToBytes(set)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded AuthoritySet
	if err := rlp.DecodeBytes(encoded, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Len() != 3 || !decoded.Contains(principal(8)) {
		t.Fatalf("unexpected members %v", decoded.Members())
	}

	unsorted, err := rlp.EncodeToBytes([]common.Address{principal(8), principal(2)})
	if err != nil {
		t.Fatalf("encode raw: %v", err)
	}
	if err := rlp.DecodeBytes(unsorted, &decoded); !errors.Is(err, ErrAuthoritySetCorrupt) {
		t.Fatalf("expected ErrAuthoritySetCorrupt, got %v", err)
	}
}

func TestIssuerSizeGrowsByOneElementPerAuthority(t *testing.T) {
	prev, err := IssuerSize(0, 2, 3)
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	for n := 1; n <= MaxVectorSize; n++ {
		next, err := IssuerSize(n, 2, 3)
		if err != nil {
			t.Fatalf("size(%d): %v", n, err)
		}
		if next != prev+AuthorityElementSize {
			t.Fatalf("size(%d)=%d, want %d", n, next, prev+AuthorityElementSize)
		}
		prev = next
	}
}
