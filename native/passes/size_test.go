package passes

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"passmint/core/types"
)

func maxIssuer(t *testing.T, authorities, pairs int) *Issuer {
	t.Helper()
	set, err := NewAuthoritySet()
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	for i := 0; i < authorities; i++ {
		addr := common.BytesToAddress([]byte{0xff, byte(i >> 8), byte(i), 0xff})
		if err := set.Add(addr); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	full := common.HexToAddress("0xffffffffffffffffffffffffffffffffffffffff")
	policy := PaymentPolicy{UnitAmount: 0xffff, UnitPrice: ^uint64(0), PriceAsset: full, ValidityDays: 0xff, ExpiresAt: types.Timestamp(-1)}
	issuer := &Issuer{
		Mode:        ModeCollection,
		CommunityID: full,
		Collection:  full,
		Name:        strings.Repeat("n", MaxNameLength),
		Description: strings.Repeat("d", MaxDescriptionLength),
		ImageURL:    strings.Repeat("u", MaxImageURLLength),
		FeePayer:    full,
		Authorities: set,
		Payment:     policy,
		Minting: MintingConfig{
			Asset: full,
			Application: ApplicationPolicy{
				Identities: []IdentityProvider{IdentityDiscord, IdentityGitHub, IdentityGoogle, IdentityTwitter},
				Payment:    policy,
			},
			Metadata: MetadataPolicy{
				Name:   strings.Repeat("m", MaxNameLength),
				Symbol: strings.Repeat("s", MaxSymbolLength),
				URI:    strings.Repeat("r", MaxURILength),
			},
			Interest:    &InterestPolicy{Rate: types.Rate(-32768)},
			TransferFee: &TransferFeePolicy{BasisPoints: 0xffff, MaxFee: ^uint64(0)},
		},
	}
	for i := 0; i < pairs; i++ {
		issuer.Minting.Metadata.Pairs = append(issuer.Minting.Metadata.Pairs, MetadataPair{
			Key:   strings.Repeat("k", MaxMetadataFieldLength),
			Value: strings.Repeat("v", MaxMetadataFieldLength),
		})
	}
	return issuer
}

func TestIssuerEncodingFitsSize(t *testing.T) {
	for _, tc := range []struct{ authorities, pairs int }{{1, 0}, {3, 2}, {40, 15}} {
		issuer := maxIssuer(t, tc.authorities, tc.pairs)
		encoded, err := rlp.EncodeToBytes(issuer)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		size, err := issuer.Size()
		if err != nil {
			t.Fatalf("size: %v", err)
		}
		if uint64(len(encoded)) > size {
			t.Fatalf("authorities=%d pairs=%d: encoded %d > size %d", tc.authorities, tc.pairs, len(encoded), size)
		}
	}
}

func TestReceiptEncodingFitsSize(t *testing.T) {
	full := common.HexToAddress("0xffffffffffffffffffffffffffffffffffffffff")
	receipt := &Receipt{
		Kind:            ReceiptCommunity,
		CreatedAt:       types.Timestamp(-1),
		Amount:          ^uint64(0),
		Sender:          full,
		Receiver:        full,
		SenderHolding:   full,
		ReceiverHolding: full,
		Asset:           full,
		FeePayer:        full,
	}
	encoded, err := rlp.EncodeToBytes(receipt)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if uint64(len(encoded)) > ReceiptSize {
		t.Fatalf("encoded %d > ReceiptSize %d", len(encoded), ReceiptSize)
	}
}

func TestActivitySizeMonotonicAndFits(t *testing.T) {
	full := common.HexToAddress("0xffffffffffffffffffffffffffffffffffffffff")
	url := strings.Repeat("u", MaxEntryURLLength)
	ledger := &ActivityLedger{
		Issuer:    full,
		Asset:     full,
		Member:    full,
		FeePayer:  full,
		Label:     strings.Repeat("l", MaxLabelLength),
		StartDate: types.Timestamp(-1),
		EndDate:   types.Timestamp(-1),
	}
	prev, err := ledger.Size()
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	for i := 0; i < 64; i++ {
		ledger.Entries = append(ledger.Entries, Entry{
			Timestamp: types.Timestamp(-1),
			Message:   strings.Repeat("m", MaxEntryMessageLength),
			URL:       &url,
			Points:    ^uint64(0),
		})
		size, err := ledger.Size()
		if err != nil {
			t.Fatalf("size: %v", err)
		}
		if size < prev {
			t.Fatalf("size shrank from %d to %d", prev, size)
		}
		if size != prev+EntrySize {
			t.Fatalf("entry %d grew by %d, want %d", i, size-prev, EntrySize)
		}
		encoded, err := rlp.EncodeToBytes(ledger)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if uint64(len(encoded)) > size {
			t.Fatalf("entries=%d: encoded %d > size %d", len(ledger.Entries), len(encoded), size)
		}
		prev = size
	}
}
