package passes

import (
	"github.com/ethereum/go-ethereum/common"

	nativecommon "passmint/native/common"
)

// Record sizes are upper bounds on the RLP encoding. Strings use their
// declared caps rather than their content, so a record sized at creation
// stays within its allocation until a list grows.
const (
	// listPrefixSize covers the RLP header of any list payload below 16 MiB.
	listPrefixSize = 4
	addressSize    = 1 + common.AddressLength
	uint64Size     = 9
	uint16Size     = 3
	uint8Size      = 2

	// AuthorityElementSize is the growth of an issuer per added authority.
	AuthorityElementSize = addressSize
	identityElementSize  = uint8Size
)

// stringSize is the worst-case encoding of a string of at most limit bytes.
func stringSize(limit uint64) uint64 {
	if limit <= 55 {
		return 1 + limit
	}
	header := uint64(1)
	for n := limit; n > 0; n >>= 8 {
		header++
	}
	return header + limit
}

var (
	paymentPolicySize = uint64(listPrefixSize + uint16Size + uint64Size + addressSize + uint8Size + uint64Size)
	metadataPairSize  = listPrefixSize + stringSize(MaxMetadataFieldLength) + stringSize(MaxMetadataFieldLength)
	interestSize      = uint64(listPrefixSize + uint64Size)
	transferFeeSize   = uint64(listPrefixSize + uint16Size + uint64Size)
	// ReceiptSize is fixed: a receipt has no variable-length fields.
	ReceiptSize = uint64(listPrefixSize + uint8Size + uint64Size + uint64Size + 6*addressSize)
	// EntrySize is the growth of a ledger per appended entry.
	EntrySize = uint64(listPrefixSize + uint64Size + stringSize(MaxEntryMessageLength) + stringSize(MaxEntryURLLength) + uint64Size)
)

func listSize(count int, width uint64) (uint64, error) {
	body, err := nativecommon.MulSize(uint64(count), width)
	if err != nil {
		return 0, err
	}
	return nativecommon.AddSize(listPrefixSize, body)
}

// ApplicationPolicySize returns the size of an application policy with the
// given number of identity providers.
func ApplicationPolicySize(identities int) (uint64, error) {
	list, err := listSize(identities, identityElementSize)
	if err != nil {
		return 0, err
	}
	return nativecommon.AddSize(listPrefixSize, list, paymentPolicySize)
}

// MetadataPolicySize returns the size of a metadata policy with the given
// number of key/value pairs.
func MetadataPolicySize(pairs int) (uint64, error) {
	list, err := listSize(pairs, metadataPairSize)
	if err != nil {
		return 0, err
	}
	return nativecommon.AddSize(
		listPrefixSize,
		stringSize(MaxNameLength),
		stringSize(MaxSymbolLength),
		stringSize(MaxURILength),
		list,
	)
}

// MintingConfigSize returns the size of the nested minting configuration.
func MintingConfigSize(identities, pairs int) (uint64, error) {
	app, err := ApplicationPolicySize(identities)
	if err != nil {
		return 0, err
	}
	meta, err := MetadataPolicySize(pairs)
	if err != nil {
		return 0, err
	}
	return nativecommon.AddSize(listPrefixSize, addressSize, app, meta, interestSize, transferFeeSize)
}

// IssuerSize returns the allocation an issuer needs for the given number of
// authorities, identity providers and metadata pairs.
func IssuerSize(authorities, identities, pairs int) (uint64, error) {
	auth, err := listSize(authorities, AuthorityElementSize)
	if err != nil {
		return 0, err
	}
	minting, err := MintingConfigSize(identities, pairs)
	if err != nil {
		return 0, err
	}
	return nativecommon.AddSize(
		listPrefixSize,
		uint8Size,   // mode
		addressSize, // community
		addressSize, // collection
		stringSize(MaxNameLength),
		stringSize(MaxDescriptionLength),
		stringSize(MaxImageURLLength),
		addressSize, // fee payer
		auth,
		paymentPolicySize,
		minting,
	)
}

// ActivitySize returns the allocation a ledger with n entries needs.
func ActivitySize(entries int) (uint64, error) {
	list, err := listSize(entries, EntrySize)
	if err != nil {
		return 0, err
	}
	return nativecommon.AddSize(
		listPrefixSize,
		4*addressSize,
		stringSize(MaxLabelLength),
		uint64Size,
		uint64Size,
		list,
	)
}

// Size returns the allocation the issuer needs in its current shape.
func (i *Issuer) Size() (uint64, error) {
	return IssuerSize(i.Authorities.Len(), len(i.Minting.Application.Identities), len(i.Minting.Metadata.Pairs))
}

// Size returns the allocation the ledger needs in its current shape.
func (l *ActivityLedger) Size() (uint64, error) {
	return ActivitySize(len(l.Entries))
}
