package passes

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"passmint/core/types"
)

const (
	MaxNameLength          = 50
	MinNameLength          = 3
	MaxSymbolLength        = 10
	MaxDescriptionLength   = 200
	MinDescriptionLength   = 10
	MaxImageURLLength      = 100
	MaxURILength           = 100
	MaxMetadataFieldLength = 15
	MaxVectorSize          = 65535
	MaxLabelLength         = 50
	MaxEntryMessageLength  = 200
	MaxEntryURLLength      = 100
	// MaxActivityEntries keeps an encoded ledger below the 16 MiB bound the
	// size formula assumes for list prefixes.
	MaxActivityEntries = 50_000
	SecondsPerDay      = 86_400
	MaxBasisPoints     = 10_000
)

// Account kinds stored in the envelope.
const (
	kindIssuer   = "passes/issuer"
	kindReceipt  = "passes/receipt"
	kindActivity = "passes/activity"
)

// IssuerCreationMode selects the side effects of issuer creation.
type IssuerCreationMode uint8

const (
	// ModeStandalone creates the issuer without a payment.
	ModeStandalone IssuerCreationMode = iota
	// ModeCollection redeems a community receipt before creating the issuer.
	ModeCollection
)

func (m IssuerCreationMode) String() string {
	switch m {
	case ModeStandalone:
		return "standalone"
	case ModeCollection:
		return "collection"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// IdentityProvider names an external identity an applicant may present.
type IdentityProvider uint8

const (
	IdentityDiscord IdentityProvider = iota
	IdentityGitHub
	IdentityGoogle
	IdentityTwitter
)

var identityNames = map[IdentityProvider]string{
	IdentityDiscord: "discord",
	IdentityGitHub:  "github",
	IdentityGoogle:  "google",
	IdentityTwitter: "twitter",
}

func (p IdentityProvider) String() string {
	if name, ok := identityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("identity(%d)", uint8(p))
}

// ParseIdentityProvider resolves a provider by case-insensitive name.
func ParseIdentityProvider(name string) (IdentityProvider, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for p, n := range identityNames {
		if n == normalized {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown identity provider %q", ErrInvalidApplicationPolicy, name)
}

// PaymentPolicy prices a unit of issuance. ExpiresAt of zero means the
// policy has not been activated yet.
type PaymentPolicy struct {
	UnitAmount   uint16
	UnitPrice    uint64
	PriceAsset   common.Address
	ValidityDays uint8
	ExpiresAt    types.Timestamp
}

// Activated reports whether a redemption has set an expiry.
func (p PaymentPolicy) Activated() bool { return p.ExpiresAt != 0 }

// ApplicationPolicy governs member-level payment.
type ApplicationPolicy struct {
	Identities []IdentityProvider
	Payment    PaymentPolicy
}

// MetadataPair is a display key/value.
type MetadataPair struct {
	Key   string
	Value string
}

// MetadataPolicy describes the display metadata of the bound asset.
type MetadataPolicy struct {
	Name   string
	Symbol string
	URI    string
	Pairs  []MetadataPair
}

type InterestPolicy struct {
	Rate types.Rate
}

type TransferFeePolicy struct {
	BasisPoints uint16
	MaxFee      uint64
}

// MintingConfig binds the issuer to its asset and nested policies.
type MintingConfig struct {
	Asset       common.Address
	Application ApplicationPolicy
	Metadata    MetadataPolicy
	Interest    *InterestPolicy    `rlp:"nil"`
	TransferFee *TransferFeePolicy `rlp:"nil"`
}

// Issuer governs minting for one bound asset.
type Issuer struct {
	Address     common.Address `rlp:"-"`
	Mode        IssuerCreationMode
	CommunityID common.Address
	Collection  common.Address
	Name        string
	Description string
	ImageURL    string
	FeePayer    common.Address
	Authorities AuthoritySet
	Payment     PaymentPolicy
	Minting     MintingConfig
}

// Clone returns a deep copy of the issuer.
func (i *Issuer) Clone() *Issuer {
	if i == nil {
		return nil
	}
	out := *i
	out.Authorities = i.Authorities.Clone()
	out.Minting.Application.Identities = append([]IdentityProvider(nil), i.Minting.Application.Identities...)
	out.Minting.Metadata.Pairs = append([]MetadataPair(nil), i.Minting.Metadata.Pairs...)
	if i.Minting.Interest != nil {
		interest := *i.Minting.Interest
		out.Minting.Interest = &interest
	}
	if i.Minting.TransferFee != nil {
		fee := *i.Minting.TransferFee
		out.Minting.TransferFee = &fee
	}
	return &out
}

// ReceiptKind selects the redemption rule a receipt satisfies.
type ReceiptKind uint8

const (
	ReceiptUser ReceiptKind = iota
	ReceiptCommunity
)

func (k ReceiptKind) String() string {
	switch k {
	case ReceiptUser:
		return "user"
	case ReceiptCommunity:
		return "community"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseReceiptKind resolves "user" or "community".
func ParseReceiptKind(name string) (ReceiptKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "user":
		return ReceiptUser, nil
	case "community":
		return ReceiptCommunity, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidReceiptKind, name)
	}
}

// Receipt proves that Amount of Asset moved from Sender to Receiver. It is
// destroyed by the redemption that consumes it. FeePayer funded the reserve
// and receives it back on redemption.
type Receipt struct {
	Address         common.Address `rlp:"-"`
	Kind            ReceiptKind
	CreatedAt       types.Timestamp
	Amount          uint64
	Sender          common.Address
	Receiver        common.Address
	SenderHolding   common.Address
	ReceiverHolding common.Address
	Asset           common.Address
	FeePayer        common.Address
}

func (r *Receipt) Clone() *Receipt {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}

// Entry is one activity record.
type Entry struct {
	Timestamp types.Timestamp
	Message   string
	URL       *string `rlp:"nil"`
	Points    uint64
}

// ActivityLedger is an append-only list of entries for one member asset.
type ActivityLedger struct {
	Address   common.Address `rlp:"-"`
	Issuer    common.Address
	Asset     common.Address
	Member    common.Address
	FeePayer  common.Address
	Label     string
	StartDate types.Timestamp
	EndDate   types.Timestamp
	Entries   []Entry
}

func (l *ActivityLedger) Clone() *ActivityLedger {
	if l == nil {
		return nil
	}
	out := *l
	out.Entries = make([]Entry, len(l.Entries))
	for i, entry := range l.Entries {
		out.Entries[i] = entry
		if entry.URL != nil {
			url := *entry.URL
			out.Entries[i].URL = &url
		}
	}
	return &out
}

// Call carries the principals that signed a request. The RPC layer fills it
// only from verified signatures.
type Call struct {
	FeePayer  common.Address
	Authority common.Address
}

// payer returns the principal funding reserves for the call.
func (c Call) payer() common.Address {
	if c.FeePayer == (common.Address{}) {
		return c.Authority
	}
	return c.FeePayer
}

// CreateIssuerArgs is shared by both creation modes. Payer names the sender
// of the community receipt and is only read in collection mode.
type CreateIssuerArgs struct {
	Community   string
	Asset       common.Address
	Name        string
	Description string
	ImageURL    string
	Payment     PaymentPolicy
	Application ApplicationPolicy
	Metadata    MetadataPolicy
	Interest    *InterestPolicy
	TransferFee *TransferFeePolicy
	Payer       common.Address
}

type PreparePaymentArgs struct {
	Receiver common.Address
	Asset    common.Address
	Amount   uint64
	Kind     ReceiptKind
}

type MintMembershipArgs struct {
	Issuer      common.Address
	Recipient   common.Address
	MemberAsset common.Address
	Name        string
	Symbol      string
	URI         string
	Fields      []MetadataPair
}

type UpdateMemberMetadataArgs struct {
	Issuer      common.Address
	MemberAsset common.Address
	Field       string
	Value       string
}

// CreateActivityArgs leaves StartDate and EndDate nil to use the defaults.
type CreateActivityArgs struct {
	Issuer      common.Address
	MemberAsset common.Address
	Label       string
	StartDate   *int64
	EndDate     *int64
}

type AppendActivityEntryArgs struct {
	Activity  common.Address
	Timestamp *int64
	Message   string
	URL       *string
	Points    *uint64
}
