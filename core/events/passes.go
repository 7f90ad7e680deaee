package events

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"passmint/core/types"
)

const (
	TypeIssuerCreated         = "passes.issuer_created"
	TypeIssuerRemoved         = "passes.issuer_removed"
	TypeAuthorityAdded        = "passes.authority_added"
	TypeAuthorityRemoved      = "passes.authority_removed"
	TypePaymentPrepared       = "passes.payment_prepared"
	TypeReceiptRedeemed       = "passes.receipt_redeemed"
	TypeMembershipMinted      = "passes.membership_minted"
	TypeMembershipRetired     = "passes.membership_retired"
	TypeMemberMetadataUpdated = "passes.member_metadata_updated"
	TypeActivityCreated       = "passes.activity_created"
	TypeActivityEntryAppended = "passes.activity_entry_appended"
)

// IssuerCreated is emitted when a new issuer record is initialised.
type IssuerCreated struct {
	Issuer     common.Address
	Asset      common.Address
	Collection common.Address
	Community  common.Address
	Mode       string
	FeePayer   common.Address
	Authority  common.Address
}

func (IssuerCreated) EventType() string { return TypeIssuerCreated }

func (e IssuerCreated) Event() *types.Event {
	return &types.Event{Type: TypeIssuerCreated, Attributes: map[string]string{
		"issuer":     e.Issuer.Hex(),
		"asset":      e.Asset.Hex(),
		"collection": e.Collection.Hex(),
		"community":  e.Community.Hex(),
		"mode":       e.Mode,
		"feePayer":   e.FeePayer.Hex(),
		"authority":  e.Authority.Hex(),
	}}
}

// IssuerRemoved is emitted when an issuer and its bound asset are closed.
type IssuerRemoved struct {
	Issuer   common.Address
	Asset    common.Address
	Refunded uint64
}

func (IssuerRemoved) EventType() string { return TypeIssuerRemoved }

func (e IssuerRemoved) Event() *types.Event {
	return &types.Event{Type: TypeIssuerRemoved, Attributes: map[string]string{
		"issuer":   e.Issuer.Hex(),
		"asset":    e.Asset.Hex(),
		"refunded": strconv.FormatUint(e.Refunded, 10),
	}}
}

// AuthorityChanged is emitted for both authority additions and removals.
type AuthorityChanged struct {
	Issuer    common.Address
	Principal common.Address
	Count     int
	Removed   bool
}

func (e AuthorityChanged) EventType() string {
	if e.Removed {
		return TypeAuthorityRemoved
	}
	return TypeAuthorityAdded
}

func (e AuthorityChanged) Event() *types.Event {
	return &types.Event{Type: e.EventType(), Attributes: map[string]string{
		"issuer":    e.Issuer.Hex(),
		"principal": e.Principal.Hex(),
		"count":     strconv.Itoa(e.Count),
	}}
}

// PaymentPrepared is emitted when funds move into escrow under a receipt.
type PaymentPrepared struct {
	Receipt  common.Address
	Kind     string
	Sender   common.Address
	Receiver common.Address
	Asset    common.Address
	Amount   uint64
}

func (PaymentPrepared) EventType() string { return TypePaymentPrepared }

func (e PaymentPrepared) Event() *types.Event {
	return &types.Event{Type: TypePaymentPrepared, Attributes: map[string]string{
		"receipt":  e.Receipt.Hex(),
		"kind":     e.Kind,
		"sender":   e.Sender.Hex(),
		"receiver": e.Receiver.Hex(),
		"asset":    e.Asset.Hex(),
		"amount":   strconv.FormatUint(e.Amount, 10),
	}}
}

// ReceiptRedeemed is emitted when a receipt is consumed and closed.
type ReceiptRedeemed struct {
	Receipt  common.Address
	Kind     string
	Redeemer common.Address
	Refunded uint64
}

func (ReceiptRedeemed) EventType() string { return TypeReceiptRedeemed }

func (e ReceiptRedeemed) Event() *types.Event {
	return &types.Event{Type: TypeReceiptRedeemed, Attributes: map[string]string{
		"receipt":  e.Receipt.Hex(),
		"kind":     e.Kind,
		"redeemer": e.Redeemer.Hex(),
		"refunded": strconv.FormatUint(e.Refunded, 10),
	}}
}

// MembershipMinted is emitted when a member credential is issued.
type MembershipMinted struct {
	Issuer    common.Address
	Member    common.Address
	Asset     common.Address
	Recipient common.Address
	ExpiresAt int64
}

func (MembershipMinted) EventType() string { return TypeMembershipMinted }

func (e MembershipMinted) Event() *types.Event {
	return &types.Event{Type: TypeMembershipMinted, Attributes: map[string]string{
		"issuer":    e.Issuer.Hex(),
		"member":    e.Member.Hex(),
		"asset":     e.Asset.Hex(),
		"recipient": e.Recipient.Hex(),
		"expiresAt": strconv.FormatInt(e.ExpiresAt, 10),
	}}
}

// MembershipRetired is emitted when a member credential is burned.
type MembershipRetired struct {
	Issuer common.Address
	Asset  common.Address
}

func (MembershipRetired) EventType() string { return TypeMembershipRetired }

func (e MembershipRetired) Event() *types.Event {
	return &types.Event{Type: TypeMembershipRetired, Attributes: map[string]string{
		"issuer": e.Issuer.Hex(),
		"asset":  e.Asset.Hex(),
	}}
}

// MemberMetadataUpdated is emitted when one metadata field of a member changes.
type MemberMetadataUpdated struct {
	Issuer common.Address
	Asset  common.Address
	Field  string
}

func (MemberMetadataUpdated) EventType() string { return TypeMemberMetadataUpdated }

func (e MemberMetadataUpdated) Event() *types.Event {
	return &types.Event{Type: TypeMemberMetadataUpdated, Attributes: map[string]string{
		"issuer": e.Issuer.Hex(),
		"asset":  e.Asset.Hex(),
		"field":  e.Field,
	}}
}

// ActivityCreated is emitted when an activity ledger is opened for a member.
type ActivityCreated struct {
	Activity  common.Address
	Issuer    common.Address
	Asset     common.Address
	Label     string
	StartDate int64
	EndDate   int64
}

func (ActivityCreated) EventType() string { return TypeActivityCreated }

func (e ActivityCreated) Event() *types.Event {
	return &types.Event{Type: TypeActivityCreated, Attributes: map[string]string{
		"activity":  e.Activity.Hex(),
		"issuer":    e.Issuer.Hex(),
		"asset":     e.Asset.Hex(),
		"label":     e.Label,
		"startDate": strconv.FormatInt(e.StartDate, 10),
		"endDate":   strconv.FormatInt(e.EndDate, 10),
	}}
}

// ActivityEntryAppended is emitted for every entry pushed to a ledger.
type ActivityEntryAppended struct {
	Activity common.Address
	Index    int
	Points   uint64
	Space    uint64
}

func (ActivityEntryAppended) EventType() string { return TypeActivityEntryAppended }

func (e ActivityEntryAppended) Event() *types.Event {
	return &types.Event{Type: TypeActivityEntryAppended, Attributes: map[string]string{
		"activity": e.Activity.Hex(),
		"index":    strconv.Itoa(e.Index),
		"points":   strconv.FormatUint(e.Points, 10),
		"space":    strconv.FormatUint(e.Space, 10),
	}}
}
