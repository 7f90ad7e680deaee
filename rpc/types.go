package rpc

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"passmint/core/types"
	"passmint/crypto"
	"passmint/native/collection"
	"passmint/native/metadata"
	"passmint/native/passes"
)

type PaymentPolicyJSON struct {
	UnitAmount   uint16 `json:"unitAmount"`
	UnitPrice    uint64 `json:"unitPrice"`
	PriceAsset   string `json:"priceAsset,omitempty"`
	ValidityDays uint8  `json:"validityDays"`
	ExpiresAt    int64  `json:"expiresAt,omitempty"`
}

type ApplicationPolicyJSON struct {
	Identities []string          `json:"identities"`
	Payment    PaymentPolicyJSON `json:"payment"`
}

type MetadataPairJSON struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type MetadataPolicyJSON struct {
	Name   string             `json:"name"`
	Symbol string             `json:"symbol"`
	URI    string             `json:"uri"`
	Pairs  []MetadataPairJSON `json:"pairs,omitempty"`
}

type InterestPolicyJSON struct {
	Rate int16 `json:"rate"`
}

type TransferFeePolicyJSON struct {
	BasisPoints uint16 `json:"basisPoints"`
	MaxFee      uint64 `json:"maxFee"`
}

type CreateIssuerParams struct {
	Community   string                 `json:"community"`
	Asset       string                 `json:"asset"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	ImageURL    string                 `json:"imageUrl"`
	Payment     PaymentPolicyJSON      `json:"payment"`
	Application ApplicationPolicyJSON  `json:"application"`
	Metadata    MetadataPolicyJSON     `json:"metadata"`
	Interest    *InterestPolicyJSON    `json:"interest,omitempty"`
	TransferFee *TransferFeePolicyJSON `json:"transferFee,omitempty"`
	Payer       string                 `json:"payer,omitempty"`
}

type AuthorityParams struct {
	Issuer    string `json:"issuer"`
	Principal string `json:"principal"`
}

type IssuerParams struct {
	Issuer string `json:"issuer"`
}

type PreparePaymentParams struct {
	Receiver string `json:"receiver"`
	Asset    string `json:"asset"`
	Amount   uint64 `json:"amount"`
	Kind     string `json:"kind"`
}

type MintMembershipParams struct {
	Issuer      string             `json:"issuer"`
	Recipient   string             `json:"recipient"`
	MemberAsset string             `json:"memberAsset"`
	Name        string             `json:"name"`
	Symbol      string             `json:"symbol"`
	URI         string             `json:"uri"`
	Fields      []MetadataPairJSON `json:"fields,omitempty"`
}

type MemberParams struct {
	Issuer      string `json:"issuer"`
	MemberAsset string `json:"memberAsset"`
}

type UpdateMemberMetadataParams struct {
	Issuer      string `json:"issuer"`
	MemberAsset string `json:"memberAsset"`
	Field       string `json:"field"`
	Value       string `json:"value"`
}

type CreateActivityParams struct {
	Issuer      string `json:"issuer"`
	MemberAsset string `json:"memberAsset"`
	Label       string `json:"label"`
	StartDate   *int64 `json:"startDate,omitempty"`
	EndDate     *int64 `json:"endDate,omitempty"`
}

type AppendActivityEntryParams struct {
	Activity  string  `json:"activity"`
	Timestamp *int64  `json:"timestamp,omitempty"`
	Message   string  `json:"message"`
	URL       *string `json:"url,omitempty"`
	Points    *uint64 `json:"points,omitempty"`
}

func parseAddress(field, raw string) (common.Address, error) {
	addr, err := crypto.ParseAddress(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", field, err)
	}
	return addr, nil
}

func parseOptionalAddress(field, raw string) (common.Address, error) {
	if strings.TrimSpace(raw) == "" {
		return common.Address{}, nil
	}
	return parseAddress(field, raw)
}

func formatAddress(addr common.Address) string {
	if addr == (common.Address{}) {
		return ""
	}
	return crypto.FormatAddress(addr)
}

func (p PaymentPolicyJSON) toPolicy(field string) (passes.PaymentPolicy, error) {
	asset, err := parseOptionalAddress(field+".priceAsset", p.PriceAsset)
	if err != nil {
		return passes.PaymentPolicy{}, err
	}
	return passes.PaymentPolicy{
		UnitAmount:   p.UnitAmount,
		UnitPrice:    p.UnitPrice,
		PriceAsset:   asset,
		ValidityDays: p.ValidityDays,
	}, nil
}

func paymentJSON(p passes.PaymentPolicy) PaymentPolicyJSON {
	return PaymentPolicyJSON{
		UnitAmount:   p.UnitAmount,
		UnitPrice:    p.UnitPrice,
		PriceAsset:   formatAddress(p.PriceAsset),
		ValidityDays: p.ValidityDays,
		ExpiresAt:    p.ExpiresAt.Unix(),
	}
}

func pairs(in []MetadataPairJSON) []passes.MetadataPair {
	if len(in) == 0 {
		return nil
	}
	out := make([]passes.MetadataPair, len(in))
	for i, pair := range in {
		out[i] = passes.MetadataPair{Key: pair.Key, Value: pair.Value}
	}
	return out
}

func (p CreateIssuerParams) toArgs() (passes.CreateIssuerArgs, error) {
	var args passes.CreateIssuerArgs
	asset, err := parseAddress("asset", p.Asset)
	if err != nil {
		return args, err
	}
	payer, err := parseOptionalAddress("payer", p.Payer)
	if err != nil {
		return args, err
	}
	payment, err := p.Payment.toPolicy("payment")
	if err != nil {
		return args, err
	}
	appPayment, err := p.Application.Payment.toPolicy("application.payment")
	if err != nil {
		return args, err
	}
	identities := make([]passes.IdentityProvider, 0, len(p.Application.Identities))
	for _, name := range p.Application.Identities {
		provider, err := passes.ParseIdentityProvider(name)
		if err != nil {
			return args, err
		}
		identities = append(identities, provider)
	}
	args = passes.CreateIssuerArgs{
		Community:   p.Community,
		Asset:       asset,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Payment:     payment,
		Application: passes.ApplicationPolicy{Identities: identities, Payment: appPayment},
		Metadata: passes.MetadataPolicy{
			Name:   p.Metadata.Name,
			Symbol: p.Metadata.Symbol,
			URI:    p.Metadata.URI,
			Pairs:  pairs(p.Metadata.Pairs),
		},
		Payer: payer,
	}
	if p.Interest != nil {
		args.Interest = &passes.InterestPolicy{Rate: types.Rate(p.Interest.Rate)}
	}
	if p.TransferFee != nil {
		args.TransferFee = &passes.TransferFeePolicy{BasisPoints: p.TransferFee.BasisPoints, MaxFee: p.TransferFee.MaxFee}
	}
	return args, nil
}

func (p PreparePaymentParams) toArgs() (passes.PreparePaymentArgs, error) {
	var args passes.PreparePaymentArgs
	receiver, err := parseAddress("receiver", p.Receiver)
	if err != nil {
		return args, err
	}
	asset, err := parseAddress("asset", p.Asset)
	if err != nil {
		return args, err
	}
	kind, err := passes.ParseReceiptKind(p.Kind)
	if err != nil {
		return args, err
	}
	return passes.PreparePaymentArgs{Receiver: receiver, Asset: asset, Amount: p.Amount, Kind: kind}, nil
}

func (p MintMembershipParams) toArgs() (passes.MintMembershipArgs, error) {
	var args passes.MintMembershipArgs
	issuer, err := parseAddress("issuer", p.Issuer)
	if err != nil {
		return args, err
	}
	recipient, err := parseAddress("recipient", p.Recipient)
	if err != nil {
		return args, err
	}
	memberAsset, err := parseAddress("memberAsset", p.MemberAsset)
	if err != nil {
		return args, err
	}
	return passes.MintMembershipArgs{
		Issuer:      issuer,
		Recipient:   recipient,
		MemberAsset: memberAsset,
		Name:        p.Name,
		Symbol:      p.Symbol,
		URI:         p.URI,
		Fields:      pairs(p.Fields),
	}, nil
}

func (p MemberParams) addresses() (common.Address, common.Address, error) {
	issuer, err := parseAddress("issuer", p.Issuer)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	memberAsset, err := parseAddress("memberAsset", p.MemberAsset)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return issuer, memberAsset, nil
}

func (p UpdateMemberMetadataParams) toArgs() (passes.UpdateMemberMetadataArgs, error) {
	issuer, memberAsset, err := MemberParams{Issuer: p.Issuer, MemberAsset: p.MemberAsset}.addresses()
	if err != nil {
		return passes.UpdateMemberMetadataArgs{}, err
	}
	return passes.UpdateMemberMetadataArgs{Issuer: issuer, MemberAsset: memberAsset, Field: p.Field, Value: p.Value}, nil
}

func (p CreateActivityParams) toArgs() (passes.CreateActivityArgs, error) {
	issuer, memberAsset, err := MemberParams{Issuer: p.Issuer, MemberAsset: p.MemberAsset}.addresses()
	if err != nil {
		return passes.CreateActivityArgs{}, err
	}
	return passes.CreateActivityArgs{
		Issuer:      issuer,
		MemberAsset: memberAsset,
		Label:       p.Label,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
	}, nil
}

func (p AppendActivityEntryParams) toArgs() (passes.AppendActivityEntryArgs, error) {
	activity, err := parseAddress("activity", p.Activity)
	if err != nil {
		return passes.AppendActivityEntryArgs{}, err
	}
	return passes.AppendActivityEntryArgs{
		Activity:  activity,
		Timestamp: p.Timestamp,
		Message:   p.Message,
		URL:       p.URL,
		Points:    p.Points,
	}, nil
}

type IssuerResult struct {
	Address     string                `json:"address"`
	Mode        string                `json:"mode"`
	CommunityID string                `json:"communityId"`
	Collection  string                `json:"collection"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	ImageURL    string                `json:"imageUrl"`
	FeePayer    string                `json:"feePayer"`
	Authorities []string              `json:"authorities"`
	Payment     PaymentPolicyJSON     `json:"payment"`
	Application ApplicationPolicyJSON `json:"application"`
	Asset       string                `json:"asset"`
	Metadata    MetadataPolicyJSON    `json:"metadata"`
}

func issuerResult(issuer *passes.Issuer) IssuerResult {
	authorities := make([]string, 0, issuer.Authorities.Len())
	for _, principal := range issuer.Authorities.Members() {
		authorities = append(authorities, formatAddress(principal))
	}
	identities := make([]string, 0, len(issuer.Minting.Application.Identities))
	for _, provider := range issuer.Minting.Application.Identities {
		identities = append(identities, provider.String())
	}
	metadataPairs := make([]MetadataPairJSON, 0, len(issuer.Minting.Metadata.Pairs))
	for _, pair := range issuer.Minting.Metadata.Pairs {
		metadataPairs = append(metadataPairs, MetadataPairJSON{Key: pair.Key, Value: pair.Value})
	}
	return IssuerResult{
		Address:     formatAddress(issuer.Address),
		Mode:        issuer.Mode.String(),
		CommunityID: formatAddress(issuer.CommunityID),
		Collection:  formatAddress(issuer.Collection),
		Name:        issuer.Name,
		Description: issuer.Description,
		ImageURL:    issuer.ImageURL,
		FeePayer:    formatAddress(issuer.FeePayer),
		Authorities: authorities,
		Payment:     paymentJSON(issuer.Payment),
		Application: ApplicationPolicyJSON{Identities: identities, Payment: paymentJSON(issuer.Minting.Application.Payment)},
		Asset:       formatAddress(issuer.Minting.Asset),
		Metadata: MetadataPolicyJSON{
			Name:   issuer.Minting.Metadata.Name,
			Symbol: issuer.Minting.Metadata.Symbol,
			URI:    issuer.Minting.Metadata.URI,
			Pairs:  metadataPairs,
		},
	}
}

type ReceiptResult struct {
	Address         string `json:"address"`
	Kind            string `json:"kind"`
	CreatedAt       int64  `json:"createdAt"`
	Amount          uint64 `json:"amount"`
	Sender          string `json:"sender"`
	Receiver        string `json:"receiver"`
	SenderHolding   string `json:"senderHolding"`
	ReceiverHolding string `json:"receiverHolding"`
	Asset           string `json:"asset"`
	FeePayer        string `json:"feePayer"`
}

func receiptResult(r *passes.Receipt) ReceiptResult {
	return ReceiptResult{
		Address:         formatAddress(r.Address),
		Kind:            r.Kind.String(),
		CreatedAt:       r.CreatedAt.Unix(),
		Amount:          r.Amount,
		Sender:          formatAddress(r.Sender),
		Receiver:        formatAddress(r.Receiver),
		SenderHolding:   formatAddress(r.SenderHolding),
		ReceiverHolding: formatAddress(r.ReceiverHolding),
		Asset:           formatAddress(r.Asset),
		FeePayer:        formatAddress(r.FeePayer),
	}
}

type EntryResult struct {
	Timestamp int64   `json:"timestamp"`
	Message   string  `json:"message"`
	URL       *string `json:"url,omitempty"`
	Points    uint64  `json:"points"`
}

type ActivityResult struct {
	Address   string        `json:"address"`
	Issuer    string        `json:"issuer"`
	Asset     string        `json:"asset"`
	Member    string        `json:"member"`
	FeePayer  string        `json:"feePayer"`
	Label     string        `json:"label"`
	StartDate int64         `json:"startDate"`
	EndDate   int64         `json:"endDate"`
	Entries   []EntryResult `json:"entries"`
}

func activityResult(l *passes.ActivityLedger) ActivityResult {
	entries := make([]EntryResult, 0, len(l.Entries))
	for _, entry := range l.Entries {
		entries = append(entries, EntryResult{
			Timestamp: entry.Timestamp.Unix(),
			Message:   entry.Message,
			URL:       entry.URL,
			Points:    entry.Points,
		})
	}
	return ActivityResult{
		Address:   formatAddress(l.Address),
		Issuer:    formatAddress(l.Issuer),
		Asset:     formatAddress(l.Asset),
		Member:    formatAddress(l.Member),
		FeePayer:  formatAddress(l.FeePayer),
		Label:     l.Label,
		StartDate: l.StartDate.Unix(),
		EndDate:   l.EndDate.Unix(),
		Entries:   entries,
	}
}

type CollectionResult struct {
	Address         string `json:"address"`
	UpdateAuthority string `json:"updateAuthority"`
	Asset           string `json:"asset"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	URI             string `json:"uri"`
	Size            uint32 `json:"size"`
	MaxSize         uint32 `json:"maxSize"`
}

func collectionResult(c *collection.Collection) CollectionResult {
	return CollectionResult{
		Address:         formatAddress(c.Address),
		UpdateAuthority: formatAddress(c.UpdateAuthority),
		Asset:           formatAddress(c.Asset),
		Name:            c.Name,
		Symbol:          c.Symbol,
		URI:             c.URI,
		Size:            c.Size,
		MaxSize:         c.MaxSize,
	}
}

type MemberResult struct {
	Address    string             `json:"address"`
	Collection string             `json:"collection"`
	Asset      string             `json:"asset"`
	Owner      string             `json:"owner"`
	ExpiresAt  int64              `json:"expiresAt"`
	Fields     []MetadataPairJSON `json:"fields,omitempty"`
}

func memberResult(m *collection.Member, fields []metadata.Field) MemberResult {
	out := MemberResult{
		Address:    formatAddress(m.Address),
		Collection: formatAddress(m.Collection),
		Asset:      formatAddress(m.Asset),
		Owner:      formatAddress(m.Owner),
		ExpiresAt:  m.ExpiresAt.Unix(),
	}
	for _, field := range fields {
		out.Fields = append(out.Fields, MetadataPairJSON{Key: field.Key, Value: field.Value})
	}
	return out
}
