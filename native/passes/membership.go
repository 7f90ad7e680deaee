package passes

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"passmint/core/events"
	"passmint/core/types"
	"passmint/native/bank"
	"passmint/native/collection"
)

// MintMembership issues a member credential to args.Recipient. When the
// application policy carries a price, the recipient's user receipt to the
// calling authority is redeemed and the application expiry is renewed.
func (e *Engine) MintMembership(call Call, args MintMembershipArgs) (*collection.Member, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	issuer, account, err := e.loadIssuer(args.Issuer)
	if err != nil {
		return nil, err
	}
	if err := authorize(call, issuer); err != nil {
		return nil, err
	}
	display := MetadataPolicy{Name: args.Name, Symbol: args.Symbol, URI: args.URI, Pairs: args.Fields}
	if err := display.Validate(); err != nil {
		return nil, err
	}
	if args.Recipient == (common.Address{}) || args.MemberAsset == (common.Address{}) {
		return nil, ErrInvalidMember
	}

	var (
		receipt   *Receipt
		expiresAt int64
	)
	policy := issuer.Minting.Application.Payment
	if policy.UnitPrice > 0 {
		receipt, err = e.match(redemption{
			kind:     ReceiptUser,
			sender:   args.Recipient,
			redeemer: call.Authority,
			asset:    policy.PriceAsset,
			amount:   policy.UnitPrice,
		})
		if err != nil {
			return nil, err
		}
		expiresAt, err = expiry(e.now(), policy.ValidityDays)
		if err != nil {
			return nil, err
		}
		issuer.Minting.Application.Payment.ExpiresAt = types.Timestamp(expiresAt)
		if err := issuer.Validate(); err != nil {
			return nil, err
		}
		if err := e.writeRecord(args.Issuer, account, issuer); err != nil {
			return nil, err
		}
	}

	if err := bank.RegisterAsset(e.state, &types.Asset{
		Address:           args.MemberAsset,
		Name:              args.Name,
		Symbol:            args.Symbol,
		URI:               args.URI,
		MintAuthority:     args.Issuer,
		PermanentDelegate: args.Issuer,
		UpdateAuthority:   args.Issuer,
		NonTransferable:   true,
	}); err != nil {
		return nil, err
	}
	holding, err := bank.OpenHolding(e.state, args.Recipient, args.MemberAsset)
	if err != nil {
		return nil, err
	}
	if err := bank.Mint(e.state, args.MemberAsset, args.Issuer, holding.Address, 1); err != nil {
		return nil, err
	}
	member, err := e.collections.AddMember(issuer.Collection, args.Issuer, args.MemberAsset, args.Recipient, expiresAt)
	if err != nil {
		return nil, err
	}
	for _, field := range args.Fields {
		if err := e.metadata.Set(args.MemberAsset, args.Issuer, field.Key, field.Value); err != nil {
			return nil, err
		}
	}
	if receipt != nil {
		if err := e.consume(receipt, call.Authority); err != nil {
			return nil, err
		}
	}
	e.emit(events.MembershipMinted{
		Issuer:    args.Issuer,
		Member:    member.Address,
		Asset:     args.MemberAsset,
		Recipient: args.Recipient,
		ExpiresAt: expiresAt,
	})
	return member, nil
}

// member loads the member bound to memberAsset and checks it belongs to the
// issuer's collection.
func (e *Engine) member(issuer *Issuer, memberAsset common.Address) (*collection.Member, error) {
	member, err := e.collections.Member(collection.MemberAddress(memberAsset))
	if err != nil {
		return nil, err
	}
	if member == nil || member.Asset != memberAsset {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMember, memberAsset.Hex())
	}
	if member.Collection != issuer.Collection {
		return nil, ErrInvalidCollection
	}
	return member, nil
}

// RetireMembership burns a member credential and removes it from the
// issuer's collection.
func (e *Engine) RetireMembership(call Call, issuerAddr, memberAsset common.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	issuer, _, err := e.loadIssuer(issuerAddr)
	if err != nil {
		return err
	}
	if err := authorize(call, issuer); err != nil {
		return err
	}
	member, err := e.member(issuer, memberAsset)
	if err != nil {
		return err
	}
	holding := bank.HoldingAddress(member.Owner, memberAsset)
	balance, err := bank.Balance(e.state, holding)
	if err != nil {
		return err
	}
	if balance > 0 {
		if err := bank.Burn(e.state, memberAsset, issuerAddr, holding, balance); err != nil {
			return err
		}
	}
	if err := bank.CloseHolding(e.state, holding); err != nil {
		return err
	}
	if err := bank.CloseAsset(e.state, memberAsset, issuerAddr); err != nil {
		return err
	}
	if err := e.metadata.Clear(memberAsset); err != nil {
		return err
	}
	if err := e.collections.RemoveMember(issuer.Collection, issuerAddr, memberAsset); err != nil {
		return err
	}
	e.emit(events.MembershipRetired{Issuer: issuerAddr, Asset: memberAsset})
	return nil
}

// UpdateMemberMetadata replaces one display field on a member asset.
func (e *Engine) UpdateMemberMetadata(call Call, args UpdateMemberMetadataArgs) error {
	if err := e.ready(); err != nil {
		return err
	}
	issuer, _, err := e.loadIssuer(args.Issuer)
	if err != nil {
		return err
	}
	if err := authorize(call, issuer); err != nil {
		return err
	}
	if _, err := e.member(issuer, args.MemberAsset); err != nil {
		return err
	}
	if err := validateField(args.Field, args.Value); err != nil {
		return err
	}
	if err := e.metadata.Remove(args.MemberAsset, args.Issuer, args.Field); err != nil {
		return err
	}
	if err := e.metadata.Set(args.MemberAsset, args.Issuer, args.Field, args.Value); err != nil {
		return err
	}
	e.emit(events.MemberMetadataUpdated{Issuer: args.Issuer, Asset: args.MemberAsset, Field: args.Field})
	return nil
}
