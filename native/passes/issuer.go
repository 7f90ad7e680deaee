package passes

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"passmint/core/events"
	"passmint/core/types"
	"passmint/native/bank"
	"passmint/native/collection"
	nativecommon "passmint/native/common"
)

// CreateIssuer creates an issuer without a payment.
func (e *Engine) CreateIssuer(call Call, args CreateIssuerArgs) (*Issuer, error) {
	return e.createIssuer(ModeStandalone, call, args)
}

// CreateIssuerWithCollection redeems the community receipt sent by
// args.Payer to the authority before creating the issuer.
func (e *Engine) CreateIssuerWithCollection(call Call, args CreateIssuerArgs) (*Issuer, error) {
	return e.createIssuer(ModeCollection, call, args)
}

func (e *Engine) createIssuer(mode IssuerCreationMode, call Call, args CreateIssuerArgs) (*Issuer, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if mode > ModeCollection {
		return nil, ErrInvalidIssuerCreationMode
	}
	if call.FeePayer == (common.Address{}) || call.FeePayer == call.Authority {
		return nil, ErrInvalidFeePayer
	}
	authorities, err := NewAuthoritySet(call.Authority)
	if err != nil {
		return nil, err
	}
	addr := IssuerAddress(e.params.Namespace, args.Asset, args.Name)
	issuer := &Issuer{
		Address:     addr,
		Mode:        mode,
		CommunityID: CommunityID(e.params.Namespace, args.Community),
		Collection:  collection.Address(args.Asset),
		Name:        args.Name,
		Description: args.Description,
		ImageURL:    args.ImageURL,
		FeePayer:    call.FeePayer,
		Authorities: authorities,
		Payment:     args.Payment,
		Minting: MintingConfig{
			Asset:       args.Asset,
			Application: args.Application,
			Metadata:    args.Metadata,
			Interest:    args.Interest,
			TransferFee: args.TransferFee,
		},
	}
	// Application expiry is set by the first user redemption.
	issuer.Minting.Application.Payment.ExpiresAt = 0
	if err := issuer.Validate(); err != nil {
		return nil, err
	}

	var receipt *Receipt
	if mode == ModeCollection {
		if issuer.Payment.UnitPrice == 0 {
			return nil, fmt.Errorf("%w: collection issuers require a price", ErrInvalidPaymentPolicy)
		}
		receipt, err = e.match(redemption{
			kind:     ReceiptCommunity,
			sender:   args.Payer,
			redeemer: call.Authority,
			asset:    issuer.Payment.PriceAsset,
			amount:   issuer.Payment.UnitPrice,
		})
		if err != nil {
			return nil, err
		}
		expiresAt, err := expiry(e.now(), issuer.Payment.ValidityDays)
		if err != nil {
			return nil, err
		}
		issuer.Payment.ExpiresAt = types.Timestamp(expiresAt)
		if err := e.forwardPayment(receipt, call.FeePayer); err != nil {
			return nil, err
		}
	}

	space, err := issuer.Size()
	if err != nil {
		return nil, err
	}
	if _, err := e.createRecord(addr, kindIssuer, space, call.FeePayer, issuer); err != nil {
		return nil, err
	}
	if err := e.registerBoundAsset(issuer); err != nil {
		return nil, err
	}
	if _, err := e.collections.Create(collection.Collection{
		UpdateAuthority: addr,
		Asset:           args.Asset,
		Name:            args.Metadata.Name,
		Symbol:          args.Metadata.Symbol,
		URI:             args.Metadata.URI,
		MaxSize:         e.params.CollectionMaxSize,
	}); err != nil {
		return nil, err
	}
	for _, pair := range args.Metadata.Pairs {
		if err := e.metadata.Set(args.Asset, addr, pair.Key, pair.Value); err != nil {
			return nil, err
		}
	}
	holding, err := bank.OpenHolding(e.state, addr, args.Asset)
	if err != nil {
		return nil, err
	}
	if err := bank.Mint(e.state, args.Asset, addr, holding.Address, 1); err != nil {
		return nil, err
	}
	if receipt != nil {
		if err := e.consume(receipt, call.Authority); err != nil {
			return nil, err
		}
	}
	e.emit(events.IssuerCreated{
		Issuer:     addr,
		Asset:      args.Asset,
		Collection: issuer.Collection,
		Community:  issuer.CommunityID,
		Mode:       mode.String(),
		FeePayer:   call.FeePayer,
		Authority:  call.Authority,
	})
	return issuer, nil
}

// forwardPayment moves the escrowed amount from the authority's holding to
// the fee payer's holding.
func (e *Engine) forwardPayment(receipt *Receipt, feePayer common.Address) error {
	decimals, err := e.assetDecimals(receipt.Asset)
	if err != nil {
		return err
	}
	dest, err := bank.OpenHolding(e.state, feePayer, receipt.Asset)
	if err != nil {
		return err
	}
	return bank.Transfer(e.state, receipt.Asset, receipt.ReceiverHolding, dest.Address, receipt.Amount, decimals)
}

// registerBoundAsset registers the issuer's asset with the issuer as mint,
// update and burn authority. The asset cannot be transferred.
func (e *Engine) registerBoundAsset(issuer *Issuer) error {
	meta := issuer.Minting.Metadata
	asset := &types.Asset{
		Address:           issuer.Minting.Asset,
		Name:              meta.Name,
		Symbol:            meta.Symbol,
		URI:               meta.URI,
		MintAuthority:     issuer.Address,
		PermanentDelegate: issuer.Address,
		UpdateAuthority:   issuer.Address,
		NonTransferable:   true,
	}
	if interest := issuer.Minting.Interest; interest != nil {
		asset.Interest = &types.InterestExtension{Authority: issuer.Address, Rate: interest.Rate}
	}
	if fee := issuer.Minting.TransferFee; fee != nil {
		asset.TransferFee = &types.TransferFeeExtension{
			Authority:   issuer.Address,
			BasisPoints: fee.BasisPoints,
			MaximumFee:  fee.MaxFee,
		}
	}
	return bank.RegisterAsset(e.state, asset)
}

// AddAuthority adds principal to the issuer's authority set, growing the
// issuer account when the larger set needs more space.
func (e *Engine) AddAuthority(call Call, issuerAddr, principal common.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	issuer, account, err := e.loadIssuer(issuerAddr)
	if err != nil {
		return err
	}
	if err := authorize(call, issuer); err != nil {
		return err
	}
	if principal == (common.Address{}) {
		return fmt.Errorf("%w: zero principal", ErrUnauthorized)
	}
	if err := issuer.Authorities.Add(principal); err != nil {
		return err
	}
	space, err := issuer.Size()
	if err != nil {
		return err
	}
	before := account.Space
	if err := nativecommon.Realloc(e.state, e.rent, issuerAddr, account, e.params.Namespace, space, call.FeePayer); err != nil {
		return err
	}
	if err := issuer.Validate(); err != nil {
		return err
	}
	if err := e.writeRecord(issuerAddr, account, issuer); err != nil {
		return err
	}
	e.grew(kindIssuer, before, account.Space)
	e.emit(events.AuthorityChanged{Issuer: issuerAddr, Principal: principal, Count: issuer.Authorities.Len()})
	return nil
}

// RemoveAuthority removes principal from the issuer's authority set. The
// issuer account keeps its space.
func (e *Engine) RemoveAuthority(call Call, issuerAddr, principal common.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	issuer, account, err := e.loadIssuer(issuerAddr)
	if err != nil {
		return err
	}
	if err := authorize(call, issuer); err != nil {
		return err
	}
	if err := issuer.Authorities.Remove(principal); err != nil {
		return err
	}
	if err := issuer.Validate(); err != nil {
		return err
	}
	if err := e.writeRecord(issuerAddr, account, issuer); err != nil {
		return err
	}
	e.emit(events.AuthorityChanged{Issuer: issuerAddr, Principal: principal, Count: issuer.Authorities.Len(), Removed: true})
	return nil
}

// RemoveIssuer closes the issuer, its bound asset and its collection. Only
// the unit held by the issuer itself may be outstanding and the collection
// must be empty. The reserve is refunded to the issuer's fee payer.
func (e *Engine) RemoveIssuer(call Call, issuerAddr common.Address) error {
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
	assetAddr := issuer.Minting.Asset
	asset, err := e.state.Asset(assetAddr)
	if err != nil {
		return err
	}
	if asset == nil {
		return fmt.Errorf("%w: %s", ErrInvalidAsset, assetAddr.Hex())
	}
	if asset.MintAuthority != issuerAddr {
		return ErrInvalidAsset
	}
	holding := bank.HoldingAddress(issuerAddr, assetAddr)
	held, err := bank.Balance(e.state, holding)
	if err != nil {
		return err
	}
	if asset.Supply != held {
		return fmt.Errorf("%w: %d circulating", ErrCannotRemoveNonZeroSupply, asset.Supply-held)
	}
	group, err := e.collections.Collection(issuer.Collection)
	if err != nil {
		return err
	}
	if group != nil && group.Size != 0 {
		return fmt.Errorf("%w: %d members", ErrCannotRemoveNonZeroSupply, group.Size)
	}

	if held > 0 {
		if err := bank.Burn(e.state, assetAddr, issuerAddr, holding, held); err != nil {
			return err
		}
	}
	if err := bank.CloseHolding(e.state, holding); err != nil {
		return err
	}
	if err := bank.CloseAsset(e.state, assetAddr, issuerAddr); err != nil {
		return err
	}
	if err := e.metadata.Clear(assetAddr); err != nil {
		return err
	}
	if group != nil {
		if err := e.collections.Close(issuer.Collection, issuerAddr); err != nil {
			return err
		}
	}
	refunded, err := e.closeRecord(issuerAddr, kindIssuer, issuer.FeePayer)
	if err != nil {
		return err
	}
	e.emit(events.IssuerRemoved{Issuer: issuerAddr, Asset: assetAddr, Refunded: refunded})
	return nil
}
