package passes

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"passmint/core/events"
	"passmint/core/types"
	"passmint/native/bank"
)

// PreparePayment moves args.Amount of args.Asset from the authority's
// holding to the receiver's holding and writes the receipt proving it. The
// call's fee payer funds the receipt reserve and gets it back on redemption.
func (e *Engine) PreparePayment(call Call, args PreparePaymentArgs) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if args.Amount == 0 {
		return nil, ErrInvalidAmount
	}
	if args.Kind > ReceiptCommunity {
		return nil, ErrInvalidReceiptKind
	}
	sender := call.Authority
	addr := ReceiptAddress(e.params.Namespace, sender, args.Receiver, args.Asset)
	existing, err := e.state.Account(addr)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrReceiptExists, addr.Hex())
	}
	decimals, err := e.assetDecimals(args.Asset)
	if err != nil {
		return nil, err
	}
	senderHolding := bank.HoldingAddress(sender, args.Asset)
	receiverHolding, err := bank.OpenHolding(e.state, args.Receiver, args.Asset)
	if err != nil {
		return nil, err
	}
	if err := bank.Transfer(e.state, args.Asset, senderHolding, receiverHolding.Address, args.Amount, decimals); err != nil {
		return nil, err
	}
	receipt := &Receipt{
		Kind:            args.Kind,
		CreatedAt:       types.Timestamp(e.now()),
		Amount:          args.Amount,
		Sender:          sender,
		Receiver:        args.Receiver,
		SenderHolding:   senderHolding,
		ReceiverHolding: receiverHolding.Address,
		Asset:           args.Asset,
		FeePayer:        call.payer(),
	}
	if _, err := e.createRecord(addr, kindReceipt, ReceiptSize, receipt.FeePayer, receipt); err != nil {
		return nil, err
	}
	receipt.Address = addr
	e.emit(events.PaymentPrepared{
		Receipt:  addr,
		Kind:     receipt.Kind.String(),
		Sender:   sender,
		Receiver: args.Receiver,
		Asset:    args.Asset,
		Amount:   args.Amount,
	})
	return receipt, nil
}

// redemption names what a receipt must prove for one redemption path.
type redemption struct {
	kind     ReceiptKind
	sender   common.Address
	redeemer common.Address
	asset    common.Address
	amount   uint64
}

// match loads the receipt for r and checks every binding before the caller
// performs any side effect.
func (e *Engine) match(r redemption) (*Receipt, error) {
	addr := ReceiptAddress(e.params.Namespace, r.sender, r.redeemer, r.asset)
	receipt, err := e.loadReceipt(addr)
	if err != nil {
		return nil, err
	}
	if receipt.Kind != r.kind {
		return nil, fmt.Errorf("%w: have %s, need %s", ErrInvalidReceiptKind, receipt.Kind, r.kind)
	}
	if receipt.Receiver != r.redeemer || receipt.Sender != r.sender {
		return nil, ErrReceiptPartyMismatch
	}
	if receipt.ReceiverHolding != bank.HoldingAddress(r.redeemer, r.asset) {
		return nil, ErrInvalidAuthorityHolding
	}
	if receipt.Asset != r.asset {
		return nil, ErrReceiptAssetMismatch
	}
	if receipt.Amount != r.amount {
		return nil, fmt.Errorf("%w: %d != %d", ErrReceiptAmountMismatch, receipt.Amount, r.amount)
	}
	return receipt, nil
}

// consume destroys the receipt and refunds its reserve to the principal that
// funded it.
func (e *Engine) consume(receipt *Receipt, redeemer common.Address) error {
	refunded, err := e.closeRecord(receipt.Address, kindReceipt, receipt.FeePayer)
	if err != nil {
		return err
	}
	e.telemetry.ObserveReceiptRedeemed(receipt.Kind.String())
	e.emit(events.ReceiptRedeemed{
		Receipt:  receipt.Address,
		Kind:     receipt.Kind.String(),
		Redeemer: redeemer,
		Refunded: refunded,
	})
	return nil
}
