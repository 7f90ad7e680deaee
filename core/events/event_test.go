package events

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

type recorder struct{ got []Event }

func (r *recorder) Emit(evt Event) { r.got = append(r.got, evt) }

func TestBufferFlushPreservesOrder(t *testing.T) {
	buf := NewBuffer()
	buf.Emit(PaymentPrepared{Amount: 1})
	buf.Emit(nil)
	buf.Emit(ReceiptRedeemed{Kind: "user"})

	var dst recorder
	if n := buf.Flush(&dst); n != 2 {
		t.Fatalf("expected 2 flushed events, got %d", n)
	}
	if dst.got[0].EventType() != TypePaymentPrepared || dst.got[1].EventType() != TypeReceiptRedeemed {
		t.Fatalf("unexpected order: %v", dst.got)
	}
	if len(buf.Events()) != 0 {
		t.Fatalf("buffer not drained")
	}
}

func TestAuthorityChangedType(t *testing.T) {
	issuer := common.HexToAddress("0x01")
	added := AuthorityChanged{Issuer: issuer, Count: 2}
	removed := AuthorityChanged{Issuer: issuer, Count: 1, Removed: true}
	if added.EventType() != TypeAuthorityAdded || removed.EventType() != TypeAuthorityRemoved {
		t.Fatalf("unexpected event types %q %q", added.EventType(), removed.EventType())
	}
	if got := removed.Event().Attributes["count"]; got != "1" {
		t.Fatalf("unexpected count attribute %q", got)
	}
}

func TestFanoutSkipsNil(t *testing.T) {
	var a, b recorder
	Fanout{&a, nil, &b}.Emit(MembershipRetired{})
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Fatalf("fanout did not reach every emitter")
	}
}
