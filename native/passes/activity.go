package passes

import (
	"fmt"
	"math"

	"passmint/core/events"
	"passmint/core/types"
	nativecommon "passmint/native/common"
)

// CreateActivity opens an empty activity ledger for a member of the issuer's
// collection. The start date defaults to now and the end date to the start
// plus the configured number of days.
func (e *Engine) CreateActivity(call Call, args CreateActivityArgs) (*ActivityLedger, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	issuer, _, err := e.loadIssuer(args.Issuer)
	if err != nil {
		return nil, err
	}
	if err := authorize(call, issuer); err != nil {
		return nil, err
	}
	member, err := e.member(issuer, args.MemberAsset)
	if err != nil {
		return nil, err
	}
	if err := validateLabel(args.Label); err != nil {
		return nil, err
	}
	start := e.now()
	if args.StartDate != nil {
		start = *args.StartDate
	}
	var end int64
	if args.EndDate != nil {
		end = *args.EndDate
	} else {
		delta := int64(e.params.DefaultActivityDays) * SecondsPerDay
		if start > math.MaxInt64-delta {
			return nil, ErrExpiryOverflow
		}
		end = start + delta
	}

	addr := ActivityAddress(e.params.Namespace, args.MemberAsset, args.Label)
	ledger := &ActivityLedger{
		Issuer:    args.Issuer,
		Asset:     args.MemberAsset,
		Member:    member.Address,
		FeePayer:  call.FeePayer,
		Label:     args.Label,
		StartDate: types.Timestamp(start),
		EndDate:   types.Timestamp(end),
	}
	if err := ledger.Validate(); err != nil {
		return nil, err
	}
	space, err := ledger.Size()
	if err != nil {
		return nil, err
	}
	if _, err := e.createRecord(addr, kindActivity, space, call.FeePayer, ledger); err != nil {
		return nil, err
	}
	ledger.Address = addr
	e.emit(events.ActivityCreated{
		Activity:  addr,
		Issuer:    args.Issuer,
		Asset:     args.MemberAsset,
		Label:     args.Label,
		StartDate: start,
		EndDate:   end,
	})
	return ledger, nil
}

// AppendActivityEntry pushes one entry onto a ledger and grows the ledger
// account to fit it. The fee payer funds any reserve shortfall.
func (e *Engine) AppendActivityEntry(call Call, args AppendActivityEntryArgs) (*ActivityLedger, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	ledger, account, err := e.loadActivity(args.Activity)
	if err != nil {
		return nil, err
	}
	issuer, _, err := e.loadIssuer(ledger.Issuer)
	if err != nil {
		return nil, err
	}
	if err := authorize(call, issuer); err != nil {
		return nil, err
	}
	entry := Entry{
		Timestamp: types.Timestamp(e.now()),
		Message:   args.Message,
		URL:       args.URL,
	}
	if args.Timestamp != nil {
		entry.Timestamp = types.Timestamp(*args.Timestamp)
	}
	if args.Points != nil {
		entry.Points = *args.Points
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if len(ledger.Entries) >= MaxActivityEntries {
		return nil, fmt.Errorf("%w: %d entries", ErrEntryLimitReached, len(ledger.Entries))
	}
	ledger.Entries = append(ledger.Entries, entry)

	space, err := ledger.Size()
	if err != nil {
		return nil, err
	}
	before := account.Space
	if err := nativecommon.Realloc(e.state, e.rent, args.Activity, account, e.params.Namespace, space, call.FeePayer); err != nil {
		return nil, err
	}
	if err := ledger.Validate(); err != nil {
		return nil, err
	}
	if err := e.writeRecord(args.Activity, account, ledger); err != nil {
		return nil, err
	}
	e.grew(kindActivity, before, account.Space)
	e.telemetry.ObserveActivityEntry()
	e.emit(events.ActivityEntryAppended{
		Activity: args.Activity,
		Index:    len(ledger.Entries) - 1,
		Points:   entry.Points,
		Space:    account.Space,
	})
	return ledger, nil
}
