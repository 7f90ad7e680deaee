package passes

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IsValidUsername reports whether name is between 3 and 50 bytes.
func IsValidUsername(name string) bool {
	return len(name) >= MinNameLength && len(name) <= MaxNameLength
}

// IsValidURL accepts absolute http(s) URLs with a dotted host name,
// localhost or a bracketed IPv6 literal. Empty labels and labels that start
// or end with a hyphen are rejected.
func IsValidURL(raw string) bool {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return false
	}
	if strings.Count(raw, "://") != 1 || strings.Contains(raw, ":///") || strings.Contains(raw, "..") {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || parsed.User != nil {
		return false
	}
	host := parsed.Hostname()
	if host == "localhost" {
		return true
	}
	if strings.HasPrefix(parsed.Host, "[") {
		return net.ParseIP(host) != nil
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
	}
	return true
}

// Validate runs the issuer checks in order and stops at the first failure.
func (i *Issuer) Validate() error {
	if !IsValidUsername(i.Name) {
		return fmt.Errorf("%w: %q must be %d-%d bytes", ErrInvalidName, i.Name, MinNameLength, MaxNameLength)
	}
	if len(i.Description) <= MinDescriptionLength || len(i.Description) > MaxDescriptionLength {
		return fmt.Errorf("%w: length %d not in (%d, %d]", ErrInvalidDescription, len(i.Description), MinDescriptionLength, MaxDescriptionLength)
	}
	if !IsValidURL(i.ImageURL) {
		return fmt.Errorf("%w: %q", ErrInvalidImageURL, i.ImageURL)
	}
	if len(i.ImageURL) < 1 || len(i.ImageURL) > MaxImageURLLength {
		return fmt.Errorf("%w: length %d exceeds %d", ErrInvalidImageURL, len(i.ImageURL), MaxImageURLLength)
	}
	if i.Authorities.Len() > MaxVectorSize {
		return fmt.Errorf("%w: %d authorities", ErrMaxSizeReached, i.Authorities.Len())
	}
	if err := i.Payment.Validate(); err != nil {
		return err
	}
	return i.Minting.Validate()
}

// Validate checks a payment policy.
func (p PaymentPolicy) Validate() error {
	if p.UnitPrice > 0 && p.PriceAsset == (common.Address{}) {
		return fmt.Errorf("%w: price asset required for a priced policy", ErrInvalidPaymentPolicy)
	}
	return nil
}

// Validate checks the nested policies; each keeps its own call site.
func (c MintingConfig) Validate() error {
	if c.Asset == (common.Address{}) {
		return fmt.Errorf("%w: bound asset required", ErrInvalidAsset)
	}
	if err := c.Application.Validate(); err != nil {
		return err
	}
	if err := c.Metadata.Validate(); err != nil {
		return err
	}
	if c.Interest != nil {
		if err := c.Interest.Validate(); err != nil {
			return err
		}
	}
	if c.TransferFee != nil {
		if err := c.TransferFee.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (a ApplicationPolicy) Validate() error {
	seen := make(map[IdentityProvider]struct{}, len(a.Identities))
	for _, id := range a.Identities {
		if _, ok := identityNames[id]; !ok {
			return fmt.Errorf("%w: unknown identity provider %d", ErrInvalidApplicationPolicy, uint8(id))
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate identity provider %s", ErrInvalidApplicationPolicy, id)
		}
		seen[id] = struct{}{}
	}
	if err := a.Payment.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidApplicationPolicy, err)
	}
	return nil
}

func (m MetadataPolicy) Validate() error {
	if len(m.Name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d bytes", ErrInvalidMetadataPolicy, MaxNameLength)
	}
	if len(m.Symbol) > MaxSymbolLength {
		return fmt.Errorf("%w: symbol exceeds %d bytes", ErrInvalidMetadataPolicy, MaxSymbolLength)
	}
	if len(m.URI) > MaxURILength {
		return fmt.Errorf("%w: uri exceeds %d bytes", ErrInvalidMetadataPolicy, MaxURILength)
	}
	if len(m.Pairs) > MaxVectorSize {
		return fmt.Errorf("%w: %d pairs", ErrMaxSizeReached, len(m.Pairs))
	}
	seen := make(map[string]struct{}, len(m.Pairs))
	for _, pair := range m.Pairs {
		if err := validateField(pair.Key, pair.Value); err != nil {
			return err
		}
		if _, dup := seen[pair.Key]; dup {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidMetadataPolicy, pair.Key)
		}
		seen[pair.Key] = struct{}{}
	}
	return nil
}

func validateField(key, value string) error {
	if strings.TrimSpace(key) == "" || len(key) > MaxMetadataFieldLength {
		return fmt.Errorf("%w: key %q must be 1-%d bytes", ErrInvalidMetadataPolicy, key, MaxMetadataFieldLength)
	}
	if len(value) > MaxMetadataFieldLength {
		return fmt.Errorf("%w: value for %q exceeds %d bytes", ErrInvalidMetadataPolicy, key, MaxMetadataFieldLength)
	}
	return nil
}

// Validate accepts every signed rate.
func (p InterestPolicy) Validate() error {
	return nil
}

func (p TransferFeePolicy) Validate() error {
	if p.BasisPoints > MaxBasisPoints {
		return fmt.Errorf("%w: %d basis points", ErrInvalidTransferFeePolicy, p.BasisPoints)
	}
	return nil
}

func validateLabel(label string) error {
	if strings.TrimSpace(label) == "" || len(label) > MaxLabelLength {
		return fmt.Errorf("%w: %q must be 1-%d bytes", ErrInvalidLabel, label, MaxLabelLength)
	}
	return nil
}

// Validate checks an entry against the field caps.
func (e Entry) Validate() error {
	if len(e.Message) > MaxEntryMessageLength {
		return fmt.Errorf("%w: exceeds %d bytes", ErrInvalidEntryMessage, MaxEntryMessageLength)
	}
	if e.URL != nil {
		if len(*e.URL) > MaxEntryURLLength || !IsValidURL(*e.URL) {
			return fmt.Errorf("%w: %q", ErrInvalidEntryURL, *e.URL)
		}
	}
	return nil
}

// Validate checks the ledger shape after an append.
func (l *ActivityLedger) Validate() error {
	if err := validateLabel(l.Label); err != nil {
		return err
	}
	if l.EndDate < l.StartDate {
		return ErrInvalidActivityDates
	}
	if len(l.Entries) > MaxActivityEntries {
		return fmt.Errorf("%w: %d entries", ErrEntryLimitReached, len(l.Entries))
	}
	return nil
}
