package passes

import nativecommon "passmint/native/common"

func newError(code uint32, name string, class nativecommon.Class, msg string) *nativecommon.Error {
	return nativecommon.NewError(code, name, class, msg)
}

const (
	authz      = nativecommon.ClassAuthorization
	validation = nativecommon.ClassValidation
	mismatch   = nativecommon.ClassState
)

var (
	ErrInvalidFeePayer            = newError(6100, "InvalidFeePayer", authz, "Invalid Fee payer")
	ErrUnauthorized               = newError(6101, "UnAuthorized", authz, "Account unauthorized to perform this action")
	ErrAuthorityAlreadyExists     = newError(6102, "AuthorityAlreadyExists", mismatch, "Authority already exists")
	ErrAuthorityNonExistent       = newError(6103, "AuthorityNonExistent", mismatch, "Authority does not exist")
	ErrCannotRemoveSoloAuthority  = newError(6104, "CannotRemoveSoloAuthority", mismatch, "Cannot remove last remaining authority")
	ErrInvalidIssuerHolding       = newError(6105, "InvalidIssuerHolding", mismatch, "Invalid issuer holding")
	ErrInvalidAuthorityHolding    = newError(6106, "InvalidAuthorityHolding", mismatch, "Invalid authority holding")
	ErrInvalidCollection          = newError(6107, "InvalidCollection", mismatch, "Invalid collection")
	ErrInvalidMember              = newError(6108, "InvalidMember", mismatch, "Invalid member")
	ErrInvalidCollectionAuthority = newError(6109, "InvalidCollectionAuthority", mismatch, "Collection is not managed by this issuer")
	ErrInvalidName                = newError(6110, "InvalidName", validation, "Invalid name")
	ErrInvalidDescription         = newError(6111, "InvalidDescription", validation, "Invalid description")
	ErrInvalidImageURL            = newError(6112, "InvalidImageURL", validation, "Invalid image url")
	ErrMaxSizeReached             = newError(6113, "MaxSizeReached", validation, "Array reached max size")
	ErrInvalidAsset               = newError(6114, "InvalidAsset", mismatch, "Invalid asset")
	ErrCannotRemoveNonZeroSupply  = newError(6115, "CannotRemoveNonZeroSupplyIssuer", mismatch, "Cannot remove issuer with outstanding supply")
	ErrReceiptNotFound            = newError(6116, "ReceiptNotFound", mismatch, "Receipt not found")
	ErrReceiptExists              = newError(6117, "ReceiptAlreadyExists", mismatch, "Receipt already exists")
	ErrInvalidReceiptKind         = newError(6118, "InvalidReceiptKind", mismatch, "Receipt kind does not match the redemption")
	ErrReceiptAmountMismatch      = newError(6119, "ReceiptAmountMismatch", mismatch, "Receipt amount does not match the policy price")
	ErrReceiptPartyMismatch       = newError(6120, "ReceiptPartyMismatch", mismatch, "Receipt parties do not match the redemption")
	ErrReceiptAssetMismatch       = newError(6121, "ReceiptAssetMismatch", mismatch, "Receipt asset does not match the policy asset")
	ErrIssuerNotFound             = newError(6122, "IssuerNotFound", mismatch, "Issuer not found")
	ErrActivityNotFound           = newError(6123, "ActivityNotFound", mismatch, "Activity not found")
	ErrInvalidLabel               = newError(6124, "InvalidLabel", validation, "Invalid activity label")
	ErrInvalidEntryMessage        = newError(6125, "InvalidEntryMessage", validation, "Invalid activity entry message")
	ErrInvalidEntryURL            = newError(6126, "InvalidEntryURL", validation, "Invalid activity entry url")
	ErrEntryLimitReached          = newError(6127, "EntryLimitReached", validation, "Activity ledger is full")
	ErrInvalidPaymentPolicy       = newError(6128, "InvalidPaymentPolicy", validation, "Invalid payment policy")
	ErrInvalidApplicationPolicy   = newError(6129, "InvalidApplicationPolicy", validation, "Invalid application policy")
	ErrInvalidMetadataPolicy      = newError(6130, "InvalidMetadataPolicy", validation, "Invalid metadata policy")
	ErrInvalidInterestPolicy      = newError(6131, "InvalidInterestPolicy", validation, "Invalid interest policy")
	ErrInvalidTransferFeePolicy   = newError(6132, "InvalidTransferFeePolicy", validation, "Invalid transfer fee policy")
	ErrInvalidAmount              = newError(6133, "InvalidAmount", validation, "Amount must be positive")
	ErrInvalidActivityDates       = newError(6134, "InvalidActivityDates", validation, "Activity end date precedes start date")
	ErrInvalidIssuerCreationMode  = newError(6135, "InvalidIssuerCreationMode", validation, "Unknown issuer creation mode")
	ErrAuthoritySetCorrupt        = newError(6136, "AuthoritySetCorrupt", mismatch, "Stored authority set is not strictly sorted")
	ErrExpiryOverflow             = newError(6137, "ExpiryOverflow", validation, "Expiry computation overflowed")
	ErrStateNotConfigured         = newError(6138, "StateNotConfigured", nativecommon.ClassUnknown, "Engine state not configured")
)
