package session

import apperrors "qrpay/internal/errors"

var (
	ErrNotMerchant = apperrors.Validation("only a merchant can perform this operation")
	ErrNotScanned  = apperrors.InvalidState("session has not been scanned")
	ErrNotPayable  = apperrors.InvalidState("session is not in a payable state")
)

// Session code shape: QRP- followed by nine characters from a URL-safe
// alphabet. Human-shareable and embedded in the QR payload.
const (
	codePrefix   = "QRP-"
	codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	codeLength   = 9
)
