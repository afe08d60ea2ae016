package errors

var (
	ErrSessionNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "payment session not found",
	}
	ErrSessionExpired = &DomainError{
		Code:    CodeInvalidState,
		Message: "payment session has expired",
	}
	ErrSessionCompleted = &DomainError{
		Code:    CodeInvalidState,
		Message: "payment session is already completed",
	}
	ErrScannedByOther = &DomainError{
		Code:    CodeConflict,
		Message: "session already scanned by another customer",
	}
	ErrTransactionNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "payment transaction not found",
	}
	ErrOfferNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "bank offer not found",
	}
	ErrOfferNotEligible = &DomainError{
		Code:    CodeValidation,
		Message: "bank offer is not eligible",
	}
	ErrOfferExhausted = &DomainError{
		Code:    CodeConflict,
		Message: "bank offer claim limit reached",
	}
	ErrInvalidSignature = &DomainError{
		Code:    CodeSignature,
		Message: "webhook signature verification failed",
	}
)
