package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON           = "INVALID_JSON"
	ErrCodeValidation            = "VALIDATION_FAILED"
	ErrCodeMissingIdentity       = "MISSING_IDENTITY"
	ErrCodeInvalidCampaign       = "INVALID_CAMPAIGN"
	ErrCodeExpiredCampaign       = "EXPIRED_CAMPAIGN"
	ErrCodeCampaignNotOpen       = "CAMPAIGN_NOT_OPEN"
	ErrCodeCampaignExhausted     = "CAMPAIGN_EXHAUSTED"
	ErrCodeInvalidClaimant       = "INVALID_CLAIMANT"
	ErrCodeInvalidAmount         = "INVALID_AMOUNT"
	ErrCodeInvalidCurrency       = "INVALID_CURRENCY"
	ErrCodeInvalidCampaignWindow = "INVALID_CAMPAIGN_WINDOW"
	ErrCodeInvalidBrand          = "INVALID_BRAND"
	ErrCodeInvalidMaxIssued      = "INVALID_MAX_ISSUED"
	ErrCodeInvalidNumIssued      = "INVALID_NUM_ISSUED"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// DomainError is a business-logic failure with a stable code.
//
// A DomainError may refine a broader kind; errors.Is reports true for
// both the error itself and the kind it refines.
type DomainError struct {
	Code    string
	Message string
	kind    *DomainError
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is the kind this error refines.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	for k := e.kind; k != nil; k = k.kind {
		if k == t {
			return true
		}
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

func refine(kind *DomainError, code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, kind: kind}
}

// Common domain errors
var (
	ErrInvalidCampaign = NewDomainError(ErrCodeInvalidCampaign, "Invalid campaign")
	ErrExpiredCampaign = NewDomainError(ErrCodeExpiredCampaign, "Expired campaign")
	ErrInvalidClaimant = NewDomainError(ErrCodeInvalidClaimant, "Claimant identity must not be empty")

	// ErrCampaignNotOpen and ErrCampaignExhausted both satisfy
	// errors.Is(err, ErrExpiredCampaign).
	ErrCampaignNotOpen   = refine(ErrExpiredCampaign, ErrCodeCampaignNotOpen, "Campaign is outside its issuance window")
	ErrCampaignExhausted = refine(ErrExpiredCampaign, ErrCodeCampaignExhausted, "Campaign has issued all of its vouchers")

	ErrInvalidAmount         = NewDomainError(ErrCodeInvalidAmount, "Amount must be greater than zero")
	ErrInvalidCurrency       = NewDomainError(ErrCodeInvalidCurrency, "Currency must be one of USD, EUR, GBP, SEK")
	ErrInvalidCampaignWindow = NewDomainError(ErrCodeInvalidCampaignWindow, "Campaign must satisfy campaign_begins < campaign_ends < voucher_expires")
	ErrInvalidBrand          = NewDomainError(ErrCodeInvalidBrand, "Brand must not be empty")
	ErrInvalidMaxIssued      = NewDomainError(ErrCodeInvalidMaxIssued, "max_issued must be greater than zero")
	ErrInvalidNumIssued      = NewDomainError(ErrCodeInvalidNumIssued, "num_issued must be between zero and max_issued")
)
