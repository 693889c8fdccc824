package marketauth

import "errors"

var (
	// ErrEngineNotReady is an exported constant or variable used by the identity engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrInvalidCredentials is an exported constant or variable used by the identity engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPrincipalNotFound is an exported constant or variable used by the identity engine.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrDuplicateIdentity is an exported constant or variable used by the identity engine.
	ErrDuplicateIdentity = errors.New("email or phone already registered")
	// ErrIdentityRequired is an exported constant or variable used by the identity engine.
	ErrIdentityRequired = errors.New("email or phone required")
	// ErrPasswordPolicy is an exported constant or variable used by the identity engine.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrLoginRateLimited is an exported constant or variable used by the identity engine.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrOTPRateLimited is an exported constant or variable used by the identity engine.
	ErrOTPRateLimited = errors.New("otp send rate limited")
	// ErrResetRateLimited is an exported constant or variable used by the identity engine.
	ErrResetRateLimited = errors.New("password reset rate limited")
	// ErrSuperadminSecret is an exported constant or variable used by the identity engine.
	ErrSuperadminSecret = errors.New("superadmin secret mismatch")
	// ErrNoChallenge is an exported constant or variable used by the identity engine.
	ErrNoChallenge = errors.New("no active challenge")
	// ErrOTPMismatch is an exported constant or variable used by the identity engine.
	ErrOTPMismatch = errors.New("otp code mismatch")
	// ErrOTPExpired is an exported constant or variable used by the identity engine.
	ErrOTPExpired = errors.New("otp code expired")
	// ErrResetInvalid is an exported constant or variable used by the identity engine.
	ErrResetInvalid = errors.New("password reset token invalid")
	// ErrResetExpired is an exported constant or variable used by the identity engine.
	ErrResetExpired = errors.New("password reset token expired")
	// ErrTokenInvalid is an exported constant or variable used by the identity engine.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired is an exported constant or variable used by the identity engine.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenWrongPurpose is an exported constant or variable used by the identity engine.
	ErrTokenWrongPurpose = errors.New("token used for wrong purpose")
	// ErrOAuthFailed is an exported constant or variable used by the identity engine.
	ErrOAuthFailed = errors.New("oauth authentication failed")
	// ErrRedirectNotAllowed is an exported constant or variable used by the identity engine.
	ErrRedirectNotAllowed = errors.New("redirect uri not allowed")
	// ErrUnknownProvider is an exported constant or variable used by the identity engine.
	ErrUnknownProvider = errors.New("unknown oauth provider")
	// ErrRoleInvalid is an exported constant or variable used by the identity engine.
	ErrRoleInvalid = errors.New("invalid role")
	// ErrRoleForbidden is an exported constant or variable used by the identity engine.
	ErrRoleForbidden = errors.New("role change forbidden")
	// ErrFederatedSuperadmin is an exported constant or variable used by the identity engine.
	ErrFederatedSuperadmin = errors.New("federated accounts cannot hold superadmin")
	// ErrVendorConflict is an exported constant or variable used by the identity engine.
	ErrVendorConflict = errors.New("vendor request conflict")
	// ErrAlreadyVendor is an exported constant or variable used by the identity engine.
	ErrAlreadyVendor = errors.New("principal is already a vendor")
	// ErrNoVendorRequest is an exported constant or variable used by the identity engine.
	ErrNoVendorRequest = errors.New("no pending vendor request")
	// ErrBusinessInfoIncomplete is an exported constant or variable used by the identity engine.
	ErrBusinessInfoIncomplete = errors.New("incomplete business info")
	// ErrVendorStatusInvalid is an exported constant or variable used by the identity engine.
	ErrVendorStatusInvalid = errors.New("invalid vendor status filter")
	// ErrRejectionReasonRequired is an exported constant or variable used by the identity engine.
	ErrRejectionReasonRequired = errors.New("rejection reason required")
	// ErrStoreUnavailable is an exported constant or variable used by the identity engine.
	ErrStoreUnavailable = errors.New("identity store unavailable")
)
