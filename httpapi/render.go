package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	marketauth "github.com/arvendel/marketauth"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError translates engine sentinels into HTTP statuses. The response
// body carries the sentinel message only, never wrapped detail.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: unwrapSentinel(err).Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, marketauth.ErrIdentityRequired),
		errors.Is(err, marketauth.ErrPasswordPolicy),
		errors.Is(err, marketauth.ErrBusinessInfoIncomplete),
		errors.Is(err, marketauth.ErrRejectionReasonRequired),
		errors.Is(err, marketauth.ErrVendorStatusInvalid),
		errors.Is(err, marketauth.ErrRoleInvalid),
		errors.Is(err, marketauth.ErrRedirectNotAllowed),
		errors.Is(err, marketauth.ErrUnknownProvider):
		return http.StatusBadRequest
	case errors.Is(err, marketauth.ErrInvalidCredentials),
		errors.Is(err, marketauth.ErrSuperadminSecret),
		errors.Is(err, marketauth.ErrTokenInvalid),
		errors.Is(err, marketauth.ErrTokenExpired),
		errors.Is(err, marketauth.ErrTokenWrongPurpose),
		errors.Is(err, marketauth.ErrNoChallenge),
		errors.Is(err, marketauth.ErrOTPMismatch),
		errors.Is(err, marketauth.ErrOTPExpired),
		errors.Is(err, marketauth.ErrResetInvalid),
		errors.Is(err, marketauth.ErrResetExpired),
		errors.Is(err, marketauth.ErrOAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, marketauth.ErrRoleForbidden),
		errors.Is(err, marketauth.ErrFederatedSuperadmin):
		return http.StatusForbidden
	case errors.Is(err, marketauth.ErrPrincipalNotFound),
		errors.Is(err, marketauth.ErrNoVendorRequest):
		return http.StatusNotFound
	case errors.Is(err, marketauth.ErrDuplicateIdentity),
		errors.Is(err, marketauth.ErrVendorConflict),
		errors.Is(err, marketauth.ErrAlreadyVendor):
		return http.StatusConflict
	case errors.Is(err, marketauth.ErrLoginRateLimited),
		errors.Is(err, marketauth.ErrOTPRateLimited),
		errors.Is(err, marketauth.ErrResetRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, marketauth.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var sentinels = []error{
	marketauth.ErrIdentityRequired,
	marketauth.ErrPasswordPolicy,
	marketauth.ErrBusinessInfoIncomplete,
	marketauth.ErrRejectionReasonRequired,
	marketauth.ErrVendorStatusInvalid,
	marketauth.ErrRoleInvalid,
	marketauth.ErrRedirectNotAllowed,
	marketauth.ErrUnknownProvider,
	marketauth.ErrInvalidCredentials,
	marketauth.ErrSuperadminSecret,
	marketauth.ErrTokenInvalid,
	marketauth.ErrTokenExpired,
	marketauth.ErrTokenWrongPurpose,
	marketauth.ErrNoChallenge,
	marketauth.ErrOTPMismatch,
	marketauth.ErrOTPExpired,
	marketauth.ErrResetInvalid,
	marketauth.ErrResetExpired,
	marketauth.ErrOAuthFailed,
	marketauth.ErrRoleForbidden,
	marketauth.ErrFederatedSuperadmin,
	marketauth.ErrPrincipalNotFound,
	marketauth.ErrNoVendorRequest,
	marketauth.ErrDuplicateIdentity,
	marketauth.ErrVendorConflict,
	marketauth.ErrAlreadyVendor,
	marketauth.ErrLoginRateLimited,
	marketauth.ErrOTPRateLimited,
	marketauth.ErrResetRateLimited,
	marketauth.ErrStoreUnavailable,
}

// unwrapSentinel reduces a wrapped error to its matching sentinel so
// internal annotations (redis addresses, key names) stay out of responses.
func unwrapSentinel(err error) error {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s
		}
	}
	return errors.New("internal error")
}
