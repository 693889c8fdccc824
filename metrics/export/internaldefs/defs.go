package internaldefs

import (
	marketauth "github.com/arvendel/marketauth"
)

// CounterDef defines a public type used by marketauth APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   marketauth.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the identity engine.
var CounterDefs = []CounterDef{
	{ID: marketauth.MetricRegisterSuccess, Name: "marketauth_register_success_total", Help: "Successful registrations."},
	{ID: marketauth.MetricRegisterDuplicate, Name: "marketauth_register_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: marketauth.MetricLoginSuccess, Name: "marketauth_login_success_total", Help: "Successful password logins."},
	{ID: marketauth.MetricLoginFailure, Name: "marketauth_login_failure_total", Help: "Failed password logins."},
	{ID: marketauth.MetricLoginRateLimited, Name: "marketauth_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: marketauth.MetricSuperadminSecretRejected, Name: "marketauth_superadmin_secret_rejected_total", Help: "Superadmin logins rejected by secret mismatch."},
	{ID: marketauth.MetricOTPSent, Name: "marketauth_otp_sent_total", Help: "One-time passcodes issued."},
	{ID: marketauth.MetricOTPVerifySuccess, Name: "marketauth_otp_verify_success_total", Help: "Successful OTP verifications."},
	{ID: marketauth.MetricOTPVerifyFailure, Name: "marketauth_otp_verify_failure_total", Help: "Failed OTP verifications."},
	{ID: marketauth.MetricOTPRateLimited, Name: "marketauth_otp_rate_limited_total", Help: "Rate-limited OTP sends."},
	{ID: marketauth.MetricOAuthSuccess, Name: "marketauth_oauth_success_total", Help: "Successful federated logins."},
	{ID: marketauth.MetricOAuthFailure, Name: "marketauth_oauth_failure_total", Help: "Failed federated logins."},
	{ID: marketauth.MetricOAuthAccountCreated, Name: "marketauth_oauth_account_created_total", Help: "Accounts created from federated logins."},
	{ID: marketauth.MetricResetRequest, Name: "marketauth_reset_request_total", Help: "Password reset requests."},
	{ID: marketauth.MetricResetSuccess, Name: "marketauth_reset_success_total", Help: "Successful password resets."},
	{ID: marketauth.MetricResetFailure, Name: "marketauth_reset_failure_total", Help: "Failed password reset attempts."},
	{ID: marketauth.MetricResetRateLimited, Name: "marketauth_reset_rate_limited_total", Help: "Rate-limited reset requests."},
	{ID: marketauth.MetricVendorRequestSubmitted, Name: "marketauth_vendor_request_submitted_total", Help: "Vendor onboarding requests submitted."},
	{ID: marketauth.MetricVendorRequestApproved, Name: "marketauth_vendor_request_approved_total", Help: "Vendor onboarding requests approved."},
	{ID: marketauth.MetricVendorRequestRejected, Name: "marketauth_vendor_request_rejected_total", Help: "Vendor onboarding requests rejected."},
	{ID: marketauth.MetricVendorPromoted, Name: "marketauth_vendor_promoted_total", Help: "Direct vendor promotions."},
	{ID: marketauth.MetricRoleChanged, Name: "marketauth_role_changed_total", Help: "Role changes applied."},
	{ID: marketauth.MetricRoleChangeForbidden, Name: "marketauth_role_change_forbidden_total", Help: "Role changes rejected by hierarchy rules."},
	{ID: marketauth.MetricTokenValidateSuccess, Name: "marketauth_token_validate_success_total", Help: "Successful session validations."},
	{ID: marketauth.MetricTokenValidateFailure, Name: "marketauth_token_validate_failure_total", Help: "Failed session validations."},
}
