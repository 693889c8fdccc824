package marketauth

import (
	"io"
	"time"

	"github.com/arvendel/marketauth/internal/notify"
	"github.com/arvendel/marketauth/internal/store"
	"github.com/arvendel/marketauth/role"
)

// VendorStatus defines a public type used by marketauth APIs.
//
// VendorStatus instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type VendorStatus string

const (
	// VendorNone is an exported constant or variable used by the identity engine.
	VendorNone VendorStatus = "none"
	// VendorPending is an exported constant or variable used by the identity engine.
	VendorPending VendorStatus = "pending"
	// VendorApproved is an exported constant or variable used by the identity engine.
	VendorApproved VendorStatus = "approved"
)

// BusinessInfo defines a public type used by marketauth APIs.
//
// BusinessInfo instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type BusinessInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	TaxID       string `json:"tax_id,omitempty"`
}

// VendorRequest defines a public type used by marketauth APIs.
//
// VendorRequest instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type VendorRequest struct {
	PrincipalID   string       `json:"principal_id"`
	Status        VendorStatus `json:"status"`
	RequestNumber int64        `json:"request_number"`
	BusinessInfo  BusinessInfo `json:"business_info"`
	RequestDate   time.Time    `json:"request_date"`
	ApprovalDate  time.Time    `json:"approval_date,omitzero"`
}

// Principal is the public view of an account record. Credential material
// and pending challenges never cross this boundary.
type Principal struct {
	ID        string       `json:"id"`
	Email     string       `json:"email,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	Name      string       `json:"name,omitempty"`
	AvatarURL string       `json:"avatar_url,omitempty"`
	Role      role.Role    `json:"role"`
	Federated bool         `json:"federated"`
	Vendor    VendorStatus `json:"vendor_status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// AuthResult is returned by login, registration with auto-login, federated
// login, and [Engine.Validate]. Token is empty when no session was issued.
type AuthResult struct {
	Principal Principal `json:"principal"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// RegisterInput defines a public type used by marketauth APIs.
//
// RegisterInput instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RegisterInput struct {
	Email    string
	Phone    string
	Name     string
	Password string
}

// LoginInput defines a public type used by marketauth APIs.
//
// LoginInput instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LoginInput struct {
	// Identifier is an email address or phone number.
	Identifier string
	Password   string
	// SuperadminSecret must be supplied when the account holds superadmin.
	SuperadminSecret string
	// IP feeds the per-IP login throttle when set.
	IP string
}

// OAuthInput defines a public type used by marketauth APIs.
//
// OAuthInput instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OAuthInput struct {
	Provider    string
	Code        string
	RedirectURI string
}

/*
====================================
NOTIFICATIONS
====================================
*/

// NotifySink is the interface callers implement to receive outbound
// notifications (mail, SMS, webhook). Delivery is asynchronous and best
// effort.
type NotifySink = notify.Sink

// NotifyEvent is a single outbound notification event.
type NotifyEvent = notify.Event

// NewJSONNotifySink returns a sink that writes one JSON object per event
// line to w. Useful for log-shipping setups and local development.
func NewJSONNotifySink(w io.Writer) NotifySink {
	return notify.NewJSONWriterSink(w)
}

// NewChannelNotifySink returns a sink backed by a buffered channel, exposed
// through its Events method. Intended for tests and in-process consumers.
func NewChannelNotifySink(buffer int) *notify.ChannelSink {
	return notify.NewChannelSink(buffer)
}

const (
	// TemplateWelcome is an exported constant or variable used by the identity engine.
	TemplateWelcome = "welcome"
	// TemplateOTPCode is an exported constant or variable used by the identity engine.
	TemplateOTPCode = "otp_code"
	// TemplateResetLink is an exported constant or variable used by the identity engine.
	TemplateResetLink = "reset_link"
	// TemplatePasswordChanged is an exported constant or variable used by the identity engine.
	TemplatePasswordChanged = "password_changed"
	// TemplateVendorRequestReceived is an exported constant or variable used by the identity engine.
	TemplateVendorRequestReceived = "vendor_request_received"
	// TemplateVendorRequestPending is an exported constant or variable used by the identity engine.
	TemplateVendorRequestPending = "vendor_request_pending"
	// TemplateVendorApproved is an exported constant or variable used by the identity engine.
	TemplateVendorApproved = "vendor_request_approved"
	// TemplateVendorRejected is an exported constant or variable used by the identity engine.
	TemplateVendorRejected = "vendor_request_rejected"
	// TemplateRoleChanged is an exported constant or variable used by the identity engine.
	TemplateRoleChanged = "role_changed"
)

/*
====================================
RECORD CONVERSIONS
====================================
*/

func principalView(p *store.Principal) Principal {
	return Principal{
		ID:        p.ID,
		Email:     p.Email,
		Phone:     p.Phone,
		Name:      p.Name,
		AvatarURL: p.AvatarURL,
		Role:      p.Role,
		Federated: p.Federated,
		Vendor:    vendorStatusView(p),
		CreatedAt: time.Unix(p.CreatedAt, 0).UTC(),
		UpdatedAt: time.Unix(p.UpdatedAt, 0).UTC(),
	}
}

func vendorStatusView(p *store.Principal) VendorStatus {
	if p.Vendor == nil {
		return VendorNone
	}
	switch p.Vendor.Status {
	case store.VendorPending:
		return VendorPending
	case store.VendorApproved:
		return VendorApproved
	default:
		return VendorNone
	}
}

func vendorRequestView(p *store.Principal) VendorRequest {
	req := VendorRequest{
		PrincipalID: p.ID,
		Status:      vendorStatusView(p),
	}
	if p.Vendor == nil {
		return req
	}
	req.RequestNumber = p.Vendor.RequestNumber
	req.BusinessInfo = BusinessInfo{
		Name:        p.Vendor.BusinessInfo.Name,
		Description: p.Vendor.BusinessInfo.Description,
		Phone:       p.Vendor.BusinessInfo.Phone,
		Address:     p.Vendor.BusinessInfo.Address,
		TaxID:       p.Vendor.BusinessInfo.TaxID,
	}
	if p.Vendor.RequestDate > 0 {
		req.RequestDate = time.Unix(p.Vendor.RequestDate, 0).UTC()
	}
	if p.Vendor.ApprovalDate > 0 {
		req.ApprovalDate = time.Unix(p.Vendor.ApprovalDate, 0).UTC()
	}
	return req
}

func businessRecord(b BusinessInfo) store.BusinessInfo {
	return store.BusinessInfo{
		Name:        b.Name,
		Description: b.Description,
		Phone:       b.Phone,
		Address:     b.Address,
		TaxID:       b.TaxID,
	}
}
