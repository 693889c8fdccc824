package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/arvendel/marketauth/role"
)

// VendorStatus is the lifecycle state of a vendor-onboarding request.
// A rejected request is never persisted: rejection clears the record so the
// principal can submit again.
type VendorStatus string

const (
	VendorPending  VendorStatus = "pending"
	VendorApproved VendorStatus = "approved"
)

// BusinessInfo carries the vendor application payload. TaxID is optional.
type BusinessInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	TaxID       string `json:"tax_id,omitempty"`
}

// VendorRequest is the single onboarding record a principal may hold.
type VendorRequest struct {
	Status        VendorStatus `json:"status"`
	RequestNumber int64        `json:"request_number"`
	BusinessInfo  BusinessInfo `json:"business_info"`
	RequestDate   int64        `json:"request_date"`
	ApprovalDate  int64        `json:"approval_date,omitempty"`
}

// OTPChallenge is the single outstanding one-time passcode for a principal.
type OTPChallenge struct {
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expires_at"`
}

// ResetChallenge mirrors the challenge id embedded in an outstanding signed
// reset token. Clearing it revokes the token before its signature expires.
type ResetChallenge struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// Principal is the persisted account record.
type Principal struct {
	ID           string            `json:"id"`
	Email        string            `json:"email,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Name         string            `json:"name,omitempty"`
	AvatarURL    string            `json:"avatar_url,omitempty"`
	PasswordHash string            `json:"password_hash"`
	Role         role.Role         `json:"role"`
	Federated    bool              `json:"federated,omitempty"`
	Providers    map[string]string `json:"providers,omitempty"`
	OTP          *OTPChallenge     `json:"otp,omitempty"`
	Reset        *ResetChallenge   `json:"reset,omitempty"`
	Vendor       *VendorRequest    `json:"vendor,omitempty"`
	CreatedAt    int64             `json:"created_at"`
	UpdatedAt    int64             `json:"updated_at"`
}

// Clone returns a deep copy so mutate callbacks never alias a decoded record.
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	out := *p
	if p.Providers != nil {
		out.Providers = make(map[string]string, len(p.Providers))
		for k, v := range p.Providers {
			out.Providers[k] = v
		}
	}
	if p.OTP != nil {
		otp := *p.OTP
		out.OTP = &otp
	}
	if p.Reset != nil {
		rst := *p.Reset
		out.Reset = &rst
	}
	if p.Vendor != nil {
		v := *p.Vendor
		out.Vendor = &v
	}
	return &out
}

// HasIdentity reports whether at least one contact identity is present.
func (p *Principal) HasIdentity() bool {
	return p.Email != "" || p.Phone != ""
}

// Contact returns the preferred notification recipient.
func (p *Principal) Contact() string {
	if p.Email != "" {
		return p.Email
	}
	return p.Phone
}

// VendorStatusOrNone returns the current request status, or "none" when no
// record exists.
func (p *Principal) VendorStatusOrNone() string {
	if p.Vendor == nil {
		return "none"
	}
	return string(p.Vendor.Status)
}

func encodePrincipal(p *Principal) ([]byte, error) {
	if p == nil || p.ID == "" {
		return nil, errors.New("principal id required")
	}
	if !p.HasIdentity() {
		return nil, errors.New("principal identity required")
	}
	return json.Marshal(p)
}

func decodePrincipal(data []byte) (*Principal, error) {
	var p Principal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, errors.New("invalid principal record")
	}
	return &p, nil
}

func nowUnix() int64 {
	return time.Now().Unix()
}
