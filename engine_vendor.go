package marketauth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/arvendel/marketauth/internal/store"
	"github.com/arvendel/marketauth/role"
)

// SubmitVendorRequest describes the submitvendorrequest operation and its observable behavior.
//
// SubmitVendorRequest may return an error when input validation, dependency calls, or security checks fail.
// SubmitVendorRequest does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SubmitVendorRequest(ctx context.Context, principalID string, info BusinessInfo) (*VendorRequest, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	// Tax id is the only optional field of the business profile.
	info.Name = strings.TrimSpace(info.Name)
	info.Description = strings.TrimSpace(info.Description)
	info.Phone = strings.TrimSpace(info.Phone)
	info.Address = strings.TrimSpace(info.Address)
	if info.Name == "" || info.Description == "" || info.Phone == "" || info.Address == "" {
		return nil, ErrBusinessInfoIncomplete
	}

	rec, err := e.store.GetByID(ctx, principalID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if err := vendorSubmitBlocked(rec); err != nil {
		return nil, err
	}

	// The counter hands out the number before the record write, so two
	// concurrent submitters can never share one. A number is abandoned only
	// when the write below loses its eligibility re-check.
	number, err := e.store.NextRequestNumber(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	now := e.nowTime().Unix()
	updated, err := e.store.Update(ctx, principalID, func(p *store.Principal) error {
		if err := vendorSubmitBlocked(p); err != nil {
			return err
		}
		p.Vendor = &store.VendorRequest{
			Status:        store.VendorPending,
			RequestNumber: number,
			BusinessInfo:  businessRecord(info),
			RequestDate:   now,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrVendorConflict) || errors.Is(err, ErrAlreadyVendor) {
			return nil, err
		}
		return nil, mapStoreErr(err)
	}

	e.metricInc(MetricVendorRequestSubmitted)
	e.notifySend(ctx, updated.Contact(), TemplateVendorRequestReceived, map[string]string{
		"request_number": strconv.FormatInt(number, 10),
	})
	e.notifySuperadmins(ctx, TemplateVendorRequestPending, map[string]string{
		"principal_id":   updated.ID,
		"business_name":  info.Name,
		"request_number": strconv.FormatInt(number, 10),
	})

	req := vendorRequestView(updated)
	return &req, nil
}

func vendorSubmitBlocked(p *store.Principal) error {
	if p.Role == role.Vendor {
		return ErrAlreadyVendor
	}
	if p.Vendor != nil {
		return fmt.Errorf("%w: request already %s", ErrVendorConflict, p.Vendor.Status)
	}
	return nil
}

// VendorRequestStatus describes the vendorrequeststatus operation and its observable behavior.
//
// VendorRequestStatus may return an error when input validation, dependency calls, or security checks fail.
// VendorRequestStatus does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VendorRequestStatus(ctx context.Context, principalID string) (*VendorRequest, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	rec, err := e.store.GetByID(ctx, principalID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	req := vendorRequestView(rec)
	return &req, nil
}

// ListVendorRequests describes the listvendorrequests operation and its observable behavior.
//
// ListVendorRequests may return an error when input validation, dependency calls, or security checks fail.
// ListVendorRequests does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ListVendorRequests(ctx context.Context, status VendorStatus) ([]VendorRequest, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	var storeStatus store.VendorStatus
	switch status {
	case VendorPending:
		storeStatus = store.VendorPending
	case VendorApproved:
		storeStatus = store.VendorApproved
	default:
		return nil, fmt.Errorf("%w: %q", ErrVendorStatusInvalid, status)
	}

	ids, err := e.store.VendorRequestIDs(ctx, storeStatus)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	out := make([]VendorRequest, 0, len(ids))
	for _, id := range ids {
		rec, err := e.store.GetByID(ctx, id)
		if err != nil {
			// Index member without a record. Skip, the set self-heals on
			// the next status transition.
			continue
		}
		out = append(out, vendorRequestView(rec))
	}
	return out, nil
}

// ApproveVendorRequest describes the approvevendorrequest operation and its observable behavior.
//
// ApproveVendorRequest may return an error when input validation, dependency calls, or security checks fail.
// ApproveVendorRequest does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ApproveVendorRequest(ctx context.Context, actorRole role.Role, principalID string) (*VendorRequest, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	// Approval promotes the requester, so only a superadmin may grant it.
	if actorRole != role.Superadmin {
		e.metricInc(MetricRoleChangeForbidden)
		return nil, ErrRoleForbidden
	}

	now := e.nowTime().Unix()
	updated, err := e.store.Update(ctx, principalID, func(p *store.Principal) error {
		if p.Vendor == nil {
			return ErrNoVendorRequest
		}
		if p.Vendor.Status != store.VendorPending {
			return fmt.Errorf("%w: request already %s", ErrVendorConflict, p.Vendor.Status)
		}
		p.Vendor.Status = store.VendorApproved
		p.Vendor.ApprovalDate = now
		p.Role = role.Vendor
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoVendorRequest) || errors.Is(err, ErrVendorConflict) {
			return nil, err
		}
		return nil, mapStoreErr(err)
	}

	e.metricInc(MetricVendorRequestApproved)
	e.notifySend(ctx, updated.Contact(), TemplateVendorApproved, map[string]string{
		"business_name": updated.Vendor.BusinessInfo.Name,
	})

	req := vendorRequestView(updated)
	return &req, nil
}

// RejectVendorRequest describes the rejectvendorrequest operation and its observable behavior.
//
// RejectVendorRequest may return an error when input validation, dependency calls, or security checks fail.
// RejectVendorRequest does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RejectVendorRequest(ctx context.Context, actorRole role.Role, principalID, reason string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if !actorRole.IsAdministrative() {
		return ErrRoleForbidden
	}
	if strings.TrimSpace(reason) == "" {
		return ErrRejectionReasonRequired
	}

	updated, err := e.store.Update(ctx, principalID, func(p *store.Principal) error {
		if p.Vendor == nil {
			return ErrNoVendorRequest
		}
		if p.Vendor.Status != store.VendorPending {
			return fmt.Errorf("%w: request already %s", ErrVendorConflict, p.Vendor.Status)
		}
		// Rejection clears the record so the principal can apply again.
		p.Vendor = nil
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoVendorRequest) || errors.Is(err, ErrVendorConflict) {
			return err
		}
		return mapStoreErr(err)
	}

	e.metricInc(MetricVendorRequestRejected)
	e.notifySend(ctx, updated.Contact(), TemplateVendorRejected, map[string]string{
		"reason": reason,
	})
	return nil
}
