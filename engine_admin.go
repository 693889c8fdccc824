package marketauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"

	"github.com/arvendel/marketauth/internal/store"
	"github.com/arvendel/marketauth/role"
)

// GetPrincipal describes the getprincipal operation and its observable behavior.
//
// GetPrincipal may return an error when input validation, dependency calls, or security checks fail.
// GetPrincipal does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) GetPrincipal(ctx context.Context, id string) (*Principal, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	rec, err := e.store.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	view := principalView(rec)
	return &view, nil
}

// ListPrincipalsByRole describes the listprincipalsbyrole operation and its observable behavior.
//
// ListPrincipalsByRole may return an error when input validation, dependency calls, or security checks fail.
// ListPrincipalsByRole does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ListPrincipalsByRole(ctx context.Context, r role.Role) ([]Principal, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	if !r.Valid() {
		return nil, ErrRoleInvalid
	}

	ids, err := e.store.MembersByRole(ctx, r)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	out := make([]Principal, 0, len(ids))
	for _, id := range ids {
		rec, err := e.store.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, principalView(rec))
	}
	return out, nil
}

// ChangeRole describes the changerole operation and its observable behavior.
//
// ChangeRole may return an error when input validation, dependency calls, or security checks fail.
// ChangeRole does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ChangeRole(ctx context.Context, actorRole role.Role, targetID string, newRole role.Role) (*Principal, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	if !newRole.Valid() {
		return nil, ErrRoleInvalid
	}

	updated, err := e.store.Update(ctx, targetID, func(p *store.Principal) error {
		if !role.CanManage(actorRole, p.Role) || !role.CanAssign(actorRole, newRole) {
			return ErrRoleForbidden
		}
		if newRole == role.Superadmin && p.Federated {
			return ErrFederatedSuperadmin
		}
		p.Role = newRole
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRoleForbidden) || errors.Is(err, ErrFederatedSuperadmin) {
			e.metricInc(MetricRoleChangeForbidden)
			return nil, err
		}
		return nil, mapStoreErr(err)
	}

	e.metricInc(MetricRoleChanged)
	e.notifySend(ctx, updated.Contact(), TemplateRoleChanged, map[string]string{
		"role": newRole.String(),
	})

	view := principalView(updated)
	return &view, nil
}

// PromoteVendor describes the promotevendor operation and its observable behavior.
//
// PromoteVendor may return an error when input validation, dependency calls, or security checks fail.
// PromoteVendor does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) PromoteVendor(ctx context.Context, principalID, promoteSecret string) (*VendorRequest, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	secret := e.config.Superadmin.PromoteSecret
	if secret == "" ||
		subtle.ConstantTimeCompare([]byte(promoteSecret), []byte(secret)) != 1 {
		return nil, ErrSuperadminSecret
	}

	number, err := e.store.NextRequestNumber(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	now := e.nowTime().Unix()
	updated, err := e.store.Update(ctx, principalID, func(p *store.Principal) error {
		if p.Role == role.Vendor {
			return ErrAlreadyVendor
		}
		if p.Role.IsAdministrative() {
			return ErrRoleForbidden
		}
		// The direct path skips the application form, so the record gets a
		// placeholder business profile the vendor can edit later.
		name := p.Name
		if name == "" {
			name = p.Contact()
		}
		p.Vendor = &store.VendorRequest{
			Status:        store.VendorApproved,
			RequestNumber: number,
			BusinessInfo: store.BusinessInfo{
				Name:        name,
				Description: fmt.Sprintf("Vendor %s (direct promotion)", name),
			},
			RequestDate:  now,
			ApprovalDate: now,
		}
		p.Role = role.Vendor
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyVendor) || errors.Is(err, ErrRoleForbidden) {
			return nil, err
		}
		return nil, mapStoreErr(err)
	}

	e.metricInc(MetricVendorPromoted)
	e.notifySend(ctx, updated.Contact(), TemplateVendorApproved, map[string]string{
		"business_name":  updated.Vendor.BusinessInfo.Name,
		"request_number": strconv.FormatInt(number, 10),
	})

	req := vendorRequestView(updated)
	return &req, nil
}
