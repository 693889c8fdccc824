package marketauth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/arvendel/marketauth/role"
)

func completeBusinessInfo(name string) BusinessInfo {
	return BusinessInfo{
		Name:        name,
		Description: "Handmade goods",
		Phone:       "+15550100",
		Address:     "1 Market Street",
	}
}

func TestVendorOnboardingLifecycle(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	alice := mustRegister(t, engine, "alice@example.com", "", "password-123")

	req, err := engine.SubmitVendorRequest(ctx, alice.Principal.ID, completeBusinessInfo("Alice Crafts"))
	if err != nil {
		t.Fatalf("SubmitVendorRequest failed: %v", err)
	}
	if req.Status != VendorPending {
		t.Fatalf("status = %s, want pending", req.Status)
	}
	if req.RequestNumber != 1 {
		t.Fatalf("request number = %d, want 1", req.RequestNumber)
	}

	pending, err := engine.ListVendorRequests(ctx, VendorPending)
	if err != nil {
		t.Fatalf("ListVendorRequests failed: %v", err)
	}
	if len(pending) != 1 || pending[0].PrincipalID != alice.Principal.ID {
		t.Fatalf("pending list = %+v", pending)
	}

	approved, err := engine.ApproveVendorRequest(ctx, role.Superadmin, alice.Principal.ID)
	if err != nil {
		t.Fatalf("ApproveVendorRequest failed: %v", err)
	}
	if approved.Status != VendorApproved || approved.ApprovalDate.IsZero() {
		t.Fatalf("approved request = %+v", approved)
	}

	p, err := engine.GetPrincipal(ctx, alice.Principal.ID)
	if err != nil {
		t.Fatalf("GetPrincipal failed: %v", err)
	}
	if p.Role != role.Vendor {
		t.Fatalf("role after approval = %s, want vendor", p.Role)
	}

	// A second approval names the current status.
	_, err = engine.ApproveVendorRequest(ctx, role.Superadmin, alice.Principal.ID)
	if !errors.Is(err, ErrVendorConflict) {
		t.Fatalf("re-approve = %v, want ErrVendorConflict", err)
	}
	if !strings.Contains(err.Error(), "approved") {
		t.Fatalf("conflict error should name current status: %v", err)
	}
}

func TestVendorApprovalRequiresSuperadmin(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	alice := mustRegister(t, engine, "alice@example.com", "", "password-123")
	if _, err := engine.SubmitVendorRequest(ctx, alice.Principal.ID, completeBusinessInfo("Alice Crafts")); err != nil {
		t.Fatalf("SubmitVendorRequest failed: %v", err)
	}

	for _, actor := range []role.Role{role.User, role.Vendor, role.Admin} {
		if _, err := engine.ApproveVendorRequest(ctx, actor, alice.Principal.ID); !errors.Is(err, ErrRoleForbidden) {
			t.Fatalf("approve as %s = %v, want ErrRoleForbidden", actor, err)
		}
	}

	// The refused approvals must not have moved the request.
	status, err := engine.VendorRequestStatus(ctx, alice.Principal.ID)
	if err != nil {
		t.Fatalf("VendorRequestStatus failed: %v", err)
	}
	if status.Status != VendorPending {
		t.Fatalf("status after refused approvals = %s, want pending", status.Status)
	}

	if _, err := engine.ApproveVendorRequest(ctx, role.Superadmin, alice.Principal.ID); err != nil {
		t.Fatalf("superadmin approval failed: %v", err)
	}
}

func TestVendorRejectRequiresAdministrativeActor(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	alice := mustRegister(t, engine, "alice@example.com", "", "password-123")
	if _, err := engine.SubmitVendorRequest(ctx, alice.Principal.ID, completeBusinessInfo("Alice Crafts")); err != nil {
		t.Fatalf("SubmitVendorRequest failed: %v", err)
	}

	err := engine.RejectVendorRequest(ctx, role.User, alice.Principal.ID, "self service")
	if !errors.Is(err, ErrRoleForbidden) {
		t.Fatalf("reject as user = %v, want ErrRoleForbidden", err)
	}
	if err := engine.RejectVendorRequest(ctx, role.Admin, alice.Principal.ID, "incomplete documents"); err != nil {
		t.Fatalf("reject as admin failed: %v", err)
	}
}

func TestVendorSubmitConflicts(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	alice := mustRegister(t, engine, "alice@example.com", "", "password-123")

	info := completeBusinessInfo("Alice Crafts")
	if _, err := engine.SubmitVendorRequest(ctx, alice.Principal.ID, info); err != nil {
		t.Fatalf("SubmitVendorRequest failed: %v", err)
	}

	_, err := engine.SubmitVendorRequest(ctx, alice.Principal.ID, info)
	if !errors.Is(err, ErrVendorConflict) {
		t.Fatalf("resubmit while pending = %v, want ErrVendorConflict", err)
	}
	if !strings.Contains(err.Error(), "pending") {
		t.Fatalf("conflict error should name current status: %v", err)
	}

	if _, err := engine.ApproveVendorRequest(ctx, role.Superadmin, alice.Principal.ID); err != nil {
		t.Fatalf("ApproveVendorRequest failed: %v", err)
	}
	_, err = engine.SubmitVendorRequest(ctx, alice.Principal.ID, info)
	if !errors.Is(err, ErrAlreadyVendor) {
		t.Fatalf("submit as vendor = %v, want ErrAlreadyVendor", err)
	}
}

func TestVendorSubmitValidation(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	alice := mustRegister(t, engine, "alice@example.com", "", "password-123")

	incomplete := []struct {
		name string
		info BusinessInfo
	}{
		{"missing name", BusinessInfo{Description: "Handmade goods", Phone: "+15550100", Address: "1 Market Street"}},
		{"missing description", BusinessInfo{Name: "Alice Crafts", Phone: "+15550100", Address: "1 Market Street"}},
		{"missing phone", BusinessInfo{Name: "Alice Crafts", Description: "Handmade goods", Address: "1 Market Street"}},
		{"missing address", BusinessInfo{Name: "Alice Crafts", Description: "Handmade goods", Phone: "+15550100"}},
		{"blank phone", BusinessInfo{Name: "Alice Crafts", Description: "Handmade goods", Phone: "   ", Address: "1 Market Street"}},
	}
	for _, tc := range incomplete {
		if _, err := engine.SubmitVendorRequest(ctx, alice.Principal.ID, tc.info); !errors.Is(err, ErrBusinessInfoIncomplete) {
			t.Fatalf("%s: submit = %v, want ErrBusinessInfoIncomplete", tc.name, err)
		}
	}

	// Tax id stays optional.
	req, err := engine.SubmitVendorRequest(ctx, alice.Principal.ID, completeBusinessInfo("Alice Crafts"))
	if err != nil {
		t.Fatalf("complete submit failed: %v", err)
	}
	if req.Status != VendorPending {
		t.Fatalf("status = %s, want pending", req.Status)
	}

	_, err = engine.SubmitVendorRequest(ctx, "no-such-id", completeBusinessInfo("Ghost"))
	if !errors.Is(err, ErrPrincipalNotFound) {
		t.Fatalf("submit for unknown principal = %v, want ErrPrincipalNotFound", err)
	}
}

func TestVendorRejectionClearsRecord(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	sink := withTestSink(t, engine, 32)
	ctx := context.Background()

	alice := mustRegister(t, engine, "alice@example.com", "", "password-123")
	info := completeBusinessInfo("Alice Crafts")

	first, err := engine.SubmitVendorRequest(ctx, alice.Principal.ID, info)
	if err != nil {
		t.Fatalf("SubmitVendorRequest failed: %v", err)
	}

	if err := engine.RejectVendorRequest(ctx, role.Superadmin, alice.Principal.ID, ""); !errors.Is(err, ErrRejectionReasonRequired) {
		t.Fatalf("reject without reason = %v, want ErrRejectionReasonRequired", err)
	}
	if err := engine.RejectVendorRequest(ctx, role.Superadmin, alice.Principal.ID, "incomplete documents"); err != nil {
		t.Fatalf("RejectVendorRequest failed: %v", err)
	}

	status, err := engine.VendorRequestStatus(ctx, alice.Principal.ID)
	if err != nil {
		t.Fatalf("VendorRequestStatus failed: %v", err)
	}
	if status.Status != VendorNone {
		t.Fatalf("status after rejection = %s, want none", status.Status)
	}

	// Rejection clears the slate: resubmission gets a fresh number.
	second, err := engine.SubmitVendorRequest(ctx, alice.Principal.ID, info)
	if err != nil {
		t.Fatalf("resubmit after rejection failed: %v", err)
	}
	if second.RequestNumber <= first.RequestNumber {
		t.Fatalf("resubmit number = %d, want > %d", second.RequestNumber, first.RequestNumber)
	}

	engine.Close()
	sawReason := false
	for {
		select {
		case ev := <-sink.Events():
			if ev.Template == TemplateVendorRejected && ev.Data["reason"] == "incomplete documents" {
				sawReason = true
			}
			continue
		default:
		}
		break
	}
	if !sawReason {
		t.Fatal("rejection notification with reason not delivered")
	}
}

func TestVendorRejectWithoutRequest(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	alice := mustRegister(t, engine, "alice@example.com", "", "password-123")

	err := engine.RejectVendorRequest(ctx, role.Superadmin, alice.Principal.ID, "no request exists")
	if !errors.Is(err, ErrNoVendorRequest) {
		t.Fatalf("RejectVendorRequest = %v, want ErrNoVendorRequest", err)
	}
}

func TestListVendorRequestsRejectsUnknownStatus(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	for _, status := range []VendorStatus{VendorNone, VendorStatus("bogus")} {
		if _, err := engine.ListVendorRequests(ctx, status); !errors.Is(err, ErrVendorStatusInvalid) {
			t.Fatalf("list %q = %v, want ErrVendorStatusInvalid", status, err)
		}
	}
}

func TestVendorRequestNumbersUniqueUnderContention(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	const workers = 16
	ids := make([]string, workers)
	for i := range ids {
		res := mustRegister(t, engine,
			"vendor"+string(rune('a'+i))+"@example.com", "", "password-123")
		ids[i] = res.Principal.ID
	}

	numbers := make([]int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, err := engine.SubmitVendorRequest(ctx, ids[i], completeBusinessInfo("Shop"))
			if err != nil {
				t.Errorf("worker %d submit failed: %v", i, err)
				return
			}
			numbers[i] = req.RequestNumber
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, workers)
	for i, n := range numbers {
		if n == 0 {
			continue
		}
		if seen[n] {
			t.Fatalf("request number %d assigned twice (worker %d)", n, i)
		}
		seen[n] = true
	}
	if len(seen) != workers {
		t.Fatalf("distinct numbers = %d, want %d", len(seen), workers)
	}
}
