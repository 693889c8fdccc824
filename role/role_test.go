package role

import (
	"encoding/json"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	for _, r := range All {
		parsed, err := Parse(r.String())
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", r.String(), err)
		}
		if parsed != r {
			t.Fatalf("Parse(%q) = %v, want %v", r.String(), parsed, r)
		}
	}

	if _, err := Parse("root"); err == nil {
		t.Fatal("Parse accepted unknown role")
	}
}

func TestPrivilegeOrder(t *testing.T) {
	order := []Role{User, Vendor, Admin, Superadmin}
	for i := 1; i < len(order); i++ {
		if order[i].Level() <= order[i-1].Level() {
			t.Fatalf("privilege order broken: %v <= %v", order[i], order[i-1])
		}
		if !order[i].AtLeast(order[i-1]) {
			t.Fatalf("%v should be at least %v", order[i], order[i-1])
		}
		if order[i-1].AtLeast(order[i]) {
			t.Fatalf("%v should not be at least %v", order[i-1], order[i])
		}
	}
}

func TestCanManage(t *testing.T) {
	cases := []struct {
		actor  Role
		target Role
		want   bool
	}{
		{Superadmin, Superadmin, true},
		{Superadmin, Admin, true},
		{Superadmin, Vendor, true},
		{Superadmin, User, true},
		{Admin, User, true},
		{Admin, Vendor, true},
		{Admin, Admin, false},
		{Admin, Superadmin, false},
		{Vendor, User, false},
		{User, User, false},
	}

	for _, tc := range cases {
		if got := CanManage(tc.actor, tc.target); got != tc.want {
			t.Errorf("CanManage(%v, %v) = %v, want %v", tc.actor, tc.target, got, tc.want)
		}
	}
}

func TestCanAssign(t *testing.T) {
	cases := []struct {
		actor   Role
		newRole Role
		want    bool
	}{
		{Superadmin, Admin, true},
		{Superadmin, Superadmin, true},
		{Superadmin, Vendor, true},
		{Admin, Admin, false},
		{Admin, Superadmin, false},
		{Admin, Vendor, true},
		{Admin, User, true},
		{Vendor, User, false},
		{User, Vendor, false},
	}

	for _, tc := range cases {
		if got := CanAssign(tc.actor, tc.newRole); got != tc.want {
			t.Errorf("CanAssign(%v, %v) = %v, want %v", tc.actor, tc.newRole, got, tc.want)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(Vendor)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `"vendor"` {
		t.Fatalf("Marshal = %s, want \"vendor\"", data)
	}

	var r Role
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if r != Vendor {
		t.Fatalf("Unmarshal = %v, want Vendor", r)
	}

	if err := json.Unmarshal([]byte(`"root"`), &r); err == nil {
		t.Fatal("Unmarshal accepted unknown role")
	}
}
