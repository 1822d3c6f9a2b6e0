package permission

import (
	"errors"
	"fmt"
	"testing"
)

func TestMask64SetClearHas(t *testing.T) {
	var m Mask64
	m.Set(3)
	m.Set(63)
	m.Set(64)
	if !m.Has(3) || !m.Has(63) {
		t.Fatal("expected bits 3 and 63")
	}
	if m.Has(64) || m.Has(-1) {
		t.Fatal("out-of-range bits must be ignored")
	}
	m.Clear(3)
	if m.Has(3) {
		t.Fatal("expected bit 3 cleared")
	}
}

func TestMask64Covers(t *testing.T) {
	var small, big Mask64
	small.Set(0)
	big.Set(0)
	big.Set(1)
	if !big.Covers(small) {
		t.Fatal("superset should cover subset")
	}
	if small.Covers(big) {
		t.Fatal("subset must not cover superset")
	}
	if !small.Covers(0) {
		t.Fatal("every mask covers the empty mask")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	for i := range 64 {
		if _, err := r.Register(fmt.Sprintf("p%d", i)); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}
	if _, err := r.Register("overflow"); !errors.Is(err, ErrLimit) {
		t.Fatalf("expected ErrLimit, got %v", err)
	}
	if name, ok := r.Name(63); !ok || name != "p63" {
		t.Fatalf("unexpected name lookup: %q %v", name, ok)
	}
	if _, ok := r.Name(64); ok {
		t.Fatal("bit 64 cannot be assigned")
	}

	small := NewRegistry()
	if _, err := small.Register("x"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := small.Register("x"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := small.Register(""); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	small.Freeze()
	if _, err := small.Register("y"); !errors.Is(err, ErrFrozen) {
		t.Fatalf("expected ErrFrozen, got %v", err)
	}
	if _, err := small.MaskOf("x", "y"); !errors.Is(err, ErrUnknownPermission) {
		t.Fatalf("expected ErrUnknownPermission, got %v", err)
	}
	if m, err := small.MaskOf("x"); err != nil || !m.Has(0) {
		t.Fatalf("unexpected mask %v err %v", m, err)
	}
}

func TestRoleManagerRejectsUnknownPermission(t *testing.T) {
	rm := NewRoleManager(NewRegistry())
	if err := rm.RegisterRole("r", []string{"missing"}); !errors.Is(err, ErrUnknownPermission) {
		t.Fatalf("expected ErrUnknownPermission, got %v", err)
	}
}

func TestDefaultRolesHierarchy(t *testing.T) {
	rm := DefaultRoles()

	cases := []struct {
		role, required string
		want           bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleUser, true},
		{RoleUser, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{"", RoleUser, false},
		{"guest", RoleUser, false},
		{RoleAdmin, "superuser", false},
	}
	for _, tc := range cases {
		if got := rm.Allows(tc.role, tc.required); got != tc.want {
			t.Fatalf("Allows(%q, %q) = %v, want %v", tc.role, tc.required, got, tc.want)
		}
	}

	if err := rm.RegisterRole("late", nil); err == nil {
		t.Fatal("expected frozen role manager to reject")
	}
	if rm.Count() != 2 {
		t.Fatalf("expected 2 roles, got %d", rm.Count())
	}
}
