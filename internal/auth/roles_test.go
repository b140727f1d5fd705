package auth

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"admin", RoleAdmin, true},
		{" Manager ", RoleManager, true},
		{"ROOT", RoleRoot, true},
		{"employee", RoleEmployee, true},
		{"superuser", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, err := ParseRole(c.in)
		if c.ok {
			if err != nil {
				t.Fatalf("ParseRole(%q): unexpected error %v", c.in, err)
			}
			if got != c.want {
				t.Fatalf("ParseRole(%q) = %q, want %q", c.in, got, c.want)
			}
			continue
		}
		if err == nil {
			t.Fatalf("ParseRole(%q): expected error", c.in)
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("ParseRole(%q): error %v is not ErrInvalidInput", c.in, err)
		}
	}
}

func TestRoleAtLeast(t *testing.T) {
	if !RoleAtLeast(RoleRoot, RoleEmployee) {
		t.Fatalf("root should outrank employee")
	}
	if !RoleAtLeast(RoleAdmin, RoleAdmin) {
		t.Fatalf("admin should satisfy admin")
	}
	if RoleAtLeast(RoleManager, RoleAdmin) {
		t.Fatalf("manager should not satisfy admin")
	}
	if RoleAtLeast(Role("bogus"), RoleEmployee) {
		t.Fatalf("unknown role should never satisfy a requirement")
	}
	if RoleAtLeast(RoleRoot, Role("bogus")) {
		t.Fatalf("unknown requirement should never be satisfied")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusActive, StatusInactive, StatusSuspended} {
		if !ValidStatus(s) {
			t.Fatalf("status %q should be valid", s)
		}
	}
	if ValidStatus("deleted") {
		t.Fatalf("unknown status accepted")
	}
}
