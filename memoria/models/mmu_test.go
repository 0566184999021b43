package models

import "testing"

func TestPerm_Validate(t *testing.T) {
	cases := []struct {
		perm  Perm
		valid bool
	}{
		{PTE_P | PTE_U, true},
		{PTE_P | PTE_U | PTE_W, true},
		{PTE_P | PTE_U | PTE_COW, true},
		{PTE_P | PTE_U | PTE_W | PTE_COW, false},
		{PTE_P | PTE_W, false},
		{PTE_U, false},
		{PTE_P | PTE_U | 0x40, false},
	}
	for _, c := range cases {
		if c.perm.Validate() != c.valid {
			t.Errorf("Expected Validate(%s)=%v", c.perm, c.valid)
		}
	}
}

func TestPerm_String(t *testing.T) {
	if got := (PTE_P | PTE_U | PTE_COW).String(); got != "P|U|COW" {
		t.Errorf("Expected P|U|COW, got %s", got)
	}
	if got := Perm(0).String(); got != "-" {
		t.Errorf("Expected -, got %s", got)
	}
}

func TestAddressHelpers(t *testing.T) {
	va := uintptr(0xEEBFE123)
	if PGADDR(PDX(va), PTX(va)) != RoundDown(va) {
		t.Errorf("Expected PGADDR(PDX, PTX) to rebuild %08x, got %08x", RoundDown(va), PGADDR(PDX(va), PTX(va)))
	}
	if PGNUM(va) != PDX(va)*NPTENTRIES+PTX(va) {
		t.Errorf("Expected PGNUM to be the linear page index, got %d", PGNUM(va))
	}
	if RoundDown(va) != 0xEEBFE000 {
		t.Errorf("Expected eebfe000, got %08x", RoundDown(va))
	}
}
