package helpers

import (
	"errors"
	"testing"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
)

func TestNewEnvTable_Bounds(t *testing.T) {
	for _, log2 := range []int{0, models.LOG2NENV + 1} {
		if _, err := NewEnvTable(log2); err == nil {
			t.Errorf("Expected error for log2 %d, got nil", log2)
		}
	}
	table, err := NewEnvTable(3)
	if err != nil || table.Size() != 8 {
		t.Errorf("Expected 8 slots, got %v (err %v)", table, err)
	}
}

func TestEnvTable_AllocNeverUsesIdleSlot(t *testing.T) {
	table, _ := NewEnvTable(2)

	for i := 1; i < table.Size(); i++ {
		e, err := table.Alloc(0)
		if err != nil {
			t.Fatalf("Expected slot %d, got error: %v", i, err)
		}
		if models.ENVX(e.ID) == IdleSlot {
			t.Errorf("Expected Alloc to skip the idle slot, got %08x", e.ID)
		}
		if e.Status != models.EnvNotRunnable {
			t.Errorf("Expected NOT_RUNNABLE, got %s", e.Status)
		}
	}

	if _, err := table.Alloc(0); !errors.Is(err, models.E_NO_FREE_ENV) {
		t.Errorf("Expected E_NO_FREE_ENV, got: %v", err)
	}

	idle, err := table.AllocIdle()
	if err != nil || models.ENVX(idle.ID) != IdleSlot {
		t.Errorf("Expected idle in slot 0, got %v (err %v)", idle, err)
	}
	if _, err := table.AllocIdle(); err == nil {
		t.Error("Expected error when idle slot is taken")
	}
}

func TestEnvTable_StaleIDIsRejected(t *testing.T) {
	table, _ := NewEnvTable(2)

	first, _ := table.Alloc(0)
	oldID := first.ID
	table.Free(first)

	if _, ok := table.Get(oldID); ok {
		t.Errorf("Expected freed id %08x not to resolve", oldID)
	}

	second, _ := table.Alloc(0)
	if models.ENVX(second.ID) != models.ENVX(oldID) {
		t.Fatalf("Expected slot reuse, got %08x after %08x", second.ID, oldID)
	}
	if second.ID == oldID {
		t.Errorf("Expected a new generation, got the same id %08x", oldID)
	}
	if _, ok := table.Get(oldID); ok {
		t.Errorf("Expected stale id %08x to be rejected", oldID)
	}
	if e, ok := table.Get(second.ID); !ok || e != second {
		t.Errorf("Expected %08x to resolve to its slot", second.ID)
	}
}

func TestEnvTable_GetInvalidIDs(t *testing.T) {
	table, _ := NewEnvTable(2)
	for _, id := range []models.EnvID{0, -1, models.EnvID(1<<models.ENVGENSHIFT | 3)} {
		if _, ok := table.Get(id); ok {
			t.Errorf("Expected %08x not to resolve", id)
		}
	}
}

func TestEnvTable_Snapshot(t *testing.T) {
	table, _ := NewEnvTable(3)
	parent, _ := table.Alloc(0)
	table.Alloc(parent.ID)

	infos := table.Snapshot()
	if len(infos) != 2 {
		t.Fatalf("Expected 2 envs, got %d", len(infos))
	}
	if infos[1].ParentID != parent.ID {
		t.Errorf("Expected parent %08x, got %08x", parent.ID, infos[1].ParentID)
	}
}
