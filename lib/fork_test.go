package lib

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/services"
	memModels "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
)

const userRW = memModels.PTE_P | memModels.PTE_U | memModels.PTE_W

func newTestKernel(t *testing.T) *services.Kernel {
	t.Helper()
	k, err := services.NewKernel(64*memModels.PGSIZE, 3)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	return k
}

func runProgram(t *testing.T, k *services.Kernel, entry models.Entry) models.EnvID {
	t.Helper()
	id, err := k.EnvCreate("test", entry)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- k.Run(context.Background()) }()
	select {
	case err := <-done:
		if !errors.Is(err, services.ErrNothingToDo) {
			t.Fatalf("Expected ErrNothingToDo, got: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Expected the scheduler to finish, it is still running")
	}
	return id
}

func findMapping(mappings []memModels.Mapping, va uintptr) (memModels.Mapping, bool) {
	for _, m := range mappings {
		if m.VA == va {
			return m, true
		}
	}
	return memModels.Mapping{}, false
}

func mustMappings(k *services.Kernel, id models.EnvID) []memModels.Mapping {
	mappings, err := k.Mappings(id)
	if err != nil {
		panic(err)
	}
	return mappings
}

func TestFork_SharesWritablePagesCopyOnWrite(t *testing.T) {
	k := newTestKernel(t)
	var parentMaps, childMaps []memModels.Mapping
	var forkErr error
	childSaw := false

	runProgram(t, k, Libmain(func(e *Env) {
		if err := e.PageAlloc(0, models.UTEMP, userRW); err != nil {
			e.Panic("page_alloc: %v", err)
		}
		e.Store(models.UTEMP, []byte{0xAA})

		forkErr = e.Fork(func(e *Env, r ForkResult) {
			switch r := r.(type) {
			case Parent:
				parentMaps = mustMappings(k, e.GetEnvID())
				childMaps = mustMappings(k, r.ChildID)
			case Child:
				childSaw = true
			}
		})
	}))

	if forkErr != nil {
		t.Fatalf("Expected fork to succeed, got: %v", forkErr)
	}
	if !childSaw {
		t.Error("Expected the child continuation to run")
	}

	cow := memModels.PTE_P | memModels.PTE_U | memModels.PTE_COW
	for _, va := range []uintptr{models.UTEMP, models.USTACKTOP - memModels.PGSIZE} {
		p, okP := findMapping(parentMaps, va)
		c, okC := findMapping(childMaps, va)
		if !okP || !okC {
			t.Fatalf("Expected %08x mapped in both, got parent %v child %v", va, okP, okC)
		}
		if p.Perm != cow || c.Perm != cow {
			t.Errorf("Expected %08x COW without W in both, got %s / %s", va, p.Perm, c.Perm)
		}
		if p.Frame != c.Frame || p.Refs != 2 {
			t.Errorf("Expected %08x to share one frame with 2 refs, got %d/%d refs %d", va, p.Frame, c.Frame, p.Refs)
		}
	}

	pText, _ := findMapping(parentMaps, models.UTEXT)
	cText, _ := findMapping(childMaps, models.UTEXT)
	if pText.Perm != memModels.PTE_P|memModels.PTE_U || cText.Perm != pText.Perm || cText.Frame != pText.Frame {
		t.Errorf("Expected read-only text shared as is, got %s / %s", pText.Perm, cText.Perm)
	}

	pX, okP := findMapping(parentMaps, models.UXSTACK)
	cX, okC := findMapping(childMaps, models.UXSTACK)
	if !okP || !okC {
		t.Fatalf("Expected both to have an exception stack, got parent %v child %v", okP, okC)
	}
	if pX.Frame == cX.Frame || pX.Perm != userRW || cX.Perm != userRW || pX.Refs != 1 || cX.Refs != 1 {
		t.Errorf("Expected private writable exception stacks, got %+v / %+v", pX, cX)
	}

	for _, m := range append(parentMaps, childMaps...) {
		if m.Perm.Has(memModels.PTE_W) && m.Perm.Has(memModels.PTE_COW) {
			t.Errorf("Expected W and COW never together, got %+v", m)
		}
		if m.Perm.Has(memModels.PTE_W) && m.Refs > 1 {
			t.Errorf("Expected writable frames to be exclusive, got %+v", m)
		}
	}
}

func TestFork_ChildWriteGetsPrivateCopy(t *testing.T) {
	k := newTestKernel(t)
	var parentByte, childByte byte
	var childPerm memModels.Perm
	var parentPerm memModels.Perm
	childRefs := 0

	runProgram(t, k, Libmain(func(e *Env) {
		_ = e.PageAlloc(0, models.UTEMP, userRW)
		e.Store(models.UTEMP, []byte{0xAA})

		err := e.Fork(func(e *Env, r ForkResult) {
			if _, ok := r.(Child); !ok {
				return
			}
			e.Store(models.UTEMP, []byte{0xBB})
			buf := make([]byte, 1)
			e.Load(models.UTEMP, buf)
			childByte = buf[0]
			childPerm = e.Vpt(memModels.PGNUM(models.UTEMP))
			m, _ := findMapping(mustMappings(k, e.GetEnvID()), models.UTEMP)
			childRefs = m.Refs
		})
		if err != nil {
			e.Panic("fork: %v", err)
		}

		e.Yield()
		buf := make([]byte, 1)
		e.Load(models.UTEMP, buf)
		parentByte = buf[0]
		parentPerm = e.Vpt(memModels.PGNUM(models.UTEMP))
	}))

	if childByte != 0xBB {
		t.Errorf("Expected child to read 0xBB, got %#x", childByte)
	}
	if parentByte != 0xAA {
		t.Errorf("Expected parent to keep 0xAA, got %#x", parentByte)
	}
	if childPerm != userRW || childRefs != 1 {
		t.Errorf("Expected child page private and writable, got %s with %d refs", childPerm, childRefs)
	}
	if !parentPerm.Has(memModels.PTE_COW) {
		t.Errorf("Expected parent page still COW until it writes, got %s", parentPerm)
	}
}

func TestFork_ParentWriteAfterFork(t *testing.T) {
	k := newTestKernel(t)
	var childByte byte

	runProgram(t, k, Libmain(func(e *Env) {
		_ = e.PageAlloc(0, models.UTEMP, userRW)
		e.Store(models.UTEMP, []byte{0xAA})

		_ = e.Fork(func(e *Env, r ForkResult) {
			switch r.(type) {
			case Parent:
				e.Store(models.UTEMP, []byte{0xCC})
			case Child:
				buf := make([]byte, 1)
				e.Load(models.UTEMP, buf)
				childByte = buf[0]
			}
		})
	}))

	if childByte != 0xAA {
		t.Errorf("Expected child to see the value at fork time, got %#x", childByte)
	}
}

// failingMaps falla el n-ésimo page_map hacia otro environment.
type failingMaps struct {
	models.Process
	failAt int
	count  int
}

func (f *failingMaps) PageMap(srcenv models.EnvID, srcva uintptr, dstenv models.EnvID, dstva uintptr, perm memModels.Perm) error {
	if dstenv != 0 {
		f.count++
		if f.count == f.failAt {
			return models.E_NO_MEM
		}
	}
	return f.Process.PageMap(srcenv, srcva, dstenv, dstva, perm)
}

func TestFork_FailureDestroysChild(t *testing.T) {
	k := newTestKernel(t)
	var forkErr error
	contCalls := 0
	var perms [3]memModels.Perm
	var envsDuring int
	var afterWrite byte

	runProgram(t, k, func(p models.Process) {
		e := newEnv(&failingMaps{Process: p, failAt: 2})
		for i := 0; i < 3; i++ {
			_ = e.PageAlloc(0, models.UTEMP+uintptr(i)*memModels.PGSIZE, userRW)
		}

		forkErr = e.Fork(func(*Env, ForkResult) { contCalls++ })

		for i := range perms {
			perms[i] = e.Vpt(memModels.PGNUM(models.UTEMP + uintptr(i)*memModels.PGSIZE))
		}
		envsDuring = len(k.EnvInfos())

		e.Store(models.UTEMP, []byte{0x11})
		buf := make([]byte, 1)
		e.Load(models.UTEMP, buf)
		afterWrite = buf[0]
		e.Exit()
	})

	if !errors.Is(forkErr, models.E_NO_MEM) {
		t.Errorf("Expected the injected error, got: %v", forkErr)
	}
	if contCalls != 0 {
		t.Errorf("Expected no continuation on failure, got %d calls", contCalls)
	}
	if envsDuring != 1 {
		t.Errorf("Expected the child to be destroyed, got %d envs", envsDuring)
	}
	cow := memModels.PTE_P | memModels.PTE_U | memModels.PTE_COW
	if perms[0] != cow || perms[1] != cow {
		t.Errorf("Expected pages before the failure left COW, got %s %s", perms[0], perms[1])
	}
	if perms[2] != userRW {
		t.Errorf("Expected untouched page still writable, got %s", perms[2])
	}
	if afterWrite != 0x11 {
		t.Errorf("Expected parent to keep working through its COW handler, got %#x", afterWrite)
	}
	if total, free := k.MemStats(); total != free {
		t.Errorf("Expected all frames free, got %d of %d", free, total)
	}
}

func TestFork_NoFreeEnv(t *testing.T) {
	k, err := services.NewKernel(64*memModels.PGSIZE, 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	var forkErr error
	contCalls := 0

	runProgram(t, k, Libmain(func(e *Env) {
		forkErr = e.Fork(func(*Env, ForkResult) { contCalls++ })
	}))

	if !errors.Is(forkErr, models.E_NO_FREE_ENV) || contCalls != 0 {
		t.Errorf("Expected E_NO_FREE_ENV and no continuation, got %v (%d calls)", forkErr, contCalls)
	}
}

func TestDuppage_ReadOnlyStaysReadOnly(t *testing.T) {
	k := newTestKernel(t)
	var self, child memModels.Perm
	var dupErr error

	runProgram(t, k, Libmain(func(e *Env) {
		cpid, _ := e.Exofork(nil)
		dupErr = e.Duppage(cpid, memModels.PGNUM(models.UTEXT))
		self = e.Vpt(memModels.PGNUM(models.UTEXT))
		m, _ := findMapping(mustMappings(k, cpid), models.UTEXT)
		child = m.Perm
		_ = e.EnvDestroy(cpid)
	}))

	if dupErr != nil {
		t.Fatalf("Expected no error, got: %v", dupErr)
	}
	ro := memModels.PTE_P | memModels.PTE_U
	if self != ro || child != ro {
		t.Errorf("Expected read-only page shared without COW, got %s / %s", self, child)
	}
}

func TestDuppage_ErrorIsReturned(t *testing.T) {
	k := newTestKernel(t)
	var dupErr error

	runProgram(t, k, Libmain(func(e *Env) {
		dupErr = e.Duppage(models.EnvID(0x7fff0003), memModels.PGNUM(models.UTEXT))
	}))

	if !errors.Is(dupErr, models.E_BAD_ENV) {
		t.Errorf("Expected E_BAD_ENV, got: %v", dupErr)
	}
}

func TestPgfault_RejectsNonCOWFaults(t *testing.T) {
	cases := map[string]models.UTrapframe{
		"read fault":      {FaultVA: uint32(models.UTEMP), Err: models.FEC_PR | models.FEC_U},
		"missing page":    {FaultVA: uint32(models.UTEMP + memModels.PGSIZE), Err: models.FEC_WR | models.FEC_U},
		"privatized page": {FaultVA: uint32(models.UTEMP), Err: models.FEC_PR | models.FEC_WR | models.FEC_U},
	}

	for name, utf := range cases {
		t.Run(name, func(t *testing.T) {
			k := newTestKernel(t)
			survived := false
			id := runProgram(t, k, Libmain(func(e *Env) {
				_ = e.PageAlloc(0, models.UTEMP, userRW)
				Pgfault(e, utf)
				survived = true
			}))

			if survived {
				t.Errorf("Expected %s to be fatal", name)
			}
			if _, err := k.Mappings(id); !errors.Is(err, models.E_BAD_ENV) {
				t.Errorf("Expected env to be destroyed, got: %v", err)
			}
		})
	}
}

func TestSetPgfaultHandler_AllocatesExceptionStackOnce(t *testing.T) {
	k := newTestKernel(t)
	var first, second memModels.Mapping
	var errs []error

	runProgram(t, k, Libmain(func(e *Env) {
		errs = append(errs, e.SetPgfaultHandler(Pgfault))
		first, _ = findMapping(mustMappings(k, e.GetEnvID()), models.UXSTACK)
		errs = append(errs, e.SetPgfaultHandler(Pgfault))
		second, _ = findMapping(mustMappings(k, e.GetEnvID()), models.UXSTACK)
	}))

	for _, err := range errs {
		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
	}
	if first.Frame != second.Frame || first.Perm != userRW {
		t.Errorf("Expected the same writable exception stack, got %+v then %+v", first, second)
	}
}
