package lib

import (
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
	memModels "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
)

// ForkResult es lo que observa cada lado de un Fork: Parent en el proceso que
// lo llamó y Child en el proceso nuevo.
type ForkResult interface {
	isForkResult()
}

type Parent struct {
	ChildID models.EnvID
}

type Child struct{}

func (Parent) isForkResult() {}
func (Child) isForkResult()  {}

// Pgfault es el manejador copy-on-write: si el fallo fue una escritura sobre
// una página COW, la reemplaza por una copia privada y escribible.
// Cualquier otro fallo termina al environment.
func Pgfault(e *Env, utf models.UTrapframe) {
	addr := uintptr(utf.FaultVA)
	pgaddr := memModels.RoundDown(addr)

	if !utf.IsWriteOnPresent() {
		e.Panic("[%08x] user fault in library handler va %08x ip %08x: nonexistent or protected page", e.GetEnvID(), addr, utf.EIP)
	}

	perm := e.Vpt(memModels.PGNUM(pgaddr)) & memModels.PTE_SYSCALL
	if !perm.Has(memModels.PTE_U | memModels.PTE_COW) {
		e.Panic("[%08x] user fault in library handler va %08x ip %08x: not a user or COW page", e.GetEnvID(), addr, utf.EIP)
	}
	nperm := (perm &^ memModels.PTE_COW) | memModels.PTE_W

	// Página nueva en PFTEMP, copia del contenido y mudanza a la dirección original.
	if err := e.PageAlloc(0, models.PFTEMP, nperm); err != nil {
		e.Panic("sys_page_alloc: %v", err)
	}
	page := make([]byte, memModels.PGSIZE)
	e.Load(pgaddr, page)
	e.Store(models.PFTEMP, page)

	if err := e.PageMap(0, models.PFTEMP, 0, pgaddr, nperm); err != nil {
		e.Panic("sys_page_map: %v", err)
	}
	if err := e.PageUnmap(0, models.PFTEMP); err != nil {
		e.Panic("sys_page_unmap: %v", err)
	}
}

// Duppage mapea la página pn del caller en envid, en la misma dirección. Si
// la página es escribible o COW, ambos mapeos quedan COW: primero se degrada
// el propio mapeo y después se comparte.
func (e *Env) Duppage(envid models.EnvID, pn int) error {
	perm := e.Vpt(pn) & memModels.PTE_SYSCALL
	addr := uintptr(pn) << memModels.PGSHIFT

	if perm&(memModels.PTE_W|memModels.PTE_COW) != 0 {
		perm = (perm &^ memModels.PTE_W) | memModels.PTE_COW
		if err := e.PageMap(0, addr, 0, addr, perm); err != nil {
			return err
		}
	}
	return e.PageMap(0, addr, envid, addr, perm)
}

// Fork crea un hijo que comparte copy-on-write todo el espacio de usuario
// del caller menos la pila de excepciones.
//
// cont recibe las dos observaciones del fork: el caller la ejecuta antes de
// que Fork retorne con Parent{ChildID}; el hijo, cuando el planificador lo
// elija por primera vez, con Child{}. En el hijo, cuando cont retorna el
// environment termina. Ante un error no se llama a cont y el hijo, si llegó a
// crearse, se destruye.
func (e *Env) Fork(cont func(e *Env, r ForkResult)) error {
	if err := e.SetPgfaultHandler(Pgfault); err != nil {
		return err
	}

	cpid, err := e.Exofork(func(p models.Process) {
		child := &Env{Process: p}
		child.thisenv = models.ENVX(child.GetEnvID())
		cont(child, Child{})
		child.Exit()
	})
	if err != nil {
		return err
	}

	if err := e.setupChild(cpid); err != nil {
		slog.Debug(fmt.Sprintf("[%08x] fork: se destruye al hijo %08x", e.GetEnvID(), cpid), "error", err)
		// Si la destrucción falla no se reporta: el error que importa es el original.
		_ = e.EnvDestroy(cpid)
		return err
	}

	cont(e, Parent{ChildID: cpid})
	return nil
}

// setupChild deja al hijo listo para correr. La pila de excepciones y el
// upcall tienen que existir antes que cualquier mapeo COW.
func (e *Env) setupChild(cpid models.EnvID) error {
	if err := e.PageAlloc(cpid, models.UXSTACK, memModels.PTE_P|memModels.PTE_U|memModels.PTE_W); err != nil {
		return err
	}
	if err := e.EnvSetPgfaultUpcall(cpid, e.ThisEnv().PgfaultUpcall); err != nil {
		return err
	}
	if err := e.duplicateAddressSpace(cpid); err != nil {
		return err
	}
	return e.EnvSetStatus(cpid, models.EnvRunnable)
}

// duplicateAddressSpace recorre vpd y, por cada tabla presente, vpt, y
// comparte con el hijo cada página presente y de usuario por debajo de UTOP.
func (e *Env) duplicateAddressSpace(cpid models.EnvID) error {
	userPage := memModels.PTE_P | memModels.PTE_U
	xstackPn := memModels.PGNUM(models.UXSTACK)

	for pdx := 0; pdx < memModels.PDX(models.UTOP); pdx++ {
		if !e.Vpd(pdx).Has(userPage) {
			continue
		}
		for ptx := 0; ptx < memModels.NPTENTRIES; ptx++ {
			pn := pdx*memModels.NPTENTRIES + ptx
			if pn == xstackPn || !e.Vpt(pn).Has(userPage) {
				continue
			}
			if err := e.Duppage(cpid, pn); err != nil {
				return err
			}
		}
	}
	return nil
}
