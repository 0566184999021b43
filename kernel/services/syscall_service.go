package services

import (
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
	memModels "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
)

func checkUserVA(va uintptr) error {
	if va >= models.UTOP || va%memModels.PGSIZE != 0 {
		return models.E_INVAL
	}
	return nil
}

func (p *proc) GetEnvID() models.EnvID {
	return p.id
}

// Exofork crea un hijo sin espacio de direcciones, NOT_RUNNABLE, con una
// copia del contexto del padre. Cuando el hijo corra por primera vez
// arrancará en entry.
func (p *proc) Exofork(entry models.Entry) (models.EnvID, error) {
	k := p.k
	k.mu.Lock()
	defer k.mu.Unlock()

	child, err := k.envAlloc(p.env.ID)
	if err != nil {
		slog.Debug(fmt.Sprintf("## (%08x) sys_exofork falló", p.id), "error", err)
		return 0, err
	}
	child.Tf = p.env.Tf
	child.Tf.Entry = entry

	slog.Info(fmt.Sprintf("## (%08x) Crea al hijo %08x", p.id, child.ID))
	return child.ID, nil
}

// PageAlloc reserva un frame en cero y lo mapea en va de envid con perm.
// Si ya había algo mapeado en va se reemplaza.
func (p *proc) PageAlloc(envid models.EnvID, va uintptr, perm memModels.Perm) error {
	k := p.k
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := checkUserVA(va); err != nil {
		return err
	}
	if !perm.Validate() {
		return models.E_INVAL
	}
	e, err := k.envid2env(p.env, envid, true)
	if err != nil {
		return err
	}

	frame, err := k.Mem.AllocateFrame()
	if err != nil {
		return models.E_NO_MEM
	}
	e.Pgdir.Insert(k.Mem, frame, va, perm)
	return nil
}

// PageMap mapea en dstva de dstenv el mismo frame que srcenv tiene en srcva.
// No se puede dar permiso de escritura sobre un frame que el origen sólo
// tiene para lectura.
func (p *proc) PageMap(srcenv models.EnvID, srcva uintptr, dstenv models.EnvID, dstva uintptr, perm memModels.Perm) error {
	k := p.k
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := checkUserVA(srcva); err != nil {
		return err
	}
	if err := checkUserVA(dstva); err != nil {
		return err
	}
	if !perm.Validate() {
		return models.E_INVAL
	}
	src, err := k.envid2env(p.env, srcenv, true)
	if err != nil {
		return err
	}
	dst, err := k.envid2env(p.env, dstenv, true)
	if err != nil {
		return err
	}

	entry, ok := src.Pgdir.Lookup(srcva)
	if !ok {
		return models.E_INVAL
	}
	if perm&memModels.PTE_W != 0 && entry.Perm&memModels.PTE_W == 0 {
		return models.E_INVAL
	}
	dst.Pgdir.Insert(k.Mem, entry.Frame, dstva, perm)
	return nil
}

// PageUnmap desmapea va de envid. Desmapear una página ausente no es un error.
func (p *proc) PageUnmap(envid models.EnvID, va uintptr) error {
	k := p.k
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := checkUserVA(va); err != nil {
		return err
	}
	e, err := k.envid2env(p.env, envid, true)
	if err != nil {
		return err
	}
	e.Pgdir.Remove(k.Mem, va)
	return nil
}

func (p *proc) EnvSetPgfaultUpcall(envid models.EnvID, upcall models.Upcall) error {
	k := p.k
	k.mu.Lock()
	defer k.mu.Unlock()

	e, err := k.envid2env(p.env, envid, true)
	if err != nil {
		return err
	}
	e.PgfaultUpcall = upcall
	return nil
}

// EnvSetStatus sólo acepta RUNNABLE y NOT_RUNNABLE.
func (p *proc) EnvSetStatus(envid models.EnvID, status models.EnvStatus) error {
	k := p.k
	k.mu.Lock()
	defer k.mu.Unlock()

	if status != models.EnvRunnable && status != models.EnvNotRunnable {
		return models.E_INVAL
	}
	e, err := k.envid2env(p.env, envid, true)
	if err != nil {
		return err
	}
	TransitionState(e, status)
	return nil
}

// EnvDestroy destruye a envid. Si es el propio caller no retorna.
func (p *proc) EnvDestroy(envid models.EnvID) error {
	k := p.k
	k.mu.Lock()
	e, err := k.envid2env(p.env, envid, true)
	if err != nil {
		k.mu.Unlock()
		return err
	}
	if e == p.env {
		slog.Info(fmt.Sprintf("[%08x] exiting gracefully", p.id))
	} else {
		slog.Info(fmt.Sprintf("[%08x] destroying %08x", p.id, e.ID))
	}
	self := e == p.env
	k.envDestroy(e)
	k.mu.Unlock()

	if self {
		p.giveUpCPU()
	}
	return nil
}

// Vpd es la vista de sólo lectura del directorio de páginas del caller.
func (p *proc) Vpd(pdx int) memModels.Perm {
	p.k.mu.Lock()
	defer p.k.mu.Unlock()
	return p.env.Pgdir.Pde(pdx)
}

// Vpt es la vista de sólo lectura de las tablas de páginas del caller.
func (p *proc) Vpt(pn int) memModels.Perm {
	p.k.mu.Lock()
	defer p.k.mu.Unlock()
	return p.env.Pgdir.Pte(pn)
}

// Env es la vista de sólo lectura de la tabla de environments.
func (p *proc) Env(envx int) models.EnvInfo {
	p.k.mu.Lock()
	defer p.k.mu.Unlock()

	if envx < 0 || envx >= p.k.Envs.Size() {
		return models.EnvInfo{Status: models.EnvFree}
	}
	return p.k.Envs.Slot(envx).Info()
}

func (p *proc) NEnvs() int {
	return p.k.Envs.Size()
}
