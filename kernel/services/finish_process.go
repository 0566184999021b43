package services

import (
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
	memServices "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/services"
)

// envAlloc toma un slot nuevo con un espacio de direcciones vacío.
// Se llama con el lock del kernel tomado.
func (k *Kernel) envAlloc(parent models.EnvID) (*models.Env, error) {
	e, err := k.Envs.Alloc(parent)
	if err != nil {
		return nil, err
	}
	e.Pgdir = memServices.NewPgdir()
	return e, nil
}

// envDestroy termina un environment: desmapea todo su espacio de direcciones,
// termina su hilo de ejecución si estaba estacionado y libera el slot.
// Si es el environment actual, el llamador tiene que devolver la CPU.
// Se llama con el lock del kernel tomado.
func (k *Kernel) envDestroy(e *models.Env) {
	TransitionState(e, models.EnvDying)

	if e.Exec.Started && e != k.curenv {
		close(e.Exec.Kill)
	}
	if e == k.curenv {
		k.curenv = nil
	}

	pages := 0
	if e.Pgdir != nil {
		pages = e.Pgdir.Count()
	}
	k.envFree(e)
	slog.Info(fmt.Sprintf("## (%08x) Environment destruido", e.ID), "paginas", pages, "frames_libres", k.Mem.FreeCount())
}

// envFree devuelve los frames y el slot.
func (k *Kernel) envFree(e *models.Env) {
	if e.Pgdir != nil {
		e.Pgdir.Clear(k.Mem)
	}
	k.Envs.Free(e)
}

// envid2env resuelve un id de syscall. 0 es el propio caller. Con checkperm
// el destino tiene que ser el caller o un hijo directo suyo.
func (k *Kernel) envid2env(caller *models.Env, id models.EnvID, checkperm bool) (*models.Env, error) {
	if id == 0 {
		return caller, nil
	}

	e, ok := k.Envs.Get(id)
	if !ok {
		return nil, models.E_BAD_ENV
	}
	if checkperm && e != caller && e.ParentID != caller.ID {
		return nil, models.E_BAD_ENV
	}
	return e, nil
}
