package models

import (
	memModels "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
	memServices "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/services"
)

// EnvID identifica a un environment: los bits bajos son el slot en la tabla y
// los altos una generación que cambia cada vez que el slot se reutiliza, de
// modo que un id viejo no puede confundirse con el ocupante actual.
type EnvID int32

const (
	LOG2NENV    = 10
	NENV        = 1 << LOG2NENV // máximo de slots que puede direccionar un EnvID
	ENVGENSHIFT = 12            // >= LOG2NENV
)

// ENVX devuelve el slot de la tabla que ocupa el environment.
func ENVX(id EnvID) int {
	return int(id) & (NENV - 1)
}

type EnvStatus string

const (
	EnvFree        EnvStatus = "FREE"
	EnvRunnable    EnvStatus = "RUNNABLE"
	EnvRunning     EnvStatus = "RUNNING"
	EnvNotRunnable EnvStatus = "NOT_RUNNABLE"
	EnvDying       EnvStatus = "DYING"
)

// Entry es el punto de entrada de un environment la primera vez que corre.
type Entry func(p Process)

// Upcall es el punto de entrada del manejador de page faults de usuario.
// Corre sobre la pila de excepciones, donde el kernel dejó el UTrapframe.
type Upcall func(p Process)

// ExecContext es el hilo de ejecución simulado del environment: la gorutina
// que lo ejecuta recibe la CPU por Resume y termina cuando se cierra Kill.
type ExecContext struct {
	Started bool
	Resume  chan struct{}
	Kill    chan struct{}
}

// ExceptionContext es el segundo contexto de ejecución: el que usa el upcall
// de page faults sobre la pila de excepciones. Nunca se anida.
type ExceptionContext struct {
	Active bool
	Frame  UTrapframe
}

// Env es el bloque de control de un environment (PCB).
type Env struct {
	ID            EnvID
	ParentID      EnvID
	Status        EnvStatus
	Runs          int
	Tf            Trapframe
	PgfaultUpcall Upcall
	Pgdir         *memServices.Pgdir
	Exec          ExecContext
	Exception     ExceptionContext
}

// EnvInfo es la vista de sólo lectura de un PCB que ve el espacio de usuario.
type EnvInfo struct {
	ID            EnvID     `json:"id"`
	ParentID      EnvID     `json:"parent_id"`
	Status        EnvStatus `json:"status"`
	Runs          int       `json:"runs"`
	Pages         int       `json:"pages"`
	PgfaultUpcall Upcall    `json:"-"`
}

func (e *Env) Info() EnvInfo {
	info := EnvInfo{
		ID:            e.ID,
		ParentID:      e.ParentID,
		Status:        e.Status,
		Runs:          e.Runs,
		PgfaultUpcall: e.PgfaultUpcall,
	}
	if e.Pgdir != nil {
		info.Pages = e.Pgdir.Count()
	}
	return info
}

// Process es la interfaz que el kernel le ofrece a un environment en ejecución:
// las syscalls, las vistas de sólo lectura de su tabla de páginas (vpd/vpt) y
// de la tabla de environments, y las instrucciones de acceso a memoria.
//
// En las syscalls el id 0 significa "el environment actual". Todas devuelven
// un Errno ante un fallo.
type Process interface {
	GetEnvID() EnvID
	// Exofork crea un hijo vacío, NOT_RUNNABLE, con una copia del contexto del
	// padre. El padre recibe el id del hijo; el hijo, cuando corra, arranca en entry.
	Exofork(entry Entry) (EnvID, error)
	PageAlloc(envid EnvID, va uintptr, perm memModels.Perm) error
	PageMap(srcenv EnvID, srcva uintptr, dstenv EnvID, dstva uintptr, perm memModels.Perm) error
	PageUnmap(envid EnvID, va uintptr) error
	EnvSetPgfaultUpcall(envid EnvID, upcall Upcall) error
	EnvSetStatus(envid EnvID, status EnvStatus) error
	EnvDestroy(envid EnvID) error
	Yield()

	Vpd(pdx int) memModels.Perm
	Vpt(pn int) memModels.Perm
	Env(envx int) EnvInfo
	NEnvs() int

	// Load y Store pueden producir un page fault; si el fallo no se resuelve
	// el environment se destruye y la llamada no retorna.
	Load(va uintptr, buf []byte)
	Store(va uintptr, data []byte)
}
