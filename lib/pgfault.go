package lib

import (
	"fmt"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
	memModels "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
)

// PgfaultHandler es un manejador de page faults de usuario.
type PgfaultHandler func(e *Env, utf models.UTrapframe)

// SetPgfaultHandler instala handler como manejador de page faults del
// environment. La primera vez reserva la pila de excepciones.
func (e *Env) SetPgfaultHandler(handler PgfaultHandler) error {
	if !e.Vpt(memModels.PGNUM(models.UXSTACK)).Has(memModels.PTE_P) {
		err := e.PageAlloc(0, models.UXSTACK, memModels.PTE_P|memModels.PTE_U|memModels.PTE_W)
		if err != nil {
			return fmt.Errorf("set_pgfault_handler: %w", err)
		}
	}
	if err := e.EnvSetPgfaultUpcall(0, pgfaultUpcall(handler)); err != nil {
		return fmt.Errorf("set_pgfault_handler: %w", err)
	}
	return nil
}

// pgfaultUpcall es el punto de entrada que ve el kernel: toma el UTrapframe
// que quedó en el tope de la pila de excepciones y se lo pasa a handler.
func pgfaultUpcall(handler PgfaultHandler) models.Upcall {
	return func(p models.Process) {
		e := newEnv(p)

		buf := make([]byte, models.UTrapframeSize)
		e.Load(models.UXSTACKTOP-models.UTrapframeSize, buf)
		utf, err := models.DecodeUTrapframe(buf)
		if err != nil {
			e.Panic("pgfault upcall: UTrapframe ilegible: %v", err)
		}
		handler(e, utf)
	}
}
