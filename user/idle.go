package user

import (
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/lib"
)

// Idle cede la CPU mientras haya otro environment que pueda correr. Cuando ya
// no queda ninguno termina, y con eso el planificador se queda sin trabajo.
func Idle(e *lib.Env) {
	for othersRunnable(e) {
		e.Yield()
	}
	e.Cprintf("idle: no queda nada para ejecutar")
}

func othersRunnable(e *lib.Env) bool {
	self := e.GetEnvID()
	for envx := 0; envx < e.NEnvs(); envx++ {
		info := e.Env(envx)
		if info.ID == self {
			continue
		}
		if info.Status == models.EnvRunnable || info.Status == models.EnvRunning {
			return true
		}
	}
	return false
}
