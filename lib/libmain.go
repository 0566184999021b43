// Package lib es la biblioteca de espacio de usuario: arranque de programas,
// manejo de page faults en usuario y fork con copy-on-write.
package lib

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
)

// Program es el main de un programa de usuario.
type Program func(e *Env)

// Env es la vista que tiene un programa de sí mismo: las syscalls del kernel
// más el slot de su propio PCB en la tabla de environments.
type Env struct {
	models.Process
	thisenv int
}

func newEnv(p models.Process) *Env {
	e := &Env{Process: p}
	e.thisenv = models.ENVX(p.GetEnvID())
	return e
}

// ThisEnv devuelve la vista de sólo lectura del propio PCB.
func (e *Env) ThisEnv() models.EnvInfo {
	return e.Env(e.thisenv)
}

// Libmain arma el punto de entrada de un environment que corre prog. Si
// prog retorna el environment termina.
func Libmain(prog Program) models.Entry {
	return func(p models.Process) {
		e := newEnv(p)
		prog(e)
		e.Exit()
	}
}

// Exit destruye al environment actual. No retorna.
func (e *Env) Exit() {
	_ = e.EnvDestroy(0)
	runtime.Goexit()
}

// Panic reporta una condición irrecuperable y termina al environment (no al
// sistema). No retorna.
func (e *Env) Panic(format string, args ...any) {
	slog.Error(fmt.Sprintf("[%08x] user panic: %s", e.GetEnvID(), fmt.Sprintf(format, args...)))
	e.Exit()
}

func (e *Env) Cprintf(format string, args ...any) {
	slog.Info(fmt.Sprintf("[%08x] %s", e.GetEnvID(), fmt.Sprintf(format, args...)))
}
