package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/helpers"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
)

// ErrNothingToDo indica que no queda ningún environment RUNNABLE, ni siquiera el idle.
var ErrNothingToDo = errors.New("Destroyed all environments - nothing more to do!")

// PickNext elige el próximo environment en round-robin. Recorre la tabla en
// forma circular empezando en el slot siguiente a cur (o en el 1 si no hay
// ninguno corriendo), sin mirar nunca el slot del idle, y se queda con el
// primer RUNNABLE. La vuelta incluye al propio cur, así un único environment
// ejecutable vuelve a ser elegido. Si no aparece ninguno, el idle es el
// último recurso. Devuelve nil si tampoco el idle es ejecutable.
func PickNext(envs *helpers.EnvTable, cur *models.Env) *models.Env {
	n := envs.Size()

	start := 1
	if cur != nil {
		start = (models.ENVX(cur.ID) + 1) % n
	}

	for i := 0; i < n; i++ {
		slot := (start + i) % n
		if slot == helpers.IdleSlot {
			continue
		}
		if e := envs.Slot(slot); e.Status == models.EnvRunnable {
			return e
		}
	}

	if idle := envs.Slot(helpers.IdleSlot); idle.Status == models.EnvRunnable {
		return idle
	}
	return nil
}

// Run es el planificador: elige un environment, le transfiere la CPU y
// espera a que la devuelva (cede, termina o es destruido). Sólo retorna cuando
// no queda nada ejecutable (ErrNothingToDo) o cuando se cancela ctx; a partir
// de ahí el kernel queda estacionado a disposición del monitor.
func (k *Kernel) Run(ctx context.Context) error {
	slog.Info("Planificador iniciado.")
	for {
		if err := ctx.Err(); err != nil {
			slog.Warn("Planificador detenido", "error", err)
			return err
		}

		k.mu.Lock()
		e := PickNext(k.Envs, k.curenv)
		if e == nil {
			k.curenv = nil
			k.mu.Unlock()
			slog.Info(ErrNothingToDo.Error())
			return ErrNothingToDo
		}
		k.envRun(e)

		kind := <-k.trap
		slog.Debug(fmt.Sprintf("## (%08x) Devuelve la CPU", e.ID), "motivo", kind)
	}
}

// envRun le da la CPU a e. Se llama con el lock tomado y lo libera antes de
// despertar a la gorutina del environment.
func (k *Kernel) envRun(e *models.Env) {
	if k.curenv != nil && k.curenv != e && k.curenv.Status == models.EnvRunning {
		TransitionState(k.curenv, models.EnvRunnable)
	}
	k.curenv = e
	TransitionState(e, models.EnvRunning)
	e.Runs++
	k.recordRun(e.ID)

	if !e.Exec.Started {
		e.Exec.Started = true
		go k.envMain(newProc(k, e))
	}
	resume := e.Exec.Resume
	k.mu.Unlock()

	resume <- struct{}{}
}

func (t trapKind) String() string {
	switch t {
	case trapYield:
		return "yield"
	case trapExit:
		return "exit"
	default:
		return "unknown"
	}
}
