package services

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
)

// proc es la vista que tiene un environment del kernel mientras ejecuta:
// implementa models.Process. Guarda sus propios canales porque el slot del
// PCB puede reutilizarse después de que el environment muera.
type proc struct {
	k      *Kernel
	env    *models.Env
	id     models.EnvID
	entry  models.Entry
	resume <-chan struct{}
	kill   <-chan struct{}
}

func newProc(k *Kernel, e *models.Env) *proc {
	return &proc{
		k:      k,
		env:    e,
		id:     e.ID,
		entry:  e.Tf.Entry,
		resume: e.Exec.Resume,
		kill:   e.Exec.Kill,
	}
}

// envMain es el cuerpo de la gorutina de un environment. Espera la CPU,
// corre el punto de entrada y, si el programa retorna, el environment termina.
func (k *Kernel) envMain(p *proc) {
	p.wait()
	slog.Debug(fmt.Sprintf("## (%08x) Primera ejecución", p.id))

	if p.entry != nil {
		p.entry(p)
	}
	p.exit()
}

// wait estaciona la gorutina hasta que el planificador le devuelva la CPU.
// Si mientras tanto el environment fue destruido, la gorutina termina.
func (p *proc) wait() {
	select {
	case <-p.resume:
	case <-p.kill:
		runtime.Goexit()
	}
}

// Yield devuelve la CPU al planificador.
func (p *proc) Yield() {
	p.k.mu.Lock()
	if p.env.Status == models.EnvRunning {
		TransitionState(p.env, models.EnvRunnable)
	}
	p.k.mu.Unlock()

	p.k.trap <- trapYield
	p.wait()
}

// exit destruye al environment actual. No retorna.
func (p *proc) exit() {
	p.k.mu.Lock()
	p.k.envDestroy(p.env)
	p.k.mu.Unlock()

	p.giveUpCPU()
}

// giveUpCPU avisa al planificador que el environment actual ya no existe y
// termina la gorutina.
func (p *proc) giveUpCPU() {
	p.k.trap <- trapExit
	runtime.Goexit()
}
