package services

import (
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
)

// TransitionState cambia el estado de un environment y lo registra en el log.
// Los cambios entre RUNNABLE y RUNNING ocurren en cada vuelta del planificador
// y se loguean en DEBUG.
func TransitionState(e *models.Env, newState models.EnvStatus) {
	oldState := e.Status
	if oldState == newState {
		return
	}
	e.Status = newState

	msg := fmt.Sprintf("## (%08x) Pasa del estado %s al estado %s", e.ID, oldState, newState)
	if isDispatch(oldState, newState) {
		slog.Debug(msg)
		return
	}
	slog.Info(msg)
}

func isDispatch(oldState, newState models.EnvStatus) bool {
	return (oldState == models.EnvRunnable && newState == models.EnvRunning) ||
		(oldState == models.EnvRunning && newState == models.EnvRunnable)
}
