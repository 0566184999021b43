package helpers

import (
	"fmt"
	"sync"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
)

// IdleSlot es el slot reservado para el environment idle.
const IdleSlot = 0

// EnvTable es la tabla de PCBs: un arreglo fijo de slots que se reutilizan.
// Cada reutilización cambia la generación del id, así un id viejo deja de
// resolver al nuevo ocupante.
type EnvTable struct {
	mx   sync.Mutex
	envs []*models.Env
}

// NewEnvTable crea una tabla de 1<<log2 slots, todos libres.
func NewEnvTable(log2 int) (*EnvTable, error) {
	if log2 < 1 || log2 > models.LOG2NENV {
		return nil, fmt.Errorf("log2_envs inválido %d: debe estar entre 1 y %d", log2, models.LOG2NENV)
	}

	envs := make([]*models.Env, 1<<log2)
	for i := range envs {
		envs[i] = &models.Env{Status: models.EnvFree}
	}
	return &EnvTable{envs: envs}, nil
}

func (t *EnvTable) Size() int {
	return len(t.envs)
}

// Slot devuelve el PCB del slot i, esté libre o no.
func (t *EnvTable) Slot(i int) *models.Env {
	t.mx.Lock()
	defer t.mx.Unlock()
	return t.envs[i]
}

// Alloc toma el primer slot libre distinto del idle y le asigna un id nuevo.
// El PCB vuelve en NOT_RUNNABLE y sin espacio de direcciones.
func (t *EnvTable) Alloc(parent models.EnvID) (*models.Env, error) {
	t.mx.Lock()
	defer t.mx.Unlock()

	for slot := 1; slot < len(t.envs); slot++ {
		if t.envs[slot].Status == models.EnvFree {
			return t.claim(slot, parent), nil
		}
	}
	return nil, models.E_NO_FREE_ENV
}

// AllocIdle reserva el slot 0 para el environment idle.
func (t *EnvTable) AllocIdle() (*models.Env, error) {
	t.mx.Lock()
	defer t.mx.Unlock()

	if t.envs[IdleSlot].Status != models.EnvFree {
		return nil, fmt.Errorf("el slot idle ya está ocupado por %08x", t.envs[IdleSlot].ID)
	}
	return t.claim(IdleSlot, 0), nil
}

func (t *EnvTable) claim(slot int, parent models.EnvID) *models.Env {
	e := t.envs[slot]

	generation := (e.ID + (1 << models.ENVGENSHIFT)) &^ (models.NENV - 1)
	if generation <= 0 {
		generation = 1 << models.ENVGENSHIFT
	}

	*e = models.Env{
		ID:       generation | models.EnvID(slot),
		ParentID: parent,
		Status:   models.EnvNotRunnable,
		Exec: models.ExecContext{
			Resume: make(chan struct{}),
			Kill:   make(chan struct{}),
		},
	}
	return e
}

// Get resuelve un id al PCB que lo ocupa. Falla si el slot está libre o si el
// id es de una generación anterior.
func (t *EnvTable) Get(id models.EnvID) (*models.Env, bool) {
	t.mx.Lock()
	defer t.mx.Unlock()

	slot := models.ENVX(id)
	if id <= 0 || slot >= len(t.envs) {
		return nil, false
	}
	e := t.envs[slot]
	if e.Status == models.EnvFree || e.ID != id {
		return nil, false
	}
	return e, true
}

// Free devuelve el slot a la tabla. Conserva el id para calcular la próxima generación.
func (t *EnvTable) Free(e *models.Env) {
	t.mx.Lock()
	defer t.mx.Unlock()

	*e = models.Env{ID: e.ID, Status: models.EnvFree}
}

// Snapshot devuelve la vista de todos los environments ocupados.
func (t *EnvTable) Snapshot() []models.EnvInfo {
	t.mx.Lock()
	defer t.mx.Unlock()

	var infos []models.EnvInfo
	for _, e := range t.envs {
		if e.Status != models.EnvFree {
			infos = append(infos, e.Info())
		}
	}
	return infos
}
