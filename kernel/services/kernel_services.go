package services

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/helpers"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
	memModels "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
	memServices "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/services"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/utils/list"
)

// runTraceLimit es cuántas selecciones del planificador se recuerdan.
const runTraceLimit = 1024

type trapKind int

const (
	trapYield trapKind = iota // el environment cedió la CPU
	trapExit                  // el environment se destruyó a sí mismo
)

// Kernel es el estado del núcleo simulado: la tabla de environments, la
// memoria física y el environment que tiene la CPU. mu es el lock grande del
// kernel: lo toman las syscalls, la MMU y los inspectores (monitor, HTTP).
type Kernel struct {
	mu       sync.Mutex
	Envs     *helpers.EnvTable
	Mem      *memServices.PhysMem
	curenv   *models.Env
	trap     chan trapKind
	runTrace *list.ArrayList[models.EnvID]
}

// NewKernel arma un kernel con memorySize bytes de memoria física y una tabla
// de 1<<log2Envs environments.
func NewKernel(memorySize int, log2Envs int) (*Kernel, error) {
	mem, err := memServices.NewPhysMem(memorySize)
	if err != nil {
		return nil, err
	}
	envs, err := helpers.NewEnvTable(log2Envs)
	if err != nil {
		return nil, err
	}

	slog.Debug("Kernel inicializado", "frames", mem.TotalFrames(), "envs", envs.Size())
	return &Kernel{
		Envs:     envs,
		Mem:      mem,
		trap:     make(chan trapKind),
		runTrace: &list.ArrayList[models.EnvID]{},
	}, nil
}

// EnvCreate crea un environment raíz listo para correr entry.
func (k *Kernel) EnvCreate(name string, entry models.Entry) (models.EnvID, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, err := k.Envs.Alloc(0)
	if err != nil {
		return 0, err
	}
	if err := k.setupEnv(e, name, entry); err != nil {
		return 0, err
	}
	slog.Info(fmt.Sprintf("## (%08x) Se crea el environment %q", e.ID, name))
	return e.ID, nil
}

// CreateIdle crea el environment idle en el slot reservado.
func (k *Kernel) CreateIdle(entry models.Entry) (models.EnvID, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, err := k.Envs.AllocIdle()
	if err != nil {
		return 0, err
	}
	if err := k.setupEnv(e, "idle", entry); err != nil {
		return 0, err
	}
	slog.Info(fmt.Sprintf("## (%08x) Se crea el environment idle", e.ID))
	return e.ID, nil
}

// setupEnv mapea la imagen del programa (una página de sólo lectura en UTEXT
// con su nombre) y la pila de usuario, y deja al environment RUNNABLE.
func (k *Kernel) setupEnv(e *models.Env, name string, entry models.Entry) error {
	e.Pgdir = memServices.NewPgdir()

	text, err := k.Mem.AllocateFrame()
	if err != nil {
		k.envFree(e)
		return models.E_NO_MEM
	}
	copy(k.Mem.Page(text), name)
	e.Pgdir.Insert(k.Mem, text, models.UTEXT, memModels.PTE_P|memModels.PTE_U)

	stack, err := k.Mem.AllocateFrame()
	if err != nil {
		k.envFree(e)
		return models.E_NO_MEM
	}
	e.Pgdir.Insert(k.Mem, stack, models.USTACKTOP-memModels.PGSIZE, memModels.PTE_P|memModels.PTE_U|memModels.PTE_W)

	e.Tf = models.Trapframe{
		EIP:   uint32(models.UTEXT),
		ESP:   uint32(models.USTACKTOP),
		Entry: entry,
	}
	TransitionState(e, models.EnvRunnable)
	return nil
}

// EnvInfos devuelve la vista de todos los environments ocupados.
func (k *Kernel) EnvInfos() []models.EnvInfo {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.Envs.Snapshot()
}

// Curenv devuelve el id del environment que tiene la CPU, o 0 si no hay ninguno.
func (k *Kernel) Curenv() models.EnvID {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.curenv == nil {
		return 0
	}
	return k.curenv.ID
}

// Mappings devuelve las páginas presentes del environment id.
func (k *Kernel) Mappings(id models.EnvID) ([]memModels.Mapping, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.Envs.Get(id)
	if !ok {
		return nil, models.E_BAD_ENV
	}
	return e.Pgdir.Mappings(k.Mem), nil
}

// ReadPage copia el contenido de la página va del environment id.
func (k *Kernel) ReadPage(id models.EnvID, va uintptr) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.Envs.Get(id)
	if !ok {
		return nil, models.E_BAD_ENV
	}
	entry, ok := e.Pgdir.Lookup(va)
	if !ok {
		return nil, models.E_INVAL
	}
	return append([]byte(nil), k.Mem.Page(entry.Frame)...), nil
}

// DumpEnv escribe el contenido del espacio de direcciones de id en dumpPath.
func (k *Kernel) DumpEnv(id models.EnvID, dumpPath string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.Envs.Get(id)
	if !ok {
		return "", models.E_BAD_ENV
	}
	return memServices.ExecuteDumpMemory(uint32(e.ID), e.Pgdir, k.Mem, dumpPath)
}

// MemStats devuelve la cantidad total de frames y cuántos quedan libres.
func (k *Kernel) MemStats() (total int, free int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.Mem.TotalFrames(), k.Mem.FreeCount()
}

// RunTrace devuelve los ids elegidos por el planificador, del más viejo al más nuevo.
func (k *Kernel) RunTrace() []models.EnvID {
	return k.runTrace.GetAll()
}

func (k *Kernel) recordRun(id models.EnvID) {
	if k.runTrace.Size() >= runTraceLimit {
		_, _ = k.runTrace.Dequeue()
	}
	k.runTrace.Add(id)
}

// Shutdown destruye todos los environments que quedaron. Sólo se puede
// llamar cuando el planificador no está corriendo.
func (k *Kernel) Shutdown() {
	k.mu.Lock()
	defer k.mu.Unlock()

	// Ningún environment tiene la CPU: todos están estacionados o sin arrancar.
	k.curenv = nil
	for slot := 0; slot < k.Envs.Size(); slot++ {
		if e := k.Envs.Slot(slot); e.Status != models.EnvFree {
			k.envDestroy(e)
		}
	}
}
