package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/utils/list"
)

// ErrNoFreeFrames se devuelve cuando la memoria física está agotada.
var ErrNoFreeFrames = errors.New("no hay frames libres disponibles para asignar")

// PhysMem es la memoria física simulada: un arreglo de frames de PGSIZE bytes
// con un contador de referencias por frame. Un frame con contador en cero está
// en la lista de libres.
type PhysMem struct {
	UserMemory []byte
	refs       []int
	freeFrames *list.ArrayList[int]
}

// NewPhysMem reserva memorySize bytes de memoria física. El tamaño tiene que
// ser múltiplo de PGSIZE.
func NewPhysMem(memorySize int) (*PhysMem, error) {
	if memorySize <= 0 || memorySize%models.PGSIZE != 0 {
		return nil, fmt.Errorf("tamaño de memoria inválido %d: debe ser múltiplo positivo de %d", memorySize, models.PGSIZE)
	}

	npages := memorySize / models.PGSIZE
	pm := &PhysMem{
		UserMemory: make([]byte, memorySize),
		refs:       make([]int, npages),
		freeFrames: &list.ArrayList[int]{},
	}
	for frame := 0; frame < npages; frame++ {
		pm.freeFrames.Add(frame)
	}

	slog.Debug("Memoria física inicializada", "frames", npages, "tamaño", memorySize)
	return pm, nil
}

// AllocateFrame saca un frame de la lista de libres y lo devuelve en cero.
// El frame vuelve con contador cero: es Insert quien toma la referencia.
func (pm *PhysMem) AllocateFrame() (int, error) {
	frame, err := pm.freeFrames.Dequeue()
	if err != nil {
		slog.Debug(ErrNoFreeFrames.Error())
		return -1, ErrNoFreeFrames
	}
	clear(pm.Page(frame))
	return frame, nil
}

// FreeFrame devuelve un frame sin referencias a la lista de libres.
func (pm *PhysMem) FreeFrame(frame int) {
	if pm.refs[frame] != 0 {
		panic(fmt.Sprintf("liberando frame %d con %d referencias", frame, pm.refs[frame]))
	}
	if _, _, found := pm.freeFrames.Find(func(f int) bool { return f == frame }); found {
		panic(fmt.Sprintf("el frame %d ya está libre", frame))
	}
	pm.freeFrames.Add(frame)
}

func (pm *PhysMem) IncRef(frame int) {
	pm.refs[frame]++
}

// DecRef baja el contador y libera el frame cuando nadie más lo referencia.
func (pm *PhysMem) DecRef(frame int) {
	pm.refs[frame]--
	if pm.refs[frame] < 0 {
		panic(fmt.Sprintf("contador de referencias negativo en frame %d", frame))
	}
	if pm.refs[frame] == 0 {
		pm.FreeFrame(frame)
	}
}

func (pm *PhysMem) Refs(frame int) int {
	return pm.refs[frame]
}

// Page devuelve el contenido del frame como slice sobre UserMemory.
func (pm *PhysMem) Page(frame int) []byte {
	start := frame * models.PGSIZE
	return pm.UserMemory[start : start+models.PGSIZE]
}

func (pm *PhysMem) FreeCount() int {
	return pm.freeFrames.Size()
}

func (pm *PhysMem) TotalFrames() int {
	return len(pm.refs)
}
