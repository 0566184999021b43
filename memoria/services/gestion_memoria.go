package services

import (
	"sort"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
)

const numberOfLevels = 2

// Pgdir es el espacio de direcciones de un proceso: un directorio de páginas
// de dos niveles armado con la misma estructura multinivel de PageTableLevel.
type Pgdir struct {
	root *models.PageTableLevel
}

func NewPgdir() *Pgdir {
	return &Pgdir{root: createPageTableLevel()}
}

func createPageTableLevel() *models.PageTableLevel {
	return &models.PageTableLevel{
		IsLeaf:    false,
		SubTables: make(map[int]*models.PageTableLevel),
	}
}

// De acuerdo a la cantidad de niveles de la tabla y la cantidad de entradas por nivel.
func getPageIndices(pageNumber int, levels int, entriesPerLevel int) []int {
	indices := make([]int, levels)
	for i := levels - 1; i >= 0; i-- {
		indices[i] = pageNumber % entriesPerLevel
		pageNumber /= entriesPerLevel
	}
	return indices
}

// Walk devuelve la entrada de la hoja que corresponde a va. Si create es true
// crea la tabla intermedia y la hoja vacía cuando no existen; si no, devuelve nil.
func (pd *Pgdir) Walk(va uintptr, create bool) *models.PageEntry {
	indices := getPageIndices(models.PGNUM(va), numberOfLevels, models.NPTENTRIES)

	current := pd.root
	for level := 0; level < numberOfLevels-1; level++ {
		next, exists := current.SubTables[indices[level]]
		if !exists {
			if !create {
				return nil
			}
			next = createPageTableLevel()
			current.SubTables[indices[level]] = next
		}
		current = next
	}

	lastIdx := indices[numberOfLevels-1]
	leaf, exists := current.SubTables[lastIdx]
	if !exists {
		if !create {
			return nil
		}
		leaf = &models.PageTableLevel{IsLeaf: true, Entry: &models.PageEntry{Frame: -1}}
		current.SubTables[lastIdx] = leaf
	}
	return leaf.Entry
}

// Lookup devuelve la entrada de va sólo si está presente.
func (pd *Pgdir) Lookup(va uintptr) (*models.PageEntry, bool) {
	entry := pd.Walk(va, false)
	if entry == nil || entry.Perm&models.PTE_P == 0 {
		return nil, false
	}
	return entry, true
}

// Insert mapea frame en va con perm. Si ya había otro frame mapeado se
// desmapea. Reinsertar el mismo frame en la misma va sólo cambia los permisos:
// la referencia se toma antes de remover para que el frame no se libere.
func (pd *Pgdir) Insert(pm *PhysMem, frame int, va uintptr, perm models.Perm) {
	entry := pd.Walk(va, true)

	pm.IncRef(frame)
	if entry.Perm&models.PTE_P != 0 {
		pd.Remove(pm, va)
	}
	entry.Frame = frame
	entry.Perm = perm | models.PTE_P
}

// Remove desmapea va. Desmapear algo que no está mapeado no hace nada.
func (pd *Pgdir) Remove(pm *PhysMem, va uintptr) {
	entry, ok := pd.Lookup(va)
	if !ok {
		return
	}
	frame := entry.Frame
	entry.Frame = -1
	entry.Perm = 0
	pm.DecRef(frame)
}

// Pde es la vista del directorio: permisos de la entrada pdx.
func (pd *Pgdir) Pde(pdx int) models.Perm {
	if _, exists := pd.root.SubTables[pdx]; exists {
		return models.PTE_P | models.PTE_W | models.PTE_U
	}
	return 0
}

// Pte es la vista lineal de las tablas: permisos de la página pn.
func (pd *Pgdir) Pte(pn int) models.Perm {
	entry, ok := pd.Lookup(uintptr(pn) << models.PGSHIFT)
	if !ok {
		return 0
	}
	return entry.Perm
}

// ForEach recorre las páginas presentes en orden ascendente de dirección.
func (pd *Pgdir) ForEach(fn func(va uintptr, entry models.PageEntry)) {
	pdxs := sortedKeys(pd.root.SubTables)
	for _, pdx := range pdxs {
		table := pd.root.SubTables[pdx]
		for _, ptx := range sortedKeys(table.SubTables) {
			leaf := table.SubTables[ptx]
			if leaf.Entry == nil || leaf.Entry.Perm&models.PTE_P == 0 {
				continue
			}
			fn(models.PGADDR(pdx, ptx), *leaf.Entry)
		}
	}
}

// Count es la cantidad de páginas presentes.
func (pd *Pgdir) Count() int {
	count := 0
	pd.ForEach(func(uintptr, models.PageEntry) { count++ })
	return count
}

func sortedKeys(m map[int]*models.PageTableLevel) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
