package models

import "strings"

/* ---------- Geometría de la MMU (x86 de dos niveles) ----------> */

const (
	PGSHIFT    = 12
	PGSIZE     = 1 << PGSHIFT // bytes por página
	PTXSHIFT   = 12
	PDXSHIFT   = 22
	NPTENTRIES = 1024 // entradas por tabla de páginas
	NPDENTRIES = 1024 // entradas por directorio
	PTSIZE     = PGSIZE * NPTENTRIES
)

// Perm son los bits de permiso de una entrada de tabla de páginas.
type Perm uint32

const (
	PTE_P Perm = 0x001 // Presente
	PTE_W Perm = 0x002 // Escribible
	PTE_U Perm = 0x004 // Usuario

	// PTE_AVAIL son los bits que el hardware ignora y quedan para el sistema.
	PTE_AVAIL Perm = 0xE00
	// PTE_COW marca una página compartida copy-on-write. Vive dentro de PTE_AVAIL.
	PTE_COW Perm = 0x800

	// PTE_SYSCALL son los únicos bits que un proceso puede pedir por syscall.
	PTE_SYSCALL = PTE_AVAIL | PTE_P | PTE_W | PTE_U
)

func (p Perm) Has(bits Perm) bool {
	return p&bits == bits
}

// Validate verifica que la combinación sea mapeable desde espacio de usuario:
// tiene que ser presente y de usuario, no puede traer bits reservados del
// hardware y nunca puede ser escribible y COW a la vez.
func (p Perm) Validate() bool {
	if !p.Has(PTE_P | PTE_U) {
		return false
	}
	if p&^PTE_SYSCALL != 0 {
		return false
	}
	return !(p&PTE_W != 0 && p&PTE_COW != 0)
}

func (p Perm) String() string {
	if p == 0 {
		return "-"
	}
	var parts []string
	names := []struct {
		bit  Perm
		name string
	}{
		{PTE_P, "P"},
		{PTE_W, "W"},
		{PTE_U, "U"},
		{PTE_COW, "COW"},
	}
	rest := p
	for _, n := range names {
		if p&n.bit != 0 {
			parts = append(parts, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		parts = append(parts, "AVAIL")
	}
	return strings.Join(parts, "|")
}

// PDX devuelve el índice en el directorio de páginas de una dirección virtual.
func PDX(va uintptr) int {
	return int((va >> PDXSHIFT) & 0x3FF)
}

// PTX devuelve el índice en la tabla de páginas de una dirección virtual.
func PTX(va uintptr) int {
	return int((va >> PTXSHIFT) & 0x3FF)
}

// PGNUM es el número de página virtual (índice lineal en vpt).
func PGNUM(va uintptr) int {
	return int(va >> PTXSHIFT)
}

// PGADDR arma la dirección virtual a partir de los índices de directorio y tabla.
func PGADDR(pdx, ptx int) uintptr {
	return uintptr(pdx)<<PDXSHIFT | uintptr(ptx)<<PTXSHIFT
}

func RoundDown(va uintptr) uintptr {
	return va &^ (PGSIZE - 1)
}
