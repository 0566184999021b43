package models

// PageEntry es la hoja de la tabla: el frame físico y sus permisos.
type PageEntry struct {
	Frame int
	Perm  Perm
}

// PageTableLevel es un nodo de la tabla multinivel. Los niveles intermedios
// sólo tienen SubTables; las hojas tienen Entry.
type PageTableLevel struct {
	IsLeaf    bool
	SubTables map[int]*PageTableLevel
	Entry     *PageEntry
}

// Mapping es una fila de la vista de un espacio de direcciones (monitor, HTTP, dumps).
type Mapping struct {
	VA    uintptr `json:"va"`
	Frame int     `json:"frame"`
	Perm  Perm    `json:"perm"`
	Flags string  `json:"flags"`
	Refs  int     `json:"refs"`
}
