package services

import (
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
)

// Clear desmapea todas las páginas del espacio de direcciones y descarta las
// tablas. Los frames que quedan sin referencias vuelven a la lista de libres.
func (pd *Pgdir) Clear(pm *PhysMem) {
	var vas []uintptr
	pd.ForEach(func(va uintptr, _ models.PageEntry) {
		vas = append(vas, va)
	})
	for _, va := range vas {
		pd.Remove(pm, va)
	}
	pd.root = createPageTableLevel()
	slog.Debug("Espacio de direcciones liberado", "paginas", len(vas))
}

// Mappings arma la vista de las páginas presentes, con las referencias de cada frame.
func (pd *Pgdir) Mappings(pm *PhysMem) []models.Mapping {
	var mappings []models.Mapping
	pd.ForEach(func(va uintptr, entry models.PageEntry) {
		mappings = append(mappings, models.Mapping{
			VA:    va,
			Frame: entry.Frame,
			Perm:  entry.Perm,
			Flags: entry.Perm.String(),
			Refs:  pm.Refs(entry.Frame),
		})
	})
	return mappings
}
