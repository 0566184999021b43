package monitor

import (
	"image"

	"github.com/fogleman/gg"

	memModels "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
)

const (
	cellSize    = 24
	cellPadding = 2
	cellsPerRow = 16
	headerSize  = 20
	legendSize  = 20
)

// colores por tipo de página
var (
	colorCOW      = [3]float64{0.95, 0.55, 0.10}
	colorWritable = [3]float64{0.20, 0.70, 0.30}
	colorReadOnly = [3]float64{0.25, 0.45, 0.85}
	colorShared   = [3]float64{0.10, 0.10, 0.10}
)

// cellColor elige el color de una página según sus permisos.
func cellColor(perm memModels.Perm) [3]float64 {
	switch {
	case perm.Has(memModels.PTE_COW):
		return colorCOW
	case perm.Has(memModels.PTE_W):
		return colorWritable
	default:
		return colorReadOnly
	}
}

// cellOrigin es la esquina superior izquierda de la celda i.
func cellOrigin(i int) (float64, float64) {
	col := i % cellsPerRow
	row := i / cellsPerRow
	return float64(col * cellSize), float64(headerSize + row*cellSize)
}

// RenderMappings dibuja una celda por página presente, en orden de dirección.
// Las páginas con más de una referencia llevan un borde oscuro.
func RenderMappings(title string, mappings []memModels.Mapping) image.Image {
	rows := (len(mappings) + cellsPerRow - 1) / cellsPerRow
	if rows == 0 {
		rows = 1
	}
	width := cellsPerRow * cellSize
	height := headerSize + rows*cellSize + legendSize

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0, 0, 0)
	dc.DrawString(title, 4, 14)

	for i, mp := range mappings {
		x, y := cellOrigin(i)
		if mp.Refs > 1 {
			dc.SetRGB(colorShared[0], colorShared[1], colorShared[2])
			dc.DrawRectangle(x, y, cellSize, cellSize)
			dc.Fill()
		}
		c := cellColor(mp.Perm)
		dc.SetRGB(c[0], c[1], c[2])
		dc.DrawRectangle(x+cellPadding, y+cellPadding, cellSize-2*cellPadding, cellSize-2*cellPadding)
		dc.Fill()
	}

	dc.SetRGB(0, 0, 0)
	dc.DrawString("verde=W azul=RO naranja=COW borde=compartida", 4, float64(height-6))
	return dc.Image()
}

// SaveMappingsPNG guarda RenderMappings en path.
func SaveMappingsPNG(path string, title string, mappings []memModels.Mapping) error {
	return gg.SavePNG(path, RenderMappings(title, mappings))
}
