package services

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/helpers"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
)

// ExecuteDumpMemory escribe en dumpPath el contenido de todas las páginas
// presentes del espacio de direcciones, en orden ascendente de dirección.
// Devuelve la ruta del archivo generado.
func ExecuteDumpMemory(envID uint32, pd *Pgdir, pm *PhysMem, dumpPath string) (string, error) {
	slog.Info(fmt.Sprintf("## (%08x) - Memory Dump solicitado", envID))

	helpers.CreateDirectory(dumpPath)
	dumpFilePath := filepath.Join(dumpPath, helpers.GetDumpName(envID))

	file, err := os.Create(dumpFilePath)
	if err != nil {
		slog.Error(fmt.Sprintf("error al crear archivo de dump: %v", err))
		return "", err
	}
	defer file.Close()

	var writeErr error
	pages := 0
	pd.ForEach(func(_ uintptr, entry models.PageEntry) {
		if writeErr != nil {
			return
		}
		_, writeErr = file.Write(pm.Page(entry.Frame))
		pages++
	})
	if writeErr != nil {
		slog.Error("Fallo al escribir contenido en el archivo de dump")
		return "", fmt.Errorf("fallo al escribir datos al archivo de dump: %w", writeErr)
	}

	slog.Info(fmt.Sprintf("## (%08x) - Memory Dump completado", envID), "paginas", pages, "archivo", dumpFilePath)
	return dumpFilePath, nil
}
