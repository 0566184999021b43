package helpers

import (
	"fmt"
	"log/slog"
	"os"
	"time"
)

// crea un directorio en el path especificado.
func CreateDirectory(dir string) {
	err := os.MkdirAll(dir, os.ModePerm)

	if err != nil {
		slog.Error(fmt.Sprintf("Error al crear el directorio %s: %v", dir, err))
		return
	}

	slog.Debug(fmt.Sprintf("Directorio %s creado o ya existía.", dir))
}

func GetDumpName(envID uint32) string {
	timestamp := time.Now().Format("20060102-150405")
	return fmt.Sprintf("%08x-%s.dmp", envID, timestamp)
}
