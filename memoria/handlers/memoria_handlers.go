package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/utils/web/server"
)

// ErrUnknownEnv lo devuelve la función de dump cuando el environment no existe.
var ErrUnknownEnv = errors.New("environment inexistente")

type FramesResponse struct {
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
	Free     int `json:"free"`
}

// Estructura para recibir el pedido de dump
type DumpRequest struct {
	EnvID uint32 `json:"env_id"`
}

type DumpResponse struct {
	File string `json:"file"`
}

// MemoryStatsHandler informa cuántos frames tiene la memoria física y cuántos están libres.
func MemoryStatsHandler(stats func() (total int, free int)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		total, free := stats()
		slog.Debug("Consulta de frames", "total", total, "libres", free)
		server.SendJsonResponse(w, FramesResponse{PageSize: models.PGSIZE, Total: total, Free: free})
	}
}

// DumpMemoryHandler vuelca las páginas del environment pedido a un archivo.
func DumpMemoryHandler(dump func(envID uint32) (string, error)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DumpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("Invalid request", "error", err)
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		file, err := dump(req.EnvID)
		if errors.Is(err, ErrUnknownEnv) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			slog.Error("Error al generar el dump", "env", req.EnvID, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		server.SendJsonResponse(w, DumpResponse{File: file})
	}
}
