package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
	memHandlers "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/handlers"
	memModels "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
	webHandlers "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/utils/web/handlers"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/utils/web/server"
)

// Inspector es lo que los handlers necesitan del kernel: vistas de sólo lectura.
type Inspector interface {
	EnvInfos() []models.EnvInfo
	Mappings(id models.EnvID) ([]memModels.Mapping, error)
	Curenv() models.EnvID
}

// MemoryInspector es lo que necesitan los endpoints de memoria física.
type MemoryInspector interface {
	MemStats() (total int, free int)
	DumpEnv(id models.EnvID, dumpPath string) (string, error)
}

type EnvsResponse struct {
	Curenv models.EnvID     `json:"curenv"`
	Envs   []models.EnvInfo `json:"envs"`
}

type MappingsResponse struct {
	Env      models.EnvID        `json:"env"`
	Mappings []memModels.Mapping `json:"mappings"`
}

// RegisterRoutes registra los endpoints de inspección del kernel en mux.
func RegisterRoutes(mux *http.ServeMux, k Inspector) {
	mux.HandleFunc("GET /kernel", webHandlers.HandshakeHandler("Kernel en funcionamiento 🚀"))
	mux.HandleFunc("GET /kernel/envs", GetEnvsHandler(k))
	mux.HandleFunc("GET /kernel/envs/{id}/mappings", GetMappingsHandler(k))
}

// RegisterMemoryRoutes registra los endpoints de memoria física. Los dumps se
// escriben en dumpPath.
func RegisterMemoryRoutes(mux *http.ServeMux, k MemoryInspector, dumpPath string) {
	mux.HandleFunc("GET /memoria/frames", memHandlers.MemoryStatsHandler(k.MemStats))
	mux.HandleFunc("POST /memoria/dump", memHandlers.DumpMemoryHandler(func(envID uint32) (string, error) {
		file, err := k.DumpEnv(models.EnvID(envID), dumpPath)
		if errors.Is(err, models.E_BAD_ENV) {
			return "", fmt.Errorf("%w: %08x", memHandlers.ErrUnknownEnv, envID)
		}
		return file, err
	}))
}

func GetEnvsHandler(k Inspector) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		server.SendJsonResponse(writer, EnvsResponse{
			Curenv: k.Curenv(),
			Envs:   k.EnvInfos(),
		})
	}
}

func GetMappingsHandler(k Inspector) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := ParseEnvID(request.PathValue("id"))
		if err != nil {
			http.Error(writer, err.Error(), http.StatusBadRequest)
			return
		}

		mappings, err := k.Mappings(id)
		if errors.Is(err, models.E_BAD_ENV) {
			http.Error(writer, fmt.Sprintf("environment %08x inexistente", id), http.StatusNotFound)
			return
		}
		if err != nil {
			slog.Error("Error al obtener los mapeos", "env", id, "error", err)
			http.Error(writer, err.Error(), http.StatusInternalServerError)
			return
		}

		server.SendJsonResponse(writer, MappingsResponse{Env: id, Mappings: mappings})
	}
}

// ParseEnvID interpreta un id de environment escrito en hexadecimal, con o sin 0x.
func ParseEnvID(s string) (models.EnvID, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "0x"), 16, 32)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id de environment inválido %q", s)
	}
	return models.EnvID(id), nil
}
