package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// InitServer levanta el servidor HTTP con el handler indicado y bloquea
// mientras esté escuchando. En caso de no poder levantarlo retorna un error.
//
// Parámetros:
//   - port: puerto donde se iniciará el servidor
//   - handler: el mux con los endpoints registrados (nil usa http.DefaultServeMux)
//
// Ejemplo:
//
//	func main() {
//		err := server.InitServer(models.KernelConfig.PortKernel, mux)
//		if err != nil {
//			slog.Error(fmt.Sprintf("error initializing server: %v", err))
//		}
//	}
func InitServer(port int, handler http.Handler) error {
	addr := ":" + strconv.Itoa(port)

	slog.Debug(fmt.Sprintf("Servidor escuchando en %s", addr))
	err := http.ListenAndServe(addr, handler)
	if err != nil {
		slog.Error("Error al escuchar en el puerto "+addr, "error", err)
	}
	return err
}

// SendJsonResponse retorna la respuesta del servidor en formato JSON
//
// Parámetros:
//   - writer: el http.ResponseWriter con el que se escribe la respuesta HTTP
//   - data: cualquier estructura de datos que querés enviar al cliente, se convierte automáticamente a JSON.
func SendJsonResponse(writer http.ResponseWriter, data interface{}) {
	response, err := json.Marshal(data)
	if err != nil {
		http.Error(writer, "Error al convertir datos a JSON", http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(http.StatusOK)
	writer.Write(response)
}
