package models

import "fmt"

// Errno es el código de error negativo que devuelven las syscalls.
type Errno int

const (
	E_UNSPECIFIED Errno = -1 // Error sin especificar
	E_BAD_ENV     Errno = -2 // El environment no existe o no hay permiso
	E_INVAL       Errno = -3 // Parámetro inválido
	E_NO_MEM      Errno = -4 // Sin memoria física
	E_NO_FREE_ENV Errno = -5 // No hay más slots en la tabla de environments
	E_FAULT       Errno = -6 // Fallo de memoria
)

var errorMessages = map[Errno]string{
	E_UNSPECIFIED: "unspecified error",
	E_BAD_ENV:     "bad environment",
	E_INVAL:       "invalid parameter",
	E_NO_MEM:      "out of memory",
	E_NO_FREE_ENV: "out of environments",
	E_FAULT:       "segmentation fault",
}

func (e Errno) Error() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}
	return fmt.Sprintf("error %d", int(e))
}
