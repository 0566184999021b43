// Package user tiene los programas de usuario que el kernel puede cargar.
package user

import "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/lib"

// Programs son los programas que se pueden pedir por nombre desde la configuración.
var Programs = map[string]lib.Program{
	"hello":      Hello,
	"yield":      Yield,
	"forktree":   Forktree,
	"cowcheck":   Cowcheck,
	"faultwrite": Faultwrite,
}
