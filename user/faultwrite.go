package user

import "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/lib"

// Faultwrite escribe en la dirección 0 sin manejador de page faults: el
// kernel tiene que destruirlo sin afectar al resto.
func Faultwrite(e *lib.Env) {
	e.Store(0, []byte{0})
	e.Panic("faultwrite: la escritura en 0 no falló")
}
