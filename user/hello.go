package user

import "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/lib"

func Hello(e *lib.Env) {
	e.Cprintf("hello, world")
	e.Cprintf("i am environment %08x", e.ThisEnv().ID)
}
