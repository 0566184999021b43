package user

import "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/lib"

const yieldIterations = 5

func Yield(e *lib.Env) {
	e.Cprintf("Hello, I am environment %08x.", e.ThisEnv().ID)
	for i := 0; i < yieldIterations; i++ {
		e.Yield()
		e.Cprintf("Back in environment %08x, iteration %d.", e.ThisEnv().ID, i)
	}
	e.Cprintf("All done in environment %08x.", e.ThisEnv().ID)
}
