package user

import "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/lib"

// forktreeDepth es la profundidad del árbol: 2^(depth+1)-1 environments.
const forktreeDepth = 3

func Forktree(e *lib.Env) {
	forktree(e, "")
}

func forktree(e *lib.Env, cur string) {
	e.Cprintf("%04x: I am '%s'", e.GetEnvID(), cur)

	forkchild(e, cur, '0')
	forkchild(e, cur, '1')
}

func forkchild(e *lib.Env, cur string, branch byte) {
	if len(cur) >= forktreeDepth {
		return
	}

	nxt := cur + string(branch)
	err := e.Fork(func(e *lib.Env, r lib.ForkResult) {
		if _, isChild := r.(lib.Child); isChild {
			forktree(e, nxt)
		}
	})
	if err != nil {
		e.Panic("fork: %v", err)
	}
}
