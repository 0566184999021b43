package user

import (
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/lib"
	memModels "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
)

// CowPage es la página que comparten padre e hijo en Cowcheck.
const CowPage = models.UTEMP

const (
	cowParentByte byte = 0xAA
	cowChildByte  byte = 0xBB
)

// Cowcheck escribe 0xAA en una página, hace fork y el hijo escribe 0xBB. El
// hijo tiene que terminar con su copia privada y el padre seguir viendo 0xAA.
func Cowcheck(e *lib.Env) {
	perm := memModels.PTE_P | memModels.PTE_U | memModels.PTE_W
	if err := e.PageAlloc(0, CowPage, perm); err != nil {
		e.Panic("sys_page_alloc: %v", err)
	}
	e.Store(CowPage, []byte{cowParentByte})

	err := e.Fork(func(e *lib.Env, r lib.ForkResult) {
		switch r := r.(type) {
		case lib.Child:
			e.Store(CowPage, []byte{cowChildByte})
			e.Cprintf("child: escribí %#x, leo %#x", cowChildByte, readByte(e))
		case lib.Parent:
			e.Cprintf("parent: hijo %08x", r.ChildID)
		}
	})
	if err != nil {
		e.Panic("fork: %v", err)
	}

	// Esperar a que el hijo escriba su copia.
	for i := 0; i < 3; i++ {
		e.Yield()
	}
	if got := readByte(e); got != cowParentByte {
		e.Panic("parent: la página cambió a %#x", got)
	}
	e.Cprintf("parent: la página sigue en %#x", cowParentByte)
}

func readByte(e *lib.Env) byte {
	buf := make([]byte, 1)
	e.Load(CowPage, buf)
	return buf[0]
}
