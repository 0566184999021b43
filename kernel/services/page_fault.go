package services

import (
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
	memModels "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
)

// Load lee len(buf) bytes de la memoria virtual del environment.
func (p *proc) Load(va uintptr, buf []byte) {
	p.access(va, buf, false)
}

// Store escribe data en la memoria virtual del environment.
func (p *proc) Store(va uintptr, data []byte) {
	p.access(va, data, true)
}

// access ejecuta una instrucción de acceso a memoria página por página. Cada
// fallo se entrega al upcall del environment y la página se reintenta cuando
// el upcall retorna. Si el fallo no se puede entregar el environment muere.
func (p *proc) access(va uintptr, buf []byte, write bool) {
	k := p.k

	k.mu.Lock()
	p.env.Tf.EIP++
	k.mu.Unlock()

	for done := 0; done < len(buf); {
		cur := va + uintptr(done)
		off := int(cur % memModels.PGSIZE)
		n := min(memModels.PGSIZE-off, len(buf)-done)

		for {
			k.mu.Lock()
			page, ecode, ok := k.translate(p.env, cur, write)
			if ok {
				if write {
					copy(page[off:off+n], buf[done:done+n])
				} else {
					copy(buf[done:done+n], page[off:off+n])
				}
				k.mu.Unlock()
				break
			}

			upcall, err := k.pageFault(p.env, cur, ecode)
			k.mu.Unlock()
			if err != nil {
				p.exit()
			}

			upcall(p)

			k.mu.Lock()
			p.env.Exception.Active = false
			k.mu.Unlock()
		}
		done += n
	}
}

// translate resuelve va a su página física. Si el acceso no está permitido
// devuelve el código de error del fallo.
func (k *Kernel) translate(e *models.Env, va uintptr, write bool) ([]byte, uint32, bool) {
	ecode := models.FEC_U
	if write {
		ecode |= models.FEC_WR
	}
	if va >= models.UTOP {
		return nil, ecode, false
	}

	entry, ok := e.Pgdir.Lookup(va)
	if !ok {
		return nil, ecode, false
	}
	ecode |= models.FEC_PR
	if !entry.Perm.Has(memModels.PTE_U) {
		return nil, ecode, false
	}
	if write && !entry.Perm.Has(memModels.PTE_W) {
		return nil, ecode, false
	}
	return k.Mem.Page(entry.Frame), 0, true
}

// pageFault prepara la entrega de un fallo al espacio de usuario: apila el
// UTrapframe en la pila de excepciones y devuelve el upcall a invocar. Falla
// si el environment no registró upcall, si no tiene una pila de excepciones
// escribible o si el fallo ocurrió dentro del propio manejador.
func (k *Kernel) pageFault(e *models.Env, va uintptr, ecode uint32) (models.Upcall, error) {
	utf := models.UTrapframe{
		FaultVA: uint32(va),
		Err:     ecode,
		EIP:     e.Tf.EIP,
		ESP:     e.Tf.ESP,
	}

	if e.PgfaultUpcall == nil {
		slog.Warn(fmt.Sprintf("[%08x] user fault va %08x ip %08x", e.ID, utf.FaultVA, utf.EIP), "err", ecode)
		return nil, models.E_FAULT
	}
	if e.Exception.Active {
		slog.Warn(fmt.Sprintf("[%08x] user fault va %08x ip %08x dentro del manejador de page faults", e.ID, utf.FaultVA, utf.EIP))
		return nil, models.E_FAULT
	}
	xstack, ok := e.Pgdir.Lookup(models.UXSTACK)
	if !ok || !xstack.Perm.Has(memModels.PTE_U|memModels.PTE_W) {
		slog.Warn(fmt.Sprintf("[%08x] user fault va %08x ip %08x sin pila de excepciones", e.ID, utf.FaultVA, utf.EIP))
		return nil, models.E_FAULT
	}

	page := k.Mem.Page(xstack.Frame)
	copy(page[memModels.PGSIZE-models.UTrapframeSize:], utf.Encode())
	e.Exception = models.ExceptionContext{Active: true, Frame: utf}

	slog.Debug(fmt.Sprintf("## (%08x) Page fault va %08x", e.ID, utf.FaultVA), "err", ecode, "ip", utf.EIP)
	return e.PgfaultUpcall, nil
}
