package models

import memModels "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"

/* ---------- Mapa de memoria virtual del usuario ----------> */

const (
	// UTOP es el tope de la memoria de usuario: nada por encima se duplica.
	UTOP uintptr = 0xEEC00000
	// UXSTACKTOP es el tope de la pila de excepciones, una única página.
	UXSTACKTOP uintptr = UTOP
	// USTACKTOP es el tope de la pila normal. Entre ambas pilas queda una página de guarda.
	USTACKTOP uintptr = UTOP - 2*memModels.PGSIZE
	// UTEXT es donde comienza el programa.
	UTEXT uintptr = 2 * memModels.PTSIZE
	// UTEMP es una zona libre para mapeos temporales.
	UTEMP uintptr = memModels.PTSIZE
	// PFTEMP es la dirección auxiliar que usa el manejador de page faults.
	PFTEMP uintptr = UTEMP + memModels.PTSIZE - memModels.PGSIZE
)

// UXSTACK es la base de la página de la pila de excepciones.
const UXSTACK = UXSTACKTOP - memModels.PGSIZE
