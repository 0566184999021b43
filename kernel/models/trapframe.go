package models

import (
	"bytes"
	"encoding/binary"
)

// Bits del código de error de un page fault.
const (
	FEC_PR uint32 = 0x1 // Fallo por protección (la página estaba presente)
	FEC_WR uint32 = 0x2 // Fallo en escritura
	FEC_U  uint32 = 0x4 // Fallo en modo usuario
)

// Trapframe es el contexto de ejecución guardado de un environment.
type Trapframe struct {
	EIP uint32 // instrucciones ejecutadas, hace de contador de programa
	ESP uint32
	// Entry es lo que ejecuta el environment la primera vez que corre.
	Entry Entry
}

// UTrapframe es el registro de un page fault que el kernel apila en la pila
// de excepciones antes de invocar al upcall del proceso.
type UTrapframe struct {
	FaultVA uint32
	Err     uint32
	EIP     uint32
	ESP     uint32
}

// UTrapframeSize es lo que ocupa un UTrapframe codificado en la pila de excepciones.
const UTrapframeSize = 16

// IsWriteOnPresent indica si el fallo fue una escritura sobre una página presente.
func (utf UTrapframe) IsWriteOnPresent() bool {
	return utf.Err&(FEC_PR|FEC_WR) == FEC_PR|FEC_WR
}

func (utf UTrapframe) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, utf)
	return buf.Bytes()
}

func DecodeUTrapframe(data []byte) (UTrapframe, error) {
	var utf UTrapframe
	err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &utf)
	return utf, err
}
