package monitor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/handlers"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
	memModels "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
)

const prompt = "K> "

// LineReader es la entrada del monitor. *tty.TTY de go-tty la cumple.
type LineReader interface {
	ReadString() (string, error)
}

// Kernel es lo que el monitor consulta del kernel.
type Kernel interface {
	EnvInfos() []models.EnvInfo
	Curenv() models.EnvID
	Mappings(id models.EnvID) ([]memModels.Mapping, error)
	DumpEnv(id models.EnvID, dumpPath string) (string, error)
	MemStats() (total int, free int)
	RunTrace() []models.EnvID
}

type command struct {
	name string
	desc string
	fn   func(m *Monitor, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"help", "Muestra esta lista de comandos", (*Monitor).help},
		{"kerninfo", "Muestra información de memoria y planificación", (*Monitor).kerninfo},
		{"envs", "Lista los environments", (*Monitor).envs},
		{"showmappings", "showmappings <envid>: muestra el espacio de direcciones", (*Monitor).showmappings},
		{"mapimage", "mapimage <envid> <archivo.png>: dibuja el espacio de direcciones", (*Monitor).mapimage},
		{"dump", "dump <envid>: vuelca las páginas del environment a un archivo", (*Monitor).dump},
		{"exit", "Sale del monitor", nil},
	}
}

// Monitor es la consola del operador en la que cae el kernel cuando no queda
// nada para correr.
type Monitor struct {
	kernel   Kernel
	in       LineReader
	out      io.Writer
	dumpPath string
}

func New(k Kernel, in LineReader, out io.Writer, dumpPath string) *Monitor {
	return &Monitor{kernel: k, in: in, out: out, dumpPath: dumpPath}
}

// Run lee y ejecuta comandos hasta exit o fin de la entrada.
func (m *Monitor) Run() error {
	fmt.Fprintln(m.out, "Bienvenido al monitor del kernel. Escriba 'help' para ver los comandos.")
	for {
		fmt.Fprint(m.out, prompt)
		line, err := m.in.ReadString()
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) == "" {
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if exit := m.RunCmd(line); exit {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// RunCmd ejecuta una línea. Devuelve true si el operador pidió salir.
func (m *Monitor) RunCmd(line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}
	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		if cmd.fn == nil {
			return true
		}
		if err := cmd.fn(m, args[1:]); err != nil {
			slog.Debug("Error en comando del monitor", "comando", args[0], "error", err)
			fmt.Fprintf(m.out, "%s: %v\n", args[0], err)
		}
		return false
	}
	fmt.Fprintf(m.out, "Comando desconocido '%s'\n", args[0])
	return false
}

func (m *Monitor) help(_ []string) error {
	for _, cmd := range commands {
		fmt.Fprintf(m.out, "%s - %s\n", cmd.name, cmd.desc)
	}
	return nil
}

func (m *Monitor) kerninfo(_ []string) error {
	total, free := m.kernel.MemStats()
	trace := m.kernel.RunTrace()
	fmt.Fprintf(m.out, "Memoria física: %d frames de %d bytes, %d libres\n", total, memModels.PGSIZE, free)
	fmt.Fprintf(m.out, "Planificaciones registradas: %d\n", len(trace))
	if len(trace) > 0 {
		fmt.Fprintf(m.out, "Último environment planificado: %08x\n", trace[len(trace)-1])
	}
	return nil
}

func (m *Monitor) envs(_ []string) error {
	cur := m.kernel.Curenv()
	w := tabwriter.NewWriter(m.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPADRE\tESTADO\tCORRIDAS\tPÁGINAS\t")
	for _, info := range m.kernel.EnvInfos() {
		mark := ""
		if info.ID == cur {
			mark = "*"
		}
		fmt.Fprintf(w, "%08x%s\t%08x\t%s\t%d\t%d\t\n", info.ID, mark, info.ParentID, info.Status, info.Runs, info.Pages)
	}
	return w.Flush()
}

func (m *Monitor) showmappings(args []string) error {
	id, err := m.envArg(args, 1)
	if err != nil {
		return err
	}
	mappings, err := m.kernel.Mappings(id)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(m.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VA\tFRAME\tPERM\tREFS\t")
	for _, mp := range mappings {
		fmt.Fprintf(w, "%08x\t%d\t%s\t%d\t\n", mp.VA, mp.Frame, mp.Flags, mp.Refs)
	}
	return w.Flush()
}

func (m *Monitor) mapimage(args []string) error {
	id, err := m.envArg(args, 2)
	if err != nil {
		return err
	}
	mappings, err := m.kernel.Mappings(id)
	if err != nil {
		return err
	}
	if err := SaveMappingsPNG(args[1], fmt.Sprintf("env %08x", id), mappings); err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Imagen guardada en %s\n", args[1])
	return nil
}

func (m *Monitor) dump(args []string) error {
	id, err := m.envArg(args, 1)
	if err != nil {
		return err
	}
	path, err := m.kernel.DumpEnv(id, m.dumpPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Dump generado en %s\n", path)
	return nil
}

func (m *Monitor) envArg(args []string, want int) (models.EnvID, error) {
	if len(args) != want {
		return 0, fmt.Errorf("se esperaban %d argumentos", want)
	}
	return handlers.ParseEnvID(args[0])
}

// bufferedLineReader adapta un io.Reader cualquiera (stdin, tests) a LineReader.
type bufferedLineReader struct {
	r *bufio.Reader
}

func NewLineReader(r io.Reader) LineReader {
	return &bufferedLineReader{r: bufio.NewReader(r)}
}

func (b *bufferedLineReader) ReadString() (string, error) {
	line, err := b.r.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}
