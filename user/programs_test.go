package user

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/services"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/lib"
	memModels "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
)

// syncBuffer permite leer el log mientras los environments escriben.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func captureLogs(t *testing.T) *syncBuffer {
	t.Helper()
	out := &syncBuffer{}
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return out
}

// boot arma un kernel con idle y los programas pedidos, y corre hasta que no
// quede nada.
func boot(t *testing.T, programs ...string) (*services.Kernel, models.EnvID) {
	t.Helper()
	k, err := services.NewKernel(256*memModels.PGSIZE, 5)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	idle, err := k.CreateIdle(lib.Libmain(Idle))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	for _, name := range programs {
		prog, ok := Programs[name]
		if !ok {
			t.Fatalf("Expected program %s to exist", name)
		}
		if _, err := k.EnvCreate(name, lib.Libmain(prog)); err != nil {
			t.Fatalf("Expected no error creating %s, got: %v", name, err)
		}
	}

	done := make(chan error, 1)
	go func() { done <- k.Run(context.Background()) }()
	select {
	case err := <-done:
		if !errors.Is(err, services.ErrNothingToDo) {
			t.Fatalf("Expected ErrNothingToDo, got: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Expected the scheduler to finish, it is still running")
	}
	return k, idle
}

func distinctEnvs(trace []models.EnvID, skip models.EnvID) map[models.EnvID]int {
	runs := map[models.EnvID]int{}
	for _, id := range trace {
		if id != skip {
			runs[id]++
		}
	}
	return runs
}

func TestHello(t *testing.T) {
	logs := captureLogs(t)
	boot(t, "hello")

	if !strings.Contains(logs.String(), "hello, world") {
		t.Errorf("Expected greeting in log, got: %s", logs.String())
	}
}

func TestYield_RunsOncePerIteration(t *testing.T) {
	k, idle := boot(t, "yield", "yield")

	runs := distinctEnvs(k.RunTrace(), idle)
	if len(runs) != 2 {
		t.Fatalf("Expected 2 envs, got %v", runs)
	}
	for id, n := range runs {
		if n != yieldIterations+1 {
			t.Errorf("Expected %08x to run %d times, got %d", id, yieldIterations+1, n)
		}
	}
}

func TestForktree_CreatesFullTree(t *testing.T) {
	logs := captureLogs(t)
	k, idle := boot(t, "forktree")

	runs := distinctEnvs(k.RunTrace(), idle)
	expected := 1<<(forktreeDepth+1) - 1
	if len(runs) != expected {
		t.Errorf("Expected %d envs in the tree, got %d", expected, len(runs))
	}
	if strings.Contains(logs.String(), "user panic") {
		t.Errorf("Expected no panics, got: %s", logs.String())
	}
	for _, name := range []string{"I am ''", "I am '0'", "I am '111'"} {
		if !strings.Contains(logs.String(), name) {
			t.Errorf("Expected %q in log", name)
		}
	}
	if total, free := k.MemStats(); total != free {
		t.Errorf("Expected all frames free, got %d of %d", free, total)
	}
}

func TestCowcheck_ParentKeepsOriginalByte(t *testing.T) {
	logs := captureLogs(t)
	boot(t, "cowcheck")

	out := logs.String()
	if strings.Contains(out, "user panic") {
		t.Errorf("Expected no panics, got: %s", out)
	}
	if !strings.Contains(out, "child: escribí 0xbb, leo 0xbb") {
		t.Errorf("Expected child to see its own write, got: %s", out)
	}
	if !strings.Contains(out, "parent: la página sigue en 0xaa") {
		t.Errorf("Expected parent to keep 0xaa, got: %s", out)
	}
}

func TestFaultwrite_OnlyFaultingEnvDies(t *testing.T) {
	logs := captureLogs(t)
	boot(t, "faultwrite", "hello")

	out := logs.String()
	if !strings.Contains(out, "user fault va 00000000") {
		t.Errorf("Expected user fault report, got: %s", out)
	}
	if strings.Contains(out, "la escritura en 0 no falló") {
		t.Errorf("Expected faultwrite not to continue, got: %s", out)
	}
	if !strings.Contains(out, "hello, world") {
		t.Errorf("Expected hello to run anyway, got: %s", out)
	}
}

func TestIdle_ExitsWhenAlone(t *testing.T) {
	k, idle := boot(t)

	trace := k.RunTrace()
	if len(trace) != 1 || trace[0] != idle {
		t.Errorf("Expected a single idle dispatch, got %v", trace)
	}
}
