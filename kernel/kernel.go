package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/mattn/go-tty"

	kernelHandler "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/handlers"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/monitor"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/kernel/services"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/lib"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/user"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/utils/config"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/utils/log"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/utils/web/handlers"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/utils/web/server"
)

const (
	ConfigPath = "kernel/configs/kernel.json"
	LogPath    = "./logs/kernel.log"
)

func main() {
	config.InitConfig(ConfigPath, &models.KernelConfig)
	log.InitLogger(LogPath, models.KernelConfig.LogLevel)

	//Parametros: [programa] pisa el de la configuración
	programName := models.KernelConfig.Program
	if len(os.Args) > 1 {
		programName = os.Args[1]
	}
	program, ok := user.Programs[programName]
	if !ok {
		slog.Error(fmt.Sprintf("No existe el programa %q", programName))
		return
	}

	slog.Debug(fmt.Sprintf("Port Kernel: %d", models.KernelConfig.PortKernel))

	k, err := services.NewKernel(models.KernelConfig.MemorySize, models.KernelConfig.Log2Envs)
	if err != nil {
		slog.Error("Error al inicializar el kernel", "error", err)
		panic(err)
	}
	if _, err := k.CreateIdle(lib.Libmain(user.Idle)); err != nil {
		panic(err)
	}
	if _, err := k.EnvCreate(programName, lib.Libmain(program)); err != nil {
		slog.Error("Error al crear el environment inicial", "programa", programName, "error", err)
		panic(err)
	}

	/* ----------> ENDPOINTS <----------*/
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", handlers.HandshakeHandler("Bienvenido al módulo de Kernel"))
	kernelHandler.RegisterRoutes(mux, k)
	kernelHandler.RegisterMemoryRoutes(mux, k, models.KernelConfig.DumpPath)

	go func() {
		if err := server.InitServer(models.KernelConfig.PortKernel, mux); err != nil {
			slog.Error(fmt.Sprintf("error initializing server: %v", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := k.Run(ctx); !errors.Is(err, services.ErrNothingToDo) {
		slog.Warn("El planificador terminó", "error", err)
		k.Shutdown()
		return
	}

	// Sin nada para correr el kernel queda en el monitor.
	if err := runMonitor(k); err != nil {
		slog.Error("Error en el monitor", "error", err)
	}
	k.Shutdown()
}

func runMonitor(k *services.Kernel) error {
	dumpPath := models.KernelConfig.DumpPath
	if !models.KernelConfig.MonitorTTY {
		return monitor.New(k, monitor.NewLineReader(os.Stdin), os.Stdout, dumpPath).Run()
	}

	console, err := tty.Open()
	if err != nil {
		return err
	}
	defer console.Close()
	return monitor.New(k, console, console.Output(), dumpPath).Run()
}
