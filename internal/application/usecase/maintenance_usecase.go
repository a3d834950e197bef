package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/jhoicas/gestion-financiera/internal/application/dto"
	"github.com/jhoicas/gestion-financiera/pkg/logger"
)

// MaintenanceUseCase ejecuta el script externo de mantenimiento de datos.
// El script corre sin argumentos dentro del directorio de datos, con un
// tiempo máximo; su salida completa queda guardada en un archivo de log.
// El script muta la base por su cuenta: un fallo no revierte nada.
type MaintenanceUseCase struct {
	script  string
	dataDir string
	logsDir string
	timeout time.Duration
	log     *logger.Logger
}

// NewMaintenanceUseCase construye el caso de uso de mantenimiento. Un
// timeout cero usa el máximo por defecto de 10 minutos.
func NewMaintenanceUseCase(script, dataDir, logsDir string, timeout time.Duration, log *logger.Logger) *MaintenanceUseCase {
	if timeout <= 0 {
		timeout = 600 * time.Second
	}
	return &MaintenanceUseCase{
		script:  script,
		dataDir: dataDir,
		logsDir: logsDir,
		timeout: timeout,
		log:     log,
	}
}

// Run ejecuta el script y espera su desenlace.
func (uc *MaintenanceUseCase) Run(ctx context.Context) (*dto.MaintenanceResult, error) {
	if _, err := os.Stat(uc.script); err != nil {
		return nil, fmt.Errorf("script de mantenimiento %s: %w", uc.script, err)
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, uc.script)
	cmd.Dir = uc.dataDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	uc.log.Info().Str("script", uc.script).Msg("mantenimiento iniciado")
	runErr := cmd.Run()

	result := &dto.MaintenanceResult{
		Success:  runErr == nil,
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	}

	logPath, logErr := uc.writeRunLog(stdout.Bytes(), stderr.Bytes())
	if logErr != nil {
		uc.log.Error().Err(logErr).Msg("no se pudo guardar el log del mantenimiento")
	}
	result.LogPath = logPath

	switch {
	case result.TimedOut:
		uc.log.Error().Dur("timeout", uc.timeout).Msg("mantenimiento cancelado por tiempo")
	case runErr != nil:
		uc.log.Error().Err(runErr).Int("exit", result.ExitCode).Msg("mantenimiento terminó con error")
	default:
		uc.log.Info().Str("log", logPath).Msg("mantenimiento completo")
	}
	return result, nil
}

// RunAsync lanza el script en segundo plano y devuelve el canal con el
// desenlace único de la corrida.
func (uc *MaintenanceUseCase) RunAsync(ctx context.Context) <-chan *dto.MaintenanceResult {
	ch := make(chan *dto.MaintenanceResult, 1)
	go func() {
		defer close(ch)
		res, err := uc.Run(ctx)
		if err != nil {
			uc.log.Error().Err(err).Msg("mantenimiento no se pudo iniciar")
			ch <- &dto.MaintenanceResult{Success: false}
			return
		}
		ch <- res
	}()
	return ch
}

// writeRunLog guarda stdout y stderr del script en un archivo con sello de
// tiempo dentro del directorio de logs.
func (uc *MaintenanceUseCase) writeRunLog(stdout, stderr []byte) (string, error) {
	if err := os.MkdirAll(uc.logsDir, 0o755); err != nil {
		return "", fmt.Errorf("crear directorio de logs: %w", err)
	}
	path := filepath.Join(uc.logsDir,
		fmt.Sprintf("mantenimiento_%s.log", time.Now().Format("2006-01-02_150405")))

	var b bytes.Buffer
	b.WriteString("=== STDOUT ===\n")
	b.Write(stdout)
	b.WriteString("\n=== STDERR ===\n")
	b.Write(stderr)

	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("guardar log %s: %w", path, err)
	}
	return path, nil
}
