package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"voxel-launcher/internal/logger"
)

const gameLogName = "latest-game.log"

// ExitInfo describes how a game process ended.
type ExitInfo struct {
	Code     int
	Duration time.Duration
}

// Runner starts game processes and mirrors their output.
type Runner struct {
	logDir string
	logger logger.Logger
}

func NewRunner(logDir string, log logger.Logger) *Runner {
	return &Runner{logDir: logDir, logger: log}
}

// LogPath is the file the last game's output is written to.
func (r *Runner) LogPath() string {
	return filepath.Join(r.logDir, gameLogName)
}

// Run starts argv in dir and blocks until it exits. A non-zero exit code is
// reported in ExitInfo, not as an error. Cancelling ctx kills the process.
func (r *Runner) Run(ctx context.Context, argv []string, dir string) (ExitInfo, error) {
	if len(argv) == 0 {
		return ExitInfo{}, errors.New("empty command")
	}

	if err := os.MkdirAll(r.logDir, 0o755); err != nil {
		return ExitInfo{}, err
	}
	logFile, err := os.Create(r.LogPath())
	if err != nil {
		return ExitInfo{}, fmt.Errorf("create game log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return ExitInfo{}, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return ExitInfo{}, err
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return ExitInfo{}, fmt.Errorf("start %s: %w", filepath.Base(argv[0]), err)
	}
	r.logger.Info("Process", "game started", map[string]interface{}{
		"pid": cmd.Process.Pid,
		"dir": dir,
	})

	var (
		wg      sync.WaitGroup
		writeMu sync.Mutex
	)
	wg.Add(2)
	go r.pump(&wg, &writeMu, logFile, stdout, "stdout")
	go r.pump(&wg, &writeMu, logFile, stderr, "stderr")
	wg.Wait()

	waitErr := cmd.Wait()
	info := ExitInfo{Code: cmd.ProcessState.ExitCode(), Duration: time.Since(start)}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return info, fmt.Errorf("wait for game: %w", waitErr)
	}

	r.logger.Info("Process", "game exited", map[string]interface{}{
		"exit_code": info.Code,
		"duration":  info.Duration.Round(time.Second).String(),
	})
	return info, nil
}

func (r *Runner) pump(wg *sync.WaitGroup, mu *sync.Mutex, file io.Writer, src io.Reader, stream string) {
	defer wg.Done()

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		mu.Lock()
		fmt.Fprintln(file, line)
		mu.Unlock()

		r.logger.Debug("game", line, map[string]interface{}{"stream": stream})
	}
	if err := scanner.Err(); err != nil {
		r.logger.Warning("Process", "game output stream failed", map[string]interface{}{
			"stream": stream,
			"error":  err.Error(),
		})
	}
}
