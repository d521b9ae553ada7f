// Package process runs a child process as the running state of a session.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/ports"
	"go.uber.org/zap"
)

const (
	EnvEntranceScene = "SST_ENTRANCE_SCENE"
	EnvProjectRoot   = "SST_PROJECT_ROOT"
)

var (
	ErrNoCommand      = errors.New("run command is empty")
	ErrAlreadyRunning = errors.New("run process already running")
)

type Config struct {
	Command     []string
	ProjectRoot string
	Env         []string
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
	// GracePeriod is how long ExitRunning waits after the interrupt before
	// killing the process. Zero kills immediately.
	GracePeriod time.Duration
}

type Host struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	proc    *os.Process
	exited  chan struct{}
	waitErr error
	pending func()
}

var _ ports.RunHost = (*Host)(nil)

func New(cfg Config, logger *zap.Logger) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}

	exited := make(chan struct{})
	close(exited)

	return &Host{cfg: cfg, logger: logger, exited: exited}
}

// EnterRunning starts the configured command with the entrance exported in
// its environment.
func (h *Host) EnterRunning(ctx context.Context, entrance domain.SceneID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(h.cfg.Command) == 0 || h.cfg.Command[0] == "" {
		return ErrNoCommand
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.proc != nil {
		return ErrAlreadyRunning
	}

	cmd := exec.Command(h.cfg.Command[0], h.cfg.Command[1:]...)
	cmd.Dir = h.cfg.ProjectRoot
	cmd.Stdin = h.cfg.Stdin
	cmd.Stdout = h.cfg.Stdout
	cmd.Stderr = h.cfg.Stderr
	cmd.Env = append(os.Environ(), h.cfg.Env...)
	cmd.Env = append(cmd.Env,
		EnvEntranceScene+"="+string(entrance),
		EnvProjectRoot+"="+h.cfg.ProjectRoot,
	)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start run process: %w", err)
	}

	exited := make(chan struct{})
	h.proc = cmd.Process
	h.exited = exited
	h.waitErr = nil

	h.logger.Info("run process started",
		zap.Int("pid", cmd.Process.Pid),
		zap.String("entrance", string(entrance)),
	)

	go h.wait(cmd, exited)

	return nil
}

func (h *Host) wait(cmd *exec.Cmd, exited chan struct{}) {
	err := cmd.Wait()

	h.mu.Lock()
	h.proc = nil
	h.waitErr = err
	fn := h.pending
	h.pending = nil
	close(exited)
	h.mu.Unlock()

	if err != nil {
		h.logger.Info("run process exited", zap.Error(err))
	} else {
		h.logger.Info("run process exited")
	}

	if fn != nil {
		fn()
	}
}

// ExitRunning interrupts the process and kills it once the grace period has
// passed. It returns without waiting for the exit.
func (h *Host) ExitRunning(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	proc := h.proc
	exited := h.exited
	h.mu.Unlock()

	if proc == nil {
		return nil
	}

	if h.cfg.GracePeriod <= 0 {
		return killProcess(proc)
	}

	if err := proc.Signal(os.Interrupt); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		h.logger.Debug("interrupt not delivered, killing run process", zap.Error(err))
		return killProcess(proc)
	}

	time.AfterFunc(h.cfg.GracePeriod, func() {
		select {
		case <-exited:
		default:
			h.logger.Warn("run process ignored interrupt, killing",
				zap.Duration("grace_period", h.cfg.GracePeriod),
			)
			_ = killProcess(proc)
		}
	})

	return nil
}

// OnRunningExited registers fn for the current process. With nothing running
// fn fires right away on its own goroutine.
func (h *Host) OnRunningExited(fn func()) {
	if fn == nil {
		return
	}

	h.mu.Lock()
	if h.proc == nil {
		h.mu.Unlock()
		go fn()
		return
	}
	h.pending = fn
	h.mu.Unlock()
}

// Exited is closed when the most recently started process has exited.
func (h *Host) Exited() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exited
}

// Err reports how the most recent process ended.
func (h *Host) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.waitErr
}

func killProcess(proc *os.Process) error {
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill run process: %w", err)
	}
	return nil
}
