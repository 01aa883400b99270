package gate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTaskTimeout bounds a task without its own timeout.
const DefaultTaskTimeout = 30 * time.Minute

// ExitTimeout is the exit code reported for a task killed by its timeout.
const ExitTimeout = 124

// BuiltinFunc runs an in-process gate step, writing user output to out.
type BuiltinFunc func(ctx context.Context, out io.Writer) (int, error)

// Result captures execution outcome for a task.
type Result struct {
	TaskID     string
	Success    bool
	ExitCode   int
	Output     string
	Error      string
	DurationMs int64
}

// Runner executes batteries. Task output is streamed to Stdout and also
// kept in each Result.
type Runner struct {
	Workdir        string
	DefaultTimeout time.Duration
	Stdout         io.Writer

	builtins map[string]BuiltinFunc
	runID    string
	logger   *zap.Logger
}

// NewRunner returns a runner with a fresh run ID.
func NewRunner(workdir string, stdout io.Writer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stdout == nil {
		stdout = io.Discard
	}
	id := uuid.NewString()
	return &Runner{
		Workdir:        workdir,
		DefaultTimeout: DefaultTaskTimeout,
		Stdout:         stdout,
		builtins:       make(map[string]BuiltinFunc),
		runID:          id,
		logger:         logger.With(zap.String("run_id", id)),
	}
}

// RunID identifies this gate run in logs.
func (r *Runner) RunID() string { return r.runID }

// Register makes fn available to builtin tasks as name.
func (r *Runner) Register(name string, fn BuiltinFunc) {
	r.builtins[name] = fn
}

// Run executes the tasks of b in order and stops at the first failure.
// The returned error is non-nil only when ctx ends the run early.
func (r *Runner) Run(ctx context.Context, b *Battery) ([]Result, error) {
	if b == nil || len(b.Tasks) == 0 {
		return nil, nil
	}
	r.logger.Info("Gate started", zap.Int("tasks", len(b.Tasks)))

	results := make([]Result, 0, len(b.Tasks))
	for _, task := range b.Tasks {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		fmt.Fprintf(r.Stdout, "\n$ %s\n", r.display(task))
		res := r.runTask(ctx, task)
		results = append(results, res)

		log := r.logger.With(zap.String("task", task.ID), zap.Int64("duration_ms", res.DurationMs))
		if !res.Success {
			log.Warn("Gate task failed", zap.Int("exit_code", res.ExitCode), zap.String("error", res.Error))
			if task.FailureHint != "" {
				fmt.Fprintf(r.Stdout, "\n%s\n", task.FailureHint)
			}
			return results, nil
		}
		log.Debug("Gate task passed")
	}

	fmt.Fprintln(r.Stdout, "\nRegression gate passed.")
	r.logger.Info("Gate passed")
	return results, nil
}

// ExitCode returns the exit code of the first failed task, or 0.
func ExitCode(results []Result) int {
	for _, res := range results {
		if !res.Success {
			if res.ExitCode == 0 {
				return 1
			}
			return res.ExitCode
		}
	}
	return 0
}

func (r *Runner) display(task Task) string {
	if task.kind() == TypeBuiltin {
		return "fixturectl " + task.Command
	}
	return task.Command
}

func (r *Runner) runTask(ctx context.Context, task Task) Result {
	start := time.Now()
	res := Result{TaskID: task.ID}

	timeout := time.Duration(task.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = r.DefaultTimeout
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var buf bytes.Buffer
	out := io.MultiWriter(r.Stdout, &buf)

	var code int
	var err error
	switch task.kind() {
	case TypeBuiltin:
		fn, ok := r.builtins[task.Command]
		if !ok {
			code, err = 1, fmt.Errorf("unknown builtin %q", task.Command)
			break
		}
		code, err = fn(tctx, out)
	case TypeShell:
		code, err = runShell(tctx, task.Command, r.Workdir, out)
	default:
		code, err = 1, fmt.Errorf("unsupported task type: %s", task.Type)
	}

	res.Output = buf.String()
	res.ExitCode = code
	res.Success = err == nil && code == 0
	if err != nil {
		res.Error = err.Error()
	}
	res.DurationMs = time.Since(start).Milliseconds()
	return res
}

// runShell runs command and returns its exit code. err is non-nil when the
// command could not run to completion.
func runShell(ctx context.Context, command, workdir string, out io.Writer) (int, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return 1, fmt.Errorf("empty command")
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command", command)
	} else {
		cmd = exec.CommandContext(ctx, "bash", "-lc", command)
	}
	if workdir != "" {
		cmd.Dir = workdir
	}
	cmd.Stdout = out
	cmd.Stderr = out
	// Children that inherit the output pipe must not hold Wait open past the kill.
	cmd.WaitDelay = 2 * time.Second

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ExitTimeout, fmt.Errorf("command timed out (%s)", command)
	}
	if ctx.Err() != nil {
		return 1, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code > 0 {
			return code, nil
		}
		return 1, fmt.Errorf("command terminated (%s): %w", command, err)
	}
	if err != nil {
		return 1, fmt.Errorf("command failed (%s): %w", command, err)
	}
	return 0, nil
}
