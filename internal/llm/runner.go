package llm

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"syscall"
	"time"
)

// commandRunner lets us stub the model CLI in tests.
type commandRunner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) (stdout, stderr []byte, err error)
}

// execCommandRunner runs the model CLI with prompt on stdin. Context
// cancellation sends SIGTERM; a process still alive after the grace period
// gets SIGKILL via WaitDelay.
type execCommandRunner struct {
	killGrace time.Duration
}

func (r execCommandRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	grace := r.killGrace
	if grace <= 0 {
		grace = 5 * time.Second
	}
	cmd.WaitDelay = grace

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		slog.Error("llm.exec.failed",
			"cmd", name,
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), 8<<10),
		)
	} else {
		slog.Debug("llm.exec.ok",
			"cmd", name,
			"duration_ms", dur.Milliseconds(),
			"stdout_bytes", out.Len(),
		)
	}
	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
