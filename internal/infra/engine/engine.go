// Package engine runs external conversion programs (ffmpeg, soffice).
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
)

// Runner executes engine commands synchronously and captures their combined output
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a new engine runner
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logger.With(slog.String("component", "engine"))}
}

var _ repo.Engine = (*Runner)(nil)

// Run starts name with args and waits for it to exit. There is no timeout and
// the command is not bound to ctx: an in-flight conversion always runs to completion.
// A non-zero exit is reported as domain.ErrEngineFailed.
func (r *Runner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	start := time.Now()
	cmd := exec.Command(name, args...)
	r.logger.DebugContext(ctx, "starting engine", "cmd", name, "args", strings.Join(args, " "))

	out, err := cmd.CombinedOutput()
	if err != nil {
		r.logger.WarnContext(ctx, "engine failed",
			"cmd", name,
			"duration", time.Since(start),
			"output", truncate(string(out), 2000),
			"error", err,
		)
		return out, fmt.Errorf("%w: %s: %v", domain.ErrEngineFailed, name, err)
	}

	r.logger.DebugContext(ctx, "engine finished", "cmd", name, "duration", time.Since(start))
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
