package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
)

func newTestRunner() *Runner {
	return NewRunner(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRun_CapturesCombinedOutput(t *testing.T) {
	out, err := newTestRunner().Run(context.Background(), "sh", "-c", "echo out; echo err 1>&2")
	require.NoError(t, err)
	assert.Contains(t, string(out), "out")
	assert.Contains(t, string(out), "err")
}

func TestRun_NonZeroExit(t *testing.T) {
	out, err := newTestRunner().Run(context.Background(), "sh", "-c", "echo broken; exit 3")
	assert.ErrorIs(t, err, domain.ErrEngineFailed)
	assert.Contains(t, string(out), "broken")
}

func TestRun_MissingBinary(t *testing.T) {
	_, err := newTestRunner().Run(context.Background(), "definitely-not-an-engine-binary")
	assert.ErrorIs(t, err, domain.ErrEngineFailed)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}
