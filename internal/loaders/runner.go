package loaders

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
)

// Ensure ExecRunner implements the port.
var _ driven.CommandRunner = (*ExecRunner)(nil)

// ExecRunner runs external commands via os/exec.
type ExecRunner struct{}

// Run executes the command and returns its standard output. Standard
// error is folded into the returned error so extraction tool diagnostics
// surface in load failures.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return stdout.Bytes(), nil
}
