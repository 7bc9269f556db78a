package imports

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Collect runs command in dir once and returns its combined output. A
// non-zero exit still yields the output: a failing build reports warnings too.
func Collect(ctx context.Context, dir string, command []string) ([]byte, error) {
	if len(command) == 0 {
		return nil, errors.New("no diagnostics command configured")
	}
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("failed to run %s: %w", command[0], err)
	}
	return out, nil
}
