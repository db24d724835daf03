package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// maxLine bounds a single protocol line.
const maxLine = 1 << 20

// Run executes lines from r until end of input, quit or exit, or ctx is
// cancelled. It returns the first fatal error.
func (a *App) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	lines := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lines++
		stop, err := a.Exec(scanner.Text())
		if err != nil {
			a.logger.Error("command failed", "line", lines, "error", err)
			return fmt.Errorf("line %d: %w", lines, err)
		}
		if stop {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read commands: %w", err)
	}
	a.logger.Debug("command loop finished", "lines", lines)
	return nil
}
