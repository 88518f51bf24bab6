package formatter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/sablier-labs/v2-core/internal/logger"
)

// Formatter runs an external formatter over the deployment outputs. Failures
// never affect the deployment result; they are only logged.
type Formatter struct {
	argv   []string
	dir    string
	logger *slog.Logger
}

func New(argv []string, dir string) *Formatter {
	return &Formatter{argv: argv, dir: dir, logger: logger.Named("formatter")}
}

// Run executes the formatter command. An empty command is a no-op.
func (f *Formatter) Run(ctx context.Context) {
	if len(f.argv) == 0 {
		f.logger.Debug("no formatter configured, skipping")
		return
	}

	if err := f.run(ctx); err != nil {
		f.logger.With("err", err.Error()).Warn("formatter failed, deployment outputs left unformatted")
		return
	}

	f.logger.Info("deployment outputs formatted")
}

func (f *Formatter) run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, f.argv[0], f.argv[1:]...)
	cmd.Dir = f.dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", f.argv[0], err)
	}

	return nil
}
