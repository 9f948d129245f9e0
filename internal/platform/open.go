package platform

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

type opener struct {
	log *slog.Logger
}

var _ Opener = (*opener)(nil)

// NewOpener creates an Opener for the current OS.
func NewOpener(log *slog.Logger) Opener {
	return &opener{log: log.With(slog.String("package", "platform"))}
}

// Open hands the file to the default application. The command blocks only as
// long as the OS opener itself runs.
func (o *opener) Open(ctx context.Context, path string) error {
	argv := openArgs(path)

	o.log.DebugContext(ctx, "opening file", slog.String("path", path), slog.Any("argv", argv))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("open file: %w", err)
	}

	return nil
}

func openArgs(path string) []string {
	switch runtime.GOOS {
	case "windows":
		// "start" is a cmd built-in; the empty string is the window title slot.
		return []string{"cmd", "/c", "start", "", path}
	case "darwin":
		return []string{"open", path}
	default:
		return []string{"xdg-open", path}
	}
}
