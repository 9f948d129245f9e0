package platform

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

type mover struct {
	log *slog.Logger
}

var _ Mover = (*mover)(nil)

// NewMover creates a Mover.
func NewMover(log *slog.Logger) Mover {
	return &mover{log: log.With(slog.String("package", "platform"))}
}

// Move renames src into destDir, falling back to copy+delete when rename is
// not possible, such as across filesystem boundaries. It returns the final
// path.
func (m *mover) Move(src, destDir string) (string, error) {
	dest := filepath.Join(destDir, filepath.Base(src))

	err := os.Rename(src, dest)
	if err == nil {
		return dest, nil
	}

	m.log.Debug("rename failed, copying instead", slog.String("src", src), slog.Any("error", err))

	if err := copyFile(src, dest); err != nil {
		return "", err
	}

	if err := os.Remove(src); err != nil {
		m.log.Warn("remove staged file after copy", slog.String("src", src), slog.Any("error", err))
	}

	return dest, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()

		return fmt.Errorf("copy contents: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	return nil
}
