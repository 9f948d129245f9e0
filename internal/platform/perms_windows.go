//go:build windows

package platform

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"os/user"
)

type granter struct {
	log *slog.Logger
}

var _ Granter = (*granter)(nil)

// NewGranter creates a Granter that gives the invoking user full control of
// a file through icacls.
func NewGranter(log *slog.Logger) Granter {
	return &granter{log: log.With(slog.String("package", "platform"))}
}

func (g *granter) GrantFullControl(ctx context.Context, path string) error {
	u, err := user.Current()
	if err != nil {
		return fmt.Errorf("resolve current user: %w", err)
	}

	g.log.DebugContext(ctx, "granting full control", slog.String("path", path), slog.String("user", u.Username))

	cmd := exec.CommandContext(ctx, "icacls", path, "/grant", u.Username+":F")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("icacls %q: %w: %s", path, err, out)
	}

	return nil
}
