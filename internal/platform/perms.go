//go:build !windows

package platform

import (
	"context"
	"log/slog"
)

type granter struct {
	log *slog.Logger
}

var _ Granter = (*granter)(nil)

// NewGranter creates a Granter. On platforms without Windows ACLs this is a
// no-op.
func NewGranter(log *slog.Logger) Granter {
	return &granter{log: log.With(slog.String("package", "platform"))}
}

func (g *granter) GrantFullControl(_ context.Context, _ string) error {
	return nil
}
