// Package netprobe answers a single question before a fetch starts: does the
// network look reachable right now?
package netprobe

import (
	"context"
	"log/slog"
	"net"

	"velvetdown/internal/config"
)

// Prober reports whether the network looks reachable.
type Prober interface {
	Check(ctx context.Context) bool
}

type prober struct {
	cfg config.Probe
	log *slog.Logger
}

var _ Prober = (*prober)(nil)

// New returns a Prober that dials a well-known endpoint over TCP.
func New(cfg config.Probe, log *slog.Logger) Prober {
	return &prober{
		cfg: cfg,
		log: log.With(slog.String("package", "netprobe")),
	}
}

// Static is a Prober with a fixed answer, for offline backends and tests.
type Static bool

// Check reports the fixed answer.
func (s Static) Check(context.Context) bool {
	return bool(s)
}

// Check dials the configured address and reports success. It never returns an
// error: any failure, timeout included, simply reads as offline.
func (p *prober) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	var d net.Dialer

	conn, err := d.DialContext(ctx, "tcp", p.cfg.Address)
	if err != nil {
		p.log.DebugContext(ctx, "connectivity probe failed",
			slog.String("address", p.cfg.Address), slog.Any("error", err))

		return false
	}

	_ = conn.Close()

	return true
}
