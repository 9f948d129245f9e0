package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"velvetdown/internal/consts"
)

// Mock is a scripted capability for tests and offline runs. Zero value fields
// fall back to a short simulated download.
type Mock struct {
	log *slog.Logger

	// Extraction script.
	Info      *Info
	InfoErr   error
	InfoDelay time.Duration

	// Download script: events replayed in order, one per tick. Files are
	// written into the staging directory after the script finishes, keyed by
	// relative name.
	Script      []ProgressEvent
	TickEvery   time.Duration
	Files       map[string]string
	DownloadErr error
}

var (
	_ Extractor  = (*Mock)(nil)
	_ Downloader = (*Mock)(nil)
)

// NewMock creates a scripted capability.
func NewMock(log *slog.Logger) *Mock {
	return &Mock{
		log: log.With(slog.String("package", "media"), slog.String("backend", consts.BackendMock)),
	}
}

// FetchInfo replays the scripted metadata result.
func (m *Mock) FetchInfo(ctx context.Context, url string, _ InfoOptions) (*Info, error) {
	if m.InfoDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.InfoDelay):
		}
	}

	if m.InfoErr != nil {
		return nil, m.InfoErr
	}

	m.log.DebugContext(ctx, "mock info fetched", slog.String("url", url))

	if m.Info == nil {
		return &Info{}, nil
	}

	return m.Info, nil
}

// Download replays the scripted progress events, honoring cancellation
// between ticks, then materializes the scripted files.
func (m *Mock) Download(ctx context.Context, url string, opts DownloadOptions) error {
	script := m.Script
	if script == nil {
		script = defaultScript()
	}

	tick := m.TickEvery
	if tick == 0 && m.Script == nil {
		tick = consts.DefaultSimulateTime / time.Duration(len(script))
	}

	for _, ev := range script {
		if err := ctx.Err(); err != nil {
			return err
		}

		if tick > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(tick):
			}
		}

		if opts.OnProgress != nil {
			opts.OnProgress(ev)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if m.DownloadErr != nil {
		return m.DownloadErr
	}

	dir := filepath.Dir(opts.OutputTemplate)
	for name, content := range m.Files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("write mock file: %w", err)
		}
	}

	m.log.DebugContext(ctx, "mock download done", slog.String("url", url), slog.Int("files", len(m.Files)))

	return nil
}

// defaultScript simulates a ten-step download followed by the finish marker.
func defaultScript() []ProgressEvent {
	steps := 10
	script := make([]ProgressEvent, 0, steps+1)

	for i := 1; i <= steps; i++ {
		pct := i * (100 / steps)
		script = append(script, ProgressEvent{
			Status:  StatusDownloading,
			Percent: pct,
			Line:    fmt.Sprintf("[download] %d.0%% of 10.00MiB at 1.0MiB/s ETA 00:0%d", pct, steps-i),
		})
	}

	return append(script, ProgressEvent{
		Status:  StatusFinished,
		Percent: 100,
		Line:    "[download] Download completed. Processing...",
	})
}
