package media

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"velvetdown/internal/consts"
	"velvetdown/internal/errs"
	"velvetdown/pkg/calc"
	"velvetdown/pkg/shellquote"

	"github.com/lrstanley/go-ytdlp"
)

var (
	maxJSONSize = 10 * 1024 * 1024 // 10 MiB scanner buffer
	bufSize     = 4096             // 4 KiB buffer size
)

// YTDLP drives the yt-dlp binary for both metadata fetches and downloads.
type YTDLP struct {
	log          *slog.Logger
	progressFreq time.Duration
}

var (
	_ Extractor  = (*YTDLP)(nil)
	_ Downloader = (*YTDLP)(nil)
)

// NewYTDLP creates a new yt-dlp backed capability.
func NewYTDLP(log *slog.Logger) *YTDLP {
	return &YTDLP{
		log:          log.With(slog.String("package", "media"), slog.String("backend", consts.BackendYTdlp)),
		progressFreq: consts.DefaultProgressFreq,
	}
}

// FetchInfo dumps the metadata of a single resource without downloading it.
func (y *YTDLP) FetchInfo(ctx context.Context, url string, opts InfoOptions) (*Info, error) {
	command := ytdlp.New().
		DumpSingleJSON().
		NoWarnings()

	if opts.NoPlaylist {
		command = command.NoPlaylist()
	}

	if opts.SocketTimeout > 0 {
		command = command.SocketTimeout(opts.SocketTimeout.Seconds())
	}

	res, err := command.Run(ctx, url)
	if err != nil {
		y.log.ErrorContext(ctx, "ytdlp fetch info", slog.Any("error", err), slog.Any("result", Result{res}))

		return nil, fmt.Errorf("ytdlp fetch info: %w", err)
	}

	info, err := ParseInfo(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("parse info: %w", err)
	}

	y.log.DebugContext(ctx, "info fetched",
		slog.String("id", info.ID),
		slog.String("title", info.Title),
		slog.Int("formats", len(info.Formats)))

	return info, nil
}

// Download transfers the selected format into the staging directory named by
// the output template. Progress callbacks arrive on the capability's own
// goroutine at the configured frequency.
func (y *YTDLP) Download(ctx context.Context, url string, opts DownloadOptions) error {
	command := ytdlp.New().
		Format(opts.Format).
		Output(opts.OutputTemplate).
		NoWarnings()

	if opts.NoPlaylist {
		command = command.NoPlaylist()
	}

	if opts.SocketTimeout > 0 {
		command = command.SocketTimeout(opts.SocketTimeout.Seconds())
	}

	if opts.MergeContainer != "" {
		command = command.MergeOutputFormat(opts.MergeContainer)
	}

	if opts.OnProgress != nil {
		command = command.ProgressFunc(y.progressFreq, func(update ytdlp.ProgressUpdate) {
			y.log.DebugContext(ctx, "ytdlp progress", "progress_update", ProgressUpdate{&update})
			opts.OnProgress(newProgressEvent(update))
		})
	}

	res, err := command.Run(ctx, url)
	if err != nil {
		y.log.ErrorContext(ctx, "ytdlp run",
			slog.Any("error", err),
			slog.String("command", commandLine(res)),
			slog.Any("result", Result{res}))

		return fmt.Errorf("ytdlp run: %w", err)
	}

	y.log.InfoContext(ctx, "download done", slog.Any("result", Result{res}))

	return nil
}

// ParseInfo decodes the single-JSON metadata dump from yt-dlp stdout,
// skipping any stray non-JSON lines around it.
func ParseInfo(stdout string) (*Info, error) {
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, bufSize), maxJSONSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "{") {
			continue
		}

		var info Info
		if err := json.Unmarshal([]byte(line), &info); err != nil {
			continue
		}

		return &info, nil
	}

	return nil, fmt.Errorf("parse ytdlp stdout: %w", errs.ErrNoFormats)
}

// newProgressEvent reshapes a raw capability update into the event the
// download worker consumes.
func newProgressEvent(update ytdlp.ProgressUpdate) ProgressEvent {
	ev := ProgressEvent{
		Status:          string(update.Status),
		Percent:         calc.Progress(update.DownloadedBytes, update.TotalBytes),
		DownloadedBytes: update.DownloadedBytes,
		TotalBytes:      update.TotalBytes,
		ETA:             calc.ETA(update.DownloadedBytes, update.TotalBytes, update.Started),
	}
	ev.Line = statusLine(ev, update.Started)

	return ev
}

func statusLine(ev ProgressEvent, started time.Time) string {
	switch ev.Status {
	case StatusFinished:
		return "[download] Download completed. Processing..."
	case StatusPostProcessing:
		return "[ffmpeg] Merging formats"
	case StatusError:
		return "[ERROR] download failed"
	default:
		return fmt.Sprintf("[download] %.1f%% of %s at %s ETA %s",
			calc.Percent(ev.DownloadedBytes, ev.TotalBytes),
			sizeLabel(ev.TotalBytes),
			speedLabel(ev.DownloadedBytes, started),
			calc.FormatETA(ev.ETA))
	}
}

func sizeLabel(total int) string {
	if total <= 0 {
		return "N/A"
	}

	return fmt.Sprintf("%.2fMiB", float64(total)/(1024*1024))
}

func speedLabel(downloaded int, started time.Time) string {
	if started.IsZero() || downloaded <= 0 {
		return "N/A"
	}

	elapsed := time.Since(started).Seconds()
	if elapsed <= 0 {
		return "N/A"
	}

	return fmt.Sprintf("%.1fMiB/s", float64(downloaded)/elapsed/(1024*1024))
}

func commandLine(res *ytdlp.Result) string {
	if res == nil {
		return ""
	}

	return shellquote.Join(append([]string{res.Executable}, res.Args...)...)
}
