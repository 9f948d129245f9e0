package media

import (
	"fmt"
	"log/slog"

	"velvetdown/pkg/calc"

	"github.com/lrstanley/go-ytdlp"
)

// Result wraps ytdlp.Result for custom logging.
type Result struct {
	*ytdlp.Result
}

// LogValue implements the slog.LogValuer interface for custom logging of Result.
func (r Result) LogValue() slog.Value {
	if r.Result == nil {
		return slog.GroupValue(slog.String("error", "nil result"))
	}

	var outputLogs string
	if r.OutputLogs != nil {
		for _, log := range r.OutputLogs {
			outputLogs += fmt.Sprintf("%s\n", log)
		}
	}

	return slog.GroupValue(
		slog.String("executable", r.Executable),
		slog.String("args", fmt.Sprintf("%v", r.Args)),
		slog.String("stdout", r.Stdout),
		slog.String("stderr", r.Stderr),
		slog.String("output_logs", outputLogs),
	)
}

// ProgressUpdate wraps ytdlp.ProgressUpdate for custom logging.
type ProgressUpdate struct {
	*ytdlp.ProgressUpdate
}

// LogValue implements the slog.LogValuer interface for custom logging of ProgressUpdate.
func (p ProgressUpdate) LogValue() slog.Value {
	if p.ProgressUpdate == nil {
		return slog.GroupValue(slog.String("error", "nil progress update"))
	}

	return slog.GroupValue(
		slog.String("filename", p.Filename),
		slog.String("status", fmt.Sprintf("%v", p.Status)),
		slog.Int("downloaded_bytes", p.DownloadedBytes),
		slog.Int("total_bytes", p.TotalBytes),
		slog.Int("fragment_index", p.FragmentIndex),
		slog.Int("fragment_count", p.FragmentCount),
		slog.Int("progress", calc.Progress(p.DownloadedBytes, p.TotalBytes)),
		slog.Time("started", p.Started),
		slog.Time("finished", p.Finished),
		slog.String("eta", calc.ETA(p.DownloadedBytes, p.TotalBytes, p.Started).String()),
	)
}
