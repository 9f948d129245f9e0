package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"velvetdown/internal/classify"
	"velvetdown/internal/entity"
	"velvetdown/internal/errs"
	"velvetdown/internal/media"
)

// Params bound one download run.
type Params struct {
	URL            string
	Selection      entity.Selection
	TempDir        string
	FilenameTmpl   string
	MergeContainer string
	SocketTimeout  time.Duration
}

// Download transfers one selected format into the staging directory on a
// background goroutine.
type Download struct {
	log        *slog.Logger
	downloader media.Downloader
	sink       DownloadSink
	params     Params
	cancelled  atomic.Bool
	done       chan struct{}
}

// NewDownload creates a download worker for a single run.
func NewDownload(log *slog.Logger, downloader media.Downloader, sink DownloadSink, params Params) *Download {
	return &Download{
		log:        log.With(slog.String("package", "worker"), slog.String("worker", "download")),
		downloader: downloader,
		sink:       sink,
		params:     params,
		done:       make(chan struct{}),
	}
}

// Cancel requests cooperative cancellation. The flag is polled inside the
// progress callback, so it takes effect at the granularity the capability
// reports progress; there is no hard preemption.
func (d *Download) Cancel() {
	d.cancelled.Store(true)
}

// Done is closed once the run has fully finished.
func (d *Download) Done() <-chan struct{} {
	return d.done
}

// Run drives one download attempt and reports through the sink. Call it on
// its own goroutine; exactly one terminal sink call is made, panics included.
func (d *Download) Run(ctx context.Context) {
	defer close(d.done)

	log := d.log.With(slog.String("url", d.params.URL), slog.String("format", d.params.Selection.FormatCode))

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "download panic", slog.Any("panic", r))

			res := classify.Classify(fmt.Errorf("download panic: %v", r))
			d.sink.Failed(res.Kind, res.Message)
		}
	}()

	ctx, abort := context.WithCancelCause(ctx)
	defer abort(nil)

	// Merging is one-way: once entered, later events never read as plain
	// downloading again.
	merging := false

	opts := media.DownloadOptions{
		Format:         d.params.Selection.FormatCode,
		OutputTemplate: filepath.Join(d.params.TempDir, d.params.FilenameTmpl),
		NoPlaylist:     true,
		SocketTimeout:  d.params.SocketTimeout,
		OnProgress: func(ev media.ProgressEvent) {
			if d.cancelled.Load() {
				abort(errs.ErrDownloadCancelled)

				return
			}

			if !merging && isMergeEvent(ev) {
				merging = true
			}

			if merging {
				d.sink.Progress(entity.PhaseMerging, ev.Percent, ev.Line)

				return
			}

			d.sink.Progress(entity.PhaseDownloading, ev.Percent, ev.Line)
		},
	}

	if d.params.Selection.NeedsMerge() {
		opts.MergeContainer = d.params.MergeContainer
	}

	err := d.downloader.Download(ctx, d.params.URL, opts)

	switch {
	case err == nil:
		path, scanErr := LargestOutput(d.params.TempDir)
		if scanErr != nil {
			log.ErrorContext(ctx, "no output file", slog.Any("error", scanErr))

			res := classify.Classify(scanErr)
			d.sink.Failed(res.Kind, res.Message)

			return
		}

		log.InfoContext(ctx, "download completed", slog.String("path", path))
		d.sink.Completed(path)
	case d.wasCancelled(ctx, err):
		log.InfoContext(ctx, "download cancelled")
		d.sink.Cancelled()
	default:
		log.ErrorContext(ctx, "download failed", slog.Any("error", err))

		res := classify.Classify(err)
		d.sink.Failed(res.Kind, res.Message)
	}
}

// wasCancelled distinguishes a user-aborted run from a genuine failure. A
// cancelled download is never reported as failed.
func (d *Download) wasCancelled(ctx context.Context, err error) bool {
	return d.cancelled.Load() ||
		errors.Is(err, errs.ErrDownloadCancelled) ||
		errors.Is(context.Cause(ctx), errs.ErrDownloadCancelled) ||
		errors.Is(err, context.Canceled)
}

// Merge markers: an explicit post-processing status, the finished marker that
// precedes remuxing, or one of the status lines ffmpeg prints while combining
// streams.
func isMergeEvent(ev media.ProgressEvent) bool {
	switch ev.Status {
	case media.StatusFinished, media.StatusPostProcessing:
		return true
	}

	return strings.Contains(ev.Line, "[ffmpeg]") ||
		strings.Contains(ev.Line, "Merging formats") ||
		strings.Contains(ev.Line, "Processing")
}
