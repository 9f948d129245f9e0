package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"velvetdown/internal/classify"
	"velvetdown/internal/errs"
	"velvetdown/internal/media"
)

// Fetch retrieves the format listing for one URL on a background goroutine.
type Fetch struct {
	log       *slog.Logger
	extractor media.Extractor
	sink      FetchSink
	timeout   time.Duration
	done      chan struct{}
}

// NewFetch creates a fetch worker for a single run.
func NewFetch(log *slog.Logger, extractor media.Extractor, sink FetchSink, timeout time.Duration) *Fetch {
	return &Fetch{
		log:       log.With(slog.String("package", "worker"), slog.String("worker", "fetch")),
		extractor: extractor,
		sink:      sink,
		timeout:   timeout,
		done:      make(chan struct{}),
	}
}

// Done is closed once the run has fully finished.
func (f *Fetch) Done() <-chan struct{} {
	return f.done
}

// Run fetches the format listing and reports through the sink. Call it on its
// own goroutine; exactly one terminal sink call is made, panics included.
func (f *Fetch) Run(ctx context.Context, url string) {
	defer close(f.done)

	log := f.log.With(slog.String("url", url))

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "fetch panic", slog.Any("panic", r))

			res := classify.Classify(fmt.Errorf("fetch panic: %v", r))
			f.sink.FetchFailed(res.Kind, res.Message)
		}
	}()

	info, err := f.extractor.FetchInfo(ctx, url, media.InfoOptions{
		NoPlaylist:    true,
		SocketTimeout: f.timeout,
	})
	if err != nil {
		log.ErrorContext(ctx, "fetch info", slog.Any("error", err))

		res := classify.Classify(err)
		f.sink.FetchFailed(res.Kind, res.Message)

		return
	}

	if len(info.Formats) == 0 {
		log.InfoContext(ctx, "source offered no formats")

		res := classify.Classify(errs.ErrNoFormats)
		f.sink.FetchFailed(res.Kind, res.Message)

		return
	}

	log.InfoContext(ctx, "formats fetched", slog.Int("count", len(info.Formats)))
	f.sink.CatalogReady(info.Formats)
}
