// Package orchestrator owns the download session state machine. All session
// state lives on a single event loop goroutine: public operations and worker
// sinks only post events, and the loop is the sole mutator, so no field is
// ever touched concurrently.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"velvetdown/internal/config"
	"velvetdown/internal/display"
	"velvetdown/internal/entity"
	"velvetdown/internal/errs"
	"velvetdown/internal/media"
	"velvetdown/internal/netprobe"
	"velvetdown/internal/observability"
	"velvetdown/internal/platform"
	"velvetdown/internal/worker"
)

// Orchestrator drives download sessions in response to user operations. At
// most one fetch and one download run at a time; operations that would
// overlap an active run are rejected with a display notice, never queued.
type Orchestrator interface {
	Start(ctx context.Context)

	FetchFormats(url string)
	StartDownload(selection entity.Selection)
	CancelDownload()
	OpenDownloadedFile()
	SetDestination(dir string)
	ResetDestination()

	Shutdown()
}

// fetchRun tracks one spawned fetch goroutine.
type fetchRun struct {
	sessionID string
	cancel    context.CancelFunc
	done      chan struct{}
}

// downloadRun tracks one spawned download goroutine.
type downloadRun struct {
	sessionID string
	worker    *worker.Download
	cancel    context.CancelFunc
	done      chan struct{}
}

type engine struct {
	cfg        *config.Config
	log        *slog.Logger
	display    display.Display
	extractor  media.Extractor
	downloader media.Downloader
	prober     netprobe.Prober
	opener     platform.Opener
	mover      platform.Mover
	granter    platform.Granter
	metrics    *observability.Metrics

	events   chan event
	loopCtx  context.Context
	stopLoop context.CancelFunc
	loopDone chan struct{}

	// Worker handles shared with CancelDownload and Shutdown, which run on
	// caller goroutines. Everything below is loop-owned.
	activeFetch    atomic.Pointer[fetchRun]
	activeDownload atomic.Pointer[downloadRun]

	session   entity.Session
	catalog   entity.Catalog
	destDir   string
	lastFile  string
	lastAudio bool
	lastShown time.Time
	endTimer  func()

	startOnce    sync.Once
	shutdownOnce sync.Once
	started      atomic.Bool
	closed       atomic.Bool
}

var _ Orchestrator = (*engine)(nil)

// New wires an engine from its capabilities. A nil metrics is valid and
// disables recording.
func New(
	cfg *config.Config,
	log *slog.Logger,
	disp display.Display,
	extractor media.Extractor,
	downloader media.Downloader,
	prober netprobe.Prober,
	opener platform.Opener,
	mover platform.Mover,
	granter platform.Granter,
	metrics *observability.Metrics,
) Orchestrator {
	return &engine{
		cfg:        cfg,
		log:        log.With(slog.String("package", "orchestrator")),
		display:    disp,
		extractor:  extractor,
		downloader: downloader,
		prober:     prober,
		opener:     opener,
		mover:      mover,
		granter:    granter,
		metrics:    metrics,
		events:     make(chan event, cfg.Download.EventBuffer),
		loopDone:   make(chan struct{}),
		session:    entity.Session{Phase: entity.PhaseIdle},
		destDir:    cfg.Dir.Destination,
		endTimer:   func() {},
	}
}

// Start launches the event loop. Operations posted before Start are dropped.
func (eng *engine) Start(ctx context.Context) {
	eng.startOnce.Do(func() {
		eng.loopCtx, eng.stopLoop = context.WithCancel(ctx)
		eng.started.Store(true)

		go eng.run()
	})
}

// post puts an event on the queue unless the engine is stopped.
func (eng *engine) post(ev event) {
	if !eng.started.Load() {
		return
	}

	if eng.closed.Load() {
		eng.log.Debug("operation dropped", slog.Any("error", errs.ErrShuttingDown))

		return
	}

	select {
	case eng.events <- ev:
	case <-eng.loopCtx.Done():
	}
}

// FetchFormats validates the URL and retrieves its format catalog in the
// background.
func (eng *engine) FetchFormats(url string) {
	eng.post(fetchRequested{url: url})
}

// StartDownload begins downloading the selected format in the background.
func (eng *engine) StartDownload(selection entity.Selection) {
	eng.post(downloadRequested{selection: selection})
}

// OpenDownloadedFile reveals the most recently completed file through the OS.
func (eng *engine) OpenDownloadedFile() {
	eng.post(openRequested{})
}

// SetDestination changes where finished files land, starting with the next
// download.
func (eng *engine) SetDestination(dir string) {
	eng.post(destinationChanged{dir: dir})
}

// ResetDestination restores the configured default destination folder.
func (eng *engine) ResetDestination() {
	eng.post(destinationChanged{})
}

// CancelDownload flags the active download worker and waits, bounded, for it
// to wind down. State reset happens on the loop either via the worker's own
// cancelled event or via the finalize event posted here, whichever lands
// first; the other is a no-op.
func (eng *engine) CancelDownload() {
	run := eng.activeDownload.Load()
	if run == nil {
		return
	}

	eng.log.Info("cancel requested", slog.String("session_id", run.sessionID))
	run.worker.Cancel()

	select {
	case <-run.done:
	case <-time.After(eng.cfg.Download.CancelWait):
		eng.log.Warn("cancel not acknowledged in time", slog.String("session_id", run.sessionID))
	}

	eng.post(cancelDone{sessionID: run.sessionID})
}

// Shutdown stops the loop after a bounded attempt to wind down in-flight
// work. Safe to call more than once; operations posted afterwards are
// dropped.
func (eng *engine) Shutdown() {
	eng.shutdownOnce.Do(func() {
		eng.closed.Store(true)

		if !eng.started.Load() {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), eng.cfg.Download.ShutdownWait)
		defer cancel()

		if run := eng.activeFetch.Load(); run != nil {
			run.cancel()

			select {
			case <-run.done:
			case <-ctx.Done():
				eng.log.Warn("fetch worker did not stop in time")
			}
		}

		if run := eng.activeDownload.Load(); run != nil {
			run.worker.Cancel()
			run.cancel()

			select {
			case <-run.done:
			case <-ctx.Done():
				eng.log.Warn("download worker did not stop in time")
			}
		}

		eng.stopLoop()

		select {
		case <-eng.loopDone:
		case <-ctx.Done():
		}
	})
}
