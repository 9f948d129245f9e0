package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"velvetdown/internal/catalog"
	"velvetdown/internal/classify"
	"velvetdown/internal/consts"
	"velvetdown/internal/entity"
	"velvetdown/internal/errs"
	"velvetdown/internal/worker"
	"velvetdown/pkg/urls"
)

// mergePercent is where the bar parks while streams are combined. Transfer
// percent is scaled into the room below it, so 100 is only ever shown once
// the file has actually landed in the destination folder.
const mergePercent = 95

// tempDirPattern names per-session staging directories under the temp root.
const tempDirPattern = "velvet_down_*"

func (eng *engine) run() {
	defer close(eng.loopDone)

	eng.log.InfoContext(eng.loopCtx, "engine started")

	for {
		select {
		case <-eng.loopCtx.Done():
			eng.onStop()

			return
		case ev := <-eng.events:
			eng.handle(ev)
		}
	}
}

func (eng *engine) handle(ev event) {
	switch ev := ev.(type) {
	case fetchRequested:
		eng.onFetchRequested(ev)
	case catalogReady:
		eng.onCatalogReady(ev)
	case fetchFailed:
		eng.onFetchFailed(ev)
	case downloadRequested:
		eng.onDownloadRequested(ev)
	case downloadProgress:
		eng.onDownloadProgress(ev)
	case downloadCompleted:
		eng.onDownloadCompleted(ev)
	case downloadCancelled:
		eng.onDownloadCancelled(ev)
	case downloadFailed:
		eng.onDownloadFailed(ev)
	case cancelDone:
		eng.onCancelDone(ev)
	case openRequested:
		eng.onOpenRequested()
	case openFailed:
		eng.onOpenFailed(ev)
	case destinationChanged:
		eng.onDestinationChanged(ev)
	}
}

// onStop runs when the loop context ends: any leftover staging directory is
// destroyed before the loop goroutine exits.
func (eng *engine) onStop() {
	eng.cleanupTemp()
	eng.log.Info("engine stopped")
}

func (eng *engine) onFetchRequested(ev fetchRequested) {
	if eng.activeDownload.Load() != nil {
		eng.log.InfoContext(eng.loopCtx, "fetch rejected, download active", slog.String("url", ev.url))
		eng.display.Notify(errs.ErrDownloadInFlight.Error())

		return
	}

	if eng.activeFetch.Load() != nil {
		eng.log.InfoContext(eng.loopCtx, "fetch rejected, fetch active", slog.String("url", ev.url))
		eng.display.Notify(errs.ErrFetchInFlight.Error())

		return
	}

	url := urls.Normalize(ev.url)
	if !urls.IsSupportedMediaURL(url) {
		eng.log.InfoContext(eng.loopCtx, "unsupported url",
			slog.String("url", ev.url), slog.Any("error", errs.ErrInvalidURL))
		eng.metrics.RecordFetch("invalid_url")
		eng.display.ShowError(consts.StatusInvalidURL)

		return
	}

	eng.session = entity.Session{
		ID:    uuid.NewString(),
		URL:   url,
		Phase: entity.PhaseFetching,
	}
	eng.catalog = entity.Catalog{}

	eng.display.ShowLoading(consts.StatusFetching)
	eng.spawnFetch(url)
}

// spawnFetch runs the connectivity gate and the fetch worker on one
// goroutine, so the loop never blocks on either.
func (eng *engine) spawnFetch(url string) {
	run := &fetchRun{
		sessionID: eng.session.ID,
		done:      make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(eng.loopCtx)
	run.cancel = cancel
	eng.activeFetch.Store(run)

	sink := &fetchSink{eng: eng, sessionID: run.sessionID}
	fetch := worker.NewFetch(eng.log, eng.extractor, sink, eng.cfg.Fetch.SocketTimeout)

	go func() {
		defer cancel()
		defer close(run.done)

		if !eng.prober.Check(ctx) {
			res := classify.Classify(errs.ErrNoConnectivity)
			sink.FetchFailed(res.Kind, res.Message)

			return
		}

		fetch.Run(ctx, url)
	}()
}

func (eng *engine) onCatalogReady(ev catalogReady) {
	if ev.sessionID != eng.session.ID {
		eng.log.DebugContext(eng.loopCtx, "stale catalog dropped", slog.String("session_id", ev.sessionID))

		return
	}

	eng.activeFetch.Store(nil)

	c := catalog.Build(ev.records)
	if c.Empty() {
		res := classify.Classify(errs.ErrNoFormats)
		eng.session.Phase = entity.PhaseIdle
		eng.metrics.RecordFetch("empty")
		eng.display.ShowError(res.Message)

		return
	}

	eng.catalog = c
	eng.session.Phase = entity.PhaseReady
	eng.metrics.RecordFetch("ok")
	eng.log.InfoContext(eng.loopCtx, "catalog ready",
		slog.Int("video", len(c.Video)), slog.Int("audio", len(c.Audio)))
	eng.display.ShowFormats(c)
}

func (eng *engine) onFetchFailed(ev fetchFailed) {
	if ev.sessionID != eng.session.ID {
		eng.log.DebugContext(eng.loopCtx, "stale fetch failure dropped", slog.String("session_id", ev.sessionID))

		return
	}

	eng.activeFetch.Store(nil)
	eng.session.Phase = entity.PhaseIdle
	eng.metrics.RecordFetch(string(ev.kind))
	eng.log.InfoContext(eng.loopCtx, "fetch failed", slog.String("kind", string(ev.kind)))
	eng.display.ShowError(ev.message)
}

func (eng *engine) onDownloadRequested(ev downloadRequested) {
	if !eng.session.Phase.CanStart() {
		notice := errs.ErrDownloadInFlight
		if eng.session.Phase == entity.PhaseFetching {
			notice = errs.ErrFetchInFlight
		}

		eng.log.InfoContext(eng.loopCtx, "download rejected", slog.String("phase", string(eng.session.Phase)))
		eng.display.Notify(notice.Error())

		return
	}

	if ev.selection.FormatCode == "" || !eng.catalogHas(ev.selection.FormatCode) {
		eng.log.InfoContext(eng.loopCtx, "selection not offered", slog.String("format", ev.selection.FormatCode))
		eng.display.Notify(errs.ErrNoSelection.Error())

		return
	}

	tempDir, err := eng.makeTempDir()
	if err != nil {
		eng.log.ErrorContext(eng.loopCtx, "staging dir", slog.Any("error", err))

		res := classify.Classify(err)
		eng.display.ShowError(fmt.Sprintf(consts.StatusFailed, res.Message))

		return
	}

	eng.session = entity.Session{
		ID:        uuid.NewString(),
		URL:       eng.session.URL,
		Selection: ev.selection,
		Phase:     entity.PhaseStarting,
		TempDir:   tempDir,
		DestDir:   eng.destDir,
		StartedAt: time.Now(),
	}
	eng.lastShown = time.Time{}
	eng.endTimer = eng.metrics.DownloadTimer()
	eng.metrics.RecordDownloadStarted()

	eng.log.InfoContext(eng.loopCtx, "download starting", "session", eng.session)

	eng.display.SetURLInputEnabled(false)
	eng.display.SetCancelVisible(true)
	eng.display.SetOpenFileVisible(false, "")
	eng.display.UpdateProgress(0, consts.StatusStarting)

	eng.spawnDownload()
}

// makeTempDir creates the per-session staging directory under the temp root.
func (eng *engine) makeTempDir() (string, error) {
	if err := os.MkdirAll(eng.cfg.Dir.TempRoot, 0o755); err != nil {
		return "", fmt.Errorf("temp root: %w", err)
	}

	dir, err := os.MkdirTemp(eng.cfg.Dir.TempRoot, tempDirPattern)
	if err != nil {
		return "", fmt.Errorf("staging dir: %w", err)
	}

	return dir, nil
}

func (eng *engine) spawnDownload() {
	run := &downloadRun{
		sessionID: eng.session.ID,
		done:      make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(eng.loopCtx)
	run.cancel = cancel

	sink := &downloadSink{eng: eng, sessionID: run.sessionID}
	run.worker = worker.NewDownload(eng.log, eng.downloader, sink, worker.Params{
		URL:            eng.session.URL,
		Selection:      eng.session.Selection,
		TempDir:        eng.session.TempDir,
		FilenameTmpl:   eng.cfg.Dir.FilenameTemplate,
		MergeContainer: eng.cfg.Download.MergeContainer,
		SocketTimeout:  eng.cfg.Download.SocketTimeout,
	})
	eng.activeDownload.Store(run)

	go func() {
		defer cancel()
		defer close(run.done)

		run.worker.Run(ctx)
	}()
}

// onDownloadProgress folds a worker progress event into the display. Transfer
// percent is scaled onto 0..95 and the merge phase pins 95. Phase transitions
// always render; everything else is dropped until the progress interval has
// passed. The displayed percent never moves backwards within a session.
func (eng *engine) onDownloadProgress(ev downloadProgress) {
	if ev.sessionID != eng.session.ID || eng.session.Phase.Terminal() {
		return
	}

	switch ev.phase {
	case entity.PhaseMerging:
		if eng.session.Phase == entity.PhaseMerging {
			return
		}

		eng.session.Phase = entity.PhaseMerging
		eng.session.Percent = mergePercent
		eng.lastShown = time.Now()
		eng.display.UpdateProgress(mergePercent, consts.StatusMerging)
	case entity.PhaseDownloading:
		transition := eng.session.Phase != entity.PhaseDownloading
		if transition {
			eng.session.Phase = entity.PhaseDownloading
		}

		percent := scaleTransferPercent(ev.percent)
		if percent < eng.session.Percent {
			percent = eng.session.Percent
		}

		now := time.Now()
		if !transition && now.Sub(eng.lastShown) < eng.cfg.Download.ProgressInterval {
			return
		}

		eng.session.Percent = percent
		eng.lastShown = now
		eng.display.UpdateProgress(percent, fmt.Sprintf(consts.StatusDownloading, percent))
	}
}

// scaleTransferPercent maps raw transfer percent onto the portion of the bar
// reserved for the transfer itself.
func scaleTransferPercent(p int) int {
	scaled := p * mergePercent / 100

	if scaled > mergePercent {
		return mergePercent
	}

	if scaled < 0 {
		return 0
	}

	return scaled
}

func (eng *engine) onDownloadCompleted(ev downloadCompleted) {
	if ev.sessionID != eng.session.ID || eng.session.Phase.Terminal() {
		return
	}

	finalPath, err := eng.mover.Move(ev.path, eng.session.DestDir)
	if err != nil {
		eng.log.ErrorContext(eng.loopCtx, "move to destination", slog.Any("error", err))

		res := classify.Classify(err)
		eng.finishDownload(entity.PhaseFailed, "failed")
		eng.display.ShowError(fmt.Sprintf("%s: %s", consts.StatusMoveFailed, res.Message))

		return
	}

	if err := eng.granter.GrantFullControl(eng.loopCtx, finalPath); err != nil {
		eng.log.WarnContext(eng.loopCtx, "grant permissions", slog.Any("error", err))
	}

	if info, err := os.Stat(finalPath); err == nil {
		eng.metrics.AddDownloadBytes(info.Size())
	}

	eng.session.OutputPath = finalPath
	eng.lastFile = finalPath
	eng.lastAudio = eng.session.Selection.Audio

	eng.finishDownload(entity.PhaseCompleted, "completed")

	eng.session.Percent = 100
	eng.display.UpdateProgress(100, consts.StatusCompleted)
	eng.display.SetOpenFileVisible(true, openLabel(eng.lastAudio))

	eng.log.InfoContext(eng.loopCtx, "session completed", "session", eng.session)
}

func (eng *engine) onDownloadFailed(ev downloadFailed) {
	if ev.sessionID != eng.session.ID || eng.session.Phase.Terminal() {
		return
	}

	eng.log.InfoContext(eng.loopCtx, "session failed",
		slog.String("kind", string(ev.kind)), slog.String("message", ev.message))

	eng.finishDownload(entity.PhaseFailed, "failed")
	eng.display.ShowError(fmt.Sprintf(consts.StatusFailed, ev.message))
}

func (eng *engine) onDownloadCancelled(ev downloadCancelled) {
	if ev.sessionID != eng.session.ID {
		return
	}

	eng.finalizeCancel()
}

// onCancelDone arrives after the bounded join in CancelDownload. If the
// worker's own cancelled event got here first this is a no-op; if the worker
// never acknowledged, state is reset regardless.
func (eng *engine) onCancelDone(ev cancelDone) {
	if ev.sessionID != eng.session.ID {
		return
	}

	eng.finalizeCancel()
}

func (eng *engine) finalizeCancel() {
	if eng.session.Phase.Terminal() {
		return
	}

	eng.log.InfoContext(eng.loopCtx, "session cancelled", "session", eng.session)

	eng.finishDownload(entity.PhaseCancelled, "cancelled")
	eng.session.Percent = 0
	eng.display.UpdateProgress(0, consts.StatusCancelled)
}

// finishDownload applies the shared terminal bookkeeping: phase, metrics,
// display idle state, staging cleanup.
func (eng *engine) finishDownload(phase entity.Phase, status string) {
	eng.activeDownload.Store(nil)
	eng.session.Phase = phase
	eng.session.FinishedAt = time.Now()
	eng.endTimer()
	eng.endTimer = func() {}
	eng.metrics.RecordDownloadEnded(status)
	eng.display.SetURLInputEnabled(true)
	eng.display.SetCancelVisible(false)
	eng.cleanupTemp()
}

func (eng *engine) onOpenRequested() {
	if eng.lastFile == "" {
		eng.log.DebugContext(eng.loopCtx, "open requested", slog.Any("error", errs.ErrNoDownloadedFile))
		eng.display.Notify(consts.StatusNoFile)

		return
	}

	if _, err := os.Stat(eng.lastFile); err != nil {
		eng.log.WarnContext(eng.loopCtx, "recorded file missing",
			slog.String("path", eng.lastFile), slog.Any("error", err))

		eng.lastFile = ""
		eng.display.SetOpenFileVisible(false, "")
		eng.display.Notify(consts.StatusNoFile)

		return
	}

	path := eng.lastFile

	// The OS handoff may stall on a slow handler; keep it off the loop.
	go func() {
		if err := eng.opener.Open(eng.loopCtx, path); err != nil {
			eng.post(openFailed{message: err.Error()})
		}
	}()
}

func (eng *engine) onOpenFailed(ev openFailed) {
	eng.log.WarnContext(eng.loopCtx, "open file", slog.String("error", ev.message))
	eng.display.Notify(fmt.Sprintf(consts.StatusOpenFailed, ev.message))
}

// onDestinationChanged updates where finished files land. An empty dir resets
// to the configured default. Takes effect for the next download; an active
// session keeps the folder it started with.
func (eng *engine) onDestinationChanged(ev destinationChanged) {
	dir := ev.dir
	if dir == "" {
		dir = eng.cfg.Dir.Destination
	}

	eng.destDir = dir
	eng.log.InfoContext(eng.loopCtx, "destination set", slog.String("dir", dir))
}

// cleanupTemp destroys the session staging directory. Removal errors are
// logged and swallowed; staging is disposable by construction.
func (eng *engine) cleanupTemp() {
	if eng.session.TempDir == "" {
		return
	}

	if err := os.RemoveAll(eng.session.TempDir); err != nil {
		eng.log.Warn("remove staging dir",
			slog.String("dir", eng.session.TempDir), slog.Any("error", err))
	}

	eng.session.TempDir = ""
}

// catalogHas reports whether the format code is one of the currently offered
// options. Picks from a stale or absent listing are no-ops.
func (eng *engine) catalogHas(code string) bool {
	for _, v := range eng.catalog.Video {
		if v.FormatCode == code {
			return true
		}
	}

	for _, a := range eng.catalog.Audio {
		if a.FormatCode == code {
			return true
		}
	}

	return false
}

func openLabel(audio bool) string {
	if audio {
		return consts.OpenLabelAudio
	}

	return consts.OpenLabelVideo
}
